package terrain

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"testing"

	"hexmesh/internal/config"
	"hexmesh/internal/hex"
)

func testConfig() config.TerrainConfig {
	return config.TerrainConfig{
		Seed:        7,
		BaseHeight:  5,
		Amplitude:   3,
		Frequency:   0.3,
		Octaves:     3,
		Persistence: 0.5,
		Lacunarity:  2,
	}
}

func TestHeightIsDeterministicAndBounded(t *testing.T) {
	a := NewHeightField(testConfig(), nil)
	b := NewHeightField(testConfig(), nil)

	distinct := make(map[float64]struct{})
	for _, c := range hex.TilesInRange(hex.Origin, 6) {
		h := a.Height(c)
		if h != b.Height(c) {
			t.Fatalf("height at %v differs between identical fields", c)
		}
		if h < 2 || h > 8 {
			t.Fatalf("height %f at %v outside [2, 8]", h, c)
		}
		distinct[h] = struct{}{}
	}
	if len(distinct) < 2 {
		t.Fatalf("expected varied terrain, got %d distinct heights", len(distinct))
	}
}

func TestHeightDependsOnSeed(t *testing.T) {
	other := testConfig()
	other.Seed = 8
	a := NewHeightField(testConfig(), nil)
	b := NewHeightField(other, nil)
	for _, c := range hex.TilesInRange(hex.Origin, 4) {
		if a.Height(c) != b.Height(c) {
			return
		}
	}
	t.Fatalf("different seeds produced identical terrain")
}

func TestHeightSnapsToStep(t *testing.T) {
	cfg := testConfig()
	cfg.Step = 0.5
	field := NewHeightField(cfg, nil)
	for _, c := range hex.TilesInRange(hex.Origin, 4) {
		h := field.Height(c)
		if steps := h / 0.5; math.Abs(steps-math.Round(steps)) > 1e-9 {
			t.Fatalf("height %f at %v is not a multiple of 0.5", h, c)
		}
	}
}

func TestZeroAmplitudeIsFlat(t *testing.T) {
	cfg := testConfig()
	cfg.Amplitude = 0
	field := NewHeightField(cfg, nil)
	for _, c := range hex.TilesInRange(hex.Origin, 3) {
		if h := field.Height(c); h != 5 {
			t.Fatalf("height %f at %v, want 5", h, c)
		}
	}
}

func TestJitterRange(t *testing.T) {
	field := NewHeightField(testConfig(), nil)
	for _, c := range hex.TilesInRange(hex.Origin, 5) {
		j := field.Jitter(c)
		if j < 0 || j >= 1 {
			t.Fatalf("jitter %f at %v outside [0, 1)", j, c)
		}
		if j != field.Jitter(c) {
			t.Fatalf("jitter not repeatable at %v", c)
		}
	}
}

func TestSampleMatchesHeightAndLogsProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	cfg := testConfig()
	cfg.Workers = 3
	field := NewHeightField(cfg, logger)

	coords := hex.TilesInRange(hex.Origin, 5)
	heights, err := field.Sample(context.Background(), coords)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(heights) != len(coords) {
		t.Fatalf("got %d heights for %d coords", len(heights), len(coords))
	}
	for i, c := range coords {
		if heights[i] != field.Height(c) {
			t.Fatalf("sample %d does not match Height(%v)", i, c)
		}
	}

	logs := buf.String()
	for _, marker := range []string{"0%", "50%", "100%"} {
		if !strings.Contains(logs, marker) {
			t.Fatalf("expected logs to contain progress %s, got: %s", marker, logs)
		}
	}
}

func TestSampleEmpty(t *testing.T) {
	var buf bytes.Buffer
	field := NewHeightField(testConfig(), log.New(&buf, "", 0))
	heights, err := field.Sample(context.Background(), nil)
	if err != nil || len(heights) != 0 {
		t.Fatalf("Sample(nil) = %v, %v", heights, err)
	}
	if !strings.Contains(buf.String(), "100%") {
		t.Fatalf("expected completion log, got %q", buf.String())
	}
}

func TestSampleHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	field := NewHeightField(testConfig(), log.New(&bytes.Buffer{}, "", 0))
	if _, err := field.Sample(ctx, hex.TilesInRange(hex.Origin, 20)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConstant(t *testing.T) {
	var src Source = Constant(2.5)
	if src.Height(hex.NewAxial(9, -3)) != 2.5 {
		t.Fatalf("constant source returned %f", src.Height(hex.Origin))
	}
}
