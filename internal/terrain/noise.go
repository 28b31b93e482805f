// Package terrain produces repeatable tile heights from hashed value noise.
package terrain

import (
	"context"
	"log"
	"math"
	"runtime"
	"sync"

	"hexmesh/internal/config"
	"hexmesh/internal/hex"
)

// Source yields a height for any tile coordinate.
type Source interface {
	Height(c hex.Axial) float64
}

// Constant is a Source returning the same height everywhere.
type Constant float64

func (c Constant) Height(hex.Axial) float64 {
	return float64(c)
}

// HeightField samples fractal value noise at tile centers. The same seed and
// coordinate always produce the same height.
type HeightField struct {
	cfg    config.TerrainConfig
	logger *log.Logger
}

func NewHeightField(cfg config.TerrainConfig, logger *log.Logger) *HeightField {
	if logger == nil {
		logger = log.Default()
	}
	return &HeightField{cfg: cfg, logger: logger}
}

// Height returns BaseHeight plus noise scaled by Amplitude, snapped to Step.
func (f *HeightField) Height(c hex.Axial) float64 {
	p := c.ToCartesian(1)
	noise := f.fractalNoise(p.X, p.Y)
	height := f.cfg.BaseHeight + noise*f.cfg.Amplitude
	if f.cfg.Step > 0 {
		height = math.Round(height/f.cfg.Step) * f.cfg.Step
	}
	return clamp(height, f.cfg.BaseHeight-f.cfg.Amplitude, f.cfg.BaseHeight+f.cfg.Amplitude)
}

// Jitter returns a value in [0, 1) derived from the coordinate alone.
func (f *HeightField) Jitter(c hex.Axial) float64 {
	return float64(hash3(c.Q, c.R, int(f.cfg.Seed^0x5bd1e995))&0xFFFF) / 0x10000
}

// Sample computes the height of every coordinate with a pool of workers and logs
// progress in steps of ten percent. Results are in coords order.
func (f *HeightField) Sample(ctx context.Context, coords []hex.Axial) ([]float64, error) {
	heights := make([]float64, len(coords))
	total := len(coords)
	if total == 0 {
		f.logger.Printf("height sampling progress: 100%%")
		return heights, nil
	}
	f.logger.Printf("height sampling progress: 0%%")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := f.workerCount(total)
	tasks := make(chan int, workers)
	done := make(chan int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				heights[idx] = f.Height(coords[idx])
				select {
				case done <- idx:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	go func() {
		defer close(tasks)
		for idx := range coords {
			select {
			case <-ctx.Done():
				return
			case tasks <- idx:
			}
		}
	}()

	sampled := 0
	nextLogPercent := 10
	for range done {
		sampled++
		progress := sampled * 100 / total
		if progress >= nextLogPercent {
			f.logger.Printf("height sampling progress: %d%%", progress)
			nextLogPercent = ((progress / 10) + 1) * 10
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return heights, nil
}

func (f *HeightField) workerCount(total int) int {
	workers := f.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0) * 2
	}
	if workers > total {
		workers = total
	}
	if workers <= 0 {
		workers = 1
	}
	return workers
}

func (f *HeightField) fractalNoise(x, y float64) float64 {
	frequency := f.cfg.Frequency
	amplitude := 1.0
	noiseSum := 0.0
	maxAmplitude := 0.0

	for i := 0; i < f.cfg.Octaves; i++ {
		noiseSum += f.valueNoise(x*frequency, y*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= f.cfg.Persistence
		frequency *= f.cfg.Lacunarity
	}

	if maxAmplitude == 0 {
		return 0
	}
	return noiseSum / maxAmplitude
}

func (f *HeightField) valueNoise(x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := x0 + 1
	y1 := y0 + 1

	sx := smooth(x - float64(x0))
	sy := smooth(y - float64(y0))

	ix0 := lerp(random2D(x0, y0, f.cfg.Seed), random2D(x1, y0, f.cfg.Seed), sx)
	ix1 := lerp(random2D(x0, y1, f.cfg.Seed), random2D(x1, y1, f.cfg.Seed), sx)
	return lerp(ix0, ix1, sy)
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// random2D maps a lattice point to [-1, 1).
func random2D(x, y int, seed int64) float64 {
	return float64(hash3(x, y, int(seed))&0xFFFF)/0x8000 - 1.0
}

func hash3(x, y, z int) uint32 {
	h := uint32(x*374761393 + y*668265263 + z*2147483647)
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
