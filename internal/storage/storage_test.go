package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"hexmesh/internal/config"
)

func sampleSnapshot(name string) MapSnapshot {
	return MapSnapshot{
		Name:  name,
		Order: 1,
		Tiles: []TileRecord{
			{Q: 0, R: 0, Height: 5, Offset: 0.5},
			{Q: 1, R: -1, Height: 6.5, Offset: 1.25},
			{Q: -1, R: 0, Height: 4},
		},
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// exerciseRepository runs the behaviour every Repository shares.
func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	if _, err := repo.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load missing: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete missing: expected ErrNotFound, got %v", err)
	}
	if err := repo.Save(ctx, MapSnapshot{Name: "bad name"}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("Save invalid: expected ErrInvalidName, got %v", err)
	}

	first := sampleSnapshot("beta")
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, sampleSnapshot("alpha")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Load(ctx, "beta")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != first.Name || got.Order != first.Order || !reflect.DeepEqual(got.Tiles, first.Tiles) {
		t.Fatalf("Load mismatch: got %+v want %+v", got, first)
	}
	if !got.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("UpdatedAt = %v, want %v", got.UpdatedAt, first.UpdatedAt)
	}

	replaced := first
	replaced.Order = 2
	replaced.Tiles = []TileRecord{{Q: 2, R: -2, Height: 1}}
	if err := repo.Save(ctx, replaced); err != nil {
		t.Fatalf("Save replace: %v", err)
	}
	got, err = repo.Load(ctx, "beta")
	if err != nil {
		t.Fatalf("Load replaced: %v", err)
	}
	if got.Order != 2 || !reflect.DeepEqual(got.Tiles, replaced.Tiles) {
		t.Fatalf("replace not applied: %+v", got)
	}

	names, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "beta"}) {
		t.Fatalf("List = %v", names)
	}

	if err := repo.Delete(ctx, "alpha"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Load(ctx, "alpha"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load deleted: expected ErrNotFound, got %v", err)
	}
	names, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"beta"}) {
		t.Fatalf("List after delete = %v", names)
	}
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestMemoryRepositoryCopiesTiles(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	snap := sampleSnapshot("copy")
	if err := repo.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	snap.Tiles[0].Height = 99

	got, err := repo.Load(ctx, "copy")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Tiles[0].Height != 5 {
		t.Fatalf("stored snapshot aliased caller slice")
	}
	got.Tiles[1].Height = 42
	again, _ := repo.Load(ctx, "copy")
	if again.Tiles[1].Height != 6.5 {
		t.Fatalf("loaded snapshot aliased stored slice")
	}
}

func TestDiskRepository(t *testing.T) {
	repo, err := OpenDiskRepository(filepath.Join(t.TempDir(), "maps.log"))
	if err != nil {
		t.Fatalf("OpenDiskRepository: %v", err)
	}
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestDiskRepositoryReplaysLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "maps.log")
	ctx := context.Background()

	repo, err := OpenDiskRepository(path)
	if err != nil {
		t.Fatalf("OpenDiskRepository: %v", err)
	}
	for _, name := range []string{"one", "two", "three"} {
		if err := repo.Save(ctx, sampleSnapshot(name)); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}
	updated := sampleSnapshot("two")
	updated.Order = 7
	if err := repo.Save(ctx, updated); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	if err := repo.Delete(ctx, "three"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenDiskRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	names, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"one", "two"}) {
		t.Fatalf("List after reopen = %v", names)
	}
	got, err := reopened.Load(ctx, "two")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Order != 7 {
		t.Fatalf("expected latest record to win, got order %d", got.Order)
	}
}

func TestDiskRepositoryRejectsTruncatedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps.log")
	repo, err := OpenDiskRepository(path)
	if err != nil {
		t.Fatalf("OpenDiskRepository: %v", err)
	}
	if err := repo.Save(context.Background(), sampleSnapshot("cut")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	repo.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if err := os.Truncate(path, info.Size()-3); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if _, err := OpenDiskRepository(path); err == nil {
		t.Fatalf("expected truncated log to fail")
	}
}

func TestDiskRepositoryHonoursContext(t *testing.T) {
	repo, err := OpenDiskRepository(filepath.Join(t.TempDir(), "maps.log"))
	if err != nil {
		t.Fatalf("OpenDiskRepository: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := repo.Save(ctx, sampleSnapshot("late")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"sample", "map-1", "a_b.c", "Z9"} {
		if err := ValidateName(name); err != nil {
			t.Fatalf("ValidateName(%q): %v", name, err)
		}
	}
	long := make([]byte, maxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	for _, name := range []string{"", "with space", "slash/name", string(long)} {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("ValidateName(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	repo, err := Open(config.StorageConfig{Driver: config.DriverMemory})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := repo.(*MemoryRepository); !ok {
		t.Fatalf("expected memory repository, got %T", repo)
	}

	repo, err = Open(config.StorageConfig{Driver: config.DriverDisk, Path: filepath.Join(t.TempDir(), "maps.log")})
	if err != nil {
		t.Fatalf("Open disk: %v", err)
	}
	defer repo.Close()
	if _, ok := repo.(*DiskRepository); !ok {
		t.Fatalf("expected disk repository, got %T", repo)
	}

	if _, err := Open(config.StorageConfig{Driver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(config.StorageConfig{Driver: config.DriverPostgres}); err == nil {
		t.Fatalf("expected empty dsn error")
	}
}

func TestGormRepository(t *testing.T) {
	dsn := os.Getenv("HEXMESH_DB_DSN")
	if dsn == "" {
		t.Skip("HEXMESH_DB_DSN is required for integration test")
	}
	repo, err := OpenGormRepository(dsn)
	if err != nil {
		t.Fatalf("OpenGormRepository: %v", err)
	}
	defer repo.Close()
	for _, name := range []string{"alpha", "beta", "missing"} {
		_ = repo.db.Exec("DELETE FROM hex_maps WHERE name = ?", name).Error
	}
	exerciseRepository(t, repo)
}
