package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"hexmesh/internal/config"
	"hexmesh/internal/preview"
	"hexmesh/internal/scene"
)

func main() {
	var (
		configPath string
		variants   string
		outDir     string
		regions    bool
	)
	flag.StringVar(&configPath, "config", "", "path to the hexmesh configuration file")
	flag.StringVar(&variants, "variants", "", "comma separated mesh variants, overrides map.variants")
	flag.StringVar(&outDir, "out", "", "preview output directory, overrides preview.output_dir")
	flag.BoolVar(&regions, "regions", false, "emit one submesh group per connected region")
	flag.Parse()

	logger := log.New(log.Writer(), "hexmesh ", log.LstdFlags|log.Lmicroseconds)

	synced, err := config.SyncFromEnv(configPath)
	if err != nil {
		log.Fatalf("sync config from env: %v", err)
	}
	if synced {
		logger.Printf("configuration written to %s from %s", configPath, config.EnvConfigYAML)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if variants != "" {
		cfg.Map.Variants = strings.Split(variants, ",")
	}
	if outDir != "" {
		cfg.Preview.OutputDir = outDir
	}
	selected, err := scene.ParseVariants(cfg.Map.Variants)
	if err != nil {
		log.Fatalf("parse variants: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, selected, regions, logger); err != nil {
		log.Fatalf("hexmesh: %v", err)
	}
}

// run builds the configured map and generates every variant concurrently. Each
// variant is one mesh; the builders themselves stay single threaded.
func run(ctx context.Context, cfg *config.Config, variants []scene.Variant, regions bool, logger *log.Logger) error {
	sc, err := scene.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}

	summaries := make([]scene.Summary, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			generate := sc.Generate
			if regions {
				generate = sc.GenerateRegions
			}
			m, err := generate(v)
			if err != nil {
				return err
			}
			summaries[i] = scene.Summarize(v, m)
			if !cfg.Preview.Enabled {
				return nil
			}
			path := filepath.Join(cfg.Preview.OutputDir, fmt.Sprintf("%s_%s.png", sc.Name(), v))
			opts := preview.Options{PixelsPerUnit: cfg.Preview.PixelsPerUnit, Margin: cfg.Preview.Margin}
			if err := preview.Save(path, m, opts); err != nil {
				return fmt.Errorf("save %s preview: %w", v, err)
			}
			logger.Printf("wrote %s", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, sum := range summaries {
		logger.Printf("%s", sum)
	}
	return nil
}
