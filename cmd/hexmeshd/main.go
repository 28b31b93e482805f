package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hexmesh/internal/config"
	"hexmesh/internal/server"
	"hexmesh/internal/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "hexmesh.yml", "configuration file for the hexmesh daemon")
	flag.Parse()

	logger := log.New(log.Writer(), "hexmeshd ", log.LstdFlags|log.Lmicroseconds)

	synced, err := config.SyncFromEnv(configPath)
	if err != nil {
		log.Fatalf("sync config from env: %v", err)
	}
	if synced {
		logger.Printf("configuration written to %s from %s", configPath, config.EnvConfigYAML)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := config.WriteDefault(configPath); err != nil {
				log.Fatalf("write default config: %v", err)
			}
			log.Printf("no configuration found, default configuration written to %s", configPath)
			cfg, err = config.Load(configPath)
		}
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	repo, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalf("open %s storage: %v", cfg.Storage.Driver, err)
	}
	defer repo.Close()

	ctx, cancel := signalContext()
	defer cancel()

	srv := server.New(cfg, repo, logger)
	if err := srv.SeedDefault(ctx); err != nil {
		log.Fatalf("seed map %q: %v", cfg.Map.Name, err)
	}
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
			return
		}

		time.AfterFunc(10*time.Second, func() {
			log.Printf("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	return ctx, cancel
}
