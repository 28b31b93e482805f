// Package server exposes stored maps over HTTP: building, summarising and
// previewing meshes, querying connectivity and editing tiles.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"golang.org/x/sync/singleflight"

	"hexmesh/internal/config"
	"hexmesh/internal/mesh"
	"hexmesh/internal/scene"
	"hexmesh/internal/storage"
)

type Server struct {
	cfg    *config.Config
	repo   storage.Repository
	logger *log.Logger

	// meshes collapses concurrent requests for the same map and variant into
	// one generation.
	meshes singleflight.Group
	// editMu serialises load-modify-save cycles on stored maps.
	editMu sync.Mutex
}

func New(cfg *config.Config, repo storage.Repository, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "hexmeshd ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Server{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
	}
}

func (s *Server) RegisterRoutes(h *server.Hertz) {
	h.GET("/healthz", s.health)

	maps := h.Group("/maps")
	maps.GET("", s.listMaps)
	maps.POST("/:name", s.createMap)
	maps.DELETE("/:name", s.deleteMap)
	maps.GET("/:name/mesh", s.meshSummary)
	maps.GET("/:name/preview.png", s.previewImage)
	maps.GET("/:name/connected", s.connected)
	maps.DELETE("/:name/tiles", s.deleteTile)
}

// Run serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	h := server.Default(
		server.WithHostPorts(s.cfg.Server.ListenAddress),
		server.WithExitWaitTime(2*time.Second),
	)
	s.RegisterRoutes(h)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on %s", s.cfg.Server.ListenAddress)
		if err := h.Run(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// SeedDefault stores the configured map unless a map of that name exists.
func (s *Server) SeedDefault(ctx context.Context) error {
	_, err := s.repo.Load(ctx, s.cfg.Map.Name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	sc, err := scene.Build(ctx, s.cfg, s.logger)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, sc.Snapshot()); err != nil {
		return fmt.Errorf("save map %q: %w", sc.Name(), err)
	}
	s.logger.Printf("seeded map %q with %d tiles", sc.Name(), sc.Len())
	return nil
}

func (s *Server) loadScene(ctx context.Context, name string) (*scene.Scene, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}
	snap, err := s.repo.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return scene.FromSnapshot(snap, scene.OptionsFrom(s.cfg), s.logger), nil
}

// generate builds the mesh of one stored map, sharing the result with any
// identical request already in flight. The mesh must be treated as read-only.
func (s *Server) generate(ctx context.Context, name string, v scene.Variant, regions bool) (*mesh.Mesh, error) {
	key := fmt.Sprintf("%s|%s|%t", name, v, regions)
	res, err, shared := s.meshes.Do(key, func() (any, error) {
		// Followers share this run, so the leader's cancellation must not end it.
		sc, err := s.loadScene(context.WithoutCancel(ctx), name)
		if err != nil {
			return nil, err
		}
		if regions {
			return sc.GenerateRegions(v)
		}
		return sc.Generate(v)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Printf("shared %s mesh of %q with a concurrent request", v, name)
	}
	return res.(*mesh.Mesh), nil
}
