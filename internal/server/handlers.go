package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"hexmesh/internal/hex"
	"hexmesh/internal/mesh"
	"hexmesh/internal/preview"
	"hexmesh/internal/scene"
	"hexmesh/internal/storage"
)

var errInvalidCoordinate = errors.New("q and r must be integers")

type createMapRequest struct {
	Order *int   `json:"order,omitempty"`
	Seed  *int64 `json:"seed,omitempty"`
}

type mapResponse struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
	Tiles int    `json:"tiles"`
}

type coordJSON struct {
	Q int `json:"q"`
	R int `json:"r"`
}

type connectedResponse struct {
	Origin coordJSON   `json:"origin"`
	Count  int         `json:"count"`
	Tiles  []coordJSON `json:"tiles"`
}

type removeTileResponse struct {
	Removed   coordJSON `json:"removed"`
	Remaining int       `json:"remaining"`
}

func (s *Server) health(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listMaps(c context.Context, ctx *app.RequestContext) {
	names, err := s.repo.List(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"maps": names})
}

// createMap builds a map from the configured terrain, optionally overriding
// order and seed, and stores it under :name, replacing any existing map.
func (s *Server) createMap(c context.Context, ctx *app.RequestContext) {
	name := ctx.Param("name")
	if err := storage.ValidateName(name); err != nil {
		writeError(ctx, err)
		return
	}
	var body createMapRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	cfg := *s.cfg
	cfg.Map.Name = name
	if body.Order != nil {
		cfg.Map.Order = *body.Order
	}
	if body.Seed != nil {
		cfg.Terrain.Seed = *body.Seed
	}
	if cfg.Map.Order < 0 || cfg.Map.Order > cfg.Server.MaxOrder {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_order",
			"order must be between 0 and "+strconv.Itoa(cfg.Server.MaxOrder))
		return
	}

	sc, err := scene.Build(c, &cfg, s.logger)
	if err != nil {
		writeError(ctx, err)
		return
	}
	s.editMu.Lock()
	err = s.repo.Save(c, sc.Snapshot())
	s.editMu.Unlock()
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, mapResponse{Name: name, Order: cfg.Map.Order, Tiles: sc.Len()})
}

func (s *Server) deleteMap(c context.Context, ctx *app.RequestContext) {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	if err := s.repo.Delete(c, ctx.Param("name")); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Status(consts.StatusNoContent)
}

// meshSummary generates ?variant= (default simple) and reports its size. With
// ?regions=true every connected region becomes its own group.
func (s *Server) meshSummary(c context.Context, ctx *app.RequestContext) {
	v, err := variantQuery(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	regions := string(ctx.Query("regions")) == "true"
	m, err := s.generate(c, ctx.Param("name"), v, regions)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, scene.Summarize(v, m))
}

func (s *Server) previewImage(c context.Context, ctx *app.RequestContext) {
	v, err := variantQuery(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	m, err := s.generate(c, ctx.Param("name"), v, false)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var buf bytes.Buffer
	opts := preview.Options{PixelsPerUnit: s.cfg.Preview.PixelsPerUnit, Margin: s.cfg.Preview.Margin}
	if err := preview.Encode(&buf, m, opts); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Data(consts.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) connected(c context.Context, ctx *app.RequestContext) {
	origin, err := coordQuery(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	sc, err := s.loadScene(c, ctx.Param("name"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	coords := sc.Connected(origin)
	resp := connectedResponse{
		Origin: toJSON(origin),
		Count:  len(coords),
		Tiles:  make([]coordJSON, len(coords)),
	}
	for i, co := range coords {
		resp.Tiles[i] = toJSON(co)
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (s *Server) deleteTile(c context.Context, ctx *app.RequestContext) {
	coord, err := coordQuery(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	sc, err := s.loadScene(c, ctx.Param("name"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	if !sc.RemoveTile(coord) {
		writeErrorBody(ctx, consts.StatusNotFound, "tile_not_found", "no tile at "+coord.String())
		return
	}
	if err := s.repo.Save(c, sc.Snapshot()); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, removeTileResponse{Removed: toJSON(coord), Remaining: sc.Len()})
}

func variantQuery(ctx *app.RequestContext) (scene.Variant, error) {
	raw := string(ctx.Query("variant"))
	if raw == "" {
		return scene.VariantSimple, nil
	}
	return scene.ParseVariant(raw)
}

func coordQuery(ctx *app.RequestContext) (hex.Axial, error) {
	q, err := strconv.Atoi(string(ctx.Query("q")))
	if err != nil {
		return hex.Axial{}, errInvalidCoordinate
	}
	r, err := strconv.Atoi(string(ctx.Query("r")))
	if err != nil {
		return hex.Axial{}, errInvalidCoordinate
	}
	return hex.NewAxial(q, r), nil
}

func toJSON(c hex.Axial) coordJSON {
	return coordJSON{Q: c.Q, R: c.R}
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "map_not_found", err.Error())
	case errors.Is(err, storage.ErrInvalidName):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_map_name", err.Error())
	case errors.Is(err, scene.ErrUnknownVariant):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_variant", err.Error())
	case errors.Is(err, errInvalidCoordinate):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_coordinate", err.Error())
	case errors.Is(err, mesh.ErrUnsupported):
		writeErrorBody(ctx, consts.StatusUnprocessableEntity, "unsupported", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "cancelled", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
