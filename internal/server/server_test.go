package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route/param"

	"hexmesh/internal/config"
	"hexmesh/internal/mesh"
	"hexmesh/internal/scene"
	"hexmesh/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.MemoryRepository) {
	t.Helper()
	cfg := config.Default()
	cfg.Map.Order = 1
	cfg.Server.MaxOrder = 4
	cfg.Preview.PixelsPerUnit = 1
	repo := storage.NewMemoryRepository()
	s := New(&cfg, repo, log.New(&bytes.Buffer{}, "", 0))
	if err := s.SeedDefault(context.Background()); err != nil {
		t.Fatalf("SeedDefault: %v", err)
	}
	return s, repo
}

func request(uri string, params ...string) *app.RequestContext {
	ctx := &app.RequestContext{}
	ctx.Request.SetRequestURI(uri)
	for i := 0; i+1 < len(params); i += 2 {
		ctx.Params = append(ctx.Params, param.Param{Key: params[i], Value: params[i+1]})
	}
	return ctx
}

func decodeBody(t *testing.T, ctx *app.RequestContext, out any) {
	t.Helper()
	if err := json.Unmarshal(ctx.Response.Body(), out); err != nil {
		t.Fatalf("unmarshal response %q: %v", ctx.Response.Body(), err)
	}
}

func errorCode(t *testing.T, ctx *app.RequestContext) string {
	t.Helper()
	var body map[string]map[string]string
	decodeBody(t, ctx, &body)
	return body["error"]["code"]
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := request("/healthz")
	s.health(context.Background(), ctx)
	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("status = %d", got)
	}
}

func TestSeedDefaultKeepsExistingMap(t *testing.T) {
	s, repo := newTestServer(t)
	ctx := context.Background()
	snap, err := repo.Load(ctx, "sample")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap.Tiles = snap.Tiles[:1]
	if err := repo.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.SeedDefault(ctx); err != nil {
		t.Fatalf("SeedDefault: %v", err)
	}
	again, _ := repo.Load(ctx, "sample")
	if len(again.Tiles) != 1 {
		t.Fatalf("SeedDefault overwrote an existing map")
	}
}

func TestListMaps(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := request("/maps")
	s.listMaps(context.Background(), ctx)
	var body map[string][]string
	decodeBody(t, ctx, &body)
	if !reflect.DeepEqual(body["maps"], []string{"sample"}) {
		t.Fatalf("maps = %v", body["maps"])
	}
}

func TestCreateMap(t *testing.T) {
	s, repo := newTestServer(t)

	ctx := request("/maps/mini", "name", "mini")
	ctx.Request.SetBody([]byte(`{"order": 2, "seed": 9}`))
	s.createMap(context.Background(), ctx)
	if got := ctx.Response.StatusCode(); got != consts.StatusCreated {
		t.Fatalf("status = %d body %s", got, ctx.Response.Body())
	}
	var resp mapResponse
	decodeBody(t, ctx, &resp)
	if resp != (mapResponse{Name: "mini", Order: 2, Tiles: 19}) {
		t.Fatalf("response = %+v", resp)
	}
	if _, err := repo.Load(context.Background(), "mini"); err != nil {
		t.Fatalf("map not stored: %v", err)
	}

	cases := []struct {
		name string
		body string
		code string
	}{
		{"bad name", "", "invalid_map_name"},
		{"big", `{"order": 5}`, "invalid_order"},
		{"negative", `{"order": -1}`, "invalid_order"},
		{"broken", `{"order":`, "invalid_json"},
	}
	for _, tc := range cases {
		ctx := request("/maps/x", "name", tc.name)
		ctx.Request.SetBody([]byte(tc.body))
		s.createMap(context.Background(), ctx)
		if got := ctx.Response.StatusCode(); got != consts.StatusBadRequest {
			t.Fatalf("%s: status = %d", tc.name, got)
		}
		if got := errorCode(t, ctx); got != tc.code {
			t.Fatalf("%s: code = %q, want %q", tc.name, got, tc.code)
		}
	}
}

func TestMeshSummary(t *testing.T) {
	s, _ := newTestServer(t)

	ctx := request("/maps/sample/mesh?variant=ring", "name", "sample")
	s.meshSummary(context.Background(), ctx)
	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("status = %d body %s", got, ctx.Response.Body())
	}
	var sum scene.Summary
	decodeBody(t, ctx, &sum)
	if sum.Variant != scene.VariantRing || sum.Vertices != 19*7 || sum.SubMeshes != 2 {
		t.Fatalf("summary = %+v", sum)
	}

	ctx = request("/maps/sample/mesh", "name", "sample")
	s.meshSummary(context.Background(), ctx)
	decodeBody(t, ctx, &sum)
	if sum.Variant != scene.VariantSimple || sum.Vertices != 31 {
		t.Fatalf("default summary = %+v", sum)
	}

	cases := []struct {
		uri    string
		name   string
		status int
		code   string
	}{
		{"/maps/sample/mesh?variant=voxel", "sample", consts.StatusBadRequest, "unknown_variant"},
		{"/maps/none/mesh", "none", consts.StatusNotFound, "map_not_found"},
		{"/maps/sample/mesh?variant=flat-corner&regions=true", "sample", consts.StatusUnprocessableEntity, "unsupported"},
	}
	for _, tc := range cases {
		ctx := request(tc.uri, "name", tc.name)
		s.meshSummary(context.Background(), ctx)
		if got := ctx.Response.StatusCode(); got != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.uri, got, tc.status)
		}
		if got := errorCode(t, ctx); got != tc.code {
			t.Fatalf("%s: code = %q, want %q", tc.uri, got, tc.code)
		}
	}
}

func TestPreviewImage(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := request("/maps/sample/preview.png?variant=block", "name", "sample")
	s.previewImage(context.Background(), ctx)
	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("status = %d body %s", got, ctx.Response.Body())
	}
	if got := string(ctx.Response.Header.ContentType()); got != "image/png" {
		t.Fatalf("content type = %q", got)
	}
	img, err := png.Decode(bytes.NewReader(ctx.Response.Body()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Empty() {
		t.Fatalf("empty preview")
	}
}

func TestConnectedAndDeleteTile(t *testing.T) {
	s, _ := newTestServer(t)

	ctx := request("/maps/sample/connected?q=0&r=0", "name", "sample")
	s.connected(context.Background(), ctx)
	var conn connectedResponse
	decodeBody(t, ctx, &conn)
	if conn.Count != 7 || conn.Tiles[0] != (coordJSON{}) {
		t.Fatalf("connected = %+v", conn)
	}

	ctx = request("/maps/sample/tiles?q=1&r=0", "name", "sample")
	s.deleteTile(context.Background(), ctx)
	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("delete status = %d body %s", got, ctx.Response.Body())
	}
	var removed removeTileResponse
	decodeBody(t, ctx, &removed)
	if removed.Remaining != 6 || removed.Removed != (coordJSON{Q: 1, R: 0}) {
		t.Fatalf("delete response = %+v", removed)
	}

	ctx = request("/maps/sample/tiles?q=1&r=0", "name", "sample")
	s.deleteTile(context.Background(), ctx)
	if got := errorCode(t, ctx); got != "tile_not_found" {
		t.Fatalf("second delete code = %q", got)
	}

	ctx = request("/maps/sample/connected?q=0&r=0", "name", "sample")
	s.connected(context.Background(), ctx)
	decodeBody(t, ctx, &conn)
	if conn.Count != 6 {
		t.Fatalf("connected after delete = %d, want 6", conn.Count)
	}

	ctx = request("/maps/sample/connected?q=x&r=0", "name", "sample")
	s.connected(context.Background(), ctx)
	if got := errorCode(t, ctx); got != "invalid_coordinate" {
		t.Fatalf("bad coordinate code = %q", got)
	}
}

func TestDeleteMap(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := request("/maps/sample", "name", "sample")
	s.deleteMap(context.Background(), ctx)
	if got := ctx.Response.StatusCode(); got != consts.StatusNoContent {
		t.Fatalf("status = %d", got)
	}

	ctx = request("/maps/sample", "name", "sample")
	s.deleteMap(context.Background(), ctx)
	if got := ctx.Response.StatusCode(); got != consts.StatusNotFound {
		t.Fatalf("second delete status = %d", got)
	}
}

func TestGenerateConcurrentRequests(t *testing.T) {
	s, _ := newTestServer(t)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := s.generate(context.Background(), "sample", scene.VariantInset, false)
			if err != nil {
				errs <- err
				return
			}
			if m.VertexCount() != 25*7 {
				errs <- fmt.Errorf("vertices = %d", m.VertexCount())
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("generate: %v", err)
	}
}

func TestGenerateOutlivesCancelledCaller(t *testing.T) {
	cfg := config.Default()
	cfg.Map.Order = 1
	repo, err := storage.OpenDiskRepository(filepath.Join(t.TempDir(), "maps.log"))
	if err != nil {
		t.Fatalf("OpenDiskRepository: %v", err)
	}
	defer repo.Close()
	s := New(&cfg, repo, log.New(&bytes.Buffer{}, "", 0))
	if err := s.SeedDefault(context.Background()); err != nil {
		t.Fatalf("SeedDefault: %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := s.generate(cancelled, "sample", scene.VariantRing, false)
	if err != nil {
		t.Fatalf("generate with cancelled caller: %v", err)
	}
	if m.VertexCount() != 19*7 {
		t.Fatalf("vertices = %d, want %d", m.VertexCount(), 19*7)
	}
}

func TestWriteErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrap: %w", storage.ErrNotFound), consts.StatusNotFound},
		{storage.ErrInvalidName, consts.StatusBadRequest},
		{scene.ErrUnknownVariant, consts.StatusBadRequest},
		{mesh.ErrUnsupported, consts.StatusUnprocessableEntity},
		{context.Canceled, consts.StatusServiceUnavailable},
		{errors.New("boom"), consts.StatusInternalServerError},
	}
	for _, tc := range cases {
		ctx := &app.RequestContext{}
		writeError(ctx, tc.err)
		if got := ctx.Response.StatusCode(); got != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, got, tc.status)
		}
	}
}
