package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"hexmesh/internal/mesh"
)

func quad() *mesh.Mesh {
	return &mesh.Mesh{
		Vertices: []mesh.Vec3{
			{X: 0, Y: 0, Z: 0},
			{X: 10, Y: 0, Z: 0},
			{X: 10, Y: 0, Z: 10},
			{X: 0, Y: 0, Z: 10},
			{X: 5, Y: 4, Z: 5},
		},
		UVs:       make([]mesh.Vec2, 5),
		SubMeshes: [][]int{{0, 2, 1, 0, 3, 2}, {0, 1, 4}},
	}
}

func countForeground(img *image.NRGBA) int {
	count := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y) != background {
				count++
			}
		}
	}
	return count
}

func TestRenderDrawsTriangles(t *testing.T) {
	img, err := Render(quad(), Options{PixelsPerUnit: 4, Margin: 8})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b := img.Bounds()
	if b.Dx() <= 16 || b.Dy() <= 16 {
		t.Fatalf("image too small: %v", b)
	}
	if n := countForeground(img); n == 0 {
		t.Fatalf("expected drawn pixels")
	}
	if got := img.NRGBAAt(0, 0); got != background {
		t.Fatalf("margin pixel = %v, want background", got)
	}
}

func TestRenderScalesWithPixelsPerUnit(t *testing.T) {
	small, err := Render(quad(), Options{PixelsPerUnit: 1})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	large, err := Render(quad(), Options{PixelsPerUnit: 4})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if large.Bounds().Dx() <= 3*small.Bounds().Dx() {
		t.Fatalf("expected larger image, got %v vs %v", large.Bounds(), small.Bounds())
	}
}

func TestRenderCapsDimension(t *testing.T) {
	img, err := Render(quad(), Options{PixelsPerUnit: 10000})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() > maxDimension+2 || b.Dy() > maxDimension+2 {
		t.Fatalf("image %v exceeds %d", b, maxDimension)
	}
}

func TestRenderEmptyMesh(t *testing.T) {
	img, err := Render(&mesh.Mesh{}, Options{Margin: 4})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if countForeground(img) != 0 {
		t.Fatalf("expected only background")
	}
}

func TestRenderRejectsInvalidMesh(t *testing.T) {
	if _, err := Render(nil, Options{}); err == nil {
		t.Fatalf("expected error for nil mesh")
	}
	bad := quad()
	bad.SubMeshes = [][]int{{0, 1, 9}}
	if _, err := Render(bad, Options{}); err == nil {
		t.Fatalf("expected error for out of range index")
	}
}

func TestSaveWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quad.png")
	if err := Save(path, quad(), Options{PixelsPerUnit: 2, Margin: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Empty() {
		t.Fatalf("decoded image is empty")
	}
}

func TestFillPolygonClipsToImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	red := color.NRGBA{R: 255, A: 255}
	fillPolygon(img, []image.Point{{X: -5, Y: -5}, {X: 20, Y: -5}, {X: 20, Y: 20}, {X: -5, Y: 20}}, red)
	for _, p := range []image.Point{{X: 0, Y: 0}, {X: 9, Y: 9}, {X: 5, Y: 5}} {
		if got := img.NRGBAAt(p.X, p.Y); got != red {
			t.Fatalf("pixel %v = %v, want red", p, got)
		}
	}
}

func TestApplyLighting(t *testing.T) {
	base := color.NRGBA{R: 200, G: 100, B: 50, A: 255}
	if got := applyLighting(base, 0.5); got != (color.NRGBA{R: 100, G: 50, B: 25, A: 255}) {
		t.Fatalf("half light = %v", got)
	}
	if got := applyLighting(base, 2); got != base {
		t.Fatalf("overbright = %v, want clamp to base", got)
	}
}

func TestParseHexColor(t *testing.T) {
	if col, ok := parseHexColor(" #6a9955 "); !ok || col != (color.NRGBA{R: 0x6a, G: 0x99, B: 0x55, A: 255}) {
		t.Fatalf("parse = %v, %v", col, ok)
	}
	for _, bad := range []string{"", "#123", "zzzzzz"} {
		if _, ok := parseHexColor(bad); ok {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}
