// Package preview renders generated meshes into isometric PNG images.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"hexmesh/internal/mesh"
)

const (
	ambientLight = 0.2
	maxDimension = 4096
	cos30        = 0.8660254037844386
	sin30        = 0.5
)

// subMeshColors cycles over submeshes: caps, borders, then further groups.
var subMeshColors = []string{"#6a9955", "#8d6e63", "#4f83cc", "#c9a227", "#b05f9b", "#5fb0a8"}

var background = color.NRGBA{R: 10, G: 10, B: 18, A: 255}

type Options struct {
	PixelsPerUnit float64
	Margin        int
}

type triangle struct {
	points [3]image.Point
	depth  float64
	col    color.NRGBA
}

// Render draws every triangle of m with flat shading, far triangles first. The
// scale shrinks when the image would exceed 4096 pixels on a side.
func Render(m *mesh.Mesh, opts Options) (*image.NRGBA, error) {
	if m == nil {
		return nil, fmt.Errorf("mesh is nil")
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("render preview: %w", err)
	}
	ppu := opts.PixelsPerUnit
	if ppu <= 0 {
		ppu = 1
	}
	margin := max(opts.Margin, 0)

	lo, hi, ok := projectedBounds(m)
	if !ok {
		img := image.NewNRGBA(image.Rect(0, 0, 2*margin+1, 2*margin+1))
		draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)
		return img, nil
	}
	if span := math.Max(hi.X-lo.X, hi.Y-lo.Y) * ppu; span > maxDimension {
		ppu *= maxDimension / span
	}
	width := int(math.Ceil((hi.X-lo.X)*ppu)) + 2*margin + 1
	height := int(math.Ceil((hi.Y-lo.Y)*ppu)) + 2*margin + 1
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	toScreen := func(v mesh.Vec3) image.Point {
		p := project(v)
		return image.Point{
			X: margin + int(math.Round((p.X-lo.X)*ppu)),
			Y: margin + int(math.Round((p.Y-lo.Y)*ppu)),
		}
	}

	minY, maxY := heightRange(m)
	light := mesh.Vec3{X: -0.4, Y: 1, Z: -0.3}.Normalized()
	var tris []triangle
	for s, sub := range m.SubMeshes {
		base := resolveColor(subMeshColors[s%len(subMeshColors)])
		for i := 0; i+2 < len(sub); i += 3 {
			a, b, c := m.Vertices[sub[i]], m.Vertices[sub[i+1]], m.Vertices[sub[i+2]]
			normal := cross(b.Sub(a), c.Sub(a)).Normalized()
			centroid := a.Add(b).Add(c).Scale(1.0 / 3.0)

			shade := math.Abs(dot(normal, light))
			elevation := 1.0
			if maxY > minY {
				elevation = 0.7 + 0.3*(centroid.Y-minY)/(maxY-minY)
			}
			tris = append(tris, triangle{
				points: [3]image.Point{toScreen(a), toScreen(b), toScreen(c)},
				depth:  centroid.X + centroid.Z + centroid.Y,
				col:    applyLighting(base, (ambientLight+(1-ambientLight)*shade)*elevation),
			})
		}
	}

	sort.SliceStable(tris, func(i, j int) bool { return tris[i].depth < tris[j].depth })
	for _, t := range tris {
		fillPolygon(img, t.points[:], t.col)
	}
	return img, nil
}

// Encode renders m and writes it to w as PNG.
func Encode(w io.Writer, m *mesh.Mesh, opts Options) error {
	img, err := Render(m, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}

// Save renders m into a PNG file at path, creating the directory.
func Save(path string, m *mesh.Mesh, opts Options) error {
	if err := ensurePreviewDir(filepath.Dir(path)); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer file.Close()
	return Encode(file, m, opts)
}

// project maps a mesh position onto the isometric image plane, Y down.
func project(v mesh.Vec3) mesh.Vec2 {
	return mesh.Vec2{
		X: (v.X - v.Z) * cos30,
		Y: -(v.X+v.Z)*sin30 - v.Y,
	}
}

func projectedBounds(m *mesh.Mesh) (lo, hi mesh.Vec2, ok bool) {
	if len(m.Vertices) == 0 {
		return lo, hi, false
	}
	lo = project(m.Vertices[0])
	hi = lo
	for _, v := range m.Vertices[1:] {
		p := project(v)
		lo = mesh.Vec2{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y)}
		hi = mesh.Vec2{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y)}
	}
	return lo, hi, true
}

func heightRange(m *mesh.Mesh) (float64, float64) {
	lo, hi, ok := m.Bounds()
	if !ok {
		return 0, 0
	}
	return lo.Y, hi.Y
}

func cross(a, b mesh.Vec3) mesh.Vec3 {
	return mesh.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func dot(a, b mesh.Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func resolveColor(value string) color.NRGBA {
	if col, ok := parseHexColor(value); ok {
		return col
	}
	return color.NRGBA{R: 128, G: 128, B: 128, A: 255}
}

func parseHexColor(value string) (color.NRGBA, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(trimmed) != 6 {
		return color.NRGBA{}, false
	}
	var rgb [3]uint8
	for i := range rgb {
		v, err := strconv.ParseUint(trimmed[2*i:2*i+2], 16, 8)
		if err != nil {
			return color.NRGBA{}, false
		}
		rgb[i] = uint8(v)
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, true
}

func applyLighting(base color.NRGBA, factor float64) color.NRGBA {
	factor = clamp(factor, 0, 1)
	r := uint8(math.Round(float64(base.R) * factor))
	g := uint8(math.Round(float64(base.G) * factor))
	b := uint8(math.Round(float64(base.B) * factor))
	return color.NRGBA{R: r, G: g, B: b, A: 255}
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

// fillPolygon scanline fills a convex or concave polygon, clipped to img.
func fillPolygon(img *image.NRGBA, pts []image.Point, col color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	bounds := img.Bounds()
	minY = max(minY, bounds.Min.Y)
	maxY = min(maxY, bounds.Max.Y-1)

	xs := make([]int, 0, len(pts))
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		for i := range pts {
			j := (i + 1) % len(pts)
			x1, y1 := pts[i].X, pts[i].Y
			x2, y2 := pts[j].X, pts[j].Y
			if y1 == y2 {
				continue
			}
			if y < min(y1, y2) || y >= max(y1, y2) {
				continue
			}
			xs = append(xs, x1+(y-y1)*(x2-x1)/(y2-y1))
		}
		if len(xs) < 2 {
			continue
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xStart, xEnd := xs[i], xs[i+1]
			if xEnd < bounds.Min.X || xStart >= bounds.Max.X {
				continue
			}
			xStart = max(xStart, bounds.Min.X)
			xEnd = min(xEnd, bounds.Max.X-1)
			for x := xStart; x <= xEnd; x++ {
				idx := (y-bounds.Min.Y)*img.Stride + (x-bounds.Min.X)*4
				img.Pix[idx] = col.R
				img.Pix[idx+1] = col.G
				img.Pix[idx+2] = col.B
				img.Pix[idx+3] = col.A
			}
		}
	}
}

func ensurePreviewDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("output directory is empty")
	}
	return os.MkdirAll(dir, 0o755)
}
