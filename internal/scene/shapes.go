package scene

import (
	"fmt"

	"hexmesh/internal/hex"
	"hexmesh/internal/mesh"
)

// generator builds the mesh builder of v with shape callbacks reading s.store.
// Callers hold mu for as long as the builder runs.
func (s *Scene) generator(v Variant) (mesh.Generator[Cell], error) {
	r := s.opts.TileRadius
	switch v {
	case VariantSimple:
		return mesh.NewSimpleGenerator[Cell](s.flatShape), nil
	case VariantBlock:
		return mesh.NewBlockGenerator[Cell](s.blockShape), nil
	case VariantFlatCorner:
		gen, err := mesh.NewFlatCornerBorderGenerator[Cell](r, s.opts.BorderWidth, s.surfaceHeight)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case VariantRing:
		gen, err := mesh.NewRingBorderGenerator[Cell](r, s.opts.BorderWidth, s.surfaceHeight)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case VariantInset:
		gen, err := mesh.NewInsetBorderGenerator[Cell](r, s.opts.BorderWidth, s.insetShape)
		if err != nil {
			return nil, err
		}
		if s.opts.SeparateBorders {
			gen = gen.WithSeparateBorders()
		}
		return gen, nil
	case VariantColumn:
		return mesh.NewBlockGenerator[Cell](s.columnShape), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, string(v))
	}
}

// flatShape lays every tile on the base plane so shared rim vertices agree.
func (s *Scene) flatShape(c hex.Axial, _ Cell) mesh.Shape {
	r := s.opts.TileRadius
	return mesh.Shape{
		Scale:  mesh.Vec3{X: r, Y: 1, Z: r},
		Offset: mesh.TilePosition(c, r, s.opts.BaseHeight),
	}
}

// blockShape spans BlockHeight upward from the cell offset.
func (s *Scene) blockShape(c hex.Axial, cell Cell) mesh.Shape {
	r := s.opts.TileRadius
	half := s.opts.BlockHeight / 2
	return mesh.Shape{
		Scale:  mesh.Vec3{X: r, Y: half, Z: r},
		Offset: mesh.TilePosition(c, r, cell.Offset+half),
	}
}

// columnShape raises a prism from the ground plane to the cell height.
func (s *Scene) columnShape(c hex.Axial, cell Cell) mesh.Shape {
	r := s.opts.TileRadius
	half := cell.Height / 2
	return mesh.Shape{
		Scale:  mesh.Vec3{X: r, Y: half, Z: r},
		Offset: mesh.TilePosition(c, r, half),
	}
}

func (s *Scene) surfaceHeight(c hex.Axial) float64 {
	if cell, ok := s.store.TryGetTile(c); ok {
		return cell.Height
	}
	return s.opts.MinHeight
}

// insetShape points each border half way to the neighbouring surface.
func (s *Scene) insetShape(c hex.Axial, cell Cell) mesh.InsetShape {
	r := s.opts.TileRadius
	shape := mesh.InsetShape{
		Scale:  mesh.Vec3{X: r, Y: 1, Z: r},
		Offset: mesh.TilePosition(c, r, cell.Height),
	}
	for i, n := range c.Neighbours() {
		shape.SurfaceHeightDeltas[i] = 0.5 * (s.surfaceHeight(n) - cell.Height)
	}
	return shape
}
