package hex

import "math"

// Cube is the three-axis form of a tile coordinate. X+Y+Z is always zero.
type Cube struct {
	X int
	Y int
	Z int
}

func (c Cube) Axial() Axial {
	return Axial{Q: c.X, R: c.Y}
}

func (c Cube) Add(o Cube) Cube {
	return Cube{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

// Valid reports whether the components satisfy the cube invariant.
func (c Cube) Valid() bool {
	return c.X+c.Y+c.Z == 0
}

func CubeDistance(a, b Cube) int {
	return (absInt(a.X-b.X) + absInt(a.Y-b.Y) + absInt(a.Z-b.Z)) / 2
}

// CubesInRange enumerates all cubes within distance of center, x-major.
func CubesInRange(center Cube, distance int) []Cube {
	if distance < 0 {
		return nil
	}
	out := make([]Cube, 0, RangeCount(distance))
	for x := -distance; x <= distance; x++ {
		start := max(-distance, -x-distance)
		end := min(distance, -x+distance)
		for y := start; y <= end; y++ {
			out = append(out, Cube{
				X: center.X + x,
				Y: center.Y + y,
				Z: center.Z - x - y,
			})
		}
	}
	return out
}

// FractionalCube is the continuous counterpart of Cube.
type FractionalCube struct {
	X float64
	Y float64
	Z float64
}

// Round snaps a fractional cube to the nearest tile. Each component is rounded
// half-to-even, then the component with the largest rounding error is rebuilt from
// the other two. Ties fall through x, then y, to z.
func Round(f FractionalCube) Cube {
	rx := math.RoundToEven(f.X)
	ry := math.RoundToEven(f.Y)
	rz := math.RoundToEven(f.Z)

	xDiff := math.Abs(rx - f.X)
	yDiff := math.Abs(ry - f.Y)
	zDiff := math.Abs(rz - f.Z)

	if xDiff > yDiff && xDiff > zDiff {
		rx = -ry - rz
	} else if yDiff > zDiff {
		ry = -rx - rz
	} else {
		rz = -rx - ry
	}

	return Cube{X: int(rx), Y: int(ry), Z: int(rz)}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
