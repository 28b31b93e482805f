// Package hex implements the coordinate algebra of a flat-top hexagonal grid.
//
// Axial coordinates address tiles, cube coordinates carry the distance and range
// math, and the fractional variants exist only to snap continuous cartesian points
// back onto the grid. See https://www.redblobgames.com/grids/hexagons.
package hex

import (
	"fmt"
	"math"
)

const (
	threeOverTwo       = 3.0 / 2.0
	twoOverThree       = 2.0 / 3.0
	oneOverThree       = 1.0 / 3.0
	sqrtThree          = 1.7320508075688772
	sqrtThreeOverTwo   = 0.8660254037844386
	sqrtThreeOverThree = 0.5773502691896258

	// UnitRadius is the tile radius used by the *Unit conversions.
	UnitRadius = 0.5
)

// Axial identifies a tile by its (q, r) axial coordinate. It is a comparable value
// type and is used directly as a map key.
type Axial struct {
	Q int `json:"q" yaml:"q"`
	R int `json:"r" yaml:"r"`
}

// Origin is the axial coordinate (0, 0).
var Origin = Axial{}

// neighbourDeltas lists the six axial offsets in a fixed order. Projected with
// ToCartesian, neighbour k lies at 30+60k degrees, so it faces the hexagon edge
// between corners k and k+1. Mesh builders index into this positionally.
var neighbourDeltas = [6]Axial{
	{Q: +1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: +1},
	{Q: 0, R: +1},
	{Q: +1, R: 0},
}

func NewAxial(q, r int) Axial {
	return Axial{Q: q, R: r}
}

func (a Axial) Add(o Axial) Axial {
	return Axial{Q: a.Q + o.Q, R: a.R + o.R}
}

func (a Axial) Sub(o Axial) Axial {
	return Axial{Q: a.Q - o.Q, R: a.R - o.R}
}

func (a Axial) Scale(k int) Axial {
	return Axial{Q: a.Q * k, R: a.R * k}
}

func (a Axial) String() string {
	return fmt.Sprintf("(%d, %d)", a.Q, a.R)
}

// Cube returns the cube form x=q, y=r, z=-q-r.
func (a Axial) Cube() Cube {
	return Cube{X: a.Q, Y: a.R, Z: -a.Q - a.R}
}

// Fractional lifts the coordinate into the fractional domain without loss.
func (a Axial) Fractional() FractionalAxial {
	return FractionalAxial{Q: float64(a.Q), R: float64(a.R)}
}

// ToCartesian projects the tile center onto the plane for tiles of the given radius.
func (a Axial) ToCartesian(radius float64) Point {
	return a.Fractional().ToCartesian(radius)
}

func (a Axial) ToCartesianUnit() Point {
	return a.ToCartesian(UnitRadius)
}

// Neighbours returns the six adjacent coordinates in neighbourDeltas order.
func (a Axial) Neighbours() [6]Axial {
	var out [6]Axial
	for i, d := range neighbourDeltas {
		out[i] = a.Add(d)
	}
	return out
}

// Neighbour returns the adjacent coordinate in direction i (0..5, wrapping).
func (a Axial) Neighbour(i int) Axial {
	return a.Add(neighbourDeltas[((i%6)+6)%6])
}

// Distance is the number of steps between two tiles.
func Distance(a, b Axial) int {
	return CubeDistance(a.Cube(), b.Cube())
}

// TilesInRange returns every coordinate within distance steps of center, center
// included. A negative distance yields no coordinates.
func TilesInRange(center Axial, distance int) []Axial {
	cubes := CubesInRange(center.Cube(), distance)
	out := make([]Axial, len(cubes))
	for i, c := range cubes {
		out[i] = c.Axial()
	}
	return out
}

// RangeCount is the number of tiles TilesInRange returns for distance.
func RangeCount(distance int) int {
	if distance < 0 {
		return 0
	}
	return 3*distance*distance + 3*distance + 1
}

// FromCartesian snaps a cartesian point to the tile containing it.
func FromCartesian(p Point, radius float64) Axial {
	return Round(FromCartesianFractional(p, radius).Cube()).Axial()
}

func FromCartesianUnit(p Point) Axial {
	return FromCartesian(p, UnitRadius)
}

// Point is a position on the cartesian plane the grid is laid out on.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FractionalAxial is the continuous counterpart of Axial.
type FractionalAxial struct {
	Q float64
	R float64
}

// FromCartesianFractional inverts ToCartesian for the given radius.
func FromCartesianFractional(p Point, radius float64) FractionalAxial {
	return FractionalAxial{
		Q: (twoOverThree * p.X) / radius,
		R: ((-oneOverThree * p.X) - (sqrtThreeOverThree * p.Y)) / radius,
	}
}

func (f FractionalAxial) Cube() FractionalCube {
	return FractionalCube{X: f.Q, Y: f.R, Z: -f.Q - f.R}
}

func (f FractionalAxial) ToCartesian(radius float64) Point {
	return Point{
		X: radius * threeOverTwo * f.Q,
		Y: -(radius * ((sqrtThreeOverTwo * f.Q) + (sqrtThree * f.R))),
	}
}

func (p Point) DistanceTo(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}
