// piece/tetromino.go
package piece

import "github.com/znichola/red-tetris/grid"

// Type identifies one of the seven tetrominoes. Values match their cell color.
type Type int

const (
	TypeI Type = Type(grid.I)
	TypeO Type = Type(grid.O)
	TypeT Type = Type(grid.T)
	TypeJ Type = Type(grid.J)
	TypeL Type = Type(grid.L)
	TypeS Type = Type(grid.S)
	TypeZ Type = Type(grid.Z)
)

// Types lists the tetrominoes in the order random draws index into.
var Types = []Type{TypeI, TypeO, TypeT, TypeJ, TypeL, TypeS, TypeZ}

// Cell returns the color used to draw t.
func (t Type) Cell() grid.Cell {
	return grid.Cell(t)
}

func (t Type) String() string {
	return t.Cell().String()
}

// Valid reports whether t is a tetromino.
func (t Type) Valid() bool {
	return t.Cell().IsTetromino()
}

// Rotation is the clockwise rotation of a piece relative to its spawn shape.
type Rotation int

const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// Next returns the rotation after one clockwise turn.
func (r Rotation) Next() Rotation {
	return (r + 1) % 4
}

// Degrees returns r in degrees.
func (r Rotation) Degrees() int {
	return int(r) * 90
}

var (
	e = grid.Empty

	shapes = map[Type][][]grid.Cell{
		TypeI: {
			{grid.I, grid.I, grid.I, grid.I},
		},
		TypeO: {
			{grid.O, grid.O},
			{grid.O, grid.O},
		},
		TypeT: {
			{e, grid.T, e},
			{grid.T, grid.T, grid.T},
		},
		TypeJ: {
			{grid.J, e, e},
			{grid.J, grid.J, grid.J},
		},
		TypeL: {
			{e, e, grid.L},
			{grid.L, grid.L, grid.L},
		},
		TypeS: {
			{e, grid.S, grid.S},
			{grid.S, grid.S, e},
		},
		TypeZ: {
			{grid.Z, grid.Z, e},
			{e, grid.Z, grid.Z},
		},
	}
)

// Shape returns the spawn shape of t.
func Shape(t Type) *grid.Grid {
	g, err := grid.FromCells(shapes[t])
	if err != nil {
		panic(err)
	}
	return g
}

// ShapeAt returns the shape of t after the given rotation.
func ShapeAt(t Type, r Rotation) *grid.Grid {
	g := Shape(t)
	for i := Rotation0; i < r; i++ {
		g = g.RotateClockwise()
	}
	return g
}
