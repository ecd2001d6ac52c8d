// grid/grid.go
package grid

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNotRectangular is returned when rows of a cell matrix differ in length.
var ErrNotRectangular = errors.New("grid: rows have different lengths")

// Mode selects how Superimpose merges an overlay into a base grid.
type Mode int

const (
	// FillEmpty writes overlay cells only where the base is Empty.
	FillEmpty Mode = iota
	// Override writes every overlay cell that is not None.
	Override
)

// Grid is a rectangular rows x cols matrix of cells.
type Grid struct {
	cells [][]Cell
}

// SpecialCell is a cell of interest found in a cleared row.
type SpecialCell struct {
	Type     Cell
	Position Vector
}

// ClearResult is returned by ClearAndDropFullRows.
type ClearResult struct {
	ClearedRows         int
	ClearedSpecialCells []SpecialCell
}

// New returns an Empty grid.
func New(rows, cols int) *Grid {
	cells := make([][]Cell, rows)
	for y := range cells {
		cells[y] = emptyRow(cols)
	}
	return &Grid{cells: cells}
}

// FromCells builds a grid from a copy of cells.
func FromCells(cells [][]Cell) (*Grid, error) {
	if len(cells) > 0 {
		cols := len(cells[0])
		for _, row := range cells {
			if len(row) != cols {
				return nil, ErrNotRectangular
			}
		}
	}
	return &Grid{cells: copyCells(cells)}, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	return len(g.cells)
}

// Cols returns the number of columns.
func (g *Grid) Cols() int {
	if len(g.cells) == 0 {
		return 0
	}
	return len(g.cells[0])
}

// InBounds reports whether (x, y) is on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return y >= 0 && y < g.Rows() && x >= 0 && x < g.Cols()
}

// At returns the cell at (x, y), or None outside of the grid.
func (g *Grid) At(x, y int) Cell {
	if !g.InBounds(x, y) {
		return None
	}
	return g.cells[y][x]
}

// Set writes c at (x, y). Out of bounds writes are ignored.
func (g *Grid) Set(x, y int, c Cell) {
	if g.InBounds(x, y) {
		g.cells[y][x] = c
	}
}

// Cells returns a deep copy of the matrix.
func (g *Grid) Cells() [][]Cell {
	return copyCells(g.cells)
}

// Clone returns an independent copy of g.
func (g *Grid) Clone() *Grid {
	return &Grid{cells: copyCells(g.cells)}
}

// CountNonEmpty returns how many cells are not Empty.
func (g *Grid) CountNonEmpty() int {
	n := 0
	for _, row := range g.cells {
		for _, c := range row {
			if c != Empty {
				n++
			}
		}
	}
	return n
}

// Recolor replaces every non-Empty cell with c.
func (g *Grid) Recolor(c Cell) {
	for _, row := range g.cells {
		for x := range row {
			if row[x] != Empty {
				row[x] = c
			}
		}
	}
}

// Spectrum returns, for every column, the height of its highest non-Empty cell
// (rows minus the index of that cell), or 0 for an empty column.
func (g *Grid) Spectrum() []int {
	rows, cols := g.Rows(), g.Cols()
	spectrum := make([]int, cols)
	for x := 0; x < cols; x++ {
		for y := 0; y < rows; y++ {
			if g.cells[y][x] != Empty {
				spectrum[x] = rows - y
				break
			}
		}
	}
	return spectrum
}

// ClearAndDropFullRows removes every full row, top to bottom, shifting the rows
// above it down and inserting an Empty row at the top. Indestructible cells make
// a row unclearable. Cells of the given special types found in cleared rows are
// reported with their position at the time of the clear.
func (g *Grid) ClearAndDropFullRows(special ...Cell) ClearResult {
	var result ClearResult
	cols := g.Cols()

	for y, row := range g.cells {
		if !isRowFull(row) {
			continue
		}
		for x, c := range row {
			for _, s := range special {
				if c == s {
					result.ClearedSpecialCells = append(result.ClearedSpecialCells, SpecialCell{
						Type:     c,
						Position: Vector{X: x, Y: y},
					})
					break
				}
			}
		}
		copy(g.cells[1:y+1], g.cells[0:y])
		g.cells[0] = emptyRow(cols)
		result.ClearedRows++
	}

	return result
}

// PushRowsFromBottom shifts the content up by n rows, discarding the top n rows,
// and fills the bottom n rows with fill. It reports whether a discarded row held
// anything, which means the board overflowed.
func (g *Grid) PushRowsFromBottom(n int, fill Cell) bool {
	if n <= 0 {
		return false
	}
	rows, cols := g.Rows(), g.Cols()
	if n > rows {
		n = rows
	}

	overflowed := false
	for _, row := range g.cells[:n] {
		for _, c := range row {
			if c != Empty {
				overflowed = true
			}
		}
	}

	shifted := make([][]Cell, 0, rows)
	shifted = append(shifted, g.cells[n:]...)
	for i := 0; i < n; i++ {
		row := make([]Cell, cols)
		for x := range row {
			row[x] = fill
		}
		shifted = append(shifted, row)
	}
	g.cells = shifted

	return overflowed
}

// RotateClockwise returns a copy of g turned 90 degrees clockwise.
func (g *Grid) RotateClockwise() *Grid {
	rows, cols := g.Rows(), g.Cols()
	rotated := make([][]Cell, cols)
	for y := range rotated {
		rotated[y] = make([]Cell, rows)
		for x := range rotated[y] {
			rotated[y][x] = g.cells[rows-1-x][y]
		}
	}
	return &Grid{cells: rotated}
}

func (g *Grid) String() string {
	var b strings.Builder
	for y, row := range g.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x, c := range row {
			if x > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(int(c)))
		}
	}
	return b.String()
}

// Overlaps reports whether a non-Empty cell of b, placed at pos on a, lands on a
// non-Empty cell of a. Cells of b falling outside a never overlap; callers that
// care about bounds check them separately.
func Overlaps(a, b *Grid, pos Vector) bool {
	for y, row := range b.cells {
		for x, c := range row {
			if c == Empty {
				continue
			}
			ax, ay := x+pos.X, y+pos.Y
			if !a.InBounds(ax, ay) {
				continue
			}
			if a.cells[ay][ax] != Empty {
				return true
			}
		}
	}
	return false
}

// Superimpose returns a new grid with overlay merged into base at pos. Overlay
// cells outside base are dropped. Neither input is modified.
func Superimpose(base, overlay *Grid, pos Vector, mode Mode) *Grid {
	result := base.Clone()
	for y, row := range overlay.cells {
		for x, c := range row {
			bx, by := x+pos.X, y+pos.Y
			if !result.InBounds(bx, by) {
				continue
			}
			switch mode {
			case FillEmpty:
				if result.cells[by][bx] == Empty {
					result.cells[by][bx] = c
				}
			case Override:
				if c != None {
					result.cells[by][bx] = c
				}
			}
		}
	}
	return result
}

func isRowFull(row []Cell) bool {
	for _, c := range row {
		if c == Empty || c == Indestructible {
			return false
		}
	}
	return true
}

func emptyRow(cols int) []Cell {
	return make([]Cell, cols)
}

func copyCells(cells [][]Cell) [][]Cell {
	out := make([][]Cell, len(cells))
	for y, row := range cells {
		out[y] = append([]Cell(nil), row...)
	}
	return out
}
