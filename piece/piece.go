// piece/piece.go
package piece

import "github.com/znichola/red-tetris/grid"

// PowerUpSpawnChance is the probability that a new piece carries a power-up.
const PowerUpSpawnChance = 0.2

var (
	Left  = grid.Vector{X: -1, Y: 0}
	Right = grid.Vector{X: 1, Y: 0}
	Down  = grid.Vector{X: 0, Y: 1}
	Up    = grid.Vector{X: 0, Y: -1}
)

// ClassicKicks are the offsets tried, in order, when a rotation is blocked.
var ClassicKicks = []grid.Vector{
	Left,
	Left.Scale(2),
	Right,
	Right.Scale(2),
	Up,
	Up.Scale(2),
	Up.Scale(3),
}

// PowerUpKicks ends with a one-row drop.
var PowerUpKicks = append(append([]grid.Vector(nil), ClassicKicks...), Down)

// Source is the random stream used to place power-ups.
type Source interface {
	Float64() float64
}

// Piece is a falling tetromino: its own shape plus a position on the board.
type Piece struct {
	kind     Type
	shape    *grid.Grid
	position grid.Vector
	rotation Rotation
}

// New creates a piece of the given type at position. When powerUps is not empty
// and rng is not nil, the piece may get one of its cells replaced by a power-up.
func New(kind Type, position grid.Vector, powerUps []grid.Cell, rng Source) *Piece {
	p := &Piece{
		kind:     kind,
		shape:    Shape(kind),
		position: position,
	}

	if len(powerUps) > 0 && rng != nil && rng.Float64() < PowerUpSpawnChance {
		powerUp := powerUps[int(rng.Float64()*float64(len(powerUps)))]

		var spots []grid.Vector
		for y := 0; y < p.shape.Rows(); y++ {
			for x := 0; x < p.shape.Cols(); x++ {
				if p.shape.At(x, y) != grid.Empty {
					spots = append(spots, grid.Vector{X: x, Y: y})
				}
			}
		}
		spot := spots[int(rng.Float64()*float64(len(spots)))]
		p.shape.Set(spot.X, spot.Y, powerUp)
	}

	return p
}

func (p *Piece) Type() Type {
	return p.kind
}

// Position is the pile cell under the top-left corner of the shape.
func (p *Piece) Position() grid.Vector {
	return p.position
}

func (p *Piece) Rotation() Rotation {
	return p.rotation
}

// Shape returns a copy of the current shape.
func (p *Piece) Shape() *grid.Grid {
	return p.shape.Clone()
}

// CanMove reports whether the piece fits on pile after moving by direction.
func (p *Piece) CanMove(pile *grid.Grid, direction grid.Vector) bool {
	return fits(pile, p.shape, p.position.Add(direction))
}

// Move applies direction without checking it.
func (p *Piece) Move(direction grid.Vector) {
	p.position = p.position.Add(direction)
}

// CanRotate reports whether the next rotation fits on pile once moved by offset.
func (p *Piece) CanRotate(pile *grid.Grid, offset grid.Vector) bool {
	return fits(pile, p.shape.RotateClockwise(), p.position.Add(offset))
}

// Rotate turns the piece clockwise without checking it.
func (p *Piece) Rotate() {
	p.shape = p.shape.RotateClockwise()
	p.rotation = p.rotation.Next()
}

// TryRotate rotates in place when possible, otherwise applies the first kick
// offset that makes the rotation fit. It reports whether the piece rotated.
func (p *Piece) TryRotate(pile *grid.Grid, kicks []grid.Vector) bool {
	if p.CanRotate(pile, grid.Vector{}) {
		p.Rotate()
		return true
	}
	for _, offset := range kicks {
		if p.CanRotate(pile, offset) {
			p.Move(offset)
			p.Rotate()
			return true
		}
	}
	return false
}

// ScoreValue is the number of filled cells of the piece.
func (p *Piece) ScoreValue() int {
	return p.shape.CountNonEmpty()
}

// Duplicate returns an independent copy.
func (p *Piece) Duplicate() *Piece {
	return &Piece{
		kind:     p.kind,
		shape:    p.shape.Clone(),
		position: p.position,
		rotation: p.rotation,
	}
}

// Shadow returns the ghost of the piece: a copy dropped as far as it goes on pile
// and drawn with Shadow cells.
func (p *Piece) Shadow(pile *grid.Grid) *Piece {
	ghost := p.Duplicate()
	for ghost.CanMove(pile, Down) {
		ghost.Move(Down)
	}
	ghost.shape.Recolor(grid.Shadow)
	return ghost
}

// DrawOn returns board with the piece superimposed on its empty cells.
func (p *Piece) DrawOn(board *grid.Grid) *grid.Grid {
	return grid.Superimpose(board, p.shape, p.position, grid.FillEmpty)
}

// OverlapsPile reports whether the piece, where it stands, covers a pile cell.
func (p *Piece) OverlapsPile(pile *grid.Grid) bool {
	return grid.Overlaps(pile, p.shape, p.position)
}

// fits checks that every filled cell of shape at pos is between the walls,
// above the floor and free. Cells above the top row are allowed.
func fits(pile, shape *grid.Grid, pos grid.Vector) bool {
	for y := 0; y < shape.Rows(); y++ {
		for x := 0; x < shape.Cols(); x++ {
			if shape.At(x, y) == grid.Empty {
				continue
			}
			cx, cy := pos.X+x, pos.Y+y
			if cx < 0 || cx >= pile.Cols() || cy >= pile.Rows() {
				return false
			}
		}
	}
	return !grid.Overlaps(pile, shape, pos)
}
