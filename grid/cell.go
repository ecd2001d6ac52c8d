// grid/cell.go
package grid

// Cell is the content of one board square. The numeric values are part of the
// wire protocol.
type Cell int

const (
	None           Cell = -1 // outside of the board
	Empty          Cell = 0
	I              Cell = 1
	O              Cell = 2
	T              Cell = 3
	J              Cell = 4
	L              Cell = 5
	S              Cell = 6
	Z              Cell = 7
	Indestructible Cell = 8
	Shadow         Cell = 9
	Attack         Cell = 10
	Duplication    Cell = 11
	Bomb           Cell = 12
)

// PowerUps lists every power-up marker cell.
var PowerUps = []Cell{Attack, Duplication, Bomb}

// IsPowerUp reports whether c marks a power-up.
func (c Cell) IsPowerUp() bool {
	return c == Attack || c == Duplication || c == Bomb
}

// IsTetromino reports whether c is one of the seven tetromino colors.
func (c Cell) IsTetromino() bool {
	return c >= I && c <= Z
}

func (c Cell) String() string {
	switch c {
	case None:
		return "None"
	case Empty:
		return "Empty"
	case I:
		return "I"
	case O:
		return "O"
	case T:
		return "T"
	case J:
		return "J"
	case L:
		return "L"
	case S:
		return "S"
	case Z:
		return "Z"
	case Indestructible:
		return "Indestructible"
	case Shadow:
		return "Shadow"
	case Attack:
		return "Attack"
	case Duplication:
		return "Duplication"
	case Bomb:
		return "Bomb"
	}
	return "Unknown"
}

// Vector is a board position or offset. Y grows downwards.
type Vector struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale returns v multiplied by n.
func (v Vector) Scale(n int) Vector {
	return Vector{X: v.X * n, Y: v.Y * n}
}
