// player/player.go
package player

import (
	"time"

	"github.com/znichola/red-tetris/grid"
	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/piece"
	"github.com/znichola/red-tetris/prng"
)

// HeavyMultiplier scales the drop rate of heavy games.
const HeavyMultiplier = 3

// bombHole is carved around a cleared bomb. None cells leave the pile untouched.
var bombHole = mustGrid([][]grid.Cell{
	{grid.None, grid.Empty, grid.None},
	{grid.Empty, grid.Empty, grid.Empty},
	{grid.None, grid.Empty, grid.None},
})

type duplication struct {
	kind      piece.Type
	remaining int
}

// Player is the board of one participant: the pile, the falling piece and the
// piece after it. It is not safe for concurrent use; Game serializes access.
type Player struct {
	name   string
	config models.GameConfig

	piecesRng   *prng.Rand
	powerUpsRng *prng.Rand

	pile    *grid.Grid
	current *piece.Piece
	next    *piece.Piece

	score        int
	gameOver     bool
	dropTimer    time.Duration
	dropInterval time.Duration
	kicks        []grid.Vector
	duplicates   []duplication
}

// New creates a player and spawns its first piece. Players built from the same
// seed draw the same pieces and power-ups.
func New(name string, config models.GameConfig, seed string, dropRate float64) *Player {
	if dropRate <= 0 {
		dropRate = 1
	}
	if config.Heavy {
		dropRate *= HeavyMultiplier
	}

	kicks := piece.ClassicKicks
	if config.Ruleset == models.PowerUp {
		kicks = piece.PowerUpKicks
	}

	p := &Player{
		name:         name,
		config:       config,
		piecesRng:    prng.New(seed),
		powerUpsRng:  prng.New(seed),
		pile:         grid.New(config.GridDimensions.Y, config.GridDimensions.X),
		dropInterval: time.Duration(float64(time.Second) / dropRate),
		kicks:        kicks,
	}
	p.next = p.randomTetromino()
	p.spawnNextTetromino()
	return p
}

func (p *Player) Name() string {
	return p.name
}

func (p *Player) Score() int {
	return p.score
}

func (p *Player) IsGameOver() bool {
	return p.gameOver
}

// DropInterval is the time between two gravity steps.
func (p *Player) DropInterval() time.Duration {
	return p.dropInterval
}

// Spectrum is the column height profile of the pile.
func (p *Player) Spectrum() []int {
	return p.pile.Spectrum()
}

// NextTetromino returns the type of the piece that will spawn next.
func (p *Player) NextTetromino() (piece.Type, bool) {
	if p.gameOver {
		return 0, false
	}
	if len(p.duplicates) > 0 {
		return p.duplicates[0].kind, true
	}
	return p.next.Type(), true
}

// Grid is the board as shown to its owner.
func (p *Player) Grid() [][]grid.Cell {
	if p.config.Ruleset == models.Invisible {
		blank := grid.New(p.pile.Rows(), p.pile.Cols())
		return p.current.DrawOn(blank).Cells()
	}

	board := p.current.DrawOn(p.pile)
	if !p.gameOver {
		board = p.current.Shadow(p.pile).DrawOn(board)
	}
	return board.Cells()
}

// TryMoveTetromino moves the falling piece when the move is free. Moving down
// restarts the drop timer.
func (p *Player) TryMoveTetromino(direction grid.Vector) {
	if p.gameOver || !p.current.CanMove(p.pile, direction) {
		return
	}
	p.current.Move(direction)
	if direction == piece.Down {
		p.dropTimer = 0
	}
}

// HardDropTetromino drops the piece to the bottom; it is piled on the next update.
func (p *Player) HardDropTetromino() {
	if p.gameOver {
		return
	}
	for p.current.CanMove(p.pile, piece.Down) {
		p.current.Move(piece.Down)
	}
	p.dropTimer = p.dropInterval
}

// TryRotateTetromino rotates the piece, kicking it if needed.
func (p *Player) TryRotateTetromino() {
	if p.gameOver {
		return
	}
	p.current.TryRotate(p.pile, p.kicks)
}

// ReceiveAttack pushes rows of indestructible cells from the bottom.
func (p *Player) ReceiveAttack(rows int) {
	if p.pile.PushRowsFromBottom(rows, grid.Indestructible) {
		p.gameOver = true
	}
}

// Update advances the player by deltaTime. Attacks triggered by line clears are
// sent to opponents.
func (p *Player) Update(deltaTime time.Duration, opponents []*Player) {
	if p.gameOver {
		return
	}

	p.dropTimer += deltaTime
	if p.dropTimer < p.dropInterval {
		return
	}
	p.dropTimer = 0

	if p.current.CanMove(p.pile, piece.Down) {
		p.current.Move(piece.Down)
		return
	}
	p.settle(opponents)
}

func (p *Player) settle(opponents []*Player) {
	p.pileCurrentTetromino()

	cleared := p.pile.ClearAndDropFullRows(grid.PowerUps...)

	attacks, duplications := 0, 0
	for _, cell := range cleared.ClearedSpecialCells {
		switch cell.Type {
		case grid.Attack:
			attacks++
		case grid.Duplication:
			duplications++
		case grid.Bomb:
			origin := cell.Position.Add(grid.Vector{X: -1, Y: -1})
			p.pile = grid.Superimpose(p.pile, bombHole, origin, grid.Override)
		}
	}

	if duplications > 0 {
		p.duplicates = append(p.duplicates, duplication{kind: p.current.Type(), remaining: duplications})
	}

	if rows := cleared.ClearedRows - 1 + attacks; rows > 0 {
		for _, opponent := range opponents {
			opponent.ReceiveAttack(rows)
		}
	}

	p.score += max(1, cleared.ClearedRows+1) * p.current.ScoreValue()

	p.spawnNextTetromino()
}

func (p *Player) pileCurrentTetromino() {
	p.pile = p.current.DrawOn(p.pile)
}

func (p *Player) spawnNextTetromino() {
	if len(p.duplicates) > 0 {
		head := &p.duplicates[0]
		p.current = piece.New(head.kind, p.spawnPosition(), nil, nil)
		head.remaining--
		if head.remaining <= 0 {
			p.duplicates = p.duplicates[1:]
		}
	} else {
		p.current = p.next
		p.next = p.randomTetromino()
	}

	if p.current.OverlapsPile(p.pile) {
		p.pileCurrentTetromino()
		p.gameOver = true
	}
}

func (p *Player) randomTetromino() *piece.Piece {
	kind := piece.Types[p.piecesRng.Intn(len(piece.Types))]
	return piece.New(kind, p.spawnPosition(), p.config.EnabledPowerUps, p.powerUpsRng)
}

func (p *Player) spawnPosition() grid.Vector {
	return grid.Vector{X: p.pile.Cols()/2 - 1, Y: 0}
}

func mustGrid(cells [][]grid.Cell) *grid.Grid {
	g, err := grid.FromCells(cells)
	if err != nil {
		panic(err)
	}
	return g
}
