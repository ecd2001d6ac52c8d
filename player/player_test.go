package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/znichola/red-tetris/grid"
	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/piece"
	"github.com/znichola/red-tetris/prng"
)

var seed42 = prng.IntSeed(42)

func newTestPlayer(t *testing.T, cfg models.GameConfig) *Player {
	t.Helper()
	p := New("alice", cfg, seed42, 1)
	require.Equal(t, piece.TypeI, p.current.Type())
	return p
}

// fillRow fills row y of the pile with c, leaving the columns in gaps empty.
func fillRow(p *Player, y int, c grid.Cell, gaps ...int) {
	skip := make(map[int]bool)
	for _, x := range gaps {
		skip[x] = true
	}
	for x := 0; x < p.pile.Cols(); x++ {
		if !skip[x] {
			p.pile.Set(x, y, c)
		}
	}
}

func moveToLeftWall(p *Player) {
	for i := 0; i < p.pile.Cols(); i++ {
		p.TryMoveTetromino(piece.Left)
	}
}

func dropAndSettle(p *Player, opponents ...*Player) {
	p.HardDropTetromino()
	p.Update(time.Millisecond, opponents)
}

func TestNew_SpawnsFirstPiece(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())

	cells := p.Grid()
	require.Len(t, cells, 20)
	require.Len(t, cells[0], 10)
	for x := 4; x < 8; x++ {
		assert.Equal(t, grid.I, cells[0][x])
		assert.Equal(t, grid.Shadow, cells[19][x])
	}
	assert.Equal(t, grid.Empty, cells[0][3])

	next, ok := p.NextTetromino()
	assert.True(t, ok)
	assert.Equal(t, piece.TypeZ, next)
	assert.Equal(t, time.Second, p.DropInterval())
}

func TestNew_HeavyDropsFaster(t *testing.T) {
	cfg := models.DefaultGameConfig()
	cfg.Heavy = true
	p := New("bob", cfg, seed42, 1)
	assert.Equal(t, time.Second/3, p.DropInterval())
}

func TestUpdate_DropsAfterInterval(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())

	p.Update(500*time.Millisecond, nil)
	assert.Equal(t, 0, p.current.Position().Y)

	p.Update(500*time.Millisecond, nil)
	assert.Equal(t, 1, p.current.Position().Y)
}

func TestTryMoveTetromino_Bounded(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())

	for i := 0; i < 20; i++ {
		p.TryMoveTetromino(piece.Left)
	}
	assert.Equal(t, 0, p.current.Position().X)

	for i := 0; i < 20; i++ {
		p.TryMoveTetromino(piece.Right)
	}
	assert.Equal(t, 6, p.current.Position().X)
}

func TestTryMoveTetromino_SoftDropResetsTimer(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())

	p.Update(900*time.Millisecond, nil)
	p.TryMoveTetromino(piece.Down)
	assert.Equal(t, 1, p.current.Position().Y)

	p.Update(900*time.Millisecond, nil)
	assert.Equal(t, 1, p.current.Position().Y)

	p.Update(100*time.Millisecond, nil)
	assert.Equal(t, 2, p.current.Position().Y)
}

func TestHardDropTetromino_PilesOnNextUpdate(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())

	p.HardDropTetromino()
	assert.Equal(t, 19, p.current.Position().Y)
	assert.Equal(t, grid.Empty, p.pile.At(4, 19))

	p.Update(time.Millisecond, nil)

	for x := 4; x < 8; x++ {
		assert.Equal(t, grid.I, p.pile.At(x, 19))
	}
	assert.Equal(t, piece.TypeZ, p.current.Type())
	assert.Equal(t, 0, p.current.Position().Y)
	assert.Equal(t, 4, p.Score())
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1, 0, 0}, p.Spectrum())
}

func TestSettle_SingleLineSendsNoAttack(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())
	opponent := New("bob", models.DefaultGameConfig(), seed42, 1)
	fillRow(p, 19, grid.T, 4, 5, 6, 7)

	dropAndSettle(p, opponent)

	assert.Equal(t, make([]int, 10), p.Spectrum())
	assert.Equal(t, make([]int, 10), opponent.Spectrum())
	assert.Equal(t, 2*4, p.Score())
}

func TestSettle_TwoLinesSendOneRow(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())
	opponent := New("bob", models.DefaultGameConfig(), seed42, 1)
	opponent.pile.Set(0, 19, grid.O)
	fillRow(p, 18, grid.T, 4)
	fillRow(p, 19, grid.T, 4)

	p.TryRotateTetromino()
	require.Equal(t, piece.Rotation90, p.current.Rotation())
	dropAndSettle(p, opponent)

	assert.Equal(t, []int{0, 0, 0, 0, 2, 0, 0, 0, 0, 0}, p.Spectrum())
	assert.Equal(t, 3*4, p.Score())

	for x := 0; x < 10; x++ {
		assert.Equal(t, grid.Indestructible, opponent.pile.At(x, 19))
	}
	assert.Equal(t, grid.O, opponent.pile.At(0, 18))
	assert.False(t, opponent.IsGameOver())
}

func TestSettle_AttackCellAddsRow(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())
	opponent := New("bob", models.DefaultGameConfig(), seed42, 1)
	fillRow(p, 19, grid.T, 4, 5, 6, 7)
	p.pile.Set(0, 19, grid.Attack)

	dropAndSettle(p, opponent)

	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, opponent.Spectrum())
}

func TestSettle_IndestructibleRowsNeverClear(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())
	p.ReceiveAttack(1)
	fillRow(p, 18, grid.T, 4, 5, 6, 7)

	dropAndSettle(p)

	assert.Equal(t, grid.Indestructible, p.pile.At(0, 19))
	assert.Equal(t, grid.Empty, p.pile.At(0, 18))
}

func TestSettle_BombCarvesHole(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())
	fillRow(p, 18, grid.T, 0, 1, 2, 3)
	fillRow(p, 19, grid.T, 0, 1, 2, 3)
	p.pile.Set(5, 19, grid.Bomb)

	moveToLeftWall(p)
	dropAndSettle(p)

	expected := []grid.Cell{grid.Empty, grid.Empty, grid.Empty, grid.Empty, grid.Empty, grid.Empty, grid.Empty, grid.T, grid.T, grid.T}
	for x, c := range expected {
		assert.Equal(t, c, p.pile.At(x, 19), "x=%d", x)
	}
	assert.Equal(t, grid.Empty, p.pile.At(5, 18))
}

func TestSettle_DuplicationRequeuesPiece(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())
	fillRow(p, 19, grid.T, 0, 1, 2, 3)
	p.pile.Set(6, 19, grid.Duplication)

	moveToLeftWall(p)
	dropAndSettle(p)

	assert.Equal(t, piece.TypeI, p.current.Type())
	next, ok := p.NextTetromino()
	assert.True(t, ok)
	assert.Equal(t, piece.TypeZ, next)

	dropAndSettle(p)
	assert.Equal(t, piece.TypeZ, p.current.Type())
}

func TestSpawn_OverlapEndsGame(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())
	p.pile.Set(5, 0, grid.O)

	p.spawnNextTetromino()

	assert.True(t, p.IsGameOver())
	assert.Equal(t, grid.Z, p.pile.At(4, 0))
	assert.Equal(t, grid.O, p.pile.At(5, 0))
	assert.Equal(t, grid.Z, p.pile.At(6, 1))

	_, ok := p.NextTetromino()
	assert.False(t, ok)
}

func TestReceiveAttack_Overflow(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())
	p.pile.Set(0, 0, grid.O)

	p.ReceiveAttack(1)

	assert.True(t, p.IsGameOver())
}

func TestActions_IgnoredAfterGameOver(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())
	p.gameOver = true
	before := p.current.Position()

	p.TryMoveTetromino(piece.Left)
	p.TryRotateTetromino()
	p.HardDropTetromino()
	p.Update(time.Hour, nil)

	assert.Equal(t, before, p.current.Position())
	assert.Equal(t, piece.Rotation0, p.current.Rotation())
	assert.Equal(t, 0, p.Score())
}

func TestGrid_InvisibleShowsOnlyFallingPiece(t *testing.T) {
	cfg := models.DefaultGameConfig()
	cfg.Ruleset = models.Invisible
	p := newTestPlayer(t, cfg)
	fillRow(p, 19, grid.T, 0)

	cells := p.Grid()

	assert.Equal(t, grid.I, cells[0][4])
	for x := 0; x < 10; x++ {
		assert.Equal(t, grid.Empty, cells[19][x])
	}
	assert.Equal(t, []int{0, 1, 1, 1, 1, 1, 1, 1, 1, 1}, p.Spectrum())
}

func TestGrid_DoesNotAliasPile(t *testing.T) {
	p := newTestPlayer(t, models.DefaultGameConfig())

	cells := p.Grid()
	cells[10][0] = grid.O

	assert.Equal(t, grid.Empty, p.pile.At(0, 10))
}
