// game/game.go
package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/znichola/red-tetris/logger"
	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/piece"
	"github.com/znichola/red-tetris/player"
	"github.com/znichola/red-tetris/prng"
)

const (
	DefaultTickRate = 30
	DefaultDropRate = 1
)

// ScoreStore receives the final scores of a game. An empty winner means a draw
// or a solo game.
type ScoreStore interface {
	PushPlayerScores(players []models.PlayerScore, gameMode string, winner string) error
}

// Snapshot maps each player name to what that player sees after a tick.
type Snapshot map[string]models.GameData

// Listener is called once per tick, outside of the game lock.
type Listener func(Snapshot)

// Options tunes a Game. Zero values fall back to the defaults.
type Options struct {
	// TickRate is the number of loop iterations per second.
	TickRate float64
	// DropRate is the number of gravity steps per second, before the heavy multiplier.
	DropRate float64
	// Seed is shared by every player. Empty derives one from the start time.
	Seed string
	// Now replaces time.Now in tests.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TickRate <= 0 {
		o.TickRate = DefaultTickRate
	}
	if o.DropRate <= 0 {
		o.DropRate = DefaultDropRate
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Game runs the players of one room on a shared seed.
type Game struct {
	mu        sync.Mutex
	config    models.GameConfig
	solo      bool
	players   []*player.Player
	listeners []Listener
	store     ScoreStore
	opts      Options
	lastTick  time.Time
}

// New creates one player per name. Every player gets the same seed, so all of
// them spawn the same sequence of pieces.
func New(playerNames []string, config models.GameConfig, store ScoreStore, opts Options) *Game {
	opts = opts.withDefaults()
	now := opts.Now()
	if opts.Seed == "" {
		opts.Seed = prng.IntSeed(now.UnixMilli())
	}

	g := &Game{
		config:   config,
		solo:     len(playerNames) == 1,
		players:  make([]*player.Player, 0, len(playerNames)),
		store:    store,
		opts:     opts,
		lastTick: now,
	}
	for _, name := range playerNames {
		g.players = append(g.players, player.New(name, config, opts.Seed, opts.DropRate))
	}
	return g
}

// DoAction routes an action to the named player. Unknown players and actions are ignored.
func (g *Game) DoAction(playerName string, action models.ActionType) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.find(playerName)
	if p == nil {
		return
	}

	switch action {
	case models.MoveLeft:
		p.TryMoveTetromino(piece.Left)
	case models.MoveRight:
		p.TryMoveTetromino(piece.Right)
	case models.Rotate:
		p.TryRotateTetromino()
	case models.SoftDrop:
		p.TryMoveTetromino(piece.Down)
	case models.HardDrop:
		p.HardDropTetromino()
	}
}

// RemovePlayer drops a player that left. The game goes on for the others.
func (g *Game) RemovePlayer(playerName string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, p := range g.players {
		if p.Name() == playerName {
			g.players = append(g.players[:i], g.players[i+1:]...)
			return
		}
	}
}

func (g *Game) AddListener(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, l)
}

func (g *Game) RemoveAllListeners() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = nil
}

// GameData returns the view of one player: their own board, and only the
// spectrum of every opponent.
func (g *Game) GameData(playerName string) (models.GameData, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gameData(playerName)
}

func (g *Game) gameData(playerName string) (models.GameData, bool) {
	p := g.find(playerName)
	if p == nil {
		return models.GameData{}, false
	}

	spectra := make(map[string][]int, len(g.players)-1)
	for _, other := range g.players {
		if other.Name() != playerName {
			spectra[other.Name()] = other.Spectrum()
		}
	}

	data := models.GameData{
		Grid:                 p.Grid(),
		Score:                p.Score(),
		PlayerNameToSpectrum: spectra,
	}
	if next, ok := p.NextTetromino(); ok {
		data.NextTetromino = &next
	}
	return data, true
}

// IsOver reports whether the end condition is met: a solo player lost, or at
// most one player of a battle is still alive.
func (g *Game) IsOver() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isOver()
}

func (g *Game) isOver() bool {
	if len(g.players) == 0 {
		return true
	}
	if g.solo {
		return g.players[0].IsGameOver()
	}
	return g.activePlayers() <= 1
}

func (g *Game) activePlayers() int {
	n := 0
	for _, p := range g.players {
		if !p.IsGameOver() {
			n++
		}
	}
	return n
}

// Winner is the last player standing of a battle. Solo games and draws have none.
func (g *Game) Winner() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner()
}

func (g *Game) winner() (string, bool) {
	if g.solo {
		return "", false
	}
	for _, p := range g.players {
		if !p.IsGameOver() {
			return p.Name(), true
		}
	}
	return "", false
}

// Mode is the label scores are filed under, e.g. "battle-heavy-powerup-12x24".
func (g *Game) Mode() string {
	var tags []string
	if !g.solo {
		tags = append(tags, "battle")
	}
	if g.config.Heavy {
		tags = append(tags, "heavy")
	}
	tags = append(tags, g.config.Ruleset.String())
	if !g.config.IsDefaultGrid() {
		d := g.config.GridDimensions
		tags = append(tags, fmt.Sprintf("%dx%d", d.X, d.Y))
	}
	return strings.ToLower(strings.Join(tags, "-"))
}

// Scores returns the current score of every remaining player.
func (g *Game) Scores() []models.PlayerScore {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scores()
}

func (g *Game) scores() []models.PlayerScore {
	scores := make([]models.PlayerScore, 0, len(g.players))
	for _, p := range g.players {
		scores = append(scores, models.PlayerScore{Name: p.Name(), Score: p.Score()})
	}
	return scores
}

// Run drives the game until it is over or ctx is done. After a natural end the
// scores are pushed to the store, the listeners are cleared and Run returns nil.
// A cancelled game returns ctx.Err() and records nothing.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / g.opts.TickRate))
	defer ticker.Stop()

	g.mu.Lock()
	g.lastTick = g.opts.Now()
	g.mu.Unlock()

	for !g.IsOver() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		g.mu.Lock()
		now := g.opts.Now()
		delta := now.Sub(g.lastTick)
		g.lastTick = now
		g.mu.Unlock()

		g.step(delta)
	}

	g.finish()
	return nil
}

// step advances every live player by delta and notifies the listeners.
func (g *Game) step(delta time.Duration) {
	g.mu.Lock()
	for _, p := range g.players {
		if p.IsGameOver() {
			continue
		}
		p.Update(delta, g.opponentsOf(p))
	}

	snapshot := make(Snapshot, len(g.players))
	for _, p := range g.players {
		snapshot[p.Name()], _ = g.gameData(p.Name())
	}
	listeners := append([]Listener(nil), g.listeners...)
	g.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

func (g *Game) finish() {
	g.mu.Lock()
	winner, _ := g.winner()
	scores := g.scores()
	g.listeners = nil
	g.mu.Unlock()

	mode := g.Mode()
	if g.store == nil || len(scores) == 0 {
		return
	}
	if err := g.store.PushPlayerScores(scores, mode, winner); err != nil {
		logger.Log.Errorf("push scores for mode %s: %v", mode, err)
	}
}

func (g *Game) opponentsOf(p *player.Player) []*player.Player {
	opponents := make([]*player.Player, 0, len(g.players)-1)
	for _, other := range g.players {
		if other != p {
			opponents = append(opponents, other)
		}
	}
	return opponents
}

func (g *Game) find(playerName string) *player.Player {
	for _, p := range g.players {
		if p.Name() == playerName {
			return p
		}
	}
	return nil
}
