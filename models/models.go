// models/models.go
package models

import (
	"errors"
	"time"

	"github.com/znichola/red-tetris/grid"
	"github.com/znichola/red-tetris/piece"
)

// GameState 房间的游戏状态
type GameState int

const (
	Pending GameState = iota
	Playing
	Ended
)

func (s GameState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Playing:
		return "playing"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// ActionType is a player input.
type ActionType int

const (
	MoveLeft ActionType = iota
	MoveRight
	Rotate
	SoftDrop
	HardDrop
)

// Valid reports whether a is a known action.
func (a ActionType) Valid() bool {
	return a >= MoveLeft && a <= HardDrop
}

// RulesetType selects the game variant.
type RulesetType int

const (
	Classic RulesetType = iota
	Invisible
	PowerUp
)

func (r RulesetType) Valid() bool {
	return r >= Classic && r <= PowerUp
}

func (r RulesetType) String() string {
	switch r {
	case Classic:
		return "Classic"
	case Invisible:
		return "Invisible"
	case PowerUp:
		return "PowerUp"
	}
	return ""
}

var (
	MinGridDimensions     = grid.Vector{X: 5, Y: 6}
	MaxGridDimensions     = grid.Vector{X: 20, Y: 30}
	DefaultGridDimensions = grid.Vector{X: 10, Y: 20}
)

// ErrInvalidGridDimensions is returned for boards outside of the allowed bounds.
var ErrInvalidGridDimensions = errors.New("grid dimensions out of bounds")

// GameConfig 游戏配置
type GameConfig struct {
	GridDimensions  grid.Vector `json:"gridDimensions"`
	Heavy           bool        `json:"heavy"`
	Ruleset         RulesetType `json:"ruleset"`
	EnabledPowerUps []grid.Cell `json:"enabledPowerUps"`
}

// DefaultGameConfig returns a classic 10x20 configuration.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		GridDimensions:  DefaultGridDimensions,
		Ruleset:         Classic,
		EnabledPowerUps: []grid.Cell{},
	}
}

// Validate checks the grid dimensions against the allowed bounds.
func (c GameConfig) Validate() error {
	d := c.GridDimensions
	if d.X < MinGridDimensions.X || d.X > MaxGridDimensions.X ||
		d.Y < MinGridDimensions.Y || d.Y > MaxGridDimensions.Y {
		return ErrInvalidGridDimensions
	}
	return nil
}

// Freeze returns a normalized deep copy of c. Unknown rulesets become Classic,
// and power-ups are kept only for the PowerUp ruleset, without duplicates.
func (c GameConfig) Freeze() GameConfig {
	frozen := GameConfig{
		GridDimensions:  c.GridDimensions,
		Heavy:           c.Heavy,
		Ruleset:         c.Ruleset,
		EnabledPowerUps: []grid.Cell{},
	}
	if !frozen.Ruleset.Valid() {
		frozen.Ruleset = Classic
	}
	if frozen.Ruleset != PowerUp {
		return frozen
	}

	seen := make(map[grid.Cell]bool)
	for _, p := range c.EnabledPowerUps {
		if p.IsPowerUp() && !seen[p] {
			seen[p] = true
			frozen.EnabledPowerUps = append(frozen.EnabledPowerUps, p)
		}
	}
	return frozen
}

// IsDefaultGrid reports whether the config uses the standard 10x20 board.
func (c GameConfig) IsDefaultGrid() bool {
	return c.GridDimensions == DefaultGridDimensions
}

// RoomData is the public view of a room.
type RoomData struct {
	GameState   GameState `json:"gameState"`
	OwnerName   string    `json:"ownerName"`
	PlayerNames []string  `json:"playerNames"`
}

// GameData is what one player sees of a running game.
type GameData struct {
	Grid                 [][]grid.Cell    `json:"grid"`
	Score                int              `json:"score"`
	PlayerNameToSpectrum map[string][]int `json:"playerNameToSpectrum"`
	NextTetromino        *piece.Type      `json:"nextTetromino,omitempty"`
}

// PlayerScore is the final score of one player.
type PlayerScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ScoreRecord 分数记录
type ScoreRecord struct {
	Player   string    `json:"player"`
	Score    int       `json:"score"`
	Time     time.Time `json:"time"`
	GameMode string    `json:"gameMode"`
	Winner   bool      `json:"winner"`
}

// PlayerStats 玩家统计信息
type PlayerStats struct {
	Player    string   `json:"player"`
	Records   int      `json:"records"`
	Wins      int      `json:"wins"`
	BestScore int      `json:"bestScore"`
	Modes     []string `json:"modes"`
}
