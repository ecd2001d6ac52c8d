package room

import (
	"github.com/znichola/red-tetris/game"
	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/network"
)

// Broadcaster defines the interface for sending messages to room members.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	Broadcast(conns []network.Connection, msgID uint16, v any)
	Send(conn network.Connection, msgID uint16, v any) error
}

// ScoreStore is the score persistence a room reports finished games to.
type ScoreStore interface {
	game.ScoreStore
	AllScores() ([]models.ScoreRecord, error)
}

// Observer is told when games start and stop.
type Observer interface {
	GameStarted()
	GameFinished(mode string, completed bool)
}

// Deps are shared by every room of a manager. Store and Observer may be nil.
type Deps struct {
	Broadcaster Broadcaster
	Store       ScoreStore
	Observer    Observer
	GameOptions game.Options
}
