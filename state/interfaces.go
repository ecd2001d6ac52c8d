// state/interfaces.go
package state

import "github.com/znichola/red-tetris/game"

// RoomContext is what a state needs from the room that owns it.
// This breaks the import cycle between room and state.
type RoomContext interface {
	GetName() string
	// EndGame is called from the game goroutine once Run returns.
	EndGame(g *game.Game, err error)
}
