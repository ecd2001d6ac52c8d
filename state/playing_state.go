package state

import (
	"context"

	"github.com/znichola/red-tetris/game"
	"github.com/znichola/red-tetris/logger"
	"github.com/znichola/red-tetris/models"
)

// PlayingState owns the goroutine running the room's game.
type PlayingState struct {
	RoomStateBase
	Game   *game.Game
	cancel context.CancelFunc
}

// NewPlayingState 创建新的游戏状态
func NewPlayingState(room RoomContext, g *game.Game) *PlayingState {
	return &PlayingState{
		RoomStateBase: RoomStateBase{
			ID:   models.Playing,
			Room: room,
		},
		Game: g,
	}
}

// OnEnter 进入游戏状态，启动游戏循环
func (s *PlayingState) OnEnter() {
	logger.Log.Infof("房间 %s 进入游戏状态，模式: %s", s.Room.GetName(), s.Game.Mode())

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		err := s.Game.Run(ctx)
		s.Room.EndGame(s.Game, err)
	}()
}

// OnExit stops the loop if it is still running and detaches the listeners.
func (s *PlayingState) OnExit() {
	logger.Log.Infof("房间 %s 退出游戏状态", s.Room.GetName())
	if s.cancel != nil {
		s.cancel()
	}
	s.Game.RemoveAllListeners()
}

// HandleAction forwards a player input to the game.
func (s *PlayingState) HandleAction(playerName string, action models.ActionType) {
	s.Game.DoAction(playerName, action)
}
