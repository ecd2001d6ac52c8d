package state

import (
	"errors"
	"sync"

	"github.com/znichola/red-tetris/logger"
	"github.com/znichola/red-tetris/models"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from, to models.GameState, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	GetID() models.GameState
	HandleAction(playerName string, action models.ActionType)
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 基础状态机实现，只允许已注册的状态转换
type BaseStateMachine struct {
	currentState State
	transitions  map[models.GameState]map[models.GameState]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[models.GameState]map[models.GameState]func() bool),
	}
	initialState.OnEnter()
	return machine
}

// NewRoomStateMachine starts in Pending with the room transitions registered:
// Pending -> Playing -> Ended, and Ended -> Playing for a rematch.
func NewRoomStateMachine(room RoomContext) *BaseStateMachine {
	machine := NewBaseStateMachine(NewPendingState(room))
	_ = machine.AddTransition(models.Pending, models.Playing, nil)
	_ = machine.AddTransition(models.Playing, models.Ended, nil)
	_ = machine.AddTransition(models.Ended, models.Playing, nil)
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	conditions, exists := sm.transitions[currentID]
	if !exists {
		return ErrTransitionNotAllowed
	}
	condition, exists := conditions[newID]
	if !exists || (condition != nil && !condition()) {
		return ErrTransitionNotAllowed
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

// AddTransition registers from -> to. A nil condition always allows it.
func (sm *BaseStateMachine) AddTransition(from, to models.GameState, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[models.GameState]func() bool)
	}

	sm.transitions[from][to] = condition
	return nil
}

// 房间状态基础结构
type RoomStateBase struct {
	ID   models.GameState
	Room RoomContext
}

func (s *RoomStateBase) GetID() models.GameState {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {
	logger.Log.Debugf("房间 %s 进入 %s 状态", s.Room.GetName(), s.ID)
}

func (s *RoomStateBase) OnExit() {
	// 默认实现
}

// HandleAction drops actions; only a running game accepts them.
func (s *RoomStateBase) HandleAction(playerName string, action models.ActionType) {
}

// 等待状态，房间接受新玩家
type PendingState struct {
	RoomStateBase
}

func NewPendingState(room RoomContext) *PendingState {
	return &PendingState{RoomStateBase{ID: models.Pending, Room: room}}
}

// 结束状态，房主可以重新开始
type EndedState struct {
	RoomStateBase
}

func NewEndedState(room RoomContext) *EndedState {
	return &EndedState{RoomStateBase{ID: models.Ended, Room: room}}
}
