// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/znichola/red-tetris/game"
	"github.com/znichola/red-tetris/logger"
	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/network"
	"github.com/znichola/red-tetris/services"
	"github.com/znichola/red-tetris/state"
)

type member struct {
	Conn network.Connection
	Name string
}

// Room 是游戏房间的核心结构
type Room struct {
	Name         string
	CreatedAt    time.Time
	StateMachine state.StateMachine
	owner        string
	members      []member
	deps         Deps
	mutex        sync.Mutex
}

// NewRoom 创建一个新房间，创建者成为房主
func NewRoom(name string, conn network.Connection, ownerName string, deps Deps) *Room {
	room := &Room{
		Name:      name,
		CreatedAt: time.Now(),
		owner:     ownerName,
		members:   []member{{Conn: conn, Name: ownerName}},
		deps:      deps,
	}

	// 初始化状态机，将房间自身(room)作为上下文传入
	room.StateMachine = state.NewRoomStateMachine(room)
	room.broadcastRoomData()

	return room
}

// --- 实现 state.RoomContext 接口 ---

// GetName 返回房间名
func (r *Room) GetName() string {
	return r.Name
}

// EndGame moves the room to Ended once g has run to completion, then sends the
// final room data and the score board.
func (r *Room) EndGame(g *game.Game, err error) {
	if err != nil {
		// Stopped by Close; the state already moved on.
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	playing, ok := r.StateMachine.GetCurrentState().(*state.PlayingState)
	if !ok || playing.Game != g {
		return
	}
	if err := r.StateMachine.ChangeState(state.NewEndedState(r)); err != nil {
		logger.Log.Errorf("房间 %s 结束游戏失败: %v", r.Name, err)
		return
	}

	if r.deps.Observer != nil {
		r.deps.Observer.GameFinished(g.Mode(), true)
	}
	r.broadcastRoomData()
	r.broadcastScores()
}

// --- 房间核心逻辑 ---

// AddPlayer 添加一个玩家到房间
func (r *Room) AddPlayer(conn network.Connection, playerName string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.members = append(r.members, member{Conn: conn, Name: playerName})
	r.broadcastRoomData()
}

// RemovePlayer 从房间移除一个玩家. A running game continues without them, and
// ownership passes to the next player in join order.
func (r *Room) RemovePlayer(playerName string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	index := r.indexOf(playerName)
	if index == -1 {
		return
	}

	r.members = append(r.members[:index], r.members[index+1:]...)
	if playing, ok := r.StateMachine.GetCurrentState().(*state.PlayingState); ok {
		playing.Game.RemovePlayer(playerName)
	}
	if len(r.members) == 0 {
		r.stopGame()
		return
	}
	if r.owner == playerName {
		r.owner = r.members[0].Name
	}
	r.broadcastRoomData()
}

// StartGame starts a game for every member. It reports false, changing nothing,
// when the caller is not the owner, a game is running, or the grid is out of bounds.
func (r *Room) StartGame(playerName string, config models.GameConfig) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.StateMachine.GetCurrentState().GetID() == models.Playing ||
		r.owner != playerName ||
		config.Validate() != nil {
		return false
	}

	names := make([]string, 0, len(r.members))
	for _, m := range r.members {
		names = append(names, m.Name)
	}

	var store game.ScoreStore
	if r.deps.Store != nil {
		store = r.deps.Store
	}
	g := game.New(names, config.Freeze(), store, r.deps.GameOptions)
	g.AddListener(r.onGameUpdate)

	// The loop starts in OnEnter; it cannot report back before the lock is released.
	if err := r.StateMachine.ChangeState(state.NewPlayingState(r, g)); err != nil {
		logger.Log.Errorf("房间 %s 开始游戏失败: %v", r.Name, err)
		return false
	}

	if r.deps.Observer != nil {
		r.deps.Observer.GameStarted()
	}
	r.broadcastRoomData()
	return true
}

// DoAction 转发玩家操作，只有游戏进行中才生效
func (r *Room) DoAction(playerName string, action models.ActionType) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.StateMachine.GetCurrentState().HandleAction(playerName, action)
}

// RoomData 房间的公开信息
func (r *Room) RoomData() models.RoomData {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.roomData()
}

func (r *Room) roomData() models.RoomData {
	names := make([]string, 0, len(r.members))
	for _, m := range r.members {
		names = append(names, m.Name)
	}
	return models.RoomData{
		GameState:   r.StateMachine.GetCurrentState().GetID(),
		OwnerName:   r.owner,
		PlayerNames: names,
	}
}

func (r *Room) GameState() models.GameState {
	return r.StateMachine.GetCurrentState().GetID()
}

func (r *Room) IsPlaying() bool {
	return r.GameState() == models.Playing
}

func (r *Room) HasPlayer(playerName string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.indexOf(playerName) != -1
}

func (r *Room) IsEmpty() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.members) == 0
}

// Close stops a running game without recording scores.
func (r *Room) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stopGame()
}

func (r *Room) stopGame() {
	playing, ok := r.StateMachine.GetCurrentState().(*state.PlayingState)
	if !ok {
		return
	}
	if err := r.StateMachine.ChangeState(state.NewEndedState(r)); err != nil {
		logger.Log.Errorf("房间 %s 关闭失败: %v", r.Name, err)
		return
	}
	if r.deps.Observer != nil {
		r.deps.Observer.GameFinished(playing.Game.Mode(), false)
	}
}

func (r *Room) indexOf(playerName string) int {
	for i, m := range r.members {
		if m.Name == playerName {
			return i
		}
	}
	return -1
}

func (r *Room) connections() []network.Connection {
	conns := make([]network.Connection, 0, len(r.members))
	for _, m := range r.members {
		conns = append(conns, m.Conn)
	}
	return conns
}

// onGameUpdate sends every member their own view of the tick.
func (r *Room) onGameUpdate(snapshot game.Snapshot) {
	r.mutex.Lock()
	members := append([]member(nil), r.members...)
	r.mutex.Unlock()

	for _, m := range members {
		data, ok := snapshot[m.Name]
		if !ok {
			continue
		}
		if err := r.deps.Broadcaster.Send(m.Conn, network.MsgTypeUpdateGameData, data); err != nil {
			logger.Log.Debugf("房间 %s 发送游戏数据给 %s 失败: %v", r.Name, m.Name, err)
		}
	}
}

// broadcastRoomData and broadcastScores expect r.mutex to be held, which keeps
// members seeing updates in the order the room changed.
func (r *Room) broadcastRoomData() {
	r.deps.Broadcaster.Broadcast(r.connections(), network.MsgTypeUpdateRoomData, r.roomData())
}

func (r *Room) broadcastScores() {
	if r.deps.Store == nil {
		return
	}
	scores, err := r.deps.Store.AllScores()
	if err != nil {
		logger.Log.Errorf("房间 %s 读取分数失败: %v", r.Name, err)
		return
	}
	board := services.TopScores(scores, services.BoardPerMode, services.BoardSize)
	r.deps.Broadcaster.Broadcast(r.connections(), network.MsgTypeUpdateScores, board)
}
