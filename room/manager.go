package room

import (
	"sync"

	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/network"
)

// --- 房间管理器 ---

// Manager 管理所有房间，房间在第一个玩家加入时创建，最后一个玩家离开时删除
type Manager struct {
	rooms map[string]*Room
	deps  Deps
	mutex sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager(deps Deps) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		deps:  deps,
	}
}

// TryAddPlayer seats playerName in roomName, creating the room if needed. It
// fails when the name is taken in that room or the room is playing; the caller
// should then close the connection.
func (m *Manager) TryAddPlayer(conn network.Connection, roomName, playerName string) (*Seat, bool) {
	if roomName == "" || playerName == "" {
		return nil, false
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, exists := m.rooms[roomName]
	switch {
	case !exists:
		room = NewRoom(roomName, conn, playerName, m.deps)
		m.rooms[roomName] = room
	case room.HasPlayer(playerName) || room.IsPlaying():
		return nil, false
	default:
		room.AddPlayer(conn, playerName)
	}

	return &Seat{manager: m, room: room, PlayerName: playerName}, true
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(name string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[name]
	return room, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// CloseAll stops every running game, for shutdown.
func (m *Manager) CloseAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for name, room := range m.rooms {
		room.Close()
		delete(m.rooms, name)
	}
}

func (m *Manager) removePlayer(room *Room, playerName string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room.RemovePlayer(playerName)
	if room.IsEmpty() {
		room.Close()
		if m.rooms[room.Name] == room {
			delete(m.rooms, room.Name)
		}
	}
}

// Seat binds one connection's inbound events to its room.
type Seat struct {
	PlayerName string
	manager    *Manager
	room       *Room
	once       sync.Once
}

func (s *Seat) Room() *Room {
	return s.room
}

// StartGame asks the room to start a game; only the owner can.
func (s *Seat) StartGame(config models.GameConfig) bool {
	return s.room.StartGame(s.PlayerName, config)
}

// GameAction forwards a decoded GameAction payload. Non-numeric payloads are dropped.
func (s *Seat) GameAction(payload any) {
	action, ok := network.ActionFromPayload(payload)
	if !ok {
		return
	}
	s.room.DoAction(s.PlayerName, action)
}

// Disconnect leaves the room. Only the first call has an effect.
func (s *Seat) Disconnect() {
	s.once.Do(func() {
		s.manager.removePlayer(s.room, s.PlayerName)
	})
}
