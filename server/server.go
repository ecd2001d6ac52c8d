package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/znichola/red-tetris/broadcast"
	"github.com/znichola/red-tetris/game"
	"github.com/znichola/red-tetris/logger"
	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/monitor"
	"github.com/znichola/red-tetris/network"
	"github.com/znichola/red-tetris/persistence"
	"github.com/znichola/red-tetris/room"
	gameserver_rpc "github.com/znichola/red-tetris/rpc"
	"github.com/znichola/red-tetris/services"
	"github.com/znichola/red-tetris/session"
	"github.com/znichola/red-tetris/timer"
)

type Options struct {
	HTTPAddress       string
	RPCAddress        string
	GRPCAddress       string
	IdleTimeout       time.Duration
	HeartbeatInterval time.Duration
	Game              game.Options
}

type GameServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	httpServer     *http.Server
	roomManager    *room.Manager
	sessionManager *session.Manager
	scoreService   *services.ScoreService
	broadcaster    *broadcast.RoomBroadcaster
	store          persistence.ScoreStore
	monitor        *monitor.Monitor
	timers         *timer.TimerManager
	rpcServer      *gameserver_rpc.Server
	healthServer   *gameserver_rpc.HealthServer
	shutdownOnce   sync.Once
}

func NewGameServer(opts Options, store persistence.ScoreStore, mon *monitor.Monitor) (*GameServer, error) {
	s := &GameServer{
		opts:           opts,
		sessionManager: session.NewManager(),
		scoreService:   services.NewScoreService(store),
		store:          store,
		monitor:        mon,
		timers:         timer.NewTimerManager(100 * time.Millisecond),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(mon)
	s.roomManager = room.NewRoomManager(room.Deps{
		Broadcaster: s.broadcaster,
		Store:       store,
		Observer:    mon,
		GameOptions: opts.Game,
	})

	// 初始化RPC服务器
	rpcServer, err := gameserver_rpc.NewServer(opts.RPCAddress, s.scoreService)
	if err != nil {
		s.timers.Stop()
		return nil, err
	}
	s.rpcServer = rpcServer

	healthServer, err := gameserver_rpc.NewHealthServer(opts.GRPCAddress)
	if err != nil {
		s.timers.Stop()
		rpcServer.Stop()
		return nil, err
	}
	s.healthServer = healthServer

	s.httpServer = &http.Server{Addr: opts.HTTPAddress, Handler: s.Handler()}
	return s, nil
}

// Handler routes the websocket endpoint and the score API.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{room}/{player}", s.handleWebSocket)
	mux.HandleFunc("GET /api/scores", s.handleScores)
	mux.HandleFunc("GET /api/players/{player}", s.handlePlayerStats)
	return mux
}

// Start blocks until the HTTP server stops. Shutdown makes it return nil.
func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	go s.healthServer.Start()

	if s.opts.IdleTimeout > 0 {
		s.timers.AddTimer(s.opts.IdleTimeout, s.opts.IdleTimeout/2, s.reapIdleSessions)
	}
	s.timers.AddTimer(time.Second, time.Second, func() {
		s.monitor.SetActiveRooms(s.roomManager.Count())
	})

	s.healthServer.SetServing(true)
	logger.Log.Infof("Game server listening on %s", s.opts.HTTPAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.healthServer.SetServing(false)
		err = s.httpServer.Shutdown(ctx)

		// hijacked websocket connections are not closed by http.Server
		for _, sess := range s.sessionManager.All() {
			sess.Close()
		}
		s.roomManager.CloseAll()

		s.timers.Stop()
		s.rpcServer.Stop()
		s.healthServer.Stop()
	})
	return err
}

func (s *GameServer) reapIdleSessions() {
	cutoff := time.Now().Add(-s.opts.IdleTimeout)
	for _, sess := range s.sessionManager.Idle(cutoff) {
		logger.Log.Infof("Closing idle session %s (%s in %s)", sess.GetID(), sess.PlayerName, sess.RoomName)
		// 读循环会因此退出并完成清理
		sess.Close()
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomName, playerName := r.PathValue("room"), r.PathValue("player")
	codec := network.CodecByName(r.URL.Query().Get("codec"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn, codec), roomName, playerName)
}

func (s *GameServer) handleConnection(conn network.Connection, roomName, playerName string) {
	if s.opts.HeartbeatInterval > 0 {
		conn.SetHeartbeat(s.opts.HeartbeatInterval)
	}

	seat, ok := s.roomManager.TryAddPlayer(conn, roomName, playerName)
	if !ok {
		logger.Log.Infof("Rejected %q in room %q from %s", playerName, roomName, conn.RemoteAddr())
		conn.Close()
		return
	}

	sess := session.NewSession(uuid.New().String(), conn, roomName, playerName)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()
	logger.Log.Infof("%s joined room %s from %s, session ID: %s", playerName, roomName, conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("%s left room %s, session ID: %s", playerName, roomName, sess.GetID())
		seat.Disconnect()
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		conn.Close()
	}()

	s.sendScores(conn)

	for {
		packet, err := conn.ReadPacket()
		if err != nil {
			return
		}
		start := time.Now()
		sess.Touch()
		s.monitor.IncMessagesReceived()
		s.handlePacket(sess, seat, packet)
		s.monitor.ObserveMessageLatency(time.Since(start))
	}
}

func (s *GameServer) handlePacket(sess *session.Session, seat *room.Seat, packet *network.Packet) {
	codec := sess.Conn.Codec()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		if err := s.broadcaster.Send(sess.Conn, network.MsgTypeHeartbeat, struct{}{}); err != nil {
			logger.Log.Debugf("heartbeat reply to %s: %v", sess.GetID(), err)
		}
	case network.MsgTypeStartGame:
		// 缺省字段保留默认配置
		config := models.DefaultGameConfig()
		if len(packet.Data) > 0 {
			if err := codec.Unmarshal(packet.Data, &config); err != nil {
				logger.Log.Debugf("Session %s sent a bad game config: %v", sess.GetID(), err)
				return
			}
		}
		if !seat.StartGame(config) {
			logger.Log.Debugf("Session %s could not start a game in %s", sess.GetID(), sess.RoomName)
		}
	case network.MsgTypeGameAction:
		var payload any
		if err := codec.Unmarshal(packet.Data, &payload); err != nil {
			return
		}
		seat.GameAction(payload)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) sendScores(conn network.Connection) {
	if s.store == nil {
		return
	}
	scores, err := s.scoreService.Board()
	if err != nil {
		logger.Log.Errorf("load scores: %v", err)
		return
	}
	if err := s.broadcaster.Send(conn, network.MsgTypeUpdateScores, scores); err != nil {
		logger.Log.Debugf("send scores to %s: %v", conn.RemoteAddr(), err)
	}
}

func (s *GameServer) handleScores(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.scoreService.Leaderboard(r.URL.Query().Get("mode"), limit)
	if err != nil {
		logger.Log.Errorf("leaderboard: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

func (s *GameServer) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.scoreService.PlayerStats(r.PathValue("player"))
	if errors.Is(err, persistence.ErrRecordNotFound) {
		http.Error(w, "player not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log.Errorf("player stats: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Debugf("write response: %v", err)
	}
}
