package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/znichola/red-tetris/logger"
	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	rpc      *rpc.Server
}

// NewServer listens on addr and registers the score service.
func NewServer(addr string, scores *services.ScoreService) (*Server, error) {
	server := rpc.NewServer()
	if err := server.RegisterName("ScoreService", NewScoreService(scores)); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		rpc:      server,
	}, nil
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start begins listening for RPC requests. It blocks until Stop.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.listener.Addr())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// ScoreService is the struct that exposes RPC methods.
// Methods follow the net/rpc signature: exported arguments, pointer reply, error result.
type ScoreService struct {
	scores *services.ScoreService
}

func NewScoreService(scores *services.ScoreService) *ScoreService {
	return &ScoreService{scores: scores}
}

type LeaderboardArgs struct {
	Mode  string
	Limit int
}

type LeaderboardReply struct {
	Records []models.ScoreRecord
}

func (s *ScoreService) GetLeaderboard(args *LeaderboardArgs, reply *LeaderboardReply) error {
	records, err := s.scores.Leaderboard(args.Mode, args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}

type PlayerStatsArgs struct {
	Player string
}

type PlayerStatsReply struct {
	Stats models.PlayerStats
}

func (s *ScoreService) GetPlayerStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	stats, err := s.scores.PlayerStats(args.Player)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}
