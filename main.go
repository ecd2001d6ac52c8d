package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/znichola/red-tetris/config"
	"github.com/znichola/red-tetris/game"
	"github.com/znichola/red-tetris/logger"
	"github.com/znichola/red-tetris/monitor"
	"github.com/znichola/red-tetris/persistence"
	"github.com/znichola/red-tetris/server"
)

func openStore(cfg *config.Config) (persistence.ScoreStore, error) {
	pg := cfg.Database.Postgres
	switch cfg.Scores.Backend {
	case config.BackendMemory:
		return persistence.NewMemoryStore(), nil
	case config.BackendFile, "":
		return persistence.NewFileStore(cfg.Scores.File), nil
	case config.BackendGorm:
		db, err := persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.BackendPostgres:
		db, err := persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown score backend %q", cfg.Scores.Backend)
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Server.Debug)
	defer logger.Sync()

	store, err := openStore(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to open score store: %v", err)
	}
	defer store.Close()
	logger.Log.Infof("Score store: %s", cfg.Scores.Backend)

	mon := monitor.NewMonitor("red_tetris")
	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddress, Handler: mon.NewServeMux()}
	go func() {
		logger.Log.Infof("Metrics listening on %s", cfg.Server.MetricsAddress)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("Metrics server: %v", err)
		}
	}()

	// Initialize Game Server
	gameServer, err := server.NewGameServer(server.Options{
		HTTPAddress:       cfg.Server.HTTPAddress,
		RPCAddress:        cfg.Server.RPCAddress,
		GRPCAddress:       cfg.Server.GRPCAddress,
		IdleTimeout:       cfg.Game.SessionIdleTimeout,
		HeartbeatInterval: cfg.Game.HeartbeatInterval,
		Game: game.Options{
			TickRate: float64(cfg.Game.TickRate),
			DropRate: cfg.Game.DropRate,
		},
	}, store, mon)
	if err != nil {
		logger.Log.Fatalf("Failed to create server: %v", err)
	}

	errs := make(chan error, 1)
	go func() {
		errs <- gameServer.Start()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signals:
		logger.Log.Infof("Received %s, shutting down", sig)
	case err := <-errs:
		if err != nil {
			logger.Log.Errorf("Game server stopped: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gameServer.Shutdown(ctx); err != nil {
		logger.Log.Warnf("Game server shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Log.Warnf("Metrics server shutdown: %v", err)
	}
}
