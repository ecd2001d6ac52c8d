package logger

import (
	"go.uber.org/zap"
)

// Log is a no-op until Init runs, so packages and tests can log unconditionally.
var Log = zap.NewNop().Sugar()

func Init(debug bool) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
