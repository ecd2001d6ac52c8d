package network

import (
	"math"

	"github.com/znichola/red-tetris/models"
)

const (
	MsgTypeHeartbeat      = 1
	MsgTypeGameAction     = 201
	MsgTypeStartGame      = 202
	MsgTypeUpdateRoomData = 301
	MsgTypeUpdateGameData = 302
	MsgTypeUpdateScores   = 303
)

// ActionFromPayload reads a decoded GameAction payload. Only integral numbers
// are accepted; strings, objects and fractions are rejected.
func ActionFromPayload(v any) (models.ActionType, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	case uint64:
		if x > math.MaxInt32 {
			return 0, false
		}
		n = int64(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	default:
		return 0, false
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return models.ActionType(n), true
}

func fromFloat(f float64) (models.ActionType, bool) {
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return models.ActionType(f), true
}
