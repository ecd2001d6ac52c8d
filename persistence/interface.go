// persistence/interface.go
package persistence

import (
	"errors"
	"sort"

	"github.com/znichola/red-tetris/models"
)

// ScoreStore 分数存储接口。每个玩家每种模式只保留最高分
type ScoreStore interface {
	PushPlayerScores(scores []models.PlayerScore, mode, winner string) error
	AllScores() ([]models.ScoreRecord, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
)

// sortRecords orders records by score, best first.
func sortRecords(records []models.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Player != b.Player {
			return a.Player < b.Player
		}
		return a.GameMode < b.GameMode
	})
}
