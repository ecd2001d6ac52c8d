// services/score_service.go
package services

import (
	"sort"

	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/persistence"
)

// ScoreReader is the read side of a score store.
type ScoreReader interface {
	AllScores() ([]models.ScoreRecord, error)
}

type ScoreService struct {
	store ScoreReader
}

func NewScoreService(store ScoreReader) *ScoreService {
	return &ScoreService{store: store}
}

// Leaderboard returns the best records of mode, or of every mode when mode is
// empty. A limit <= 0 means no limit.
func (s *ScoreService) Leaderboard(mode string, limit int) ([]models.ScoreRecord, error) {
	records, err := s.store.AllScores()
	if err != nil {
		return nil, err
	}

	result := make([]models.ScoreRecord, 0, len(records))
	for _, r := range records {
		if mode != "" && r.GameMode != mode {
			continue
		}
		result = append(result, r)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// PlayerStats 汇总一个玩家在所有模式下的记录
func (s *ScoreService) PlayerStats(name string) (models.PlayerStats, error) {
	records, err := s.store.AllScores()
	if err != nil {
		return models.PlayerStats{}, err
	}

	stats := models.PlayerStats{Player: name, Modes: []string{}}
	for _, r := range records {
		if r.Player != name {
			continue
		}
		stats.Records++
		if r.Winner {
			stats.Wins++
		}
		if stats.Records == 1 || r.Score > stats.BestScore {
			stats.BestScore = r.Score
		}
		stats.Modes = append(stats.Modes, r.GameMode)
	}
	if stats.Records == 0 {
		return models.PlayerStats{}, persistence.ErrRecordNotFound
	}
	sort.Strings(stats.Modes)
	return stats, nil
}

// Modes lists every game mode with at least one record.
func (s *ScoreService) Modes() ([]string, error) {
	records, err := s.store.AllScores()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	modes := []string{}
	for _, r := range records {
		if !seen[r.GameMode] {
			seen[r.GameMode] = true
			modes = append(modes, r.GameMode)
		}
	}
	sort.Strings(modes)
	return modes, nil
}

// Limits of the score board sent with MsgTypeUpdateScores. A packet carries
// at most 65535 bytes of payload.
const (
	BoardPerMode = 10
	BoardSize    = 100
)

// Board returns the score board pushed to clients.
func (s *ScoreService) Board() ([]models.ScoreRecord, error) {
	records, err := s.store.AllScores()
	if err != nil {
		return nil, err
	}
	return TopScores(records, BoardPerMode, BoardSize), nil
}

// TopScores keeps the best perMode records of each mode and at most total
// records overall, best first. Limits <= 0 mean no limit.
func TopScores(records []models.ScoreRecord, perMode, total int) []models.ScoreRecord {
	sorted := append([]models.ScoreRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Player != b.Player {
			return a.Player < b.Player
		}
		return a.GameMode < b.GameMode
	})

	perModeCount := make(map[string]int)
	result := make([]models.ScoreRecord, 0, len(sorted))
	for _, r := range sorted {
		if total > 0 && len(result) == total {
			break
		}
		if perMode > 0 && perModeCount[r.GameMode] == perMode {
			continue
		}
		perModeCount[r.GameMode]++
		result = append(result, r)
	}
	return result
}
