// persistence/memory.go
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/znichola/red-tetris/logger"
	"github.com/znichola/red-tetris/models"
)

type scoreKey struct {
	player string
	mode   string
}

// MemoryStore keeps scores in memory and, when it has a file, mirrors every
// change to it as JSON.
type MemoryStore struct {
	path   string
	scores map[scoreKey]models.ScoreRecord
	now    func() time.Time
	mutex  sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores: make(map[scoreKey]models.ScoreRecord),
		now:    time.Now,
	}
}

// NewFileStore loads path if it exists. A file that cannot be read or parsed
// is left untouched and the store stays in memory only.
func NewFileStore(path string) *MemoryStore {
	s := NewMemoryStore()

	abs, err := filepath.Abs(path)
	if err != nil {
		logger.Log.Warnf("score file %s: %v, using in memory store", path, err)
		return s
	}

	data, err := os.ReadFile(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Log.Infof("score file %s not found, it will be created", abs)
		s.path = abs
		return s
	case err != nil:
		logger.Log.Warnf("read score file %s: %v, using in memory store", abs, err)
		return s
	}

	var records []models.ScoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Log.Warnf("parse score file %s: %v, using in memory store", abs, err)
		return s
	}
	for _, r := range records {
		s.merge(r)
	}
	s.path = abs
	logger.Log.Infof("score store loaded %d records from %s", len(s.scores), abs)
	return s
}

// Persistent reports whether changes are written to disk.
func (s *MemoryStore) Persistent() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.path != ""
}

func (s *MemoryStore) PushPlayerScores(scores []models.PlayerScore, mode, winner string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for _, score := range scores {
		s.merge(models.ScoreRecord{
			Player:   score.Name,
			Score:    score.Score,
			Time:     now,
			GameMode: mode,
			Winner:   winner != "" && score.Name == winner,
		})
	}
	return s.save()
}

func (s *MemoryStore) AllScores() ([]models.ScoreRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.records(), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// merge keeps r if it beats the stored score for the same player and mode.
func (s *MemoryStore) merge(r models.ScoreRecord) {
	key := scoreKey{player: r.Player, mode: r.GameMode}
	if old, ok := s.scores[key]; ok && old.Score >= r.Score {
		return
	}
	s.scores[key] = r
}

func (s *MemoryStore) records() []models.ScoreRecord {
	records := make([]models.ScoreRecord, 0, len(s.scores))
	for _, r := range s.scores {
		records = append(records, r)
	}
	sortRecords(records)
	return records
}

// save 写临时文件再重命名，避免留下半个文件
func (s *MemoryStore) save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.records(), "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write score file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace score file: %w", err)
	}
	return nil
}
