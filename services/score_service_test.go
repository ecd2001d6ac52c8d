package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/network"
	"github.com/znichola/red-tetris/persistence"
)

type MockScoreReader struct {
	records []models.ScoreRecord
	err     error
}

func (m *MockScoreReader) AllScores() ([]models.ScoreRecord, error) {
	return m.records, m.err
}

func sampleRecords() []models.ScoreRecord {
	return []models.ScoreRecord{
		{Player: "bob", Score: 900, GameMode: "battle-classic", Winner: true},
		{Player: "alice", Score: 100, GameMode: "classic"},
		{Player: "carol", Score: 60, GameMode: "classic"},
		{Player: "alice", Score: 12, GameMode: "battle-classic"},
	}
}

func TestLeaderboard(t *testing.T) {
	svc := NewScoreService(&MockScoreReader{records: sampleRecords()})

	all, err := svc.Leaderboard("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	classic, err := svc.Leaderboard("classic", 0)
	require.NoError(t, err)
	require.Len(t, classic, 2)
	assert.Equal(t, "alice", classic[0].Player)
	assert.Equal(t, "carol", classic[1].Player)

	top, err := svc.Leaderboard("", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "bob", top[0].Player)

	none, err := svc.Leaderboard("invisible", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPlayerStats(t *testing.T) {
	svc := NewScoreService(&MockScoreReader{records: sampleRecords()})

	stats, err := svc.PlayerStats("alice")
	require.NoError(t, err)
	assert.Equal(t, models.PlayerStats{
		Player:    "alice",
		Records:   2,
		Wins:      0,
		BestScore: 100,
		Modes:     []string{"battle-classic", "classic"},
	}, stats)

	stats, err = svc.PlayerStats("bob")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Wins)

	_, err = svc.PlayerStats("nobody")
	assert.ErrorIs(t, err, persistence.ErrRecordNotFound)
}

func TestModes(t *testing.T) {
	svc := NewScoreService(&MockScoreReader{records: sampleRecords()})
	modes, err := svc.Modes()
	require.NoError(t, err)
	assert.Equal(t, []string{"battle-classic", "classic"}, modes)
}

func TestStoreErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewScoreService(&MockScoreReader{err: boom})

	_, err := svc.Leaderboard("", 0)
	assert.ErrorIs(t, err, boom)
	_, err = svc.PlayerStats("alice")
	assert.ErrorIs(t, err, boom)
	_, err = svc.Modes()
	assert.ErrorIs(t, err, boom)
	_, err = svc.Board()
	assert.ErrorIs(t, err, boom)
}

func TestTopScores(t *testing.T) {
	records := []models.ScoreRecord{
		{Player: "carol", Score: 5, GameMode: "classic"},
		{Player: "alice", Score: 50, GameMode: "classic"},
		{Player: "bob", Score: 40, GameMode: "classic"},
		{Player: "dave", Score: 70, GameMode: "invisible"},
		{Player: "erin", Score: 40, GameMode: "invisible"},
	}

	top := TopScores(records, 2, 0)
	require.Len(t, top, 4)
	assert.Equal(t, []string{"dave", "alice", "bob", "erin"},
		[]string{top[0].Player, top[1].Player, top[2].Player, top[3].Player})

	assert.Len(t, TopScores(records, 2, 3), 3)
	assert.Len(t, TopScores(records, 0, 0), len(records))
	assert.Equal(t, "carol", records[0].Player, "input is not reordered")
}

func TestBoardFitsInOnePacket(t *testing.T) {
	var records []models.ScoreRecord
	for m := 0; m < 300; m++ {
		for p := 0; p < 20; p++ {
			records = append(records, models.ScoreRecord{
				Player:   fmt.Sprintf("player-with-a-rather-long-name-%02d", p),
				Score:    m*100 + p,
				GameMode: fmt.Sprintf("battle-heavy-powerup-%03d", m),
				Winner:   p == 0,
			})
		}
	}

	board, err := NewScoreService(&MockScoreReader{records: records}).Board()
	require.NoError(t, err)
	require.Len(t, board, BoardSize)
	assert.Equal(t, 299*100+19, board[0].Score)

	for _, codec := range []network.Codec{network.JSONCodec{}, network.MsgpackCodec{}} {
		data, err := codec.Marshal(board)
		require.NoError(t, err)
		_, err = network.EncodePacket(network.MsgTypeUpdateScores, data)
		assert.NoError(t, err, codec.Name())
	}
}

func TestWithMemoryStore(t *testing.T) {
	store := persistence.NewMemoryStore()
	require.NoError(t, store.PushPlayerScores([]models.PlayerScore{
		{Name: "alice", Score: 30},
		{Name: "bob", Score: 20},
	}, "battle-classic", "alice"))

	svc := NewScoreService(store)
	board, err := svc.Leaderboard("battle-classic", 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "alice", board[0].Player)
	assert.True(t, board[0].Winner)
}
