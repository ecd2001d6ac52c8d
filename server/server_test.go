package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/znichola/red-tetris/game"
	"github.com/znichola/red-tetris/models"
	"github.com/znichola/red-tetris/monitor"
	"github.com/znichola/red-tetris/network"
	"github.com/znichola/red-tetris/persistence"
	"github.com/znichola/red-tetris/services"
)

type testServer struct {
	*GameServer
	http    *httptest.Server
	store   *persistence.MemoryStore
	monitor *monitor.Monitor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := persistence.NewMemoryStore()
	mon := monitor.NewMonitor("test")

	gs, err := NewGameServer(Options{
		RPCAddress:  "127.0.0.1:0",
		GRPCAddress: "127.0.0.1:0",
		Game:        game.Options{TickRate: 200, DropRate: 50, Seed: "42"},
	}, store, mon)
	require.NoError(t, err)

	ts := &testServer{GameServer: gs, http: httptest.NewServer(gs.Handler()), store: store, monitor: mon}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		gs.Shutdown(ctx)
		ts.http.Close()
	})
	return ts
}

func (ts *testServer) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readPacket(t *testing.T, conn *websocket.Conn) *network.Packet {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	packet, err := network.DecodePacket(data)
	require.NoError(t, err)
	return packet
}

// readUntil skips packets until one with msgID arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgID uint16) *network.Packet {
	t.Helper()
	for {
		if packet := readPacket(t, conn); packet.MsgID == msgID {
			return packet
		}
	}
}

func sendPacket(t *testing.T, conn *websocket.Conn, msgID uint16, codec network.Codec, v any) {
	t.Helper()
	data, err := codec.Marshal(v)
	require.NoError(t, err)
	packet, err := network.EncodePacket(msgID, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, packet))
}

func TestJoinSendsRoomDataAndScores(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.PushPlayerScores([]models.PlayerScore{{Name: "zoe", Score: 7}}, "classic", ""))

	conn := ts.dial(t, "/ws/lobby/alice")

	packet := readPacket(t, conn)
	require.Equal(t, uint16(network.MsgTypeUpdateRoomData), packet.MsgID)
	var data models.RoomData
	require.NoError(t, json.Unmarshal(packet.Data, &data))
	assert.Equal(t, models.RoomData{GameState: models.Pending, OwnerName: "alice", PlayerNames: []string{"alice"}}, data)

	packet = readPacket(t, conn)
	require.Equal(t, uint16(network.MsgTypeUpdateScores), packet.MsgID)
	var scores []models.ScoreRecord
	require.NoError(t, json.Unmarshal(packet.Data, &scores))
	require.Len(t, scores, 1)
	assert.Equal(t, "zoe", scores[0].Player)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(ts.monitor.Metrics().OnlinePlayers) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestJoinWithLargeScoreStore(t *testing.T) {
	ts := newTestServer(t)
	for _, mode := range []string{"classic", "invisible", "battle-classic"} {
		players := make([]models.PlayerScore, 500)
		for i := range players {
			players[i] = models.PlayerScore{Name: fmt.Sprintf("player-with-a-rather-long-name-%04d", i), Score: i}
		}
		require.NoError(t, ts.store.PushPlayerScores(players, mode, ""))
	}

	conn := ts.dial(t, "/ws/lobby/alice")
	packet := readUntil(t, conn, network.MsgTypeUpdateScores)

	var scores []models.ScoreRecord
	require.NoError(t, json.Unmarshal(packet.Data, &scores))
	require.Len(t, scores, 3*services.BoardPerMode)
	assert.Equal(t, 499, scores[0].Score)
	assert.Equal(t, "player-with-a-rather-long-name-0499", scores[0].Player)
}

func TestDuplicateNameIsRejected(t *testing.T) {
	ts := newTestServer(t)
	first := ts.dial(t, "/ws/lobby/alice")
	readPacket(t, first)

	second := ts.dial(t, "/ws/lobby/alice")
	require.NoError(t, second.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := second.ReadMessage()
	assert.Error(t, err, "the duplicate connection should be closed")
}

func TestSecondPlayerJoins(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.dial(t, "/ws/lobby/alice")
	readUntil(t, alice, network.MsgTypeUpdateScores)

	ts.dial(t, "/ws/lobby/bob")

	packet := readUntil(t, alice, network.MsgTypeUpdateRoomData)
	var data models.RoomData
	require.NoError(t, json.Unmarshal(packet.Data, &data))
	assert.Equal(t, []string{"alice", "bob"}, data.PlayerNames)
	assert.Equal(t, "alice", data.OwnerName)
}

func TestStartGameAndPlay(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "/ws/solo/alice")
	readUntil(t, conn, network.MsgTypeUpdateScores)

	sendPacket(t, conn, network.MsgTypeStartGame, network.JSONCodec{}, models.DefaultGameConfig())

	packet := readUntil(t, conn, network.MsgTypeUpdateRoomData)
	var data models.RoomData
	require.NoError(t, json.Unmarshal(packet.Data, &data))
	assert.Equal(t, models.Playing, data.GameState)

	packet = readUntil(t, conn, network.MsgTypeUpdateGameData)
	var gameData models.GameData
	require.NoError(t, json.Unmarshal(packet.Data, &gameData))
	assert.Len(t, gameData.Grid, 20)
	assert.Len(t, gameData.Grid[0], 10)
	assert.Contains(t, gameData.PlayerNameToSpectrum, "alice")

	sendPacket(t, conn, network.MsgTypeGameAction, network.JSONCodec{}, models.HardDrop)
	sendPacket(t, conn, network.MsgTypeGameAction, network.JSONCodec{}, "not an action")
	sendPacket(t, conn, network.MsgTypeHeartbeat, network.JSONCodec{}, struct{}{})
	readUntil(t, conn, network.MsgTypeHeartbeat)

	assert.Eventually(t, func() bool {
		return ts.monitor.RequestCount() >= 4
	}, time.Second, 10*time.Millisecond)
}

func TestMsgpackCodec(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "/ws/packed/alice?codec=msgpack")

	packet := readPacket(t, conn)
	require.Equal(t, uint16(network.MsgTypeUpdateRoomData), packet.MsgID)
	var data models.RoomData
	require.NoError(t, network.MsgpackCodec{}.Unmarshal(packet.Data, &data))
	assert.Equal(t, "alice", data.OwnerName)
	readUntil(t, conn, network.MsgTypeUpdateScores)

	config := models.DefaultGameConfig()
	config.GridDimensions.X = 8
	sendPacket(t, conn, network.MsgTypeStartGame, network.MsgpackCodec{}, config)

	packet = readUntil(t, conn, network.MsgTypeUpdateGameData)
	var gameData models.GameData
	require.NoError(t, network.MsgpackCodec{}.Unmarshal(packet.Data, &gameData))
	assert.Len(t, gameData.Grid[0], 8)
}

func TestScoresAPI(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.PushPlayerScores([]models.PlayerScore{
		{Name: "alice", Score: 30},
		{Name: "bob", Score: 20},
	}, "battle-classic", "alice"))
	require.NoError(t, ts.store.PushPlayerScores([]models.PlayerScore{{Name: "bob", Score: 90}}, "classic", ""))

	resp, err := http.Get(ts.http.URL + "/api/scores?mode=battle-classic&limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var records []models.ScoreRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "alice", records[0].Player)

	bad, err := http.Get(ts.http.URL + "/api/scores?limit=abc")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestPlayerStatsAPI(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.PushPlayerScores([]models.PlayerScore{{Name: "bob", Score: 90}}, "classic", ""))

	resp, err := http.Get(ts.http.URL + "/api/players/bob")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats models.PlayerStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 90, stats.BestScore)

	missing, err := http.Get(ts.http.URL + "/api/players/nobody")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
