package session

import (
	"net"
	"testing"
	"time"

	"github.com/znichola/red-tetris/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	closed bool
}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Codec() network.Codec                 { return network.JSONCodec{} }
func (m *MockConnection) Close() error                         { m.closed = true; return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{}, "lobby", "alice")

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_Idle(t *testing.T) {
	manager := NewManager()

	stale := NewSession("stale", &MockConnection{}, "lobby", "alice")
	stale.lastActive = time.Now().Add(-time.Hour)
	fresh := NewSession("fresh", &MockConnection{}, "lobby", "bob")
	manager.Add(stale)
	manager.Add(fresh)

	idle := manager.Idle(time.Now().Add(-time.Minute))
	if len(idle) != 1 || idle[0] != stale {
		t.Fatalf("Expected only the stale session, got %v", idle)
	}

	stale.Touch()
	if idle := manager.Idle(time.Now().Add(-time.Minute)); len(idle) != 0 {
		t.Errorf("Touch should make the session active again, got %d idle", len(idle))
	}
}

func TestManager_All(t *testing.T) {
	manager := NewManager()
	manager.Add(NewSession("a", &MockConnection{}, "lobby", "alice"))
	manager.Add(NewSession("b", &MockConnection{}, "other", "bob"))

	all := manager.All()
	if len(all) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(all))
	}
	manager.Remove("a")
	if len(all) != 2 {
		t.Error("All should return a copy")
	}
}

func TestSession_Close(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("test_session", conn, "lobby", "alice")

	if err := sess.Close(); err != nil {
		t.Fatalf("Close returned an error: %v", err)
	}
	if !conn.closed {
		t.Error("Close should close the underlying connection")
	}
	if sess.GetID() != "test_session" {
		t.Errorf("Expected ID test_session, got %s", sess.GetID())
	}
}
