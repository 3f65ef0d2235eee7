package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/gridpath/pathfind/search"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub register channels are nil")
	}
	if hub.logger == nil {
		t.Error("Hub logger is nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil)

	client := &Client{
		hub:       hub,
		sessionID: "Test-Session",
		send:      make(chan []byte, 256),
	}

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered under the lower-cased session ID")
	}
	if got := hub.ClientCount("TEST-SESSION"); got != 1 {
		t.Errorf("Expected 1 client in session, got %d", got)
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(nil)

	client := &Client{
		hub:       hub,
		sessionID: "test-session",
		send:      make(chan []byte, 256),
	}

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Empty session was not removed")
	}

	if _, ok := <-client.send; ok {
		t.Error("Client send channel was not closed")
	}

	// A second unregister must not panic on the closed channel
	hub.unregisterClient(client)
}

func TestHubMultipleClients(t *testing.T) {
	hub := NewHub(nil)

	client1 := &Client{hub: hub, sessionID: "session1", send: make(chan []byte, 256)}
	client2 := &Client{hub: hub, sessionID: "session1", send: make(chan []byte, 256)}
	client3 := &Client{hub: hub, sessionID: "session2", send: make(chan []byte, 256)}

	hub.registerClient(client1)
	hub.registerClient(client2)
	hub.registerClient(client3)

	if got := hub.ClientCount("session1"); got != 2 {
		t.Errorf("Expected 2 clients in session1, got %d", got)
	}
	if got := hub.ClientCount("session2"); got != 1 {
		t.Errorf("Expected 1 client in session2, got %d", got)
	}
}

func TestBroadcastMessageOnlyReachesSession(t *testing.T) {
	hub := NewHub(nil)

	client1 := &Client{hub: hub, sessionID: "session1", send: make(chan []byte, 256)}
	client2 := &Client{hub: hub, sessionID: "session2", send: make(chan []byte, 256)}
	hub.registerClient(client1)
	hub.registerClient(client2)

	hub.broadcastMessage(&Message{SessionID: "SESSION1", Event: EventStep})

	select {
	case data := <-client1.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Failed to decode message: %v", err)
		}
		if msg.Event != EventStep {
			t.Errorf("Expected event %q, got %q", EventStep, msg.Event)
		}
	default:
		t.Error("session1 client did not receive the message")
	}

	select {
	case <-client2.send:
		t.Error("session2 client received a message for session1")
	default:
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub(nil)

	slow := &Client{hub: hub, sessionID: "s", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "s", Event: EventSnapshot})

	if got := hub.ClientCount("s"); got != 0 {
		t.Errorf("Expected slow client to be dropped, got %d clients", got)
	}
}

func TestBroadcastSnapshotQueuesMessage(t *testing.T) {
	hub := NewHub(nil)

	snap := &search.Snapshot{Rows: 2, Cols: 2, State: search.StateRunning.String()}
	hub.BroadcastSnapshot("abc", "", snap)

	select {
	case msg := <-hub.broadcast:
		if msg.SessionID != "abc" {
			t.Errorf("Expected session abc, got %s", msg.SessionID)
		}
		if msg.Event != EventSnapshot {
			t.Errorf("Expected default event %q, got %q", EventSnapshot, msg.Event)
		}
		if msg.Snapshot != snap {
			t.Error("Snapshot was not attached to the message")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for queued message")
	}
}

func TestBroadcastEventQueuesMessage(t *testing.T) {
	hub := NewHub(nil)

	hub.BroadcastEvent("abc", EventPause, map[string]string{"reason": "user"})

	select {
	case msg := <-hub.broadcast:
		if msg.Event != EventPause {
			t.Errorf("Expected event %q, got %q", EventPause, msg.Event)
		}
		if msg.Snapshot != nil {
			t.Error("Event message should not carry a snapshot")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for queued message")
	}
}

func TestServeWSDeliversSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=abc"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount("abc") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.BroadcastSnapshot("abc", EventStep, &search.Snapshot{
		Rows:  2,
		Cols:  2,
		State: search.StateRunning.String(),
		Steps: 1,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to decode message: %v", err)
	}
	if msg.Event != EventStep {
		t.Errorf("Expected event %q, got %q", EventStep, msg.Event)
	}
	if msg.Snapshot == nil || msg.Snapshot.Steps != 1 {
		t.Errorf("Expected snapshot with 1 step, got %+v", msg.Snapshot)
	}
}

func TestHubStoppedDoesNotBlockClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1), sessionID: "abc"}
	hub.register <- client
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	left := make(chan struct{})
	go func() {
		hub.leave(client)
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(2 * time.Second):
		t.Fatal("leave blocked after the hub stopped")
	}

	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed on stop")
	}

	t.Run("late connection is closed", func(t *testing.T) {
		served := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer close(served)
			hub.ServeWS(w, r, "late")
		}))
		defer server.Close()

		wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to dial: %v", err)
		}
		defer conn.Close()

		select {
		case <-served:
		case <-time.After(2 * time.Second):
			t.Fatal("ServeWS blocked after the hub stopped")
		}

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err == nil {
			t.Error("Expected the late connection to be closed")
		}
		if hub.ClientCount("late") != 0 {
			t.Error("Late client should not be registered")
		}
	})
}
