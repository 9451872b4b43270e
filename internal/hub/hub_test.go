package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// startHubServer upgrades every request, registers the client, and removes
// it once its read loop errors (i.e. the peer went away).
func startHubServer(t *testing.T, h *Hub, removed chan<- struct{}) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn)
		h.Add(client)
		go func() {
			defer conn.Close()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					h.Remove(client)
					if removed != nil {
						removed <- struct{}{}
					}
					return
				}
			}
		}()
	}))
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastDeliversToAllOpenConnections(t *testing.T) {
	h := New()
	ts := startHubServer(t, h, nil)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dial(t, ts)
	}
	waitForCount(t, h, 3)

	delivered, skipped := h.Broadcast(map[string]string{"type": "notification", "message": "hi"})
	if delivered != 3 || skipped != 0 {
		t.Fatalf("Broadcast() = (%d, %d), want (3, 0)", delivered, skipped)
	}

	for i, conn := range conns {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got map[string]string
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("client %d read error = %v", i, err)
		}
		if got["message"] != "hi" {
			t.Fatalf("client %d message = %q, want %q", i, got["message"], "hi")
		}
	}
}

func TestBroadcastSkipsDisconnectedClient(t *testing.T) {
	h := New()
	removed := make(chan struct{}, 4)
	ts := startHubServer(t, h, removed)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dial(t, ts)
	}
	waitForCount(t, h, 3)

	conns[1].Close()
	select {
	case <-removed:
	case <-time.After(2 * time.Second):
		t.Fatalf("disconnected client was not removed")
	}

	delivered, _ := h.Broadcast(map[string]string{"type": "notification", "message": "still here"})
	if delivered != 2 {
		t.Fatalf("Broadcast() delivered = %d, want 2", delivered)
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	h := New()
	if delivered, _ := h.Broadcast(map[string]string{"type": "notification"}); delivered != 0 {
		t.Fatalf("Broadcast() delivered = %d, want 0", delivered)
	}
}

func waitForCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hub count = %d, want %d", h.Count(), want)
}
