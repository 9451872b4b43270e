package httpapi

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s error = %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var reply map[string]any
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply error = %v", err)
	}
	return reply
}

func TestWSVoiceCommand(t *testing.T) {
	ts, _, _ := newTestServer(t, "wsvoice")
	conn := dialWS(t, ts.URL)

	if err := conn.WriteJSON(map[string]string{
		"type":       "voice_command",
		"transcript": "tell gambit good job",
	}); err != nil {
		t.Fatalf("write error = %v", err)
	}

	reply := readReply(t, conn)
	if reply["type"] != "route_result" {
		t.Fatalf("type = %v, want route_result", reply["type"])
	}
	if reply["agent"] != "gambit" {
		t.Fatalf("agent = %v, want gambit", reply["agent"])
	}
	if reply["message"] != "Routing to gambit: tell gambit good job" {
		t.Fatalf("message = %v, want routed wrapper", reply["message"])
	}
}

func TestWSTTSRequest(t *testing.T) {
	ts, mock, _ := newTestServer(t, "wstts")
	conn := dialWS(t, ts.URL)

	if err := conn.WriteJSON(map[string]string{
		"type":  "tts_request",
		"text":  "hello",
		"agent": "beast",
	}); err != nil {
		t.Fatalf("write error = %v", err)
	}

	reply := readReply(t, conn)
	if reply["type"] != "audio_response" {
		t.Fatalf("type = %v, want audio_response", reply["type"])
	}
	audio, err := base64.StdEncoding.DecodeString(reply["audio"].(string))
	if err != nil {
		t.Fatalf("decode audio: %v", err)
	}
	if string(audio) != "FAKEAUDIO:hello" {
		t.Fatalf("audio = %q, want mock audio", audio)
	}
	if mock.LastRequest.Agent != "beast" {
		t.Fatalf("LastRequest.Agent = %q, want %q", mock.LastRequest.Agent, "beast")
	}
}

func TestWSMalformedMessageKeepsConnection(t *testing.T) {
	ts, _, _ := newTestServer(t, "wsbad")
	conn := dialWS(t, ts.URL)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("this is not json")); err != nil {
		t.Fatalf("write error = %v", err)
	}

	reply := readReply(t, conn)
	if reply["type"] != "error" {
		t.Fatalf("type = %v, want error", reply["type"])
	}
	if reply["message"] != "Processing failed" {
		t.Fatalf("message = %v, want %q", reply["message"], "Processing failed")
	}

	// The connection survives: a valid message afterward still gets a
	// correct reply.
	if err := conn.WriteJSON(map[string]string{
		"type":       "voice_command",
		"transcript": "ping wolverine",
	}); err != nil {
		t.Fatalf("write after error = %v", err)
	}
	reply = readReply(t, conn)
	if reply["type"] != "route_result" || reply["agent"] != "wolverine" {
		t.Fatalf("reply = %+v, want wolverine route_result", reply)
	}
}

func TestWSUnknownTypeGetsErrorReply(t *testing.T) {
	ts, _, _ := newTestServer(t, "wsunknown")
	conn := dialWS(t, ts.URL)

	if err := conn.WriteJSON(map[string]string{"type": "subscribe"}); err != nil {
		t.Fatalf("write error = %v", err)
	}
	reply := readReply(t, conn)
	if reply["type"] != "error" {
		t.Fatalf("type = %v, want error", reply["type"])
	}
}

func TestNotifyBroadcastsToConnectedClients(t *testing.T) {
	ts, _, h := newTestServer(t, "wsnotify")

	connA := dialWS(t, ts.URL)
	connB := dialWS(t, ts.URL)
	waitForClients(t, h.Count, 2)

	res := postJSON(t, ts.URL+"/api/notify", map[string]any{
		"type":      "status",
		"agent":     "gambit",
		"message":   "on the move",
		"timestamp": 1700000000,
	})
	if res.StatusCode != 200 {
		t.Fatalf("notify status = %d, want 200", res.StatusCode)
	}

	for i, conn := range []*websocket.Conn{connA, connB} {
		reply := readReply(t, conn)
		if reply["type"] != "notification" {
			t.Fatalf("client %d type = %v, want notification", i, reply["type"])
		}
		if reply["agent"] != "gambit" || reply["message"] != "on the move" {
			t.Fatalf("client %d payload = %+v, want gambit/on the move", i, reply)
		}
		audio, err := base64.StdEncoding.DecodeString(reply["audio"].(string))
		if err != nil {
			t.Fatalf("client %d decode audio: %v", i, err)
		}
		if string(audio) != "FAKEAUDIO:gambit: on the move" {
			t.Fatalf("client %d audio = %q, want status audio", i, audio)
		}
	}
}

func TestNotifySkipsDisconnectedClient(t *testing.T) {
	ts, _, h := newTestServer(t, "wsnotifygone")

	connA := dialWS(t, ts.URL)
	connB := dialWS(t, ts.URL)
	waitForClients(t, h.Count, 2)

	connB.Close()
	waitForClients(t, h.Count, 1)

	res := postJSON(t, ts.URL+"/api/notify", map[string]any{
		"type":      "status",
		"agent":     "beast",
		"message":   "still here",
		"timestamp": 1700000001,
	})
	if res.StatusCode != 200 {
		t.Fatalf("notify status = %d, want 200", res.StatusCode)
	}

	reply := readReply(t, connA)
	if reply["type"] != "notification" || reply["agent"] != "beast" {
		t.Fatalf("reply = %+v, want beast notification", reply)
	}
}

func waitForClients(t *testing.T, count func() int, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", count(), want)
}
