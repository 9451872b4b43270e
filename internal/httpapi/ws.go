package httpapi

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/voxyz/voxyz/internal/hub"
	"github.com/voxyz/voxyz/internal/protocol"
	"github.com/voxyz/voxyz/internal/tts"
)

// processingFailed is the only error clients see over the socket. A
// malformed message never closes the connection.
var processingFailed = protocol.ErrorMessage{
	Type:    protocol.TypeError,
	Message: "Processing failed",
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := hub.NewClient(conn)
	s.hub.Add(client)
	s.metrics.ActiveConnections.Set(float64(s.hub.Count()))
	defer func() {
		s.hub.Remove(client)
		s.metrics.ActiveConnections.Set(float64(s.hub.Count()))
	}()

	conn.SetReadLimit(1 << 20)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply := s.handleFrame(r.Context(), data)
		if t, ok := messageTypeOf(reply); ok {
			s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
		}
		if err := client.SendJSON(reply); err != nil {
			return
		}
	}
}

// handleFrame parses one inbound text frame and dispatches it. Every frame
// produces exactly one reply; parse and handler failures collapse to the
// generic error message.
func (s *Server) handleFrame(ctx context.Context, data []byte) any {
	msg, err := protocol.ParseClientMessage(data)
	if err != nil {
		log.Printf("websocket message error: %v", err)
		return processingFailed
	}
	if t, ok := messageTypeOf(msg); ok {
		s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
	}
	return s.dispatch(ctx, msg)
}

// dispatch maps one parsed inbound message to its reply. Pure with respect
// to connection state, so it is testable without a live socket.
func (s *Server) dispatch(ctx context.Context, msg any) any {
	switch m := msg.(type) {
	case protocol.VoiceCommand:
		result, outcome := s.router.Route(ctx, m.Transcript)
		s.metrics.RouteRequests.WithLabelValues(string(outcome)).Inc()
		return protocol.RouteResult{
			Type:    protocol.TypeRouteResult,
			Agent:   result.Agent,
			Message: result.Message,
		}
	case protocol.TTSRequest:
		audio, err := s.synth.Synthesize(ctx, tts.Request{Text: m.Text, Agent: m.Agent})
		if err != nil {
			s.metrics.ProviderErrors.WithLabelValues("elevenlabs", "ws_tts").Inc()
			log.Printf("websocket tts error: %v", err)
			return processingFailed
		}
		return protocol.AudioResponse{
			Type:  protocol.TypeAudioResponse,
			Audio: base64.StdEncoding.EncodeToString(audio.AudioData),
		}
	default:
		return processingFailed
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.VoiceCommand:
		return m.Type, true
	case protocol.TTSRequest:
		return m.Type, true
	case protocol.RouteResult:
		return m.Type, true
	case protocol.AudioResponse:
		return m.Type, true
	case protocol.Notification:
		return m.Type, true
	case protocol.ErrorMessage:
		return m.Type, true
	default:
		return "", false
	}
}
