package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeVoiceCommand  MessageType = "voice_command"
	TypeTTSRequest    MessageType = "tts_request"
	TypeRouteResult   MessageType = "route_result"
	TypeAudioResponse MessageType = "audio_response"
	TypeNotification  MessageType = "notification"
	TypeError         MessageType = "error"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// VoiceCommand asks the relay to classify and route a transcript.
type VoiceCommand struct {
	Type       MessageType `json:"type"`
	Transcript string      `json:"transcript"`
}

// TTSRequest asks the relay to synthesize text in an agent's voice.
type TTSRequest struct {
	Type  MessageType `json:"type"`
	Text  string      `json:"text"`
	Agent string      `json:"agent,omitempty"`
}

// RouteResult answers a voice command with the routing decision.
type RouteResult struct {
	Type    MessageType `json:"type"`
	Agent   string      `json:"agent"`
	Message string      `json:"message"`
}

// AudioResponse answers a TTS request with base64-encoded audio.
type AudioResponse struct {
	Type  MessageType `json:"type"`
	Audio string      `json:"audio"`
}

// Notification is broadcast to every open connection when an agent reports
// status.
type Notification struct {
	Type    MessageType `json:"type"`
	Agent   string      `json:"agent"`
	Message string      `json:"message"`
	Audio   string      `json:"audio"`
}

// ErrorMessage reports a failed inbound message without closing the
// connection.
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// NotificationEvent arrives from an external caller via POST /api/notify.
type NotificationEvent struct {
	Type      string  `json:"type"`
	Agent     string  `json:"agent"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

// ParseClientMessage decodes one inbound text frame into a typed message.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeVoiceCommand:
		var msg VoiceCommand
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Transcript) == "" {
			return nil, errors.New("invalid voice_command: missing transcript")
		}
		return msg, nil
	case TypeTTSRequest:
		var msg TTSRequest
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid tts_request: missing text")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
