package protocol

import (
	"errors"
	"testing"
)

func TestParseVoiceCommand(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"voice_command","transcript":"tell gambit good job"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	cmd, ok := msg.(VoiceCommand)
	if !ok {
		t.Fatalf("message type = %T, want VoiceCommand", msg)
	}
	if cmd.Transcript != "tell gambit good job" {
		t.Fatalf("Transcript = %q, want original", cmd.Transcript)
	}
}

func TestParseTTSRequest(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"tts_request","text":"hello","agent":"beast"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	req, ok := msg.(TTSRequest)
	if !ok {
		t.Fatalf("message type = %T, want TTSRequest", msg)
	}
	if req.Text != "hello" || req.Agent != "beast" {
		t.Fatalf("parsed = %+v, want hello/beast", req)
	}
}

func TestParseTTSRequestWithoutAgent(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"tts_request","text":"hello"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if req := msg.(TTSRequest); req.Agent != "" {
		t.Fatalf("Agent = %q, want empty", req.Agent)
	}
}

func TestParseUnsupportedType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"subscribe"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`not json at all`)); err == nil {
		t.Fatalf("error = nil, want envelope error")
	}
}

func TestParseMissingFields(t *testing.T) {
	if _, err := ParseClientMessage([]byte(`{"type":"voice_command"}`)); err == nil {
		t.Fatalf("error = nil, want missing transcript error")
	}
	if _, err := ParseClientMessage([]byte(`{"type":"tts_request","agent":"beast"}`)); err == nil {
		t.Fatalf("error = nil, want missing text error")
	}
}
