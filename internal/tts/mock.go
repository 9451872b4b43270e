package tts

import (
	"context"
	"strings"

	"github.com/voxyz/voxyz/internal/config"
)

// Mock is an in-process synthesizer used in tests.
type Mock struct {
	Agents         []config.AgentConfig
	DefaultVoiceID string
	Err            error

	// LastRequest records the most recent Synthesize input.
	LastRequest Request
}

func NewMock(agents []config.AgentConfig, defaultVoiceID string) *Mock {
	return &Mock{Agents: agents, DefaultVoiceID: defaultVoiceID}
}

func (m *Mock) VoiceForAgent(name string) string {
	for _, a := range m.Agents {
		if strings.EqualFold(a.Name, name) {
			return a.VoiceID
		}
	}
	return m.DefaultVoiceID
}

func (m *Mock) Synthesize(_ context.Context, req Request) (Response, error) {
	m.LastRequest = req
	if m.Err != nil {
		return Response{}, m.Err
	}
	return Response{AudioData: []byte("FAKEAUDIO:" + req.Text), Duration: 0}, nil
}

func (m *Mock) NotifyStatus(ctx context.Context, agent, message string) (Response, error) {
	return m.Synthesize(ctx, Request{
		Text:    agent + ": " + message,
		VoiceID: m.VoiceForAgent(agent),
		Agent:   agent,
	})
}
