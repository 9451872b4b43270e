package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/voxyz/voxyz/internal/config"
)

// Request asks for speech synthesis. Agent takes precedence over VoiceID
// when both are set.
type Request struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId,omitempty"`
	Agent   string `json:"agent,omitempty"`
}

// Response carries one synthesized clip. Duration is always reported as
// zero; it is never computed from the audio and downstream consumers expect
// the placeholder.
type Response struct {
	AudioData []byte
	Duration  float64
}

// Synthesizer is the speech backend used by the HTTP and WebSocket surfaces.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Response, error)
	NotifyStatus(ctx context.Context, agent, message string) (Response, error)
	VoiceForAgent(name string) string
}

// ErrSynthesisFailed is the only error callers see from a failed synthesis.
// The provider detail is logged where the call is made and deliberately not
// propagated.
var ErrSynthesisFailed = errors.New("failed to synthesize speech")

// ClientConfig holds the settings for the ElevenLabs REST client.
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	Agents         []config.AgentConfig
	DefaultVoiceID string
}

// Client synthesizes speech through the ElevenLabs text-to-speech endpoint.
type Client struct {
	cfg    ClientConfig
	client *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// VoiceForAgent resolves an agent name to its configured voice, case
// insensitively. Unknown names get the default voice; the function is total.
func (c *Client) VoiceForAgent(name string) string {
	for _, a := range c.cfg.Agents {
		if strings.EqualFold(a.Name, name) {
			return a.VoiceID
		}
	}
	return c.cfg.DefaultVoiceID
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize issues one synthesis call for the resolved voice. The raw
// response body is returned as audio/mpeg bytes.
func (c *Client) Synthesize(ctx context.Context, req Request) (Response, error) {
	voiceID := req.VoiceID
	if strings.TrimSpace(req.Agent) != "" {
		voiceID = c.VoiceForAgent(req.Agent)
	}

	audio, err := c.postSynthesis(ctx, voiceID, req.Text)
	if err != nil {
		log.Printf("tts synthesis error: %v", err)
		return Response{}, ErrSynthesisFailed
	}

	return Response{AudioData: audio, Duration: 0}, nil
}

// NotifyStatus synthesizes a spoken status line in the agent's voice.
func (c *Client) NotifyStatus(ctx context.Context, agent, message string) (Response, error) {
	return c.Synthesize(ctx, Request{
		Text:    agent + ": " + message,
		VoiceID: c.VoiceForAgent(agent),
		Agent:   agent,
	})
}

func (c *Client) postSynthesis(ctx context.Context, voiceID, text string) ([]byte, error) {
	payload, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: "eleven_monolingual_v1",
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, fmt.Errorf("elevenlabs status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}
