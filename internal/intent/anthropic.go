package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AnthropicConfig holds the settings for the Claude-backed classifier.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// AnthropicClassifier extracts a structured intent from a transcript by
// asking the Anthropic Messages API for a strict JSON reply.
type AnthropicClassifier struct {
	cfg    AnthropicConfig
	client *http.Client
}

func NewAnthropicClassifier(cfg AnthropicConfig) *AnthropicClassifier {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "claude-3-5-sonnet-20241022"
	}
	return &AnthropicClassifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

const classifyPromptFormat = `Analyze this voice command and extract:
1. Target agent (%s, or "none" if not specified)
2. Action type (talk, status, command)
3. The actual message/command

Voice command: %q

Respond ONLY with JSON format:
{"agent": "agent_name", "action": "action_type", "message": "extracted_message", "confidence": 0.0-1.0}`

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Classify sends the transcript to the Messages API and parses the reply.
// Any network, status, or parse failure is returned to the caller; the
// Router decides how to degrade.
func (c *AnthropicClassifier) Classify(ctx context.Context, transcript string, agents []string) (Intent, error) {
	prompt := fmt.Sprintf(classifyPromptFormat, strings.Join(agents, ", "), transcript)

	payload, err := json.Marshal(anthropicRequest{
		Model:     c.cfg.Model,
		MaxTokens: 200,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Intent{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Intent{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return Intent{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Intent{}, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Intent{}, fmt.Errorf("anthropic status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Intent{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return Intent{}, fmt.Errorf("empty content in response")
	}

	var out Intent
	if err := json.Unmarshal([]byte(parsed.Content[0].Text), &out); err != nil {
		return Intent{}, fmt.Errorf("decode intent json: %w", err)
	}
	out.Agent = strings.ToLower(out.Agent)
	return out, nil
}
