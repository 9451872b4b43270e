package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AgentConfig maps a named agent to the ElevenLabs voice used for its
// spoken output.
type AgentConfig struct {
	Name    string `json:"name"`
	VoiceID string `json:"voiceId"`
}

// Config contains all runtime settings for the voice relay.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DeepgramAPIKey   string
	ElevenLabsAPIKey string
	AnthropicAPIKey  string

	AnthropicBaseURL string
	AnthropicModel   string

	ElevenLabsBaseURL string

	Agents         []AgentConfig
	DefaultVoiceID string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults. Missing
// credentials are left empty; they surface only when the corresponding
// provider call is attempted.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          bindAddrFromEnv("PORT", ":3000"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "voxyz"),
		AllowAnyOrigin:    false,
		DeepgramAPIKey:    trimmedEnv("DEEPGRAM_API_KEY"),
		ElevenLabsAPIKey:  trimmedEnv("ELEVENLABS_API_KEY"),
		AnthropicAPIKey:   trimmedEnv("ANTHROPIC_API_KEY"),
		AnthropicBaseURL:  envOrDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		AnthropicModel:    envOrDefault("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		ElevenLabsBaseURL: envOrDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		Agents: []AgentConfig{
			{Name: "gambit", VoiceID: envOrDefault("VOICE_GAMBIT", "TxGEqnHWrfWFTfGW9XjX")},
			{Name: "beast", VoiceID: envOrDefault("VOICE_BEAST", "pNInz6obpgDQGcFmaJgB")},
			{Name: "wolverine", VoiceID: envOrDefault("VOICE_WOLVERINE", "EXAVITQu4vr4xnSDxMaL")},
		},
		DefaultVoiceID:  envOrDefault("VOICE_DEFAULT", "pNInz6obpgDQGcFmaJgB"),
		DatabaseURL:     trimmedEnv("DATABASE_URL"),
		ShutdownTimeout: 15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// AgentNames returns the configured agent names in their declared order.
func (c Config) AgentNames() []string {
	names := make([]string, 0, len(c.Agents))
	for _, a := range c.Agents {
		names = append(names, a.Name)
	}
	return names
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// bindAddrFromEnv accepts either a bare port ("3000") or a full listen
// address (":3000", "0.0.0.0:3000").
func bindAddrFromEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if strings.Contains(v, ":") {
		return v
	}
	return ":" + v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
