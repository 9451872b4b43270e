package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/voxyz/voxyz/internal/config"
	"github.com/voxyz/voxyz/internal/history"
	"github.com/voxyz/voxyz/internal/httpapi"
	"github.com/voxyz/voxyz/internal/hub"
	"github.com/voxyz/voxyz/internal/intent"
	"github.com/voxyz/voxyz/internal/observability"
	"github.com/voxyz/voxyz/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := history.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("history store init failed: %v", err)
	}
	defer store.Close()
	if store.Enabled() {
		log.Printf("notification history: postgres")
	}

	classifier := intent.NewAnthropicClassifier(intent.AnthropicConfig{
		APIKey:  cfg.AnthropicAPIKey,
		BaseURL: cfg.AnthropicBaseURL,
		Model:   cfg.AnthropicModel,
	})
	router := intent.NewRouter(classifier, cfg.AgentNames())

	synth := tts.NewClient(tts.ClientConfig{
		APIKey:         cfg.ElevenLabsAPIKey,
		BaseURL:        cfg.ElevenLabsBaseURL,
		Agents:         cfg.Agents,
		DefaultVoiceID: cfg.DefaultVoiceID,
	})

	connections := hub.New()

	api := httpapi.New(cfg, router, synth, connections, store, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		log.Printf("configured agents: %s", strings.Join(cfg.AgentNames(), ", "))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
