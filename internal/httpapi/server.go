package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/voxyz/voxyz/internal/config"
	"github.com/voxyz/voxyz/internal/history"
	"github.com/voxyz/voxyz/internal/hub"
	"github.com/voxyz/voxyz/internal/intent"
	"github.com/voxyz/voxyz/internal/observability"
	"github.com/voxyz/voxyz/internal/protocol"
	"github.com/voxyz/voxyz/internal/tts"
)

// Server binds the HTTP and WebSocket surfaces to the intent router and the
// speech synthesizer. Its only state is the live connection hub.
type Server struct {
	cfg      config.Config
	router   *intent.Router
	synth    tts.Synthesizer
	hub      *hub.Hub
	store    history.Store
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
	static   http.Handler
}

func New(cfg config.Config, router *intent.Router, synth tts.Synthesizer, h *hub.Hub, store history.Store, metrics *observability.Metrics) *Server {
	if store == nil {
		store = history.NewDisabledStore()
	}
	return &Server{
		cfg:     cfg,
		router:  router,
		synth:   synth,
		hub:     h,
		store:   store,
		metrics: metrics,
		static:  newStaticHandler(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser connections from the same origin unless
				// explicitly opened up; other sites must not drive the relay.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Handle("/", s.static)
	r.Handle("/static/*", http.StripPrefix("/static/", s.static))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/route", s.handleRoute)
	r.Post("/api/tts", s.handleTTS)
	r.Post("/api/notify", s.handleNotify)
	r.Get("/api/agents", s.handleAgents)
	r.Get("/api/notifications", s.handleNotifications)

	r.Get("/ws", s.handleWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "VoxYZ",
	})
}

type routeRequest struct {
	Transcript string `json:"transcript"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to route voice command")
		return
	}

	result, outcome := s.router.Route(r.Context(), req.Transcript)
	s.metrics.RouteRequests.WithLabelValues(string(outcome)).Inc()
	respondJSON(w, http.StatusOK, result)
}

type ttsRequest struct {
	Text  string `json:"text"`
	Agent string `json:"agent"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to synthesize speech")
		return
	}

	audio, err := s.synth.Synthesize(r.Context(), tts.Request{Text: req.Text, Agent: req.Agent})
	if err != nil {
		s.metrics.ProviderErrors.WithLabelValues("elevenlabs", "tts").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to synthesize speech")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.AudioData)
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var event protocol.NotificationEvent
	if err := decodeJSON(r, &event); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to send notification")
		return
	}

	audio, err := s.synth.NotifyStatus(r.Context(), event.Agent, event.Message)
	if err != nil {
		s.metrics.ProviderErrors.WithLabelValues("elevenlabs", "notify").Inc()
		respondError(w, http.StatusInternalServerError, "Failed to send notification")
		return
	}

	delivered, skipped := s.hub.Broadcast(protocol.Notification{
		Type:    protocol.TypeNotification,
		Agent:   event.Agent,
		Message: event.Message,
		Audio:   base64.StdEncoding.EncodeToString(audio.AudioData),
	})
	s.metrics.BroadcastDeliveries.Add(float64(delivered))
	s.metrics.BroadcastSkipped.Add(float64(skipped))

	if err := s.store.Record(r.Context(), history.Event{
		Type:      event.Type,
		Agent:     event.Agent,
		Message:   event.Message,
		Timestamp: event.Timestamp,
	}); err != nil {
		// History is a best-effort trail; the broadcast already happened.
		log.Printf("notification history record error: %v", err)
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAgents(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"agents": s.cfg.Agents})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}
	if events == nil {
		events = []history.Event{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

type errorResponse struct {
	Error string `json:"error"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
