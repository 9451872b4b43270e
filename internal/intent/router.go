package intent

import (
	"context"
	"log"
	"strings"
)

// Intent is the structured classification of one voice command.
type Intent struct {
	Agent      string  `json:"agent"`
	Action     string  `json:"action"`
	Message    string  `json:"message"`
	Confidence float64 `json:"confidence"`
}

// RouteResult is the routing decision for a classified command. It is a
// textual decision only; agent-side dispatch happens elsewhere.
type RouteResult struct {
	Agent   string `json:"agent"`
	Message string `json:"message"`
}

// Classifier produces an intent for a transcript, or an error when the
// provider is unavailable or returns garbage.
type Classifier interface {
	Classify(ctx context.Context, transcript string, agents []string) (Intent, error)
}

// Outcome reports which path produced a classification.
type Outcome string

const (
	OutcomeClassified Outcome = "classified"
	OutcomeFallback   Outcome = "fallback"
)

// Router classifies transcripts and maps them to routing decisions. When the
// classifier fails, it degrades to keyword matching over the configured
// agent names; callers never observe a classification failure.
type Router struct {
	classifier Classifier
	agents     []string
}

func NewRouter(classifier Classifier, agents []string) *Router {
	return &Router{classifier: classifier, agents: agents}
}

// Classify returns the provider intent when available, the keyword fallback
// otherwise. It is total; the outcome tells the caller which path ran.
func (r *Router) Classify(ctx context.Context, transcript string) (Intent, Outcome) {
	if r.classifier != nil {
		intent, err := r.classifier.Classify(ctx, transcript, r.agents)
		if err == nil {
			return intent, OutcomeClassified
		}
		log.Printf("intent classification error: %v", err)
	}
	return r.fallbackClassification(transcript), OutcomeFallback
}

// fallbackClassification scans the agent list in configured order for a
// case-insensitive substring match.
func (r *Router) fallbackClassification(transcript string) Intent {
	lower := strings.ToLower(transcript)
	for _, agent := range r.agents {
		if strings.Contains(lower, agent) {
			return Intent{
				Agent:      agent,
				Action:     "talk",
				Message:    transcript,
				Confidence: 0.7,
			}
		}
	}
	return Intent{
		Agent:      "none",
		Action:     "status",
		Message:    transcript,
		Confidence: 0.5,
	}
}

// Route classifies the transcript and composes the routing decision.
func (r *Router) Route(ctx context.Context, transcript string) (RouteResult, Outcome) {
	intent, outcome := r.Classify(ctx, transcript)

	if intent.Agent == "none" {
		return RouteResult{
			Agent:   "system",
			Message: "Command received, but no specific agent detected. Please specify an agent.",
		}, outcome
	}

	return RouteResult{
		Agent:   intent.Agent,
		Message: "Routing to " + intent.Agent + ": " + intent.Message,
	}, outcome
}
