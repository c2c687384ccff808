// Package resolver turns a free-text utterance plus session context into a
// structured intent. Deterministic heuristics run first; everything else goes
// to the language-understanding backend, whose failures and low-confidence
// answers degrade to the unknown intent instead of propagating.
package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aurora-press/editorial-assistant/internal/analysis/utterance"
	"github.com/aurora-press/editorial-assistant/internal/model/dialogue"
	"github.com/aurora-press/editorial-assistant/internal/service/session"
)

const (
	// DefaultConfidenceThreshold is the floor under which a backend answer is
	// discarded as unknown.
	DefaultConfidenceThreshold = 0.6
	// DefaultTimeout bounds a single backend call; on expiry the resolver
	// fails closed to unknown.
	DefaultTimeout = 10 * time.Second

	sourceHeuristic = "heuristic"
	sourceBackend   = "backend"
	sourceFallback  = "fallback"
)

// Resolver classifies utterances. Given a fixed classifier it is a pure
// function of (utterance, session context).
type Resolver struct {
	classifier Classifier
	threshold  float64
	timeout    time.Duration
	logger     *zap.Logger
}

// Option tweaks resolver policy.
type Option func(*Resolver)

// WithThreshold overrides the confidence floor.
func WithThreshold(threshold float64) Option {
	return func(r *Resolver) { r.threshold = threshold }
}

// WithTimeout overrides the backend call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) { r.timeout = timeout }
}

// New builds a resolver. classifier may be nil, in which case utterances the
// heuristics cannot read resolve to unknown.
func New(classifier Classifier, logger *zap.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		classifier: classifier,
		threshold:  DefaultConfidenceThreshold,
		timeout:    DefaultTimeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies one utterance. The returned intent always carries the
// raw text and has had its missing slots filled from session context.
func (r *Resolver) Resolve(ctx context.Context, text string, sess *session.Context) dialogue.Intent {
	intent, ok := r.heuristic(text, sess)
	if !ok {
		intent = r.classify(ctx, text, sess)
	}
	intent.RawText = text
	return sess.ResolveContextualSlots(intent)
}

// heuristic handles the utterance shapes the assistant documents explicitly:
// session-reset phrases, ticket commands, quoted titles, "onde comprar"
// questions, a bare trailing city when a book is already on the table, and
// free text while a ticket draft is waiting for its next field.
func (r *Resolver) heuristic(text string, sess *session.Context) (dialogue.Intent, bool) {
	if utterance.IsClear(text) {
		return dialogue.Intent{Kind: dialogue.KindClearSession, Confidence: 1, Source: sourceHeuristic}, true
	}

	if subject, description, ok := utterance.TicketCommand(text); ok {
		return dialogue.Intent{
			Kind:       dialogue.KindOpenTicket,
			Slots:      dialogue.Slots{Subject: subject, Description: description},
			Confidence: 0.99,
			Source:     sourceHeuristic,
		}, true
	}

	if utterance.IsWhereToBuy(text) {
		title, _ := utterance.Title(text)
		city, _ := utterance.TrailingCity(text)
		confidence := 0.8
		if title != "" {
			confidence = 0.95
		}
		return dialogue.Intent{
			Kind:       dialogue.KindPurchaseLocations,
			Slots:      dialogue.Slots{Title: title, City: city},
			Confidence: confidence,
			Source:     sourceHeuristic,
		}, true
	}

	// "Em São Paulo?" right after asking about a book.
	if _, hasBook := sess.LastBook(); hasBook {
		if city, ok := utterance.TrailingCity(text); ok {
			return dialogue.Intent{
				Kind:       dialogue.KindPurchaseLocations,
				Slots:      dialogue.Slots{City: city},
				Confidence: 0.99,
				Source:     sourceHeuristic,
			}, true
		}
	}

	if title, ok := utterance.QuotedTitle(text); ok {
		return dialogue.Intent{
			Kind:       dialogue.KindBookDetails,
			Slots:      dialogue.Slots{Title: title},
			Confidence: 0.98,
			Source:     sourceHeuristic,
		}, true
	}

	// A draft waiting for fields claims the next free-text utterance.
	if draft, ok := sess.PendingTicket(); ok {
		slots := dialogue.Slots{}
		if draft.Subject == "" {
			slots.Subject = text
		} else {
			slots.Description = text
		}
		return dialogue.Intent{
			Kind:       dialogue.KindOpenTicket,
			Slots:      slots,
			Confidence: 0.9,
			Source:     sourceHeuristic,
		}, true
	}

	return dialogue.Intent{}, false
}

// classify consults the backend. Any failure path resolves to unknown so the
// assistant degrades to a clarification prompt instead of crashing.
func (r *Resolver) classify(ctx context.Context, text string, sess *session.Context) dialogue.Intent {
	if r.classifier == nil {
		return dialogue.Unknown(text, sourceFallback)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	hints := Hints{LastCity: sess.LastCity()}
	if title, ok := sess.LastBook(); ok {
		hints.LastBook = title
	}
	if _, ok := sess.PendingTicket(); ok {
		hints.PendingTicket = true
	}

	result, err := r.classifier.Classify(callCtx, text, dialogue.Kinds(), hints)
	if err != nil {
		r.logger.Warn("intent classifier unavailable, degrading to unknown", zap.Error(err))
		return dialogue.Unknown(text, sourceFallback)
	}

	kind, known := dialogue.ParseKind(result.Kind)
	if !known || kind == dialogue.KindUnknown {
		return dialogue.Unknown(text, sourceBackend)
	}
	if result.Confidence < r.threshold {
		r.logger.Debug("classifier confidence below threshold",
			zap.String("kind", result.Kind),
			zap.Float64("confidence", result.Confidence),
			zap.Float64("threshold", r.threshold))
		return dialogue.Unknown(text, sourceBackend)
	}

	return dialogue.Intent{
		Kind:       kind,
		Slots:      result.Slots,
		Confidence: result.Confidence,
		Source:     sourceBackend,
	}
}
