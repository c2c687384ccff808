package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aurora-press/editorial-assistant/internal/model/dialogue"
	ticketmodel "github.com/aurora-press/editorial-assistant/internal/model/ticket"
	"github.com/aurora-press/editorial-assistant/internal/service/resolver"
	"github.com/aurora-press/editorial-assistant/internal/service/session"
)

type fakeCatalog map[string]struct{}

func (f fakeCatalog) HasTitle(title string) bool {
	_, ok := f[title]
	return ok
}

// scriptedClassifier returns a fixed classification, or an error, or blocks
// until the context expires.
type scriptedClassifier struct {
	result resolver.Classification
	err    error
	block  bool
	calls  int
}

func (s *scriptedClassifier) Classify(ctx context.Context, _ string, _ []dialogue.Kind, _ resolver.Hints) (resolver.Classification, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return resolver.Classification{}, ctx.Err()
	}
	return s.result, s.err
}

func newSession(titles ...string) *session.Context {
	books := make(fakeCatalog)
	for _, title := range titles {
		books[title] = struct{}{}
	}
	return session.NewManager(books, 0).Get("s1")
}

func TestResolveQuotedTitleSkipsBackend(t *testing.T) {
	classifier := &scriptedClassifier{}
	r := resolver.New(classifier, nil)

	intent := r.Resolve(context.Background(), `Quero saber sobre "A Abelha"`, newSession())

	if intent.Kind != dialogue.KindBookDetails {
		t.Fatalf("kind: got %s", intent.Kind)
	}
	if intent.Slots.Title != "A Abelha" {
		t.Fatalf("title: got %q", intent.Slots.Title)
	}
	if classifier.calls != 0 {
		t.Fatalf("backend consulted %d times for a heuristic match", classifier.calls)
	}
}

func TestResolveTrailingCityUsesLastBook(t *testing.T) {
	r := resolver.New(nil, nil)
	sess := newSession("A Abelha")
	sess.Update(dialogue.Turn{
		Intent:   dialogue.Intent{Kind: dialogue.KindBookDetails, Slots: dialogue.Slots{Title: "A Abelha"}},
		Response: dialogue.Response{Kind: dialogue.ResponseBookDetails},
	})

	intent := r.Resolve(context.Background(), "Em São Paulo?", sess)

	if intent.Kind != dialogue.KindPurchaseLocations {
		t.Fatalf("kind: got %s", intent.Kind)
	}
	if intent.Slots.Title != "A Abelha" {
		t.Fatalf("title: got %q", intent.Slots.Title)
	}
	if intent.Slots.City != "São Paulo" {
		t.Fatalf("city: got %q", intent.Slots.City)
	}
}

func TestResolveTicketCommand(t *testing.T) {
	r := resolver.New(nil, nil)

	intent := r.Resolve(context.Background(), "Abra um ticket 'Dúvida sobre submissão'", newSession())

	if intent.Kind != dialogue.KindOpenTicket {
		t.Fatalf("kind: got %s", intent.Kind)
	}
	if intent.Slots.Subject != "Dúvida sobre submissão" {
		t.Fatalf("subject: got %q", intent.Slots.Subject)
	}
	if intent.Slots.Description != "" {
		t.Fatalf("description: got %q", intent.Slots.Description)
	}
}

func TestResolvePendingDraftClaimsFreeText(t *testing.T) {
	r := resolver.New(nil, nil)
	sess := newSession()
	sess.SetPendingTicket(ticketmodel.Draft{Subject: "Dúvida sobre submissão"})

	intent := r.Resolve(context.Background(), "Não consigo anexar o manuscrito no formulário.", sess)

	if intent.Kind != dialogue.KindOpenTicket {
		t.Fatalf("kind: got %s", intent.Kind)
	}
	if intent.Slots.Subject != "Dúvida sobre submissão" {
		t.Fatalf("subject: got %q", intent.Slots.Subject)
	}
	if intent.Slots.Description != "Não consigo anexar o manuscrito no formulário." {
		t.Fatalf("description: got %q", intent.Slots.Description)
	}
}

func TestResolveBackendSuccess(t *testing.T) {
	classifier := &scriptedClassifier{
		result: resolver.Classification{
			Kind:       "book_details",
			Slots:      dialogue.Slots{Title: "O Rio Invisível"},
			Confidence: 0.9,
		},
	}
	r := resolver.New(classifier, nil)

	intent := r.Resolve(context.Background(), "tem alguma coisa nova do Heitor Salles?", newSession())

	if intent.Kind != dialogue.KindBookDetails {
		t.Fatalf("kind: got %s", intent.Kind)
	}
	if intent.Slots.Title != "O Rio Invisível" {
		t.Fatalf("title: got %q", intent.Slots.Title)
	}
	if intent.RawText == "" {
		t.Fatal("raw text not preserved")
	}
}

func TestResolveBackendLowConfidenceDegradesToUnknown(t *testing.T) {
	classifier := &scriptedClassifier{
		result: resolver.Classification{Kind: "book_details", Confidence: 0.3},
	}
	r := resolver.New(classifier, nil)

	intent := r.Resolve(context.Background(), "hmm talvez um livro", newSession())

	if intent.Kind != dialogue.KindUnknown {
		t.Fatalf("kind: got %s", intent.Kind)
	}
	if intent.RawText != "hmm talvez um livro" {
		t.Fatalf("raw text: got %q", intent.RawText)
	}
}

func TestResolveBackendUnknownKindDegradesToUnknown(t *testing.T) {
	classifier := &scriptedClassifier{
		result: resolver.Classification{Kind: "ordem_de_compra", Confidence: 0.95},
	}
	r := resolver.New(classifier, nil)

	if intent := r.Resolve(context.Background(), "qualquer coisa", newSession()); intent.Kind != dialogue.KindUnknown {
		t.Fatalf("kind: got %s", intent.Kind)
	}
}

func TestResolveBackendErrorDegradesToUnknown(t *testing.T) {
	classifier := &scriptedClassifier{err: errors.New("backend unavailable")}
	r := resolver.New(classifier, nil)

	intent := r.Resolve(context.Background(), "qualquer coisa", newSession())
	if intent.Kind != dialogue.KindUnknown {
		t.Fatalf("kind: got %s", intent.Kind)
	}
}

func TestResolveBackendTimeoutDegradesToUnknown(t *testing.T) {
	classifier := &scriptedClassifier{block: true}
	r := resolver.New(classifier, nil, resolver.WithTimeout(20*time.Millisecond))

	done := make(chan dialogue.Intent, 1)
	go func() {
		done <- r.Resolve(context.Background(), "qualquer coisa", newSession())
	}()

	select {
	case intent := <-done:
		if intent.Kind != dialogue.KindUnknown {
			t.Fatalf("kind: got %s", intent.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("resolve did not return after backend timeout")
	}
}

func TestResolveNilClassifierDegradesToUnknown(t *testing.T) {
	r := resolver.New(nil, nil)

	intent := r.Resolve(context.Background(), "qual o sentido da vida?", newSession())
	if intent.Kind != dialogue.KindUnknown {
		t.Fatalf("kind: got %s", intent.Kind)
	}
}

func TestResolveIsDeterministicGivenFixedBackend(t *testing.T) {
	classifier := &scriptedClassifier{
		result: resolver.Classification{
			Kind:       "purchase_locations",
			Slots:      dialogue.Slots{Title: "A Abelha", City: "Rio de Janeiro"},
			Confidence: 0.8,
		},
	}
	r := resolver.New(classifier, nil)

	first := r.Resolve(context.Background(), "tem aquele da abelha nas lojas do rio ainda?", newSession("A Abelha"))
	second := r.Resolve(context.Background(), "tem aquele da abelha nas lojas do rio ainda?", newSession("A Abelha"))

	if first.Kind != second.Kind || first.Slots != second.Slots {
		t.Fatalf("resolve not deterministic: %+v vs %+v", first, second)
	}
}
