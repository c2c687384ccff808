// Package orchestrator is the dialogue core's entry point: one utterance in,
// one structured response out. Each turn is classified independently;
// continuity between turns comes only from session context slot-filling.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aurora-press/editorial-assistant/internal/model/catalog"
	"github.com/aurora-press/editorial-assistant/internal/model/dialogue"
	ticketmodel "github.com/aurora-press/editorial-assistant/internal/model/ticket"
	catalogsvc "github.com/aurora-press/editorial-assistant/internal/service/catalog"
	"github.com/aurora-press/editorial-assistant/internal/service/resolver"
	"github.com/aurora-press/editorial-assistant/internal/service/session"
	ticketsvc "github.com/aurora-press/editorial-assistant/internal/service/ticket"
)

// Service coordinates resolver, catalog, ticket store and session context.
type Service struct {
	catalog  *catalogsvc.Index
	tickets  *ticketsvc.Store
	sessions *session.Manager
	resolver *resolver.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

// New wires the orchestrator.
func New(idx *catalogsvc.Index, tickets *ticketsvc.Store, sessions *session.Manager, res *resolver.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:  idx,
		tickets:  tickets,
		sessions: sessions,
		resolver: res,
		logger:   logger,
		now:      time.Now,
	}
}

// StartSession provisions a new conversation and returns its identifier.
func (s *Service) StartSession() string {
	return s.sessions.Start()
}

// ClearSession resets the conversation state for a session.
func (s *Service) ClearSession(sessionID string) {
	s.sessions.Get(sessionID).Clear()
}

// EndSession destroys a session entirely.
func (s *Service) EndSession(sessionID string) {
	s.sessions.End(sessionID)
}

// History exposes the retained turns of a session.
func (s *Service) History(sessionID string) []dialogue.Turn {
	return s.sessions.Get(sessionID).History()
}

// HandleUtterance runs one full turn: resolve the intent, dispatch it against
// catalog or ticket store, fold the outcome back into session context and
// return the response. Lookup failures become user-facing messages, never
// errors.
func (s *Service) HandleUtterance(ctx context.Context, sessionID, text string) dialogue.Response {
	sess := s.sessions.Get(sessionID)
	intent := s.resolver.Resolve(ctx, text, sess)

	resp := s.dispatch(ctx, &intent, sess)

	sess.Update(dialogue.Turn{
		Utterance: text,
		Intent:    intent,
		Response:  resp,
		At:        s.now().UTC(),
	})

	s.logger.Info("turn handled",
		zap.String("sessionId", sessionID),
		zap.String("intent", string(intent.Kind)),
		zap.String("source", intent.Source),
		zap.String("response", string(resp.Kind)))
	return resp
}

// dispatch may canonicalize intent slots (resolved title, catalog city
// spelling) so that Update records what was actually answered.
func (s *Service) dispatch(ctx context.Context, intent *dialogue.Intent, sess *session.Context) dialogue.Response {
	switch intent.Kind {
	case dialogue.KindBookDetails:
		return s.handleBookDetails(intent)
	case dialogue.KindPurchaseLocations:
		return s.handlePurchaseLocations(intent)
	case dialogue.KindOpenTicket:
		return s.handleOpenTicket(ctx, intent, sess)
	case dialogue.KindClearSession:
		sess.Clear()
		return dialogue.Response{
			Kind: dialogue.ResponseCleared,
			Text: "Pronto, recomeçamos do zero. Sobre qual livro você quer saber?",
		}
	default:
		return dialogue.Response{
			Kind: dialogue.ResponseClarification,
			Text: "Desculpe, não entendi. Você pode perguntar sobre um livro do catálogo, onde comprá-lo, ou abrir um ticket de suporte.",
		}
	}
}

func (s *Service) handleBookDetails(intent *dialogue.Intent) dialogue.Response {
	book, resp, ok := s.resolveBook(intent)
	if !ok {
		return resp
	}

	text := fmt.Sprintf("Título: %s\nAutor: %s\nImprint: %s\nLançamento: %s\n\nSinopse: %s",
		book.Title, book.Author, book.Imprint, book.ReleaseDate, book.Synopsis)
	return dialogue.Response{
		Kind: dialogue.ResponseBookDetails,
		Text: text,
		Data: dialogue.BookPayload{Book: book},
	}
}

func (s *Service) handlePurchaseLocations(intent *dialogue.Intent) dialogue.Response {
	book, resp, ok := s.resolveBook(intent)
	if !ok {
		return resp
	}

	city := intent.Slots.City
	online := s.catalog.OnlineStores(book)

	locations, err := s.catalog.LocationsFor(book, city)
	if err != nil {
		if city == "" || !errors.Is(err, catalogsvc.ErrNotFound) {
			return dialogue.Response{
				Kind: dialogue.ResponseNotFound,
				Text: fmt.Sprintf("Não há lojas cadastradas para %q no momento.", book.Title),
			}
		}
		// Requested city has no stores: say so and still offer Online.
		payload := dialogue.LocationsPayload{Title: book.Title, City: city, Online: online}
		text := fmt.Sprintf("%q não está disponível em %s.", book.Title, city)
		if len(online) > 0 {
			text += "\nOpções online: " + strings.Join(online, ", ")
		}
		return dialogue.Response{Kind: dialogue.ResponseLocations, Text: text, Data: payload}
	}

	// Record the catalog's spelling of the matched city so follow-up turns
	// inherit the canonical form.
	if city != "" && len(locations) > 0 && locations[0].Name != catalog.OnlineLocation {
		intent.Slots.City = locations[0].Name
	}

	payload := dialogue.LocationsPayload{
		Title:     book.Title,
		City:      intent.Slots.City,
		Locations: locations,
		Online:    online,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Onde comprar %q:", book.Title)
	for _, loc := range locations {
		fmt.Fprintf(&b, "\n%s: %s", loc.Name, strings.Join(loc.Stores, ", "))
	}
	if city != "" && len(online) > 0 && (len(locations) == 0 || locations[0].Name != catalog.OnlineLocation) {
		fmt.Fprintf(&b, "\nOnline: %s", strings.Join(online, ", "))
	}
	return dialogue.Response{Kind: dialogue.ResponseLocations, Text: b.String(), Data: payload}
}

// resolveBook resolves the title slot to a catalog book, producing a prompt,
// disambiguation or not-found response when it cannot. On success the slot is
// rewritten with the canonical title.
func (s *Service) resolveBook(intent *dialogue.Intent) (catalog.Book, dialogue.Response, bool) {
	title := intent.Slots.Title
	if title == "" {
		return catalog.Book{}, dialogue.Response{
			Kind: dialogue.ResponseFollowUp,
			Text: "Sobre qual livro você quer saber? Diga o título, por exemplo: \"A Abelha\".",
		}, false
	}

	book, err := s.catalog.FindByTitle(title)
	if err == nil {
		intent.Slots.Title = book.Title
		return book, dialogue.Response{}, true
	}

	book, err = s.catalog.ResolveOne(title)
	switch {
	case err == nil:
		intent.Slots.Title = book.Title
		return book, dialogue.Response{}, true
	case errors.Is(err, catalogsvc.ErrAmbiguous):
		candidates := s.catalog.Search(title)
		titles := make([]string, 0, len(candidates))
		for _, c := range candidates {
			titles = append(titles, c.Title)
		}
		return catalog.Book{}, dialogue.Response{
			Kind: dialogue.ResponseDisambiguation,
			Text: fmt.Sprintf("Encontrei mais de um título parecido com %q: %s. Qual deles você quer?", title, strings.Join(titles, "; ")),
			Data: dialogue.CandidatesPayload{Titles: titles},
		}, false
	default:
		return catalog.Book{}, dialogue.Response{
			Kind: dialogue.ResponseNotFound,
			Text: fmt.Sprintf("Não encontrei %q no catálogo. Confira o título e tente novamente.", title),
		}, false
	}
}

func (s *Service) handleOpenTicket(ctx context.Context, intent *dialogue.Intent, sess *session.Context) dialogue.Response {
	draft := ticketmodel.Draft{
		Subject:     strings.TrimSpace(intent.Slots.Subject),
		Description: strings.TrimSpace(intent.Slots.Description),
	}

	if !draft.Complete() {
		sess.SetPendingTicket(draft)
		if draft.Subject == "" {
			return dialogue.Response{
				Kind: dialogue.ResponseFollowUp,
				Text: "Qual é o assunto do ticket?",
			}
		}
		return dialogue.Response{
			Kind: dialogue.ResponseFollowUp,
			Text: fmt.Sprintf("Entendi, assunto: %q. Agora descreva o problema.", draft.Subject),
		}
	}

	t, err := s.tickets.Open(ctx, draft.Subject, draft.Description)
	if err != nil {
		s.logger.Error("ticket open failed", zap.Error(err))
		return dialogue.Response{
			Kind: dialogue.ResponseClarification,
			Text: "Não foi possível abrir o ticket agora. Tente novamente em instantes.",
		}
	}

	sess.ClearPendingTicket()
	return dialogue.Response{
		Kind: dialogue.ResponseTicket,
		Text: fmt.Sprintf("Ticket aberto! ID: %s; status: %s.", t.ID, t.Status),
		Data: dialogue.TicketPayload{Ticket: t},
	}
}
