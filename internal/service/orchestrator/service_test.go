package orchestrator_test

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/aurora-press/editorial-assistant/internal/model/catalog"
	"github.com/aurora-press/editorial-assistant/internal/model/dialogue"
	ticketmodel "github.com/aurora-press/editorial-assistant/internal/model/ticket"
	catalogsvc "github.com/aurora-press/editorial-assistant/internal/service/catalog"
	"github.com/aurora-press/editorial-assistant/internal/service/orchestrator"
	"github.com/aurora-press/editorial-assistant/internal/service/resolver"
	"github.com/aurora-press/editorial-assistant/internal/service/session"
	ticketsvc "github.com/aurora-press/editorial-assistant/internal/service/ticket"
)

// failingClassifier simulates an unreachable language-understanding backend.
type failingClassifier struct{}

func (failingClassifier) Classify(ctx context.Context, _ string, _ []dialogue.Kind, _ resolver.Hints) (resolver.Classification, error) {
	return resolver.Classification{}, context.DeadlineExceeded
}

func testService(t *testing.T, classifier resolver.Classifier) (*orchestrator.Service, *ticketsvc.Store) {
	t.Helper()

	idx, err := catalogsvc.New([]catalog.Book{
		{
			Title:       "A Abelha",
			Author:      "Clarice Moura",
			Imprint:     "Aurora",
			ReleaseDate: "2024-03-11",
			Synopsis:    "Uma fábula urbana sobre colmeias e cidades.",
			Availability: map[string][]string{
				"São Paulo":            {"Livraria Central", "Banca do Parque"},
				"Rio de Janeiro":       {"Estante Carioca"},
				catalog.OnlineLocation: {"Loja Aurora"},
			},
		},
		{
			Title:       "O Mar e o Tempo",
			Author:      "Heitor Salles",
			Imprint:     "Maré",
			ReleaseDate: "2023-09-02",
			Synopsis:    "Ensaios sobre litorais.",
			Availability: map[string][]string{
				"Florianópolis": {"Livros da Ilha"},
			},
		},
		{
			Title:       "O Mar e a Terra",
			Author:      "Heitor Salles",
			Imprint:     "Maré",
			ReleaseDate: "2025-01-20",
			Synopsis:    "Continuação dos ensaios.",
			Availability: map[string][]string{
				catalog.OnlineLocation: {"Loja Aurora"},
			},
		},
	})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}

	store, err := ticketsvc.NewStore(context.Background(), ticketsvc.NewMemoryPersistence(), nil)
	if err != nil {
		t.Fatalf("build ticket store: %v", err)
	}

	sessions := session.NewManager(idx, 0)
	res := resolver.New(classifier, nil)
	return orchestrator.New(idx, store, sessions, res, nil), store
}

func TestBookDetailsThenCityFollowUp(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	sid := svc.StartSession()

	resp := svc.HandleUtterance(ctx, sid, `Quero saber sobre "A Abelha"`)
	if resp.Kind != dialogue.ResponseBookDetails {
		t.Fatalf("first turn kind: got %s (%q)", resp.Kind, resp.Text)
	}
	if !strings.Contains(resp.Text, "Clarice Moura") {
		t.Fatalf("details missing author: %q", resp.Text)
	}

	resp = svc.HandleUtterance(ctx, sid, "Em São Paulo?")
	if resp.Kind != dialogue.ResponseLocations {
		t.Fatalf("follow-up kind: got %s (%q)", resp.Kind, resp.Text)
	}
	payload, ok := resp.Data.(dialogue.LocationsPayload)
	if !ok {
		t.Fatalf("payload type: %T", resp.Data)
	}
	if payload.Title != "A Abelha" {
		t.Fatalf("payload title: got %q", payload.Title)
	}
	if payload.City != "São Paulo" {
		t.Fatalf("payload city: got %q", payload.City)
	}
	if len(payload.Locations) != 1 || payload.Locations[0].Name != "São Paulo" {
		t.Fatalf("locations: %+v", payload.Locations)
	}
	if !strings.Contains(resp.Text, "Livraria Central") {
		t.Fatalf("stores missing from text: %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "Online: Loja Aurora") {
		t.Fatalf("online options missing from text: %q", resp.Text)
	}
}

func TestCitySynonymResolvesToCatalogSpelling(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	sid := svc.StartSession()

	svc.HandleUtterance(ctx, sid, `Detalhes de "A Abelha"`)
	resp := svc.HandleUtterance(ctx, sid, "e no rio?")

	if resp.Kind != dialogue.ResponseLocations {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}
	payload := resp.Data.(dialogue.LocationsPayload)
	if payload.City != "Rio de Janeiro" {
		t.Fatalf("city not canonicalized: got %q", payload.City)
	}
}

func TestCityWithoutStoresOffersOnline(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	sid := svc.StartSession()

	svc.HandleUtterance(ctx, sid, `Sobre "A Abelha"`)
	resp := svc.HandleUtterance(ctx, sid, "Em Curitiba?")

	if resp.Kind != dialogue.ResponseLocations {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}
	if !strings.Contains(resp.Text, "não está disponível em Curitiba") {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "Opções online: Loja Aurora") {
		t.Fatalf("online fallback missing: %q", resp.Text)
	}
}

func TestWhereToBuyWithoutCityListsEverything(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	sid := svc.StartSession()

	resp := svc.HandleUtterance(ctx, sid, `Onde compro "A Abelha"?`)
	if resp.Kind != dialogue.ResponseLocations {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}
	payload := resp.Data.(dialogue.LocationsPayload)
	names := make([]string, len(payload.Locations))
	for i, loc := range payload.Locations {
		names[i] = loc.Name
	}
	want := []string{"Rio de Janeiro", "São Paulo", catalog.OnlineLocation}
	if len(names) != len(want) {
		t.Fatalf("locations: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("location order: got %v, want %v", names, want)
		}
	}
}

func TestTicketDialogueFillsDraftAcrossTurns(t *testing.T) {
	svc, store := testService(t, nil)
	ctx := context.Background()
	sid := svc.StartSession()

	resp := svc.HandleUtterance(ctx, sid, "Abrir ticket")
	if resp.Kind != dialogue.ResponseFollowUp {
		t.Fatalf("turn 1 kind: got %s (%q)", resp.Kind, resp.Text)
	}
	if !strings.Contains(resp.Text, "assunto") {
		t.Fatalf("subject prompt expected: %q", resp.Text)
	}

	resp = svc.HandleUtterance(ctx, sid, "Dúvida sobre royalties")
	if resp.Kind != dialogue.ResponseFollowUp {
		t.Fatalf("turn 2 kind: got %s (%q)", resp.Kind, resp.Text)
	}
	if !strings.Contains(resp.Text, "Dúvida sobre royalties") {
		t.Fatalf("subject echo expected: %q", resp.Text)
	}

	resp = svc.HandleUtterance(ctx, sid, "Não recebi o extrato do último trimestre.")
	if resp.Kind != dialogue.ResponseTicket {
		t.Fatalf("turn 3 kind: got %s (%q)", resp.Kind, resp.Text)
	}
	payload, ok := resp.Data.(dialogue.TicketPayload)
	if !ok {
		t.Fatalf("payload type: %T", resp.Data)
	}
	if payload.Ticket.Subject != "Dúvida sobre royalties" {
		t.Fatalf("subject: got %q", payload.Ticket.Subject)
	}
	if payload.Ticket.Description != "Não recebi o extrato do último trimestre." {
		t.Fatalf("description: got %q", payload.Ticket.Description)
	}
	if payload.Ticket.Status != ticketmodel.StatusOpen {
		t.Fatalf("status: got %s", payload.Ticket.Status)
	}
	if !strings.Contains(resp.Text, "Ticket aberto! ID: "+payload.Ticket.ID) {
		t.Fatalf("confirmation text: %q", resp.Text)
	}

	stored, err := store.Get(context.Background(), payload.Ticket.ID)
	if err != nil {
		t.Fatalf("ticket not persisted: %v", err)
	}
	if stored.Subject != payload.Ticket.Subject {
		t.Fatalf("persisted subject: got %q", stored.Subject)
	}
}

func TestTicketCommandWithSubjectOnlyAsksForDescription(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	sid := svc.StartSession()

	resp := svc.HandleUtterance(ctx, sid, `Abra um ticket "Problema no envio"`)
	if resp.Kind != dialogue.ResponseFollowUp {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}
	if !strings.Contains(resp.Text, "Problema no envio") {
		t.Fatalf("subject echo expected: %q", resp.Text)
	}

	resp = svc.HandleUtterance(ctx, sid, "O upload falha com erro 500.")
	if resp.Kind != dialogue.ResponseTicket {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}
	payload := resp.Data.(dialogue.TicketPayload)
	if !ticketIDPattern.MatchString(payload.Ticket.ID) {
		t.Fatalf("ticket id: got %q", payload.Ticket.ID)
	}
	if payload.Ticket.Status != ticketmodel.StatusOpen {
		t.Fatalf("status: got %s", payload.Ticket.Status)
	}
}

var ticketIDPattern = regexp.MustCompile(`^TCK-[A-Z0-9]{6}$`)

func TestTicketCommandKeyValueOpensImmediately(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	sid := svc.StartSession()

	resp := svc.HandleUtterance(ctx, sid, "Abrir ticket: assunto=Acesso negado, mensagem=Minha senha não funciona")
	if resp.Kind != dialogue.ResponseTicket {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}
	payload := resp.Data.(dialogue.TicketPayload)
	if payload.Ticket.Subject != "Acesso negado" {
		t.Fatalf("subject: got %q", payload.Ticket.Subject)
	}
	if payload.Ticket.Description != "Minha senha não funciona" {
		t.Fatalf("description: got %q", payload.Ticket.Description)
	}
}

func TestBackendFailureLeavesContextUntouched(t *testing.T) {
	svc, _ := testService(t, failingClassifier{})
	ctx := context.Background()
	sid := svc.StartSession()

	svc.HandleUtterance(ctx, sid, `Sobre "A Abelha"`)

	resp := svc.HandleUtterance(ctx, sid, "blablabla sem sentido nenhum")
	if resp.Kind != dialogue.ResponseClarification {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}

	// The book on the table survives the failed turn.
	resp = svc.HandleUtterance(ctx, sid, "Em São Paulo?")
	if resp.Kind != dialogue.ResponseLocations {
		t.Fatalf("context lost after failed turn: got %s (%q)", resp.Kind, resp.Text)
	}

	history := svc.History(sid)
	if len(history) != 3 {
		t.Fatalf("history length: got %d", len(history))
	}
	if history[1].Intent.Kind != dialogue.KindUnknown {
		t.Fatalf("failed turn intent: got %s", history[1].Intent.Kind)
	}
}

func TestUnknownTitleYieldsNotFound(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()

	resp := svc.HandleUtterance(ctx, svc.StartSession(), `Sobre "Crônicas de Plutão"`)
	if resp.Kind != dialogue.ResponseNotFound {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}
	if !strings.Contains(resp.Text, "Crônicas de Plutão") {
		t.Fatalf("title missing from message: %q", resp.Text)
	}
}

func TestAmbiguousTitleAsksForDisambiguation(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()

	resp := svc.HandleUtterance(ctx, svc.StartSession(), `Sobre "O Mar e"`)
	if resp.Kind != dialogue.ResponseDisambiguation {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}
	payload, ok := resp.Data.(dialogue.CandidatesPayload)
	if !ok {
		t.Fatalf("payload type: %T", resp.Data)
	}
	if len(payload.Titles) < 2 {
		t.Fatalf("candidates: %v", payload.Titles)
	}
}

func TestClearSessionForgetsEverything(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()
	sid := svc.StartSession()

	svc.HandleUtterance(ctx, sid, `Sobre "A Abelha"`)

	resp := svc.HandleUtterance(ctx, sid, "limpar conversa")
	if resp.Kind != dialogue.ResponseCleared {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}
	if len(svc.History(sid)) != 1 {
		t.Fatalf("history after clear: got %d turns", len(svc.History(sid)))
	}

	// With no book on the table the bare city has nothing to bind to.
	resp = svc.HandleUtterance(ctx, sid, "Em São Paulo?")
	if resp.Kind == dialogue.ResponseLocations {
		t.Fatalf("session context survived clear: %q", resp.Text)
	}
}

func TestFollowUpPromptWhenNoTitleAnywhere(t *testing.T) {
	svc, _ := testService(t, nil)
	ctx := context.Background()

	resp := svc.HandleUtterance(ctx, svc.StartSession(), "Onde compro?")
	if resp.Kind != dialogue.ResponseFollowUp {
		t.Fatalf("kind: got %s (%q)", resp.Kind, resp.Text)
	}
}
