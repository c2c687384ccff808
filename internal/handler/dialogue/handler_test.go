package dialogue_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	dialoguehandler "github.com/aurora-press/editorial-assistant/internal/handler/dialogue"
	catalogmodel "github.com/aurora-press/editorial-assistant/internal/model/catalog"
	catalogsvc "github.com/aurora-press/editorial-assistant/internal/service/catalog"
	"github.com/aurora-press/editorial-assistant/internal/service/orchestrator"
	"github.com/aurora-press/editorial-assistant/internal/service/resolver"
	"github.com/aurora-press/editorial-assistant/internal/service/session"
	ticketsvc "github.com/aurora-press/editorial-assistant/internal/service/ticket"
)

func testRouter(t *testing.T) chi.Router {
	t.Helper()

	idx, err := catalogsvc.New([]catalogmodel.Book{
		{
			Title:       "A Abelha",
			Author:      "Clarice Moura",
			Imprint:     "Aurora",
			ReleaseDate: "2024-03-11",
			Synopsis:    "Uma fábula urbana.",
			Availability: map[string][]string{
				"São Paulo":                 {"Livraria Central"},
				catalogmodel.OnlineLocation: {"Loja Aurora"},
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

	orch := orchestrator.New(idx, store, session.NewManager(idx, 0), resolver.New(nil, nil), nil)

	r := chi.NewRouter()
	dialoguehandler.New(orch).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestCreateSession(t *testing.T) {
	router := testRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/session", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d", rec.Code)
	}
	if id, _ := body["sessionId"].(string); id == "" {
		t.Fatalf("missing sessionId in %v", body)
	}
}

func TestUtteranceRoundTrip(t *testing.T) {
	router := testRouter(t)

	_, created := doJSON(t, router, http.MethodPost, "/session", "")
	sid := created["sessionId"].(string)

	rec, body := doJSON(t, router, http.MethodPost, "/dialogue",
		`{"sessionId": "`+sid+`", "text": "Quero saber sobre \"A Abelha\""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	resp, ok := body["response"].(map[string]any)
	if !ok {
		t.Fatalf("missing response object in %v", body)
	}
	if resp["kind"] != "book_details" {
		t.Fatalf("response kind: got %v", resp["kind"])
	}
	text, _ := resp["text"].(string)
	if !strings.Contains(text, "Clarice Moura") {
		t.Fatalf("response text: %q", text)
	}
}

func TestUtteranceValidation(t *testing.T) {
	router := testRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing session", `{"text": "oi"}`},
		{"blank text", `{"sessionId": "s1", "text": "   "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := doJSON(t, router, http.MethodPost, "/dialogue", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d", rec.Code)
			}
		})
	}
}

func TestHistoryAndClear(t *testing.T) {
	router := testRouter(t)

	_, created := doJSON(t, router, http.MethodPost, "/session", "")
	sid := created["sessionId"].(string)

	doJSON(t, router, http.MethodPost, "/dialogue",
		`{"sessionId": "`+sid+`", "text": "Sobre \"A Abelha\""}`)

	rec, body := doJSON(t, router, http.MethodGet, "/session/"+sid+"/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status: got %d", rec.Code)
	}
	turns, ok := body["turns"].([]any)
	if !ok || len(turns) != 1 {
		t.Fatalf("turns: %v", body["turns"])
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/session/"+sid+"/clear", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status: got %d", rec.Code)
	}

	_, body = doJSON(t, router, http.MethodGet, "/session/"+sid+"/history", "")
	if turns, _ := body["turns"].([]any); len(turns) != 0 {
		t.Fatalf("history survived clear: %v", turns)
	}
}
