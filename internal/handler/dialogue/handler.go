package dialogue

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aurora-press/editorial-assistant/internal/model/dialogue"
	"github.com/aurora-press/editorial-assistant/internal/service/orchestrator"
	"github.com/aurora-press/editorial-assistant/pkg/utils"
)

// Handler exposes the dialogue core over HTTP.
type Handler struct {
	orchestrator *orchestrator.Service
}

// New creates the dialogue handler.
func New(orch *orchestrator.Service) *Handler {
	return &Handler{orchestrator: orch}
}

// RegisterRoutes wires the dialogue endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/session/{sessionID}/clear", h.handleClearSession)
	r.Get("/session/{sessionID}/history", h.handleHistory)
	r.Post("/dialogue", h.handleUtterance)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sessionID := h.orchestrator.StartSession()
	utils.RespondJSON(w, http.StatusCreated, map[string]string{"sessionId": sessionID})
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.orchestrator.ClearSession(sessionID)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turns := h.orchestrator.History(sessionID)
	if turns == nil {
		turns = []dialogue.Turn{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessionId": sessionID, "turns": turns})
}

func (h *Handler) handleUtterance(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Text      string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	resp := h.orchestrator.HandleUtterance(r.Context(), payload.SessionID, payload.Text)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": payload.SessionID,
		"response":  resp,
	})
}
