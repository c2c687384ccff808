package ticket

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	model "github.com/aurora-press/editorial-assistant/internal/model/ticket"
	ticketsvc "github.com/aurora-press/editorial-assistant/internal/service/ticket"
	"github.com/aurora-press/editorial-assistant/pkg/utils"
)

// Handler is the operational surface over the ticket store, used by support
// staff tooling rather than the conversational flow.
type Handler struct {
	store *ticketsvc.Store
}

// New creates the ticket handler.
func New(store *ticketsvc.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes wires the ticket endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/tickets/{ticketID}", h.handleGet)
	r.Post("/tickets/{ticketID}/advance", h.handleAdvance)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Get(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "ticket not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, t)
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.store.Advance(r.Context(), chi.URLParam(r, "ticketID"), model.Status(payload.Status))
	switch {
	case errors.Is(err, ticketsvc.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "ticket not found")
	case errors.Is(err, ticketsvc.ErrInvalidTransition):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "failed to advance ticket")
	default:
		utils.RespondJSON(w, http.StatusOK, t)
	}
}
