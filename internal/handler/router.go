package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	dialogueHandler "github.com/aurora-press/editorial-assistant/internal/handler/dialogue"
	ticketHandler "github.com/aurora-press/editorial-assistant/internal/handler/ticket"
	middlewarePkg "github.com/aurora-press/editorial-assistant/internal/middleware"
	"github.com/aurora-press/editorial-assistant/internal/service/orchestrator"
	ticketsvc "github.com/aurora-press/editorial-assistant/internal/service/ticket"
)

// NewRouter wires HTTP routes to the dialogue core.
func NewRouter(orch *orchestrator.Service, tickets *ticketsvc.Store, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	dialogue := dialogueHandler.New(orch)
	dialogueWS := dialogueHandler.NewWebSocketHandler(orch, logger)
	ticket := ticketHandler.New(tickets)

	r.Route("/api", func(api chi.Router) {
		dialogue.RegisterRoutes(api)
		dialogueWS.RegisterRoutes(api)
		ticket.RegisterRoutes(api)
	})

	return r
}
