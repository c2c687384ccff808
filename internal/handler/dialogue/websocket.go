package dialogue

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aurora-press/editorial-assistant/internal/model/dialogue"
	"github.com/aurora-press/editorial-assistant/internal/service/orchestrator"
)

// WebSocketHandler serves the GUI front end: one socket per conversation,
// JSON frames in both directions.
type WebSocketHandler struct {
	orchestrator *orchestrator.Service
	logger       *zap.Logger
	upgrader     websocket.Upgrader
}

// NewWebSocketHandler creates the websocket handler.
func NewWebSocketHandler(orch *orchestrator.Service, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		orchestrator: orch,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes wires the websocket endpoint.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dialogue/ws/{sessionID}", h.handleWebSocket)
}

type inboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type outboundFrame struct {
	Type     string             `json:"type"`
	Response *dialogue.Response `json:"response,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("websocket session opened", zap.String("sessionId", sessionID))

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("sessionId", sessionID), zap.Error(err))
			}
			return
		}

		switch frame.Type {
		case "utterance":
			if frame.Text == "" {
				h.write(conn, outboundFrame{Type: "error", Error: "text is required"})
				continue
			}
			resp := h.orchestrator.HandleUtterance(r.Context(), sessionID, frame.Text)
			h.write(conn, outboundFrame{Type: "response", Response: &resp})
		case "clear":
			h.orchestrator.ClearSession(sessionID)
			h.write(conn, outboundFrame{Type: "cleared"})
		default:
			h.write(conn, outboundFrame{Type: "error", Error: "unknown frame type"})
		}
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, frame outboundFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		h.logger.Warn("websocket write failed", zap.Error(err))
	}
}
