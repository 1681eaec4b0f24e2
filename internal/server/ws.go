package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tobilabs/salesbot/internal/catalog"
	"github.com/tobilabs/salesbot/internal/session"
	"github.com/tobilabs/salesbot/internal/upsell"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type      string `json:"type"`       // "message"
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type            string            `json:"type"` // "response" or "error"
	SessionID       string            `json:"session_id"`
	Content         string            `json:"content"`
	Recommendations []catalog.Product `json:"recommendations,omitempty"`
	Offer           *upsell.Offer     `json:"offer,omitempty"`
	State           session.State     `json:"state,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWSError(conn, "", "invalid message format")
			continue
		}
		if req.Type != "" && req.Type != "message" {
			s.sendWSError(conn, req.SessionID, "unknown message type: "+req.Type)
			continue
		}
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}

		result, err := s.engine.HandleTurn(r.Context(), req.SessionID, req.Content)
		if err != nil {
			s.sendWSError(conn, req.SessionID, "conversation turn failed")
			continue
		}

		s.sendWS(conn, wsResponse{
			Type:            "response",
			SessionID:       req.SessionID,
			Content:         result.Reply,
			Recommendations: result.Products,
			Offer:           result.Offer,
			State:           result.State,
		})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, sessionID, message string) {
	s.sendWS(conn, wsResponse{Type: "error", SessionID: sessionID, Content: message})
}
