package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/openhexmap/internal/hexmap"
	"github.com/lawnchairsociety/openhexmap/internal/logger"
)

// handleWebSocketUpgrade upgrades an HTTP connection to a generation session.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)

	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		respondError(w, http.StatusTooManyRequests, "Too many connections. Please try again later.")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(clientIP)
		return
	}

	client := NewWebSocketClient(conn, clientIP, s.cfg.WebSocket.MaxMessageSize)
	s.addClient(client)
	go s.runSession(client)
}

// runSession answers generation requests until the client goes away.
func (s *Server) runSession(client *WebSocketClient) {
	defer func() {
		s.removeClient(client)
		s.connLimiter.Release(client.IP())
		client.Close()
	}()

	logger.Debug("WebSocket session started", "client_ip", client.IP())

	for {
		msg, err := client.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warning("WebSocket read error", "client_ip", client.IP(), "error", err)
			}
			logger.Debug("WebSocket session ended", "client_ip", client.IP())
			return
		}

		if err := client.WriteJSON(s.generateFromMessage(msg)); err != nil {
			logger.Warning("WebSocket write failed", "client_ip", client.IP(), "error", err)
			return
		}
	}
}

// generateFromMessage turns one session message into a reply.
func (s *Server) generateFromMessage(msg []byte) hexmap.Result {
	var req generateRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return hexmap.FailedResult(fmt.Errorf("invalid request: %w", err))
	}

	genReq, problem := s.resolve(req)
	if problem != "" {
		return hexmap.FailedResult(errors.New(problem))
	}
	return hexmap.Generate(s.palette, genReq)
}

func (s *Server) addClient(c *WebSocketClient) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Server) removeClient(c *WebSocketClient) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, c)
}

// SessionCount returns the number of open WebSocket sessions.
func (s *Server) SessionCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}
