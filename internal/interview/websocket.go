package interview

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// WebSocketHandler serves interview sessions over WebSocket.
type WebSocketHandler struct {
	orchestrator  *Orchestrator
	allowedOrigin string
	isDev         bool
	readLimit     int64
}

// NewWebSocketHandler creates a WebSocket handler.
func NewWebSocketHandler(o *Orchestrator, allowedOrigin string, isDev bool, readLimit int64) *WebSocketHandler {
	return &WebSocketHandler{
		orchestrator:  o,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		readLimit:     readLimit,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Info("WebSocket connection request", "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	if h.readLimit > 0 {
		ws.SetReadLimit(h.readLimit)
	}

	conn := &wsConn{ws: ws}
	defer func() {
		if closeErr := conn.Close("session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	if err := h.orchestrator.Serve(r.Context(), conn); err != nil {
		slog.Debug("Interview session ended early", "error", err)
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" || origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

// wsConn adapts websocket.Conn to Conn.
type wsConn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		if websocket.CloseStatus(err) != -1 {
			slog.Debug("WebSocket closed by client", "status", websocket.CloseStatus(err))
		}
		return nil, err
	}
	return data, nil
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close(reason string) error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close(websocket.StatusNormalClosure, reason)
	})
	return c.closeErr
}
