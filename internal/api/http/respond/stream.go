package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/oshokin/accirescue/internal/logger"
)

// Observer kinds registered on the hub.
const (
	observerKindSSE       = "sse"
	observerKindWebSocket = "ws"
)

// eventName is the SSE event type of outcome updates.
const eventName = "response_update"

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// handleEvents streams outcome events as server-sent events.
// The stream ends when the observer is evicted; browsers reconnect on their own.
func (g *Gateway) handleEvents(c echo.Context) error {
	ctx := c.Request().Context()
	w := c.Response()

	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	observer := g.service.Subscribe(observerKindSSE)
	defer g.service.Unsubscribe(observer)

	ctx = logger.WithKV(ctx, "observer_id", observer.ID)
	logger.Debug(ctx, "SSE observer connected")

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return nil
	}

	w.Flush()

	ticker := time.NewTicker(g.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug(ctx, "SSE observer disconnected")

			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return nil
			}

			w.Flush()
		case event, ok := <-observer.Events():
			if !ok {
				return nil
			}

			data, err := json.Marshal(event)
			if err != nil {
				logger.ErrorKV(ctx, "Failed to encode event", "error", err)

				continue
			}

			if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName, data); err != nil {
				return nil
			}

			w.Flush()
		}
	}
}

// handleWebSocket pushes outcome events as JSON text frames.
func (g *Gateway) handleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.ErrorKV(c.Request().Context(), "WebSocket upgrade failed", "error", err)

		return nil
	}

	defer func() {
		_ = ws.Close()
	}()

	observer := g.service.Subscribe(observerKindWebSocket)
	defer g.service.Unsubscribe(observer)

	ctx := logger.WithKV(c.Request().Context(), "observer_id", observer.ID)
	logger.Debug(ctx, "WebSocket observer connected")

	// The read side only serves control frames and notices the client leaving.
	gone := make(chan struct{})

	go func() {
		defer close(gone)

		ws.SetReadLimit(maxMessageSize)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(g.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			logger.Debug(ctx, "WebSocket observer disconnected")

			return nil
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case event, ok := <-observer.Events():
			if !ok {
				code := websocket.CloseGoingAway
				if observer.Evicted() {
					code = websocket.CloseTryAgainLater
				}

				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(code, ""),
					time.Now().Add(writeWait))

				return nil
			}

			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))

			if err := ws.WriteJSON(event); err != nil {
				logger.DebugKV(ctx, "WebSocket write failed", "error", err)

				return nil
			}
		}
	}
}
