package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12
)

type wsEnvelope struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	// The page is served from this host; API consumers elsewhere are covered by CORS.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Stream pushes the dashboard view over a websocket, immediately and then every interval.
func (h *Handler) Stream(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.drain(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	if err := h.sendView(ctx, conn); err != nil {
		h.logger.Info("websocket initial write failed", "error", err)
		return
	}
	h.logger.Debug("websocket stream opened", "interval", interval.String(), "request_id", c.GetString(requestIDKey))

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Info("websocket ping failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := h.sendView(ctx, conn); err != nil {
				h.logger.Info("websocket write failed", "error", err)
				return
			}
		}
	}
}

// parseInterval reads ?interval=10s or ?interval_ms=10000 and falls back to the default
// when the value is missing or outside the configured bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	inBounds := func(d time.Duration) bool {
		return d >= h.stream.MinInterval && d <= h.stream.MaxInterval
	}
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && inBounds(d) {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && inBounds(time.Duration(v)*time.Millisecond) {
			return time.Duration(v) * time.Millisecond
		}
	}
	return h.stream.DefaultInterval
}

// drain reads client frames so control messages are processed and closure is noticed.
func (h *Handler) drain(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// sendView writes the current view. A store error is sent to the client instead of
// closing the stream.
func (h *Handler) sendView(ctx context.Context, conn *websocket.Conn) error {
	msg := wsEnvelope{Type: "state"}
	view, err := h.dashboardSvc.View(ctx)
	if err != nil {
		h.logger.Warn("websocket view failed", "error", err)
		msg = wsEnvelope{Type: "error", Error: errMessage(err)}
	} else {
		msg.Data = view
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
