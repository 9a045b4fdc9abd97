package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"sharada-markets/internal/job"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

const (
	streamBuffer    = 32
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = streamPongWait * 9 / 10
)

// StreamMessage is one widget update pushed over the stream.
type StreamMessage struct {
	Widget   string `json:"widget"`
	Snapshot any    `json:"snapshot"`
}

// GetDashboard returns the current snapshot of every widget.
func (h *Handler) GetDashboard(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-dashboard")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"widgets": h.dashboard.Snapshots()})
}

// Refresh forces one widget to refetch and returns its new snapshot.
func (h *Handler) Refresh(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.refresh")
	defer span.End()

	name := c.Param("hook")
	span.SetAttributes(attribute.String("hook", name))

	snap, err := h.dashboard.Refetch(ctx, name)
	if errors.Is(err, job.ErrUnknownWidget) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, StreamMessage{Widget: name, Snapshot: snap})
}

// Stream upgrades to a WebSocket, sends every widget's snapshot, then pushes
// each change as it is applied. Slow clients drop updates instead of
// blocking the hooks.
func (h *Handler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("stream upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates := make(chan StreamMessage, streamBuffer)
	unsubscribe := h.dashboard.Subscribe(func(name string, snap any) {
		select {
		case updates <- StreamMessage{Widget: name, Snapshot: snap}:
		default:
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for name, snap := range h.dashboard.Snapshots() {
		if err := writeStream(conn, StreamMessage{Widget: name, Snapshot: snap}); err != nil {
			return
		}
	}

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case msg := <-updates:
			if err := writeStream(conn, msg); err != nil {
				log.Printf("stream write failed: %v", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeStream(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(msg)
}
