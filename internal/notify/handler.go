package notify

import (
	"io"
	"time"

	"studioslot/internal/logger"
	"studioslot/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// StreamEvents godoc
// @Summary      Live reservation feed
// @Description  Server-sent events stream of new reservations. Admin only.
// @Description  Each event auto-dismisses after its expires_at.
// @Tags         notifications
// @Security     BearerAuth
// @Produce      text/event-stream
// @Success      200  {string}  string
// @Router       /admin/events [get]
func (h *Handler) StreamEvents(c *gin.Context) {
	sessionID := uuid.NewString()
	events := h.hub.Subscribe(sessionID)
	metrics.SetNotificationSubscribers(h.hub.SubscriberCount())

	defer func() {
		h.hub.Unsubscribe(sessionID)
		metrics.SetNotificationSubscribers(h.hub.SubscriberCount())
	}()

	logger.Info("staff session subscribed to reservation feed", "session_id", sessionID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("reservation", ev)
			metrics.RecordNotificationDelivered()
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().Unix())
			return true
		}
	})

	logger.Info("staff session left reservation feed", "session_id", sessionID)
}
