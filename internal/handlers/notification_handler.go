package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/notifications ---
func (h *Handler) GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.Hub.Recent())
}

// --- GET: /api/notifications/stream ---
// Server-sent events: one "notification" event per toast.
func (h *Handler) StreamNotifications(c *gin.Context) {
	ch, stop := h.Hub.Listen()
	defer stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent("notification", n)
			c.Writer.Flush()
		}
	}
}
