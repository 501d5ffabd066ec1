package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSystemStatus feeds the status bar: which terminal this is and whether
// its stock data can be trusted.
func (h *Handler) GetSystemStatus(c *gin.Context) {
	view := h.Session.View()
	c.JSON(http.StatusOK, gin.H{
		"device_id":         h.TerminalID,
		"stock":             h.Session.Stock.Freshness(),
		"cart_lines":        len(view.Cart.Items),
		"assistant_enabled": h.Agent != nil && h.Agent.Enabled(),
	})
}
