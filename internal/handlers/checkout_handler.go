package handlers

import (
	"net/http"

	"go-pos-terminal/internal/checkout"
	"go-pos-terminal/internal/middleware"
	"go-pos-terminal/internal/pos"
	"go-pos-terminal/internal/receipt"

	"github.com/gin-gonic/gin"
)

// --- POST: /api/pos/checkout ---
func (h *Handler) ProcessSale(c *gin.Context) {
	var d checkout.Details
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if d.PaymentMethod == "" {
		d.PaymentMethod = h.Session.Store.Snapshot().PaymentMethod
	}

	// Tag the sale with the operator (set by AuthMiddleware)
	ctx := pos.WithOperator(c.Request.Context(), c.GetUint(middleware.KeyOperatorID))

	sale, err := h.Session.Complete(ctx, d)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := gin.H{
		"message": "Sale successful!",
		"invoice": sale.Invoice,
	}
	// The invoice exists remotely, so a kept cart is still a 201.
	if sale.Warning != "" {
		resp["warning"] = sale.Warning
	}
	c.JSON(http.StatusCreated, resp)
}

// --- GET: /api/pos/last-invoice ---
func (h *Handler) GetLastInvoice(c *gin.Context) {
	inv, err := h.Session.LastInvoice()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// --- GET: /api/pos/last-invoice/receipt ---
// Plain-text 80mm ticket for the browser print dialog.
func (h *Handler) GetLastReceipt(c *gin.Context) {
	inv, err := h.Session.LastInvoice()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.String(http.StatusOK, receipt.Render(inv, h.Receipt))
}
