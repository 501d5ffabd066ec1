package handlers

import (
	"net/http"
	"strings"

	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// --- GET: /api/pos/cart ---
func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.Session.View())
}

// respond sends the outcome of a cart mutation together with the new cart.
func (h *Handler) respond(c *gin.Context, res cart.Result) {
	if !res.OK {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": res.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "view": h.Session.View()})
}

type AddItemRequest struct {
	ProductID int64  `json:"product_id"`
	Barcode   string `json:"barcode"`
}

// --- POST: /api/pos/cart/items ---
// One unit per call, like a scanner beep.
func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.ProductID == 0 && strings.TrimSpace(req.Barcode) == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id or barcode is required"})
		return
	}

	// 1. Resolve scanner input to a catalog id
	if req.ProductID == 0 {
		p, err := h.Products.ByBarcode(c.Request.Context(), strings.TrimSpace(req.Barcode))
		if err != nil {
			h.fail(c, err)
			return
		}
		req.ProductID = p.ID
	}

	// 2. Add, capped by known stock
	res, err := h.Session.AddProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, res)
}

type QuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// --- PUT: /api/pos/cart/items/:id ---
func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}
	res, err := h.Session.UpdateQuantity(id, *req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, res)
}

// --- DELETE: /api/pos/cart/items/:id ---
func (h *Handler) RemoveItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	h.Session.Store.RemoveProduct(id)
	c.JSON(http.StatusOK, gin.H{"success": true, "view": h.Session.View()})
}

// --- DELETE: /api/pos/cart/last-item ---
// Bound to the "undo last scan" key on the terminal.
func (h *Handler) RemoveLastItem(c *gin.Context) {
	removed, ok := h.Session.Store.RemoveLast()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Cart is empty"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "removed": removed, "view": h.Session.View()})
}

type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

// --- PUT: /api/pos/cart/discount ---
func (h *Handler) SetDiscount(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}
	h.respond(c, h.Session.Store.SetDiscount(*req.Amount))
}

type RateRequest struct {
	Rate *decimal.Decimal `json:"rate" binding:"required"`
}

// --- PUT: /api/pos/cart/tax-rate ---
// rate is a fraction, 0.15 for 15%.
func (h *Handler) SetTaxRate(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rate is required"})
		return
	}
	h.respond(c, h.Session.Store.SetTaxRate(*req.Rate))
}

type CustomerRequest struct {
	CustomerName  string               `json:"customer_name" binding:"max=120"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"omitempty,oneof=CASH CARD TRANSFER CHECK"`
}

// --- PUT: /api/pos/cart/customer ---
func (h *Handler) SetCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	h.Session.Store.SetCustomerName(req.CustomerName)
	if req.PaymentMethod != "" {
		h.Session.Store.SetPaymentMethod(req.PaymentMethod)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "view": h.Session.View()})
}

// --- DELETE: /api/pos/cart ---
func (h *Handler) ClearCart(c *gin.Context) {
	h.Session.Store.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true, "view": h.Session.View()})
}
