package handlers

import (
	"net/http"
	"sort"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/pos"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// --- GET: /api/products ---
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.Products.All(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: /api/products/search?q= ---
// Feeds the search dropdown: name, SKU or barcode, at most 8 hits.
func (h *Handler) SearchProducts(c *gin.Context) {
	products, err := h.Products.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- GET: /api/products/scan/:barcode ---
func (h *Handler) ScanProduct(c *gin.Context) {
	p, err := h.Products.ByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.fail(c, err)
		return
	}
	avail, _ := h.Session.Stock.Available(p.ID)
	c.JSON(http.StatusOK, gin.H{"product": p, "stock": avail})
}

// --- GET: /api/stock ---
func (h *Handler) GetStock(c *gin.Context) {
	resp := gin.H{"freshness": h.Session.Stock.Freshness()}
	if snap := h.Session.Stock.Levels(); snap != nil {
		resp["levels"] = snap.Levels
	}
	c.JSON(http.StatusOK, resp)
}

// --- GET: /api/invoices ---
func (h *Handler) ListInvoices(c *gin.Context) {
	invoices, err := h.Invoices.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// ValuationItem is one row of the valuation table
type ValuationItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup is one table of the report (e.g. "DRINKS")
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// --- GET: /api/reports/valuation ---
// GetStockValuation values the stock snapshot at catalog prices.
func (h *Handler) GetStockValuation(c *gin.Context) {
	snap := h.Session.Stock.Levels()
	if snap == nil {
		h.fail(c, pos.ErrStockLoading)
		return
	}
	products, err := h.Products.All(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, valuation(products, snap.Levels))
}

func valuation(products []models.Product, levels map[int64]int) ValuationResponse {
	grandTotal := decimal.Zero
	groupedMap := make(map[string]*CategoryGroup)

	for _, p := range products {
		catName := "Uncategorized"
		if len(p.Categories) > 0 && p.Categories[0].Name != "" {
			catName = p.Categories[0].Name
		}
		group, exists := groupedMap[catName]
		if !exists {
			group = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}, Subtotal: decimal.Zero}
			groupedMap[catName] = group
		}

		qty := levels[p.ID]
		itemTotal := p.CostPrice.Mul(decimal.NewFromInt(int64(qty)))
		group.Items = append(group.Items, ValuationItem{
			Name:      p.Name,
			Quantity:  qty,
			CostPrice: p.CostPrice,
			TotalCost: itemTotal,
		})
		group.Subtotal = group.Subtotal.Add(itemTotal)
		grandTotal = grandTotal.Add(itemTotal)
	}

	response := ValuationResponse{Categories: []CategoryGroup{}, GrandTotal: grandTotal}
	for _, group := range groupedMap {
		response.Categories = append(response.Categories, *group)
	}
	sort.Slice(response.Categories, func(i, j int) bool {
		return response.Categories[i].CategoryName < response.Categories[j].CategoryName
	})
	return response
}
