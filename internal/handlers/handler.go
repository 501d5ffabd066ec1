package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go-pos-terminal/internal/ai"
	"go-pos-terminal/internal/apiclient"
	"go-pos-terminal/internal/auth"
	"go-pos-terminal/internal/catalog"
	"go-pos-terminal/internal/checkout"
	"go-pos-terminal/internal/config"
	"go-pos-terminal/internal/database"
	"go-pos-terminal/internal/middleware"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/notify"
	"go-pos-terminal/internal/pos"
	"go-pos-terminal/internal/receipt"
	"go-pos-terminal/internal/stock"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Handler serves the terminal's local API to the React client.
type Handler struct {
	Session   *pos.Session
	Products  *catalog.Products
	Invoices  *catalog.Cache[models.Invoice]
	Hub       *notify.Hub
	Journal   *database.Journal
	Operators *database.Operators
	Signer    *auth.Signer
	Agent     *ai.Agent
	Receipt   receipt.Header

	TerminalID        string
	AllowRegistration bool
	Log               logrus.FieldLogger
}

// Routes mounts every route on r.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)
	r.GET("/api/system/status", h.GetSystemStatus)

	// Only opens if we explicitly allow it in .env
	if h.AllowRegistration {
		r.POST("/register", h.Register)
		h.Log.Warn("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		h.Log.Info("🔒 Registration route is safely DISABLED.")
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.Signer))
	{
		api.GET("/products", h.GetProducts)
		api.GET("/products/search", h.SearchProducts)
		api.GET("/products/scan/:barcode", h.ScanProduct)
		api.GET("/stock", h.GetStock)
		api.GET("/invoices", h.ListInvoices)

		api.GET("/pos/cart", h.GetCart)
		api.POST("/pos/cart/items", h.AddItem)
		api.PUT("/pos/cart/items/:id", h.UpdateItem)
		api.DELETE("/pos/cart/items/:id", h.RemoveItem)
		api.DELETE("/pos/cart/last-item", h.RemoveLastItem)
		api.PUT("/pos/cart/discount", h.SetDiscount)
		api.PUT("/pos/cart/tax-rate", h.SetTaxRate)
		api.PUT("/pos/cart/customer", h.SetCustomer)
		api.DELETE("/pos/cart", h.ClearCart)
		api.POST("/pos/checkout", h.ProcessSale)
		api.GET("/pos/last-invoice", h.GetLastInvoice)
		api.GET("/pos/last-invoice/receipt", h.GetLastReceipt)

		api.GET("/notifications", h.GetNotifications)
		api.GET("/notifications/stream", h.StreamNotifications)

		admin := api.Group("/")
		admin.Use(middleware.RequireRole(database.RoleAdmin))
		{
			admin.POST("/ask", h.AskAI)
			admin.GET("/reports", h.GetSalesReport)
			admin.GET("/reports/export", h.ExportSales)
			admin.GET("/reports/valuation", h.GetStockValuation)
			admin.GET("/journal/:number/receipt", h.ReprintReceipt)
		}
	}
}

// fail maps domain errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var (
		apiErr *apiclient.APIError
		verrs  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &verrs):
		status = http.StatusBadRequest
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInFlight),
		errors.Is(err, checkout.ErrClosed),
		errors.Is(err, pos.ErrStockLoading),
		errors.Is(err, pos.ErrClosed),
		errors.Is(err, stock.ErrClosed):
		status = http.StatusConflict
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, database.ErrNotFound),
		errors.Is(err, pos.ErrNoInvoice):
		status = http.StatusNotFound
	case errors.Is(err, ai.ErrNoAPIKey):
		status = http.StatusServiceUnavailable
	case errors.As(err, &apiErr), errors.Is(err, apiclient.ErrUnavailable):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		config.LogError(h.Log, "handlers", "fail", c.FullPath(), nil, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return 0, false
	}
	return id, true
}
