package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go-pos-terminal/internal/database"
	"go-pos-terminal/internal/receipt"

	"github.com/gin-gonic/gin"
)

// reportRange reads ?from=YYYY-MM-DD&to=YYYY-MM-DD; "to" is inclusive.
func reportRange(c *gin.Context) (database.Range, error) {
	var r database.Range
	if v := c.Query("from"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return r, fmt.Errorf("from must be YYYY-MM-DD")
		}
		r.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return r, fmt.Errorf("to must be YYYY-MM-DD")
		}
		r.To = t.AddDate(0, 0, 1)
	}
	return r, nil
}

// --- GET: /api/reports ---
func (h *Handler) GetSalesReport(c *gin.Context) {
	r, err := reportRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	report, err := h.Journal.Report(c.Request.Context(), r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate sales report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /api/reports/export ---
func (h *Handler) ExportSales(c *gin.Context) {
	r, err := reportRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := h.Journal.Entries(c.Request.Context(), r, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales"})
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=sales.xlsx")
	c.Status(http.StatusOK)
	if err := database.ExportSalesXLSX(c.Writer, entries); err != nil {
		h.Log.WithError(err).Error("xlsx export failed")
	}
}

// --- GET: /api/journal/:number/receipt ---
// Reprints a past ticket from the local journal.
func (h *Handler) ReprintReceipt(c *gin.Context) {
	entry, err := h.Journal.FindByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.String(http.StatusOK, receipt.Render(receipt.FromJournal(entry), h.Receipt))
}
