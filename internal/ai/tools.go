package ai

import (
	"context"
	"encoding/json"
	"time"

	"go-pos-terminal/internal/database"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/money"
	"go-pos-terminal/internal/pos"
	"go-pos-terminal/internal/stock"

	"github.com/google/generative-ai-go/genai"
)

type ProductSearcher interface {
	Search(ctx context.Context, q string) ([]models.Product, error)
}

type StockReader interface {
	Available(productID int64) (stock.Availability, error)
}

type CartReader interface {
	View() pos.View
}

type SalesReporter interface {
	Report(ctx context.Context, r database.Range) (*database.SalesReport, error)
}

// Tools executes the assistant's function calls against live terminal state.
// Any dependency may be nil; its tool then answers with an error.
// Responses only hold values Gemini's struct encoding accepts (strings,
// numbers, []any, map[string]any).
type Tools struct {
	Products ProductSearcher
	Stock    StockReader
	Cart     CartReader
	Sales    SalesReporter
}

func Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "check_stock",
			Description: "Find products by name, SKU or barcode and report their price, tax and units in stock.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query": {Type: genai.TypeString, Description: "Product name, SKU or barcode"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "cart_summary",
			Description: "Get the lines and totals of the sale currently open on this terminal.",
		},
		{
			Name:        "get_sales_report",
			Description: "Get total sales revenue, order count and best sellers for a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
	}
}

func (t *Tools) Execute(ctx context.Context, name string, args map[string]any) map[string]any {
	switch name {
	case "check_stock":
		return t.checkStock(ctx, args)
	case "cart_summary":
		return t.cartSummary()
	case "get_sales_report":
		return t.salesReport(ctx, args)
	}
	return failure("unknown tool " + name)
}

func failure(msg string) map[string]any {
	return map[string]any{"error": msg}
}

func (t *Tools) checkStock(ctx context.Context, args map[string]any) map[string]any {
	if t.Products == nil {
		return failure("catalog unavailable")
	}
	q, _ := args["query"].(string)
	products, err := t.Products.Search(ctx, q)
	if err != nil {
		return failure("could not read the catalog")
	}

	type simpleProduct struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		SKU   string `json:"sku"`
		Price string `json:"price"`
		Tax   string `json:"tax_percentage,omitempty"`
		Stock any    `json:"stock"`
	}
	list := make([]simpleProduct, 0, len(products))
	for _, p := range products {
		sp := simpleProduct{ID: p.ID, Name: p.Name, SKU: p.SKU, Price: money.Format(p.CostPrice), Stock: "unknown"}
		if p.TaxPercentage != nil {
			sp.Tax = p.TaxPercentage.String()
		}
		if t.Stock != nil {
			if a, err := t.Stock.Available(p.ID); err == nil && a.Known {
				sp.Stock = a.Quantity
			}
		}
		list = append(list, sp)
	}
	jsonBytes, _ := json.Marshal(list)
	return map[string]any{"products": string(jsonBytes)}
}

func (t *Tools) cartSummary() map[string]any {
	if t.Cart == nil {
		return failure("no open sale")
	}
	v := t.Cart.View()
	lines := make([]any, 0, len(v.Cart.Items))
	for _, it := range v.Cart.Items {
		lines = append(lines, map[string]any{
			"name":     it.Product.Name,
			"quantity": it.Quantity,
			"total":    money.Format(money.LineSubtotal(it)),
		})
	}
	return map[string]any{
		"lines":    lines,
		"subtotal": money.Format(v.Totals.Subtotal),
		"discount": money.Format(v.Totals.Discount),
		"tax":      money.Format(v.Totals.Tax),
		"total":    money.Format(v.Totals.Total),
	}
}

func (t *Tools) salesReport(ctx context.Context, args map[string]any) map[string]any {
	if t.Sales == nil {
		return failure("sales journal unavailable")
	}
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)
	start, err1 := time.ParseInLocation("2006-01-02", startStr, time.Local)
	end, err2 := time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err1 != nil || err2 != nil {
		return failure("Dates must be in YYYY-MM-DD format.")
	}

	report, err := t.Sales.Report(ctx, database.Range{From: start, To: end.AddDate(0, 0, 1)})
	if err != nil {
		return failure("Error calculating sales.")
	}
	top := make([]any, 0, len(report.TopSelling))
	for _, p := range report.TopSelling {
		top = append(top, map[string]any{"name": p.ProductName, "sold": p.Sold, "revenue": money.Format(p.Revenue)})
	}
	return map[string]any{
		"revenue":     money.Format(report.TotalRevenue),
		"sales_count": report.TotalOrders,
		"top_selling": top,
	}
}
