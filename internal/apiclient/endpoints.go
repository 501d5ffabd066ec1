package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go-pos-terminal/internal/models"
)

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &raw); err != nil {
		return nil, err
	}
	products, err := unwrapList[models.Product](raw)
	if err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// Inventories feeds the stock oracle.
func (c *Client) Inventories(ctx context.Context) ([]models.InventoryLevel, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/inventories", nil, &raw); err != nil {
		return nil, err
	}
	levels, err := unwrapList[models.InventoryLevel](raw)
	if err != nil {
		return nil, fmt.Errorf("decode inventories: %w", err)
	}
	return levels, nil
}

func (c *Client) Invoices(ctx context.Context) ([]models.Invoice, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/invoices", nil, &raw); err != nil {
		return nil, err
	}
	invoices, err := unwrapList[models.Invoice](raw)
	if err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	return invoices, nil
}

// CreateInvoice submits a sale. Some deployments wrap the created record in
// {"data": {...}}; both shapes are accepted.
func (c *Client) CreateInvoice(ctx context.Context, req models.InvoiceRequest) (*models.Invoice, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/invoices", req, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		Data *models.Invoice `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}
	var inv models.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	if inv.ID == 0 && inv.InvoiceNumber == "" {
		return nil, errors.New("shop api returned an empty invoice")
	}
	return &inv, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var out struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return "", err
	}
	if out.Token != "" {
		return out.Token, nil
	}
	if out.AccessToken != "" {
		return out.AccessToken, nil
	}
	return "", errors.New("login answer carried no token")
}
