package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go-pos-terminal/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTokens struct {
	issued      atomic.Int32
	invalidated atomic.Int32
}

func (c *countingTokens) Token(context.Context) (string, error) {
	n := c.issued.Add(1)
	if n == 1 {
		return "stale", nil
	}
	return "fresh", nil
}

func (c *countingTokens) Invalidate() { c.invalidated.Add(1) }

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	log, _ := test.NewNullLogger()
	return New(Config{BaseURL: srv.URL + "/", TerminalID: "NINE-TEST", Transport: http.DefaultTransport, Timeout: time.Second}, tokens, log)
}

func TestInventories_AcceptsEnvelopes(t *testing.T) {
	bodies := map[string]string{
		"bare":    `[{"id":1,"quantity":3,"minStock":1,"product":{"id":10}}]`,
		"content": `{"content":[{"id":1,"quantity":3,"minStock":1,"product":{"id":10}}],"totalPages":1}`,
		"items":   `{"items":[{"id":1,"quantity":3,"minStock":1,"productId":10}]}`,
		"data":    `{"data":[{"id":1,"quantity":3,"minStock":1,"product":{"id":10}}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/inventories", r.URL.Path)
				assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
				assert.Equal(t, "NINE-TEST", r.Header.Get("X-Terminal-ID"))
				_, _ = io.WriteString(w, body)
			}, staticTokens("abc"))

			levels, err := c.Inventories(context.Background())

			require.NoError(t, err)
			require.Len(t, levels, 1)
			assert.Equal(t, int64(10), levels[0].ProductRef())
			assert.Equal(t, 3, levels[0].Quantity)
		})
	}
}

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }
func (staticTokens) Invalidate()                             {}

func TestProducts_UnknownShapeIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total":0}`)
	}, nil)

	products, err := c.Products(context.Background())

	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreateInvoice_SendsPayloadAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "INV-1", got["invoiceNumber"])
		assert.Equal(t, 230.0, got["totalAmount"], "amounts travel as JSON numbers")
		items := got["invoiceItems"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, map[string]any{"id": 5.0}, items[0].(map[string]any)["product"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":99,"invoiceNumber":"INV-1","status":"PAID","totalAmount":230,"invoiceItems":[]}`)
	}, staticTokens("t"))

	inv, err := c.CreateInvoice(context.Background(), models.InvoiceRequest{
		InvoiceNumber: "INV-1",
		TotalAmount:   decimal.NewFromInt(230),
		InvoiceItems: []models.InvoiceItem{{
			Description: "Coffee", Quantity: 2,
			UnitPrice: decimal.NewFromInt(100), TotalPrice: decimal.NewFromInt(200),
			Product: &models.ProductLink{ID: 5},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(99), inv.ID)
	assert.Equal(t, models.InvoicePaid, inv.Status)
}

func TestCreateInvoice_ErrorShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"invoice number already used"}`)
	}, nil)

	_, err := c.CreateInvoice(context.Background(), models.InvoiceRequest{InvoiceNumber: "INV-1"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "invoice number already used", apiErr.Message)
}

func TestUnauthorizedRetriesWithFreshToken(t *testing.T) {
	tokens := &countingTokens{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}, tokens)

	_, err := c.Invoices(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(1), tokens.invalidated.Load())
}

func TestBreakerOpensAfterRepeatedServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, nil)

	for i := 0; i < 5; i++ {
		_, err := c.Inventories(context.Background())
		require.Error(t, err)
	}
	_, err := c.Inventories(context.Background())

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, int32(5), hits.Load())
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, nil)

	for i := 0; i < 8; i++ {
		_, err := c.Products(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"accessToken":"xyz"}`)
	}, nil)

	tok, err := c.Login(context.Background(), "terminal", "pw")

	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)
}
