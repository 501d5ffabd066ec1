package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-pos-terminal/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

// SearchLimit matches the size of the search dropdown.
const SearchLimit = 8

type Products struct {
	cache *Cache[models.Product]
}

func NewProducts(load func(ctx context.Context) ([]models.Product, error)) *Products {
	return &Products{cache: NewCache(load, time.Minute)}
}

func (p *Products) All(ctx context.Context) ([]models.Product, error) {
	return p.cache.Get(ctx)
}

// Search matches name, SKU or barcode, case-insensitively.
func (p *Products) Search(ctx context.Context, q string) ([]models.Product, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []models.Product{}, nil
	}
	all, err := p.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Product, 0, SearchLimit)
	for _, prod := range all {
		for _, field := range []string{prod.Name, prod.SKU, prod.BarCode} {
			if field != "" && strings.Contains(strings.ToLower(field), q) {
				out = append(out, prod)
				break
			}
		}
		if len(out) == SearchLimit {
			break
		}
	}
	return out, nil
}

// ByID looks a product up in the cached catalog.
func (p *Products) ByID(ctx context.Context, id int64) (models.Product, error) {
	all, err := p.cache.Get(ctx)
	if err != nil {
		return models.Product{}, err
	}
	for _, prod := range all {
		if prod.ID == id {
			return prod, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

// ByBarcode supports scanner input.
func (p *Products) ByBarcode(ctx context.Context, code string) (models.Product, error) {
	all, err := p.cache.Get(ctx)
	if err != nil {
		return models.Product{}, err
	}
	for _, prod := range all {
		if prod.BarCode != "" && prod.BarCode == code {
			return prod, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (p *Products) Invalidate() { p.cache.Invalidate() }
