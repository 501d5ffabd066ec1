package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go-pos-terminal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ReadThroughAndInvalidate(t *testing.T) {
	calls := 0
	c := NewCache(func(context.Context) ([]int, error) {
		calls++
		return []int{calls}, nil
	}, time.Minute)
	now := time.Unix(0, 0)
	c.now = func() time.Time { return now }

	got, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)

	got, _ = c.Get(context.Background())
	assert.Equal(t, []int{1}, got)

	c.Invalidate()
	got, _ = c.Get(context.Background())
	assert.Equal(t, []int{2}, got)

	now = now.Add(time.Minute)
	got, _ = c.Get(context.Background())
	assert.Equal(t, []int{3}, got)
}

func TestCache_ServesPreviousListOnFailure(t *testing.T) {
	fail := false
	c := NewCache(func(context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("down")
		}
		return []string{"a"}, nil
	}, time.Minute)

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	fail = true
	c.Invalidate()
	got, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestCache_FirstFailureIsReturned(t *testing.T) {
	c := NewCache(func(context.Context) ([]string, error) { return nil, errors.New("down") }, time.Minute)
	_, err := c.Get(context.Background())
	assert.EqualError(t, err, "down")
}

func fixtureProducts() []models.Product {
	var out []models.Product
	for i := 1; i <= 12; i++ {
		out = append(out, models.Product{ID: int64(i), Name: fmt.Sprintf("Soda %d", i), SKU: fmt.Sprintf("SD-%02d", i)})
	}
	out = append(out,
		models.Product{ID: 50, Name: "Rice 1kg", SKU: "RC-1", BarCode: "7501234567890"},
		models.Product{ID: 51, Name: "Beans", SKU: "BN-1"},
	)
	return out
}

func TestProducts_Search(t *testing.T) {
	p := NewProducts(func(context.Context) ([]models.Product, error) { return fixtureProducts(), nil })
	ctx := context.Background()

	got, err := p.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, _ = p.Search(ctx, "SODA")
	assert.Len(t, got, SearchLimit)

	got, _ = p.Search(ctx, "bn-")
	require.Len(t, got, 1)
	assert.Equal(t, int64(51), got[0].ID)

	got, _ = p.Search(ctx, "456789")
	require.Len(t, got, 1)
	assert.Equal(t, int64(50), got[0].ID)
}

func TestProducts_Lookups(t *testing.T) {
	p := NewProducts(func(context.Context) ([]models.Product, error) { return fixtureProducts(), nil })
	ctx := context.Background()

	prod, err := p.ByID(ctx, 51)
	require.NoError(t, err)
	assert.Equal(t, "Beans", prod.Name)

	_, err = p.ByID(ctx, 404)
	assert.ErrorIs(t, err, ErrProductNotFound)

	prod, err = p.ByBarcode(ctx, "7501234567890")
	require.NoError(t, err)
	assert.Equal(t, int64(50), prod.ID)
}
