package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperdana/go-commerce/internal/apperr"
	"github.com/hperdana/go-commerce/internal/catalog"
)

type memStore struct{ carts map[string]map[string]int }

func newMemStore() *memStore { return &memStore{carts: map[string]map[string]int{}} }

func (m *memStore) Items(ctx context.Context, userID string) (map[string]int, error) {
	out := map[string]int{}
	for k, v := range m.carts[userID] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) SetQty(ctx context.Context, userID, productID string, qty int) error {
	if qty <= 0 {
		return m.Remove(ctx, userID, productID)
	}
	if m.carts[userID] == nil {
		m.carts[userID] = map[string]int{}
	}
	m.carts[userID][productID] = qty
	return nil
}

func (m *memStore) Remove(ctx context.Context, userID, productID string) error {
	delete(m.carts[userID], productID)
	return nil
}

func (m *memStore) Clear(ctx context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

type memCatalog struct{ products map[string]catalog.Product }

func (m *memCatalog) ProductByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memCatalog) ProductsByIDs(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func fixtureCatalog() *memCatalog {
	return &memCatalog{products: map[string]catalog.Product{
		"p1": {ID: "p1", Name: "Mug", SKU: "MUG-1", Price: dec("9.99"), Stock: 10, IsActive: true},
		"p2": {ID: "p2", Name: "Kettle", SKU: "KET-1", Price: dec("45.50"), Stock: 3, IsActive: true},
		"p3": {ID: "p3", Name: "Retired", SKU: "RET-1", Price: dec("5"), Stock: 7, IsActive: false},
	}}
}

func TestGetPricesCart(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, fixtureCatalog())
	ctx := context.Background()

	require.NoError(t, store.SetQty(ctx, "u1", "p1", 2))
	require.NoError(t, store.SetQty(ctx, "u1", "p2", 1))

	v, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, v.Items, 2)
	assert.Equal(t, 3, v.TotalItems)
	// 2*9.99 + 45.50
	assert.True(t, v.Subtotal.Equal(dec("65.48")), "subtotal %s", v.Subtotal)
}

func TestGetSkipsInactiveAndMissing(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, fixtureCatalog())
	ctx := context.Background()

	require.NoError(t, store.SetQty(ctx, "u1", "p1", 1))
	require.NoError(t, store.SetQty(ctx, "u1", "p3", 1))
	require.NoError(t, store.SetQty(ctx, "u1", "ghost", 1))

	v, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)
	assert.Equal(t, "p1", v.Items[0].ProductID)

	// Get does not touch the store; cleanup is Validate's job
	raw, _ := store.Items(ctx, "u1")
	assert.Len(t, raw, 3)
}

func TestAddAccumulates(t *testing.T) {
	svc := NewService(newMemStore(), fixtureCatalog())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "p1", 2)
	require.NoError(t, err)
	v, err := svc.Add(ctx, "u1", "p1", 3)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 5, v.Items[0].Quantity)
}

func TestAddChecksStock(t *testing.T) {
	svc := NewService(newMemStore(), fixtureCatalog())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "p2", 4)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientStock))
	assert.Equal(t, "Only 3 items available in stock", apperr.From(err).Message)

	// the cumulative quantity is what gets checked
	_, err = svc.Add(ctx, "u1", "p2", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u1", "p2", 2)
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientStock))
}

func TestAddUnknownOrInactiveProduct(t *testing.T) {
	svc := NewService(newMemStore(), fixtureCatalog())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "ghost", 1)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = svc.Add(ctx, "u1", "p3", 1)
	assert.True(t, apperr.Is(err, apperr.CodeProductUnavailable))
}

func TestUpdateQuantity(t *testing.T) {
	svc := NewService(newMemStore(), fixtureCatalog())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "p1", 2)
	require.NoError(t, err)

	v, err := svc.Update(ctx, "u1", "p1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v.Items[0].Quantity)

	_, err = svc.Update(ctx, "u1", "p1", -1)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidQuantity))

	// zero means remove
	v, err = svc.Update(ctx, "u1", "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}

func TestClear(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, fixtureCatalog())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "u1"))

	v, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}

func TestValidateCleanCart(t *testing.T) {
	svc := NewService(newMemStore(), fixtureCatalog())
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", "p1", 2)
	require.NoError(t, err)

	val, err := svc.Validate(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, val.IsValid)
	assert.Empty(t, val.Errors)
	assert.Len(t, val.Cart.Items, 1)
}

func TestValidateRemovesDeadEntries(t *testing.T) {
	store := newMemStore()
	cat := fixtureCatalog()
	svc := NewService(store, cat)
	ctx := context.Background()

	require.NoError(t, store.SetQty(ctx, "u1", "p1", 2))
	require.NoError(t, store.SetQty(ctx, "u1", "p3", 1)) // inactive
	require.NoError(t, store.SetQty(ctx, "u1", "ghost", 1))

	val, err := svc.Validate(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, val.IsValid)
	assert.Len(t, val.Errors, 2)

	raw, _ := store.Items(ctx, "u1")
	assert.Len(t, raw, 1, "dead entries should be gone from the store")
	assert.Len(t, val.Cart.Items, 1)
}

func TestValidateReportsStockShortfall(t *testing.T) {
	store := newMemStore()
	cat := fixtureCatalog()
	svc := NewService(store, cat)
	ctx := context.Background()

	require.NoError(t, store.SetQty(ctx, "u1", "p2", 5)) // stock is 3

	val, err := svc.Validate(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, val.IsValid)
	require.Len(t, val.Errors, 1)
	assert.Contains(t, val.Errors[0], "Only 3 of Kettle available in stock")

	// shortfall entries stay in the cart for the user to adjust
	raw, _ := store.Items(ctx, "u1")
	assert.Equal(t, 5, raw["p2"])
}
