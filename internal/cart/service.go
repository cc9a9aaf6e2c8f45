package cart

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hperdana/go-commerce/internal/apperr"
	"github.com/hperdana/go-commerce/internal/catalog"
)

// Catalog is the read-only slice of product data the cart needs.
type Catalog interface {
	// ProductByID returns (nil, nil) when the product does not exist.
	ProductByID(ctx context.Context, id string) (*catalog.Product, error)
	ProductsByIDs(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Slug      string          `json:"slug"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Stock     int             `json:"stock"`
}

// View is the priced cart: quantities from the store joined against live
// product state. Prices are never cached on the entries themselves.
type View struct {
	Items      []Item          `json:"items"`
	TotalItems int             `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type Validation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
	Cart    *View    `json:"cart"`
}

type Service struct {
	store   Store
	catalog Catalog
}

func NewService(store Store, cat Catalog) *Service {
	return &Service{store: store, catalog: cat}
}

// Get builds the priced cart view. Products that no longer exist or are
// inactive are excluded from the view but left in the store; Validate is
// the pass that actually removes them.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	raw, err := s.store.Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products, err := s.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &View{Items: []Item{}, Subtotal: decimal.Zero}
	for _, id := range ids {
		p, ok := products[id]
		if !ok || !p.IsActive {
			continue
		}
		qty := raw[id]
		line := p.Price.Mul(decimal.NewFromInt(int64(qty))).Round(2)
		view.Items = append(view.Items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			SKU:       p.SKU,
			Slug:      p.Slug,
			UnitPrice: p.Price,
			Quantity:  qty,
			LineTotal: line,
			Stock:     p.Stock,
		})
		view.TotalItems += qty
		view.Subtotal = view.Subtotal.Add(line)
	}
	view.Subtotal = view.Subtotal.Round(2)
	return view, nil
}

// Add applies a quantity delta for one product. A resulting quantity of
// zero or less deletes the entry.
func (s *Service) Add(ctx context.Context, userID, productID string, delta int) (*View, error) {
	raw, err := s.store.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	newQty := raw[productID] + delta
	if err := s.checkAvailability(ctx, productID, newQty); err != nil {
		return nil, err
	}
	if err := s.store.SetQty(ctx, userID, productID, newQty); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Update sets an absolute quantity. Zero deletes the entry, negative is rejected.
func (s *Service) Update(ctx context.Context, userID, productID string, qty int) (*View, error) {
	if qty < 0 {
		return nil, apperr.BadRequest(apperr.CodeInvalidQuantity, "quantity cannot be negative")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	if err := s.checkAvailability(ctx, productID, qty); err != nil {
		return nil, err
	}
	if err := s.store.SetQty(ctx, userID, productID, qty); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*View, error) {
	if err := s.store.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}

// Validate re-checks every entry against live product state. Entries whose
// product disappeared or went inactive are removed from the store; stock
// shortfalls and price drift are reported but left in place. The returned
// cart reflects the store after removals.
func (s *Service) Validate(ctx context.Context, userID string) (*Validation, error) {
	before, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	priced := make(map[string]decimal.Decimal, len(before.Items))
	for _, it := range before.Items {
		priced[it.ProductID] = it.UnitPrice
	}

	raw, err := s.store.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var issues []string
	for _, id := range ids {
		qty := raw[id]
		p, err := s.catalog.ProductByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			issues = append(issues, fmt.Sprintf("Product %s no longer exists", id))
			if err := s.store.Remove(ctx, userID, id); err != nil {
				return nil, err
			}
			continue
		}
		if !p.IsActive {
			issues = append(issues, fmt.Sprintf("%s is no longer available", p.Name))
			if err := s.store.Remove(ctx, userID, id); err != nil {
				return nil, err
			}
			continue
		}
		if p.Stock < qty {
			issues = append(issues, fmt.Sprintf("Only %d of %s available in stock (requested %d)", p.Stock, p.Name, qty))
		}
		// Best-effort price drift notice: compares the live price with the
		// price the view reported moments ago, not with any stored price.
		if prev, ok := priced[id]; ok && !prev.Equal(p.Price) {
			issues = append(issues, fmt.Sprintf("Price of %s changed from %s to %s", p.Name, prev.StringFixed(2), p.Price.StringFixed(2)))
		}
	}

	after, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Validation{IsValid: len(issues) == 0, Errors: issues, Cart: after}, nil
}

func (s *Service) checkAvailability(ctx context.Context, productID string, wantQty int) error {
	p, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return apperr.NotFound("Product not found")
	}
	if !p.IsActive {
		return apperr.BadRequest(apperr.CodeProductUnavailable, "Product is not available")
	}
	if wantQty > p.Stock {
		return apperr.BadRequest(apperr.CodeInsufficientStock,
			fmt.Sprintf("Only %d items available in stock", p.Stock))
	}
	return nil
}
