package orders

import (
	"context"
	"encoding/json"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hperdana/go-commerce/internal/address"
	"github.com/hperdana/go-commerce/internal/apperr"
	"github.com/hperdana/go-commerce/internal/cart"
)

type fakeRepo struct {
	created *Order
	orders  map[string]*Order

	cancelCalled bool
}

func (f *fakeRepo) CreateTx(ctx context.Context, o *Order) error {
	f.created = o
	if f.orders == nil {
		f.orders = map[string]*Order{}
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) List(ctx context.Context, lf ListFilter) ([]Order, int, error) {
	var out []Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateStatusTx(ctx context.Context, id string, to Status) (*Order, error) {
	o := f.orders[id]
	if !CanTransition(o.Status, to) {
		return nil, apperr.BadRequest(apperr.CodeInvalidStatusTransition, "cannot transition")
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) CancelTx(ctx context.Context, id string) (*Order, error) {
	f.cancelCalled = true
	o := f.orders[id]
	switch o.Status {
	case StatusCancelled:
		return nil, apperr.Conflict(apperr.CodeAlreadyCancelled, "Order is already cancelled")
	case StatusDelivered:
		return nil, apperr.Conflict(apperr.CodeCannotCancelDelivered, "Delivered orders cannot be cancelled")
	}
	o.Status = StatusCancelled
	cp := *o
	return &cp, nil
}

type fakeCart struct {
	view       *cart.View
	validation *cart.Validation
	cleared    bool
}

func (f *fakeCart) Get(ctx context.Context, userID string) (*cart.View, error) {
	return f.view, nil
}

func (f *fakeCart) Validate(ctx context.Context, userID string) (*cart.Validation, error) {
	return f.validation, nil
}

func (f *fakeCart) Clear(ctx context.Context, userID string) error {
	f.cleared = true
	return nil
}

type fakeAddresses struct{ byID map[string]*address.Address }

func (f *fakeAddresses) ByID(ctx context.Context, id string) (*address.Address, error) {
	return f.byID[id], nil
}

type fakePublisher struct{ msgs [][]byte }

func (f *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	f.msgs = append(f.msgs, value)
}

func (f *fakePublisher) lastEnvelope(t *testing.T) Envelope {
	t.Helper()
	require.NotEmpty(t, f.msgs)
	var env Envelope
	require.NoError(t, json.Unmarshal(f.msgs[len(f.msgs)-1], &env))
	return env
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func testService(repo *fakeRepo, c *fakeCart, addrs *fakeAddresses) (*Service, *fakePublisher, *fakePublisher) {
	pc, ps := &fakePublisher{}, &fakePublisher{}
	svc := NewService(repo, c, addrs, pc, ps, zap.NewNop(), "test-svc", dec("0.1"), dec("10"))
	return svc, pc, ps
}

func twoItemCart() *cart.View {
	return &cart.View{
		Items: []cart.Item{
			{ProductID: "p1", Name: "Mug", UnitPrice: dec("25"), Quantity: 2, LineTotal: dec("50")},
			{ProductID: "p2", Name: "Kettle", UnitPrice: dec("75"), Quantity: 2, LineTotal: dec("150")},
		},
		TotalItems: 4,
		Subtotal:   dec("200"),
	}
}

func TestCreateOrder(t *testing.T) {
	repo := &fakeRepo{}
	view := twoItemCart()
	fc := &fakeCart{view: view, validation: &cart.Validation{IsValid: true, Cart: view}}
	addrs := &fakeAddresses{byID: map[string]*address.Address{
		"a1": {ID: "a1", UserID: "u1"},
	}}
	svc, pc, _ := testService(repo, fc, addrs)

	o, err := svc.Create(context.Background(), CreateInput{UserID: "u1", ShippingAddressID: "a1"})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.Subtotal.Equal(dec("200")), "subtotal %s", o.Subtotal)
	assert.True(t, o.Tax.Equal(dec("20")), "tax %s", o.Tax)
	assert.True(t, o.Shipping.Equal(dec("10")), "shipping %s", o.Shipping)
	assert.True(t, o.Total.Equal(dec("230")), "total %s", o.Total)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, "a1", o.ShippingAddressID)
	assert.Regexp(t, `^ORD-`, o.OrderNumber)

	assert.True(t, fc.cleared, "cart should be cleared after checkout")
	require.NotNil(t, repo.created)

	env := pc.lastEnvelope(t)
	assert.Equal(t, EventOrderCreated, env.EventType)
	assert.Equal(t, o.ID, env.CorrelationID)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	fc := &fakeCart{view: &cart.View{Items: []cart.Item{}}}
	addrs := &fakeAddresses{byID: map[string]*address.Address{"a1": {ID: "a1", UserID: "u1"}}}
	svc, pc, _ := testService(&fakeRepo{}, fc, addrs)

	_, err := svc.Create(context.Background(), CreateInput{UserID: "u1", ShippingAddressID: "a1"})
	assert.True(t, apperr.Is(err, apperr.CodeCartEmpty))
	assert.Empty(t, pc.msgs)
}

func TestCreateOrderInvalidCart(t *testing.T) {
	view := twoItemCart()
	fc := &fakeCart{
		view: view,
		validation: &cart.Validation{
			IsValid: false,
			Errors:  []string{"Only 1 of Mug available in stock (requested 2)"},
			Cart:    view,
		},
	}
	addrs := &fakeAddresses{byID: map[string]*address.Address{"a1": {ID: "a1", UserID: "u1"}}}
	svc, _, _ := testService(&fakeRepo{}, fc, addrs)

	_, err := svc.Create(context.Background(), CreateInput{UserID: "u1", ShippingAddressID: "a1"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeCartInvalid))
	assert.NotNil(t, apperr.From(err).Details)
}

func TestCreateOrderAddressChecks(t *testing.T) {
	view := twoItemCart()
	fc := &fakeCart{view: view, validation: &cart.Validation{IsValid: true, Cart: view}}
	addrs := &fakeAddresses{byID: map[string]*address.Address{
		"theirs": {ID: "theirs", UserID: "u2"},
	}}
	svc, _, _ := testService(&fakeRepo{}, fc, addrs)

	_, err := svc.Create(context.Background(), CreateInput{UserID: "u1", ShippingAddressID: "missing"})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = svc.Create(context.Background(), CreateInput{UserID: "u1", ShippingAddressID: "theirs"})
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := &fakeRepo{orders: map[string]*Order{
		"o1": {ID: "o1", UserID: "u1", Status: StatusPending},
	}}
	svc, _, _ := testService(repo, &fakeCart{}, &fakeAddresses{})

	_, err := svc.Get(context.Background(), "o1", "u2")
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	o, err := svc.Get(context.Background(), "o1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)

	// admin path bypasses the check
	o, err = svc.Get(context.Background(), "o1", "")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)

	_, err = svc.Get(context.Background(), "nope", "")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestUpdateStatus(t *testing.T) {
	repo := &fakeRepo{orders: map[string]*Order{
		"o1": {ID: "o1", UserID: "u1", Status: StatusPending},
	}}
	svc, _, ps := testService(repo, &fakeCart{}, &fakeAddresses{})

	o, err := svc.UpdateStatus(context.Background(), "o1", StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.Status)

	env := ps.lastEnvelope(t)
	assert.Equal(t, EventOrderStatusChanged, env.EventType)

	_, err = svc.UpdateStatus(context.Background(), "o1", StatusDelivered)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidStatusTransition))

	_, err = svc.UpdateStatus(context.Background(), "o1", "bogus")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestUpdateStatusToCancelledRestoresStock(t *testing.T) {
	repo := &fakeRepo{orders: map[string]*Order{
		"o1": {ID: "o1", UserID: "u1", Status: StatusPending},
	}}
	svc, _, _ := testService(repo, &fakeCart{}, &fakeAddresses{})

	o, err := svc.UpdateStatus(context.Background(), "o1", StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.True(t, repo.cancelCalled, "cancellation must go through the compensating path")
}

func TestUpdateStatusToCancelledObeysStateMachine(t *testing.T) {
	// Shipped and delivered orders have no edge to cancelled; the status
	// endpoint must reject them before reaching the compensating path.
	for _, from := range []Status{StatusShipped, StatusDelivered} {
		repo := &fakeRepo{orders: map[string]*Order{
			"o1": {ID: "o1", UserID: "u1", Status: from},
		}}
		svc, _, ps := testService(repo, &fakeCart{}, &fakeAddresses{})

		_, err := svc.UpdateStatus(context.Background(), "o1", StatusCancelled)
		assert.Truef(t, apperr.Is(err, apperr.CodeInvalidStatusTransition), "from %s: %v", from, err)
		assert.False(t, repo.cancelCalled, "stock restore must not run for an illegal transition")
		assert.Equal(t, from, repo.orders["o1"].Status)
		assert.Empty(t, ps.msgs)
	}
}

func TestCancelGuards(t *testing.T) {
	repo := &fakeRepo{orders: map[string]*Order{
		"done":    {ID: "done", UserID: "u1", Status: StatusDelivered},
		"gone":    {ID: "gone", UserID: "u1", Status: StatusCancelled},
		"pending": {ID: "pending", UserID: "u1", Status: StatusPending},
	}}
	svc, _, ps := testService(repo, &fakeCart{}, &fakeAddresses{})

	_, err := svc.Cancel(context.Background(), "done", "u1")
	assert.True(t, apperr.Is(err, apperr.CodeCannotCancelDelivered))

	_, err = svc.Cancel(context.Background(), "gone", "u1")
	assert.True(t, apperr.Is(err, apperr.CodeAlreadyCancelled))

	_, err = svc.Cancel(context.Background(), "pending", "u2")
	assert.True(t, apperr.Is(err, apperr.CodeForbidden))

	o, err := svc.Cancel(context.Background(), "pending", "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.NotEmpty(t, ps.msgs)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := testService(&fakeRepo{}, &fakeCart{}, &fakeAddresses{})
	_, _, err := svc.List(context.Background(), ListFilter{Status: "refunded"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}
