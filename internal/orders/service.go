package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hperdana/go-commerce/internal/address"
	"github.com/hperdana/go-commerce/internal/apperr"
	"github.com/hperdana/go-commerce/internal/cart"
	kafkax "github.com/hperdana/go-commerce/internal/kafka"
)

type Repository interface {
	CreateTx(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	UpdateStatusTx(ctx context.Context, id string, to Status) (*Order, error)
	CancelTx(ctx context.Context, id string) (*Order, error)
}

type CartService interface {
	Get(ctx context.Context, userID string) (*cart.View, error)
	Validate(ctx context.Context, userID string) (*cart.Validation, error)
	Clear(ctx context.Context, userID string) error
}

type AddressReader interface {
	// ByID returns (nil, nil) when the address does not exist.
	ByID(ctx context.Context, id string) (*address.Address, error)
}

// Publisher is the slice of the kafka producer checkout needs; events are
// fire-and-forget from the service's point of view.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type CreateInput struct {
	UserID            string
	ShippingAddressID string
}

type Service struct {
	repo      Repository
	cart      CartService
	addresses AddressReader
	// one producer per topic, as the broker writer is topic-bound
	producerCreated Publisher
	producerStatus  Publisher
	log             *zap.Logger

	serviceName  string
	taxRate      decimal.Decimal
	shippingCost decimal.Decimal
}

func NewService(repo Repository, cartSvc CartService, addresses AddressReader,
	producerCreated, producerStatus Publisher, log *zap.Logger, serviceName string,
	taxRate, shippingCost decimal.Decimal) *Service {
	return &Service{
		repo:            repo,
		cart:            cartSvc,
		addresses:       addresses,
		producerCreated: producerCreated,
		producerStatus:  producerStatus,
		log:             log,
		serviceName:     serviceName,
		taxRate:         taxRate,
		shippingCost:    shippingCost,
	}
}

// Create converts the user's cart into a persisted order. The cart is
// cleared only after the transaction commits; a failed clear leaves stale
// cart data behind, which the next validation pass cleans up.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Order, error) {
	addr, err := s.addresses.ByID(ctx, in.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	if addr == nil {
		return nil, apperr.NotFound("Address not found")
	}
	if addr.UserID != in.UserID {
		return nil, apperr.Forbidden("address belongs to another user")
	}

	view, err := s.cart.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, apperr.BadRequest(apperr.CodeCartEmpty, "Cart is empty")
	}

	val, err := s.cart.Validate(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !val.IsValid {
		return nil, apperr.BadRequest(apperr.CodeCartInvalid, "Cart validation failed").
			WithDetails(val.Errors)
	}

	subtotal := val.Cart.Subtotal
	tax := subtotal.Mul(s.taxRate).Round(2)
	total := subtotal.Add(tax).Add(s.shippingCost).Round(2)

	o := &Order{
		ID:                uuid.NewString(),
		OrderNumber:       NewOrderNumber(),
		UserID:            in.UserID,
		Status:            StatusPending,
		Subtotal:          subtotal,
		Tax:               tax,
		Shipping:          s.shippingCost,
		Total:             total,
		ShippingAddressID: addr.ID,
	}
	for _, it := range val.Cart.Items {
		o.Items = append(o.Items, OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
			Total:     it.LineTotal,
		})
	}

	if err := s.repo.CreateTx(ctx, o); err != nil {
		return nil, err
	}

	if err := s.cart.Clear(ctx, in.UserID); err != nil {
		s.log.Warn("cart clear after checkout failed",
			zap.String("user_id", in.UserID), zap.String("order_id", o.ID), zap.Error(err))
	}

	s.publishCreated(o)
	return o, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, apperr.BadRequest(apperr.CodeValidation, "unknown order status")
	}
	return s.repo.List(ctx, f)
}

// Get enforces ownership: a non-empty requestingUserID must own the order.
// Admin callers pass an empty requestingUserID and bypass the check.
func (s *Service) Get(ctx context.Context, id, requestingUserID string) (*Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("Order not found")
	}
	if requestingUserID != "" && o.UserID != requestingUserID {
		return nil, apperr.Forbidden("order belongs to another user")
	}
	return o, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (*Order, error) {
	if !ValidStatus(to) {
		return nil, apperr.BadRequest(apperr.CodeValidation, "unknown order status")
	}
	before, err := s.Get(ctx, id, "")
	if err != nil {
		return nil, err
	}
	if !CanTransition(before.Status, to) {
		return nil, apperr.BadRequest(apperr.CodeInvalidStatusTransition,
			fmt.Sprintf("cannot transition order from %s to %s", before.Status, to))
	}
	// Cancellation is a compensating action, not a plain transition: it
	// must restore stock. Route it through the cancel path once the
	// transition itself is known to be legal.
	if to == StatusCancelled {
		return s.Cancel(ctx, id, "")
	}
	o, err := s.repo.UpdateStatusTx(ctx, id, to)
	if err != nil {
		return nil, err
	}
	s.publishStatusChanged(o, before.Status, to)
	return o, nil
}

func (s *Service) Cancel(ctx context.Context, id, requestingUserID string) (*Order, error) {
	before, err := s.Get(ctx, id, requestingUserID)
	if err != nil {
		return nil, err
	}
	o, err := s.repo.CancelTx(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishStatusChanged(o, before.Status, StatusCancelled)
	return o, nil
}

func (s *Service) publishCreated(o *Order) {
	if s.producerCreated == nil {
		return
	}
	items := make([]EventItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, EventItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.serviceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderCreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			Items:       items,
			Total:       o.Total.StringFixed(2),
		}),
	}
	s.producerCreated.Publish(PartitionKey(o.ID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishStatusChanged(o *Order, from, to Status) {
	if s.producerStatus == nil {
		return
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.serviceName,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderStatusChangedPayload{
			OrderID: o.ID,
			From:    from,
			To:      to,
		}),
	}
	s.producerStatus.Publish(PartitionKey(o.ID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
