// Package fulfillment auto-confirms freshly placed orders: it consumes
// order.created events and moves pending orders to confirmed.
package fulfillment

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/hperdana/go-commerce/internal/apperr"
	kafkax "github.com/hperdana/go-commerce/internal/kafka"
	"github.com/hperdana/go-commerce/internal/orders"
)

type OrderService interface {
	Get(ctx context.Context, id, requestingUserID string) (*orders.Order, error)
	UpdateStatus(ctx context.Context, id string, to orders.Status) (*orders.Order, error)
}

type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type Service struct {
	Orders OrderService
	Dedup  Deduper
	Log    *zap.Logger
}

// HandleOrderCreated is the consumer handler. Returning nil commits the
// offset; returning an error leaves the message for redelivery.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	seen, err := s.Dedup.Seen(ctx, env.EventID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	o, err := s.Orders.Get(ctx, p.OrderID, "")
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			// Order vanished between event and processing; nothing to confirm.
			s.Log.Warn("order for created event not found", zap.String("order_id", p.OrderID))
			return s.Dedup.Mark(ctx, env.EventID)
		}
		return err
	}

	if o.Status != orders.StatusPending {
		return s.Dedup.Mark(ctx, env.EventID)
	}

	if _, err := s.Orders.UpdateStatus(ctx, p.OrderID, orders.StatusConfirmed); err != nil {
		// A concurrent confirm or cancel already moved the order on.
		if apperr.Is(err, apperr.CodeInvalidStatusTransition) {
			return s.Dedup.Mark(ctx, env.EventID)
		}
		return err
	}

	s.Log.Info("order confirmed",
		zap.String("order_id", p.OrderID), zap.String("order_number", p.OrderNumber))
	return s.Dedup.Mark(ctx, env.EventID)
}
