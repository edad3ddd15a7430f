package ordercache

import (
	"context"
	"encoding/json"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-sales-orders/internal/kafka"
	"github.com/ariefcatur/go-sales-orders/internal/salesorders"
	"github.com/ariefcatur/go-sales-orders/internal/wire"
)

type OrderLoader interface {
	GetOrder(ctx context.Context, id int64) (salesorders.SalesOrder, error)
}

type ViewStore interface {
	Set(ctx context.Context, v wire.OrderView) error
	Evict(ctx context.Context, id int64) error
	Seen(ctx context.Context, consumer, eventID string) (bool, error)
	MarkSeen(ctx context.Context, consumer, eventID string) error
}

const recentEvents = 4096

// Warmer applies order events to the view cache: created and updated orders
// are re-read and stored, deleted ones are evicted.
type Warmer struct {
	orders OrderLoader
	views  ViewStore
	name   string
	log    *zap.Logger
	recent *lru.Cache[string, struct{}]
}

func NewWarmer(orders OrderLoader, views ViewStore, name string, log *zap.Logger) *Warmer {
	if log == nil {
		log = zap.NewNop()
	}
	recent, _ := lru.New[string, struct{}](recentEvents)
	return &Warmer{orders: orders, views: views, name: name, log: log, recent: recent}
}

// HandleMessage is a kafka.Handler. Undecodable messages are logged and
// acknowledged; store and cache failures are returned so the message is
// retried.
func (w *Warmer) HandleMessage(ctx context.Context, m kafkago.Message) error {
	var env salesorders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		w.log.Warn("skipping undecodable event", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	switch env.EventType {
	case salesorders.EventOrderCreated, salesorders.EventOrderUpdated, salesorders.EventOrderDeleted:
	default:
		return nil
	}

	if w.recent.Contains(env.EventID) {
		return nil
	}
	seen, err := w.views.Seen(ctx, w.name, env.EventID)
	if err != nil {
		return err
	}
	if seen {
		w.recent.Add(env.EventID, struct{}{})
		return nil
	}

	p, err := kafkax.UnwrapPayload[salesorders.OrderEventPayload](env.Payload)
	if err != nil {
		w.log.Warn("skipping event with bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	if err := w.apply(ctx, env.EventType, p.SalesOrderID); err != nil {
		return err
	}

	if err := w.views.MarkSeen(ctx, w.name, env.EventID); err != nil {
		return err
	}
	w.recent.Add(env.EventID, struct{}{})
	w.log.Debug("order view refreshed",
		zap.String("event_type", env.EventType),
		zap.Int64("sales_order_id", p.SalesOrderID),
		zap.String("trace_id", env.TraceID))
	return nil
}

func (w *Warmer) apply(ctx context.Context, eventType string, id int64) error {
	if eventType == salesorders.EventOrderDeleted {
		return w.views.Evict(ctx, id)
	}
	o, err := w.orders.GetOrder(ctx, id)
	if errors.Is(err, salesorders.ErrNotFound) {
		// Deleted after the event was published.
		return w.views.Evict(ctx, id)
	}
	if err != nil {
		return err
	}
	return w.views.Set(ctx, wire.NewOrderView(o))
}
