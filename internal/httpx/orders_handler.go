package httpx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-sales-orders/internal/kafka"
	"github.com/ariefcatur/go-sales-orders/internal/salesorders"
	"github.com/ariefcatur/go-sales-orders/internal/wire"
)

// OrderCache is the optional order view cache. Set must ignore views older
// than the cached version and Evict must keep later fills of a deleted order
// out.
type OrderCache interface {
	Get(ctx context.Context, id int64) (wire.OrderView, bool, error)
	Set(ctx context.Context, v wire.OrderView) error
	Evict(ctx context.Context, id int64) error
}

// EventPublisher is the optional domain event sink.
type EventPublisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header) error
}

type OrdersHandler struct {
	Service     *salesorders.Service
	Producer    EventPublisher // nil disables events
	Cache       OrderCache     // nil disables the view cache
	ServiceName string
	Log         *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/SalesOrders", h.listOrders)
	r.Post("/SalesOrders", h.createOrder)
	r.Get("/SalesOrders/{id}", h.getOrder)
	r.Put("/SalesOrders/{id}", h.updateOrder)
	r.Delete("/SalesOrders/{id}", h.deleteOrder)
}

func (h *OrdersHandler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.ListOrders(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.NewOrderViews(orders))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid_id")
		return
	}
	ctx := r.Context()

	// 1) cache
	if h.Cache != nil {
		v, hit, err := h.Cache.Get(ctx, id)
		if err != nil {
			h.logger().Warn("order cache read failed", zap.Int64("sales_order_id", id), zap.Error(err))
		}
		if hit {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}

	// 2) store
	o, err := h.Service.GetOrder(ctx, id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	v := wire.NewOrderView(o)
	h.store(ctx, v)
	writeJSON(w, http.StatusOK, v)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req wire.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.Service.CreateOrder(r.Context(), req.ToInput())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	h.publish(r.Context(), salesorders.EventOrderCreated, o)

	w.Header().Set("Location", fmt.Sprintf("/SalesOrders/%d", o.ID))
	writeJSON(w, http.StatusCreated, wire.NewOrderView(o))
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid_id")
		return
	}
	var req wire.UpdateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SalesOrderID != id {
		badRequest(w, "id_mismatch")
		return
	}
	o, err := h.Service.UpdateOrder(r.Context(), req.ToInput())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	v := wire.NewOrderView(o)
	h.store(r.Context(), v)
	h.publish(r.Context(), salesorders.EventOrderUpdated, o)
	writeJSON(w, http.StatusOK, v)
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		badRequest(w, "invalid_id")
		return
	}
	deleted, err := h.Service.DeleteOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found"})
		return
	}
	h.evict(r.Context(), id)
	h.publish(r.Context(), salesorders.EventOrderDeleted, salesorders.SalesOrder{ID: id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) store(ctx context.Context, v wire.OrderView) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Set(ctx, v); err != nil {
		h.logger().Warn("order cache write failed", zap.Int64("sales_order_id", v.SalesOrderID), zap.Error(err))
	}
}

func (h *OrdersHandler) evict(ctx context.Context, id int64) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Evict(ctx, id); err != nil {
		h.logger().Warn("order cache evict failed", zap.Int64("sales_order_id", id), zap.Error(err))
	}
}

// publish emits a domain event after the write has committed. Failures are
// logged; the response is not affected.
func (h *OrdersHandler) publish(ctx context.Context, eventType string, o salesorders.SalesOrder) {
	if h.Producer == nil {
		return
	}
	ev := salesorders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  salesorders.EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.ServiceName,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: fmt.Sprint(o.ID),
		Payload:       kafkax.MustMarshal(salesorders.NewOrderEventPayload(o)),
	}
	err := h.Producer.Publish(ctx, salesorders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkax.EventHeaders(eventType, salesorders.EventVersion)...)
	if err != nil {
		h.logger().Warn("publish order event failed",
			zap.String("event_type", eventType),
			zap.Int64("sales_order_id", o.ID),
			zap.Error(err))
	}
}
