package salesorders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated = "SalesOrderCreated"
	EventOrderUpdated = "SalesOrderUpdated"
	EventOrderDeleted = "SalesOrderDeleted"

	EventVersion = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // sales order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderEventPayload struct {
	SalesOrderID    int64           `json:"salesOrderId"`
	OrderNumber     string          `json:"orderNumber,omitempty"`
	TotalInclAmount decimal.Decimal `json:"totalInclAmount"`
}

func NewOrderEventPayload(o SalesOrder) OrderEventPayload {
	return OrderEventPayload{
		SalesOrderID:    o.ID,
		OrderNumber:     o.OrderNumber,
		TotalInclAmount: o.Totals.Incl,
	}
}
