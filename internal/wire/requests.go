package wire

import (
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-sales-orders/internal/salesorders"
)

// OrderLineRequest is one submitted line. Display fields the front end echoes
// back (itemCode, amounts, ...) are accepted and ignored.
type OrderLineRequest struct {
	SalesOrderDetailID int64           `json:"salesOrderDetailId"`
	ItemID             int64           `json:"itemId"`
	Note               string          `json:"note"`
	Quantity           int             `json:"quantity"`
	TaxRate            decimal.Decimal `json:"taxRate"`
}

type CreateOrderRequest struct {
	ClientID           int64              `json:"clientId"`
	DeliveryAddress    string             `json:"deliveryAddress"`
	DeliveryCity       string             `json:"deliveryCity"`
	DeliveryPostalCode string             `json:"deliveryPostalCode"`
	DeliveryCountry    string             `json:"deliveryCountry"`
	OrderDetails       []OrderLineRequest `json:"orderDetails"`
}

type UpdateOrderRequest struct {
	SalesOrderID int64 `json:"salesOrderId"`
	CreateOrderRequest
}

func (r CreateOrderRequest) ToInput() salesorders.CreateInput {
	return salesorders.CreateInput{
		ClientID:           r.ClientID,
		DeliveryAddress:    r.DeliveryAddress,
		DeliveryCity:       r.DeliveryCity,
		DeliveryPostalCode: r.DeliveryPostalCode,
		DeliveryCountry:    r.DeliveryCountry,
		Lines:              lineInputs(r.OrderDetails),
	}
}

func (r UpdateOrderRequest) ToInput() salesorders.UpdateInput {
	return salesorders.UpdateInput{
		SalesOrderID:       r.SalesOrderID,
		ClientID:           r.ClientID,
		DeliveryAddress:    r.DeliveryAddress,
		DeliveryCity:       r.DeliveryCity,
		DeliveryPostalCode: r.DeliveryPostalCode,
		DeliveryCountry:    r.DeliveryCountry,
		Lines:              lineInputs(r.OrderDetails),
	}
}

func lineInputs(lines []OrderLineRequest) []salesorders.LineInput {
	out := make([]salesorders.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, salesorders.LineInput{
			LineID:   l.SalesOrderDetailID,
			ItemID:   l.ItemID,
			Note:     l.Note,
			Quantity: l.Quantity,
			TaxRate:  l.TaxRate,
		})
	}
	return out
}
