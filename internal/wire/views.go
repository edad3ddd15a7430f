// Package wire holds the JSON shapes of the HTTP API. The same order view is
// stored in the Redis view cache, so cached and uncached responses are
// byte-compatible.
package wire

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-sales-orders/internal/salesorders"
)

func init() {
	// Amounts go out as JSON numbers. Decoding accepts numbers and strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type OrderView struct {
	SalesOrderID       int64           `json:"salesOrderId"`
	OrderNumber        string          `json:"orderNumber"`
	OrderDate          time.Time       `json:"orderDate"`
	ClientID           int64           `json:"clientId"`
	ClientName         string          `json:"clientName"`
	DeliveryAddress    string          `json:"deliveryAddress"`
	DeliveryCity       string          `json:"deliveryCity"`
	DeliveryPostalCode string          `json:"deliveryPostalCode"`
	DeliveryCountry    string          `json:"deliveryCountry"`
	TotalExclAmount    decimal.Decimal `json:"totalExclAmount"`
	TotalTaxAmount     decimal.Decimal `json:"totalTaxAmount"`
	TotalInclAmount    decimal.Decimal `json:"totalInclAmount"`
	OrderDetails       []OrderLineView `json:"orderDetails"`
	Version            int64           `json:"version"`
}

type OrderLineView struct {
	SalesOrderDetailID int64           `json:"salesOrderDetailId"`
	SalesOrderID       int64           `json:"salesOrderId"`
	ItemID             int64           `json:"itemId"`
	ItemCode           string          `json:"itemCode"`
	ItemDescription    string          `json:"itemDescription"`
	Note               string          `json:"note"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	TaxRate            decimal.Decimal `json:"taxRate"`
	ExclAmount         decimal.Decimal `json:"exclAmount"`
	TaxAmount          decimal.Decimal `json:"taxAmount"`
	InclAmount         decimal.Decimal `json:"inclAmount"`
}

type ClientView struct {
	ClientID   int64  `json:"clientId"`
	ClientName string `json:"clientName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type ItemView struct {
	ItemID      int64           `json:"itemId"`
	ItemCode    string          `json:"itemCode"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// NewOrderView maps an order aggregate. OrderDetails is never null.
func NewOrderView(o salesorders.SalesOrder) OrderView {
	v := OrderView{
		SalesOrderID:       o.ID,
		OrderNumber:        o.OrderNumber,
		OrderDate:          o.OrderDate.UTC(),
		ClientID:           o.ClientID,
		ClientName:         o.ClientName,
		DeliveryAddress:    o.Delivery.Address,
		DeliveryCity:       o.Delivery.City,
		DeliveryPostalCode: o.Delivery.PostalCode,
		DeliveryCountry:    o.Delivery.Country,
		TotalExclAmount:    o.Totals.Excl,
		TotalTaxAmount:     o.Totals.Tax,
		TotalInclAmount:    o.Totals.Incl,
		OrderDetails:       make([]OrderLineView, 0, len(o.Lines)),
		Version:            o.Version,
	}
	for _, l := range o.Lines {
		v.OrderDetails = append(v.OrderDetails, OrderLineView{
			SalesOrderDetailID: l.ID,
			SalesOrderID:       l.SalesOrderID,
			ItemID:             l.ItemID,
			ItemCode:           l.ItemCode,
			ItemDescription:    l.ItemDescription,
			Note:               l.Note,
			Quantity:           l.Quantity,
			UnitPrice:          l.UnitPrice,
			TaxRate:            l.TaxRate,
			ExclAmount:         l.Amounts.Excl,
			TaxAmount:          l.Amounts.Tax,
			InclAmount:         l.Amounts.Incl,
		})
	}
	return v
}

func NewOrderViews(orders []salesorders.SalesOrder) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderView(o))
	}
	return out
}

func NewClientView(c salesorders.Client) ClientView {
	return ClientView{
		ClientID:   c.ID,
		ClientName: c.Name,
		Address:    c.Address,
		City:       c.City,
		PostalCode: c.PostalCode,
		Country:    c.Country,
	}
}

func NewClientViews(cs []salesorders.Client) []ClientView {
	out := make([]ClientView, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewClientView(c))
	}
	return out
}

func NewItemView(it salesorders.Item) ItemView {
	return ItemView{
		ItemID:      it.ID,
		ItemCode:    it.Code,
		Description: it.Description,
		UnitPrice:   it.UnitPrice,
	}
}

func NewItemViews(items []salesorders.Item) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		out = append(out, NewItemView(it))
	}
	return out
}
