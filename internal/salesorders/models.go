package salesorders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	ID         int64
	Name       string
	Address    string
	City       string
	PostalCode string
	Country    string
}

type Item struct {
	ID          int64
	Code        string
	Description string
	UnitPrice   decimal.Decimal
}

// LineAmounts are the derived money fields of one line. Incl is always Excl+Tax.
type LineAmounts struct {
	Excl decimal.Decimal
	Tax  decimal.Decimal
	Incl decimal.Decimal
}

// Totals are the order-level sums of LineAmounts.
type Totals struct {
	Excl decimal.Decimal
	Tax  decimal.Decimal
	Incl decimal.Decimal
}

type SalesOrderLine struct {
	ID           int64
	SalesOrderID int64
	ItemID       int64
	Note         string
	Quantity     int
	UnitPrice    decimal.Decimal
	TaxRate      decimal.Decimal
	Amounts      LineAmounts

	// Filled on read from the items table.
	ItemCode        string
	ItemDescription string
}

type SalesOrder struct {
	ID          int64
	OrderNumber string
	OrderDate   time.Time
	ClientID    int64
	Delivery    Delivery
	Totals      Totals
	Lines       []SalesOrderLine
	// Version starts at 1 and is incremented by every replace.
	Version int64

	// Filled on read from the clients table.
	ClientName string
}

// Delivery is a snapshot of the address taken when the order is written.
type Delivery struct {
	Address    string
	City       string
	PostalCode string
	Country    string
}

// LineInput is one submitted line. LineID is informational only: lines are
// always re-created on write. Field tags name the wire field reported in
// validation errors.
type LineInput struct {
	LineID   int64           `field:"salesOrderDetailId" validate:"gte=0"`
	ItemID   int64           `field:"itemId" validate:"gt=0"`
	Note     string          `field:"note" validate:"max=500"`
	Quantity int             `field:"quantity" validate:"gt=0,lte=2147483647"`
	TaxRate  decimal.Decimal `field:"taxRate" validate:"-"`
}

type CreateInput struct {
	ClientID           int64       `field:"clientId" validate:"gt=0"`
	DeliveryAddress    string      `field:"deliveryAddress" validate:"max=500"`
	DeliveryCity       string      `field:"deliveryCity" validate:"max=100"`
	DeliveryPostalCode string      `field:"deliveryPostalCode" validate:"max=20"`
	DeliveryCountry    string      `field:"deliveryCountry" validate:"max=100"`
	Lines              []LineInput `field:"orderDetails" validate:"dive"`
}

type UpdateInput struct {
	SalesOrderID       int64       `field:"salesOrderId" validate:"gt=0"`
	ClientID           int64       `field:"clientId" validate:"gt=0"`
	DeliveryAddress    string      `field:"deliveryAddress" validate:"max=500"`
	DeliveryCity       string      `field:"deliveryCity" validate:"max=100"`
	DeliveryPostalCode string      `field:"deliveryPostalCode" validate:"max=20"`
	DeliveryCountry    string      `field:"deliveryCountry" validate:"max=100"`
	Lines              []LineInput `field:"orderDetails" validate:"dive"`
}
