package salesorders

import "context"

// Catalog is the read-only view of clients and items.
type Catalog interface {
	ListClients(ctx context.Context) ([]Client, error)
	GetClient(ctx context.Context, id int64) (Client, error)
	ListItems(ctx context.Context) ([]Item, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	// ItemsByID returns the items that exist among ids, read from one snapshot.
	ItemsByID(ctx context.Context, ids []int64) (map[int64]Item, error)
}

// Store persists sales order aggregates. Every write is all-or-nothing.
type Store interface {
	Catalog

	// ListOrders returns fully populated orders, most recent order date first.
	ListOrders(ctx context.Context) ([]SalesOrder, error)
	GetOrder(ctx context.Context, id int64) (SalesOrder, error)
	// CreateOrder assigns the order number, order id and line ids inside the
	// same unit of work that inserts the header and lines.
	CreateOrder(ctx context.Context, o *SalesOrder) error
	// ReplaceOrder overwrites the header of an existing order, except its
	// number and date, and replaces its whole line set.
	ReplaceOrder(ctx context.Context, o *SalesOrder) error
	// DeleteOrder reports whether an order existed.
	DeleteOrder(ctx context.Context, id int64) (bool, error)
}
