// Package memstore is an in-memory salesorders.Store for tests. It applies the
// same referential rules and order numbering as the PostgreSQL store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ariefcatur/go-sales-orders/internal/salesorders"
)

type Store struct {
	mu sync.Mutex

	clients map[int64]salesorders.Client
	items   map[int64]salesorders.Item
	orders  map[int64]salesorders.SalesOrder

	nextClientID int64
	nextItemID   int64
	nextOrderID  int64
	nextLineID   int64

	// ConflictsOnCreate makes the next n CreateOrder calls fail with
	// salesorders.ErrConflict before touching any state.
	ConflictsOnCreate int
	// CreateCalls counts CreateOrder invocations.
	CreateCalls int
}

var _ salesorders.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		clients: map[int64]salesorders.Client{},
		items:   map[int64]salesorders.Item{},
		orders:  map[int64]salesorders.SalesOrder{},
	}
}

// AddClient stores c, assigning an id when c.ID is zero.
func (s *Store) AddClient(c salesorders.Client) salesorders.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		s.nextClientID++
		c.ID = s.nextClientID
	} else if c.ID > s.nextClientID {
		s.nextClientID = c.ID
	}
	s.clients[c.ID] = c
	return c
}

// AddItem stores it, assigning an id when it.ID is zero.
func (s *Store) AddItem(it salesorders.Item) salesorders.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.ID == 0 {
		s.nextItemID++
		it.ID = s.nextItemID
	} else if it.ID > s.nextItemID {
		s.nextItemID = it.ID
	}
	s.items[it.ID] = it
	return it
}

// SetOrderNumber overwrites a stored order number, bypassing all checks.
func (s *Store) SetOrderNumber(id int64, number string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[id]
	o.OrderNumber = number
	s.orders[id] = o
}

// LineCount returns the number of stored lines across all orders.
func (s *Store) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.orders {
		n += len(o.Lines)
	}
	return n
}

func (s *Store) ListClients(ctx context.Context) ([]salesorders.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]salesorders.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetClient(ctx context.Context, id int64) (salesorders.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return salesorders.Client{}, salesorders.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListItems(ctx context.Context) ([]salesorders.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]salesorders.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (salesorders.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return salesorders.Item{}, salesorders.ErrNotFound
	}
	return it, nil
}

func (s *Store) ItemsByID(ctx context.Context, ids []int64) (map[int64]salesorders.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]salesorders.Item, len(ids))
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]salesorders.SalesOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]salesorders.SalesOrder, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, s.populate(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (salesorders.SalesOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return salesorders.SalesOrder{}, salesorders.ErrNotFound
	}
	return s.populate(o), nil
}

func (s *Store) CreateOrder(ctx context.Context, o *salesorders.SalesOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	if s.ConflictsOnCreate > 0 {
		s.ConflictsOnCreate--
		return fmt.Errorf("%w: sales_orders_order_number_key", salesorders.ErrConflict)
	}
	if err := s.checkRefs(o); err != nil {
		return err
	}

	var last string
	var lastID int64
	for id, existing := range s.orders {
		if id > lastID {
			lastID, last = id, existing.OrderNumber
		}
	}
	number, err := salesorders.NextOrderNumber(last)
	if err != nil {
		return err
	}
	for _, existing := range s.orders {
		if existing.OrderNumber == number {
			return fmt.Errorf("%w: sales_orders_order_number_key", salesorders.ErrConflict)
		}
	}

	s.nextOrderID++
	o.ID = s.nextOrderID
	o.OrderNumber = number
	o.Version = 1
	s.assignLines(o)
	s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s *Store) ReplaceOrder(ctx context.Context, o *salesorders.SalesOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[o.ID]
	if !ok {
		return salesorders.ErrNotFound
	}
	if err := s.checkRefs(o); err != nil {
		return err
	}
	s.assignLines(o)
	o.Version = stored.Version + 1
	next := cloneOrder(*o)
	next.OrderNumber = stored.OrderNumber
	next.OrderDate = stored.OrderDate
	s.orders[o.ID] = next
	return nil
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return false, nil
	}
	delete(s.orders, id)
	return true, nil
}

func (s *Store) checkRefs(o *salesorders.SalesOrder) error {
	if _, ok := s.clients[o.ClientID]; !ok {
		return &salesorders.ValidationError{Violations: salesorders.Violations{"clientId": "client_does_not_exist"}}
	}
	for _, l := range o.Lines {
		if _, ok := s.items[l.ItemID]; !ok {
			return &salesorders.ValidationError{Violations: salesorders.Violations{"orderDetails": "item_does_not_exist"}}
		}
	}
	return nil
}

func (s *Store) assignLines(o *salesorders.SalesOrder) {
	for i := range o.Lines {
		s.nextLineID++
		o.Lines[i].ID = s.nextLineID
		o.Lines[i].SalesOrderID = o.ID
	}
}

// populate fills the fields the PostgreSQL store joins in on read.
func (s *Store) populate(o salesorders.SalesOrder) salesorders.SalesOrder {
	o = cloneOrder(o)
	o.ClientName = s.clients[o.ClientID].Name
	for i := range o.Lines {
		it := s.items[o.Lines[i].ItemID]
		o.Lines[i].ItemCode = it.Code
		o.Lines[i].ItemDescription = it.Description
	}
	return o
}

func cloneOrder(o salesorders.SalesOrder) salesorders.SalesOrder {
	if o.Lines != nil {
		o.Lines = append([]salesorders.SalesOrderLine(nil), o.Lines...)
	}
	return o
}
