package salesorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultCreateAttempts = 3

// Service prices, totals and persists sales order aggregates.
type Service struct {
	store          Store
	logger         *zap.Logger
	now            func() time.Time
	createAttempts int
}

type Option func(*Service)

// WithClock replaces time.Now as the source of order dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCreateAttempts bounds how many times a create is tried when the store
// reports ErrConflict.
func WithCreateAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.createAttempts = n
		}
	}
}

func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:          store,
		logger:         logger,
		now:            time.Now,
		createAttempts: defaultCreateAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ListOrders(ctx context.Context) ([]SalesOrder, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (SalesOrder, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return SalesOrder{}, fmt.Errorf("get sales order %d: %w", id, err)
	}
	return o, nil
}

// CreateOrder prices the submitted lines against the catalog, drops lines whose
// item does not exist, totals the rest and persists the aggregate. The
// returned order is re-read from the store.
func (s *Service) CreateOrder(ctx context.Context, in CreateInput) (SalesOrder, error) {
	if err := validateInput(in, in.Lines); err != nil {
		return SalesOrder{}, err
	}
	lines, err := s.price(ctx, in.Lines)
	if err != nil {
		return SalesOrder{}, fmt.Errorf("create sales order: %w", err)
	}

	o := SalesOrder{
		OrderDate: s.now().UTC().Truncate(time.Microsecond),
		ClientID:  in.ClientID,
		Delivery: Delivery{
			Address:    in.DeliveryAddress,
			City:       in.DeliveryCity,
			PostalCode: in.DeliveryPostalCode,
			Country:    in.DeliveryCountry,
		},
		Lines:  lines,
		Totals: Aggregate(lines),
	}

	for attempt := 1; ; attempt++ {
		o.ID, o.OrderNumber = 0, ""
		err = s.store.CreateOrder(ctx, &o)
		if err == nil {
			break
		}
		if errors.Is(err, ErrConflict) && attempt < s.createAttempts {
			s.logger.Warn("sales order create conflict, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		return SalesOrder{}, fmt.Errorf("create sales order: %w", err)
	}

	created, err := s.store.GetOrder(ctx, o.ID)
	if err != nil {
		return SalesOrder{}, fmt.Errorf("reload sales order %d: %w", o.ID, err)
	}
	s.logger.Info("sales order created",
		zap.Int64("sales_order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.Int("lines", len(created.Lines)),
		zap.String("total_incl", created.Totals.Incl.String()))
	return created, nil
}

// UpdateOrder overwrites the client and delivery snapshot of an existing order
// and replaces its whole line set. Order number and date are kept.
func (s *Service) UpdateOrder(ctx context.Context, in UpdateInput) (SalesOrder, error) {
	if err := validateInput(in, in.Lines); err != nil {
		return SalesOrder{}, err
	}
	o, err := s.store.GetOrder(ctx, in.SalesOrderID)
	if err != nil {
		return SalesOrder{}, fmt.Errorf("update sales order %d: %w", in.SalesOrderID, err)
	}

	lines, err := s.price(ctx, in.Lines)
	if err != nil {
		return SalesOrder{}, fmt.Errorf("update sales order %d: %w", o.ID, err)
	}
	for i := range lines {
		lines[i].SalesOrderID = o.ID
	}

	o.ClientID = in.ClientID
	o.ClientName = ""
	o.Delivery = Delivery{
		Address:    in.DeliveryAddress,
		City:       in.DeliveryCity,
		PostalCode: in.DeliveryPostalCode,
		Country:    in.DeliveryCountry,
	}
	o.Lines = lines
	o.Totals = Aggregate(lines)

	if err := s.store.ReplaceOrder(ctx, &o); err != nil {
		return SalesOrder{}, fmt.Errorf("update sales order %d: %w", o.ID, err)
	}

	updated, err := s.store.GetOrder(ctx, o.ID)
	if err != nil {
		return SalesOrder{}, fmt.Errorf("reload sales order %d: %w", o.ID, err)
	}
	s.logger.Info("sales order updated",
		zap.Int64("sales_order_id", updated.ID),
		zap.String("order_number", updated.OrderNumber),
		zap.Int("lines", len(updated.Lines)),
		zap.String("total_incl", updated.Totals.Incl.String()))
	return updated, nil
}

// DeleteOrder removes an order and its lines. It reports false when no order
// with id existed.
func (s *Service) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.DeleteOrder(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete sales order %d: %w", id, err)
	}
	if ok {
		s.logger.Info("sales order deleted", zap.Int64("sales_order_id", id))
	}
	return ok, nil
}

func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	cs, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return cs, nil
}

func (s *Service) GetClient(ctx context.Context, id int64) (Client, error) {
	c, err := s.store.GetClient(ctx, id)
	if err != nil {
		return Client{}, fmt.Errorf("get client %d: %w", id, err)
	}
	return c, nil
}

func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return it, nil
}

// price looks every referenced item up once and prices the lines. Lines with
// an unknown item are dropped.
func (s *Service) price(ctx context.Context, inputs []LineInput) ([]SalesOrderLine, error) {
	ids := make([]int64, 0, len(inputs))
	seen := make(map[int64]bool, len(inputs))
	for _, in := range inputs {
		if !seen[in.ItemID] {
			seen[in.ItemID] = true
			ids = append(ids, in.ItemID)
		}
	}
	items := map[int64]Item{}
	if len(ids) > 0 {
		var err error
		if items, err = s.store.ItemsByID(ctx, ids); err != nil {
			return nil, fmt.Errorf("load items: %w", err)
		}
	}
	lines, skipped := priceLines(items, inputs)
	for _, id := range skipped {
		s.logger.Warn("dropping sales order line for unknown item", zap.Int64("item_id", id))
	}
	return lines, nil
}
