package salesorders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// orderNumberLockKey serializes order number generation across writers.
const orderNumberLockKey int64 = 0x53414c45534f // "SALESO"

// Repo is the PostgreSQL Store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectOrder = `
	SELECT so.id, so.order_number, so.order_date, so.version, so.client_id, COALESCE(c.client_name, ''),
	       so.delivery_address, so.delivery_city, so.delivery_postal_code, so.delivery_country,
	       so.total_excl_amount, so.total_tax_amount, so.total_incl_amount
	FROM sales_orders so
	LEFT JOIN clients c ON c.id = so.client_id`

const selectLines = `
	SELECT l.id, l.sales_order_id, l.item_id, COALESCE(i.item_code, ''), COALESCE(i.description, ''),
	       l.note, l.quantity, l.unit_price, l.tax_rate, l.excl_amount, l.tax_amount, l.incl_amount
	FROM sales_order_lines l
	LEFT JOIN items i ON i.id = l.item_id
	WHERE l.sales_order_id = ANY($1)
	ORDER BY l.sales_order_id, l.id`

// read runs fn in a read-only snapshot so a header and its lines are consistent.
func (r *Repo) read(ctx context.Context, fn func(q querier) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) ListOrders(ctx context.Context) ([]SalesOrder, error) {
	var out []SalesOrder
	err := r.read(ctx, func(q querier) error {
		rows, err := q.Query(ctx, selectOrder+` ORDER BY so.order_date DESC, so.id DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			out = append(out, o)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return attachLines(ctx, q, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetOrder(ctx context.Context, id int64) (SalesOrder, error) {
	var o SalesOrder
	err := r.read(ctx, func(q querier) error {
		var err error
		o, err = scanOrder(q.QueryRow(ctx, selectOrder+` WHERE so.id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		orders := []SalesOrder{o}
		if err := attachLines(ctx, q, orders); err != nil {
			return err
		}
		o = orders[0]
		return nil
	})
	return o, err
}

func scanOrder(row pgx.Row) (SalesOrder, error) {
	var o SalesOrder
	err := row.Scan(&o.ID, &o.OrderNumber, &o.OrderDate, &o.Version, &o.ClientID, &o.ClientName,
		&o.Delivery.Address, &o.Delivery.City, &o.Delivery.PostalCode, &o.Delivery.Country,
		&o.Totals.Excl, &o.Totals.Tax, &o.Totals.Incl)
	if err != nil {
		return SalesOrder{}, err
	}
	o.OrderDate = o.OrderDate.UTC()
	return o, nil
}

func attachLines(ctx context.Context, q querier, orders []SalesOrder) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	rows, err := q.Query(ctx, selectLines, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	byOrder := map[int64][]SalesOrderLine{}
	for rows.Next() {
		var l SalesOrderLine
		if err := rows.Scan(&l.ID, &l.SalesOrderID, &l.ItemID, &l.ItemCode, &l.ItemDescription,
			&l.Note, &l.Quantity, &l.UnitPrice, &l.TaxRate,
			&l.Amounts.Excl, &l.Amounts.Tax, &l.Amounts.Incl); err != nil {
			return err
		}
		byOrder[l.SalesOrderID] = append(byOrder[l.SalesOrderID], l)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range orders {
		orders[i].Lines = byOrder[orders[i].ID]
	}
	return nil
}

// CreateOrder generates the next order number under a transaction-scoped
// advisory lock and inserts the header and lines in that same transaction.
func (r *Repo) CreateOrder(ctx context.Context, o *SalesOrder) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, orderNumberLockKey); err != nil {
		return fmt.Errorf("lock order numbers: %w", err)
	}
	var last string
	err = tx.QueryRow(ctx, `SELECT order_number FROM sales_orders ORDER BY id DESC LIMIT 1`).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("read last order number: %w", err)
	}
	number, err := NextOrderNumber(last)
	if err != nil {
		return err
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO sales_orders(order_number, order_date, client_id,
		                         delivery_address, delivery_city, delivery_postal_code, delivery_country,
		                         total_excl_amount, total_tax_amount, total_incl_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		number, o.OrderDate, o.ClientID,
		o.Delivery.Address, o.Delivery.City, o.Delivery.PostalCode, o.Delivery.Country,
		o.Totals.Excl, o.Totals.Tax, o.Totals.Incl,
	).Scan(&id)
	if err != nil {
		return translate(err)
	}

	lineIDs, err := insertLines(ctx, tx, id, o.Lines)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(err)
	}

	o.ID = id
	o.OrderNumber = number
	o.Version = 1
	for i := range o.Lines {
		o.Lines[i].ID = lineIDs[i]
		o.Lines[i].SalesOrderID = id
	}
	return nil
}

// ReplaceOrder locks the order row, rewrites the header and swaps the whole
// line set in one transaction.
func (r *Repo) ReplaceOrder(ctx context.Context, o *SalesOrder) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var version int64
	err = tx.QueryRow(ctx, `SELECT version FROM sales_orders WHERE id = $1 FOR UPDATE`, o.ID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sales_orders
		SET client_id = $2, version = version + 1,
		    delivery_address = $3, delivery_city = $4, delivery_postal_code = $5, delivery_country = $6,
		    total_excl_amount = $7, total_tax_amount = $8, total_incl_amount = $9
		WHERE id = $1`,
		o.ID, o.ClientID,
		o.Delivery.Address, o.Delivery.City, o.Delivery.PostalCode, o.Delivery.Country,
		o.Totals.Excl, o.Totals.Tax, o.Totals.Incl,
	); err != nil {
		return translate(err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sales_order_lines WHERE sales_order_id = $1`, o.ID); err != nil {
		return err
	}
	lineIDs, err := insertLines(ctx, tx, o.ID, o.Lines)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(err)
	}

	o.Version = version + 1
	for i := range o.Lines {
		o.Lines[i].ID = lineIDs[i]
		o.Lines[i].SalesOrderID = o.ID
	}
	return nil
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID int64, lines []SalesOrderLine) ([]int64, error) {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		err := tx.QueryRow(ctx, `
			INSERT INTO sales_order_lines(sales_order_id, item_id, note, quantity, unit_price, tax_rate,
			                              excl_amount, tax_amount, incl_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			orderID, l.ItemID, l.Note, l.Quantity, l.UnitPrice, l.TaxRate,
			l.Amounts.Excl, l.Amounts.Tax, l.Amounts.Incl,
		).Scan(&ids[i])
		if err != nil {
			return nil, translate(err)
		}
	}
	return ids, nil
}

func (r *Repo) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	ct, err := r.DB.Exec(ctx, `DELETE FROM sales_orders WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// translate maps constraint violations onto the service's error taxonomy.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	case "23503":
		switch {
		case strings.Contains(pgErr.ConstraintName, "client"):
			return invalid("clientId", "client_does_not_exist")
		case strings.Contains(pgErr.ConstraintName, "item"):
			return invalid("orderDetails", "item_does_not_exist")
		}
	case "22003":
		return invalid("orderDetails", "out_of_range")
	}
	return err
}
