package salesorders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (r *Repo) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, client_name, address, city, postal_code, country
	                              FROM clients ORDER BY client_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.City, &c.PostalCode, &c.Country); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) GetClient(ctx context.Context, id int64) (Client, error) {
	var c Client
	err := r.DB.QueryRow(ctx, `SELECT id, client_name, address, city, postal_code, country
	                           FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Address, &c.City, &c.PostalCode, &c.Country)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	return c, err
}

func (r *Repo) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, item_code, description, unit_price FROM items ORDER BY item_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *Repo) GetItem(ctx context.Context, id int64) (Item, error) {
	var it Item
	err := r.DB.QueryRow(ctx, `SELECT id, item_code, description, unit_price FROM items WHERE id = $1`, id).
		Scan(&it.ID, &it.Code, &it.Description, &it.UnitPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

// ItemsByID reads all requested items with a single statement, so prices come
// from one snapshot. Unknown ids are simply absent from the result.
func (r *Repo) ItemsByID(ctx context.Context, ids []int64) (map[int64]Item, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, item_code, description, unit_price FROM items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]Item, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func scanItems(rows pgx.Rows) ([]Item, error) {
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Code, &it.Description, &it.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
