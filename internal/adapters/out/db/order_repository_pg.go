// internal/adapters/out/db/order_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	dbcommon "gamestore/internal/adapters/out/db/common"
	orderdom "gamestore/internal/domain/order"
)

// OrderRepositoryPG stores orders with customer and items as JSONB.
type OrderRepositoryPG struct {
	DB *sql.DB
}

func NewOrderRepositoryPG(db *sql.DB) *OrderRepositoryPG {
	return &OrderRepositoryPG{DB: db}
}

const orderColumns = `id, session_id, customer, items, total, currency, status, payment_method, payment_reference, created_at, updated_at`

func (r *OrderRepositoryPG) Create(ctx context.Context, o orderdom.Order) error {
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("order_repository_pg: marshal customer: %w", err)
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("order_repository_pg: marshal items: %w", err)
	}

	const q = `
INSERT INTO orders (` + orderColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err = dbcommon.GetRunner(ctx, r.DB).ExecContext(ctx, q,
		o.ID, o.SessionID, string(customer), string(items), o.Total, o.Currency, string(o.Status),
		o.PaymentMethod, o.PaymentReference, o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	)
	if dbcommon.IsUniqueViolation(err) {
		return orderdom.ErrConflict
	}
	return err
}

func (r *OrderRepositoryPG) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	row := dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, strings.TrimSpace(id))
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return o, err
}

func (r *OrderRepositoryPG) ListBySession(ctx context.Context, sessionID string) ([]orderdom.Order, error) {
	rows, err := dbcommon.GetRunner(ctx, r.DB).QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE session_id = $1 ORDER BY created_at DESC, id DESC`,
		strings.TrimSpace(sessionID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]orderdom.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OrderRepositoryPG) UpdatePayment(ctx context.Context, id string, upd orderdom.PaymentUpdate) error {
	const q = `
UPDATE orders
SET status = $1, payment_method = $2, payment_reference = $3, updated_at = $4
WHERE id = $5`
	res, err := dbcommon.GetRunner(ctx, r.DB).ExecContext(ctx, q,
		string(upd.Status), upd.PaymentMethod, upd.PaymentReference, upd.UpdatedAt.UTC(), strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return orderdom.ErrNotFound
	}
	return nil
}

func scanOrder(s dbcommon.RowScanner) (orderdom.Order, error) {
	var (
		o               orderdom.Order
		customer, items []byte
		status          string
	)
	if err := s.Scan(
		&o.ID, &o.SessionID, &customer, &items, &o.Total, &o.Currency, &status,
		&o.PaymentMethod, &o.PaymentReference, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return orderdom.Order{}, err
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return orderdom.Order{}, fmt.Errorf("order_repository_pg: decode customer: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return orderdom.Order{}, fmt.Errorf("order_repository_pg: decode items: %w", err)
	}
	o.Status = orderdom.Status(status)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return o, nil
}
