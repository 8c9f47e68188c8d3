// internal/adapters/out/db/payment_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	dbcommon "gamestore/internal/adapters/out/db/common"
	paymentdom "gamestore/internal/domain/payment"
)

type PaymentRepositoryPG struct {
	DB *sql.DB
}

func NewPaymentRepositoryPG(db *sql.DB) *PaymentRepositoryPG {
	return &PaymentRepositoryPG{DB: db}
}

const paymentColumns = `reference, order_id, session_id, method, amount, currency, status, redirect_url, tx_id, error_type, created_at, updated_at`

func (r *PaymentRepositoryPG) Create(ctx context.Context, p paymentdom.Payment) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := dbcommon.GetRunner(ctx, r.DB).ExecContext(ctx, q, paymentArgs(p)...)
	if dbcommon.IsUniqueViolation(err) {
		return paymentdom.ErrConflict
	}
	return err
}

func (r *PaymentRepositoryPG) GetByReference(ctx context.Context, reference string) (paymentdom.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE reference = $1`, strings.TrimSpace(reference))
}

func (r *PaymentRepositoryPG) GetByTxID(ctx context.Context, txID string) (paymentdom.Payment, error) {
	tx := strings.TrimSpace(txID)
	if tx == "" {
		return paymentdom.Payment{}, paymentdom.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE tx_id = $1`, tx)
}

func (r *PaymentRepositoryPG) ListByOrder(ctx context.Context, orderID string) ([]paymentdom.Payment, error) {
	rows, err := dbcommon.GetRunner(ctx, r.DB).QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at ASC`,
		strings.TrimSpace(orderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]paymentdom.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PaymentRepositoryPG) Save(ctx context.Context, p paymentdom.Payment) error {
	const q = `
UPDATE payments
SET status = $1, tx_id = $2, error_type = $3, redirect_url = $4, updated_at = $5
WHERE reference = $6`
	var errType sql.NullString
	if p.ErrorType != nil {
		errType = dbcommon.NullString(*p.ErrorType)
	}
	res, err := dbcommon.GetRunner(ctx, r.DB).ExecContext(ctx, q,
		string(p.Status), dbcommon.NullString(p.TxID), errType, p.RedirectURL, p.UpdatedAt.UTC(), p.Reference)
	if dbcommon.IsUniqueViolation(err) {
		return paymentdom.ErrConflict
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return paymentdom.ErrNotFound
	}
	return nil
}

func (r *PaymentRepositoryPG) getOne(ctx context.Context, q string, arg any) (paymentdom.Payment, error) {
	row := dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx, q, arg)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return paymentdom.Payment{}, paymentdom.ErrNotFound
	}
	return p, err
}

func paymentArgs(p paymentdom.Payment) []any {
	var errType sql.NullString
	if p.ErrorType != nil {
		errType = dbcommon.NullString(*p.ErrorType)
	}
	return []any{
		p.Reference, p.OrderID, p.SessionID, string(p.Method), p.Amount, p.Currency,
		string(p.Status), p.RedirectURL, dbcommon.NullString(p.TxID), errType,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	}
}

func scanPayment(s dbcommon.RowScanner) (paymentdom.Payment, error) {
	var (
		p               paymentdom.Payment
		method, status  string
		txID, errorType sql.NullString
	)
	if err := s.Scan(
		&p.Reference, &p.OrderID, &p.SessionID, &method, &p.Amount, &p.Currency,
		&status, &p.RedirectURL, &txID, &errorType, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return paymentdom.Payment{}, err
	}
	p.Method = paymentdom.Method(method)
	p.Status = paymentdom.Status(status)
	p.TxID = txID.String
	p.ErrorType = dbcommon.FromNullString(errorType)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
