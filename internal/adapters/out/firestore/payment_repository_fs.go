// internal/adapters/out/firestore/payment_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	paymentdom "gamestore/internal/domain/payment"
)

// PaymentRepositoryFS stores payments in "payments" (docId = provider reference).
type PaymentRepositoryFS struct {
	Client *firestore.Client
}

func NewPaymentRepositoryFS(client *firestore.Client) *PaymentRepositoryFS {
	return &PaymentRepositoryFS{Client: client}
}

func (r *PaymentRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("payments")
}

func (r *PaymentRepositoryFS) Create(ctx context.Context, p paymentdom.Payment) error {
	if r == nil || r.Client == nil {
		return errors.New("payment_repository_fs: firestore client is nil")
	}
	ref := strings.TrimSpace(p.Reference)
	if ref == "" {
		return paymentdom.ErrInvalidReference
	}
	_, err := r.col().Doc(ref).Create(ctx, paymentToData(p))
	if isAlreadyExists(err) {
		return paymentdom.ErrConflict
	}
	return err
}

func (r *PaymentRepositoryFS) GetByReference(ctx context.Context, reference string) (paymentdom.Payment, error) {
	if r == nil || r.Client == nil {
		return paymentdom.Payment{}, errors.New("payment_repository_fs: firestore client is nil")
	}
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return paymentdom.Payment{}, paymentdom.ErrNotFound
	}
	snap, err := r.col().Doc(ref).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return paymentdom.Payment{}, paymentdom.ErrNotFound
		}
		return paymentdom.Payment{}, err
	}
	return paymentFromData(snap.Ref.ID, snap.Data()), nil
}

// 決済 ID (txId) で支払いを検索。見つからなければ ErrNotFound。
func (r *PaymentRepositoryFS) GetByTxID(ctx context.Context, txID string) (paymentdom.Payment, error) {
	if r == nil || r.Client == nil {
		return paymentdom.Payment{}, errors.New("payment_repository_fs: firestore client is nil")
	}
	tx := strings.TrimSpace(txID)
	if tx == "" {
		return paymentdom.Payment{}, paymentdom.ErrNotFound
	}
	it := r.col().Where("txId", "==", tx).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return paymentdom.Payment{}, paymentdom.ErrNotFound
	}
	if err != nil {
		return paymentdom.Payment{}, err
	}
	return paymentFromData(snap.Ref.ID, snap.Data()), nil
}

func (r *PaymentRepositoryFS) ListByOrder(ctx context.Context, orderID string) ([]paymentdom.Payment, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("payment_repository_fs: firestore client is nil")
	}
	out := make([]paymentdom.Payment, 0)
	oid := strings.TrimSpace(orderID)
	if oid == "" {
		return out, nil
	}
	it := r.col().Where("orderId", "==", oid).Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, paymentFromData(snap.Ref.ID, snap.Data()))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Save overwrites the mutable fields of an existing payment.
func (r *PaymentRepositoryFS) Save(ctx context.Context, p paymentdom.Payment) error {
	if r == nil || r.Client == nil {
		return errors.New("payment_repository_fs: firestore client is nil")
	}
	ref := strings.TrimSpace(p.Reference)
	if ref == "" {
		return paymentdom.ErrNotFound
	}
	var errType any
	if p.ErrorType != nil {
		errType = *p.ErrorType
	}
	_, err := r.col().Doc(ref).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(p.Status)},
		{Path: "txId", Value: p.TxID},
		{Path: "errorType", Value: errType},
		{Path: "updatedAt", Value: p.UpdatedAt.UTC()},
	})
	if isNotFound(err) {
		return paymentdom.ErrNotFound
	}
	return err
}

func paymentToData(p paymentdom.Payment) map[string]any {
	var errType any
	if p.ErrorType != nil {
		errType = *p.ErrorType
	}
	return map[string]any{
		"orderId":     p.OrderID,
		"sessionId":   p.SessionID,
		"method":      string(p.Method),
		"amount":      p.Amount,
		"currency":    p.Currency,
		"status":      string(p.Status),
		"redirectUrl": p.RedirectURL,
		"txId":        p.TxID,
		"errorType":   errType,
		"createdAt":   p.CreatedAt.UTC(),
		"updatedAt":   p.UpdatedAt.UTC(),
	}
}

func paymentFromData(docID string, raw map[string]any) paymentdom.Payment {
	p := paymentdom.Payment{
		Reference:   docID,
		OrderID:     strings.TrimSpace(asString(raw["orderId"])),
		SessionID:   strings.TrimSpace(asString(raw["sessionId"])),
		Method:      paymentdom.Method(strings.TrimSpace(asString(raw["method"]))),
		Amount:      asInt64(raw["amount"]),
		Currency:    strings.TrimSpace(asString(raw["currency"])),
		Status:      paymentdom.Status(strings.TrimSpace(asString(raw["status"]))),
		RedirectURL: strings.TrimSpace(asString(raw["redirectUrl"])),
		TxID:        strings.TrimSpace(asString(raw["txId"])),
	}
	if s := strings.TrimSpace(asString(raw["errorType"])); s != "" {
		p.ErrorType = &s
	}
	if t, ok := asTime(raw["createdAt"]); ok {
		p.CreatedAt = t
	}
	if t, ok := asTime(raw["updatedAt"]); ok {
		p.UpdatedAt = t
	}
	return p
}
