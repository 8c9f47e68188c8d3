// internal/adapters/out/firestore/order_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	orderdom "gamestore/internal/domain/order"
)

// OrderRepositoryFS stores one document per order in "orders" (docId = order id).
type OrderRepositoryFS struct {
	Client *firestore.Client
}

func NewOrderRepositoryFS(client *firestore.Client) *OrderRepositoryFS {
	return &OrderRepositoryFS{Client: client}
}

func (r *OrderRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("orders")
}

// 新しい注文を作成。同じ ID が既に存在する場合は ErrConflict。
func (r *OrderRepositoryFS) Create(ctx context.Context, o orderdom.Order) error {
	if r == nil || r.Client == nil {
		return errors.New("order_repository_fs: firestore client is nil")
	}
	id := strings.TrimSpace(o.ID)
	if id == "" {
		return orderdom.ErrInvalidID
	}
	_, err := r.col().Doc(id).Create(ctx, orderToData(o))
	if isAlreadyExists(err) {
		return orderdom.ErrConflict
	}
	return err
}

func (r *OrderRepositoryFS) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return orderdom.Order{}, errors.New("order_repository_fs: firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return orderdom.Order{}, orderdom.ErrNotFound
		}
		return orderdom.Order{}, err
	}
	return orderFromData(snap.Ref.ID, snap.Data()), nil
}

// ListBySession はセッションの注文を新しい順に返します。
// 複合インデックスを不要にするため、並び替えはメモリ上で行います。
func (r *OrderRepositoryFS) ListBySession(ctx context.Context, sessionID string) ([]orderdom.Order, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("order_repository_fs: firestore client is nil")
	}
	sid := strings.TrimSpace(sessionID)
	out := make([]orderdom.Order, 0)
	if sid == "" {
		return out, nil
	}

	it := r.col().Where("sessionId", "==", sid).Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, orderFromData(snap.Ref.ID, snap.Data()))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// 部分更新: 支払い関連のフィールドだけを Firestore の Update で書き換えます。
func (r *OrderRepositoryFS) UpdatePayment(ctx context.Context, id string, upd orderdom.PaymentUpdate) error {
	if r == nil || r.Client == nil {
		return errors.New("order_repository_fs: firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return orderdom.ErrNotFound
	}
	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(upd.Status)},
		{Path: "paymentMethod", Value: upd.PaymentMethod},
		{Path: "paymentReference", Value: upd.PaymentReference},
		{Path: "updatedAt", Value: upd.UpdatedAt.UTC()},
	})
	if isNotFound(err) {
		return orderdom.ErrNotFound
	}
	return err
}

// -----------------------------------------
// Firestore mapping
// -----------------------------------------

func orderToData(o orderdom.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"gameId":   it.GameID,
			"title":    it.Title,
			"price":    it.Price,
			"quantity": it.Quantity,
		})
	}
	return map[string]any{
		"sessionId": o.SessionID,
		"customerInfo": map[string]any{
			"fullName": o.Customer.FullName,
			"email":    o.Customer.Email,
			"phone":    o.Customer.Phone,
			"address":  o.Customer.Address,
			"country":  o.Customer.Country,
			"state":    o.Customer.State,
		},
		"items":            items,
		"total":            o.Total,
		"currency":         o.Currency,
		"status":           string(o.Status),
		"paymentMethod":    o.PaymentMethod,
		"paymentReference": o.PaymentReference,
		"createdAt":        o.CreatedAt.UTC(),
		"updatedAt":        o.UpdatedAt.UTC(),
	}
}

func orderFromData(docID string, raw map[string]any) orderdom.Order {
	o := orderdom.Order{
		ID:               docID,
		SessionID:        strings.TrimSpace(asString(raw["sessionId"])),
		Total:            asInt64(raw["total"]),
		Currency:         strings.TrimSpace(asString(raw["currency"])),
		Status:           orderdom.Status(strings.TrimSpace(asString(raw["status"]))),
		PaymentMethod:    strings.TrimSpace(asString(raw["paymentMethod"])),
		PaymentReference: strings.TrimSpace(asString(raw["paymentReference"])),
	}
	if c := asMap(raw["customerInfo"]); c != nil {
		o.Customer = orderdom.CustomerInfo{
			FullName: asString(c["fullName"]),
			Email:    asString(c["email"]),
			Phone:    asString(c["phone"]),
			Address:  asString(c["address"]),
			Country:  asString(c["country"]),
			State:    asString(c["state"]),
		}
	}
	if arr, ok := raw["items"].([]any); ok {
		o.Items = make([]orderdom.ItemSnapshot, 0, len(arr))
		for _, v := range arr {
			m := asMap(v)
			if m == nil {
				continue
			}
			o.Items = append(o.Items, orderdom.ItemSnapshot{
				GameID:   asInt(m["gameId"]),
				Title:    asString(m["title"]),
				Price:    asInt64(m["price"]),
				Quantity: asInt(m["quantity"]),
			})
		}
	}
	if t, ok := asTime(raw["createdAt"]); ok {
		o.CreatedAt = t
	}
	if t, ok := asTime(raw["updatedAt"]); ok {
		o.UpdatedAt = t
	}
	return o
}
