package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdom "gamestore/internal/domain/order"
	paymentdom "gamestore/internal/domain/payment"
)

func placeOrder(t *testing.T, f *fixture, session string) orderdom.Order {
	t.Helper()
	ctx := context.Background()
	_, err := f.cart.AddItem(ctx, session, 1, 3)
	require.NoError(t, err)
	o, err := f.order.Checkout(ctx, CheckoutInput{SessionID: session, Customer: validCustomer()})
	require.NoError(t, err)
	return o
}

func newPaymentUC(f *fixture, ps ...paymentdom.Provider) *PaymentUsecase {
	return NewPaymentUsecase(f.orders, f.payments, paymentdom.NewRegistry(ps...)).
		WithNotifier(f.notifier).
		WithEvents(f.events).
		WithClock(fixedClock{testNow})
}

func TestPaymentUsecase_StartRecordsAttempt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	card := &fakeProvider{method: paymentdom.MethodCard}
	uc := newPaymentUC(f, card)

	req, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, "card_ref_1", req.Reference)

	p, err := f.payments.GetByReference(ctx, req.Reference)
	require.NoError(t, err)
	assert.Equal(t, o.Total, p.Amount)
	assert.Equal(t, paymentdom.StatusPending, p.Status)

	got, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "card", got.PaymentMethod)
	assert.Equal(t, req.Reference, got.PaymentReference)
	assert.Equal(t, orderdom.StatusPending, got.Status)
}

func TestPaymentUsecase_StartErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	failing := &fakeProvider{method: paymentdom.MethodFiat, quoteErr: errors.New("gateway down")}
	uc := newPaymentUC(f, failing)

	_, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "paypal"})
	assert.ErrorIs(t, err, paymentdom.ErrUnknownMethod)

	_, err = uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "card"})
	assert.ErrorIs(t, err, paymentdom.ErrUnknownMethod, "method not registered")

	_, err = uc.Start(ctx, StartPaymentInput{SessionID: "other", OrderID: o.ID, Method: "fiat"})
	assert.ErrorIs(t, err, orderdom.ErrNotFound)

	_, err = uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "fiat"})
	assert.ErrorIs(t, err, ErrProviderFailed)

	got, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusPending, got.Status, "provider failure leaves the order pending")
}

func TestPaymentUsecase_ConfirmCompletesOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	wallet := &fakeProvider{method: paymentdom.MethodCryptoWallet, status: paymentdom.StatusCompleted}
	uc := newPaymentUC(f, wallet)

	req, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "crypto_wallet"})
	require.NoError(t, err)

	v, err := uc.Confirm(ctx, req.Reference, "5igSig")
	require.NoError(t, err)
	assert.Equal(t, paymentdom.StatusCompleted, v.Status)
	assert.Equal(t, orderdom.StatusCompleted, v.OrderStatus)
	assert.Equal(t, "5igSig", wallet.lastRef.TxID)

	v, err = uc.Confirm(ctx, req.Reference, "")
	require.NoError(t, err)
	assert.Equal(t, paymentdom.StatusCompleted, v.Status)
	assert.Equal(t, 1, wallet.confirms, "settled payments are not re-queried")

	assert.Equal(t, []string{o.ID}, f.notifier.paid)
	assert.Equal(t, []string{EventOrderPlaced, EventOrderPaid}, f.events.types())

	_, err = uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "crypto_wallet"})
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
}

func TestPaymentUsecase_ApplyEventIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	uc := newPaymentUC(f, &fakeProvider{method: paymentdom.MethodCryptoHosted})

	req, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "crypto_hosted"})
	require.NoError(t, err)

	ev := paymentdom.Event{Method: paymentdom.MethodCryptoHosted, Reference: req.Reference, Status: paymentdom.StatusCompleted}
	_, err = uc.ApplyEvent(ctx, ev)
	require.NoError(t, err)
	v, err := uc.ApplyEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusCompleted, v.OrderStatus)
	assert.Len(t, f.notifier.paid, 1)

	// a late failure never reopens a completed order
	_, err = uc.ApplyEvent(ctx, paymentdom.Event{Reference: req.Reference, Status: paymentdom.StatusFailed})
	require.NoError(t, err)
	got, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusCompleted, got.Status)
}

func TestPaymentUsecase_FailedThenRetry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	uc := newPaymentUC(f, &fakeProvider{method: paymentdom.MethodFiat})

	first, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "fiat"})
	require.NoError(t, err)
	v, err := uc.ApplyEvent(ctx, paymentdom.Event{Reference: first.Reference, Status: paymentdom.StatusFailed, ErrorType: "card_declined"})
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusFailed, v.OrderStatus)

	second, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "fiat"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Reference, second.Reference)

	got, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusPending, got.Status)
	assert.Equal(t, second.Reference, got.PaymentReference)
}

func TestPaymentUsecase_ApplyEventByTxID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	wallet := &fakeProvider{method: paymentdom.MethodCryptoWallet}
	uc := newPaymentUC(f, wallet)

	req, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "crypto_wallet"})
	require.NoError(t, err)
	v, err := uc.Confirm(ctx, req.Reference, "sigABC")
	require.NoError(t, err)
	assert.Equal(t, paymentdom.StatusPending, v.Status)

	v, err = uc.ApplyEvent(ctx, paymentdom.Event{TxID: "sigABC", Status: paymentdom.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, req.Reference, v.Reference)
	assert.Equal(t, orderdom.StatusCompleted, v.OrderStatus)

	_, err = uc.ApplyEvent(ctx, paymentdom.Event{TxID: "unknown", Status: paymentdom.StatusCompleted})
	assert.ErrorIs(t, err, paymentdom.ErrNotFound)
}

func TestPaymentUsecase_Status(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	uc := newPaymentUC(f, &fakeProvider{method: paymentdom.MethodCard})

	req, err := uc.Start(ctx, StartPaymentInput{OrderID: o.ID, Method: "card"})
	require.NoError(t, err)

	v, err := uc.Status(ctx, req.Reference)
	require.NoError(t, err)
	assert.Equal(t, paymentdom.StatusPending, v.Status)
	assert.Equal(t, o.Total, v.Amount)

	_, err = uc.Status(ctx, "missing")
	assert.ErrorIs(t, err, paymentdom.ErrNotFound)
}

func TestPaymentUsecase_ConfirmPassesAmountOwed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	fiat := &fakeProvider{method: paymentdom.MethodFiat}
	uc := newPaymentUC(f, fiat)

	req, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "fiat"})
	require.NoError(t, err)
	_, err = uc.Confirm(ctx, req.Reference, " 4242 ")
	require.NoError(t, err)

	assert.Equal(t, paymentdom.Ref{Reference: req.Reference, TxID: "4242", Amount: o.Total, Currency: "USD"}, fiat.lastRef)
}

func TestPaymentUsecase_RejectedTxIsNotAttached(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	wallet := &fakeProvider{method: paymentdom.MethodCryptoWallet, confirmErr: paymentdom.ErrTxMismatch}
	uc := newPaymentUC(f, wallet)

	req, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "crypto_wallet"})
	require.NoError(t, err)

	_, err = uc.Confirm(ctx, req.Reference, "someone_elses_transfer")
	assert.ErrorIs(t, err, paymentdom.ErrTxMismatch)

	p, err := f.payments.GetByReference(ctx, req.Reference)
	require.NoError(t, err)
	assert.Empty(t, p.TxID)
	assert.Equal(t, paymentdom.StatusPending, p.Status)

	got, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusPending, got.Status)
}

func TestPaymentUsecase_UnderpaidEventFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	uc := newPaymentUC(f, &fakeProvider{method: paymentdom.MethodFiat})

	req, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "fiat"})
	require.NoError(t, err)

	v, err := uc.ApplyEvent(ctx, paymentdom.Event{
		Reference: req.Reference,
		Status:    paymentdom.StatusCompleted,
		Amount:    o.Total - 1,
		Currency:  "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, paymentdom.StatusFailed, v.Status)
	assert.Equal(t, orderdom.StatusFailed, v.OrderStatus)

	p, err := f.payments.GetByReference(ctx, req.Reference)
	require.NoError(t, err)
	require.NotNil(t, p.ErrorType)
	assert.Equal(t, paymentdom.ErrorTypeUnderpaid, *p.ErrorType)
	assert.Empty(t, f.notifier.paid)

	// wrong currency is not a payment either
	v, err = uc.ApplyEvent(ctx, paymentdom.Event{
		Reference: req.Reference,
		Status:    paymentdom.StatusCompleted,
		Amount:    o.Total,
		Currency:  "NGN",
	})
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusFailed, v.OrderStatus)

	v, err = uc.ApplyEvent(ctx, paymentdom.Event{
		Reference: req.Reference,
		Status:    paymentdom.StatusCompleted,
		Amount:    o.Total,
		Currency:  "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusCompleted, v.OrderStatus)
}

func TestPaymentUsecase_RecheckEventAsksProvider(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	wallet := &fakeProvider{method: paymentdom.MethodCryptoWallet}
	uc := newPaymentUC(f, wallet)

	req, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "crypto_wallet"})
	require.NoError(t, err)
	_, err = uc.Confirm(ctx, req.Reference, "sigABC")
	require.NoError(t, err)

	// the provider does not see a full payment yet
	ev := paymentdom.Event{TxID: "sigABC", Status: paymentdom.StatusCompleted, Recheck: true}
	v, err := uc.ApplyEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusPending, v.OrderStatus)
	assert.Equal(t, 2, wallet.confirms)
	assert.Equal(t, o.Total, wallet.lastRef.Amount)

	wallet.status = paymentdom.StatusCompleted
	v, err = uc.ApplyEvent(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, orderdom.StatusCompleted, v.OrderStatus)
}

func TestPaymentUsecase_LocksAreReleased(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := placeOrder(t, f, "s1")
	uc := newPaymentUC(f, &fakeProvider{method: paymentdom.MethodCard})

	req, err := uc.Start(ctx, StartPaymentInput{SessionID: "s1", OrderID: o.ID, Method: "card"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Confirm(ctx, req.Reference, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err = uc.Confirm(ctx, "missing", "")
	assert.ErrorIs(t, err, paymentdom.ErrNotFound)

	uc.locksMu.Lock()
	defer uc.locksMu.Unlock()
	assert.Empty(t, uc.locks)
}
