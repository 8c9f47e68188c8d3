package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdom "gamestore/internal/domain/order"
)

func TestOrderUsecase_CheckoutSnapshotsAndClearsCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 1, 2)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, "s1", 2, 1)
	require.NoError(t, err)

	clientTotal := int64(1)
	o, err := f.order.Checkout(ctx, CheckoutInput{SessionID: "s1", Customer: validCustomer(), ClientTotal: &clientTotal})
	require.NoError(t, err)

	assert.Equal(t, "ord_1", o.ID)
	assert.Equal(t, orderdom.StatusPending, o.Status)
	assert.Equal(t, int64(3240), o.Total, "server total wins over client total")
	assert.Equal(t, "USD", o.Currency)
	require.Len(t, o.Items, 2)
	assert.Equal(t, orderdom.ItemSnapshot{GameID: 1, Title: "Crypto Charades", Price: 1200, Quantity: 2}, o.Items[0])

	lines, err := f.cart.ListItems(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	assert.Equal(t, []string{"ord_1"}, f.notifier.placed)
	assert.Equal(t, []string{EventOrderPlaced}, f.events.types())
}

func TestOrderUsecase_OrderImmutableAfterPriceChange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 1, 3)
	require.NoError(t, err)
	o, err := f.order.Checkout(ctx, CheckoutInput{SessionID: "s1", Customer: validCustomer()})
	require.NoError(t, err)

	g, err := f.games.GetByID(ctx, 1)
	require.NoError(t, err)
	g.Price = 9999
	f.games.Put(g)

	got, err := f.order.Get(ctx, "s1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), got.Items[0].Price)
	assert.Equal(t, int64(3240), got.Total)
}

func TestOrderUsecase_EmptyCartRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.order.Checkout(ctx, CheckoutInput{SessionID: "s1", Customer: validCustomer()})
	assert.ErrorIs(t, err, orderdom.ErrEmptyCart)

	list, err := f.order.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOrderUsecase_ValidationPersistsNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 1, 1)
	require.NoError(t, err)

	bad := validCustomer()
	bad.Email = "nope"
	bad.State = " "
	_, err = f.order.Checkout(ctx, CheckoutInput{SessionID: "s1", Customer: bad})
	require.ErrorIs(t, err, orderdom.ErrValidation)

	var ve *orderdom.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Has("email"))
	assert.True(t, ve.Has("state"))

	list, err := f.order.List(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)

	lines, err := f.cart.ListItems(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, lines, 1, "cart untouched on validation failure")
}

func TestOrderUsecase_CartClearFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 1, 1)
	require.NoError(t, err)

	uc := NewOrderUsecase(f.orders, failingUpdateCarts{f.carts}, f.games).WithClock(fixedClock{testNow})
	o, err := uc.Checkout(ctx, CheckoutInput{SessionID: "s1", Customer: validCustomer()})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), o.Total)
}

func TestOrderUsecase_AddDuringCheckoutIsKept(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 1, 1)
	require.NoError(t, err)

	gate := newGatedGames(f.games)
	uc := NewOrderUsecase(f.orders, f.carts, gate).WithClock(fixedClock{testNow})
	uc.newID = seqIDs("ord")

	type result struct {
		o   orderdom.Order
		err error
	}
	done := make(chan result, 1)
	go func() {
		o, err := uc.Checkout(ctx, CheckoutInput{SessionID: "s1", Customer: validCustomer()})
		done <- result{o, err}
	}()

	<-gate.entered
	_, err = f.cart.AddItem(ctx, "s1", 2, 2)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, "s1", 1, 2)
	require.NoError(t, err)
	close(gate.release)

	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.o.Items, 1)
	assert.Equal(t, 1, res.o.Items[0].GameID)
	assert.Equal(t, 1, res.o.Items[0].Quantity)

	lines, err := f.cart.ListItems(ctx, "s1")
	require.NoError(t, err)
	got := map[int]int{}
	for _, l := range lines {
		got[l.GameID] = l.Quantity
	}
	assert.Equal(t, map[int]int{1: 2, 2: 2}, got)
}

func TestOrderUsecase_NotifierFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.notifier.failErr = errors.New("smtp down")

	_, err := f.cart.AddItem(ctx, "s1", 2, 13)
	require.NoError(t, err)
	o, err := f.order.Checkout(ctx, CheckoutInput{SessionID: "s1", Customer: validCustomer()})
	require.NoError(t, err)
	assert.Equal(t, int64(13200), o.Total)
}

func TestOrderUsecase_GetIsSessionScoped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "alice", 1, 1)
	require.NoError(t, err)
	o, err := f.order.Checkout(ctx, CheckoutInput{SessionID: "alice", Customer: validCustomer()})
	require.NoError(t, err)

	_, err = f.order.Get(ctx, "bob", o.ID)
	assert.ErrorIs(t, err, orderdom.ErrNotFound)

	_, err = f.order.Get(ctx, "", o.ID)
	assert.NoError(t, err)

	bobs, err := f.order.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobs)
}
