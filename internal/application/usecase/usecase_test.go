package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gamestore/internal/adapters/out/memory"
	cartdom "gamestore/internal/domain/cart"
	gamedom "gamestore/internal/domain/game"
	orderdom "gamestore/internal/domain/order"
	paymentdom "gamestore/internal/domain/payment"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func seqIDs(prefix string) IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s_%d", prefix, n)
	}
}

type recordingNotifier struct {
	mu      sync.Mutex
	placed  []string
	paid    []string
	failErr error
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, o orderdom.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, o.ID)
	return n.failErr
}

func (n *recordingNotifier) PaymentReceived(_ context.Context, o orderdom.Order, _ paymentdom.Payment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paid = append(n.paid, o.ID)
	return n.failErr
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeProvider struct {
	method     paymentdom.Method
	quoteErr   error
	confirmErr error
	status     paymentdom.Status
	confirms   int
	lastRef    paymentdom.Ref
	n          int
}

func (f *fakeProvider) Method() paymentdom.Method { return f.method }

func (f *fakeProvider) Quote(_ context.Context, in paymentdom.QuoteInput) (*paymentdom.Request, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	f.n++
	return &paymentdom.Request{
		Method:      f.method,
		Reference:   fmt.Sprintf("%s_ref_%d", f.method, f.n),
		RedirectURL: "https://pay.example/" + in.OrderID,
	}, nil
}

func (f *fakeProvider) Confirm(_ context.Context, ref paymentdom.Ref) (paymentdom.Status, error) {
	f.confirms++
	f.lastRef = ref
	if f.confirmErr != nil {
		return "", f.confirmErr
	}
	if f.status == "" {
		return paymentdom.StatusPending, nil
	}
	return f.status, nil
}

var errFailingCartUpdate = errors.New("update failed")

// failingUpdateCarts wraps the memory store and fails every write.
type failingUpdateCarts struct {
	*memory.CartRepositoryMem
}

func (failingUpdateCarts) Update(context.Context, string, cartdom.UpdateFunc) (*cartdom.Cart, error) {
	return nil, errFailingCartUpdate
}

func (failingUpdateCarts) Delete(context.Context, string) error { return errFailingCartUpdate }

// gatedGames holds the first GetByID until release is closed.
type gatedGames struct {
	gamedom.Repository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedGames(inner gamedom.Repository) *gatedGames {
	return &gatedGames{Repository: inner, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedGames) GetByID(ctx context.Context, id int) (gamedom.Game, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.Repository.GetByID(ctx, id)
}

type fixture struct {
	games    *memory.GameRepositoryMem
	carts    *memory.CartRepositoryMem
	orders   *memory.OrderRepositoryMem
	payments *memory.PaymentRepositoryMem
	notifier *recordingNotifier
	events   *recordingPublisher

	catalog *CatalogUsecase
	cart    *CartUsecase
	order   *OrderUsecase
}

func newFixture() *fixture {
	f := &fixture{
		games:    memory.NewGameRepositoryMem(gamedom.DefaultCatalog(testNow)),
		carts:    memory.NewCartRepositoryMem(),
		orders:   memory.NewOrderRepositoryMem(),
		payments: memory.NewPaymentRepositoryMem(),
		notifier: &recordingNotifier{},
		events:   &recordingPublisher{},
	}
	clock := fixedClock{testNow}
	f.catalog = NewCatalogUsecase(f.games, nil)
	f.cart = NewCartUsecaseWithClock(f.carts, f.games, clock)
	f.cart.newID = seqIDs("item")
	f.order = NewOrderUsecase(f.orders, f.carts, f.games).
		WithNotifier(f.notifier).
		WithEvents(f.events).
		WithClock(clock)
	f.order.newID = seqIDs("ord")
	return f
}

func validCustomer() orderdom.CustomerInfo {
	return orderdom.CustomerInfo{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Phone:    "+2348012345678",
		Address:  "12 Analytical Way",
		Country:  "NG",
		State:    "Lagos",
	}
}
