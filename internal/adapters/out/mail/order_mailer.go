// internal/adapters/out/mail/order_mailer.go
package mail

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"gamestore/internal/application/usecase"
	orderdom "gamestore/internal/domain/order"
	paymentdom "gamestore/internal/domain/payment"
)

// OrderMailer implements usecase.OrderNotifier.
type OrderMailer struct {
	client    EmailClient
	storeName string
	baseURL   string
}

var _ usecase.OrderNotifier = (*OrderMailer)(nil)

func NewOrderMailer(client EmailClient, storeName, baseURL string) *OrderMailer {
	name := strings.TrimSpace(storeName)
	if name == "" {
		name = "Game Store"
	}
	return &OrderMailer{
		client:    client,
		storeName: name,
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

func (m *OrderMailer) OrderPlaced(ctx context.Context, o orderdom.Order) error {
	subject := fmt.Sprintf("[%s] Order %s received", m.storeName, o.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", firstName(o.Customer.FullName))
	fmt.Fprintf(&b, "We received your order %s.\n\n", o.ID)
	writeItems(&b, o)
	fmt.Fprintf(&b, "\nTotal: %s\n", formatMoney(o.Total, o.Currency))
	if m.baseURL != "" {
		fmt.Fprintf(&b, "\nView your order: %s/orders/%s\n", m.baseURL, o.ID)
	}
	fmt.Fprintf(&b, "\nThe order stays pending until payment is confirmed.\n\n%s\n", m.storeName)

	return m.send(ctx, o.Customer.Email, subject, b.String())
}

func (m *OrderMailer) PaymentReceived(ctx context.Context, o orderdom.Order, p paymentdom.Payment) error {
	subject := fmt.Sprintf("[%s] Payment received for order %s", m.storeName, o.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", firstName(o.Customer.FullName))
	fmt.Fprintf(&b, "Your payment of %s for order %s is complete.\n", formatMoney(p.Amount, p.Currency), o.ID)
	fmt.Fprintf(&b, "Method: %s\nReference: %s\n", methodLabel(p.Method), p.Reference)
	if p.TxID != "" {
		fmt.Fprintf(&b, "Transaction: %s\n", p.TxID)
	}
	b.WriteString("\n")
	writeItems(&b, o)
	if addr := strings.TrimSpace(o.Customer.Address); addr != "" {
		fmt.Fprintf(&b, "\nCard decks ship to: %s\n", addr)
	}
	fmt.Fprintf(&b, "\nThanks for playing.\n%s\n", m.storeName)

	return m.send(ctx, o.Customer.Email, subject, b.String())
}

func (m *OrderMailer) send(ctx context.Context, to, subject, text string) error {
	if m == nil || m.client == nil {
		return fmt.Errorf("order mailer: client is nil")
	}
	htmlBody := "<pre>" + html.EscapeString(text) + "</pre>"
	if err := m.client.Send(ctx, to, subject, text, htmlBody); err != nil {
		log.Printf("[mail] WARN send failed subject=%q err=%v", subject, err)
		return err
	}
	return nil
}

func writeItems(b *strings.Builder, o orderdom.Order) {
	for _, it := range o.Items {
		fmt.Fprintf(b, "  %d x %s  %s\n", it.Quantity, it.Title, formatMoney(it.Price*int64(it.Quantity), o.Currency))
	}
}

func firstName(full string) string {
	f := strings.Fields(full)
	if len(f) == 0 {
		return "there"
	}
	return f[0]
}

func methodLabel(m paymentdom.Method) string {
	switch m {
	case paymentdom.MethodCard:
		return "Card"
	case paymentdom.MethodFiat:
		return "Bank / mobile money"
	case paymentdom.MethodCryptoHosted:
		return "Crypto (hosted checkout)"
	case paymentdom.MethodCryptoWallet:
		return "USDC wallet transfer"
	}
	return string(m)
}

func formatMoney(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "USD" || cur == "" {
		return fmt.Sprintf("%s$%d.%02d", sign, minor/100, minor%100)
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, cur)
}
