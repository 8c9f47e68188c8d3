// internal/adapters/out/payment/solana/provider.go
package solanapay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"slices"
	"strings"

	paymentdom "gamestore/internal/domain/payment"
	infrasolana "gamestore/internal/infra/solana"
)

// usdcPerCent converts cents to USDC base units (6 decimals).
const usdcPerCent = 10_000

var ErrUnsupportedCurrency = errors.New("solana: only USD orders can be paid in USDC")

// RecipientChecker resolves the merchant token account that receives payments.
type RecipientChecker interface {
	EnsureRecipient(ctx context.Context, owner, mint string) (string, error)
}

// Provider takes USDC transfers to the merchant wallet using Solana Pay
// transfer requests. The payment reference is the Solana Pay reference key;
// the TxID is the transaction signature.
type Provider struct {
	wallet        string
	mint          string
	tokenAccount  string
	label         string
	webhookSecret string

	recipients RecipientChecker
	rpc        infrasolana.RPCClient
	newRef     func() string
}

var (
	_ paymentdom.Provider        = (*Provider)(nil)
	_ paymentdom.WebhookVerifier = (*Provider)(nil)
)

type Config struct {
	MerchantWallet string
	USDCMint       string
	Label          string
	WebhookSecret  string
}

func New(cfg Config, recipients RecipientChecker, rpc infrasolana.RPCClient) (*Provider, error) {
	wallet := strings.TrimSpace(cfg.MerchantWallet)
	if wallet == "" {
		return nil, fmt.Errorf("solana: %w: merchant wallet is empty", paymentdom.ErrProviderNotConfigured)
	}
	if _, err := infrasolana.ParsePublicKey(wallet); err != nil {
		return nil, fmt.Errorf("solana: merchant wallet: %w", err)
	}
	mint := strings.TrimSpace(cfg.USDCMint)
	if _, err := infrasolana.ParsePublicKey(mint); err != nil {
		return nil, fmt.Errorf("solana: usdc mint: %w", err)
	}
	ata, err := infrasolana.RecipientTokenAccount(wallet, mint)
	if err != nil {
		return nil, fmt.Errorf("solana: recipient token account: %w", err)
	}
	if rpc == nil {
		return nil, fmt.Errorf("solana: %w: rpc client is nil", paymentdom.ErrProviderNotConfigured)
	}
	label := strings.TrimSpace(cfg.Label)
	if label == "" {
		label = "Game Store"
	}
	return &Provider{
		wallet:        wallet,
		mint:          mint,
		tokenAccount:  ata,
		label:         label,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		recipients:    recipients,
		rpc:           rpc,
		newRef:        infrasolana.NewReference,
	}, nil
}

func (p *Provider) Method() paymentdom.Method { return paymentdom.MethodCryptoWallet }

func (p *Provider) Quote(ctx context.Context, in paymentdom.QuoteInput) (*paymentdom.Request, error) {
	if in.Amount <= 0 {
		return nil, paymentdom.ErrInvalidAmount
	}
	if !strings.EqualFold(strings.TrimSpace(in.Currency), "USD") {
		return nil, ErrUnsupportedCurrency
	}

	tokenAccount := ""
	if p.recipients != nil {
		ata, err := p.recipients.EnsureRecipient(ctx, p.wallet, p.mint)
		if err != nil {
			return nil, err
		}
		tokenAccount = ata
	}

	ref := p.newRef()
	amount := usdcAmount(in.Amount)
	log.Printf("[solana] transfer request order=%q ref=%s amount=%s", in.OrderID, infrasolana.MaskShort(ref), amount)

	return &paymentdom.Request{
		Method:      paymentdom.MethodCryptoWallet,
		Reference:   ref,
		RedirectURL: transferURL(p.wallet, amount, p.mint, ref, p.label, "Order "+in.OrderID),
		Instructions: map[string]string{
			"recipient":      p.wallet,
			"tokenAccount":   tokenAccount,
			"splToken":       p.mint,
			"amount":         amount,
			"amountBaseUnit": fmt.Sprintf("%d", in.Amount*usdcPerCent),
			"reference":      ref,
			"network":        "solana",
		},
	}, nil
}

// signatureScanLimit bounds how many reference signatures Confirm inspects.
const signatureScanLimit = 20

// Confirm only trusts signatures the reference key was attached to, and only
// completes when one of them moved at least the amount owed into the merchant
// token account. A TxID that the reference does not list is rejected with
// paymentdom.ErrTxMismatch.
func (p *Provider) Confirm(ctx context.Context, ref paymentdom.Ref) (paymentdom.Status, error) {
	r := strings.TrimSpace(ref.Reference)
	if r == "" {
		return "", paymentdom.ErrInvalidReference
	}
	if ref.Amount <= 0 {
		return "", paymentdom.ErrInvalidAmount
	}
	if c := strings.TrimSpace(ref.Currency); c != "" && !strings.EqualFold(c, "USD") {
		return "", ErrUnsupportedCurrency
	}
	want := ref.Amount * usdcPerCent

	infos, err := p.rpc.GetSignaturesForAddress(ctx, r, signatureScanLimit)
	if err != nil {
		return "", err
	}
	cands := make([]string, 0, len(infos))
	for _, in := range infos {
		if s := strings.TrimSpace(in.Signature); s != "" {
			cands = append(cands, s)
		}
	}

	if sig := strings.TrimSpace(ref.TxID); sig != "" {
		if !slices.Contains(cands, sig) {
			log.Printf("[solana] WARN: signature not linked to reference ref=%s sig=%s",
				infrasolana.MaskShort(r), infrasolana.MaskShort(sig))
			return "", paymentdom.ErrTxMismatch
		}
		cands = []string{sig}
	}
	if len(cands) == 0 {
		return paymentdom.StatusPending, nil
	}

	result := paymentdom.StatusFailed
	for _, sig := range cands {
		st, err := p.check(ctx, sig, want)
		if err != nil {
			return "", err
		}
		switch st {
		case paymentdom.StatusCompleted:
			log.Printf("[solana] payment settled ref=%s sig=%s", infrasolana.MaskShort(r), infrasolana.MaskShort(sig))
			return st, nil
		case paymentdom.StatusPending:
			result = st
		}
	}
	return result, nil
}

// check settles one signature against the amount owed in base units.
func (p *Provider) check(ctx context.Context, sig string, want int64) (paymentdom.Status, error) {
	statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{sig})
	if err != nil {
		return "", err
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return paymentdom.StatusPending, nil
	}
	switch st := statuses[0]; {
	case st.Failed():
		return paymentdom.StatusFailed, nil
	case !st.Settled():
		return paymentdom.StatusPending, nil
	}

	tx, err := p.rpc.GetTransaction(ctx, sig)
	if err != nil {
		return "", err
	}
	if tx == nil {
		return paymentdom.StatusPending, nil
	}
	if tx.Failed() {
		return paymentdom.StatusFailed, nil
	}
	got := tx.Received(p.tokenAccount, p.mint)
	if got < want {
		log.Printf("[solana] WARN: underpaid sig=%s got=%d want=%d", infrasolana.MaskShort(sig), got, want)
		return paymentdom.StatusFailed, nil
	}
	return paymentdom.StatusCompleted, nil
}

// quickNodePayload is the QuickNode stream/alert body for watched transactions.
type quickNodePayload struct {
	Event struct {
		Name string `json:"name"`
	} `json:"event"`
	Txs []struct {
		Hash          string `json:"hash"`
		Status        string `json:"status"`
		Confirmations int    `json:"confirmations"`
	} `json:"txs"`
}

// ParseWebhook checks x-qn-signature, the hex HMAC-SHA256 of the raw body.
// Events carry only the signature; the payment is matched by TxID and
// completions are rechecked on chain before they count.
func (p *Provider) ParseWebhook(body []byte, signature string) ([]paymentdom.Event, error) {
	if p.webhookSecret == "" {
		return nil, paymentdom.ErrProviderNotConfigured
	}
	want, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(want) == 0 {
		return nil, paymentdom.ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), want) {
		return nil, paymentdom.ErrInvalidSignature
	}

	var qp quickNodePayload
	if err := json.Unmarshal(body, &qp); err != nil {
		return nil, fmt.Errorf("solana: decode webhook: %w", err)
	}

	out := make([]paymentdom.Event, 0, len(qp.Txs))
	for _, tx := range qp.Txs {
		hash := strings.TrimSpace(tx.Hash)
		if hash == "" {
			continue
		}
		ev := paymentdom.Event{Method: paymentdom.MethodCryptoWallet, TxID: hash, Recheck: true}
		switch strings.ToLower(strings.TrimSpace(tx.Status)) {
		case "confirmed", "finalized":
			ev.Status = paymentdom.StatusCompleted
		case "failed":
			ev.Status, ev.ErrorType = paymentdom.StatusFailed, "transaction_failed"
		default:
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// usdcAmount renders cents as a decimal USDC amount without trailing zeros.
func usdcAmount(cents int64) string {
	whole, frac := cents/100, cents%100
	switch {
	case frac == 0:
		return fmt.Sprintf("%d", whole)
	case frac%10 == 0:
		return fmt.Sprintf("%d.%d", whole, frac/10)
	}
	return fmt.Sprintf("%d.%02d", whole, frac)
}

func transferURL(recipient, amount, mint, reference, label, message string) string {
	q := url.Values{}
	q.Set("amount", amount)
	q.Set("spl-token", mint)
	q.Set("reference", reference)
	q.Set("label", label)
	q.Set("message", message)
	return "solana:" + recipient + "?" + q.Encode()
}
