package solanapay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentdom "gamestore/internal/domain/payment"
	infrasolana "gamestore/internal/infra/solana"
)

const (
	merchant = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	devMint  = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"
	refKey   = "7UX2i7SucgLMQcfZ75s3VXmZZY4YRUyJN9X1RgfMoDUi"
)

type fakeRecipients struct {
	ata string
	err error
}

func (f fakeRecipients) EnsureRecipient(context.Context, string, string) (string, error) {
	return f.ata, f.err
}

type fakeRPC struct {
	byAddress map[string][]infrasolana.SignatureInfo
	statuses  map[string]*infrasolana.SignatureStatus
	txs       map[string]*infrasolana.Transaction
	lookups   int
	fetched   []string
}

func (f *fakeRPC) GetSignatureStatuses(_ context.Context, sigs []string) ([]*infrasolana.SignatureStatus, error) {
	out := make([]*infrasolana.SignatureStatus, len(sigs))
	for i, s := range sigs {
		out[i] = f.statuses[s]
	}
	return out, nil
}

func (f *fakeRPC) GetSignaturesForAddress(_ context.Context, addr string, _ int) ([]infrasolana.SignatureInfo, error) {
	f.lookups++
	return f.byAddress[addr], nil
}

func (f *fakeRPC) GetTransaction(_ context.Context, sig string) (*infrasolana.Transaction, error) {
	f.fetched = append(f.fetched, sig)
	return f.txs[sig], nil
}

// transfer builds a parsed transaction moving base units of mint into account.
func transfer(account, mint string, units int64) *infrasolana.Transaction {
	tx := &infrasolana.Transaction{Meta: &infrasolana.TransactionMeta{Err: json.RawMessage("null")}}
	tx.Transaction.Message.AccountKeys = []infrasolana.AccountKey{{Pubkey: "payer", Signer: true}, {Pubkey: account}}
	pre := infrasolana.TokenBalance{AccountIndex: 1, Mint: mint, Owner: merchant}
	pre.UITokenAmount.Amount = "1000"
	post := pre
	post.UITokenAmount.Amount = strconv.FormatInt(1000+units, 10)
	tx.Meta.PreTokenBalances = []infrasolana.TokenBalance{pre}
	tx.Meta.PostTokenBalances = []infrasolana.TokenBalance{post}
	return tx
}

func merchantATA(t *testing.T) string {
	t.Helper()
	ata, err := infrasolana.RecipientTokenAccount(merchant, devMint)
	require.NoError(t, err)
	return ata
}

var settled = &infrasolana.SignatureStatus{ConfirmationStatus: "finalized", Err: json.RawMessage("null")}

func newProvider(t *testing.T, rpc *fakeRPC) *Provider {
	t.Helper()
	p, err := New(Config{
		MerchantWallet: merchant,
		USDCMint:       devMint,
		WebhookSecret:  "qn_secret",
	}, fakeRecipients{ata: "ATA111"}, rpc)
	require.NoError(t, err)
	p.newRef = func() string { return refKey }
	return p
}

func TestNew_Validates(t *testing.T) {
	_, err := New(Config{USDCMint: devMint}, nil, &fakeRPC{})
	assert.ErrorIs(t, err, paymentdom.ErrProviderNotConfigured)

	_, err = New(Config{MerchantWallet: "not-a-key", USDCMint: devMint}, nil, &fakeRPC{})
	assert.ErrorIs(t, err, infrasolana.ErrInvalidAddress)

	_, err = New(Config{MerchantWallet: merchant, USDCMint: devMint}, nil, nil)
	assert.ErrorIs(t, err, paymentdom.ErrProviderNotConfigured)
}

func TestQuote_BuildsTransferRequest(t *testing.T) {
	p := newProvider(t, &fakeRPC{})
	req, err := p.Quote(context.Background(), paymentdom.QuoteInput{OrderID: "ord_1", Amount: 3240, Currency: "usd"})
	require.NoError(t, err)

	assert.Equal(t, refKey, req.Reference)
	assert.Equal(t, "32.4", req.Instructions["amount"])
	assert.Equal(t, "32400000", req.Instructions["amountBaseUnit"])
	assert.Equal(t, "ATA111", req.Instructions["tokenAccount"])

	require.True(t, strings.HasPrefix(req.RedirectURL, "solana:"+merchant+"?"))
	q, err := url.ParseQuery(strings.SplitN(req.RedirectURL, "?", 2)[1])
	require.NoError(t, err)
	assert.Equal(t, devMint, q.Get("spl-token"))
	assert.Equal(t, refKey, q.Get("reference"))
	assert.Equal(t, "32.4", q.Get("amount"))
}

func TestQuote_Rejects(t *testing.T) {
	p := newProvider(t, &fakeRPC{})
	_, err := p.Quote(context.Background(), paymentdom.QuoteInput{OrderID: "ord_1", Amount: 100, Currency: "NGN"})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	_, err = p.Quote(context.Background(), paymentdom.QuoteInput{OrderID: "ord_1", Amount: 0, Currency: "USD"})
	assert.ErrorIs(t, err, paymentdom.ErrInvalidAmount)

	p.recipients = fakeRecipients{err: infrasolana.ErrNoTokenAccount}
	_, err = p.Quote(context.Background(), paymentdom.QuoteInput{OrderID: "ord_1", Amount: 100, Currency: "USD"})
	assert.True(t, errors.Is(err, infrasolana.ErrNoTokenAccount))
}

func TestConfirm_FindsSignatureByReference(t *testing.T) {
	rpc := &fakeRPC{
		byAddress: map[string][]infrasolana.SignatureInfo{refKey: {{Signature: "sig1"}}},
		statuses:  map[string]*infrasolana.SignatureStatus{"sig1": settled},
		txs:       map[string]*infrasolana.Transaction{"sig1": transfer(merchantATA(t), devMint, 32_400_000)},
	}
	p := newProvider(t, rpc)

	st, err := p.Confirm(context.Background(), paymentdom.Ref{Reference: refKey, Amount: 3240, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, paymentdom.StatusCompleted, st)
	assert.Equal(t, 1, rpc.lookups)
	assert.Equal(t, []string{"sig1"}, rpc.fetched)
}

func TestConfirm_TxIDMustBeLinkedToReference(t *testing.T) {
	ata := merchantATA(t)
	rpc := &fakeRPC{
		byAddress: map[string][]infrasolana.SignatureInfo{refKey: {{Signature: "mine"}}},
		statuses: map[string]*infrasolana.SignatureStatus{
			"mine":   settled,
			"theirs": settled,
		},
		txs: map[string]*infrasolana.Transaction{
			"mine":   transfer(ata, devMint, 32_400_000),
			"theirs": transfer(ata, devMint, 32_400_000),
		},
	}
	p := newProvider(t, rpc)

	// a settled transfer that some other buyer made
	_, err := p.Confirm(context.Background(), paymentdom.Ref{Reference: refKey, TxID: "theirs", Amount: 3240})
	assert.ErrorIs(t, err, paymentdom.ErrTxMismatch)
	assert.Equal(t, 1, rpc.lookups)
	assert.Empty(t, rpc.fetched)

	st, err := p.Confirm(context.Background(), paymentdom.Ref{Reference: refKey, TxID: "mine", Amount: 3240})
	require.NoError(t, err)
	assert.Equal(t, paymentdom.StatusCompleted, st)
}

func TestConfirm_VerifiesTransferAmount(t *testing.T) {
	ata := merchantATA(t)
	cases := []struct {
		name string
		tx   *infrasolana.Transaction
		want paymentdom.Status
	}{
		{"exact", transfer(ata, devMint, 32_400_000), paymentdom.StatusCompleted},
		{"overpaid", transfer(ata, devMint, 40_000_000), paymentdom.StatusCompleted},
		{"underpaid", transfer(ata, devMint, 100), paymentdom.StatusFailed},
		{"wrong mint", transfer(ata, "otherMint", 32_400_000), paymentdom.StatusFailed},
		{"wrong recipient", transfer("attackerATA", devMint, 32_400_000), paymentdom.StatusFailed},
		{"not indexed yet", nil, paymentdom.StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rpc := &fakeRPC{
				byAddress: map[string][]infrasolana.SignatureInfo{refKey: {{Signature: "sig1"}}},
				statuses:  map[string]*infrasolana.SignatureStatus{"sig1": settled},
				txs:       map[string]*infrasolana.Transaction{"sig1": tc.tx},
			}
			st, err := newProvider(t, rpc).Confirm(context.Background(), paymentdom.Ref{Reference: refKey, TxID: "sig1", Amount: 3240, Currency: "USD"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, st)
		})
	}
}

func TestConfirm_SignatureStates(t *testing.T) {
	ata := merchantATA(t)
	rpc := &fakeRPC{
		byAddress: map[string][]infrasolana.SignatureInfo{refKey: {{Signature: "failed"}, {Signature: "landing"}, {Signature: "unknown"}}},
		statuses: map[string]*infrasolana.SignatureStatus{
			"failed":  {ConfirmationStatus: "confirmed", Err: json.RawMessage(`{"InstructionError":[0,"Custom"]}`)},
			"landing": {ConfirmationStatus: "processed"},
		},
		txs: map[string]*infrasolana.Transaction{"landing": transfer(ata, devMint, 32_400_000)},
	}
	p := newProvider(t, rpc)

	cases := map[string]paymentdom.Status{
		"failed":  paymentdom.StatusFailed,
		"landing": paymentdom.StatusPending,
		"unknown": paymentdom.StatusPending,
	}
	for sig, want := range cases {
		st, err := p.Confirm(context.Background(), paymentdom.Ref{Reference: refKey, TxID: sig, Amount: 3240})
		require.NoError(t, err)
		assert.Equal(t, want, st, sig)
	}
	assert.Empty(t, rpc.fetched)

	// one pending candidate keeps the whole reference pending
	st, err := p.Confirm(context.Background(), paymentdom.Ref{Reference: refKey, Amount: 3240})
	require.NoError(t, err)
	assert.Equal(t, paymentdom.StatusPending, st)
}

func TestConfirm_Rejects(t *testing.T) {
	p := newProvider(t, &fakeRPC{})
	_, err := p.Confirm(context.Background(), paymentdom.Ref{Reference: refKey})
	assert.ErrorIs(t, err, paymentdom.ErrInvalidAmount)

	_, err = p.Confirm(context.Background(), paymentdom.Ref{Reference: refKey, Amount: 100, Currency: "NGN"})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	_, err = p.Confirm(context.Background(), paymentdom.Ref{Amount: 100})
	assert.ErrorIs(t, err, paymentdom.ErrInvalidReference)
}

func TestConfirm_NothingOnChainYet(t *testing.T) {
	p := newProvider(t, &fakeRPC{})
	st, err := p.Confirm(context.Background(), paymentdom.Ref{Reference: refKey, Amount: 3240})
	require.NoError(t, err)
	assert.Equal(t, paymentdom.StatusPending, st)
}

func TestParseWebhook(t *testing.T) {
	p := newProvider(t, &fakeRPC{})
	body := []byte(`{"event":{"name":"tx-watch"},"txs":[{"hash":"sig1","status":"confirmed","confirmations":3},{"hash":"sig2","status":"pending"},{"hash":"sig3","status":"failed"}]}`)
	mac := hmac.New(sha256.New, []byte("qn_secret"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	_, err := p.ParseWebhook(body, "00")
	assert.ErrorIs(t, err, paymentdom.ErrInvalidSignature)

	events, err := p.ParseWebhook(body, sig)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "sig1", events[0].TxID)
	assert.Equal(t, paymentdom.StatusCompleted, events[0].Status)
	assert.True(t, events[0].Recheck)
	assert.Equal(t, "sig3", events[1].TxID)
	assert.Equal(t, paymentdom.StatusFailed, events[1].Status)
}

func TestUSDCAmount(t *testing.T) {
	assert.Equal(t, "132", usdcAmount(13200))
	assert.Equal(t, "32.4", usdcAmount(3240))
	assert.Equal(t, "0.05", usdcAmount(5))
}
