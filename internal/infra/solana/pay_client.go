// internal/infra/solana/pay_client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

var (
	ErrInvalidAddress = errors.New("solana: invalid address")
	ErrNoTokenAccount = errors.New("solana: recipient token account does not exist")
)

// PayClient holds the read-only chain operations used to receive SPL token
// payments into a merchant wallet.
type PayClient struct {
	RPC  *client.Client
	JSON RPCClient
}

func NewPayClient(rpcURL string) *PayClient {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = DevnetEndpoint
	}
	return &PayClient{
		RPC:  client.NewClient(u),
		JSON: NewJSONRPCClient(u),
	}
}

// NewReference returns a fresh base58 public key used as a Solana Pay
// reference. The private half is discarded; the key only tags the transfer.
func NewReference() string {
	return types.NewAccount().PublicKey.ToBase58()
}

// ParsePublicKey rejects strings that do not decode to a 32-byte key.
func ParsePublicKey(s string) (common.PublicKey, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return common.PublicKey{}, ErrInvalidAddress
	}
	pk := common.PublicKeyFromString(t)
	if pk == (common.PublicKey{}) || pk.ToBase58() != t {
		return common.PublicKey{}, fmt.Errorf("%w: %s", ErrInvalidAddress, maskShort(t))
	}
	return pk, nil
}

// RecipientTokenAccount derives the merchant's associated token account for mint.
func RecipientTokenAccount(owner, mint string) (string, error) {
	o, err := ParsePublicKey(owner)
	if err != nil {
		return "", err
	}
	m, err := ParsePublicKey(mint)
	if err != nil {
		return "", err
	}
	ata, _, err := common.FindAssociatedTokenAddress(o, m)
	if err != nil {
		return "", fmt.Errorf("solana: derive ata: %w", err)
	}
	return ata.ToBase58(), nil
}

// EnsureRecipient checks that the merchant's token account exists, so
// payers are not asked to send into an account that would need creating.
func (c *PayClient) EnsureRecipient(ctx context.Context, owner, mint string) (string, error) {
	ata, err := RecipientTokenAccount(owner, mint)
	if err != nil {
		return "", err
	}
	if c == nil || c.RPC == nil {
		return ata, nil
	}
	ok, err := c.accountExists(ctx, ata)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoTokenAccount, maskShort(ata))
	}
	return ata, nil
}

func (c *PayClient) accountExists(ctx context.Context, address string) (bool, error) {
	info, err := c.RPC.GetAccountInfo(ctx, address)
	if err == nil {
		return info.Owner != (common.PublicKey{}), nil
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "account does not exist") {
		return false, nil
	}
	return false, err
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}

// MaskShort shortens addresses and signatures for logs.
func MaskShort(s string) string { return maskShort(s) }
