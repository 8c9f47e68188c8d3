// internal/infra/solana/rpc_client.go
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DevnetEndpoint is used when no RPC URL is configured.
const DevnetEndpoint = "https://api.devnet.solana.com"

// SignatureStatus is one entry of getSignatureStatuses. Err is non-nil when
// the transaction landed but failed.
type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	Err                json.RawMessage `json:"err"`
	ConfirmationStatus string          `json:"confirmationStatus"`
}

// Failed reports whether the transaction executed with an error.
func (s SignatureStatus) Failed() bool {
	e := strings.TrimSpace(string(s.Err))
	return e != "" && e != "null"
}

// Settled reports whether the cluster has confirmed or finalized the transaction.
func (s SignatureStatus) Settled() bool {
	switch s.ConfirmationStatus {
	case "confirmed", "finalized":
		return true
	}
	return false
}

// SignatureInfo is one entry of getSignaturesForAddress.
type SignatureInfo struct {
	Signature          string          `json:"signature"`
	Slot               uint64          `json:"slot"`
	Err                json.RawMessage `json:"err"`
	ConfirmationStatus string          `json:"confirmationStatus"`
}

// TokenBalance is one pre/post token balance row of a parsed transaction.
type TokenBalance struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		Amount   string `json:"amount"`
		Decimals int    `json:"decimals"`
	} `json:"uiTokenAmount"`
}

// TransactionMeta carries the execution result.
type TransactionMeta struct {
	Err               json.RawMessage `json:"err"`
	PreTokenBalances  []TokenBalance  `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance  `json:"postTokenBalances"`
}

// AccountKey is an account of a jsonParsed message.
type AccountKey struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

// Transaction is the getTransaction result in jsonParsed encoding.
type Transaction struct {
	Slot        uint64           `json:"slot"`
	Meta        *TransactionMeta `json:"meta"`
	Transaction struct {
		Signatures []string `json:"signatures"`
		Message    struct {
			AccountKeys []AccountKey `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

// Failed reports whether the transaction executed with an error.
func (t *Transaction) Failed() bool {
	if t == nil || t.Meta == nil {
		return false
	}
	e := strings.TrimSpace(string(t.Meta.Err))
	return e != "" && e != "null"
}

// Received returns how many base units of mint the token account gained.
// Rows for other accounts or mints are ignored; a missing pre row counts as zero.
func (t *Transaction) Received(tokenAccount, mint string) int64 {
	if t == nil || t.Meta == nil {
		return 0
	}
	keys := t.Transaction.Message.AccountKeys
	sum := func(rows []TokenBalance) int64 {
		var total int64
		for _, b := range rows {
			if b.Mint != mint || b.AccountIndex < 0 || b.AccountIndex >= len(keys) {
				continue
			}
			if keys[b.AccountIndex].Pubkey != tokenAccount {
				continue
			}
			n, err := strconv.ParseInt(b.UITokenAmount.Amount, 10, 64)
			if err != nil {
				continue
			}
			total += n
		}
		return total
	}
	return sum(t.Meta.PostTokenBalances) - sum(t.Meta.PreTokenBalances)
}

// RPCClient is the subset of Solana JSON-RPC the payment flow needs.
type RPCClient interface {
	// GetSignatureStatuses returns one entry per signature; nil when the
	// cluster does not know the signature yet.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
	// GetSignaturesForAddress returns the newest signatures touching address.
	GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error)
	// GetTransaction returns nil when the transaction is not available yet.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}

// JSONRPCClient is a plain HTTP JSON-RPC client.
type JSONRPCClient struct {
	Endpoint   string
	Commitment string
	HTTP       *http.Client
}

func NewJSONRPCClient(endpoint string) *JSONRPCClient {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = DevnetEndpoint
	}
	return &JSONRPCClient{
		Endpoint:   ep,
		Commitment: "confirmed",
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (c *JSONRPCClient) call(ctx context.Context, method string, params any, out any) error {
	if c == nil || c.Endpoint == "" || c.HTTP == nil {
		return fmt.Errorf("solana rpc: client not configured")
	}

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("solana rpc: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("solana rpc: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("solana rpc: http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("solana rpc: %s http status=%d", method, resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("solana rpc: decode response: %w", err)
	}
	if rr.Error != nil {
		return fmt.Errorf("solana rpc: %s error code=%d message=%s", method, rr.Error.Code, rr.Error.Message)
	}

	if out != nil {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return fmt.Errorf("solana rpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *JSONRPCClient) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	sigs := make([]string, 0, len(signatures))
	for _, s := range signatures {
		if t := strings.TrimSpace(s); t != "" {
			sigs = append(sigs, t)
		}
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("solana rpc: no signatures")
	}

	var out struct {
		Value []*SignatureStatus `json:"value"`
	}
	params := []any{sigs, map[string]any{"searchTransactionHistory": true}}
	if err := c.call(ctx, "getSignatureStatuses", params, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

func (c *JSONRPCClient) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]SignatureInfo, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return nil, fmt.Errorf("solana rpc: address is empty")
	}
	if limit <= 0 {
		limit = 1
	}
	commitment := c.Commitment
	if commitment == "" {
		commitment = "confirmed"
	}

	var out []SignatureInfo
	params := []any{addr, map[string]any{"limit": limit, "commitment": commitment}}
	if err := c.call(ctx, "getSignaturesForAddress", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *JSONRPCClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return nil, fmt.Errorf("solana rpc: signature is empty")
	}
	commitment := c.Commitment
	if commitment == "" {
		commitment = "confirmed"
	}

	var out *Transaction
	params := []any{sig, map[string]any{
		"encoding":                       "jsonParsed",
		"commitment":                     commitment,
		"maxSupportedTransactionVersion": 0,
	}}
	if err := c.call(ctx, "getTransaction", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}
