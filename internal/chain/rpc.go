package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RPCHost is a Reader backed by a JSON-RPC endpoint. It covers the query
// surface only; nothing here signs or broadcasts, so the mutating half of
// Backend has no RPC implementation.
type RPCHost struct {
	url    string
	client *http.Client
}

// NewRPCHost creates an RPC reader pointed at url.
func NewRPCHost(url string) *RPCHost {
	return &RPCHost{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// URL returns the endpoint this reader talks to.
func (h *RPCHost) URL() string { return h.url }

// NativeBalance returns the native balance of account via eth_getBalance.
func (h *RPCHost) NativeBalance(ctx context.Context, account common.Address) (*uint256.Int, error) {
	result, err := h.call(ctx, "eth_getBalance", account.Hex(), "latest")
	if err != nil {
		return nil, err
	}
	return parseHexAmount(result)
}

// CodeSize returns the byte length of the code at account via eth_getCode.
func (h *RPCHost) CodeSize(ctx context.Context, account common.Address) (int, error) {
	result, err := h.call(ctx, "eth_getCode", account.Hex(), "latest")
	if err != nil {
		return 0, err
	}
	hexStr, ok := result.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected result type: %T", result)
	}
	code, err := hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
	if err != nil {
		return 0, fmt.Errorf("could not parse code: %w", err)
	}
	return len(code), nil
}

// StaticCall executes input against the contract at to via eth_call. A revert
// reported by the node comes back wrapped in ErrCallReverted; transport
// failures come back as-is.
func (h *RPCHost) StaticCall(ctx context.Context, to common.Address, input []byte) ([]byte, error) {
	result, err := h.call(ctx, "eth_call", map[string]string{
		"to":   to.Hex(),
		"data": "0x" + hex.EncodeToString(input),
	}, "latest")
	if err != nil {
		if isRevertError(err) {
			return nil, fmt.Errorf("%w: %s", ErrCallReverted, extractRevertReason(err.Error()))
		}
		return nil, err
	}

	hexStr, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}
	ret, err := hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
	if err != nil {
		return nil, fmt.Errorf("could not parse return data: %w", err)
	}
	return ret, nil
}

// BlockNumber returns the latest block number, mainly as an endpoint probe.
func (h *RPCHost) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := h.call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	n, err := parseHexAmount(result)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Ping measures the endpoint's round-trip latency and reports its latest
// block number.
func (h *RPCHost) Ping(ctx context.Context) (time.Duration, uint64, error) {
	start := time.Now()
	block, err := h.BlockNumber(ctx)
	return time.Since(start), block, err
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *RPCHost) call(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var result interface{}
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return nil, fmt.Errorf("parsing result: %w", err)
	}
	return result, nil
}

// isRevertError reports whether an RPC error came from the call target
// reverting rather than from transport trouble.
func isRevertError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "revert") || strings.Contains(msg, "execution")
}

// extractRevertReason pulls the revert reason out of an RPC error message.
func extractRevertReason(errMsg string) string {
	if idx := strings.Index(errMsg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx:])
	}
	if idx := strings.Index(errMsg, "revert"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx:])
	}
	return errMsg
}

// parseHexAmount converts a JSON-RPC quantity ("0x...") into a uint256.
func parseHexAmount(result interface{}) (*uint256.Int, error) {
	hexStr, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}
	n, ok := new(big.Int).SetString(strings.TrimPrefix(hexStr, "0x"), 16)
	if !ok {
		return nil, fmt.Errorf("could not parse quantity: %s", hexStr)
	}
	v, overflow := uint256.FromBig(n)
	if overflow {
		return nil, fmt.Errorf("quantity exceeds 256 bits: %s", hexStr)
	}
	return v, nil
}
