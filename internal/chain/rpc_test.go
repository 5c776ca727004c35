package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mohsinsiddi/w3ledger/internal/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rpcAccount = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// rpcMock creates a test HTTP server that serves a fixed JSON-RPC response
// per method. Pass method→result pairs; any unknown method returns an RPC error.
func rpcMock(t *testing.T, responses map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if result, ok := responses[req.Method]; ok {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  result,
			})
		} else {
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"jsonrpc": "2.0",
				"id":      req.ID,
				"error":   map[string]interface{}{"code": -32601, "message": "method not found"},
			})
		}
	}))
}

// rpcErrorServer creates a test HTTP server that always returns a JSON-RPC error.
func rpcErrorServer(t *testing.T, code int, msg string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": code, "message": msg},
		})
	}))
}

// rpcBadJSON creates a server that returns malformed JSON.
func rpcBadJSON(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not valid json`)) //nolint:errcheck
	}))
}

// ---------------------------------------------------------------------------
// NativeBalance
// ---------------------------------------------------------------------------

func TestRPCNativeBalanceSuccess(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_getBalance": "0x1BC16D674EC80000", // 2 ETH
	})
	defer srv.Close()

	bal, err := NewRPCHost(srv.URL).NativeBalance(context.Background(), rpcAccount)
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", bal.Dec())
}

func TestRPCNativeBalanceZero(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_getBalance": "0x0",
	})
	defer srv.Close()

	bal, err := NewRPCHost(srv.URL).NativeBalance(context.Background(), rpcAccount)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestRPCNativeBalanceRPCError(t *testing.T) {
	srv := rpcErrorServer(t, -32602, "invalid params")
	defer srv.Close()

	_, err := NewRPCHost(srv.URL).NativeBalance(context.Background(), rpcAccount)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPC error")
}

func TestRPCNativeBalanceConnectionRefused(t *testing.T) {
	_, err := NewRPCHost("http://127.0.0.1:19999").NativeBalance(context.Background(), rpcAccount)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCallReverted)
}

func TestRPCNativeBalanceInvalidJSON(t *testing.T) {
	srv := rpcBadJSON(t)
	defer srv.Close()

	_, err := NewRPCHost(srv.URL).NativeBalance(context.Background(), rpcAccount)
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// CodeSize
// ---------------------------------------------------------------------------

func TestRPCCodeSizeContract(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_getCode": "0x6080604052",
	})
	defer srv.Close()

	size, err := NewRPCHost(srv.URL).CodeSize(context.Background(), rpcAccount)
	require.NoError(t, err)
	assert.Equal(t, 5, size)
}

func TestRPCCodeSizeEOA(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_getCode": "0x",
	})
	defer srv.Close()

	size, err := NewRPCHost(srv.URL).CodeSize(context.Background(), rpcAccount)
	require.NoError(t, err)
	assert.Zero(t, size)
}

// ---------------------------------------------------------------------------
// StaticCall
// ---------------------------------------------------------------------------

func TestRPCStaticCallSuccess(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_call": "0x000000000000000000000000000000000000000000000000000000003b9aca00",
	})
	defer srv.Close()

	ret, err := NewRPCHost(srv.URL).StaticCall(context.Background(), rpcAccount,
		abi.PackBalanceOf(rpcAccount))
	require.NoError(t, err)

	bal, err := abi.UnpackAmount(ret)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), bal.Uint64())
}

func TestRPCStaticCallRevertMapsToErrCallReverted(t *testing.T) {
	srv := rpcErrorServer(t, -32000, "execution reverted: not a token")
	defer srv.Close()

	_, err := NewRPCHost(srv.URL).StaticCall(context.Background(), rpcAccount,
		abi.PackCall(abi.SelName))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCallReverted)
	assert.Contains(t, err.Error(), "not a token")
}

func TestRPCStaticCallTransportErrorNotReverted(t *testing.T) {
	_, err := NewRPCHost("http://127.0.0.1:19999").StaticCall(context.Background(), rpcAccount,
		abi.PackCall(abi.SelName))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCallReverted)
}

func TestRPCStaticCallEmptyReturn(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_call": "0x",
	})
	defer srv.Close()

	ret, err := NewRPCHost(srv.URL).StaticCall(context.Background(), rpcAccount,
		abi.PackCall(abi.SelName))
	require.NoError(t, err)
	assert.Empty(t, ret)
}

// ---------------------------------------------------------------------------
// BlockNumber
// ---------------------------------------------------------------------------

func TestRPCBlockNumberSuccess(t *testing.T) {
	srv := rpcMock(t, map[string]interface{}{
		"eth_blockNumber": "0x1388", // 5000
	})
	defer srv.Close()

	n, err := NewRPCHost(srv.URL).BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), n)
}

func TestRPCBlockNumberRPCError(t *testing.T) {
	srv := rpcErrorServer(t, -32603, "internal error")
	defer srv.Close()

	_, err := NewRPCHost(srv.URL).BlockNumber(context.Background())
	require.Error(t, err)
}
