package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/w3ledger/internal/chain"
	"github.com/Mohsinsiddi/w3ledger/internal/portfolio"
	"github.com/Mohsinsiddi/w3ledger/test/fixtures"
)

// scenarioServer serves a fixture RPCScenario as a JSON-RPC node. eth_call
// dispatches on the calldata's selector; unknown selectors revert the way a
// contract without that function would.
func scenarioServer(t *testing.T, sc *fixtures.RPCScenario) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     int               `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		reply := func(result, errMsg string) {
			w.Header().Set("Content-Type", "application/json")
			body := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
			if errMsg != "" {
				body["error"] = map[string]interface{}{"code": 3, "message": errMsg}
			} else {
				body["result"] = result
			}
			json.NewEncoder(w).Encode(body) //nolint:errcheck
		}

		switch req.Method {
		case "eth_getBalance":
			reply(sc.Balance, "")
		case "eth_getCode":
			reply(sc.Code, "")
		case "eth_blockNumber":
			reply(sc.BlockNumber, "")
		case "eth_call":
			var call struct {
				Data string `json:"data"`
			}
			require.NoError(t, json.Unmarshal(req.Params[0], &call))
			sel := call.Data
			if len(sel) > 10 {
				sel = sel[:10]
			}
			if result, ok := sc.Calls[sel]; ok {
				reply(result, "")
			} else {
				reply("", "execution reverted")
			}
		default:
			reply("", "method not found")
		}
	}))
}

func TestPortfolioOverRPC(t *testing.T) {
	sc := fixtures.LoadRPCScenario(t, "usdc_node.json")
	srv := scenarioServer(t, sc)
	defer srv.Close()

	host := chain.NewRPCHost(srv.URL)
	agg := portfolio.New(host, portfolio.WithMetadataCache(16))

	account := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	token := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

	view, err := agg.Portfolio(context.Background(), account, []common.Address{token})
	require.NoError(t, err)

	assert.Equal(t, "1000000000000000000", view.NativeBalance.Dec())
	require.Len(t, view.Tokens, 1)
	info := view.Tokens[0]
	assert.Equal(t, "USDC", info.Symbol)
	assert.Equal(t, "USD Coin", info.Name)
	assert.Equal(t, uint8(6), info.Decimals)
	assert.Equal(t, "1000000000", info.Balance.Dec())
}

// A node that reverts every metadata call still yields a row, filled with
// the documented fallbacks.
func TestPortfolioOverRPC_RevertingToken(t *testing.T) {
	sc := fixtures.LoadRPCScenario(t, "usdc_node.json")
	sc.Calls = nil // every eth_call reverts
	srv := scenarioServer(t, sc)
	defer srv.Close()

	host := chain.NewRPCHost(srv.URL)
	agg := portfolio.New(host)

	account := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	token := common.HexToAddress("0x000000000000000000000000000000000000dEaD")

	view, err := agg.Portfolio(context.Background(), account, []common.Address{token})
	require.NoError(t, err)

	require.Len(t, view.Tokens, 1)
	info := view.Tokens[0]
	assert.True(t, info.Balance.IsZero())
	assert.Equal(t, uint8(18), info.Decimals)
	assert.Equal(t, "UNKNOWN", info.Symbol)
	assert.Equal(t, "Unknown Token", info.Name)
}

// Transport trouble is not a fallback case: the scan must surface it.
func TestPortfolioOverRPC_TransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	host := chain.NewRPCHost(srv.URL)
	agg := portfolio.New(host)

	account := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	_, err := agg.Portfolio(context.Background(), account, nil)
	assert.Error(t, err)
}
