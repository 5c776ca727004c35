package rpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3ledger/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockServer serves eth_blockNumber with a fixed block, after an optional
// artificial delay.
func blockServer(t *testing.T, block string, delay time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		var req struct {
			ID int `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  block,
		})
	}))
}

func TestBenchmarkProbesAllEndpoints(t *testing.T) {
	a := blockServer(t, "0x64", 0)
	defer a.Close()
	b := blockServer(t, "0x65", 0)
	defer b.Close()

	results := rpc.Benchmark(context.Background(), []string{a.URL, b.URL})

	require.Len(t, results, 2)
	assert.Equal(t, a.URL, results[0].URL)
	assert.Equal(t, uint64(0x64), results[0].BlockNumber)
	require.NoError(t, results[1].Err)
	assert.Equal(t, uint64(0x65), results[1].BlockNumber)
}

func TestBenchmarkRecordsFailures(t *testing.T) {
	good := blockServer(t, "0x64", 0)
	defer good.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer dead.Close()

	results := rpc.Benchmark(context.Background(), []string{good.URL, dead.URL})

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)

	endpoints := rpc.ResultsToEndpoints(results)
	require.Len(t, endpoints, 2)
	assert.True(t, endpoints[0].Healthy)
	assert.False(t, endpoints[1].Healthy)
}

func TestBestPicksFastestHealthy(t *testing.T) {
	slow := blockServer(t, "0x64", 120*time.Millisecond)
	defer slow.Close()
	fast := blockServer(t, "0x64", 0)
	defer fast.Close()

	winner, err := rpc.Best(context.Background(), []string{slow.URL, fast.URL}, rpc.AlgorithmFastest)
	require.NoError(t, err)
	assert.Equal(t, fast.URL, winner)
}

func TestBestSingleCandidateSkipsProbe(t *testing.T) {
	// A URL nothing listens on: if Best probed it, it would fail.
	winner, err := rpc.Best(context.Background(), []string{"http://127.0.0.1:1"}, rpc.AlgorithmFastest)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1", winner)
}

func TestSelectBest(t *testing.T) {
	_, err := rpc.SelectBest(context.Background(), nil, "")
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)

	winner, err := rpc.SelectBest(context.Background(), []string{"http://only.rpc"}, "")
	require.NoError(t, err)
	assert.Equal(t, "http://only.rpc", winner)
}

func TestHealthCheckStaleNode(t *testing.T) {
	srv := blockServer(t, "0x64", 0) // block 100
	defer srv.Close()

	ep, err := rpc.HealthCheck(context.Background(), srv.URL, 200)
	require.NoError(t, err)
	assert.True(t, ep.Checked)
	assert.False(t, ep.Healthy, "a node 100 blocks behind is stale")

	ep, err = rpc.HealthCheck(context.Background(), srv.URL, 0)
	require.NoError(t, err)
	assert.True(t, ep.Healthy, "recency check skipped when bestBlock is 0")
}
