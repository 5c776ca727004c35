package rpc

import (
	"context"
	"time"

	"github.com/Mohsinsiddi/w3ledger/internal/chain"
)

// HealthCheck pings a single JSON-RPC endpoint and returns its measured
// attributes. An endpoint is healthy when it answers within the timeout and
// its block is within staleBlockThreshold of bestBlock (pass 0 to skip the
// recency check).
func HealthCheck(ctx context.Context, url string, bestBlock uint64) (Endpoint, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	host := chain.NewRPCHost(url)
	latency, blockNum, err := host.Ping(timeoutCtx)

	ep := Endpoint{
		URL:         url,
		Latency:     latency,
		BlockNumber: blockNum,
		Healthy:     err == nil,
		Checked:     true,
	}

	if err == nil && bestBlock > 0 && bestBlock-blockNum > staleBlockThreshold {
		ep.Healthy = false
	}

	return ep, err
}
