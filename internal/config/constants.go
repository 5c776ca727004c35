package config

import "time"

// Defaults applied when config.json carries no value.
const (
	DefaultWatchInterval = 10        // seconds between live portfolio refreshes
	DefaultServeAddr     = ":8547"   // `w3ledger serve` listen address
	DefaultRPCAlgorithm  = "fastest" // endpoint selection when several are configured
)

// Timeouts shared by cmd and the serve path.
const (
	RPCProbeTimeout    = 10 * time.Second // endpoint liveness check before first use
	ServeShutdownGrace = 5 * time.Second  // drain window after SIGINT
)
