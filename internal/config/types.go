package config

import (
	"fmt"
	"sort"
)

// Config holds all w3ledger configuration.
type Config struct {
	DefaultAccount string            `json:"default_account"` // address book name used when --from is omitted
	DefaultRPC     string            `json:"default_rpc"`     // endpoint name used when --rpc is omitted
	RPCEndpoints   map[string]string `json:"rpc_endpoints"`   // name -> JSON-RPC URL
	RPCAlgorithm   string            `json:"rpc_algorithm"`   // endpoint selection: fastest | round-robin | failover
	WatchInterval  int               `json:"watch_interval"`  // seconds between live refreshes
	ServeAddr      string            `json:"serve_addr"`      // listen address for `w3ledger serve`

	// internal: config dir path used for Save()
	configDir string
}

// TokensFile is the structure of tokens.json: named token lists fed to
// portfolio queries.
type TokensFile struct {
	Lists map[string][]string `json:"lists"`
}

// SetList stores addrs under name, replacing any previous list.
func (tf *TokensFile) SetList(name string, addrs []string) {
	if tf.Lists == nil {
		tf.Lists = make(map[string][]string)
	}
	tf.Lists[name] = addrs
}

// RemoveList drops the named list.
func (tf *TokensFile) RemoveList(name string) error {
	if _, ok := tf.Lists[name]; !ok {
		return fmt.Errorf("token list %s not found", name)
	}
	delete(tf.Lists, name)
	return nil
}

// List returns the named token list.
func (tf *TokensFile) List(name string) ([]string, bool) {
	addrs, ok := tf.Lists[name]
	return addrs, ok
}

// Names returns all list names, sorted.
func (tf *TokensFile) Names() []string {
	names := make([]string, 0, len(tf.Lists))
	for name := range tf.Lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
