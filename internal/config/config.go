package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	configFile   = "config.json"
	accountsFile = "accounts.json"
	tokensFile   = "tokens.json"
	journalFile  = "ledger.db"
)

// Load reads config from dir (or creates defaults). dir defaults to
// ~/.w3ledger.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".w3ledger")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.RPCEndpoints == nil {
		cfg.RPCEndpoints = make(map[string]string)
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = DefaultWatchInterval
	}
	if cfg.ServeAddr == "" {
		cfg.ServeAddr = DefaultServeAddr
	}
	if cfg.RPCAlgorithm == "" {
		cfg.RPCAlgorithm = DefaultRPCAlgorithm
	}

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// AddEndpoint registers a named RPC endpoint.
func (c *Config) AddEndpoint(name, url string) error {
	if c.RPCEndpoints == nil {
		c.RPCEndpoints = make(map[string]string)
	}
	if _, exists := c.RPCEndpoints[name]; exists {
		return fmt.Errorf("endpoint %s already exists", name)
	}
	c.RPCEndpoints[name] = url
	return nil
}

// RemoveEndpoint drops a named RPC endpoint.
func (c *Config) RemoveEndpoint(name string) error {
	if _, ok := c.RPCEndpoints[name]; !ok {
		return fmt.Errorf("endpoint %s not found", name)
	}
	delete(c.RPCEndpoints, name)
	if c.DefaultRPC == name {
		c.DefaultRPC = ""
	}
	return nil
}

// Endpoint resolves a named RPC endpoint URL.
func (c *Config) Endpoint(name string) (string, bool) {
	url, ok := c.RPCEndpoints[name]
	return url, ok
}

// EndpointNames lists registered endpoint names, sorted.
func (c *Config) EndpointNames() []string {
	names := make([]string, 0, len(c.RPCEndpoints))
	for name := range c.RPCEndpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// AccountsPath is the address book file.
func (c *Config) AccountsPath() string {
	return filepath.Join(c.configDir, accountsFile)
}

// JournalPath is the sqlite database holding the event journal and the
// persisted chain/ledger state.
func (c *Config) JournalPath() string {
	return filepath.Join(c.configDir, journalFile)
}

// LoadTokens reads tokens.json.
func (c *Config) LoadTokens() (*TokensFile, error) {
	return loadJSON[TokensFile](filepath.Join(c.configDir, tokensFile))
}

// SaveTokens writes tokens.json.
func (c *Config) SaveTokens(tf *TokensFile) error {
	return saveJSON(filepath.Join(c.configDir, tokensFile), tf)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		RPCEndpoints:  make(map[string]string),
		WatchInterval: DefaultWatchInterval,
		ServeAddr:     DefaultServeAddr,
		RPCAlgorithm:  DefaultRPCAlgorithm,
		configDir:     dir,
	}
}

func loadJSON[T any](path string) (*T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &zero, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
