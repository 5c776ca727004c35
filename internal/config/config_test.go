package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/w3ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Empty(t, cfg.DefaultAccount)
	assert.Empty(t, cfg.DefaultRPC)
	assert.Equal(t, config.DefaultWatchInterval, cfg.WatchInterval)
	assert.Equal(t, config.DefaultServeAddr, cfg.ServeAddr)
	assert.NotNil(t, cfg.RPCEndpoints)
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.DefaultAccount = "alice"
	cfg.DefaultRPC = "local"
	cfg.WatchInterval = 30

	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "alice", reloaded.DefaultAccount)
	assert.Equal(t, "local", reloaded.DefaultRPC)
	assert.Equal(t, 30, reloaded.WatchInterval)
}

func TestAddEndpoint(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	require.NoError(t, cfg.AddEndpoint("local", "http://127.0.0.1:8545"))

	url, ok := cfg.Endpoint("local")
	assert.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:8545", url)
}

func TestAddDuplicateEndpointErrors(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	cfg.AddEndpoint("local", "http://127.0.0.1:8545") //nolint:errcheck
	err := cfg.AddEndpoint("local", "http://other:8545")
	assert.Error(t, err)
}

func TestRemoveEndpoint(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.AddEndpoint("local", "http://127.0.0.1:8545") //nolint:errcheck
	cfg.AddEndpoint("infra", "https://rpc.example")   //nolint:errcheck

	require.NoError(t, cfg.RemoveEndpoint("local"))

	_, ok := cfg.Endpoint("local")
	assert.False(t, ok)
	_, ok = cfg.Endpoint("infra")
	assert.True(t, ok)
}

func TestRemoveEndpointClearsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	cfg.AddEndpoint("local", "http://127.0.0.1:8545") //nolint:errcheck
	cfg.DefaultRPC = "local"

	require.NoError(t, cfg.RemoveEndpoint("local"))
	assert.Empty(t, cfg.DefaultRPC)
}

func TestRemoveNonExistentEndpointErrors(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	err := cfg.RemoveEndpoint("nonexistent")
	assert.Error(t, err)
}

func TestEndpointNamesSorted(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	cfg.AddEndpoint("zeta", "http://z")  //nolint:errcheck
	cfg.AddEndpoint("alpha", "http://a") //nolint:errcheck

	assert.Equal(t, []string{"alpha", "zeta"}, cfg.EndpointNames())
}

func TestConfigFileCreatedOnSave(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	require.NoError(t, cfg.Save())

	_, err := os.Stat(filepath.Join(dir, "config.json"))
	assert.NoError(t, err, "config.json should be created on save")
}

func TestConfigPaths(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, filepath.Join(dir, "accounts.json"), cfg.AccountsPath())
	assert.Equal(t, filepath.Join(dir, "ledger.db"), cfg.JournalPath())
}

func TestLoadFromNonExistentDir(t *testing.T) {
	dir := t.TempDir() + "/subdir"
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	// Should create dir and return defaults.
	assert.Equal(t, config.DefaultWatchInterval, cfg.WatchInterval)
}

func TestTokenListsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	tf, err := cfg.LoadTokens()
	require.NoError(t, err)
	assert.Empty(t, tf.Names())

	tf.SetList("stables", []string{"0x1111", "0x2222"})
	require.NoError(t, cfg.SaveTokens(tf))

	reloaded, err := cfg.LoadTokens()
	require.NoError(t, err)
	addrs, ok := reloaded.List("stables")
	require.True(t, ok)
	assert.Equal(t, []string{"0x1111", "0x2222"}, addrs)
}

func TestTokenListRemove(t *testing.T) {
	tf := &config.TokensFile{}
	tf.SetList("a", []string{"0x1"})

	require.NoError(t, tf.RemoveList("a"))
	assert.Error(t, tf.RemoveList("a"))
}

func TestTokenListNamesSorted(t *testing.T) {
	tf := &config.TokensFile{}
	tf.SetList("zeta", nil)
	tf.SetList("alpha", nil)

	assert.Equal(t, []string{"alpha", "zeta"}, tf.Names())
}
