package fixtures

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// RPCScenario is one canned JSON-RPC node, loaded from test/fixtures/rpc.
// Calls maps a 4-byte selector prefix ("0x70a08231") to the eth_call result;
// a selector absent from the map reverts.
type RPCScenario struct {
	Balance     string            `json:"eth_getBalance"`
	Code        string            `json:"eth_getCode"`
	BlockNumber string            `json:"eth_blockNumber"`
	Calls       map[string]string `json:"calls"`
}

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// LoadRPCScenario loads a canned node description from the rpc directory.
func LoadRPCScenario(t *testing.T, filename string) *RPCScenario {
	t.Helper()
	path := filepath.Join(fixturesDir(), "rpc", filename)
	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to load fixture RPC scenario: %s", filename)

	var sc RPCScenario
	require.NoError(t, json.Unmarshal(data, &sc))
	return &sc
}
