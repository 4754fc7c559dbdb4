package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routerd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalTOML = `
network = "testnet"

[chain]
rpc_endpoint = "https://fullnode.example.com:443"
package_id = "0x2d5f"
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalTOML))
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, "0x2d5f", cfg.Chain.PackageID)
	assert.Equal(t, 5*time.Second, cfg.Chain.PollInterval())
	assert.Equal(t, 200, cfg.Chain.PollBatch)
	assert.Equal(t, 5*time.Second, cfg.Engine.TickInterval())
	assert.Equal(t, 60*time.Second, cfg.Engine.RecentTTL())
	assert.Equal(t, uint64(50_000_000), cfg.Engine.GasBudgetDirect)
	assert.Equal(t, uint64(100_000_000), cfg.Engine.GasBudgetComposite)
	assert.Equal(t, 5, cfg.Router.MaxNativeLegs)
	assert.True(t, cfg.Router.EnableSplits)
	assert.Equal(t, 250*time.Millisecond, cfg.Router.QuoteDeadline())
	assert.False(t, cfg.Venues.AMM.Enabled)
	assert.False(t, cfg.Confidential.Enabled)
	assert.Empty(t, cfg.State.Dir)
	assert.Equal(t, "127.0.0.1:50051", cfg.Admin.GRPCAddress)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalTOML+`
[engine]
tick_interval_ms = 2000
max_parallel = 8

[router]
native_bias_bps = 25
enable_splits = false

[venues.amm]
enabled = true
package_id = "0x8c44"
pool_registry_id = "0x03da"
slippage_bps = 75

[executor]
capability_id = "0x9ab1"

[executor.funding_coins]
"0x2::coin::USDC" = "0x71fe"
`))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Engine.TickInterval())
	assert.Equal(t, 8, cfg.Engine.MaxParallel)
	assert.Equal(t, uint64(25), cfg.Router.NativeBiasBps)
	assert.False(t, cfg.Router.EnableSplits)
	assert.True(t, cfg.Venues.AMM.Enabled)
	assert.Equal(t, uint64(75), cfg.Venues.AMM.SlippageBps)
	assert.Equal(t, "0x9ab1", cfg.Executor.CapabilityID)
	assert.Equal(t, "0x71fe", cfg.Executor.FundingCoins["0x2::coin::USDC"])
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ROUTERD_NETWORK", "mainnet")
	t.Setenv("ROUTERD_CHAIN_PACKAGE_ID", "0xfeed")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, "0xfeed", cfg.Chain.PackageID)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/routerd.toml")
	assert.Error(t, err)
}

func TestValidateConfigFailures(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"missing package id", `
[chain]
rpc_endpoint = "http://x:1"
`},
		{"bad package id", `
[chain]
rpc_endpoint = "http://x:1"
package_id = "not-hex"
`},
		{"bad private key", minimalTOML + `
[executor]
private_key = "abcd"
`},
		{"amm enabled without registry", minimalTOML + `
[venues.amm]
enabled = true
`},
		{"confidential enabled without endpoint", minimalTOML + `
[confidential]
enabled = true
`},
		{"bad admin address", minimalTOML + `
[admin]
http_address = "no-port"
`},
		{"zero tick interval", minimalTOML + `
[engine]
tick_interval_ms = 0
`},
		{"excessive native bias", minimalTOML + `
[router]
native_bias_bps = 20000
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.toml))
			assert.Error(t, err)
		})
	}
}

func TestValidObjectIDs(t *testing.T) {
	assert.NoError(t, validateObjectID("0x2d5f"))
	assert.NoError(t, validateObjectID("0x6"))
	assert.Error(t, validateObjectID("2d5f"))
	assert.Error(t, validateObjectID("0x"))
	assert.Error(t, validateObjectID("0xzz"))
}

func TestSaveExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.toml")
	require.NoError(t, SaveExampleConfig(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "rpc_endpoint")
}
