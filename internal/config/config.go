// Package config loads and validates the daemon configuration from
// defaults, an optional TOML file and ROUTERD_-prefixed environment
// variables, in that priority order.
package config

import (
	"time"
)

// Config is the complete daemon configuration.
type Config struct {
	// Network is a free-form tag for the chain environment (e.g.
	// "testnet", "mainnet"), surfaced on the status endpoint.
	Network string `mapstructure:"network"`

	Chain        ChainConfig        `mapstructure:"chain"`
	Executor     ExecutorConfig     `mapstructure:"executor"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Router       RouterConfig       `mapstructure:"router"`
	Venues       VenuesConfig       `mapstructure:"venues"`
	Confidential ConfidentialConfig `mapstructure:"confidential"`
	State        StateConfig        `mapstructure:"state"`
	Admin        AdminConfig        `mapstructure:"admin"`

	configPath string
}

// ChainConfig describes the chain endpoint and the protocol package.
type ChainConfig struct {
	// RPCEndpoint is the JSON-RPC HTTP endpoint.
	RPCEndpoint string `mapstructure:"rpc_endpoint"`
	// WSEndpoint overrides the websocket endpoint; empty derives it from
	// the RPC endpoint.
	WSEndpoint string `mapstructure:"ws_endpoint"`
	// PackageID is the on-chain protocol package emitting the events.
	PackageID string `mapstructure:"package_id"`
	// PollIntervalMs is the event polling cadence when push is unavailable.
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	// PollBatch is the page size for event queries.
	PollBatch int `mapstructure:"poll_batch"`
}

// PollInterval returns the polling cadence as a duration.
func (c ChainConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// ExecutorConfig holds the signing identity and execution authority.
type ExecutorConfig struct {
	// PrivateKey is the hex-encoded secp256k1 key. Prefer setting it via
	// ROUTERD_EXECUTOR_PRIVATE_KEY rather than the config file.
	PrivateKey string `mapstructure:"private_key"`
	// CapabilityID is the on-chain executor capability object.
	CapabilityID string `mapstructure:"capability_id"`
	// FundingCoins maps pay asset type to the executor's coin object id.
	FundingCoins map[string]string `mapstructure:"funding_coins"`
}

// EngineConfig holds the execution loop parameters.
type EngineConfig struct {
	TickIntervalMs int `mapstructure:"tick_interval_ms"`
	// RecentTTLMs is the dedup window after a successful submission.
	RecentTTLMs int `mapstructure:"recent_ttl_ms"`
	// MaxParallel bounds concurrent intent processors per tick.
	MaxParallel int `mapstructure:"max_parallel"`

	GasBudgetDirect    uint64 `mapstructure:"gas_budget_direct"`
	GasBudgetComposite uint64 `mapstructure:"gas_budget_composite"`
}

// TickInterval returns the loop cadence as a duration.
func (c EngineConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// RecentTTL returns the dedup window as a duration.
func (c EngineConfig) RecentTTL() time.Duration {
	return time.Duration(c.RecentTTLMs) * time.Millisecond
}

// RouterConfig holds the route search policy.
type RouterConfig struct {
	MaxNativeLegs    int    `mapstructure:"max_native_legs"`
	MinLegAmount     uint64 `mapstructure:"min_leg_amount"`
	EnableSplits     bool   `mapstructure:"enable_splits"`
	NativeBiasBps    uint64 `mapstructure:"native_bias_bps"`
	QuoteDeadlineMs  int    `mapstructure:"quote_deadline_ms"`
	QuoteConcurrency int    `mapstructure:"quote_concurrency"`
}

// QuoteDeadline returns the per-venue quote deadline as a duration.
func (c RouterConfig) QuoteDeadline() time.Duration {
	return time.Duration(c.QuoteDeadlineMs) * time.Millisecond
}

// VenuesConfig enables and parameterizes the external liquidity sources.
type VenuesConfig struct {
	AMM  AMMVenueConfig  `mapstructure:"amm"`
	CLOB CLOBVenueConfig `mapstructure:"clob"`
}

// AMMVenueConfig configures the pool venue adapter.
type AMMVenueConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// PackageID is the venue's on-chain package.
	PackageID string `mapstructure:"package_id"`
	// PoolRegistryID is the object listing the venue's pools.
	PoolRegistryID string `mapstructure:"pool_registry_id"`
	SlippageBps    uint64 `mapstructure:"slippage_bps"`
	CacheTTLMs     int    `mapstructure:"cache_ttl_ms"`
}

// CLOBVenueConfig configures the order book venue adapter.
type CLOBVenueConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// PackageID is the venue's on-chain package.
	PackageID string `mapstructure:"package_id"`
	// BookRegistryID is the object listing the venue's markets.
	BookRegistryID string `mapstructure:"book_registry_id"`
	SlippageBps    uint64 `mapstructure:"slippage_bps"`
	CacheTTLMs     int    `mapstructure:"cache_ttl_ms"`
}

// ConfidentialConfig configures the confidentiality collaborator boundary.
type ConfidentialConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the collaborator service address.
	Endpoint string `mapstructure:"endpoint"`
	// RevocationRegistryID is the on-chain registry consulted before
	// decryption is attempted.
	RevocationRegistryID string `mapstructure:"revocation_registry_id"`
	// SessionTTLMs bounds how long a minted session credential is used.
	SessionTTLMs int `mapstructure:"session_ttl_ms"`
}

// StateConfig controls the on-disk settlement journal.
type StateConfig struct {
	// Dir is where the journal lives. Empty runs fully in-memory; a
	// restarted executor then risks resubmitting against intents it
	// settled just before the restart.
	Dir string `mapstructure:"dir"`
}

// AdminConfig holds the operational listeners.
type AdminConfig struct {
	// GRPCAddress serves the health probe; empty disables it.
	GRPCAddress string `mapstructure:"grpc_address"`
	// HTTPAddress serves /metrics and /status; empty disables it.
	HTTPAddress string `mapstructure:"http_address"`
}

// GetConfigPath returns the path the configuration was loaded from, empty
// when running on defaults and environment only.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
