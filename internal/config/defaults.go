package config

import "github.com/spf13/viper"

// setDefaults sets the built-in defaults. File and environment values
// override them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("network", "testnet")

	// Chain defaults. Empty strings register the keys so environment
	// overrides bind during unmarshal.
	v.SetDefault("chain.rpc_endpoint", "http://127.0.0.1:9000")
	v.SetDefault("chain.ws_endpoint", "")
	v.SetDefault("chain.package_id", "")
	v.SetDefault("chain.poll_interval_ms", 5000)
	v.SetDefault("chain.poll_batch", 200)

	// Executor defaults
	v.SetDefault("executor.private_key", "")
	v.SetDefault("executor.capability_id", "")

	// Engine defaults
	v.SetDefault("engine.tick_interval_ms", 5000)
	v.SetDefault("engine.recent_ttl_ms", 60000)
	v.SetDefault("engine.max_parallel", 4)
	v.SetDefault("engine.gas_budget_direct", 50_000_000)
	v.SetDefault("engine.gas_budget_composite", 100_000_000)

	// Router defaults
	v.SetDefault("router.max_native_legs", 5)
	v.SetDefault("router.min_leg_amount", 1)
	v.SetDefault("router.enable_splits", true)
	v.SetDefault("router.native_bias_bps", 0)
	v.SetDefault("router.quote_deadline_ms", 250)
	v.SetDefault("router.quote_concurrency", 4)

	// Venue defaults: both disabled until pointed at real registries.
	v.SetDefault("venues.amm.enabled", false)
	v.SetDefault("venues.amm.package_id", "")
	v.SetDefault("venues.amm.pool_registry_id", "")
	v.SetDefault("venues.amm.slippage_bps", 50)
	v.SetDefault("venues.amm.cache_ttl_ms", 30000)
	v.SetDefault("venues.clob.enabled", false)
	v.SetDefault("venues.clob.package_id", "")
	v.SetDefault("venues.clob.book_registry_id", "")
	v.SetDefault("venues.clob.slippage_bps", 50)
	v.SetDefault("venues.clob.cache_ttl_ms", 10000)

	// Confidentiality defaults
	v.SetDefault("confidential.enabled", false)
	v.SetDefault("confidential.endpoint", "")
	v.SetDefault("confidential.revocation_registry_id", "")
	v.SetDefault("confidential.session_ttl_ms", 600000)

	// State defaults: journal disabled, in-memory dedup only.
	v.SetDefault("state.dir", "")

	// Admin defaults
	v.SetDefault("admin.grpc_address", "127.0.0.1:50051")
	v.SetDefault("admin.http_address", "127.0.0.1:9184")
}
