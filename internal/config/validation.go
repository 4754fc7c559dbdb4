package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"
)

// ValidateConfig performs comprehensive validation on the complete
// configuration. Errors here are fatal at startup; running with a broken
// executor identity or a missing package id would only fail later and
// noisier.
func ValidateConfig(config *Config) error {
	if err := validateChainConfig(&config.Chain); err != nil {
		return fmt.Errorf("chain config validation failed: %w", err)
	}
	if err := validateExecutorConfig(&config.Executor); err != nil {
		return fmt.Errorf("executor config validation failed: %w", err)
	}
	if err := validateEngineConfig(&config.Engine); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}
	if err := validateRouterConfig(&config.Router); err != nil {
		return fmt.Errorf("router config validation failed: %w", err)
	}
	if err := validateVenuesConfig(&config.Venues); err != nil {
		return fmt.Errorf("venues config validation failed: %w", err)
	}
	if err := validateConfidentialConfig(&config.Confidential); err != nil {
		return fmt.Errorf("confidential config validation failed: %w", err)
	}
	if err := validateAdminConfig(&config.Admin); err != nil {
		return fmt.Errorf("admin config validation failed: %w", err)
	}
	return nil
}

func validateChainConfig(c *ChainConfig) error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("rpc_endpoint is required")
	}
	if c.PackageID == "" {
		return fmt.Errorf("package_id is required")
	}
	if err := validateObjectID(c.PackageID); err != nil {
		return fmt.Errorf("package_id: %w", err)
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}
	if c.PollBatch <= 0 {
		return fmt.Errorf("poll_batch must be positive")
	}
	return nil
}

func validateExecutorConfig(c *ExecutorConfig) error {
	if c.PrivateKey != "" {
		raw := strings.TrimPrefix(strings.TrimSpace(c.PrivateKey), "0x")
		if _, err := hex.DecodeString(raw); err != nil || len(raw) != 64 {
			return fmt.Errorf("private_key must be 32 bytes of hex")
		}
	}
	if c.CapabilityID != "" {
		if err := validateObjectID(c.CapabilityID); err != nil {
			return fmt.Errorf("capability_id: %w", err)
		}
	}
	for asset, coin := range c.FundingCoins {
		if asset == "" || coin == "" {
			return fmt.Errorf("funding_coins entries must be non-empty")
		}
		if err := validateObjectID(coin); err != nil {
			return fmt.Errorf("funding_coins[%s]: %w", asset, err)
		}
	}
	return nil
}

func validateEngineConfig(c *EngineConfig) error {
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive")
	}
	if c.RecentTTLMs <= 0 {
		return fmt.Errorf("recent_ttl_ms must be positive")
	}
	if c.MaxParallel <= 0 {
		return fmt.Errorf("max_parallel must be positive")
	}
	if c.GasBudgetDirect == 0 || c.GasBudgetComposite == 0 {
		return fmt.Errorf("gas budgets must be positive")
	}
	return nil
}

func validateRouterConfig(c *RouterConfig) error {
	if c.MaxNativeLegs <= 0 {
		return fmt.Errorf("max_native_legs must be positive")
	}
	if c.QuoteDeadlineMs <= 0 {
		return fmt.Errorf("quote_deadline_ms must be positive")
	}
	if c.QuoteConcurrency <= 0 {
		return fmt.Errorf("quote_concurrency must be positive")
	}
	if c.NativeBiasBps > 10_000 {
		return fmt.Errorf("native_bias_bps must not exceed 10000")
	}
	return nil
}

func validateVenuesConfig(c *VenuesConfig) error {
	if c.AMM.Enabled {
		if c.AMM.PackageID == "" || c.AMM.PoolRegistryID == "" {
			return fmt.Errorf("amm venue requires package_id and pool_registry_id")
		}
		if c.AMM.SlippageBps >= 10_000 {
			return fmt.Errorf("amm slippage_bps must be below 10000")
		}
	}
	if c.CLOB.Enabled {
		if c.CLOB.PackageID == "" || c.CLOB.BookRegistryID == "" {
			return fmt.Errorf("clob venue requires package_id and book_registry_id")
		}
		if c.CLOB.SlippageBps >= 10_000 {
			return fmt.Errorf("clob slippage_bps must be below 10000")
		}
	}
	return nil
}

func validateConfidentialConfig(c *ConfidentialConfig) error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("confidential endpoint is required when enabled")
	}
	if c.SessionTTLMs <= 0 {
		return fmt.Errorf("session_ttl_ms must be positive")
	}
	return nil
}

func validateAdminConfig(c *AdminConfig) error {
	if c.GRPCAddress != "" {
		if _, _, err := net.SplitHostPort(c.GRPCAddress); err != nil {
			return fmt.Errorf("invalid grpc_address: %w", err)
		}
	}
	if c.HTTPAddress != "" {
		if _, _, err := net.SplitHostPort(c.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http_address: %w", err)
		}
	}
	return nil
}

// validateObjectID checks the 0x-prefixed hex shape of on-chain ids.
func validateObjectID(id string) error {
	if !strings.HasPrefix(id, "0x") {
		return fmt.Errorf("object id must be 0x-prefixed: %s", id)
	}
	body := id[2:]
	if body == "" {
		return fmt.Errorf("object id is empty")
	}
	if _, err := hex.DecodeString(padEven(body)); err != nil {
		return fmt.Errorf("object id is not hex: %s", id)
	}
	return nil
}

func padEven(s string) string {
	if len(s)%2 == 1 {
		return "0" + s
	}
	return s
}
