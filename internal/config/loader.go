package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (routerd.toml), if a path is given
// 3. Environment variables (ROUTERD_ prefix)
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults first
	setDefaults(v)

	// 2. Load configuration file when given
	if configPath != "" {
		if err := loadConfigFile(v, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// 3. Set up environment variable support
	v.SetEnvPrefix("ROUTERD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = configPath

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

func loadConfigFile(v *viper.Viper, configPath string) error {
	v.SetConfigFile(configPath)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return nil
}

// SaveExampleConfig writes an annotated example configuration file.
func SaveExampleConfig(configPath string) error {
	v := viper.New()
	for key, value := range generateExampleConfig() {
		v.Set(key, value)
	}
	v.SetConfigFile(configPath)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}
	return nil
}

func generateExampleConfig() map[string]interface{} {
	return map[string]interface{}{
		"network": "testnet",

		"chain.rpc_endpoint":     "https://fullnode.testnet.example.com:443",
		"chain.package_id":       "0x2d5f...replace",
		"chain.poll_interval_ms": 5000,

		"executor.capability_id": "0x9ab1...replace",
		"executor.funding_coins": map[string]string{
			"0x2::coin::USDC": "0x71fe...replace",
		},

		"router.enable_splits":   true,
		"router.native_bias_bps": 10,

		"venues.amm.enabled":          true,
		"venues.amm.package_id":       "0x8c44...replace",
		"venues.amm.pool_registry_id": "0x03da...replace",

		"state.dir": "/var/lib/routerd",

		"admin.grpc_address": "127.0.0.1:50051",
		"admin.http_address": "127.0.0.1:9184",
	}
}
