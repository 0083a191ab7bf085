package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		RecipientAddress: "0x1111111111111111111111111111111111111111",
		RPCURL:           "https://sepolia.base.org",
		Network:          "base-sepolia",
		FreshnessWindow:  5 * time.Minute,
		ReplayWindow:     time.Hour,
		PostgresHost:     "localhost",
		PostgresDB:       "crawlgate",
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing recipient", func(c *Config) { c.RecipientAddress = "" }},
		{"malformed recipient", func(c *Config) { c.RecipientAddress = "0xabc" }},
		{"malformed token", func(c *Config) { c.TokenAddress = "not-hex" }},
		{"missing rpc url", func(c *Config) { c.RPCURL = "" }},
		{"unknown network", func(c *Config) { c.Network = "mainnet" }},
		{"zero freshness window", func(c *Config) { c.FreshnessWindow = 0 }},
		{"zero replay window", func(c *Config) { c.ReplayWindow = 0 }},
		{"missing db", func(c *Config) { c.PostgresDB = "" }},
		{"missing db host", func(c *Config) { c.PostgresHost = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetTokenAddress(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, USDCBaseSepolia, cfg.GetTokenAddress())

	cfg.Network = "base"
	assert.Equal(t, USDCBase, cfg.GetTokenAddress())

	cfg.TokenAddress = "0x2222222222222222222222222222222222222222"
	assert.Equal(t, cfg.TokenAddress, cfg.GetTokenAddress())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8402, cfg.APIPort)
	assert.Equal(t, "base-sepolia", cfg.Network)
	assert.Equal(t, "USDC", cfg.TokenSymbol)
	assert.Equal(t, 6, cfg.TokenDecimals)
	assert.Equal(t, 5*time.Minute, cfg.FreshnessWindow)
	assert.Equal(t, time.Hour, cfg.ReplayWindow)
	assert.Equal(t, 10*time.Second, cfg.LedgerTimeout)
	assert.Equal(t, "crawlgate.crawls", cfg.KafkaTopic)
	assert.Equal(t, "catalog.json", cfg.CatalogPath)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9000")
	t.Setenv("NETWORK", "base")
	t.Setenv("FRESHNESS_WINDOW_SECONDS", "120")
	t.Setenv("RECIPIENT_ADDRESS", "0x1111111111111111111111111111111111111111")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, "base", cfg.Network)
	assert.Equal(t, 2*time.Minute, cfg.FreshnessWindow)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.RecipientAddress)
}
