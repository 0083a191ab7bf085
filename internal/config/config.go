package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/tachi-protocol/crawlgate/pkg/validation"
)

// USDC contract addresses per supported network, used when TOKEN_ADDRESS is
// not set explicitly.
const (
	USDCBase        = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	USDCBaseSepolia = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
)

type Config struct {
	Development bool
	// API configuration
	APIPort int
	// Postgres configuration
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	// Ledger configuration
	RPCURL           string
	Network          string
	TokenAddress     string
	TokenSymbol      string
	TokenDecimals    int
	RecipientAddress string
	// Verification configuration
	FreshnessWindow time.Duration
	ReplayWindow    time.Duration
	LedgerTimeout   time.Duration
	// Replay guard backend; empty means the in-memory guard
	RedisURL string
	// Optional crawl record sink
	KafkaBrokers string
	KafkaTopic   string
	// Catalog configuration
	CatalogPath string

	// SMTP configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string

	// Notification configuration
	TelegramBotToken string
	TelegramChatID   string
	NotifyEmail      string
}

// GetTokenAddress returns the configured token contract address, falling
// back to the USDC deployment for the configured network.
func (c *Config) GetTokenAddress() string {
	if c.TokenAddress != "" {
		return c.TokenAddress
	}
	if c.Network == "base" {
		return USDCBase
	}
	return USDCBaseSepolia
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development:      getEnvAsBool("DEVELOPMENT", false),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDB:       getEnv("POSTGRES_DB", "crawlgate"),
		RPCURL:           getEnv("RPC_URL", "http://localhost:8545"),
		Network:          getEnv("NETWORK", "base-sepolia"),
		TokenAddress:     getEnv("TOKEN_ADDRESS", ""),
		TokenSymbol:      getEnv("TOKEN_SYMBOL", "USDC"),
		TokenDecimals:    getEnvAsInt("TOKEN_DECIMALS", 6),
		RecipientAddress: getEnv("RECIPIENT_ADDRESS", ""),
		FreshnessWindow:  getEnvAsDuration("FRESHNESS_WINDOW_SECONDS", 300),
		ReplayWindow:     getEnvAsDuration("REPLAY_WINDOW_SECONDS", 3600),
		LedgerTimeout:    getEnvAsDuration("LEDGER_TIMEOUT_SECONDS", 10),
		RedisURL:         getEnv("REDIS_URL", ""),
		KafkaBrokers:     getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "crawlgate.crawls"),
		CatalogPath:      getEnv("CATALOG_PATH", "catalog.json"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPSender:   getEnv("SMTP_SENDER", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		NotifyEmail:      getEnv("NOTIFY_EMAIL", ""),

		APIPort: getEnvAsInt("API_PORT", 8402),
	}

	// Validation happens after flag overrides are applied
	return cfg, nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.RecipientAddress == "" {
		return fmt.Errorf("RECIPIENT_ADDRESS is required")
	}

	if err := validation.ValidateAddress(c.RecipientAddress); err != nil {
		return fmt.Errorf("invalid RECIPIENT_ADDRESS format: %w", err)
	}

	if c.TokenAddress != "" {
		if err := validation.ValidateAddress(c.TokenAddress); err != nil {
			return fmt.Errorf("invalid TOKEN_ADDRESS format: %w", err)
		}
	}

	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}

	if c.Network != "base" && c.Network != "base-sepolia" {
		return fmt.Errorf("NETWORK must be base or base-sepolia, got %q", c.Network)
	}

	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("FRESHNESS_WINDOW_SECONDS must be positive")
	}

	if c.ReplayWindow <= 0 {
		return fmt.Errorf("REPLAY_WINDOW_SECONDS must be positive")
	}

	if c.PostgresDB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}

	return nil
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(name string, defaultSeconds int) time.Duration {
	seconds := getEnvAsInt(name, defaultSeconds)
	return time.Duration(seconds) * time.Second
}
