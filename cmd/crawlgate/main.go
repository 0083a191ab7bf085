package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/tachi-protocol/crawlgate/internal/catalog"
	"github.com/tachi-protocol/crawlgate/internal/config"
	"github.com/tachi-protocol/crawlgate/internal/crawllog"
	"github.com/tachi-protocol/crawlgate/internal/gateway"
	"github.com/tachi-protocol/crawlgate/internal/http_api"
	"github.com/tachi-protocol/crawlgate/internal/ledger"
	"github.com/tachi-protocol/crawlgate/internal/models"
	"github.com/tachi-protocol/crawlgate/internal/notificator"
	"github.com/tachi-protocol/crawlgate/internal/replay"
	"github.com/tachi-protocol/crawlgate/internal/verifier"
	"github.com/tachi-protocol/crawlgate/pkg/logger"
	"github.com/tachi-protocol/crawlgate/pkg/validation"
)

func main() {
	app := &cli.App{
		Name:  "crawlgate",
		Usage: "Crawlgate is a pay-per-crawl content gateway",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "api-port", Aliases: []string{"a"}, Usage: "API port"},
			&cli.StringFlag{Name: "rpc-url", Aliases: []string{"r"}, Usage: "Ledger RPC endpoint URL"},
			&cli.StringFlag{Name: "network", Aliases: []string{"n"}, Usage: "Ledger network (base, base-sepolia)"},
			&cli.StringFlag{Name: "recipient", Aliases: []string{"R"}, Usage: "Publisher payout address"},
			&cli.StringFlag{Name: "catalog", Aliases: []string{"c"}, Usage: "Path to the resource catalog file"},
			&cli.StringFlag{Name: "redis-url", Usage: "Redis URL for the shared replay guard"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
		},
		Action: func(c *cli.Context) error {
			return run(c)
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	// Override with flags if set
	if c.IsSet("api-port") {
		cfg.APIPort = c.Int("api-port")
	}
	if c.IsSet("rpc-url") {
		cfg.RPCURL = c.String("rpc-url")
	}
	if c.IsSet("network") {
		cfg.Network = c.String("network")
	}
	if c.IsSet("recipient") {
		cfg.RecipientAddress = c.String("recipient")
	}
	if c.IsSet("catalog") {
		cfg.CatalogPath = c.String("catalog")
	}
	if c.IsSet("redis-url") {
		cfg.RedisURL = c.String("redis-url")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %v", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}

	// Initialize the crawl record store
	store, err := crawllog.NewPostgresStore(cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresHost, cfg.PostgresPort, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}
	defer store.Close()

	// Initialize the ledger client
	ledgerClient := ledger.NewEthereum(cfg.RPCURL, cfg.LedgerTimeout, log)
	if err := ledgerClient.Connect(); err != nil {
		return fmt.Errorf("failed to connect to the ledger RPC endpoint: %v", err)
	}
	defer ledgerClient.Close()

	// Initialize the replay guard
	var guard models.ReplayGuard
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %v", err)
		}
		guard = replay.NewRedisGuard(redis.NewClient(opts), cfg.ReplayWindow)
		log.Info("Using Redis replay guard")
	} else {
		guard = replay.NewMemoryGuard(cfg.ReplayWindow)
		log.Info("Using in-memory replay guard")
	}

	// Load the resource catalog
	resourceCatalog := catalog.NewCatalog(log)
	if err := resourceCatalog.LoadFile(cfg.CatalogPath); err != nil {
		return fmt.Errorf("failed to load catalog: %v", err)
	}

	// Crawl record sinks: Postgres always, Kafka when configured
	sinks := []models.CrawlSink{store}
	if cfg.KafkaBrokers != "" {
		kafkaSink := crawllog.NewKafkaSink(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, log)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}

	// Publisher notifications
	notifier, err := buildNotificator(cfg, log)
	if err != nil {
		return err
	}

	paymentVerifier := verifier.NewVerifier(ledgerClient, guard, cfg.FreshnessWindow, log)

	terms := models.PaymentTerms{
		Recipient:     validation.NormalizeAddress(cfg.RecipientAddress),
		Token:         cfg.GetTokenAddress(),
		TokenSymbol:   cfg.TokenSymbol,
		TokenDecimals: cfg.TokenDecimals,
		Network:       cfg.Network,
	}
	gate := gateway.NewGateway(resourceCatalog, paymentVerifier, sinks, notifier, terms, cfg.FreshnessWindow, log)

	apiServer := http_api.NewHTTPServer(gate, store, ledgerClient, cfg.APIPort, cfg.Development, log)
	go apiServer.Start()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutdown signal received")
	return apiServer.Shutdown()
}

// buildNotificator wires the configured notification channels, if any.
func buildNotificator(cfg *config.Config, log *logger.Logger) (models.NotificationService, error) {
	var telegram *notificator.TelegramNotificator
	var email *notificator.EmailNotificator

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		t, err := notificator.NewTelegramNotificator(log, cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telegram notificator: %v", err)
		}
		telegram = t
	}
	if cfg.SMTPHost != "" && cfg.NotifyEmail != "" {
		email = notificator.NewEmailNotificator(log, cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPSender, cfg.NotifyEmail)
	}

	if telegram == nil && email == nil {
		return nil, nil
	}
	return notificator.NewNotificator(log, cfg.TokenDecimals, cfg.TokenSymbol, telegram, email), nil
}
