package notificator

import (
	"fmt"
	"math/big"
	"runtime/debug"

	"github.com/tachi-protocol/crawlgate/internal/models"
	"github.com/tachi-protocol/crawlgate/pkg/logger"
)

// Notificator tells the publisher about paid crawls over the configured
// channels. It is only ever called off the request path and swallows every
// failure.
type Notificator struct {
	logger *logger.Logger

	decimals int
	symbol   string

	Telegram *TelegramNotificator
	Email    *EmailNotificator
}

// NewNotificator creates a notificator over the given channels. Either
// channel may be nil.
func NewNotificator(logger *logger.Logger, decimals int, symbol string, telegram *TelegramNotificator, email *EmailNotificator) *Notificator {
	return &Notificator{
		logger:   logger,
		decimals: decimals,
		symbol:   symbol,
		Telegram: telegram,
		Email:    email,
	}
}

// safeCall runs a function with panic recovery (synchronous, no goroutine spawning)
func (n *Notificator) safeCall(fn func(), context string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Function panicked",
				"context", context,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// NotifyCrawl sends the paid-crawl notification over every configured channel.
func (n *Notificator) NotifyCrawl(record *models.CrawlRecord) {
	message := n.format(record)

	if n.Telegram != nil {
		n.safeCall(func() { n.Telegram.SendNotification(message) }, "telegramNotification")
	}
	if n.Email != nil {
		n.safeCall(func() { n.Email.SendNotification(message) }, "emailNotification")
	}
}

func (n *Notificator) format(record *models.CrawlRecord) string {
	amount := record.AmountPaid
	if parsed, ok := parseAmount(record.AmountPaid); ok {
		amount = models.FormatAmount(parsed, n.decimals)
	}
	return fmt.Sprintf("Paid crawl: %s for %s %s from %s (tx %s)",
		record.ResourcePath, amount, n.symbol, record.PayerAddress, record.PaymentReference)
}

func parseAmount(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}
