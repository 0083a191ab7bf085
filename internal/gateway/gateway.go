package gateway

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/tachi-protocol/crawlgate/internal/models"
	"github.com/tachi-protocol/crawlgate/internal/telemetry"
	"github.com/tachi-protocol/crawlgate/pkg/logger"
)

// recordTimeout bounds the best-effort crawl record writes spawned after a
// response has been decided.
const recordTimeout = 15 * time.Second

// Gateway is the content gate orchestrator. It owns no persistent state of
// its own: resources come from the catalog, payment decisions from the
// verifier, and the only durable side effect on the success path is the
// fire-and-forget crawl record.
type Gateway struct {
	logger *logger.Logger

	catalog  models.ResourceCatalog
	verifier models.PaymentVerifier
	sinks    []models.CrawlSink
	notifier models.NotificationService

	terms     models.PaymentTerms
	freshness time.Duration
}

// NewGateway creates a new Gateway. Notifier may be nil; sinks may be empty.
func NewGateway(
	catalog models.ResourceCatalog,
	verifier models.PaymentVerifier,
	sinks []models.CrawlSink,
	notifier models.NotificationService,
	terms models.PaymentTerms,
	freshness time.Duration,
	logger *logger.Logger,
) *Gateway {
	return &Gateway{
		logger:    logger,
		catalog:   catalog,
		verifier:  verifier,
		sinks:     sinks,
		notifier:  notifier,
		terms:     terms,
		freshness: freshness,
	}
}

// Terms returns the gateway-wide payment parameters.
func (g *Gateway) Terms() models.PaymentTerms {
	return g.terms
}

// Resolve looks up a protected resource by request path.
func (g *Gateway) Resolve(path string) (*models.Resource, bool) {
	return g.catalog.Resolve(path)
}

// Resources lists all protected resources.
func (g *Gateway) Resources() []*models.Resource {
	return g.catalog.List()
}

// ChallengeFor builds the 402 challenge for a resource. No per-request
// nonce is issued; a payment satisfying the advertised terms within the
// freshness window is accepted from whichever requester presents it first.
func (g *Gateway) ChallengeFor(resource *models.Resource) *models.PaymentChallenge {
	return &models.PaymentChallenge{
		Recipient:          g.terms.Recipient,
		Amount:             models.FormatAmount(resource.Price, g.terms.TokenDecimals),
		AmountSmallestUnit: resource.Price.String(),
		Token:              g.terms.Token,
		Network:            g.terms.Network,
		ExpiresAt:          time.Now().Add(g.freshness).Unix(),
	}
}

// Deliver verifies the reference against the resource's requirements and,
// on success, spawns the best-effort record/notify side effects. The
// returned result fully determines the response; side-effect failures can
// no longer change it.
func (g *Gateway) Deliver(ctx context.Context, resource *models.Resource, reference string) *models.VerificationResult {
	result := g.verifier.Verify(ctx, reference, models.PaymentRequirements{
		Recipient: g.terms.Recipient,
		Token:     g.terms.Token,
		MinAmount: resource.Price,
	})
	if !result.Valid {
		g.logger.Debugw("Payment verification rejected",
			"reference", reference, "path", resource.Path, "reason", result.Reason)
		return result
	}

	record := &models.CrawlRecord{
		ID:               uuid.NewString(),
		PaymentReference: reference,
		ResourcePath:     resource.Path,
		RecipientAddress: g.terms.Recipient,
		PayerAddress:     result.Payer,
		AmountPaid:       result.AmountPaid.String(),
		Token:            g.terms.Token,
		Network:          g.terms.Network,
		Timestamp:        time.Now().Unix(),
	}
	g.safeGo(func() { g.recordCrawl(record) }, "recordCrawl")

	g.logger.Infow("Content delivered",
		"path", resource.Path, "reference", reference,
		"payer", result.Payer, "amount", result.AmountPaid.String())
	return result
}

// recordCrawl writes the crawl record to every sink and notifies the
// publisher. Runs detached from the request; errors are logged and dropped.
func (g *Gateway) recordCrawl(record *models.CrawlRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	for _, sink := range g.sinks {
		if err := sink.Append(ctx, record); err != nil {
			telemetry.CrawlRecordFailuresTotal.Inc()
			g.logger.Errorw("Failed to record crawl",
				"reference", record.PaymentReference, "path", record.ResourcePath, "error", err)
		}
	}

	if g.notifier != nil {
		g.notifier.NotifyCrawl(record)
	}
}

// safeGo runs a function in a goroutine with panic recovery.
func (g *Gateway) safeGo(fn func(), context string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.logger.Errorw("Background task panicked",
					"context", context, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
