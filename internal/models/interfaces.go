package models

import (
	"context"
	"math/big"
)

// LedgerService is the read-only query interface against the underlying
// ledger. Implementations must return ErrNotFound when the queried object
// does not exist and a distinct error for transport failures; callers depend
// on that distinction. No caching, no retries.
type LedgerService interface {
	// ReceiptByReference returns the receipt of the transaction identified
	// by the payment reference (a transaction hash).
	ReceiptByReference(ctx context.Context, reference string) (*PaymentReceipt, error)
	// PaymentByReference resolves the payer, recipient, token and amount of
	// the referenced transaction.
	PaymentByReference(ctx context.Context, reference string) (*PaymentDetails, error)
	// BlockTimestamp returns the unix timestamp of the block with the given
	// number. A nil number means the latest block.
	BlockTimestamp(ctx context.Context, number *big.Int) (uint64, error)
	// Close releases the underlying connection.
	Close() error
}

// ReplayGuard tracks consumed payment references within a protection window.
// CheckAndRecord must be atomic per reference: of any number of concurrent
// calls for the same unseen reference, exactly one observes first=true.
// Entries expire after the window; eviction is the store's responsibility.
type ReplayGuard interface {
	// Seen reports whether the reference was already consumed and is still
	// inside the protection window.
	Seen(ctx context.Context, reference string) (bool, error)
	// CheckAndRecord atomically records the reference, returning true when
	// this call was the first to record it. Recording an already-recorded
	// reference is not an error.
	CheckAndRecord(ctx context.Context, reference string) (bool, error)
}

// PaymentVerifier decides whether a presented payment reference is valid
// proof of payment against the given requirements.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string, req PaymentRequirements) *VerificationResult
}

// CrawlSink receives crawl records fire-and-forget. Append errors are logged
// by the caller and never alter an already-decided response.
type CrawlSink interface {
	Append(ctx context.Context, record *CrawlRecord) error
}

// CrawlStore is a durable, queryable CrawlSink.
type CrawlStore interface {
	CrawlSink
	Recent(ctx context.Context, limit int) ([]*CrawlRecord, error)
	ByResource(ctx context.Context, path string, limit int) ([]*CrawlRecord, error)
	EarningsByResource(ctx context.Context) ([]*ResourceEarnings, error)
	Close() error
}

// ResourceCatalog is the table of protected resources.
type ResourceCatalog interface {
	// Resolve returns the resource registered under path, if any.
	Resolve(path string) (*Resource, bool)
	// List returns all protected resources ordered by path.
	List() []*Resource
}

// ContentGateway is the orchestrator behind the HTTP layer: it looks up
// protected resources, issues challenges and serves content against
// verified payments.
type ContentGateway interface {
	Resolve(path string) (*Resource, bool)
	Resources() []*Resource
	ChallengeFor(resource *Resource) *PaymentChallenge
	// Deliver verifies the reference against the resource's requirements.
	// On success the returned result is Valid and the delivery side effects
	// (crawl record, notifications) are spawned best-effort.
	Deliver(ctx context.Context, resource *Resource, reference string) *VerificationResult
	Terms() PaymentTerms
}

// NotificationService notifies the publisher about paid crawls.
// Implementations must never block or fail the request path.
type NotificationService interface {
	NotifyCrawl(record *CrawlRecord)
}

// APIServer is the HTTP boundary of the gateway.
type APIServer interface {
	Start()
	Shutdown() error
}
