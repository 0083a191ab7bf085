package verifier

import (
	"context"
	"errors"
	"time"

	"github.com/tachi-protocol/crawlgate/internal/models"
	"github.com/tachi-protocol/crawlgate/internal/telemetry"
	"github.com/tachi-protocol/crawlgate/pkg/logger"
	"github.com/tachi-protocol/crawlgate/pkg/validation"
)

// Verifier decides whether a payment reference is valid proof of payment.
// Checks run in a fixed order and short-circuit on the first failure:
// replay, existence, success, recency, party/amount, then the commit to the
// replay guard. The replay check runs before any ledger query so a known
// reused reference never costs an RPC round trip.
type Verifier struct {
	logger *logger.Logger
	ledger models.LedgerService
	guard  models.ReplayGuard

	// freshness bounds how old the payment's block may be. The boundary is
	// inclusive: age equal to the window still passes.
	freshness time.Duration
}

// NewVerifier creates a new Verifier.
func NewVerifier(ledger models.LedgerService, guard models.ReplayGuard, freshness time.Duration, logger *logger.Logger) *Verifier {
	return &Verifier{
		logger:    logger,
		ledger:    ledger,
		guard:     guard,
		freshness: freshness,
	}
}

// Verify checks the referenced transaction against the requirements and
// returns an all-or-nothing result. Verification never retries; a transport
// failure surfaces as verification_unavailable and the caller may retry the
// whole request, which is safe because the guard commits only on success.
func (v *Verifier) Verify(ctx context.Context, reference string, req models.PaymentRequirements) *models.VerificationResult {
	reference = validation.NormalizeReference(reference)

	result := v.verify(ctx, reference, req)
	telemetry.ObserveVerification(result)
	return result
}

func (v *Verifier) verify(ctx context.Context, reference string, req models.PaymentRequirements) *models.VerificationResult {
	// Replay check before anything touches the ledger.
	seen, err := v.guard.Seen(ctx, reference)
	if err != nil {
		v.logger.Errorw("Replay guard unavailable", "reference", reference, "error", err)
		return models.Rejected(models.FailureVerificationUnavailable)
	}
	if seen {
		v.logger.Debugw("Replayed payment reference rejected", "reference", reference)
		return models.Rejected(models.FailureAlreadyUsed)
	}

	receipt, err := v.ledger.ReceiptByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Rejected(models.FailureNotFound)
		}
		v.logger.Errorw("Failed to query receipt", "reference", reference, "error", err)
		return models.Rejected(models.FailureVerificationUnavailable)
	}

	if !receipt.Succeeded() {
		return models.Rejected(models.FailureTransactionFailed)
	}

	blockTime, err := v.ledger.BlockTimestamp(ctx, receipt.BlockNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Rejected(models.FailureNotFound)
		}
		v.logger.Errorw("Failed to query block timestamp", "reference", reference, "error", err)
		return models.Rejected(models.FailureVerificationUnavailable)
	}
	age := time.Since(time.Unix(int64(blockTime), 0))
	if age > v.freshness {
		v.logger.Debugw("Stale payment rejected", "reference", reference, "age", age)
		return models.Rejected(models.FailureExpired)
	}

	payment, err := v.ledger.PaymentByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Rejected(models.FailureNotFound)
		}
		v.logger.Errorw("Failed to query payment details", "reference", reference, "error", err)
		return models.Rejected(models.FailureVerificationUnavailable)
	}

	if !v.satisfies(payment, req) {
		return models.Rejected(models.FailureAmountOrPartyMismatch)
	}

	// Commit: exactly one concurrent verification of the same reference may
	// pass this point.
	first, err := v.guard.CheckAndRecord(ctx, reference)
	if err != nil {
		v.logger.Errorw("Replay guard unavailable on commit", "reference", reference, "error", err)
		return models.Rejected(models.FailureVerificationUnavailable)
	}
	if !first {
		v.logger.Debugw("Lost replay commit race", "reference", reference)
		return models.Rejected(models.FailureAlreadyUsed)
	}

	return models.Verified(validation.NormalizeAddress(payment.Payer), payment.Amount)
}

// satisfies checks recipient and token exactly and the amount as a minimum.
func (v *Verifier) satisfies(payment *models.PaymentDetails, req models.PaymentRequirements) bool {
	if payment.Recipient == "" || payment.Amount == nil {
		return false
	}
	if validation.NormalizeAddress(payment.Recipient) != validation.NormalizeAddress(req.Recipient) {
		return false
	}
	if !equalToken(payment.Token, req.Token) {
		return false
	}
	return payment.Amount.Cmp(req.MinAmount) >= 0
}

func equalToken(a, b string) bool {
	if a == models.NativeToken || b == models.NativeToken {
		return a == b
	}
	return validation.NormalizeAddress(a) == validation.NormalizeAddress(b)
}
