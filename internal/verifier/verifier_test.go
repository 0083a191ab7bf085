package verifier

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tachi-protocol/crawlgate/internal/models"
	"github.com/tachi-protocol/crawlgate/internal/replay"
	"github.com/tachi-protocol/crawlgate/pkg/logger"
)

const (
	testReference = "0x4e3a3754410177e6937ef1f84bba68ea139e8d1a2258c5f85db9f1cd715a1bdd"
	testRecipient = "0x1111111111111111111111111111111111111111"
	testPayer     = "0x2222222222222222222222222222222222222222"
	testToken     = "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"
)

// fakeLedger is a scripted LedgerService that counts its calls.
type fakeLedger struct {
	receipt    *models.PaymentReceipt
	receiptErr error
	payment    *models.PaymentDetails
	paymentErr error
	blockTime  uint64
	blockErr   error

	calls atomic.Int64
}

func (f *fakeLedger) ReceiptByReference(_ context.Context, _ string) (*models.PaymentReceipt, error) {
	f.calls.Add(1)
	return f.receipt, f.receiptErr
}

func (f *fakeLedger) PaymentByReference(_ context.Context, _ string) (*models.PaymentDetails, error) {
	f.calls.Add(1)
	return f.payment, f.paymentErr
}

func (f *fakeLedger) BlockTimestamp(_ context.Context, _ *big.Int) (uint64, error) {
	f.calls.Add(1)
	return f.blockTime, f.blockErr
}

func (f *fakeLedger) Close() error { return nil }

// healthyLedger scripts a ledger holding a fresh, successful payment of
// 1 USDC to the test recipient.
func healthyLedger() *fakeLedger {
	return &fakeLedger{
		receipt:   &models.PaymentReceipt{Status: 1, BlockNumber: big.NewInt(100)},
		blockTime: uint64(time.Now().Unix()),
		payment: &models.PaymentDetails{
			Payer:     testPayer,
			Recipient: testRecipient,
			Token:     testToken,
			Amount:    big.NewInt(1_000_000),
		},
	}
}

func requirements() models.PaymentRequirements {
	return models.PaymentRequirements{
		Recipient: testRecipient,
		Token:     testToken,
		MinAmount: big.NewInt(1_000_000),
	}
}

func newTestVerifier(ledger models.LedgerService) *Verifier {
	return NewVerifier(ledger, replay.NewMemoryGuard(time.Hour), 5*time.Minute, logger.NewNop())
}

func TestVerifyHappyPath(t *testing.T) {
	v := newTestVerifier(healthyLedger())

	result := v.Verify(context.Background(), testReference, requirements())

	require.True(t, result.Valid)
	assert.Empty(t, result.Reason)
	assert.Equal(t, testPayer, result.Payer)
	assert.Equal(t, int64(1_000_000), result.AmountPaid.Int64())
}

func TestVerifyOverpaymentAccepted(t *testing.T) {
	ledger := healthyLedger()
	ledger.payment.Amount = big.NewInt(2_000_000)
	v := newTestVerifier(ledger)

	result := v.Verify(context.Background(), testReference, requirements())

	require.True(t, result.Valid)
	assert.Equal(t, int64(2_000_000), result.AmountPaid.Int64())
}

func TestVerifyUnderpayment(t *testing.T) {
	ledger := healthyLedger()
	ledger.payment.Amount = big.NewInt(500_000)
	v := newTestVerifier(ledger)

	result := v.Verify(context.Background(), testReference, requirements())

	require.False(t, result.Valid)
	assert.Equal(t, models.FailureAmountOrPartyMismatch, result.Reason)
}

func TestVerifyWrongRecipient(t *testing.T) {
	ledger := healthyLedger()
	ledger.payment.Recipient = "0x3333333333333333333333333333333333333333"
	v := newTestVerifier(ledger)

	result := v.Verify(context.Background(), testReference, requirements())

	require.False(t, result.Valid)
	assert.Equal(t, models.FailureAmountOrPartyMismatch, result.Reason)
}

func TestVerifyWrongToken(t *testing.T) {
	ledger := healthyLedger()
	ledger.payment.Token = models.NativeToken
	v := newTestVerifier(ledger)

	result := v.Verify(context.Background(), testReference, requirements())

	require.False(t, result.Valid)
	assert.Equal(t, models.FailureAmountOrPartyMismatch, result.Reason)
}

func TestVerifyMixedCaseAddressesMatch(t *testing.T) {
	ledger := healthyLedger()
	ledger.payment.Recipient = "0x1111111111111111111111111111111111111111"
	v := newTestVerifier(ledger)

	req := requirements()
	req.Recipient = "0X1111111111111111111111111111111111111111"
	req.Token = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"

	result := v.Verify(context.Background(), testReference, req)

	assert.True(t, result.Valid)
}

func TestVerifyNotFound(t *testing.T) {
	v := newTestVerifier(&fakeLedger{receiptErr: models.ErrNotFound})

	result := v.Verify(context.Background(), testReference, requirements())

	require.False(t, result.Valid)
	assert.Equal(t, models.FailureNotFound, result.Reason)
}

func TestVerifyTransactionFailed(t *testing.T) {
	ledger := healthyLedger()
	ledger.receipt.Status = 0
	v := newTestVerifier(ledger)

	result := v.Verify(context.Background(), testReference, requirements())

	require.False(t, result.Valid)
	assert.Equal(t, models.FailureTransactionFailed, result.Reason)
}

func TestVerifyExpired(t *testing.T) {
	ledger := healthyLedger()
	ledger.blockTime = uint64(time.Now().Add(-10 * time.Minute).Unix())
	v := newTestVerifier(ledger)

	result := v.Verify(context.Background(), testReference, requirements())

	require.False(t, result.Valid)
	assert.Equal(t, models.FailureExpired, result.Reason)
}

func TestVerifyFreshnessBoundary(t *testing.T) {
	// Just inside the window passes
	ledger := healthyLedger()
	ledger.blockTime = uint64(time.Now().Add(-5*time.Minute + 10*time.Second).Unix())
	result := newTestVerifier(ledger).Verify(context.Background(), testReference, requirements())
	assert.True(t, result.Valid)

	// Just outside fails
	ledger = healthyLedger()
	ledger.blockTime = uint64(time.Now().Add(-5*time.Minute - 10*time.Second).Unix())
	result = newTestVerifier(ledger).Verify(context.Background(), testReference, requirements())
	require.False(t, result.Valid)
	assert.Equal(t, models.FailureExpired, result.Reason)
}

func TestVerifyTransportErrorIsNotNotFound(t *testing.T) {
	transportErr := errors.New("connection refused")

	for name, ledger := range map[string]*fakeLedger{
		"receipt":   {receiptErr: transportErr},
		"blockTime": func() *fakeLedger { l := healthyLedger(); l.blockErr = transportErr; return l }(),
		"payment":   func() *fakeLedger { l := healthyLedger(); l.paymentErr = transportErr; return l }(),
	} {
		t.Run(name, func(t *testing.T) {
			result := newTestVerifier(ledger).Verify(context.Background(), testReference, requirements())
			require.False(t, result.Valid)
			assert.Equal(t, models.FailureVerificationUnavailable, result.Reason)
		})
	}
}

func TestVerifyReplayRejectedBeforeLedgerQuery(t *testing.T) {
	ledger := healthyLedger()
	v := newTestVerifier(ledger)

	first := v.Verify(context.Background(), testReference, requirements())
	require.True(t, first.Valid)

	callsAfterFirst := ledger.calls.Load()

	second := v.Verify(context.Background(), testReference, requirements())
	require.False(t, second.Valid)
	assert.Equal(t, models.FailureAlreadyUsed, second.Reason)
	assert.Equal(t, callsAfterFirst, ledger.calls.Load(), "replayed reference must not reach the ledger")
}

func TestVerifyReplayIgnoresCase(t *testing.T) {
	v := newTestVerifier(healthyLedger())

	first := v.Verify(context.Background(), testReference, requirements())
	require.True(t, first.Valid)

	upper := "0x" + "4E3A3754410177E6937EF1F84BBA68EA139E8D1A2258C5F85DB9F1CD715A1BDD"
	second := v.Verify(context.Background(), upper, requirements())
	require.False(t, second.Valid)
	assert.Equal(t, models.FailureAlreadyUsed, second.Reason)
}

func TestVerifyConcurrentSameReference(t *testing.T) {
	v := newTestVerifier(healthyLedger())

	const workers = 16
	var wg sync.WaitGroup
	var valid atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := v.Verify(context.Background(), testReference, requirements())
			if result.Valid {
				valid.Add(1)
			} else {
				assert.Equal(t, models.FailureAlreadyUsed, result.Reason)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), valid.Load(), "exactly one concurrent verification may succeed")
}
