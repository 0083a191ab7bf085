package models

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrNotFound is returned by the ledger client when a transaction or
// receipt does not exist on chain. Any other error from the ledger client
// is a transport failure and must be kept distinct from this one.
var ErrNotFound = errors.New("not found on ledger")

// NativeToken is the token identifier used for plain value transfers that
// carry no ERC-20 transfer log.
const NativeToken = "native"

// FailureKind is the closed vocabulary of verification failure reasons.
// These are the only reasons ever surfaced to a requester; raw upstream
// errors are never forwarded.
type FailureKind string

const (
	// FailureAlreadyUsed means the payment reference was already consumed
	// within the replay protection window.
	FailureAlreadyUsed FailureKind = "already_used"
	// FailureNotFound means the referenced transaction does not exist on chain.
	FailureNotFound FailureKind = "not_found"
	// FailureTransactionFailed means the transaction exists but reverted.
	FailureTransactionFailed FailureKind = "transaction_failed"
	// FailureExpired means the payment is older than the freshness window.
	FailureExpired FailureKind = "expired"
	// FailureAmountOrPartyMismatch means recipient, token or amount do not
	// satisfy the resource's payment requirements.
	FailureAmountOrPartyMismatch FailureKind = "amount_or_party_mismatch"
	// FailureVerificationUnavailable means the ledger could not be queried.
	// It is never conflated with FailureNotFound: callers retry on this one.
	FailureVerificationUnavailable FailureKind = "verification_unavailable"
)

// VerificationResult is the all-or-nothing outcome of verifying a payment
// reference. Either Valid is true and Payer/AmountPaid are set, or Valid is
// false and Reason holds exactly one FailureKind.
type VerificationResult struct {
	Valid      bool
	Reason     FailureKind
	Payer      string
	AmountPaid *big.Int
}

// Verified builds a successful verification result.
func Verified(payer string, amountPaid *big.Int) *VerificationResult {
	return &VerificationResult{Valid: true, Payer: payer, AmountPaid: amountPaid}
}

// Rejected builds a failed verification result with the given reason.
func Rejected(reason FailureKind) *VerificationResult {
	return &VerificationResult{Valid: false, Reason: reason}
}

// PaymentReceipt is the typed slice of a transaction receipt the verifier
// relies on. Nothing else from the raw RPC response is trusted.
type PaymentReceipt struct {
	// Status is 1 for a successful transaction, 0 for a reverted one.
	Status uint64
	// BlockNumber is the number of the block containing the transaction.
	BlockNumber *big.Int
}

// Succeeded reports whether the underlying transaction executed successfully.
func (r *PaymentReceipt) Succeeded() bool {
	return r.Status == 1
}

// PaymentDetails are the payment-relevant fields of a transaction: who paid
// whom, how much, and in which asset. For token payments these come from the
// ERC-20 Transfer log; for plain value transfers Token is NativeToken.
type PaymentDetails struct {
	Payer     string
	Recipient string
	Token     string
	// Amount is in the token's smallest indivisible unit.
	Amount *big.Int
}

// PaymentRequirements describe what a presented payment must satisfy for a
// given resource: an exact recipient and token, and a minimum amount in
// smallest units.
type PaymentRequirements struct {
	Recipient string
	Token     string
	MinAmount *big.Int
}

// PaymentTerms are the gateway-wide payment parameters advertised in
// challenges: where to pay, in what, and on which network.
type PaymentTerms struct {
	Recipient     string
	Token         string
	TokenSymbol   string
	TokenDecimals int
	Network       string
}

// PaymentChallenge is the structured body of a 402 response for an unpaid
// request. Amounts are carried both in display units and smallest units so
// that clients never have to do floating-point math.
type PaymentChallenge struct {
	Recipient          string `json:"recipient"`
	Amount             string `json:"amount"`
	AmountSmallestUnit string `json:"amountSmallestUnit"`
	Token              string `json:"token"`
	Network            string `json:"network"`
	// ExpiresAt is advisory: a payment observed after this point would fall
	// outside the freshness window. No per-request nonce is issued.
	ExpiresAt int64 `json:"expiresAt"`
}

// FormatAmount renders a smallest-unit amount as a display-unit decimal
// string, e.g. 1500000 with 6 decimals becomes "1.5".
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(amount, divisor, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%0*s", decimals, frac.String()), "0")
	return fmt.Sprintf("%s.%s", whole.String(), fracStr)
}
