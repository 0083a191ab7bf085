package models

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals int
		want     string
	}{
		{"nil amount", nil, 6, "0"},
		{"zero", big.NewInt(0), 6, "0"},
		{"whole usdc", big.NewInt(1_000_000), 6, "1"},
		{"fractional", big.NewInt(1_500_000), 6, "1.5"},
		{"sub-unit", big.NewInt(1), 6, "0.000001"},
		{"trailing zeros trimmed", big.NewInt(1_230_000), 6, "1.23"},
		{"no decimals", big.NewInt(42), 0, "42"},
		{"large", new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000_000)), 6, "1000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.amount, tt.decimals))
		})
	}
}

func TestPaymentReceiptSucceeded(t *testing.T) {
	assert.True(t, (&PaymentReceipt{Status: 1}).Succeeded())
	assert.False(t, (&PaymentReceipt{Status: 0}).Succeeded())
}

func TestVerificationResultConstructors(t *testing.T) {
	ok := Verified("0xpayer", big.NewInt(100))
	assert.True(t, ok.Valid)
	assert.Equal(t, "0xpayer", ok.Payer)
	assert.Equal(t, int64(100), ok.AmountPaid.Int64())

	rejected := Rejected(FailureExpired)
	assert.False(t, rejected.Valid)
	assert.Equal(t, FailureExpired, rejected.Reason)
}
