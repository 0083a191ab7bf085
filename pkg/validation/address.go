package validation

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ValidateAddress validates an EVM account address format.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}

	normalized := strings.TrimPrefix(addr, "0x")
	normalized = strings.TrimPrefix(normalized, "0X")

	// 40 hex characters = 20 bytes
	if len(normalized) != 40 {
		return fmt.Errorf("invalid address length: expected 40 characters (without 0x), got %d", len(normalized))
	}

	if _, err := hex.DecodeString(normalized); err != nil {
		return fmt.Errorf("invalid hex address: %w", err)
	}

	return nil
}

// ValidateReference validates a payment reference (transaction hash) format.
func ValidateReference(ref string) error {
	if ref == "" {
		return fmt.Errorf("reference cannot be empty")
	}

	normalized := strings.TrimPrefix(ref, "0x")
	normalized = strings.TrimPrefix(normalized, "0X")

	// 64 hex characters = 32 bytes
	if len(normalized) != 64 {
		return fmt.Errorf("invalid reference length: expected 64 characters (without 0x), got %d", len(normalized))
	}

	if _, err := hex.DecodeString(normalized); err != nil {
		return fmt.Errorf("invalid hex reference: %w", err)
	}

	return nil
}

// NormalizeAddress converts an address to lowercase with a 0x prefix.
func NormalizeAddress(addr string) string {
	addr = strings.TrimPrefix(addr, "0x")
	addr = strings.TrimPrefix(addr, "0X")
	return "0x" + strings.ToLower(addr)
}

// NormalizeReference converts a payment reference to lowercase with a 0x prefix.
func NormalizeReference(ref string) string {
	ref = strings.TrimPrefix(ref, "0x")
	ref = strings.TrimPrefix(ref, "0X")
	return "0x" + strings.ToLower(ref)
}

// ValidateAndNormalizeAddress validates an address and returns its normalized form.
func ValidateAndNormalizeAddress(addr string) (string, error) {
	if err := ValidateAddress(addr); err != nil {
		return "", err
	}
	return NormalizeAddress(addr), nil
}
