package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"valid with prefix", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", false},
		{"valid without prefix", "833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", false},
		{"valid uppercase prefix", "0X833589FCD6EDB6E08F4C7C32D4F71B54BDA02913", false},
		{"empty", "", true},
		{"too short", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA029", true},
		{"too long", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA0291300", true},
		{"not hex", "0xZZ3589fCD6eDb6E08f4c7C32D4f71b54bdA02913", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateReference(t *testing.T) {
	valid := "0x4e3a3754410177e6937ef1f84bba68ea139e8d1a2258c5f85db9f1cd715a1bdd"

	assert.NoError(t, ValidateReference(valid))
	assert.NoError(t, ValidateReference(valid[2:]))
	assert.Error(t, ValidateReference(""))
	assert.Error(t, ValidateReference("0xabc"))
	assert.Error(t, ValidateReference(valid+"00"))
	assert.Error(t, ValidateReference("0xgg3a3754410177e6937ef1f84bba68ea139e8d1a2258c5f85db9f1cd715a1bdd"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", NormalizeAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"))
	assert.Equal(t, "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", NormalizeAddress("833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"))
	assert.Equal(t, "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", NormalizeAddress("0X833589FCD6EDB6E08F4C7C32D4F71B54BDA02913"))
}

func TestNormalizeReference(t *testing.T) {
	want := "0x4e3a3754410177e6937ef1f84bba68ea139e8d1a2258c5f85db9f1cd715a1bdd"

	assert.Equal(t, want, NormalizeReference("0x4E3A3754410177E6937EF1F84BBA68EA139E8D1A2258C5F85DB9F1CD715A1BDD"))
	assert.Equal(t, want, NormalizeReference(want[2:]))
}

func TestValidateAndNormalizeAddress(t *testing.T) {
	normalized, err := ValidateAndNormalizeAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	require.NoError(t, err)
	assert.Equal(t, "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", normalized)

	_, err = ValidateAndNormalizeAddress("not-an-address")
	assert.Error(t, err)
}
