package chain

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defi-hub/internal/domain"
)

func TestValidateAddress_EVM(t *testing.T) {
	const checksummed = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"checksummed", checksummed, false},
		{"all lower", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", false},
		{"all upper", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", false},
		{"bad checksum", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD", true},
		{"too short", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea", true},
		{"no prefix", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"non hex", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beazz", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ValidateAddress(tt.address, domain.FamilyEVM)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsInvalidAddress(err))
				assert.True(t, errors.Is(err, domain.ErrInvalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, checksummed, addr.Normalized)
			assert.Equal(t, domain.FamilyEVM, addr.Family)
		})
	}
}

func TestValidateAddress_Solana(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	wallet := base58.Encode(pub)

	addr, err := ValidateAddress(wallet, domain.FamilySolana)
	require.NoError(t, err)
	assert.Equal(t, wallet, addr.Normalized)
	assert.True(t, addr.OnCurve)

	// y = 2 has no matching x on ed25519, like a program derived address.
	offCurve, err := ValidateAddress("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh", domain.FamilySolana)
	require.NoError(t, err)
	assert.False(t, offCurve.OnCurve)

	onCurve, err := ValidateAddress("CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQz3", domain.FamilySolana)
	require.NoError(t, err)
	assert.True(t, onCurve.OnCurve)

	invalid := []string{
		"",
		"abc",
		"0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		// Valid base58 that decodes to 31 bytes.
		base58.Encode(bytes.Repeat([]byte{0xff}, 31)),
	}
	for _, a := range invalid {
		_, err := ValidateAddress(a, domain.FamilySolana)
		assert.Error(t, err, a)
	}
}

func TestDetectFamily(t *testing.T) {
	evm, err := DetectFamily("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.Equal(t, domain.FamilyEVM, evm.Family)

	sol, err := DetectFamily("CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQz3")
	require.NoError(t, err)
	assert.Equal(t, domain.FamilySolana, sol.Family)

	_, err = DetectFamily("not-an-address")
	assert.Error(t, err)

	_, err = ValidateAddress("x", "cosmos")
	assert.Error(t, err)
}

func TestNormalizeWallet(t *testing.T) {
	a, err := NormalizeWallet("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	b, err := NormalizeWallet("0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
