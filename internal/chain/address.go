package chain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"filippo.io/edwards25519"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"

	"defi-hub/internal/domain"
)

// ErrInvalidAddress wraps every address validation failure.
var ErrInvalidAddress = fmt.Errorf("%w: address", domain.ErrInvalid)

var (
	evmAddressRe    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	solanaAddressRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// Address is a validated address in its canonical form.
type Address struct {
	// Normalized is the EIP-55 checksummed form for EVM and the input for Solana.
	Normalized string             `json:"normalized"`
	Family     domain.ChainFamily `json:"family"`
	// OnCurve reports whether a Solana address is an ed25519 point.
	// Wallet keys are on the curve, program derived addresses are not.
	OnCurve bool `json:"onCurve,omitempty"`
}

// ValidateAddress checks address against the rules of family.
func ValidateAddress(address string, family domain.ChainFamily) (Address, error) {
	switch family {
	case domain.FamilyEVM:
		return validateEVM(address)
	case domain.FamilySolana:
		return validateSolana(address)
	default:
		return Address{}, fmt.Errorf("%w: unknown chain family %q", ErrInvalidAddress, family)
	}
}

// DetectFamily infers the chain family from the address format and validates it.
func DetectFamily(address string) (Address, error) {
	address = strings.TrimSpace(address)
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		return validateEVM(address)
	}
	return validateSolana(address)
}

// NormalizeWallet returns the canonical storage key of a wallet address.
// Both families are validated; unknown formats are rejected.
func NormalizeWallet(address string) (string, error) {
	addr, err := DetectFamily(address)
	if err != nil {
		return "", err
	}
	return addr.Normalized, nil
}

func validateEVM(address string) (Address, error) {
	if !evmAddressRe.MatchString(address) {
		return Address{}, fmt.Errorf("%w: evm address must be 0x followed by 40 hex characters", ErrInvalidAddress)
	}

	checksummed := common.HexToAddress(address).Hex()
	hexPart := address[2:]
	mixedCase := hexPart != strings.ToLower(hexPart) && hexPart != strings.ToUpper(hexPart)
	if mixedCase && address != checksummed {
		return Address{}, fmt.Errorf("%w: evm address checksum mismatch", ErrInvalidAddress)
	}

	return Address{Normalized: checksummed, Family: domain.FamilyEVM}, nil
}

func validateSolana(address string) (Address, error) {
	if !solanaAddressRe.MatchString(address) {
		return Address{}, fmt.Errorf("%w: solana address must be 32-44 base58 characters", ErrInvalidAddress)
	}

	raw, err := base58.Decode(address)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != 32 {
		return Address{}, fmt.Errorf("%w: solana address decodes to %d bytes, want 32", ErrInvalidAddress, len(raw))
	}

	_, curveErr := new(edwards25519.Point).SetBytes(raw)
	return Address{
		Normalized: address,
		Family:     domain.FamilySolana,
		OnCurve:    curveErr == nil,
	}, nil
}

// IsInvalidAddress reports whether err came from address validation.
func IsInvalidAddress(err error) bool {
	return errors.Is(err, ErrInvalidAddress)
}
