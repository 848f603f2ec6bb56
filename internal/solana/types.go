package solana

// TokenAccount is one parsed SPL token account.
type TokenAccount struct {
	Pubkey   string
	Mint     string
	Owner    string
	Amount   string // base units
	Decimals int
	UIAmount string
}

// IsZero reports whether the account holds nothing.
func (a TokenAccount) IsZero() bool {
	for _, c := range a.Amount {
		if c != '0' {
			return false
		}
	}
	return true
}
