package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChainFamily groups chains sharing an address format and wallet API.
type ChainFamily string

const (
	FamilyEVM    ChainFamily = "evm"
	FamilySolana ChainFamily = "solana"
)

// TokenBalance is one holding of a wallet on one chain.
type TokenBalance struct {
	Chain    string          `json:"chain"`
	Token    string          `json:"token"` // contract/mint address, empty for native
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name,omitempty"`
	Decimals int             `json:"decimals"`
	Raw      string          `json:"raw"` // integer amount in base units
	Amount   decimal.Decimal `json:"amount"`
	Native   bool            `json:"native"`
}

// WalletAccount is the multi-chain balance view of one address.
type WalletAccount struct {
	Address     string            `json:"address"`
	ChainFamily ChainFamily       `json:"chainFamily"`
	Balances    []TokenBalance    `json:"balances"`
	Errors      map[string]string `json:"errors,omitempty"` // chain key -> message
	FetchedAt   time.Time         `json:"fetchedAt"`
}

// Transaction is the client-facing view of an on-chain transfer.
type Transaction struct {
	Hash      string          `json:"hash"`
	Chain     string          `json:"chain"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Value     decimal.Decimal `json:"value"`
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
}
