// Package solana is a JSON-RPC client for the account queries behind wallet balances.
package solana

import "context"

// TokenProgramID owns every classic SPL token account.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// LamportsPerSOL is the native unit scale (9 decimals).
const LamportsPerSOL = 1_000_000_000

// RPCClient defines the Solana RPC calls used for balances.
type RPCClient interface {
	// GetBalance returns the owner's native balance in lamports.
	GetBalance(ctx context.Context, owner string) (uint64, error)

	// GetTokenAccountsByOwner lists the owner's SPL token accounts.
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error)
}
