// Package evm reads native balances from EVM chains over JSON-RPC.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"defi-hub/internal/chain"
	"defi-hub/internal/domain"
	"defi-hub/internal/observability"
)

// BalanceReader returns an account's native balance in wei.
type BalanceReader interface {
	NativeBalance(ctx context.Context, c chain.Chain, address string) (*big.Int, error)
}

// Clients keeps one ethclient per chain, dialled on first use.
type Clients struct {
	timeout time.Duration

	mu      sync.Mutex
	clients map[string]*ethclient.Client
}

// NewClients returns a pool whose calls are bounded by timeout.
func NewClients(timeout time.Duration) *Clients {
	return &Clients{
		timeout: timeout,
		clients: make(map[string]*ethclient.Client),
	}
}

func (p *Clients) client(ctx context.Context, c chain.Chain) (*ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cl, ok := p.clients[c.Key]; ok {
		return cl, nil
	}
	if c.RPCURL == "" {
		return nil, fmt.Errorf("chain %s: no rpc url configured", c.Key)
	}

	cl, err := ethclient.DialContext(ctx, c.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.Key, err)
	}
	p.clients[c.Key] = cl
	return cl, nil
}

// NativeBalance returns the latest balance of address on c.
func (p *Clients) NativeBalance(ctx context.Context, c chain.Chain, address string) (*big.Int, error) {
	if c.Family != domain.FamilyEVM {
		return nil, fmt.Errorf("chain %s is not an evm chain", c.Key)
	}

	cl, err := p.client(ctx, c)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	bal, err := cl.BalanceAt(ctx, common.HexToAddress(address), nil)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.RecordProviderCall("evm_"+c.Key, outcome, time.Since(start))

	if err != nil {
		return nil, fmt.Errorf("balance on %s: %w", c.Key, err)
	}
	return bal, nil
}

// Close releases every dialled client.
func (p *Clients) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, cl := range p.clients {
		cl.Close()
		delete(p.clients, key)
	}
}

var _ BalanceReader = (*Clients)(nil)
