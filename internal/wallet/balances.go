package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"defi-hub/internal/cache"
	"defi-hub/internal/chain"
	"defi-hub/internal/domain"
	"defi-hub/internal/evm"
	"defi-hub/internal/moralis"
	"defi-hub/internal/solana"
)

const (
	balancesCache      = "balances"
	balanceConcurrency = 8
)

// ERC20Source lists ERC-20 holdings on one Moralis chain.
type ERC20Source interface {
	Enabled() bool
	ERC20Balances(ctx context.Context, moralisChain, address string) ([]moralis.TokenHolding, error)
}

// BalanceService reads wallet balances across chains.
type BalanceService struct {
	registry *chain.Registry
	evm      evm.BalanceReader
	erc20    ERC20Source
	solana   solana.RPCClient
	known    map[string]domain.Token

	cache    cache.Cache
	cacheTTL time.Duration
	timeout  time.Duration
	now      func() time.Time
}

type BalanceOption func(*BalanceService)

func WithEVM(r evm.BalanceReader) BalanceOption {
	return func(s *BalanceService) { s.evm = r }
}

func WithERC20(src ERC20Source) BalanceOption {
	return func(s *BalanceService) { s.erc20 = src }
}

func WithSolana(c solana.RPCClient) BalanceOption {
	return func(s *BalanceService) { s.solana = c }
}

// WithKnownTokens labels SPL mints found in the list with their symbol and name.
func WithKnownTokens(tokens []domain.Token) BalanceOption {
	return func(s *BalanceService) {
		for _, t := range tokens {
			s.known[t.Chain+"|"+t.Address] = t
		}
	}
}

func WithBalanceCache(c cache.Cache, ttl time.Duration) BalanceOption {
	return func(s *BalanceService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithChainTimeout bounds the work done for a single chain.
func WithChainTimeout(d time.Duration) BalanceOption {
	return func(s *BalanceService) { s.timeout = d }
}

func NewBalanceService(registry *chain.Registry, opts ...BalanceOption) *BalanceService {
	s := &BalanceService{
		registry: registry,
		known:    make(map[string]domain.Token),
		timeout:  10 * time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type chainResult struct {
	balances []domain.TokenBalance
	err      error
}

// Balances reads address on chainKeys, or on every chain of the address's
// family when chainKeys is empty. A chain that fails is reported in Errors
// and contributes no balances.
func (s *BalanceService) Balances(ctx context.Context, address string, chainKeys []string) (*domain.WalletAccount, error) {
	addr, err := chain.DetectFamily(address)
	if err != nil {
		return nil, err
	}

	var chains []chain.Chain
	if len(chainKeys) == 0 {
		chains = s.registry.ByFamily(addr.Family)
	} else {
		seen := make(map[string]bool)
		for _, key := range chainKeys {
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			c, err := s.registry.Get(key)
			if err != nil {
				return nil, err
			}
			chains = append(chains, c)
		}
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("%w: no chains selected", domain.ErrInvalid)
	}

	keys := make([]string, len(chains))
	for i, c := range chains {
		keys[i] = c.Key
	}
	sortedKeys := append([]string(nil), keys...)
	sort.Strings(sortedKeys)
	cacheKey := cache.Key(balancesCache, addr.Normalized, strings.Join(sortedKeys, ","))

	if s.cache != nil {
		var cached domain.WalletAccount
		if cache.GetJSON(ctx, s.cache, balancesCache, cacheKey, &cached) {
			return &cached, nil
		}
	}

	results := make([]chainResult, len(chains))
	wp := pool.New().WithMaxGoroutines(balanceConcurrency)
	for i, c := range chains {
		wp.Go(func() {
			if c.Family != addr.Family {
				results[i].err = fmt.Errorf("%s address cannot hold balances on %s chain %s", addr.Family, c.Family, c.Key)
				return
			}
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			results[i].balances, results[i].err = s.chainBalances(cctx, c, addr.Normalized)
		})
	}
	wp.Wait()

	account := &domain.WalletAccount{
		Address:     addr.Normalized,
		ChainFamily: addr.Family,
		Balances:    []domain.TokenBalance{},
		FetchedAt:   s.now().UTC(),
	}
	for i, r := range results {
		if r.err != nil {
			if account.Errors == nil {
				account.Errors = make(map[string]string)
			}
			account.Errors[keys[i]] = r.err.Error()
			log.Ctx(ctx).Warn().Err(r.err).
				Str("chain", keys[i]).
				Str("address", addr.Normalized).
				Msg("balance lookup failed")
			continue
		}
		account.Balances = append(account.Balances, r.balances...)
	}

	if s.cache != nil && len(account.Errors) == 0 {
		cache.SetJSON(ctx, s.cache, balancesCache, cacheKey, account, s.cacheTTL)
	}
	return account, nil
}

func (s *BalanceService) chainBalances(ctx context.Context, c chain.Chain, address string) ([]domain.TokenBalance, error) {
	switch c.Family {
	case domain.FamilyEVM:
		return s.evmBalances(ctx, c, address)
	case domain.FamilySolana:
		return s.solanaBalances(ctx, c, address)
	}
	return nil, fmt.Errorf("unsupported chain family %s", c.Family)
}

func (s *BalanceService) evmBalances(ctx context.Context, c chain.Chain, address string) ([]domain.TokenBalance, error) {
	if s.evm == nil {
		return nil, fmt.Errorf("evm balances not configured")
	}

	wei, err := s.evm.NativeBalance(ctx, c, address)
	if err != nil {
		return nil, err
	}
	out := []domain.TokenBalance{nativeBalance(c, wei)}

	if s.erc20 == nil || !s.erc20.Enabled() || c.MoralisID == "" {
		return out, nil
	}
	holdings, err := s.erc20.ERC20Balances(ctx, c.MoralisID, address)
	if err != nil {
		return nil, err
	}
	for _, h := range holdings {
		amount, err := decimal.NewFromString(h.Balance)
		if err != nil || amount.IsZero() {
			continue
		}
		out = append(out, domain.TokenBalance{
			Chain:    c.Key,
			Token:    h.TokenAddress,
			Symbol:   h.Symbol,
			Name:     h.Name,
			Decimals: h.Decimals,
			Raw:      h.Balance,
			Amount:   amount.Shift(-int32(h.Decimals)),
		})
	}
	return out, nil
}

func (s *BalanceService) solanaBalances(ctx context.Context, c chain.Chain, address string) ([]domain.TokenBalance, error) {
	if s.solana == nil {
		return nil, fmt.Errorf("solana balances not configured")
	}

	lamports, err := s.solana.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	out := []domain.TokenBalance{nativeBalance(c, new(big.Int).SetUint64(lamports))}

	accounts, err := s.solana.GetTokenAccountsByOwner(ctx, address)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.IsZero() {
			continue
		}
		amount, err := decimal.NewFromString(a.Amount)
		if err != nil {
			continue
		}
		tb := domain.TokenBalance{
			Chain:    c.Key,
			Token:    a.Mint,
			Decimals: a.Decimals,
			Raw:      a.Amount,
			Amount:   amount.Shift(-int32(a.Decimals)),
		}
		if t, ok := s.known[c.Key+"|"+a.Mint]; ok {
			tb.Symbol = t.Symbol
			tb.Name = t.Name
		}
		out = append(out, tb)
	}
	return out, nil
}

func nativeBalance(c chain.Chain, raw *big.Int) domain.TokenBalance {
	return domain.TokenBalance{
		Chain:    c.Key,
		Symbol:   c.NativeSymbol,
		Decimals: c.NativeDecimals,
		Raw:      raw.String(),
		Amount:   decimal.NewFromBigInt(raw, -int32(c.NativeDecimals)),
		Native:   true,
	}
}
