package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"defi-hub/internal/cache"
	"defi-hub/internal/domain"
	"defi-hub/internal/observability"
	"defi-hub/internal/storage"
)

const (
	// MaxBatchPairs bounds ResolveMany.
	MaxBatchPairs = 20

	batchConcurrency = 8
	cacheName        = "market"
)

// Resolver runs the perp → spot → on-chain cascade for a pair.
type Resolver struct {
	perp    Provider
	spot    Provider
	onchain Provider

	cache     cache.Cache
	cacheTTL  time.Duration
	snapshots storage.PriceSnapshotStore
	warnPct   decimal.Decimal
	now       func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache stores resolved markets for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// WithSnapshots records a price snapshot for every resolved market.
func WithSnapshots(s storage.PriceSnapshotStore) Option {
	return func(r *Resolver) {
		r.snapshots = s
	}
}

// WithDeviationWarnPct sets the spot/perp gap that is logged as a warning.
func WithDeviationWarnPct(pct float64) Option {
	return func(r *Resolver) {
		r.warnPct = decimal.NewFromFloat(pct)
	}
}

// NewResolver builds a resolver. Any provider may be nil.
func NewResolver(perp, spot, onchain Provider, opts ...Option) *Resolver {
	r := &Resolver{
		perp:    perp,
		spot:    spot,
		onchain: onchain,
		warnPct: decimal.NewFromInt(2),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the market for raw. Only a malformed pair is an error;
// an unknown pair resolves to an unavailable market.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*domain.MarketTokenPair, error) {
	p, err := ParsePair(raw)
	if err != nil {
		return nil, err
	}
	return r.resolve(ctx, p), nil
}

// ResolveMany resolves up to MaxBatchPairs pairs concurrently, keeping input order.
func (r *Resolver) ResolveMany(ctx context.Context, raws []string) ([]*domain.MarketTokenPair, error) {
	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: at least one pair is required", domain.ErrInvalid)
	}
	if len(raws) > MaxBatchPairs {
		return nil, fmt.Errorf("%w: at most %d pairs per request", domain.ErrInvalid, MaxBatchPairs)
	}

	pairs := make([]Pair, len(raws))
	for i, raw := range raws {
		p, err := ParsePair(raw)
		if err != nil {
			return nil, err
		}
		pairs[i] = p
	}

	out := make([]*domain.MarketTokenPair, len(pairs))
	wp := pool.New().WithMaxGoroutines(batchConcurrency)
	for i, p := range pairs {
		wp.Go(func() {
			out[i] = r.resolve(ctx, p)
		})
	}
	wp.Wait()
	return out, nil
}

// History returns stored snapshots for raw within [from, to].
func (r *Resolver) History(ctx context.Context, raw string, from, to time.Time, limit int) ([]*domain.PriceSnapshot, error) {
	p, err := ParsePair(raw)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: history range end before start", domain.ErrInvalid)
	}
	if r.snapshots == nil {
		return []*domain.PriceSnapshot{}, nil
	}
	return r.snapshots.GetByTimeRange(ctx, p.String(), from, to, limit)
}

func (r *Resolver) resolve(ctx context.Context, p Pair) *domain.MarketTokenPair {
	key := cache.Key(cacheName, p.String())
	if r.cache != nil {
		var cached domain.MarketTokenPair
		if cache.GetJSON(ctx, r.cache, cacheName, key, &cached) {
			return &cached
		}
	}

	m := r.cascade(ctx, p)
	observability.RecordMarketResolution(m.Source)

	if r.cache != nil {
		cache.SetJSON(ctx, r.cache, cacheName, key, m, r.cacheTTL)
	}
	if m.Available {
		r.recordSnapshot(ctx, m)
	}
	return m
}

func (r *Resolver) cascade(ctx context.Context, p Pair) *domain.MarketTokenPair {
	now := r.now().UTC()

	perp := r.query(ctx, r.perp, p)
	spot := r.query(ctx, r.spot, p)

	switch {
	case perp != nil && spot != nil:
		return r.reconcile(ctx, p, perp, spot, now)
	case perp != nil:
		return fromQuote(p, perp, now)
	case spot != nil:
		return fromQuote(p, spot, now)
	}

	if dex := r.query(ctx, r.onchain, p); dex != nil {
		return fromQuote(p, dex, now)
	}
	return domain.UnavailableMarket(p.String(), p.Base, p.Quote, now)
}

// query calls one provider; misses and failures both return nil.
func (r *Resolver) query(ctx context.Context, prov Provider, p Pair) *Quote {
	if prov == nil {
		return nil
	}

	start := time.Now()
	q, err := prov.Quote(ctx, p)
	switch {
	case err == nil:
		observability.RecordProviderCall(prov.Name(), "ok", time.Since(start))
		return q
	case errors.Is(err, ErrNoMarket):
		observability.RecordProviderCall(prov.Name(), "miss", time.Since(start))
	default:
		observability.RecordProviderCall(prov.Name(), "error", time.Since(start))
		log.Ctx(ctx).Warn().Err(err).
			Str("provider", prov.Name()).
			Str("pair", p.String()).
			Msg("market provider failed")
	}
	return nil
}

// reconcile merges a perp and a spot quote: price, change and derivatives
// data from the perp, the 24h range from spot, volume from the perp unless it
// reports none.
func (r *Resolver) reconcile(ctx context.Context, p Pair, perp, spot *Quote, now time.Time) *domain.MarketTokenPair {
	m := fromQuote(p, perp, now)
	m.Sources = []string{perp.Source, spot.Source}
	m.High24h = spot.High24h
	m.Low24h = spot.Low24h
	if m.Volume24h.IsZero() {
		m.Volume24h = spot.Volume24h
	}

	dev := spot.Price.Sub(perp.Price).Abs().Div(perp.Price).Mul(hundred).Round(4)
	m.DeviationPct = &dev
	if dev.GreaterThan(r.warnPct) {
		observability.RecordMarketDeviation()
		log.Ctx(ctx).Warn().
			Str("pair", p.String()).
			Str("perp_price", perp.Price.String()).
			Str("spot_price", spot.Price.String()).
			Str("deviation_pct", dev.String()).
			Msg("spot and perp prices diverge")
	}
	return m
}

func fromQuote(p Pair, q *Quote, now time.Time) *domain.MarketTokenPair {
	return &domain.MarketTokenPair{
		Pair:         p.String(),
		Base:         p.Base,
		Quote:        p.Quote,
		Price:        q.Price,
		Change24hPct: q.Change24hPct,
		High24h:      q.High24h,
		Low24h:       q.Low24h,
		Volume24h:    q.Volume24h,
		OpenInterest: q.OpenInterest,
		FundingRate:  q.FundingRate,
		Liquidity:    q.Liquidity,
		Source:       q.Source,
		Sources:      []string{q.Source},
		ChainID:      q.ChainID,
		PairAddress:  q.PairAddress,
		Available:    true,
		UpdatedAt:    now,
	}
}

func (r *Resolver) recordSnapshot(ctx context.Context, m *domain.MarketTokenPair) {
	if r.snapshots == nil {
		return
	}
	snap := &domain.PriceSnapshot{
		Pair:      m.Pair,
		Source:    m.Source,
		Timestamp: m.UpdatedAt,
		Price:     m.Price.InexactFloat64(),
		Volume24h: m.Volume24h.InexactFloat64(),
	}
	if err := r.snapshots.InsertBulk(ctx, []*domain.PriceSnapshot{snap}); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("pair", m.Pair).Msg("price snapshot not stored")
	}
}
