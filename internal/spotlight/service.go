// Package spotlight manages promoted tokens and their ranks.
package spotlight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"defi-hub/internal/chain"
	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// Service enforces that no two spotlight entries with overlapping date
// ranges share a rank.
type Service struct {
	store    storage.SpotlightStore
	registry *chain.Registry
	now      func() time.Time

	// serializes the overlap scan with the write that follows it
	mu sync.Mutex
}

func NewService(store storage.SpotlightStore, registry *chain.Registry) *Service {
	return &Service{store: store, registry: registry, now: time.Now}
}

// Create stores a new entry. Rank 0 takes the lowest rank free across the
// entry's date range.
func (s *Service) Create(ctx context.Context, t *domain.SpotlightToken) (*domain.SpotlightToken, error) {
	if err := s.prepare(t); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rank, err := s.assignRank(ctx, t, "")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	t.ID = uuid.NewString()
	t.Rank = rank
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.store.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("insert spotlight: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("id", t.ID).
		Str("symbol", t.Symbol).
		Int("rank", t.Rank).
		Msg("spotlight token created")
	return t, nil
}

// Update replaces entry id, checking ranks against every other entry.
func (s *Service) Update(ctx context.Context, id string, t *domain.SpotlightToken) (*domain.SpotlightToken, error) {
	if err := s.prepare(t); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rank, err := s.assignRank(ctx, t, id)
	if err != nil {
		return nil, err
	}

	t.ID = id
	t.Rank = rank
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update spotlight: %w", err)
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.SpotlightToken, error) {
	return s.store.GetByID(ctx, id)
}

// ListActive returns the entries live at at, by rank.
func (s *Service) ListActive(ctx context.Context, at time.Time) ([]*domain.SpotlightToken, error) {
	return s.store.ListActive(ctx, at)
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.SpotlightToken, error) {
	return s.store.ListAll(ctx)
}

// prepare validates t and normalizes its address for the chain family.
func (s *Service) prepare(t *domain.SpotlightToken) error {
	if err := t.Validate(); err != nil {
		return err
	}
	c, err := s.registry.Get(t.Chain)
	if err != nil {
		return err
	}
	addr, err := chain.ValidateAddress(t.TokenAddress, c.Family)
	if err != nil {
		return err
	}
	t.Chain = c.Key
	t.TokenAddress = addr.Normalized
	t.StartDate = t.StartDate.UTC()
	t.EndDate = t.EndDate.UTC()
	return nil
}

// assignRank scans the entries overlapping t, skipping selfID, and returns
// t's rank: the requested one if free, else the lowest unused when t.Rank is 0.
func (s *Service) assignRank(ctx context.Context, t *domain.SpotlightToken, selfID string) (int, error) {
	overlapping, err := s.store.ListOverlapping(ctx, t.StartDate, t.EndDate)
	if err != nil {
		return 0, fmt.Errorf("list overlapping spotlight: %w", err)
	}

	taken := make(map[int]*domain.SpotlightToken, len(overlapping))
	for _, o := range overlapping {
		if o.ID == selfID {
			continue
		}
		taken[o.Rank] = o
	}

	if t.Rank != 0 {
		if o, ok := taken[t.Rank]; ok {
			return 0, fmt.Errorf("%w: rank %d is held by %s from %s to %s",
				storage.ErrConflict, t.Rank, o.Symbol,
				o.StartDate.Format(time.RFC3339), o.EndDate.Format(time.RFC3339))
		}
		return t.Rank, nil
	}

	for rank := 1; rank <= domain.MaxSpotlightRank; rank++ {
		if _, ok := taken[rank]; !ok {
			return rank, nil
		}
	}
	return 0, fmt.Errorf("%w: all %d spotlight ranks are taken in this date range",
		storage.ErrConflict, domain.MaxSpotlightRank)
}
