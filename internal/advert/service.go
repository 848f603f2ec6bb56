// Package advert manages paid promotions and their engagement counters.
package advert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

type Service struct {
	store storage.AdvertStore
	now   func() time.Time
}

func NewService(store storage.AdvertStore) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Create(ctx context.Context, a *domain.Advert) (*domain.Advert, error) {
	if err := prepare(a); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a.ID = uuid.NewString()
	a.Impressions = 0
	a.Clicks = 0
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := s.store.Insert(ctx, a); err != nil {
		return nil, fmt.Errorf("insert advert: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("id", a.ID).
		Str("placement", string(a.Placement)).
		Time("start", a.StartDate).
		Time("end", a.EndDate).
		Msg("advert created")
	return a, nil
}

// Update replaces the editable fields of advert id. Counters are left as stored.
func (s *Service) Update(ctx context.Context, id string, a *domain.Advert) (*domain.Advert, error) {
	if err := prepare(a); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.ID = id
	a.Impressions = existing.Impressions
	a.Clicks = existing.Clicks
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update advert: %w", err)
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Advert, error) {
	return s.store.GetByID(ctx, id)
}

// ListActive returns adverts running at at. An empty placement matches all.
func (s *Service) ListActive(ctx context.Context, placement domain.Placement, at time.Time) ([]*domain.Advert, error) {
	if placement != "" && !placement.IsValid() {
		return nil, fmt.Errorf("%w: unknown placement %q", domain.ErrInvalid, placement)
	}
	return s.store.ListActive(ctx, placement, at)
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.Advert, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) RecordImpression(ctx context.Context, id string) error {
	return s.store.IncrementImpressions(ctx, id)
}

func (s *Service) RecordClick(ctx context.Context, id string) error {
	return s.store.IncrementClicks(ctx, id)
}

func prepare(a *domain.Advert) error {
	a.Title = strings.TrimSpace(a.Title)
	a.LinkURL = strings.TrimSpace(a.LinkURL)
	a.ImageURL = strings.TrimSpace(a.ImageURL)
	a.Placement = domain.Placement(strings.ToLower(string(a.Placement)))
	if err := a.Validate(); err != nil {
		return err
	}
	a.StartDate = a.StartDate.UTC()
	a.EndDate = a.EndDate.UTC()
	return nil
}
