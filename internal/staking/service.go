// Package staking administers staking pools.
package staking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"defi-hub/internal/chain"
	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

type Service struct {
	store    storage.StakingPoolStore
	registry *chain.Registry
	now      func() time.Time
}

func NewService(store storage.StakingPoolStore, registry *chain.Registry) *Service {
	return &Service{store: store, registry: registry, now: time.Now}
}

// Create stores a new pool. An empty status defaults to active.
func (s *Service) Create(ctx context.Context, p *domain.StakingPool) (*domain.StakingPool, error) {
	if p.Status == "" {
		p.Status = domain.PoolStatusActive
	}
	if err := s.prepare(p); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert staking pool: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("id", p.ID).
		Str("chain", p.Chain).
		Str("contract", p.ContractAddress).
		Msg("staking pool created")
	return p, nil
}

// Update replaces pool id, keeping its creation time. An empty status keeps
// the stored one.
func (s *Service) Update(ctx context.Context, id string, p *domain.StakingPool) (*domain.StakingPool, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Status == "" {
		p.Status = existing.Status
	}
	if err := s.prepare(p); err != nil {
		return nil, err
	}

	p.ID = id
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update staking pool: %w", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.StakingPool, error) {
	return s.store.GetByID(ctx, id)
}

// List returns pools matching filter, active first, then by APR.
func (s *Service) List(ctx context.Context, filter storage.StakingPoolFilter) ([]*domain.StakingPool, error) {
	if filter.Chain != "" {
		c, err := s.registry.Get(filter.Chain)
		if err != nil {
			return nil, err
		}
		filter.Chain = c.Key
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown pool status %q", domain.ErrInvalid, filter.Status)
	}
	return s.store.List(ctx, filter)
}

// prepare validates p and normalizes its addresses for the chain family.
func (s *Service) prepare(p *domain.StakingPool) error {
	p.Name = strings.TrimSpace(p.Name)
	p.TokenSymbol = strings.ToUpper(strings.TrimSpace(p.TokenSymbol))
	if err := p.Validate(); err != nil {
		return err
	}

	c, err := s.registry.Get(strings.ToLower(strings.TrimSpace(p.Chain)))
	if err != nil {
		return err
	}
	contract, err := chain.ValidateAddress(p.ContractAddress, c.Family)
	if err != nil {
		return fmt.Errorf("contract %w", err)
	}
	token, err := chain.ValidateAddress(p.TokenAddress, c.Family)
	if err != nil {
		return fmt.Errorf("token %w", err)
	}

	p.Chain = c.Key
	p.ContractAddress = contract.Normalized
	p.TokenAddress = token.Normalized
	p.StartDate = p.StartDate.UTC()
	if p.EndDate != nil {
		end := p.EndDate.UTC()
		p.EndDate = &end
	}
	return nil
}
