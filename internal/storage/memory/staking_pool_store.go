package memory

import (
	"context"
	"sort"
	"sync"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// StakingPoolStore is an in-memory implementation of storage.StakingPoolStore.
type StakingPoolStore struct {
	mu         sync.RWMutex
	byID       map[string]*domain.StakingPool
	byContract map[string]string // chain|contract -> id
}

// NewStakingPoolStore creates a new in-memory staking pool store.
func NewStakingPoolStore() *StakingPoolStore {
	return &StakingPoolStore{
		byID:       make(map[string]*domain.StakingPool),
		byContract: make(map[string]string),
	}
}

func contractKey(p *domain.StakingPool) string {
	return p.Chain + "|" + p.ContractAddress
}

// Insert adds a new pool. Returns ErrDuplicateKey if id or (chain, contract) exists.
func (s *StakingPoolStore) Insert(_ context.Context, p *domain.StakingPool) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[p.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if p.ContractAddress != "" {
		if _, exists := s.byContract[contractKey(p)]; exists {
			return storage.ErrDuplicateKey
		}
	}

	poolCopy := *p
	s.byID[p.ID] = &poolCopy
	if p.ContractAddress != "" {
		s.byContract[contractKey(p)] = p.ID
	}
	return nil
}

// Update replaces a pool, keeping CreatedAt. Returns ErrNotFound if not exists.
func (s *StakingPoolStore) Update(_ context.Context, p *domain.StakingPool) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.byID[p.ID]
	if !exists {
		return storage.ErrNotFound
	}
	if p.ContractAddress != "" {
		if owner, taken := s.byContract[contractKey(p)]; taken && owner != p.ID {
			return storage.ErrDuplicateKey
		}
	}

	if existing.ContractAddress != "" {
		delete(s.byContract, contractKey(existing))
	}

	poolCopy := *p
	poolCopy.CreatedAt = existing.CreatedAt
	s.byID[p.ID] = &poolCopy
	if p.ContractAddress != "" {
		s.byContract[contractKey(p)] = p.ID
	}
	return nil
}

// Delete removes a pool. Returns ErrNotFound if not exists.
func (s *StakingPoolStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.byID[id]
	if !exists {
		return storage.ErrNotFound
	}
	if existing.ContractAddress != "" {
		delete(s.byContract, contractKey(existing))
	}
	delete(s.byID, id)
	return nil
}

// GetByID retrieves a pool. Returns ErrNotFound if not exists.
func (s *StakingPoolStore) GetByID(_ context.Context, id string) (*domain.StakingPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	poolCopy := *p
	return &poolCopy, nil
}

// List retrieves pools matching the filter, active first, then by APR DESC.
func (s *StakingPoolStore) List(_ context.Context, filter storage.StakingPoolFilter) ([]*domain.StakingPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StakingPool
	for _, p := range s.byID {
		if filter.Chain != "" && p.Chain != filter.Chain {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		poolCopy := *p
		result = append(result, &poolCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		ai := result[i].Status == domain.PoolStatusActive
		aj := result[j].Status == domain.PoolStatusActive
		if ai != aj {
			return ai
		}
		if !result[i].APR.Equal(result[j].APR) {
			return result[i].APR.GreaterThan(result[j].APR)
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

var _ storage.StakingPoolStore = (*StakingPoolStore)(nil)
