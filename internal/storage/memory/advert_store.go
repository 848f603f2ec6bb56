package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// AdvertStore is an in-memory implementation of storage.AdvertStore.
type AdvertStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.Advert
}

// NewAdvertStore creates a new in-memory advert store.
func NewAdvertStore() *AdvertStore {
	return &AdvertStore{byID: make(map[string]*domain.Advert)}
}

// Insert adds a new advert. Returns ErrDuplicateKey if id exists.
func (s *AdvertStore) Insert(_ context.Context, a *domain.Advert) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[a.ID]; exists {
		return storage.ErrDuplicateKey
	}

	advertCopy := *a
	s.byID[a.ID] = &advertCopy
	return nil
}

// Update replaces the editable fields of an advert. Counters and CreatedAt are kept.
func (s *AdvertStore) Update(_ context.Context, a *domain.Advert) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.byID[a.ID]
	if !exists {
		return storage.ErrNotFound
	}

	advertCopy := *a
	advertCopy.Impressions = existing.Impressions
	advertCopy.Clicks = existing.Clicks
	advertCopy.CreatedAt = existing.CreatedAt
	s.byID[a.ID] = &advertCopy
	return nil
}

// Delete removes an advert. Returns ErrNotFound if not exists.
func (s *AdvertStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// GetByID retrieves an advert by its ID. Returns ErrNotFound if not exists.
func (s *AdvertStore) GetByID(_ context.Context, id string) (*domain.Advert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	advertCopy := *a
	return &advertCopy, nil
}

// ListActive retrieves adverts active at the given time, newest start first.
func (s *AdvertStore) ListActive(_ context.Context, placement domain.Placement, at time.Time) ([]*domain.Advert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Advert
	for _, a := range s.byID {
		if placement != "" && a.Placement != placement {
			continue
		}
		if !a.IsActive(at) {
			continue
		}
		advertCopy := *a
		result = append(result, &advertCopy)
	}

	sortAdverts(result)
	return result, nil
}

// ListAll retrieves every advert, newest start first.
func (s *AdvertStore) ListAll(_ context.Context) ([]*domain.Advert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Advert, 0, len(s.byID))
	for _, a := range s.byID {
		advertCopy := *a
		result = append(result, &advertCopy)
	}

	sortAdverts(result)
	return result, nil
}

// IncrementImpressions adds one impression. Returns ErrNotFound if not exists.
func (s *AdvertStore) IncrementImpressions(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.byID[id]
	if !exists {
		return storage.ErrNotFound
	}
	a.Impressions++
	return nil
}

// IncrementClicks adds one click. Returns ErrNotFound if not exists.
func (s *AdvertStore) IncrementClicks(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.byID[id]
	if !exists {
		return storage.ErrNotFound
	}
	a.Clicks++
	return nil
}

func sortAdverts(adverts []*domain.Advert) {
	sort.Slice(adverts, func(i, j int) bool {
		if !adverts[i].StartDate.Equal(adverts[j].StartDate) {
			return adverts[i].StartDate.After(adverts[j].StartDate)
		}
		return adverts[i].ID < adverts[j].ID
	})
}

var _ storage.AdvertStore = (*AdvertStore)(nil)
