package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// SpotlightStore is an in-memory implementation of storage.SpotlightStore.
type SpotlightStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.SpotlightToken
}

// NewSpotlightStore creates a new in-memory spotlight store.
func NewSpotlightStore() *SpotlightStore {
	return &SpotlightStore{byID: make(map[string]*domain.SpotlightToken)}
}

// Insert adds a new entry. Returns ErrDuplicateKey if id exists.
func (s *SpotlightStore) Insert(_ context.Context, t *domain.SpotlightToken) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	tokenCopy := *t
	s.byID[t.ID] = &tokenCopy
	return nil
}

// Update replaces an entry, keeping CreatedAt. Returns ErrNotFound if not exists.
func (s *SpotlightStore) Update(_ context.Context, t *domain.SpotlightToken) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.byID[t.ID]
	if !exists {
		return storage.ErrNotFound
	}

	tokenCopy := *t
	tokenCopy.CreatedAt = existing.CreatedAt
	s.byID[t.ID] = &tokenCopy
	return nil
}

// Delete removes an entry. Returns ErrNotFound if not exists.
func (s *SpotlightStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// GetByID retrieves an entry. Returns ErrNotFound if not exists.
func (s *SpotlightStore) GetByID(_ context.Context, id string) (*domain.SpotlightToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// ListOverlapping retrieves entries intersecting [start, end], ordered by rank ASC.
func (s *SpotlightStore) ListOverlapping(_ context.Context, start, end time.Time) ([]*domain.SpotlightToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SpotlightToken
	for _, t := range s.byID {
		if t.Overlaps(start, end) {
			tokenCopy := *t
			result = append(result, &tokenCopy)
		}
	}

	sortByRank(result)
	return result, nil
}

// ListActive retrieves entries active at the given time, ordered by rank ASC.
func (s *SpotlightStore) ListActive(ctx context.Context, at time.Time) ([]*domain.SpotlightToken, error) {
	return s.ListOverlapping(ctx, at, at)
}

// ListAll retrieves every entry ordered by start date DESC, rank ASC.
func (s *SpotlightStore) ListAll(_ context.Context) ([]*domain.SpotlightToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SpotlightToken, 0, len(s.byID))
	for _, t := range s.byID {
		tokenCopy := *t
		result = append(result, &tokenCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.After(result[j].StartDate)
		}
		return result[i].Rank < result[j].Rank
	})
	return result, nil
}

func sortByRank(tokens []*domain.SpotlightToken) {
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].Rank != tokens[j].Rank {
			return tokens[i].Rank < tokens[j].Rank
		}
		return tokens[i].StartDate.Before(tokens[j].StartDate)
	})
}

var _ storage.SpotlightStore = (*SpotlightStore)(nil)
