package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// PriceSnapshotStore is an in-memory implementation of storage.PriceSnapshotStore.
type PriceSnapshotStore struct {
	mu     sync.RWMutex
	byPair map[string][]*domain.PriceSnapshot
}

// NewPriceSnapshotStore creates a new in-memory price snapshot store.
func NewPriceSnapshotStore() *PriceSnapshotStore {
	return &PriceSnapshotStore{byPair: make(map[string][]*domain.PriceSnapshot)}
}

// InsertBulk adds snapshots. Duplicates are kept.
func (s *PriceSnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.PriceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		if snap == nil || snap.Pair == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, snap := range snapshots {
		snapCopy := *snap
		s.byPair[snap.Pair] = append(s.byPair[snap.Pair], &snapCopy)
	}
	return nil
}

// GetByTimeRange retrieves snapshots for a pair within [start, end] ordered by timestamp ASC.
// When more than limit rows match, the most recent limit are returned.
func (s *PriceSnapshotStore) GetByTimeRange(_ context.Context, pair string, start, end time.Time, limit int) ([]*domain.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceSnapshot
	for _, snap := range s.byPair[pair] {
		if snap.Timestamp.Before(start) || snap.Timestamp.After(end) {
			continue
		}
		snapCopy := *snap
		result = append(result, &snapCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

var _ storage.PriceSnapshotStore = (*PriceSnapshotStore)(nil)
