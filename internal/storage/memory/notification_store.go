package memory

import (
	"context"
	"sort"
	"sync"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// NotificationStore is an in-memory implementation of storage.NotificationStore.
type NotificationStore struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Notification
	byWallet map[string][]string // wallet -> ids
}

// NewNotificationStore creates a new in-memory notification store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		byID:     make(map[string]*domain.Notification),
		byWallet: make(map[string][]string),
	}
}

// Insert adds a notification. Returns ErrDuplicateKey if id exists.
func (s *NotificationStore) Insert(_ context.Context, n *domain.Notification) error {
	if n == nil || n.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[n.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.byID[n.ID] = copyNotification(n)
	s.byWallet[n.Wallet] = append(s.byWallet[n.Wallet], n.ID)
	return nil
}

// ListByWallet retrieves notifications of a wallet, newest first.
func (s *NotificationStore) ListByWallet(_ context.Context, wallet string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Notification
	for _, id := range s.byWallet[wallet] {
		n := s.byID[id]
		if unreadOnly && n.Read {
			continue
		}
		result = append(result, copyNotification(n))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MarkRead marks one notification of wallet as read. Returns ErrNotFound if the wallet does not own it.
func (s *NotificationStore) MarkRead(_ context.Context, id, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.byID[id]
	if !exists || n.Wallet != wallet {
		return storage.ErrNotFound
	}
	n.Read = true
	return nil
}

// MarkAllRead marks every notification of wallet as read and returns how many changed.
func (s *NotificationStore) MarkAllRead(_ context.Context, wallet string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, id := range s.byWallet[wallet] {
		if n := s.byID[id]; !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

// CountUnread returns the number of unread notifications of wallet.
func (s *NotificationStore) CountUnread(_ context.Context, wallet string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, id := range s.byWallet[wallet] {
		if !s.byID[id].Read {
			count++
		}
	}
	return count, nil
}

func copyNotification(n *domain.Notification) *domain.Notification {
	nCopy := *n
	if n.Transaction != nil {
		txCopy := *n.Transaction
		nCopy.Transaction = &txCopy
	}
	return &nCopy
}

var _ storage.NotificationStore = (*NotificationStore)(nil)
