// Package notification manages per-wallet inbox messages.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"defi-hub/internal/chain"
	"defi-hub/internal/domain"
	"defi-hub/internal/queue"
	"defi-hub/internal/storage"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type Service struct {
	store     storage.NotificationStore
	publisher queue.Publisher
	now       func() time.Time
}

// NewService builds the service. A nil publisher disables event publishing.
func NewService(store storage.NotificationStore, publisher queue.Publisher) *Service {
	if publisher == nil {
		publisher = queue.NoOpPublisher{}
	}
	return &Service{store: store, publisher: publisher, now: time.Now}
}

// Create stores n for its wallet and publishes notification.created.
// Publish failures are logged; the notification is already stored.
func (s *Service) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	wallet, err := chain.NormalizeWallet(n.Wallet)
	if err != nil {
		return nil, err
	}

	n.ID = uuid.NewString()
	n.Wallet = wallet
	n.Title = strings.TrimSpace(n.Title)
	n.Read = false
	n.CreatedAt = s.now().UTC()

	if err := s.store.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	if err := s.publisher.Publish(ctx, queue.KeyNotificationCreated, n); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("id", n.ID).Msg("notification event not published")
	}
	return n, nil
}

// List returns wallet's notifications, newest first.
func (s *Service) List(ctx context.Context, wallet string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	wallet, err := chain.NormalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.store.ListByWallet(ctx, wallet, unreadOnly, limit)
}

func (s *Service) UnreadCount(ctx context.Context, wallet string) (int, error) {
	wallet, err := chain.NormalizeWallet(wallet)
	if err != nil {
		return 0, err
	}
	return s.store.CountUnread(ctx, wallet)
}

// MarkRead marks one notification read. It is ErrNotFound unless wallet owns it.
func (s *Service) MarkRead(ctx context.Context, id, wallet string) error {
	wallet, err := chain.NormalizeWallet(wallet)
	if err != nil {
		return err
	}
	return s.store.MarkRead(ctx, id, wallet)
}

func (s *Service) MarkAllRead(ctx context.Context, wallet string) (int, error) {
	wallet, err := chain.NormalizeWallet(wallet)
	if err != nil {
		return 0, err
	}
	return s.store.MarkAllRead(ctx, wallet)
}
