package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// NotificationStore implements storage.NotificationStore using PostgreSQL.
type NotificationStore struct {
	pool *Pool
}

// NewNotificationStore creates a new NotificationStore.
func NewNotificationStore(pool *Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.NotificationStore = (*NotificationStore)(nil)

// Insert adds a notification. Returns ErrDuplicateKey if id exists.
func (s *NotificationStore) Insert(ctx context.Context, n *domain.Notification) error {
	var tx []byte
	if n.Transaction != nil {
		var err error
		if tx, err = json.Marshal(n.Transaction); err != nil {
			return fmt.Errorf("marshal notification transaction: %w", err)
		}
	}

	query := `
		INSERT INTO notifications (id, wallet, type, title, message, read, tx, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		n.ID, n.Wallet, string(n.Type), n.Title, n.Message, n.Read, tx, n.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByWallet retrieves notifications of a wallet, newest first.
func (s *NotificationStore) ListByWallet(ctx context.Context, wallet string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	query := `
		SELECT id, wallet, type, title, message, read, tx, created_at
		FROM notifications
		WHERE wallet = $1 AND (NOT $2 OR NOT read)
		ORDER BY created_at DESC, id DESC
	`
	args := []any{wallet, unreadOnly}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one notification of wallet as read. Returns ErrNotFound if the wallet does not own it.
func (s *NotificationStore) MarkRead(ctx context.Context, id, wallet string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND wallet = $2`, id, wallet)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkAllRead marks every notification of wallet as read and returns how many changed.
func (s *NotificationStore) MarkAllRead(ctx context.Context, wallet string) (int, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE wallet = $1 AND NOT read`, wallet)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CountUnread returns the number of unread notifications of wallet.
func (s *NotificationStore) CountUnread(ctx context.Context, wallet string) (int, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE wallet = $1 AND NOT read`, wallet).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return int(count), nil
}

// scanNotification scans a single row into Notification.
func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	var typ string
	var tx []byte

	if err := row.Scan(&n.ID, &n.Wallet, &typ, &n.Title, &n.Message, &n.Read, &tx, &n.CreatedAt); err != nil {
		return nil, err
	}

	n.Type = domain.NotificationType(typ)
	if len(tx) > 0 {
		var t domain.Transaction
		if err := json.Unmarshal(tx, &t); err != nil {
			return nil, fmt.Errorf("unmarshal notification transaction: %w", err)
		}
		n.Transaction = &t
	}
	return &n, nil
}
