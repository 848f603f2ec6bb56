package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defi-hub/internal/domain"
	"defi-hub/internal/queue"
	"defi-hub/internal/storage"
	"defi-hub/internal/storage/memory"
)

const wallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	failed bool
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	if p.failed {
		return errors.New("broker down")
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestCreate_PublishesAndNormalizes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(memory.NewNotificationStore(), pub)
	ctx := context.Background()

	n, err := svc.Create(ctx, &domain.Notification{
		Wallet:  "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		Type:    domain.NotificationTrade,
		Title:   " Swap filled ",
		Message: "1 ETH -> 3000 USDC",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, wallet, n.Wallet)
	assert.Equal(t, "Swap filled", n.Title)
	assert.Equal(t, []string{queue.KeyNotificationCreated}, pub.keys)

	list, err := svc.List(ctx, wallet, false, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
}

func TestCreate_PublishFailureIsNotFatal(t *testing.T) {
	svc := NewService(memory.NewNotificationStore(), &recordingPublisher{failed: true})

	_, err := svc.Create(context.Background(), &domain.Notification{
		Wallet: wallet, Type: domain.NotificationSystem, Title: "Maintenance",
	})
	assert.NoError(t, err)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(memory.NewNotificationStore(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, &domain.Notification{Wallet: wallet, Type: "spam", Title: "x"})
	assert.True(t, errors.Is(err, domain.ErrInvalid))

	_, err = svc.Create(ctx, &domain.Notification{Wallet: "nope", Type: domain.NotificationSystem, Title: "x"})
	assert.True(t, errors.Is(err, domain.ErrInvalid))
}

func TestReadFlow(t *testing.T) {
	svc := NewService(memory.NewNotificationStore(), nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := svc.Create(ctx, &domain.Notification{Wallet: wallet, Type: domain.NotificationStaking, Title: "Reward"})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	count, err := svc.UnreadCount(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, svc.MarkRead(ctx, ids[0], wallet))

	other := "CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQz3"
	err = svc.MarkRead(ctx, ids[1], other)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	unread, err := svc.List(ctx, wallet, true, 10)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	changed, err := svc.MarkAllRead(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	count, err = svc.UnreadCount(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
