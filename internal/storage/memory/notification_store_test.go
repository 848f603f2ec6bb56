package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

func TestNotificationStore_ReadFlow(t *testing.T) {
	store := NewNotificationStore()
	ctx := context.Background()
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"n1", "n2", "n3"} {
		n := &domain.Notification{
			ID:        id,
			Wallet:    "alice",
			Type:      domain.NotificationSystem,
			Title:     "hello",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Insert(ctx, n); err != nil {
			t.Fatalf("Insert %s failed: %v", id, err)
		}
	}
	_ = store.Insert(ctx, &domain.Notification{ID: "other", Wallet: "bob", Type: domain.NotificationTrade, Title: "x"})

	list, err := store.ListByWallet(ctx, "alice", false, 2)
	if err != nil {
		t.Fatalf("ListByWallet failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "n3" {
		t.Fatalf("Expected newest first with limit 2, got %v", list)
	}

	// bob cannot mark alice's notification
	if err := store.MarkRead(ctx, "n1", "bob"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.MarkRead(ctx, "n1", "alice"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	count, _ := store.CountUnread(ctx, "alice")
	if count != 2 {
		t.Errorf("CountUnread: got %d, want 2", count)
	}
	unread, _ := store.ListByWallet(ctx, "alice", true, 0)
	if len(unread) != 2 {
		t.Errorf("Expected 2 unread, got %d", len(unread))
	}

	changed, err := store.MarkAllRead(ctx, "alice")
	if err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if changed != 2 {
		t.Errorf("MarkAllRead changed %d, want 2", changed)
	}
	count, _ = store.CountUnread(ctx, "bob")
	if count != 1 {
		t.Errorf("bob unread: got %d, want 1", count)
	}
}
