package domain

import (
	"strings"
	"time"
)

// NotificationType classifies notifications for the client.
type NotificationType string

const (
	NotificationTrade    NotificationType = "trade"
	NotificationReferral NotificationType = "referral"
	NotificationStaking  NotificationType = "staking"
	NotificationSystem   NotificationType = "system"
)

// IsValid checks if the type is a known value.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTrade, NotificationReferral, NotificationStaking, NotificationSystem:
		return true
	}
	return false
}

// Notification is a per-wallet inbox message.
// Corresponds to notifications table in PostgreSQL.
type Notification struct {
	ID        string           `json:"id"`
	Wallet    string           `json:"wallet"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`

	// Transaction is attached to trade and staking notifications.
	Transaction *Transaction `json:"transaction,omitempty"`
}

// Validate checks the fields supplied on creation.
func (n *Notification) Validate() error {
	if strings.TrimSpace(n.Wallet) == "" {
		return invalidf("notification wallet is required")
	}
	if !n.Type.IsValid() {
		return invalidf("unknown notification type %q", n.Type)
	}
	if strings.TrimSpace(n.Title) == "" {
		return invalidf("notification title is required")
	}
	return nil
}
