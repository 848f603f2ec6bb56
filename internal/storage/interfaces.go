package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"defi-hub/internal/domain"
)

// AdvertStore provides access to adverts storage.
type AdvertStore interface {
	// Insert adds a new advert. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, a *domain.Advert) error

	// Update replaces the editable fields of an advert. Returns ErrNotFound if not exists.
	Update(ctx context.Context, a *domain.Advert) error

	// Delete removes an advert. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves an advert by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Advert, error)

	// ListActive retrieves adverts whose range contains at, optionally filtered by placement,
	// ordered by start date DESC.
	ListActive(ctx context.Context, placement domain.Placement, at time.Time) ([]*domain.Advert, error)

	// ListAll retrieves every advert ordered by start date DESC.
	ListAll(ctx context.Context) ([]*domain.Advert, error)

	// IncrementImpressions adds one impression. Returns ErrNotFound if not exists.
	IncrementImpressions(ctx context.Context, id string) error

	// IncrementClicks adds one click. Returns ErrNotFound if not exists.
	IncrementClicks(ctx context.Context, id string) error
}

// SpotlightStore provides access to token_spotlight storage.
type SpotlightStore interface {
	// Insert adds a new entry. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, s *domain.SpotlightToken) error

	// Update replaces an entry. Returns ErrNotFound if not exists.
	Update(ctx context.Context, s *domain.SpotlightToken) error

	// Delete removes an entry. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves an entry. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.SpotlightToken, error)

	// ListOverlapping retrieves entries whose range intersects [start, end] (inclusive), ordered by rank ASC.
	ListOverlapping(ctx context.Context, start, end time.Time) ([]*domain.SpotlightToken, error)

	// ListActive retrieves entries active at the given time, ordered by rank ASC.
	ListActive(ctx context.Context, at time.Time) ([]*domain.SpotlightToken, error)

	// ListAll retrieves every entry ordered by start date DESC, rank ASC.
	ListAll(ctx context.Context) ([]*domain.SpotlightToken, error)
}

// StakingPoolFilter narrows StakingPoolStore.List. Empty fields match everything.
type StakingPoolFilter struct {
	Chain  string
	Status domain.PoolStatus
}

// StakingPoolStore provides access to staking_pools storage.
type StakingPoolStore interface {
	// Insert adds a new pool. Returns ErrDuplicateKey if id or (chain, contract_address) exists.
	Insert(ctx context.Context, p *domain.StakingPool) error

	// Update replaces a pool. Returns ErrNotFound if not exists.
	Update(ctx context.Context, p *domain.StakingPool) error

	// Delete removes a pool. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error

	// GetByID retrieves a pool. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.StakingPool, error)

	// List retrieves pools matching the filter, active first, then by APR DESC.
	List(ctx context.Context, filter StakingPoolFilter) ([]*domain.StakingPool, error)
}

// ReferralStore provides access to referral_codes, referrals and referral_stats storage.
type ReferralStore interface {
	// InsertCode adds a code. Returns ErrDuplicateKey if the code or the wallet already has one.
	InsertCode(ctx context.Context, c *domain.ReferralCode) error

	// GetCodeByWallet retrieves the code owned by wallet. Returns ErrNotFound if none.
	GetCodeByWallet(ctx context.Context, wallet string) (*domain.ReferralCode, error)

	// GetCode retrieves a code. Returns ErrNotFound if not exists.
	GetCode(ctx context.Context, code string) (*domain.ReferralCode, error)

	// InsertReferral links a referee to a referrer. Returns ErrDuplicateKey if the referee is already referred.
	InsertReferral(ctx context.Context, r *domain.Referral) error

	// GetReferralByReferee retrieves the referral of a referee. Returns ErrNotFound if none.
	GetReferralByReferee(ctx context.Context, referee string) (*domain.Referral, error)

	// ListReferrals retrieves the referrals made by a referrer, newest first.
	ListReferrals(ctx context.Context, referrer string) ([]*domain.Referral, error)

	// AddVolume accrues traded volume and rewards to a referrer.
	AddVolume(ctx context.Context, referrer string, volumeUSD, rewardUSD decimal.Decimal) error

	// GetStats retrieves aggregate stats of a wallet (zero values when it has no activity).
	// Rank is not populated.
	GetStats(ctx context.Context, wallet string) (*domain.ReferralStats, error)

	// Leaderboard retrieves the top referrers ordered by volume DESC, referral count DESC, wallet ASC.
	// Rank is populated from 1.
	Leaderboard(ctx context.Context, limit int) ([]*domain.ReferralStats, error)
}

// NotificationStore provides access to notifications storage.
type NotificationStore interface {
	// Insert adds a notification. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, n *domain.Notification) error

	// ListByWallet retrieves notifications of a wallet, newest first.
	ListByWallet(ctx context.Context, wallet string, unreadOnly bool, limit int) ([]*domain.Notification, error)

	// MarkRead marks one notification of wallet as read. Returns ErrNotFound if the wallet does not own it.
	MarkRead(ctx context.Context, id, wallet string) error

	// MarkAllRead marks every notification of wallet as read and returns how many changed.
	MarkAllRead(ctx context.Context, wallet string) (int, error)

	// CountUnread returns the number of unread notifications of wallet.
	CountUnread(ctx context.Context, wallet string) (int, error)
}

// PriceSnapshotStore provides access to price_snapshots storage.
type PriceSnapshotStore interface {
	// InsertBulk adds snapshots. Snapshots are append-only; duplicates are kept.
	InsertBulk(ctx context.Context, snapshots []*domain.PriceSnapshot) error

	// GetByTimeRange retrieves snapshots for a pair within [start, end] (inclusive),
	// ordered by timestamp ASC, at most limit rows (the most recent ones).
	GetByTimeRange(ctx context.Context, pair string, start, end time.Time, limit int) ([]*domain.PriceSnapshot, error)
}
