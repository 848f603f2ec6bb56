package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

type referrerTotals struct {
	volume decimal.Decimal
	reward decimal.Decimal
}

// ReferralStore is an in-memory implementation of storage.ReferralStore.
type ReferralStore struct {
	mu        sync.RWMutex
	codes     map[string]*domain.ReferralCode // code -> record
	byWallet  map[string]string               // wallet -> code
	referrals map[string]*domain.Referral     // referee -> record
	totals    map[string]*referrerTotals      // referrer -> accrued volume
}

// NewReferralStore creates a new in-memory referral store.
func NewReferralStore() *ReferralStore {
	return &ReferralStore{
		codes:     make(map[string]*domain.ReferralCode),
		byWallet:  make(map[string]string),
		referrals: make(map[string]*domain.Referral),
		totals:    make(map[string]*referrerTotals),
	}
}

// InsertCode adds a code. Returns ErrDuplicateKey if the code or the wallet already has one.
func (s *ReferralStore) InsertCode(_ context.Context, c *domain.ReferralCode) error {
	if c == nil || c.Code == "" || c.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[c.Code]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byWallet[c.Wallet]; exists {
		return storage.ErrDuplicateKey
	}

	codeCopy := *c
	s.codes[c.Code] = &codeCopy
	s.byWallet[c.Wallet] = c.Code
	return nil
}

// GetCodeByWallet retrieves the code owned by wallet. Returns ErrNotFound if none.
func (s *ReferralStore) GetCodeByWallet(_ context.Context, wallet string) (*domain.ReferralCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code, exists := s.byWallet[wallet]
	if !exists {
		return nil, storage.ErrNotFound
	}

	codeCopy := *s.codes[code]
	return &codeCopy, nil
}

// GetCode retrieves a code. Returns ErrNotFound if not exists.
func (s *ReferralStore) GetCode(_ context.Context, code string) (*domain.ReferralCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.codes[code]
	if !exists {
		return nil, storage.ErrNotFound
	}

	codeCopy := *c
	return &codeCopy, nil
}

// InsertReferral links a referee to a referrer. Returns ErrDuplicateKey if the referee is already referred.
func (s *ReferralStore) InsertReferral(_ context.Context, r *domain.Referral) error {
	if r == nil || r.RefereeWallet == "" || r.ReferrerWallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.referrals[r.RefereeWallet]; exists {
		return storage.ErrDuplicateKey
	}

	refCopy := *r
	s.referrals[r.RefereeWallet] = &refCopy
	return nil
}

// GetReferralByReferee retrieves the referral of a referee. Returns ErrNotFound if none.
func (s *ReferralStore) GetReferralByReferee(_ context.Context, referee string) (*domain.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.referrals[referee]
	if !exists {
		return nil, storage.ErrNotFound
	}

	refCopy := *r
	return &refCopy, nil
}

// ListReferrals retrieves the referrals made by a referrer, newest first.
func (s *ReferralStore) ListReferrals(_ context.Context, referrer string) ([]*domain.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Referral
	for _, r := range s.referrals {
		if r.ReferrerWallet == referrer {
			refCopy := *r
			result = append(result, &refCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].RefereeWallet < result[j].RefereeWallet
	})
	return result, nil
}

// AddVolume accrues traded volume and rewards to a referrer.
func (s *ReferralStore) AddVolume(_ context.Context, referrer string, volumeUSD, rewardUSD decimal.Decimal) error {
	if referrer == "" || volumeUSD.IsNegative() || rewardUSD.IsNegative() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.totals[referrer]
	if !exists {
		t = &referrerTotals{volume: decimal.Zero, reward: decimal.Zero}
		s.totals[referrer] = t
	}
	t.volume = t.volume.Add(volumeUSD)
	t.reward = t.reward.Add(rewardUSD)
	return nil
}

// GetStats retrieves aggregate stats of a wallet. Rank is not populated.
func (s *ReferralStore) GetStats(_ context.Context, wallet string) (*domain.ReferralStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.statsLocked(wallet), nil
}

// Leaderboard retrieves the top referrers ordered by volume DESC, referral count DESC, wallet ASC.
func (s *ReferralStore) Leaderboard(_ context.Context, limit int) ([]*domain.ReferralStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallets := make(map[string]struct{})
	for w := range s.totals {
		wallets[w] = struct{}{}
	}
	for _, r := range s.referrals {
		wallets[r.ReferrerWallet] = struct{}{}
	}

	result := make([]*domain.ReferralStats, 0, len(wallets))
	for w := range wallets {
		result = append(result, s.statsLocked(w))
	}

	sort.Slice(result, func(i, j int) bool {
		if c := result[i].TotalVolumeUSD.Cmp(result[j].TotalVolumeUSD); c != 0 {
			return c > 0
		}
		if result[i].ReferralCount != result[j].ReferralCount {
			return result[i].ReferralCount > result[j].ReferralCount
		}
		return result[i].Wallet < result[j].Wallet
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	for i, st := range result {
		st.Rank = i + 1
	}
	return result, nil
}

// statsLocked builds stats for wallet. Caller must hold s.mu.
func (s *ReferralStore) statsLocked(wallet string) *domain.ReferralStats {
	st := domain.ZeroReferralStats(wallet)
	st.Code = s.byWallet[wallet]
	for _, r := range s.referrals {
		if r.ReferrerWallet == wallet {
			st.ReferralCount++
		}
	}
	if t, ok := s.totals[wallet]; ok {
		st.TotalVolumeUSD = t.volume
		st.RewardsUSD = t.reward
	}
	return st
}

var _ storage.ReferralStore = (*ReferralStore)(nil)
