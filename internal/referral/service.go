// Package referral runs the referral program: codes, referee links and
// volume-based rewards.
package referral

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"defi-hub/internal/chain"
	"defi-hub/internal/config"
	"defi-hub/internal/domain"
	"defi-hub/internal/queue"
	"defi-hub/internal/storage"
)

// CodeAlphabet leaves out 0, 1, I and O.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeAttempts = 5

	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100

	// rankScanLimit bounds the leaderboard scan used to rank a single wallet.
	rankScanLimit = 1000
)

var bpsDivisor = decimal.NewFromInt(10000)

// Notifier delivers an inbox message to a wallet.
type Notifier interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
}

// AppliedEvent is published when a referee is linked to a referrer.
type AppliedEvent struct {
	Referee  string    `json:"referee"`
	Referrer string    `json:"referrer"`
	Code     string    `json:"code"`
	At       time.Time `json:"at"`
}

type Service struct {
	store     storage.ReferralStore
	cfg       config.ReferralConfig
	notifier  Notifier
	publisher queue.Publisher
	now       func() time.Time
}

type Option func(*Service)

// WithNotifier sends the referrer an inbox message on every applied code.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithPublisher(p queue.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func NewService(store storage.ReferralStore, cfg config.ReferralConfig, opts ...Option) *Service {
	s := &Service{
		store:     store,
		cfg:       cfg,
		publisher: queue.NoOpPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreateCode returns wallet's code, creating one on first use.
func (s *Service) GetOrCreateCode(ctx context.Context, wallet string) (*domain.ReferralCode, error) {
	wallet, err := chain.NormalizeWallet(wallet)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetCodeByWallet(ctx, wallet)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get referral code: %w", err)
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := generateCode(s.codeLength())
		if err != nil {
			return nil, err
		}
		rc := &domain.ReferralCode{Code: code, Wallet: wallet, CreatedAt: s.now().UTC()}

		err = s.store.InsertCode(ctx, rc)
		if err == nil {
			log.Ctx(ctx).Info().Str("wallet", wallet).Str("code", code).Msg("referral code created")
			return rc, nil
		}
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("insert referral code: %w", err)
		}

		// A concurrent request may have created the wallet's code.
		if existing, getErr := s.store.GetCodeByWallet(ctx, wallet); getErr == nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("%w: no free referral code after %d attempts", storage.ErrConflict, codeAttempts)
}

// Apply links referee to the owner of code.
func (s *Service) Apply(ctx context.Context, referee, code string) (*domain.Referral, error) {
	referee, err := chain.NormalizeWallet(referee)
	if err != nil {
		return nil, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("%w: referral code is required", domain.ErrInvalid)
	}

	rc, err := s.store.GetCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("referral code %s: %w", code, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("get referral code: %w", err)
	}
	if rc.Wallet == referee {
		return nil, fmt.Errorf("%w: wallet cannot use its own referral code", domain.ErrInvalid)
	}

	ref := &domain.Referral{
		RefereeWallet:  referee,
		ReferrerWallet: rc.Wallet,
		Code:           rc.Code,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.InsertReferral(ctx, ref); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("wallet %s is already referred: %w", referee, storage.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("insert referral: %w", err)
	}

	logger := log.Ctx(ctx)
	logger.Info().Str("referee", referee).Str("referrer", rc.Wallet).Msg("referral applied")

	if s.notifier != nil {
		_, err := s.notifier.Create(ctx, &domain.Notification{
			Wallet:  rc.Wallet,
			Type:    domain.NotificationReferral,
			Title:   "New referral",
			Message: fmt.Sprintf("%s joined with your code %s", shortAddress(referee), rc.Code),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("referral notification not created")
		}
	}

	event := AppliedEvent{Referee: referee, Referrer: rc.Wallet, Code: rc.Code, At: ref.CreatedAt}
	if err := s.publisher.Publish(ctx, queue.KeyReferralApplied, event); err != nil {
		logger.Warn().Err(err).Msg("referral event not published")
	}
	return ref, nil
}

// RecordVolume credits referee's traded volume to its referrer. It returns
// the credited reward, zero when referee has no referrer.
func (s *Service) RecordVolume(ctx context.Context, referee string, volumeUSD decimal.Decimal) (decimal.Decimal, error) {
	referee, err := chain.NormalizeWallet(referee)
	if err != nil {
		return decimal.Zero, err
	}
	if !volumeUSD.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: volume must be positive", domain.ErrInvalid)
	}

	ref, err := s.store.GetReferralByReferee(ctx, referee)
	if errors.Is(err, storage.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get referral: %w", err)
	}

	reward := volumeUSD.Mul(decimal.NewFromInt(int64(s.cfg.RewardBps))).Div(bpsDivisor)
	if err := s.store.AddVolume(ctx, ref.ReferrerWallet, volumeUSD, reward); err != nil {
		return decimal.Zero, fmt.Errorf("add referral volume: %w", err)
	}
	return reward, nil
}

// Stats returns wallet's referral totals and leaderboard rank. Store
// failures are logged and yield zeroed stats.
func (s *Service) Stats(ctx context.Context, wallet string) (*domain.ReferralStats, error) {
	wallet, err := chain.NormalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	logger := log.Ctx(ctx)

	stats, err := s.store.GetStats(ctx, wallet)
	if err != nil {
		logger.Error().Err(err).Str("wallet", wallet).Msg("Failed to load referral stats")
		return domain.ZeroReferralStats(wallet), nil
	}

	board, err := s.store.Leaderboard(ctx, rankScanLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load referral leaderboard")
		return stats, nil
	}
	for _, entry := range board {
		if entry.Wallet == wallet {
			stats.Rank = entry.Rank
			break
		}
	}
	return stats, nil
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*domain.ReferralStats, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	board, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return board, nil
}

// Referrals lists the wallets referred by referrer.
func (s *Service) Referrals(ctx context.Context, referrer string) ([]*domain.Referral, error) {
	referrer, err := chain.NormalizeWallet(referrer)
	if err != nil {
		return nil, err
	}
	return s.store.ListReferrals(ctx, referrer)
}

func (s *Service) codeLength() int {
	if s.cfg.CodeLength <= 0 {
		return 8
	}
	return s.cfg.CodeLength
}

func generateCode(n int) (string, error) {
	size := big.NewInt(int64(len(CodeAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		b.WriteByte(CodeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

func shortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
