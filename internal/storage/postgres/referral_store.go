package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// ReferralStore implements storage.ReferralStore using PostgreSQL.
type ReferralStore struct {
	pool *Pool
}

// NewReferralStore creates a new ReferralStore.
func NewReferralStore(pool *Pool) *ReferralStore {
	return &ReferralStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReferralStore = (*ReferralStore)(nil)

// InsertCode adds a code. Returns ErrDuplicateKey if the code or the wallet already has one.
func (s *ReferralStore) InsertCode(ctx context.Context, c *domain.ReferralCode) error {
	query := `INSERT INTO referral_codes (code, wallet, created_at) VALUES ($1, $2, $3)`

	if _, err := s.pool.Exec(ctx, query, c.Code, c.Wallet, c.CreatedAt); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert referral code: %w", err)
	}
	return nil
}

// GetCodeByWallet retrieves the code owned by wallet. Returns ErrNotFound if none.
func (s *ReferralStore) GetCodeByWallet(ctx context.Context, wallet string) (*domain.ReferralCode, error) {
	query := `SELECT code, wallet, created_at FROM referral_codes WHERE wallet = $1`

	c, err := scanReferralCode(s.pool.QueryRow(ctx, query, wallet))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get referral code by wallet: %w", err)
	}
	return c, nil
}

// GetCode retrieves a code. Returns ErrNotFound if not exists.
func (s *ReferralStore) GetCode(ctx context.Context, code string) (*domain.ReferralCode, error) {
	query := `SELECT code, wallet, created_at FROM referral_codes WHERE code = $1`

	c, err := scanReferralCode(s.pool.QueryRow(ctx, query, code))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get referral code: %w", err)
	}
	return c, nil
}

// InsertReferral links a referee to a referrer. Returns ErrDuplicateKey if the referee is
// already referred and ErrNotFound if the code does not exist.
func (s *ReferralStore) InsertReferral(ctx context.Context, r *domain.Referral) error {
	query := `
		INSERT INTO referrals (referee_wallet, referrer_wallet, code, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, r.RefereeWallet, r.ReferrerWallet, r.Code, r.CreatedAt)
	if err != nil {
		switch {
		case isDuplicateKeyError(err):
			return storage.ErrDuplicateKey
		case isForeignKeyError(err):
			return storage.ErrNotFound
		}
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

// GetReferralByReferee retrieves the referral of a referee. Returns ErrNotFound if none.
func (s *ReferralStore) GetReferralByReferee(ctx context.Context, referee string) (*domain.Referral, error) {
	query := `
		SELECT referee_wallet, referrer_wallet, code, created_at
		FROM referrals
		WHERE referee_wallet = $1
	`

	r, err := scanReferral(s.pool.QueryRow(ctx, query, referee))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get referral by referee: %w", err)
	}
	return r, nil
}

// ListReferrals retrieves the referrals made by a referrer, newest first.
func (s *ReferralStore) ListReferrals(ctx context.Context, referrer string) ([]*domain.Referral, error) {
	query := `
		SELECT referee_wallet, referrer_wallet, code, created_at
		FROM referrals
		WHERE referrer_wallet = $1
		ORDER BY created_at DESC, referee_wallet ASC
	`

	rows, err := s.pool.Query(ctx, query, referrer)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()

	var referrals []*domain.Referral
	for rows.Next() {
		r, err := scanReferral(rows)
		if err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		referrals = append(referrals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referrals: %w", err)
	}
	return referrals, nil
}

// AddVolume accrues traded volume and rewards to a referrer.
func (s *ReferralStore) AddVolume(ctx context.Context, referrer string, volumeUSD, rewardUSD decimal.Decimal) error {
	query := `
		INSERT INTO referral_stats (wallet, total_volume_usd, rewards_usd, updated_at)
		VALUES ($1, $2::numeric, $3::numeric, NOW())
		ON CONFLICT (wallet) DO UPDATE SET
			total_volume_usd = referral_stats.total_volume_usd + EXCLUDED.total_volume_usd,
			rewards_usd      = referral_stats.rewards_usd + EXCLUDED.rewards_usd,
			updated_at       = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, referrer, numericParam(volumeUSD), numericParam(rewardUSD)); err != nil {
		return fmt.Errorf("add referral volume: %w", err)
	}
	return nil
}

// statsSelect yields one row per referrer known from either referrals or referral_stats.
const statsSelect = `
	SELECT w.wallet,
	       COALESCE(c.code, ''),
	       COALESCE(r.cnt, 0),
	       COALESCE(s.total_volume_usd, 0)::text,
	       COALESCE(s.rewards_usd, 0)::text
	FROM (
		SELECT wallet FROM referral_stats
		UNION
		SELECT referrer_wallet FROM referrals
	) w
	LEFT JOIN (
		SELECT referrer_wallet, COUNT(*) AS cnt FROM referrals GROUP BY referrer_wallet
	) r ON r.referrer_wallet = w.wallet
	LEFT JOIN referral_stats s ON s.wallet = w.wallet
	LEFT JOIN referral_codes c ON c.wallet = w.wallet
`

// GetStats retrieves aggregate stats of a wallet. Rank is not populated.
func (s *ReferralStore) GetStats(ctx context.Context, wallet string) (*domain.ReferralStats, error) {
	query := statsSelect + ` WHERE w.wallet = $1`

	st, err := scanReferralStats(s.pool.QueryRow(ctx, query, wallet))
	if err != nil {
		if isNotFoundError(err) {
			zero := domain.ZeroReferralStats(wallet)
			code, codeErr := s.GetCodeByWallet(ctx, wallet)
			if codeErr == nil {
				zero.Code = code.Code
			}
			return zero, nil
		}
		return nil, fmt.Errorf("get referral stats: %w", err)
	}
	return st, nil
}

// Leaderboard retrieves the top referrers ordered by volume DESC, referral count DESC, wallet ASC.
func (s *ReferralStore) Leaderboard(ctx context.Context, limit int) ([]*domain.ReferralStats, error) {
	query := statsSelect + `
		ORDER BY COALESCE(s.total_volume_usd, 0) DESC, COALESCE(r.cnt, 0) DESC, w.wallet ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query referral leaderboard: %w", err)
	}
	defer rows.Close()

	var board []*domain.ReferralStats
	for rows.Next() {
		st, err := scanReferralStats(rows)
		if err != nil {
			return nil, fmt.Errorf("scan referral stats: %w", err)
		}
		st.Rank = len(board) + 1
		board = append(board, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referral leaderboard: %w", err)
	}
	return board, nil
}

func scanReferralCode(row pgx.Row) (*domain.ReferralCode, error) {
	var c domain.ReferralCode
	if err := row.Scan(&c.Code, &c.Wallet, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanReferral(row pgx.Row) (*domain.Referral, error) {
	var r domain.Referral
	if err := row.Scan(&r.RefereeWallet, &r.ReferrerWallet, &r.Code, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanReferralStats(row pgx.Row) (*domain.ReferralStats, error) {
	var st domain.ReferralStats
	var count int64
	var volume, rewards string

	if err := row.Scan(&st.Wallet, &st.Code, &count, &volume, &rewards); err != nil {
		return nil, err
	}

	var err error
	st.ReferralCount = int(count)
	if st.TotalVolumeUSD, err = parseNumeric(volume); err != nil {
		return nil, err
	}
	if st.RewardsUSD, err = parseNumeric(rewards); err != nil {
		return nil, err
	}
	return &st, nil
}
