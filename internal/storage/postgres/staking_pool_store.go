package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// StakingPoolStore implements storage.StakingPoolStore using PostgreSQL.
type StakingPoolStore struct {
	pool *Pool
}

// NewStakingPoolStore creates a new StakingPoolStore.
func NewStakingPoolStore(pool *Pool) *StakingPoolStore {
	return &StakingPoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StakingPoolStore = (*StakingPoolStore)(nil)

const stakingPoolColumns = `id, name, chain, contract_address, token_address, token_symbol,
	apr::text, lock_days, min_stake::text, max_capacity::text, total_staked::text,
	status, start_date, end_date, created_at, updated_at`

// Insert adds a new pool. Returns ErrDuplicateKey if id or (chain, contract_address) exists.
func (s *StakingPoolStore) Insert(ctx context.Context, p *domain.StakingPool) error {
	query := `
		INSERT INTO staking_pools (
			id, name, chain, contract_address, token_address, token_symbol,
			apr, lock_days, min_stake, max_capacity, total_staked,
			status, start_date, end_date, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7::numeric, $8, $9::numeric, $10::numeric, $11::numeric,
			$12, $13, $14, $15, $16
		)
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.Chain, p.ContractAddress, p.TokenAddress, p.TokenSymbol,
		numericParam(p.APR), p.LockDays, numericParam(p.MinStake),
		numericParam(p.MaxCapacity), numericParam(p.TotalStaked),
		string(p.Status), p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert staking pool: %w", err)
	}
	return nil
}

// Update replaces a pool, keeping created_at. Returns ErrNotFound if not exists.
func (s *StakingPoolStore) Update(ctx context.Context, p *domain.StakingPool) error {
	query := `
		UPDATE staking_pools SET
			name = $2, chain = $3, contract_address = $4, token_address = $5, token_symbol = $6,
			apr = $7::numeric, lock_days = $8, min_stake = $9::numeric,
			max_capacity = $10::numeric, total_staked = $11::numeric,
			status = $12, start_date = $13, end_date = $14, updated_at = $15
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.Name, p.Chain, p.ContractAddress, p.TokenAddress, p.TokenSymbol,
		numericParam(p.APR), p.LockDays, numericParam(p.MinStake),
		numericParam(p.MaxCapacity), numericParam(p.TotalStaked),
		string(p.Status), p.StartDate, p.EndDate, p.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("update staking pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a pool. Returns ErrNotFound if not exists.
func (s *StakingPoolStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM staking_pools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete staking pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a pool. Returns ErrNotFound if not exists.
func (s *StakingPoolStore) GetByID(ctx context.Context, id string) (*domain.StakingPool, error) {
	query := `SELECT ` + stakingPoolColumns + ` FROM staking_pools WHERE id = $1`

	p, err := scanStakingPool(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get staking pool by id: %w", err)
	}
	return p, nil
}

// List retrieves pools matching the filter, active first, then by APR DESC.
func (s *StakingPoolStore) List(ctx context.Context, filter storage.StakingPoolFilter) ([]*domain.StakingPool, error) {
	query := `
		SELECT ` + stakingPoolColumns + `
		FROM staking_pools
		WHERE ($1 = '' OR chain = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY (status = 'active') DESC, apr DESC, name ASC
	`

	rows, err := s.pool.Query(ctx, query, filter.Chain, string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("list staking pools: %w", err)
	}
	defer rows.Close()

	var pools []*domain.StakingPool
	for rows.Next() {
		p, err := scanStakingPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staking pool: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staking pools: %w", err)
	}
	return pools, nil
}

// scanStakingPool scans a single row into StakingPool.
func scanStakingPool(row pgx.Row) (*domain.StakingPool, error) {
	var p domain.StakingPool
	var status string
	var apr, minStake, maxCapacity, totalStaked string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Chain,
		&p.ContractAddress,
		&p.TokenAddress,
		&p.TokenSymbol,
		&apr,
		&p.LockDays,
		&minStake,
		&maxCapacity,
		&totalStaked,
		&status,
		&p.StartDate,
		&p.EndDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = domain.PoolStatus(status)
	if p.APR, err = parseNumeric(apr); err != nil {
		return nil, err
	}
	if p.MinStake, err = parseNumeric(minStake); err != nil {
		return nil, err
	}
	if p.MaxCapacity, err = parseNumeric(maxCapacity); err != nil {
		return nil, err
	}
	if p.TotalStaked, err = parseNumeric(totalStaked); err != nil {
		return nil, err
	}
	return &p, nil
}
