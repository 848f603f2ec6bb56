package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// SpotlightStore implements storage.SpotlightStore using PostgreSQL.
type SpotlightStore struct {
	pool *Pool
}

// NewSpotlightStore creates a new SpotlightStore.
func NewSpotlightStore(pool *Pool) *SpotlightStore {
	return &SpotlightStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SpotlightStore = (*SpotlightStore)(nil)

const spotlightColumns = `id, chain, token_address, symbol, name, logo_url, rank,
	start_date, end_date, created_at, updated_at`

// Insert adds a new entry. Returns ErrDuplicateKey if id exists.
func (s *SpotlightStore) Insert(ctx context.Context, t *domain.SpotlightToken) error {
	query := `
		INSERT INTO token_spotlight (
			id, chain, token_address, symbol, name, logo_url, rank,
			start_date, end_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.Chain, t.TokenAddress, t.Symbol, t.Name, t.LogoURL, t.Rank,
		t.StartDate, t.EndDate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert spotlight token: %w", err)
	}
	return nil
}

// Update replaces an entry, keeping created_at. Returns ErrNotFound if not exists.
func (s *SpotlightStore) Update(ctx context.Context, t *domain.SpotlightToken) error {
	query := `
		UPDATE token_spotlight SET
			chain = $2, token_address = $3, symbol = $4, name = $5, logo_url = $6,
			rank = $7, start_date = $8, end_date = $9, updated_at = $10
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		t.ID, t.Chain, t.TokenAddress, t.Symbol, t.Name, t.LogoURL,
		t.Rank, t.StartDate, t.EndDate, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update spotlight token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes an entry. Returns ErrNotFound if not exists.
func (s *SpotlightStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM token_spotlight WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete spotlight token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves an entry. Returns ErrNotFound if not exists.
func (s *SpotlightStore) GetByID(ctx context.Context, id string) (*domain.SpotlightToken, error) {
	query := `SELECT ` + spotlightColumns + ` FROM token_spotlight WHERE id = $1`

	t, err := scanSpotlight(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get spotlight token by id: %w", err)
	}
	return t, nil
}

// ListOverlapping retrieves entries whose range intersects [start, end], ordered by rank ASC.
func (s *SpotlightStore) ListOverlapping(ctx context.Context, start, end time.Time) (tokens []*domain.SpotlightToken, err error) {
	began := time.Now()
	defer func() { observe("spotlight_list_overlapping", began, err) }()

	query := `
		SELECT ` + spotlightColumns + `
		FROM token_spotlight
		WHERE start_date <= $2 AND end_date >= $1
		ORDER BY rank ASC, start_date ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("list overlapping spotlight tokens: %w", err)
	}
	defer rows.Close()

	return collectSpotlight(rows)
}

// ListActive retrieves entries active at the given time, ordered by rank ASC.
func (s *SpotlightStore) ListActive(ctx context.Context, at time.Time) ([]*domain.SpotlightToken, error) {
	return s.ListOverlapping(ctx, at, at)
}

// ListAll retrieves every entry ordered by start date DESC, rank ASC.
func (s *SpotlightStore) ListAll(ctx context.Context) ([]*domain.SpotlightToken, error) {
	query := `SELECT ` + spotlightColumns + ` FROM token_spotlight ORDER BY start_date DESC, rank ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list spotlight tokens: %w", err)
	}
	defer rows.Close()

	return collectSpotlight(rows)
}

func collectSpotlight(rows pgx.Rows) ([]*domain.SpotlightToken, error) {
	var tokens []*domain.SpotlightToken
	for rows.Next() {
		t, err := scanSpotlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spotlight token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spotlight tokens: %w", err)
	}
	return tokens, nil
}

// scanSpotlight scans a single row into SpotlightToken.
func scanSpotlight(row pgx.Row) (*domain.SpotlightToken, error) {
	var t domain.SpotlightToken

	err := row.Scan(
		&t.ID,
		&t.Chain,
		&t.TokenAddress,
		&t.Symbol,
		&t.Name,
		&t.LogoURL,
		&t.Rank,
		&t.StartDate,
		&t.EndDate,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
