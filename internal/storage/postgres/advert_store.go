package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// AdvertStore implements storage.AdvertStore using PostgreSQL.
type AdvertStore struct {
	pool *Pool
}

// NewAdvertStore creates a new AdvertStore.
func NewAdvertStore(pool *Pool) *AdvertStore {
	return &AdvertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AdvertStore = (*AdvertStore)(nil)

const advertColumns = `id, title, description, image_url, link_url, placement,
	start_date, end_date, impressions, clicks, created_at, updated_at`

// Insert adds a new advert. Returns ErrDuplicateKey if id exists.
func (s *AdvertStore) Insert(ctx context.Context, a *domain.Advert) (err error) {
	start := time.Now()
	defer func() { observe("advert_insert", start, err) }()

	query := `
		INSERT INTO adverts (
			id, title, description, image_url, link_url, placement,
			start_date, end_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.pool.Exec(ctx, query,
		a.ID, a.Title, a.Description, a.ImageURL, a.LinkURL, string(a.Placement),
		a.StartDate, a.EndDate, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert advert: %w", err)
	}
	return nil
}

// Update replaces the editable fields of an advert. Returns ErrNotFound if not exists.
func (s *AdvertStore) Update(ctx context.Context, a *domain.Advert) error {
	query := `
		UPDATE adverts SET
			title = $2, description = $3, image_url = $4, link_url = $5, placement = $6,
			start_date = $7, end_date = $8, updated_at = $9
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		a.ID, a.Title, a.Description, a.ImageURL, a.LinkURL, string(a.Placement),
		a.StartDate, a.EndDate, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update advert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes an advert. Returns ErrNotFound if not exists.
func (s *AdvertStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM adverts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete advert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves an advert by its ID. Returns ErrNotFound if not exists.
func (s *AdvertStore) GetByID(ctx context.Context, id string) (*domain.Advert, error) {
	query := `SELECT ` + advertColumns + ` FROM adverts WHERE id = $1`

	a, err := scanAdvert(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get advert by id: %w", err)
	}
	return a, nil
}

// ListActive retrieves adverts whose range contains at, ordered by start date DESC.
func (s *AdvertStore) ListActive(ctx context.Context, placement domain.Placement, at time.Time) (adverts []*domain.Advert, err error) {
	start := time.Now()
	defer func() { observe("advert_list_active", start, err) }()

	query := `
		SELECT ` + advertColumns + `
		FROM adverts
		WHERE start_date <= $1 AND end_date >= $1
		  AND ($2 = '' OR placement = $2)
		ORDER BY start_date DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, at, string(placement))
	if err != nil {
		return nil, fmt.Errorf("list active adverts: %w", err)
	}
	defer rows.Close()

	return collectAdverts(rows)
}

// ListAll retrieves every advert ordered by start date DESC.
func (s *AdvertStore) ListAll(ctx context.Context) ([]*domain.Advert, error) {
	query := `SELECT ` + advertColumns + ` FROM adverts ORDER BY start_date DESC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list adverts: %w", err)
	}
	defer rows.Close()

	return collectAdverts(rows)
}

// IncrementImpressions adds one impression. Returns ErrNotFound if not exists.
func (s *AdvertStore) IncrementImpressions(ctx context.Context, id string) error {
	return s.increment(ctx, "impressions", id)
}

// IncrementClicks adds one click. Returns ErrNotFound if not exists.
func (s *AdvertStore) IncrementClicks(ctx context.Context, id string) error {
	return s.increment(ctx, "clicks", id)
}

// increment bumps a counter column. column is never user input.
func (s *AdvertStore) increment(ctx context.Context, column, id string) error {
	query := fmt.Sprintf(`UPDATE adverts SET %[1]s = %[1]s + 1 WHERE id = $1`, column)

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment advert %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func collectAdverts(rows pgx.Rows) ([]*domain.Advert, error) {
	var adverts []*domain.Advert
	for rows.Next() {
		a, err := scanAdvert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advert: %w", err)
		}
		adverts = append(adverts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adverts: %w", err)
	}
	return adverts, nil
}

// scanAdvert scans a single row into Advert.
func scanAdvert(row pgx.Row) (*domain.Advert, error) {
	var a domain.Advert
	var placement string

	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.ImageURL,
		&a.LinkURL,
		&placement,
		&a.StartDate,
		&a.EndDate,
		&a.Impressions,
		&a.Clicks,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Placement = domain.Placement(placement)
	return &a, nil
}
