package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

// PriceSnapshotStore implements storage.PriceSnapshotStore using ClickHouse.
type PriceSnapshotStore struct {
	conn *Conn
}

// NewPriceSnapshotStore creates a new PriceSnapshotStore.
func NewPriceSnapshotStore(conn *Conn) *PriceSnapshotStore {
	return &PriceSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceSnapshotStore = (*PriceSnapshotStore)(nil)

// InsertBulk adds snapshots in one batch. MergeTree keeps duplicates.
func (s *PriceSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.PriceSnapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap == nil || snap.Pair == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() { observe("price_snapshot_insert", start, err) }()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_snapshots (pair, source, timestamp, price, volume_24h)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		if err = batch.Append(snap.Pair, snap.Source, snap.Timestamp.UTC(), snap.Price, snap.Volume24h); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves snapshots for a pair within [start, end] (inclusive), ordered by
// timestamp ASC. When more than limit rows match, the most recent limit are returned.
func (s *PriceSnapshotStore) GetByTimeRange(ctx context.Context, pair string, start, end time.Time, limit int) (snaps []*domain.PriceSnapshot, err error) {
	began := time.Now()
	defer func() { observe("price_snapshot_range", began, err) }()

	inner := `
		SELECT pair, source, timestamp, price, volume_24h
		FROM price_snapshots
		WHERE pair = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
	`
	args := []any{pair, start.UTC(), end.UTC()}
	if limit > 0 {
		inner += ` LIMIT ?`
		args = append(args, limit)
	}
	query := `SELECT * FROM (` + inner + `) ORDER BY timestamp ASC`

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPriceSnapshots(rows)
}

// scanPriceSnapshots scans multiple rows.
func scanPriceSnapshots(rows driver.Rows) ([]*domain.PriceSnapshot, error) {
	var snaps []*domain.PriceSnapshot

	for rows.Next() {
		var snap domain.PriceSnapshot
		if err := rows.Scan(&snap.Pair, &snap.Source, &snap.Timestamp, &snap.Price, &snap.Volume24h); err != nil {
			return nil, fmt.Errorf("scan price snapshot: %w", err)
		}
		snaps = append(snaps, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price snapshots: %w", err)
	}
	return snaps, nil
}
