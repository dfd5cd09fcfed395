// Package aggregator persists session analytics snapshots to PostgreSQL.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS analytics_snapshots (
    id          BIGSERIAL PRIMARY KEY,
    session_id  TEXT NOT NULL,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS analytics_top_queries (
    snapshot_id BIGINT NOT NULL REFERENCES analytics_snapshots(id) ON DELETE CASCADE,
    query       TEXT NOT NULL,
    count       BIGINT NOT NULL,
    zero_result BOOLEAN NOT NULL DEFAULT FALSE
);`

// Snapshot is a stored aggregate.
type Snapshot struct {
	ID         int64                     `json:"id"`
	SessionID  string                    `json:"session_id"`
	Stats      analytics.AggregatedStats `json:"stats"`
	CapturedAt time.Time                 `json:"captured_at"`
}

// Store persists aggregated analytics snapshots in PostgreSQL.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "analytics-store"),
	}
}

// EnsureSchema creates the snapshot tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating analytics schema: %w", err)
	}
	return nil
}

// SaveSnapshot stores stats and their top queries in one transaction and
// returns the snapshot id.
func (s *Store) SaveSnapshot(ctx context.Context, sessionID string, stats analytics.AggregatedStats) (int64, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return 0, fmt.Errorf("marshaling stats: %w", err)
	}

	var id int64
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO analytics_snapshots (session_id, data, captured_at) VALUES ($1, $2, $3) RETURNING id`,
			sessionID, data, time.Now().UTC(),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("saving analytics snapshot: %w", err)
		}
		if err := insertQueries(ctx, tx, id, stats.TopQueries, false); err != nil {
			return err
		}
		return insertQueries(ctx, tx, id, stats.ZeroResultQueries, true)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("analytics snapshot saved",
		"snapshot_id", id,
		"session_id", sessionID,
		"total_searches", stats.TotalSearches,
	)
	return id, nil
}

func insertQueries(ctx context.Context, tx *sql.Tx, snapshotID int64, queries []analytics.QueryCount, zero bool) error {
	for _, q := range queries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO analytics_top_queries (snapshot_id, query, count, zero_result) VALUES ($1, $2, $3, $4)`,
			snapshotID, q.Query, q.Count, zero,
		)
		if err != nil {
			return fmt.Errorf("saving top query %q: %w", q.Query, err)
		}
	}
	return nil
}

// LatestSnapshot loads the most recent snapshot. It returns nil, nil when
// none exist yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	snaps, err := s.ListSnapshots(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// ListSnapshots returns the last limit snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, session_id, data, captured_at FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snap Snapshot
		var data []byte
		if err := rows.Scan(&snap.ID, &snap.SessionID, &data, &snap.CapturedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		if err := json.Unmarshal(data, &snap.Stats); err != nil {
			s.logger.Warn("skipping corrupt snapshot", "snapshot_id", snap.ID, "error", err)
			continue
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return snapshots, nil
}
