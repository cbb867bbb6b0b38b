package label

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const storeSchemaSQL = `
CREATE TABLE IF NOT EXISTS labels (
	id       TEXT PRIMARY KEY,
	labels   TEXT NOT NULL,
	added_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_labels_added ON labels(added_at);
`

// Store is the persistent label cache: identifier -> per-language labels,
// with a freshness window and a row-count cap enforced by Sweep.
type Store struct {
	db      *sql.DB
	ttl     time.Duration
	maxRows int
}

// OpenStore opens (or creates) the SQLite label store and applies the schema.
func OpenStore(path string, ttl time.Duration, maxRows int) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("label store: open: %w", err)
	}
	if _, err := db.Exec(storeSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("label store: apply schema: %w", err)
	}
	return &Store{db: db, ttl: ttl, maxRows: maxRows}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Get returns labels for the given identifiers that are still inside the
// freshness window. Stale or unknown identifiers are absent from the result.
func (s *Store) Get(ctx context.Context, ids []string) (map[string]Labels, error) {
	out := make(map[string]Labels, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, time.Now().UTC().Add(-s.ttl))

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, labels FROM labels WHERE id IN (`+placeholders+`) AND added_at >= ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("label store: select: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("label store: scan: %w", err)
		}
		var labels Labels
		if err := json.Unmarshal([]byte(raw), &labels); err != nil {
			continue // damaged row; the resolver refetches
		}
		out[id] = labels
	}
	return out, rows.Err()
}

// SetBulk upserts a batch of label records, refreshing their timestamps.
func (s *Store) SetBulk(ctx context.Context, entries map[string]Labels) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("label store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO labels (id, labels, added_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET labels = excluded.labels, added_at = excluded.added_at
	`)
	if err != nil {
		return fmt.Errorf("label store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for id, labels := range entries {
		raw, err := json.Marshal(labels)
		if err != nil {
			return fmt.Errorf("label store: marshal labels for %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(raw), now); err != nil {
			return fmt.Errorf("label store: upsert %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Sweep removes rows outside the freshness window and, when the table still
// exceeds the row cap, evicts the oldest rows down to the cap. It returns
// the number of rows removed.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM labels WHERE added_at < ?`, time.Now().UTC().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("label store: delete expired: %w", err)
	}
	removed, _ := res.RowsAffected()

	if s.maxRows > 0 {
		res, err = s.db.ExecContext(ctx, `
			DELETE FROM labels WHERE id IN (
				SELECT id FROM labels ORDER BY added_at ASC
				LIMIT max(0, (SELECT count(*) FROM labels) - ?)
			)`, s.maxRows)
		if err != nil {
			return removed, fmt.Errorf("label store: enforce row cap: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, nil
}

// CachedResolver resolves labels from the store first and falls through to
// the upstream fetcher for misses, writing fresh rows back.
type CachedResolver struct {
	store *Store
	fetch FetchFunc
}

// NewCachedResolver builds a resolver over a store and an upstream fetcher.
// Either part may be nil; the other still serves.
func NewCachedResolver(store *Store, fetch FetchFunc) *CachedResolver {
	return &CachedResolver{store: store, fetch: fetch}
}

var _ Resolver = (*CachedResolver)(nil)

// ResolveBatch implements Resolver.
func (r *CachedResolver) ResolveBatch(ctx context.Context, ids []string) (map[string]Labels, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	out := make(map[string]Labels, len(uniq))
	if r.store != nil {
		cached, err := r.store.Get(ctx, uniq)
		if err != nil {
			return nil, err
		}
		for id, labels := range cached {
			out[id] = labels
		}
	}

	var missing []string
	for _, id := range uniq {
		if _, ok := out[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 || r.fetch == nil {
		return out, nil
	}

	fetched, err := r.fetch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, labels := range fetched {
		out[id] = labels
	}
	if r.store != nil && len(fetched) > 0 {
		if err := r.store.SetBulk(ctx, fetched); err != nil {
			return nil, err
		}
	}
	return out, nil
}
