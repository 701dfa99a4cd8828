// Package sqlite provides a SQLite-backed slot store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cespare/xxhash/v2"
	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/samdwyer/trailquest/internal/store"
	"github.com/samdwyer/trailquest/internal/store/sqlite/migrations"
)

// maxWriteTries bounds retries of a busy write.
const maxWriteTries = 5

// Store persists slots in a single SQLite table.
type Store struct {
	db *sqlx.DB
}

type slotRow struct {
	Payload  []byte `db:"payload"`
	Checksum string `db:"checksum"`
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the payload for slot, verifying its checksum.
func (s *Store) Get(ctx context.Context, slot store.Slot) ([]byte, error) {
	var row slotRow
	err := s.db.GetContext(ctx, &row, "SELECT payload, checksum FROM slots WHERE name = ?", string(slot))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get slot %s: %w", slot, err)
	}
	if checksum(row.Payload) != row.Checksum {
		return nil, fmt.Errorf("slot %s: %w", slot, store.ErrCorrupt)
	}
	return row.Payload, nil
}

// Put upserts the payload for slot. Busy database errors are retried with
// exponential backoff; anything else fails immediately.
func (s *Store) Put(ctx context.Context, slot store.Slot, data []byte) error {
	sum := checksum(data)
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO slots (name, payload, checksum, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET
			   payload = excluded.payload,
			   checksum = excluded.checksum,
			   updated_at = excluded.updated_at`,
			string(slot), data, sum, time.Now().UTC().UnixMilli(),
		)
		if err != nil && !isBusy(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxWriteTries),
	)
	if err != nil {
		return fmt.Errorf("put slot %s: %w", slot, err)
	}
	return nil
}

func checksum(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

var _ store.Store = (*Store)(nil)
