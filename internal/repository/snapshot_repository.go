package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SnapshotRepository is the SQL-backed key-value mirror for per-user collections.
type SnapshotRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

func (r *SnapshotRepository) Get(ctx context.Context, owner, key string) ([]byte, bool, error) {
	var payload string
	err := r.db.GetContext(
		ctx,
		&payload,
		r.db.Rebind(`SELECT payload FROM collection_snapshots WHERE owner = ? AND name = ?`),
		owner,
		key,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get snapshot %s: %w", key, err)
	}
	return []byte(payload), true, nil
}

func (r *SnapshotRepository) Put(ctx context.Context, owner, key string, value []byte) error {
	_, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO collection_snapshots (owner, name, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (owner, name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`),
		owner,
		key,
		string(value),
		formatTime(r.now()),
	)
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", key, err)
	}
	return nil
}
