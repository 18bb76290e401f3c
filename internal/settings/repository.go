package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobdiary/jobdiary/internal/platform/db"
)

// Repository persists raw JSON sections keyed by name.
type Repository interface {
	LoadSections(ctx context.Context) (map[string][]byte, error)
	SaveSections(ctx context.Context, sections map[string][]byte) error
}

// PGRepository stores sections in the settings table.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL settings repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// LoadSections reads every stored section.
func (r *PGRepository) LoadSections(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("settings: load: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

// SaveSections upserts all sections in one transaction.
func (r *PGRepository) SaveSections(ctx context.Context, sections map[string][]byte) error {
	now := time.Now().UTC()
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for key, value := range sections {
			_, err := tx.Exec(ctx, `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, key, value, now)
			if err != nil {
				return fmt.Errorf("settings: save %s: %w", key, err)
			}
		}
		return nil
	})
}

var _ Repository = (*PGRepository)(nil)
