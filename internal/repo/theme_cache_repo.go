package repo

import (
	"context"
	"database/sql"

	"github.com/finboard/finboard/internal/model"
)

type ThemeCacheRepo struct {
	db *sql.DB
}

func NewThemeCacheRepo(db *sql.DB) *ThemeCacheRepo {
	return &ThemeCacheRepo{db: db}
}

// Get returns the raw cached payload for the (day, window, count) key.
// The second return value is false on a miss.
func (r *ThemeCacheRepo) Get(ctx context.Context, entry model.ThemeCacheEntry) (string, bool, error) {
	const query = `
		SELECT payload
		FROM dashboard_theme_cache
		WHERE cache_date = $1 AND window_hours = $2 AND theme_count = $3
	`
	row := r.db.QueryRowContext(ctx, query, entry.CacheDate, entry.WindowHours, entry.ThemeCount)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return payload, true, nil
}

// Upsert overwrites any existing entry for the same key. Concurrent writers
// race last-write-wins on the row; recomputation is idempotent enough that
// this is acceptable.
func (r *ThemeCacheRepo) Upsert(ctx context.Context, entry model.ThemeCacheEntry) error {
	const query = `
		INSERT INTO dashboard_theme_cache (cache_date, window_hours, theme_count, payload, generated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cache_date, window_hours, theme_count) DO UPDATE SET
			payload = EXCLUDED.payload,
			generated_at = EXCLUDED.generated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.CacheDate,
		entry.WindowHours,
		entry.ThemeCount,
		entry.Payload,
		entry.GeneratedAt,
	)
	return err
}
