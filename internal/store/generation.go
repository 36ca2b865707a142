package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Generation is one cached model output.
type Generation struct {
	Key          string    `json:"key"`
	PromptSlug   string    `json:"prompt_slug"`
	Model        string    `json:"model"`
	ResponseJSON string    `json:"-"`
	HitCount     int64     `json:"hit_count"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// GetGeneration returns the entry for key if present and not expired at now.
// A hit increments the entry's hit counter.
func (s *Store) GetGeneration(ctx context.Context, key string, now time.Time) (*Generation, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT prompt_slug, model, response_json, hit_count, created_at, expires_at
		 FROM generation_cache WHERE key = ?`,
		key,
	)

	var (
		gen     = Generation{Key: key}
		created int64
		expires int64
	)
	if err := row.Scan(&gen.PromptSlug, &gen.Model, &gen.ResponseJSON, &gen.HitCount, &created, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	gen.CreatedAt = time.Unix(created, 0).UTC()
	gen.ExpiresAt = time.Unix(expires, 0).UTC()
	if !now.UTC().Before(gen.ExpiresAt) {
		return nil, nil
	}

	if _, err := s.DB.ExecContext(ctx,
		`UPDATE generation_cache SET hit_count = hit_count + 1 WHERE key = ?`, key,
	); err != nil {
		return nil, err
	}
	gen.HitCount++

	return &gen, nil
}

// PutGeneration stores gen with the given TTL, replacing any previous entry
// for the same key. A non-positive TTL stores nothing.
func (s *Store) PutGeneration(ctx context.Context, gen Generation, ttl time.Duration, now time.Time) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ttl <= 0 {
		return nil
	}

	now = now.UTC()
	expiresAt := now.Add(ttl)

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO generation_cache (key, prompt_slug, model, response_json, hit_count, created_at, expires_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT(key)
		 DO UPDATE SET prompt_slug = excluded.prompt_slug,
		               model = excluded.model,
		               response_json = excluded.response_json,
		               hit_count = 0,
		               created_at = excluded.created_at,
		               expires_at = excluded.expires_at`,
		gen.Key, gen.PromptSlug, gen.Model, gen.ResponseJSON, now.Unix(), expiresAt.Unix(),
	)
	return err
}

// PurgeExpiredGenerations deletes entries that expired at or before now.
func (s *Store) PurgeExpiredGenerations(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM generation_cache WHERE expires_at <= ?`, now.UTC().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearGenerations deletes every entry.
func (s *Store) ClearGenerations(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM generation_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListGenerations returns the most recently created entries, newest first.
// Response bodies are not loaded.
func (s *Store) ListGenerations(ctx context.Context, limit int) ([]Generation, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT key, prompt_slug, model, hit_count, created_at, expires_at
		 FROM generation_cache ORDER BY created_at DESC, key LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var out []Generation
	for rows.Next() {
		var (
			gen     Generation
			created int64
			expires int64
		)
		if err := rows.Scan(&gen.Key, &gen.PromptSlug, &gen.Model, &gen.HitCount, &created, &expires); err != nil {
			return nil, err
		}
		gen.CreatedAt = time.Unix(created, 0).UTC()
		gen.ExpiresAt = time.Unix(expires, 0).UTC()
		out = append(out, gen)
	}
	return out, rows.Err()
}
