package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the favorites table.
const Schema = `
CREATE TABLE IF NOT EXISTS favorite_locations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, lat, lon)
);
CREATE INDEX IF NOT EXISTS favorite_locations_user_idx ON favorite_locations (user_id, created_at);
`

const uniqueViolation = "23505"

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL favorites repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the table if it doesn't exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("creating favorites schema: %w", err)
	}
	return nil
}

// List returns a user's favorites, oldest first.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*Favorite, error) {
	query := `
		SELECT id, user_id, name, lat, lon, created_at
		FROM favorite_locations
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanFavorites(rows)
}

// Create stores a favorite. A per-user advisory lock serialises concurrent
// inserts so the limit holds.
func (r *PostgresRepository) Create(ctx context.Context, f *Favorite) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, f.UserID); err != nil {
		return err
	}

	// Duplicates are reported ahead of the limit, as the in-memory store does.
	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM favorite_locations
			WHERE user_id = $1 AND lat = $2 AND lon = $3
		)
	`, f.UserID, f.Lat, f.Lon).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrDuplicateFavorite
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT count(*) FROM favorite_locations WHERE user_id = $1`, f.UserID,
	).Scan(&count); err != nil {
		return err
	}
	if count >= MaxPerUser {
		return ErrFavoriteLimit
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO favorite_locations (id, user_id, name, lat, lon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, f.ID, f.UserID, f.Name, f.Lat, f.Lon, f.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateFavorite
		}
		return err
	}

	return tx.Commit(ctx)
}

// Delete removes a user's favorite.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM favorite_locations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// AllLocations returns every saved location.
func (r *PostgresRepository) AllLocations(ctx context.Context) ([]*Favorite, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, lat, lon, created_at
		FROM favorite_locations
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	return scanFavorites(rows)
}

func scanFavorites(rows pgx.Rows) ([]*Favorite, error) {
	defer rows.Close()

	var out []*Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Lat, &f.Lon, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
