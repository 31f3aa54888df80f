package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS portal_sessions (
	session_id TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	role       TEXT NOT NULL,
	expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the sessions table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Store) Save(ctx context.Context, id string, sess models.Session) error {
	slog.DebugContext(ctx, "Save session", "role", sess.Role)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO portal_sessions (session_id, token, role, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE
		SET token = EXCLUDED.token, role = EXCLUDED.role, expires_at = EXCLUDED.expires_at, updated_at = NOW()
	`, id, sess.Token, string(sess.Role), toTimestamptz(sess.ExpiresAt))
	if err != nil {
		slog.ErrorContext(ctx, "Save session failed", "err", err)
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (models.Session, error) {
	var (
		sess    models.Session
		role    string
		expires pgtype.Timestamptz
	)
	row := s.pool.QueryRow(ctx, `
		SELECT token, role, expires_at
		FROM portal_sessions
		WHERE session_id = $1
	`, id)
	if err := row.Scan(&sess.Token, &role, &expires); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, session.ErrNotFound
		}
		slog.ErrorContext(ctx, "Get session failed", "err", err)
		return models.Session{}, err
	}
	sess.Role = models.Role(role)
	if expires.Valid {
		sess.ExpiresAt = expires.Time
	}
	return sess, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM portal_sessions WHERE session_id = $1`, id)
	return err
}

// PurgeExpired removes sessions whose expiry has passed and returns their
// ids.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		DELETE FROM portal_sessions
		WHERE expires_at IS NOT NULL AND expires_at <= $1
		RETURNING session_id
	`, now)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		slog.ErrorContext(ctx, "PurgeExpired scan failed", "err", err)
		return nil, err
	}
	return ids, nil
}

func toTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
