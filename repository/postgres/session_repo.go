package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/repository"
)

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository instantiates a Postgres-backed session repository.
// Record expiry is carried in the record_expires_at column; lapsed rows are
// invisible to Get and physically removed by the sweeper.
func NewSessionRepository(pool *pgxpool.Pool) repository.SessionRepository {
	return &sessionRepository{pool: pool}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	const query = `
		SELECT user_id, user_type, email, access_token, refresh_token,
		       expires_at, last_activity, created_at
		FROM sessions
		WHERE id = $1
		  AND (record_expires_at IS NULL OR record_expires_at > NOW())
	`
	row := r.pool.QueryRow(ctx, query, id)

	var session domain.Session
	var lastActivity *time.Time

	if err := row.Scan(
		&session.UserID,
		&session.UserType,
		&session.Email,
		&session.AccessToken,
		&session.RefreshToken,
		&session.ExpiresAt,
		&lastActivity,
		&session.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	if lastActivity != nil {
		session.LastActivity = *lastActivity
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, id string, session *domain.Session, ttlSeconds int) error {
	if id == "" || session == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO sessions (id, user_id, user_type, email, access_token, refresh_token,
	                      expires_at, last_activity, created_at, record_expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()), NOW() + make_interval(secs => $10))
	ON CONFLICT (id) DO UPDATE
	SET user_id = EXCLUDED.user_id,
		user_type = EXCLUDED.user_type,
		email = EXCLUDED.email,
		access_token = EXCLUDED.access_token,
		refresh_token = EXCLUDED.refresh_token,
		expires_at = EXCLUDED.expires_at,
		last_activity = EXCLUDED.last_activity,
		record_expires_at = EXCLUDED.record_expires_at
	RETURNING created_at;
	`

	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}

	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		session.UserID,
		session.UserType,
		session.Email,
		session.AccessToken,
		session.RefreshToken,
		session.ExpiresAt,
		nullTime(session.LastActivity),
		nullTime(session.CreatedAt),
		ttlSeconds,
	).Scan(&createdAt); err != nil {
		return err
	}

	// created_at is deliberately absent from the UPDATE set: the column
	// keeps its first-write value, which we reflect back to the caller.
	session.CreatedAt = createdAt
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (r *sessionRepository) TTL(ctx context.Context, id string) (domain.TTL, error) {
	const query = `SELECT record_expires_at FROM sessions WHERE id = $1`

	var recordExpiry *time.Time
	if err := r.pool.QueryRow(ctx, query, id).Scan(&recordExpiry); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TTL{State: domain.TTLMissing}, nil
		}
		return domain.TTL{}, err
	}

	if recordExpiry == nil {
		return domain.TTL{State: domain.TTLNoExpiry}, nil
	}
	remaining := time.Until(*recordExpiry)
	if remaining <= 0 {
		return domain.TTL{State: domain.TTLMissing}, nil
	}
	return domain.RemainingTTL(int(remaining / time.Second)), nil
}

func (r *sessionRepository) Extend(ctx context.Context, id string, ttlSeconds int) error {
	if ttlSeconds <= 0 {
		return domain.ErrInvalidPayload
	}
	const query = `
		UPDATE sessions
		SET record_expires_at = NOW() + make_interval(secs => $2)
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, ttlSeconds)
	return err
}

// Purger deletes lapsed session rows. It backs the expiry sweeper; stores
// with native key expiry have no equivalent because they self-evict.
type Purger struct {
	pool *pgxpool.Pool
}

// NewPurger builds a Purger over the same pool as the repository.
func NewPurger(pool *pgxpool.Pool) *Purger {
	return &Purger{pool: pool}
}

// PurgeExpired removes rows whose record expiry has lapsed and reports how
// many were deleted.
func (p *Purger) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE record_expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
