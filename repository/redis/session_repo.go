package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/repository"
)

type sessionRepository struct {
	client *redislib.Client
	prefix string
}

// NewSessionRepository creates a Redis-backed session repository. Records
// live under "session:<id>" and rely on Redis' native key expiry.
func NewSessionRepository(client *redislib.Client) repository.SessionRepository {
	return &sessionRepository{
		client: client,
		prefix: "session:",
	}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	result, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "corrupt session record", err)
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, id string, session *domain.Session, ttlSeconds int) error {
	if id == "" || session == nil {
		return domain.ErrInvalidPayload
	}

	stored := *session
	if stored.CreatedAt.IsZero() {
		// First write wins; later saves carry the original value through.
		stored.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(&stored)
	if err != nil {
		return err
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	return r.client.Set(ctx, r.key(id), payload, ttl).Err()
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *sessionRepository) TTL(ctx context.Context, id string) (domain.TTL, error) {
	remaining, err := r.client.TTL(ctx, r.key(id)).Result()
	if err != nil {
		return domain.TTL{}, err
	}
	// go-redis passes the TTL sentinels through unscaled: the reply -2
	// (absent) or -1 (no expiry) becomes time.Duration(-2) / time.Duration(-1).
	switch {
	case remaining == -2:
		return domain.TTL{State: domain.TTLMissing}, nil
	case remaining == -1:
		return domain.TTL{State: domain.TTLNoExpiry}, nil
	default:
		return domain.RemainingTTL(int(remaining / time.Second)), nil
	}
}

func (r *sessionRepository) Extend(ctx context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		return domain.ErrInvalidPayload
	}
	// EXPIRE on a missing key is already a no-op.
	return r.client.Expire(ctx, r.key(id), duration).Err()
}

func (r *sessionRepository) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}
