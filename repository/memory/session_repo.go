package memory

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/repository"
)

type sessionRepository struct {
	cache *ttlcache.Cache[string, domain.Session]
}

// NewSessionRepository creates an in-memory session repository backed by a
// TTL cache. It serves tests and single-process deployments; reads must not
// slide the expiry, only Save and Extend do.
func NewSessionRepository() repository.SessionRepository {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, domain.Session](),
	)
	go cache.Start()

	return &sessionRepository{cache: cache}
}

func (r *sessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	item := r.cache.Get(id)
	if item == nil {
		return nil, domain.ErrSessionNotFound
	}
	session := item.Value()
	return &session, nil
}

func (r *sessionRepository) Save(_ context.Context, id string, session *domain.Session, ttlSeconds int) error {
	if id == "" || session == nil {
		return domain.ErrInvalidPayload
	}

	stored := *session
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	r.cache.Set(id, stored, ttl)
	return nil
}

func (r *sessionRepository) Delete(_ context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

func (r *sessionRepository) TTL(_ context.Context, id string) (domain.TTL, error) {
	item := r.cache.Get(id)
	if item == nil {
		return domain.TTL{State: domain.TTLMissing}, nil
	}
	if item.TTL() == ttlcache.NoTTL {
		return domain.TTL{State: domain.TTLNoExpiry}, nil
	}
	remaining := time.Until(item.ExpiresAt())
	if remaining < 0 {
		return domain.TTL{State: domain.TTLMissing}, nil
	}
	return domain.RemainingTTL(int(remaining / time.Second)), nil
}

func (r *sessionRepository) Extend(_ context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		return domain.ErrInvalidPayload
	}
	item := r.cache.Get(id)
	if item == nil {
		return nil
	}
	r.cache.Set(id, item.Value(), duration)
	return nil
}
