package repository

import (
	"context"

	"github.com/fastygo/gateway/domain"
)

// SessionRepository is the storage contract for session records. Any keyed
// store with per-key expiry can implement it.
//
// Get returns domain.ErrSessionNotFound for an absent or lapsed record;
// other errors indicate storage failure. Save upserts the record with an
// expiry of ttlSeconds from now, overwriting any previous value and TTL but
// preserving its CreatedAt. Delete is idempotent. Extend resets the expiry
// without touching the stored value and is a no-op for an absent key.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, id string, session *domain.Session, ttlSeconds int) error
	Delete(ctx context.Context, id string) error
	TTL(ctx context.Context, id string) (domain.TTL, error)
	Extend(ctx context.Context, id string, ttlSeconds int) error
}
