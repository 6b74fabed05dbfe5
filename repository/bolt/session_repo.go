package bolt

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	boltdb "go.etcd.io/bbolt"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/repository"
)

const bucketName = "sessions"

// envelope wraps the stored session with its record-level expiry, since
// BoltDB has no native key TTL. A zero RecordExpiresAt means no expiry set.
type envelope struct {
	Session         domain.Session `json:"session"`
	RecordExpiresAt time.Time      `json:"record_expires_at"`
}

type sessionRepository struct {
	db *boltdb.DB
}

// Open initializes the BoltDB file and ensures the sessions bucket exists.
// Expiry is enforced on read: lapsed records surface as not found and are
// deleted lazily.
func Open(path string) (repository.SessionRepository, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	db, err := boltdb.Open(path, 0o600, &boltdb.Options{Timeout: time.Second})
	if err != nil {
		return nil, nil, err
	}

	if err := db.Update(func(tx *boltdb.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, nil, err
	}

	return &sessionRepository{db: db}, db.Close, nil
}

func (r *sessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	var env envelope
	found := false

	err := r.db.View(func(tx *boltdb.Tx) error {
		raw := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "corrupt session record", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !found || lapsed(env) {
		if found {
			_ = r.Delete(context.Background(), id)
		}
		return nil, domain.ErrSessionNotFound
	}
	session := env.Session
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
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}

	env := envelope{
		Session:         stored,
		RecordExpiresAt: time.Now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *boltdb.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(id), payload)
	})
}

func (r *sessionRepository) Delete(_ context.Context, id string) error {
	return r.db.Update(func(tx *boltdb.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(id))
	})
}

func (r *sessionRepository) TTL(_ context.Context, id string) (domain.TTL, error) {
	result := domain.TTL{State: domain.TTLMissing}

	err := r.db.View(func(tx *boltdb.Tx) error {
		raw := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if raw == nil {
			return nil
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "corrupt session record", err)
		}
		switch {
		case env.RecordExpiresAt.IsZero():
			result = domain.TTL{State: domain.TTLNoExpiry}
		case lapsed(env):
			result = domain.TTL{State: domain.TTLMissing}
		default:
			result = domain.RemainingTTL(int(time.Until(env.RecordExpiresAt) / time.Second))
		}
		return nil
	})
	if err != nil {
		return domain.TTL{}, err
	}
	return result, nil
}

func (r *sessionRepository) Extend(_ context.Context, id string, ttlSeconds int) error {
	if ttlSeconds <= 0 {
		return domain.ErrInvalidPayload
	}

	return r.db.Update(func(tx *boltdb.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		raw := bucket.Get([]byte(id))
		if raw == nil {
			return nil
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "corrupt session record", err)
		}
		env.RecordExpiresAt = time.Now().Add(time.Duration(ttlSeconds) * time.Second)
		payload, err := json.Marshal(env)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id), payload)
	})
}

func lapsed(env envelope) bool {
	return !env.RecordExpiresAt.IsZero() && !env.RecordExpiresAt.After(time.Now())
}
