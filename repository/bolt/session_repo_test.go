package bolt_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/repository"
	"github.com/fastygo/gateway/repository/bolt"
)

func openRepo(t *testing.T) repository.SessionRepository {
	t.Helper()
	repo, closeFn, err := bolt.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })
	return repo
}

func testSession() *domain.Session {
	now := time.Now()
	return &domain.Session{
		UserID:       "user-1",
		UserType:     domain.UserTypeDomain,
		Email:        "user-1@example.com",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    now.Add(time.Hour),
		LastActivity: now,
		CreatedAt:    now.Add(-time.Hour),
	}
}

func TestRoundTrip(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	session := testSession()

	require.NoError(t, repo.Save(ctx, "sess-1", session, 60))

	loaded, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, session.UserID, loaded.UserID)
	require.Equal(t, session.AccessToken, loaded.AccessToken)
	require.True(t, session.ExpiresAt.Equal(loaded.ExpiresAt))
	require.True(t, session.CreatedAt.Equal(loaded.CreatedAt))
}

func TestMissingKey(t *testing.T) {
	repo := openRepo(t)

	_, err := repo.Get(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLapsedRecordReadsAsMissing(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "sess-1", testSession(), 1))
	time.Sleep(1100 * time.Millisecond)

	_, err := repo.Get(ctx, "sess-1")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	ttl, err := repo.TTL(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, domain.TTLMissing, ttl.State)
}

func TestTTLAndExtend(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "sess-1", testSession(), 120))

	ttl, err := repo.TTL(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, domain.TTLRemaining, ttl.State)
	require.InDelta(t, 120, ttl.Seconds, 2)

	require.NoError(t, repo.Extend(ctx, "sess-1", 600))
	ttl, err = repo.TTL(ctx, "sess-1")
	require.NoError(t, err)
	require.InDelta(t, 600, ttl.Seconds, 2)

	loaded, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, "access-1", loaded.AccessToken, "extension leaves the value untouched")
}

func TestDeleteAndExtendAbsent(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Delete(ctx, "nope"))
	require.NoError(t, repo.Extend(ctx, "nope", 600))

	ttl, err := repo.TTL(ctx, "nope")
	require.NoError(t, err)
	require.Equal(t, domain.TTLMissing, ttl.State)
}
