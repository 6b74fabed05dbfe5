package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fastygo/gateway/domain"
)

func TestNewSession(t *testing.T) {
	tokens := domain.TokenPair{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    1800,
	}

	s := domain.NewSession("user-1", "user-1@example.com", domain.UserTypeDomain, tokens, testNow)

	require.Equal(t, "user-1", s.UserID)
	require.Equal(t, domain.UserTypeDomain, s.UserType)
	require.Equal(t, "access-1", s.AccessToken)
	require.Equal(t, "refresh-1", s.RefreshToken)
	require.Equal(t, testNow.Add(30*time.Minute), s.ExpiresAt, "expiry derives from ExpiresIn")
	require.Equal(t, testNow, s.CreatedAt)
	require.Equal(t, testNow, s.LastActivity)
}

func TestWithTokens(t *testing.T) {
	original := domain.NewSession("user-1", "user-1@example.com", domain.UserTypeDomain, domain.TokenPair{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    600,
	}, testNow.Add(-time.Hour))

	later := testNow
	rotated := original.WithTokens(domain.TokenPair{
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		ExpiresIn:    900,
	}, later)

	require.Equal(t, "access-2", rotated.AccessToken)
	require.Equal(t, "refresh-2", rotated.RefreshToken)
	require.Equal(t, later.Add(15*time.Minute), rotated.ExpiresAt)
	require.Equal(t, later, rotated.LastActivity)
	require.Equal(t, original.CreatedAt, rotated.CreatedAt, "creation time never changes")

	// The receiver is left untouched.
	require.Equal(t, "access-1", original.AccessToken)
	require.Equal(t, "refresh-1", original.RefreshToken)
}

func TestTouched(t *testing.T) {
	s := domain.NewSession("user-1", "", domain.UserTypeService, domain.TokenPair{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresIn:    600,
	}, testNow.Add(-time.Hour))

	touched := s.Touched(testNow)
	require.Equal(t, testNow, touched.LastActivity)
	require.Equal(t, s.ExpiresAt, touched.ExpiresAt)
	require.Equal(t, s.CreatedAt, touched.CreatedAt)
	require.Equal(t, testNow.Add(-time.Hour), s.LastActivity, "receiver untouched")
}

func TestLastSeen(t *testing.T) {
	reference := testNow

	s := &domain.Session{
		LastActivity: testNow.Add(-time.Minute),
		CreatedAt:    testNow.Add(-time.Hour),
	}
	require.Equal(t, testNow.Add(-time.Minute), s.LastSeen(reference))

	s.LastActivity = time.Time{}
	require.Equal(t, testNow.Add(-time.Hour), s.LastSeen(reference))

	s.CreatedAt = time.Time{}
	require.Equal(t, reference, s.LastSeen(reference))
}

func TestIsExpired(t *testing.T) {
	var nilSession *domain.Session
	require.True(t, nilSession.IsExpired(testNow))

	s := &domain.Session{ExpiresAt: testNow}
	require.True(t, s.IsExpired(testNow), "boundary instant counts as expired")

	s.ExpiresAt = testNow.Add(time.Second)
	require.False(t, s.IsExpired(testNow))
}
