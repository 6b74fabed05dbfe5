package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fastygo/gateway/domain"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testPolicy(t *testing.T, cfg domain.SessionConfig) *domain.SessionPolicy {
	t.Helper()
	return domain.NewSessionPolicy(cfg, fixedClock)
}

func sessionExpiringIn(d time.Duration) *domain.Session {
	return &domain.Session{
		UserID:       "user-1",
		UserType:     domain.UserTypeDomain,
		Email:        "user-1@example.com",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    testNow.Add(d),
		LastActivity: testNow.Add(-time.Minute),
		CreatedAt:    testNow.Add(-time.Hour),
	}
}

func TestIsValid(t *testing.T) {
	p := testPolicy(t, domain.DefaultSessionConfig())

	tests := []struct {
		name    string
		session *domain.Session
		want    bool
	}{
		{"nil session", nil, false},
		{"expires in the future", sessionExpiringIn(2 * time.Hour), true},
		{"expired an hour ago", sessionExpiringIn(-time.Hour), false},
		{"expires exactly now", sessionExpiringIn(0), false},
		{"expires in one millisecond", sessionExpiringIn(time.Millisecond), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.IsValid(tt.session))
		})
	}
}

func TestShouldRefresh(t *testing.T) {
	p := testPolicy(t, domain.DefaultSessionConfig())

	tests := []struct {
		name    string
		session *domain.Session
		want    bool
	}{
		{"well before threshold", sessionExpiringIn(2 * time.Hour), false},
		{"inside threshold", sessionExpiringIn(time.Minute), true},
		{"exactly at threshold", sessionExpiringIn(5 * time.Minute), false},
		{"just under threshold", sessionExpiringIn(5*time.Minute - time.Second), true},
		{"already expired", sessionExpiringIn(-time.Minute), false},
		{"expires exactly now", sessionExpiringIn(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.ShouldRefresh(tt.session))
		})
	}
}

func TestShouldRefreshDisabled(t *testing.T) {
	cfg := domain.DefaultSessionConfig()
	cfg.EnableAutoRefresh = false
	p := testPolicy(t, cfg)

	// Never refresh when the switch is off, however close to expiry.
	require.False(t, p.ShouldRefresh(sessionExpiringIn(time.Second)))
	require.False(t, p.ShouldRefresh(sessionExpiringIn(time.Minute)))
}

func TestShouldExtend(t *testing.T) {
	p := testPolicy(t, domain.DefaultSessionConfig())

	recent := sessionExpiringIn(time.Hour)
	recent.LastActivity = testNow.Add(-time.Minute)
	require.True(t, p.ShouldExtend(recent))

	stale := sessionExpiringIn(time.Hour)
	stale.LastActivity = testNow.Add(-10 * time.Minute)
	require.False(t, p.ShouldExtend(stale))

	boundary := sessionExpiringIn(time.Hour)
	boundary.LastActivity = testNow.Add(-5 * time.Minute)
	require.False(t, p.ShouldExtend(boundary))
}

func TestShouldExtendFallbackChain(t *testing.T) {
	p := testPolicy(t, domain.DefaultSessionConfig())

	// No LastActivity: fall back to CreatedAt.
	viaCreated := sessionExpiringIn(time.Hour)
	viaCreated.LastActivity = time.Time{}
	viaCreated.CreatedAt = testNow.Add(-time.Minute)
	require.True(t, p.ShouldExtend(viaCreated))

	// Neither timestamp: a just-created, never-touched session counts as
	// recent.
	bare := sessionExpiringIn(time.Hour)
	bare.LastActivity = time.Time{}
	bare.CreatedAt = time.Time{}
	require.True(t, p.ShouldExtend(bare))
}

func TestShouldExtendDisabled(t *testing.T) {
	cfg := domain.DefaultSessionConfig()
	cfg.SlidingWindowEnabled = false
	p := testPolicy(t, cfg)

	s := sessionExpiringIn(time.Hour)
	s.LastActivity = testNow
	require.False(t, p.ShouldExtend(s))
}

func TestTTLFor(t *testing.T) {
	cfg := domain.DefaultSessionConfig()
	p := testPolicy(t, cfg)

	recent := sessionExpiringIn(time.Hour)
	recent.LastActivity = testNow.Add(-time.Minute)
	require.Equal(t, cfg.TTL, p.TTLFor(recent, domain.RemainingTTL(1800)), "recent activity resets to full TTL")

	stale := sessionExpiringIn(time.Hour)
	stale.LastActivity = testNow.Add(-10 * time.Minute)
	require.Equal(t, 1800, p.TTLFor(stale, domain.RemainingTTL(1800)), "stale activity keeps the current TTL")
	require.Equal(t, cfg.TTL, p.TTLFor(stale, domain.TTL{State: domain.TTLMissing}), "unknown current TTL falls back to config")
	require.Equal(t, cfg.TTL, p.TTLFor(stale, domain.TTL{State: domain.TTLNoExpiry}), "anomalous no-expiry falls back to config")
}

func TestTTLForSlidingWindowDisabled(t *testing.T) {
	cfg := domain.DefaultSessionConfig()
	cfg.SlidingWindowEnabled = false
	p := testPolicy(t, cfg)

	// Constant regardless of activity recency or known TTL.
	recent := sessionExpiringIn(time.Hour)
	recent.LastActivity = testNow
	require.Equal(t, cfg.TTL, p.TTLFor(recent, domain.RemainingTTL(42)))

	stale := sessionExpiringIn(time.Hour)
	stale.LastActivity = testNow.Add(-24 * time.Hour)
	require.Equal(t, cfg.TTL, p.TTLFor(stale, domain.RemainingTTL(42)))
}

func TestTimeUntilExpiry(t *testing.T) {
	p := testPolicy(t, domain.DefaultSessionConfig())

	require.Equal(t, 2*time.Hour, p.TimeUntilExpiry(sessionExpiringIn(2*time.Hour)))
	require.Equal(t, time.Duration(0), p.TimeUntilExpiry(sessionExpiringIn(-time.Hour)), "floored at zero")
}

func TestExpiringSoon(t *testing.T) {
	cfg := domain.DefaultSessionConfig()
	cfg.EnableAutoRefresh = false // the probe ignores the auto-refresh switch
	p := testPolicy(t, cfg)

	require.True(t, p.ExpiringSoon(sessionExpiringIn(time.Minute)))
	require.True(t, p.ExpiringSoon(sessionExpiringIn(-time.Minute)), "already expired still reads as expiring soon")
	require.False(t, p.ExpiringSoon(sessionExpiringIn(time.Hour)))
	require.False(t, p.ExpiringSoon(sessionExpiringIn(5*time.Minute)), "strict threshold")
}
