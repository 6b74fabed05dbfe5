package domain

import "time"

// SessionConfig holds the process-wide session policy. It is read-only after
// startup and safe for concurrent use.
type SessionConfig struct {
	TTL                    int  // record TTL in seconds
	SlidingWindowEnabled   bool // extend TTL on recent activity
	SlidingWindowThreshold int  // activity counts as recent within this many seconds
	RefreshThreshold       int  // refresh token when it expires within this many seconds
	EnableAutoRefresh      bool
}

// DefaultSessionConfig returns the stock policy: one hour sessions with a
// five minute sliding window and proactive refresh.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:                    3600,
		SlidingWindowEnabled:   true,
		SlidingWindowThreshold: 300,
		RefreshThreshold:       300,
		EnableAutoRefresh:      true,
	}
}

// SessionPolicy answers the per-request session lifecycle questions: is the
// session valid, should its token be refreshed, should its TTL slide. All
// methods are pure; time is read through the injected clock so tests can pin
// it.
type SessionPolicy struct {
	cfg SessionConfig
	now func() time.Time
}

// NewSessionPolicy builds a policy. A nil clock defaults to time.Now.
func NewSessionPolicy(cfg SessionConfig, now func() time.Time) *SessionPolicy {
	if now == nil {
		now = time.Now
	}
	return &SessionPolicy{cfg: cfg, now: now}
}

// Config returns the policy configuration.
func (p *SessionPolicy) Config() SessionConfig {
	return p.cfg
}

// Now reads the policy clock. Orchestrators use it so that entity
// transitions and policy decisions observe the same time source.
func (p *SessionPolicy) Now() time.Time {
	return p.now()
}

// IsValid reports whether the session exists and its token has not expired.
// A session is valid strictly while ExpiresAt is in the future.
func (p *SessionPolicy) IsValid(s *Session) bool {
	if s == nil {
		return false
	}
	return !s.IsExpired(p.now())
}

// ShouldRefresh reports whether the access token needs a proactive refresh:
// remaining lifetime positive but below the refresh threshold. An already
// expired session is never refreshed, it is rejected upstream as expired.
func (p *SessionPolicy) ShouldRefresh(s *Session) bool {
	if !p.cfg.EnableAutoRefresh {
		return false
	}
	remaining := s.ExpiresAt.Sub(p.now())
	threshold := time.Duration(p.cfg.RefreshThreshold) * time.Second
	return remaining > 0 && remaining < threshold
}

// ShouldExtend reports whether recent activity qualifies the session for a
// sliding-window TTL reset.
func (p *SessionPolicy) ShouldExtend(s *Session) bool {
	if !p.cfg.SlidingWindowEnabled {
		return false
	}
	now := p.now()
	idle := now.Sub(s.LastSeen(now))
	return idle < time.Duration(p.cfg.SlidingWindowThreshold)*time.Second
}

// TTLFor computes the next record TTL in seconds. With the sliding window
// off it is always the configured TTL. With recent activity the TTL resets
// to full; otherwise the current remaining TTL is kept when known.
func (p *SessionPolicy) TTLFor(s *Session, current TTL) int {
	if !p.cfg.SlidingWindowEnabled {
		return p.cfg.TTL
	}
	if p.ShouldExtend(s) {
		return p.cfg.TTL
	}
	if current.State == TTLRemaining {
		return current.Seconds
	}
	return p.cfg.TTL
}

// TimeUntilExpiry returns how long the access token remains usable, floored
// at zero.
func (p *SessionPolicy) TimeUntilExpiry(s *Session) time.Duration {
	remaining := s.ExpiresAt.Sub(p.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ExpiringSoon reports whether the token expires within the refresh
// threshold. Unlike ShouldRefresh this is an informational probe: it ignores
// the auto-refresh switch and also fires for already expired sessions.
func (p *SessionPolicy) ExpiringSoon(s *Session) bool {
	return p.TimeUntilExpiry(s) < time.Duration(p.cfg.RefreshThreshold)*time.Second
}
