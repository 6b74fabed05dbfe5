package domain

import "time"

// UserType distinguishes interactive user sessions from machine callers.
type UserType string

const (
	UserTypeDomain  UserType = "domain"
	UserTypeService UserType = "service"
)

// TokenPair carries tokens issued by the identity provider together with the
// access-token lifetime in seconds.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Session represents one authenticated principal's server-side session as
// stored in the session repository.
type Session struct {
	UserID       string    `json:"user_id"`
	UserType     UserType  `json:"user_type"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// NewSession builds a session from freshly issued tokens. ExpiresAt is always
// derived from the provider's ExpiresIn, never set directly.
func NewSession(userID, email string, userType UserType, tokens TokenPair, now time.Time) *Session {
	if now.IsZero() {
		now = time.Now()
	}
	return &Session{
		UserID:       userID,
		UserType:     userType,
		Email:        email,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(tokens.ExpiresIn) * time.Second),
		LastActivity: now,
		CreatedAt:    now,
	}
}

// WithTokens returns a copy carrying the rotated tokens, a recomputed expiry
// and a fresh activity timestamp. CreatedAt is preserved.
func (s *Session) WithTokens(tokens TokenPair, now time.Time) *Session {
	if now.IsZero() {
		now = time.Now()
	}
	next := *s
	next.AccessToken = tokens.AccessToken
	next.RefreshToken = tokens.RefreshToken
	next.ExpiresAt = now.Add(time.Duration(tokens.ExpiresIn) * time.Second)
	next.LastActivity = now
	return &next
}

// Touched returns a copy with LastActivity set to now.
func (s *Session) Touched(now time.Time) *Session {
	if now.IsZero() {
		now = time.Now()
	}
	next := *s
	next.LastActivity = now
	return &next
}

// LastSeen resolves the activity timestamp with the documented fallback
// chain: LastActivity, then CreatedAt, then the reference instant itself.
func (s *Session) LastSeen(reference time.Time) time.Time {
	switch {
	case !s.LastActivity.IsZero():
		return s.LastActivity
	case !s.CreatedAt.IsZero():
		return s.CreatedAt
	default:
		return reference
	}
}

// IsExpired reports whether the access token is no longer usable at the
// reference instant. The boundary instant counts as expired.
func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}
