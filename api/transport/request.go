package transport

import (
	"time"

	"github.com/fastygo/gateway/domain"
)

// RefreshRequest asks for an explicit session lifecycle pass. The session id
// may instead come from the session cookie or header.
type RefreshRequest struct {
	SessionID string `json:"session_id"`
}

// SessionView is the externally visible session snapshot. Token values are
// never echoed back; only their expiry is.
type SessionView struct {
	UserID       string    `json:"user_id"`
	UserType     string    `json:"user_type"`
	Email        string    `json:"email,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	WasRefreshed bool      `json:"was_refreshed"`
}

// NewSessionView redacts a session for the wire.
func NewSessionView(s *domain.Session, wasRefreshed bool) SessionView {
	return SessionView{
		UserID:       s.UserID,
		UserType:     string(s.UserType),
		Email:        s.Email,
		ExpiresAt:    s.ExpiresAt,
		LastActivity: s.LastActivity,
		CreatedAt:    s.CreatedAt,
		WasRefreshed: wasRefreshed,
	}
}
