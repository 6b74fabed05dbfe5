package usecase

import "context"

// TokenRefreshResult is the provider's answer to a refresh_token grant.
type TokenRefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // seconds
}

// UserInfo is the provider's view of the principal behind an access token.
type UserInfo struct {
	UserID   string         `json:"user_id"`
	Email    string         `json:"email"`
	Username string         `json:"username,omitempty"`
	Name     string         `json:"name,omitempty"`
	Claims   map[string]any `json:"claims,omitempty"`
}

// IdentityProvider is the contract for the external OIDC-compatible
// provider.
//
// Expected negative outcomes are values, not errors: RefreshAccessToken and
// GetUserInfo return (nil, nil) when the provider definitively rejects the
// token, and ValidateAccessToken returns (false, nil). Returned errors are
// reserved for transport failures (unreachable provider, malformed
// response); bounded calls that time out surface domain.ErrProviderTimeout
// so callers can tell "rejected" from "undetermined".
type IdentityProvider interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenRefreshResult, error)
	ValidateAccessToken(ctx context.Context, accessToken string) (bool, error)
	GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}
