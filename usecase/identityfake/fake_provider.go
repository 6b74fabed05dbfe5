package identityfake

import (
	"context"
	"fmt"
	"sync"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/usecase"
)

// Config tunes the fake's behaviour per test.
type Config struct {
	// RejectAll makes every refresh and validation a definitive rejection.
	RejectAll bool
	// RejectAfter makes refresh calls beyond the Nth return a rejection.
	// Zero means never reject.
	RejectAfter int
	// OmitRotatedRefresh leaves the rotated refresh token out of otherwise
	// successful refresh responses.
	OmitRotatedRefresh bool
	// FailTransport makes every call fail as if the provider were down.
	FailTransport bool
	// Timeout makes every call fail with the provider timeout condition.
	Timeout bool
	// TokenTTL is the ExpiresIn reported on successful refreshes.
	TokenTTL int
}

// Provider is an in-memory usecase.IdentityProvider for tests and local
// development. Issued tokens are numbered so assertions can tell refreshes
// apart.
type Provider struct {
	mu    sync.Mutex
	cfg   Config
	calls int
}

// New builds a fake provider. The zero config always succeeds with a one
// hour token lifetime.
func New(cfg Config) *Provider {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 3600
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) RefreshAccessToken(_ context.Context, refreshToken string) (*usecase.TokenRefreshResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if err := p.transportErr(); err != nil {
		return nil, err
	}
	if refreshToken == "" || p.cfg.RejectAll {
		return nil, nil
	}
	if p.cfg.RejectAfter > 0 && p.calls > p.cfg.RejectAfter {
		return nil, nil
	}

	result := &usecase.TokenRefreshResult{
		AccessToken:  fmt.Sprintf("fake-access-token-%d", p.calls),
		RefreshToken: fmt.Sprintf("fake-refresh-token-%d", p.calls),
		ExpiresIn:    p.cfg.TokenTTL,
	}
	if p.cfg.OmitRotatedRefresh {
		result.RefreshToken = ""
	}
	return result, nil
}

func (p *Provider) ValidateAccessToken(_ context.Context, accessToken string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.transportErr(); err != nil {
		return false, err
	}
	if accessToken == "" || accessToken == "invalid-token" || p.cfg.RejectAll {
		return false, nil
	}
	if p.cfg.RejectAfter > 0 && p.calls > p.cfg.RejectAfter {
		return false, nil
	}
	return true, nil
}

func (p *Provider) GetUserInfo(ctx context.Context, accessToken string) (*usecase.UserInfo, error) {
	valid, err := p.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, nil
	}
	return &usecase.UserInfo{
		UserID:   "fake-user-123",
		Email:    "fake-user@example.com",
		Username: "fake-user",
		Name:     "Fake User",
	}, nil
}

// Calls reports how many refresh calls have been made.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Reset clears the call counter.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = 0
}

func (p *Provider) transportErr() error {
	if p.cfg.Timeout {
		return domain.ErrProviderTimeout
	}
	if p.cfg.FailTransport {
		return domain.ErrProviderUnavailable
	}
	return nil
}
