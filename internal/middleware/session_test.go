package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/internal/middleware"
	"github.com/fastygo/gateway/repository/memory"
	"github.com/fastygo/gateway/usecase/identityfake"
	sessionUC "github.com/fastygo/gateway/usecase/session"
)

var lookup = middleware.SessionConfig{
	CookieName: "gateway_session",
	HeaderName: "X-Session-ID",
}

func newSessionAuth(t *testing.T, providerCfg identityfake.Config) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	t.Helper()

	repo := memory.NewSessionRepository()
	policy := domain.NewSessionPolicy(domain.DefaultSessionConfig(), nil)
	uc := sessionUC.New(repo, identityfake.New(providerCfg), policy, nil)

	session := &domain.Session{
		UserID:       "user-1",
		UserType:     domain.UserTypeDomain,
		Email:        "user-1@example.com",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(2 * time.Hour),
		LastActivity: time.Now(),
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Save(context.Background(), "sess-1", session, 3600))

	return middleware.SessionAuth(uc, lookup, nil, nil)
}

func TestSessionAuthStampsIdentity(t *testing.T) {
	auth := newSessionAuth(t, identityfake.Config{})

	called := false
	handler := auth(func(ctx *fasthttp.RequestCtx) {
		called = true
		require.Equal(t, "user-1", string(ctx.Request.Header.Peek(middleware.HeaderUserID)))
		require.Equal(t, "domain", string(ctx.Request.Header.Peek(middleware.HeaderUserType)))
		require.Equal(t, "user-1@example.com", string(ctx.Request.Header.Peek(middleware.HeaderUserEmail)))
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetCookie("gateway_session", "sess-1")
	handler(&ctx)

	require.True(t, called)
}

func TestSessionAuthHeaderFallback(t *testing.T) {
	auth := newSessionAuth(t, identityfake.Config{})

	called := false
	handler := auth(func(ctx *fasthttp.RequestCtx) { called = true })

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("X-Session-ID", "sess-1")
	handler(&ctx)

	require.True(t, called)
}

func TestSessionAuthMissingSession(t *testing.T) {
	auth := newSessionAuth(t, identityfake.Config{})

	handler := auth(func(ctx *fasthttp.RequestCtx) {
		t.Fatal("handler must not run without a session")
	})

	var ctx fasthttp.RequestCtx
	handler(&ctx)
	require.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestSessionAuthUnknownSession(t *testing.T) {
	auth := newSessionAuth(t, identityfake.Config{})

	handler := auth(func(ctx *fasthttp.RequestCtx) {
		t.Fatal("handler must not run for an unknown session")
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetCookie("gateway_session", "who-dis")
	handler(&ctx)
	require.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestSessionAuthProviderOutage(t *testing.T) {
	repo := memory.NewSessionRepository()
	policy := domain.NewSessionPolicy(domain.DefaultSessionConfig(), nil)
	uc := sessionUC.New(repo, identityfake.New(identityfake.Config{FailTransport: true}), policy, nil)

	// Near-expiry session forces a provider call, which fails at transport
	// level: the caller sees 503, not 401.
	session := &domain.Session{
		UserID:       "user-1",
		UserType:     domain.UserTypeDomain,
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Minute),
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Save(context.Background(), "sess-1", session, 3600))

	auth := middleware.SessionAuth(uc, lookup, nil, nil)
	handler := auth(func(ctx *fasthttp.RequestCtx) {
		t.Fatal("handler must not run when the pass is undetermined")
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetCookie("gateway_session", "sess-1")
	handler(&ctx)
	require.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
}
