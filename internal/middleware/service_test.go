package middleware_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/gateway/internal/middleware"
)

const serviceSecret = "test-signing-secret"

func signServiceToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestServiceAuthAcceptsSignedToken(t *testing.T) {
	auth := middleware.ServiceAuth(serviceSecret, nil)

	called := false
	handler := auth(func(ctx *fasthttp.RequestCtx) {
		called = true
		require.Equal(t, "billing-worker", string(ctx.Request.Header.Peek(middleware.HeaderUserID)))
		require.Equal(t, "service", string(ctx.Request.Header.Peek(middleware.HeaderUserType)))
	})

	token := signServiceToken(t, serviceSecret, jwt.MapClaims{
		"sub": "billing-worker",
		"exp": time.Now().Add(time.Minute).Unix(),
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("Authorization", "Bearer "+token)
	handler(&ctx)

	require.True(t, called)
}

func TestServiceAuthRejectsWrongSecret(t *testing.T) {
	auth := middleware.ServiceAuth(serviceSecret, nil)
	handler := auth(func(ctx *fasthttp.RequestCtx) {
		t.Fatal("handler must not run for a forged token")
	})

	token := signServiceToken(t, "some-other-secret", jwt.MapClaims{"sub": "intruder"})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("Authorization", "Bearer "+token)
	handler(&ctx)
	require.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestServiceAuthRejectsExpiredToken(t *testing.T) {
	auth := middleware.ServiceAuth(serviceSecret, nil)
	handler := auth(func(ctx *fasthttp.RequestCtx) {
		t.Fatal("handler must not run for an expired token")
	})

	token := signServiceToken(t, serviceSecret, jwt.MapClaims{
		"sub": "billing-worker",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("Authorization", "Bearer "+token)
	handler(&ctx)
	require.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestServiceAuthMissingToken(t *testing.T) {
	auth := middleware.ServiceAuth(serviceSecret, nil)
	handler := auth(func(ctx *fasthttp.RequestCtx) {
		t.Fatal("handler must not run without a token")
	})

	var ctx fasthttp.RequestCtx
	handler(&ctx)
	require.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestServiceAuthRejectsNonBearerScheme(t *testing.T) {
	// Only the Bearer scheme is accepted; a bare token or another auth
	// scheme must not reach the JWT parser.
	auth := middleware.ServiceAuth(serviceSecret, nil)

	token := signServiceToken(t, serviceSecret, jwt.MapClaims{"sub": "cron"})

	for _, header := range []string{token, "Basic dXNlcjpwYXNz"} {
		handler := auth(func(ctx *fasthttp.RequestCtx) {
			t.Fatalf("handler must not run for header %q", header)
		})

		var ctx fasthttp.RequestCtx
		ctx.Request.Header.Set("Authorization", header)
		handler(&ctx)
		require.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	}
}
