package middleware

import (
	"context"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/pkg/httpcontext"
	appLogger "github.com/fastygo/gateway/pkg/logger"
	sessionUC "github.com/fastygo/gateway/usecase/session"
)

// Identity headers stamped for upstream handlers once a session resolves.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserType  = "X-User-Type"
	HeaderUserEmail = "X-User-Email"
)

// SessionConfig tells the middleware where to find the session id.
type SessionConfig struct {
	CookieName string
	HeaderName string
}

// SessionAuth authenticates requests against the session store. Every hit
// runs one lifecycle pass (validity check, proactive token refresh, sliding
// window extension) before the request proceeds; this is what keeps active
// sessions alive. Expired or unknown sessions get 401, an unreachable
// identity provider gets 503.
func SessionAuth(uc *sessionUC.UseCase, cfg SessionConfig, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			sessionID := ExtractSessionID(ctx, cfg)
			if sessionID == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			var stdCtx context.Context
			var cancel context.CancelFunc
			if adapter != nil {
				stdCtx, cancel = adapter.Attach(ctx)
			} else {
				stdCtx, cancel = context.WithCancel(context.Background())
			}
			defer cancel()

			pass, err := uc.Execute(stdCtx, sessionID)
			if err != nil {
				status := fasthttp.StatusUnauthorized
				if domain.IsDomainError(err, domain.ErrCodeUnavailable) {
					status = fasthttp.StatusServiceUnavailable
					logger.Warn("session pass undetermined",
						appLogger.SessionID(sessionID),
						zap.Error(err))
				}
				ctx.SetStatusCode(status)
				return
			}

			session := pass.Session
			ctx.Request.Header.Set(HeaderUserID, session.UserID)
			ctx.Request.Header.Set(HeaderUserType, string(session.UserType))
			if session.Email != "" {
				ctx.Request.Header.Set(HeaderUserEmail, session.Email)
			}

			next(ctx)
		}
	}
}

// ExtractSessionID reads the session id from the configured cookie, falling
// back to the header.
func ExtractSessionID(ctx *fasthttp.RequestCtx, cfg SessionConfig) string {
	if cfg.CookieName != "" {
		if cookie := ctx.Request.Header.Cookie(cfg.CookieName); len(cookie) > 0 {
			return string(cookie)
		}
	}
	if cfg.HeaderName != "" {
		return string(ctx.Request.Header.Peek(cfg.HeaderName))
	}
	return ""
}
