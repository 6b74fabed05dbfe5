package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/gateway/api/handler"
)

type Handlers struct {
	Session *apiHandler.SessionHandler
	Health  *apiHandler.HealthHandler
}

// Middleware wraps a request handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, sessionAuth, serviceAuth Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Session lifecycle routes resolve the session themselves; each call
	// is one lifecycle pass.
	r.POST("/api/v1/session/refresh", handlers.Session.Refresh)
	r.GET("/api/v1/session", handlers.Session.Get)
	r.DELETE("/api/v1/session", handlers.Session.Revoke)
	r.GET("/api/v1/userinfo", handlers.Session.UserInfo)

	// Routes behind the auth middlewares, reading the stamped identity
	// headers the way proxied upstreams would.
	r.GET("/api/v1/whoami", sessionAuth(handlers.Session.WhoAmI))
	r.GET("/api/v1/internal/status", serviceAuth(handlers.Health.Check))

	return r
}
