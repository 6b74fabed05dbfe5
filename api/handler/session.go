package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/api/transport"
	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/internal/middleware"
	"github.com/fastygo/gateway/pkg/httpcontext"
	sessionUC "github.com/fastygo/gateway/usecase/session"
)

type SessionHandler struct {
	baseHandler
	uc     *sessionUC.UseCase
	lookup middleware.SessionConfig
}

func NewSessionHandler(uc *sessionUC.UseCase, lookup middleware.SessionConfig, adapter *httpcontext.Adapter, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		lookup:      lookup,
	}
}

// @Summary Run a session lifecycle pass
// @Tags session
// @Router /api/v1/session/refresh [post]
func (h *SessionHandler) Refresh(ctx *fasthttp.RequestCtx) {
	sessionID := h.sessionID(ctx)
	if sessionID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing session id"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Execute(stdCtx, sessionID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewSessionView(result.Session, result.WasRefreshed))
}

// @Summary Inspect the current session
// @Tags session
// @Router /api/v1/session [get]
func (h *SessionHandler) Get(ctx *fasthttp.RequestCtx) {
	sessionID := h.sessionID(ctx)
	if sessionID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing session id"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Execute(stdCtx, sessionID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewSessionView(result.Session, result.WasRefreshed))
}

// @Summary Revoke the current session
// @Tags session
// @Router /api/v1/session [delete]
func (h *SessionHandler) Revoke(ctx *fasthttp.RequestCtx) {
	sessionID := h.sessionID(ctx)
	if sessionID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing session id"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Revoke(stdCtx, sessionID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}

// @Summary Resolve userinfo for the current session
// @Tags session
// @Router /api/v1/userinfo [get]
func (h *SessionHandler) UserInfo(ctx *fasthttp.RequestCtx) {
	sessionID := h.sessionID(ctx)
	if sessionID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing session id"))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	info, err := h.uc.UserInfo(stdCtx, sessionID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, info)
}

// @Summary Echo the identity resolved by the session middleware
// @Tags session
// @Router /api/v1/whoami [get]
func (h *SessionHandler) WhoAmI(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, map[string]string{
		"user_id":   string(ctx.Request.Header.Peek(middleware.HeaderUserID)),
		"user_type": string(ctx.Request.Header.Peek(middleware.HeaderUserType)),
		"email":     string(ctx.Request.Header.Peek(middleware.HeaderUserEmail)),
	})
}

// sessionID prefers the cookie/header convention and falls back to the
// request body for explicit refresh calls.
func (h *SessionHandler) sessionID(ctx *fasthttp.RequestCtx) string {
	if id := middleware.ExtractSessionID(ctx, h.lookup); id != "" {
		return id
	}
	var req transport.RefreshRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err == nil {
		return req.SessionID
	}
	return ""
}
