package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/pkg/logger"
	"github.com/fastygo/gateway/repository"
	"github.com/fastygo/gateway/usecase"
)

// Result is the outcome of a successful refresh pass.
type Result struct {
	Session      *domain.Session `json:"session"`
	WasRefreshed bool            `json:"was_refreshed"`
}

// UseCase orchestrates the per-request session lifecycle pass: load the
// session, let the policy decide, refresh through the identity provider when
// needed, persist the result. Storage and provider I/O stay behind their
// ports; all temporal decisions live in the policy.
type UseCase struct {
	sessions repository.SessionRepository
	identity usecase.IdentityProvider
	policy   *domain.SessionPolicy
	logger   *zap.Logger
}

func New(sessions repository.SessionRepository, identity usecase.IdentityProvider, policy *domain.SessionPolicy, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = domain.NewSessionPolicy(domain.DefaultSessionConfig(), nil)
	}
	return &UseCase{
		sessions: sessions,
		identity: identity,
		policy:   policy,
		logger:   logger,
	}
}

// Execute runs one lifecycle pass for the session. It fails with
// domain.ErrSessionExpired when the session is absent or past its token
// expiry, and with domain.ErrTokenRefreshFailed when the provider rejects
// the refresh. Transport failures from the provider propagate unwrapped so
// callers can tell a definitive rejection from an undetermined outcome. On
// any failure the stored session is left untouched.
func (uc *UseCase) Execute(ctx context.Context, sessionID string) (*Result, error) {
	current, err := uc.validSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !uc.policy.ShouldRefresh(current) {
		return uc.slideWithoutRefresh(ctx, sessionID, current)
	}
	return uc.refreshTokens(ctx, sessionID, current)
}

// Revoke removes the session. Revoking an unknown id is not an error.
func (uc *UseCase) Revoke(ctx context.Context, sessionID string) error {
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	uc.logger.Info("session revoked", logger.SessionID(sessionID))
	return nil
}

// UserInfo resolves the principal behind the session's access token via the
// identity provider. A rejected token surfaces as ErrSessionExpired.
func (uc *UseCase) UserInfo(ctx context.Context, sessionID string) (*usecase.UserInfo, error) {
	result, err := uc.Execute(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	info, err := uc.identity.GetUserInfo(ctx, result.Session.AccessToken)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, domain.ErrSessionExpired
	}
	return info, nil
}

func (uc *UseCase) validSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	current, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, err
	}
	if !uc.policy.IsValid(current) {
		return nil, domain.ErrSessionExpired
	}
	return current, nil
}

func (uc *UseCase) slideWithoutRefresh(ctx context.Context, sessionID string, current *domain.Session) (*Result, error) {
	touched := current.Touched(uc.policy.Now())

	if uc.policy.ShouldExtend(touched) {
		remaining, err := uc.sessions.TTL(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if err := uc.sessions.Extend(ctx, sessionID, uc.policy.TTLFor(touched, remaining)); err != nil {
			return nil, err
		}
	}

	if err := uc.sessions.Save(ctx, sessionID, touched, uc.policy.TTLFor(touched, domain.TTL{})); err != nil {
		return nil, err
	}

	return &Result{Session: touched, WasRefreshed: false}, nil
}

func (uc *UseCase) refreshTokens(ctx context.Context, sessionID string, current *domain.Session) (*Result, error) {
	tokens, err := uc.identity.RefreshAccessToken(ctx, current.RefreshToken)
	if err != nil {
		uc.logger.Warn("token refresh undetermined",
			logger.SessionID(sessionID),
			zap.Error(err))
		return nil, err
	}
	// Rotation is assumed: a response without a new refresh token is a
	// failure, not something to silently tolerate.
	if tokens == nil || tokens.RefreshToken == "" {
		uc.logger.Info("token refresh rejected", logger.SessionID(sessionID))
		return nil, domain.ErrTokenRefreshFailed
	}

	refreshed := current.WithTokens(domain.TokenPair{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, uc.policy.Now())

	if err := uc.sessions.Save(ctx, sessionID, refreshed, uc.policy.TTLFor(refreshed, domain.TTL{})); err != nil {
		return nil, err
	}

	uc.logger.Debug("access token refreshed",
		logger.SessionID(sessionID),
		zap.String("user_id", refreshed.UserID))
	return &Result{Session: refreshed, WasRefreshed: true}, nil
}
