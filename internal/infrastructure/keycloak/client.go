package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/usecase"
)

// Config locates the Keycloak realm acting as identity provider.
type Config struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client implements usecase.IdentityProvider against Keycloak's
// openid-connect endpoints: token (refresh_token grant), introspection and
// userinfo. Every outbound call is bounded by the configured timeout;
// hitting it surfaces domain.ErrProviderTimeout rather than a rejection.
type Client struct {
	cfg                Config
	http               *fasthttp.Client
	tokenEndpoint      string
	introspectEndpoint string
	userInfoEndpoint   string
	discoveryEndpoint  string
	logger             *zap.Logger
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	Sub    string `json:"sub,omitempty"`
	Exp    int64  `json:"exp,omitempty"`
}

type userInfoResponse struct {
	Sub               string `json:"sub"`
	Email             string `json:"email,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Name              string `json:"name,omitempty"`
}

// New builds a Keycloak client. A zero timeout defaults to five seconds.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	realmPath := fmt.Sprintf("%s/realms/%s/protocol/openid-connect", cfg.BaseURL, cfg.Realm)
	return &Client{
		cfg:                cfg,
		http:               &fasthttp.Client{Name: "gateway-keycloak"},
		tokenEndpoint:      realmPath + "/token",
		introspectEndpoint: realmPath + "/token/introspect",
		userInfoEndpoint:   realmPath + "/userinfo",
		discoveryEndpoint:  fmt.Sprintf("%s/realms/%s/.well-known/openid-configuration", cfg.BaseURL, cfg.Realm),
		logger:             logger,
	}
}

// Ping fetches the realm's OIDC discovery document. The dependency monitor
// uses it as the provider health probe.
func (c *Client) Ping(ctx context.Context) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.discoveryEndpoint)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.do(ctx, req, resp); err != nil {
		return err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("keycloak discovery failed with status %d", resp.StatusCode()),
			domain.ErrProviderUnavailable)
	}
	return nil
}

// RefreshAccessToken performs a refresh_token grant. A 400 or 401 from the
// provider means the refresh token was rejected or expired and yields
// (nil, nil); any other failure is transport-level and returns an error.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*usecase.TokenRefreshResult, error) {
	if refreshToken == "" {
		return nil, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.cfg.ClientID},
	}
	if c.cfg.ClientSecret != "" {
		form.Set("client_secret", c.cfg.ClientSecret)
	}

	status, body, err := c.postForm(ctx, c.tokenEndpoint, form)
	if err != nil {
		return nil, err
	}

	switch {
	case status == fasthttp.StatusBadRequest || status == fasthttp.StatusUnauthorized:
		return nil, nil
	case status != fasthttp.StatusOK:
		return nil, domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("keycloak token refresh failed with status %d", status),
			domain.ErrProviderUnavailable)
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "malformed keycloak token response", err)
	}

	return &usecase.TokenRefreshResult{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
	}, nil
}

// ValidateAccessToken introspects the token. False without an error is a
// definitive "inactive"; errors mean the check could not be made.
func (c *Client) ValidateAccessToken(ctx context.Context, accessToken string) (bool, error) {
	if accessToken == "" {
		return false, nil
	}

	form := url.Values{
		"token":     {accessToken},
		"client_id": {c.cfg.ClientID},
	}
	if c.cfg.ClientSecret != "" {
		form.Set("client_secret", c.cfg.ClientSecret)
	}

	status, body, err := c.postForm(ctx, c.introspectEndpoint, form)
	if err != nil {
		return false, err
	}
	if status != fasthttp.StatusOK {
		return false, domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("keycloak introspection failed with status %d", status),
			domain.ErrProviderUnavailable)
	}

	var payload introspectResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, domain.WrapError(domain.ErrCodeUnavailable, "malformed keycloak introspection response", err)
	}
	return payload.Active, nil
}

// GetUserInfo resolves the userinfo claims. A 401 means the token is invalid
// and yields (nil, nil).
func (c *Client) GetUserInfo(ctx context.Context, accessToken string) (*usecase.UserInfo, error) {
	if accessToken == "" {
		return nil, nil
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.userInfoEndpoint)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	if err := c.do(ctx, req, resp); err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode() == fasthttp.StatusUnauthorized:
		return nil, nil
	case resp.StatusCode() != fasthttp.StatusOK:
		return nil, domain.WrapError(domain.ErrCodeUnavailable,
			fmt.Sprintf("keycloak userinfo failed with status %d", resp.StatusCode()),
			domain.ErrProviderUnavailable)
	}

	var payload userInfoResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "malformed keycloak userinfo response", err)
	}

	return &usecase.UserInfo{
		UserID:   payload.Sub,
		Email:    payload.Email,
		Username: payload.PreferredUsername,
		Name:     payload.Name,
	}, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.SetBodyString(form.Encode())

	if err := c.do(ctx, req, resp); err != nil {
		return 0, nil, err
	}

	// Body is pooled with the response; copy it out.
	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}

func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return domain.ErrProviderTimeout
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		if err == fasthttp.ErrTimeout {
			c.logger.Warn("keycloak request timed out",
				zap.String("endpoint", string(req.URI().Path())),
				zap.Duration("timeout", timeout))
			return domain.WrapError(domain.ErrCodeUnavailable, "keycloak request timeout", domain.ErrProviderTimeout)
		}
		return domain.WrapError(domain.ErrCodeUnavailable, "keycloak request failed", err)
	}
	return nil
}
