// Package kiro implements the auth.Provider contract against the Kiro
// desktop-auth endpoints (social OAuth), AWS SSO-OIDC (IdC accounts), and the
// local Kiro token cache used for activation.
package kiro

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/kirotools/switchboard/internal/auth"
	"github.com/kirotools/switchboard/internal/db/models"
	"github.com/kirotools/switchboard/internal/util"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Provider talks to the Kiro/AWS token endpoints and manages the local
// activation state. A shared rate limiter keeps a large refresh pass from
// bursting the upstream token endpoints.
type Provider struct {
	cfg     Config
	client  *resty.Client
	limiter *rate.Limiter
}

// New creates a Provider from config.
func New(cfg Config) *Provider {
	perSec := cfg.RefreshRateLimit
	if perSec <= 0 {
		perSec = DefaultConfig().RefreshRateLimit
	}
	return &Provider{
		cfg:     cfg,
		client:  resty.New().SetTimeout(cfg.timeout()),
		limiter: rate.NewLimiter(rate.Limit(perSec), perSec),
	}
}

// RefreshToken exchanges the account's refresh token for fresh credentials,
// dispatching on auth method: social accounts go through the Kiro desktop
// OAuth endpoint, IdC accounts through regional SSO-OIDC.
func (p *Provider) RefreshToken(ctx context.Context, acc *models.Account) (auth.TokenSet, error) {
	if acc.RefreshToken == "" {
		return auth.TokenSet{}, fmt.Errorf("account %s has no refresh token", acc.Email)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return auth.TokenSet{}, err
	}

	switch auth.MethodFor(acc) {
	case auth.MethodIdC:
		return p.refreshIdC(ctx, acc)
	default:
		return p.refreshSocial(ctx, acc)
	}
}

// refreshSocial refreshes through the OAuth token endpoint using the standard
// refresh-token grant.
func (p *Provider) refreshSocial(ctx context.Context, acc *models.Account) (auth.TokenSet, error) {
	config := oauth2.Config{
		ClientID:     p.cfg.SocialClientID,
		ClientSecret: p.cfg.SocialClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: p.cfg.SocialTokenURL},
	}
	source := config.TokenSource(ctx, &oauth2.Token{RefreshToken: acc.RefreshToken})

	newToken, err := source.Token()
	if err != nil {
		return auth.TokenSet{}, err
	}

	ts := auth.TokenSet{
		AccessToken: newToken.AccessToken,
		ExpiresAt:   util.FormatTimestamp(newToken.Expiry),
	}
	// Persist rotated refresh token if provided (RFC 6749 compliance)
	if newToken.RefreshToken != "" && newToken.RefreshToken != acc.RefreshToken {
		log.Printf("🔄 Rotating refresh token for: %s", acc.Email)
		ts.RefreshToken = newToken.RefreshToken
	}
	return ts, nil
}

type oidcTokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	GrantType    string `json:"grantType"`
	RefreshToken string `json:"refreshToken"`
}

type oidcTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // seconds
}

// refreshIdC refreshes through the regional SSO-OIDC CreateToken API using
// the account's device registration.
func (p *Provider) refreshIdC(ctx context.Context, acc *models.Account) (auth.TokenSet, error) {
	region := acc.Region
	if region == "" {
		region = "us-east-1"
	}
	endpoint := fmt.Sprintf(p.cfg.OIDCEndpoint, region)

	var tokenResp oidcTokenResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(oidcTokenRequest{
			ClientID:     acc.ClientID,
			ClientSecret: acc.ClientSecret,
			GrantType:    "refresh_token",
			RefreshToken: acc.RefreshToken,
		}).
		SetResult(&tokenResp).
		Post(endpoint)
	if err != nil {
		return auth.TokenSet{}, err
	}
	if resp.IsError() {
		return auth.TokenSet{}, fmt.Errorf("oidc token exchange failed: %s: %s", resp.Status(), util.TruncateLog(resp.String(), 256))
	}
	if tokenResp.AccessToken == "" {
		return auth.TokenSet{}, fmt.Errorf("oidc token exchange returned no access token")
	}

	ts := auth.TokenSet{
		AccessToken: tokenResp.AccessToken,
		ExpiresAt:   util.FormatTimestamp(time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)),
	}
	if tokenResp.RefreshToken != "" && tokenResp.RefreshToken != acc.RefreshToken {
		log.Printf("🔄 Rotating refresh token for: %s", acc.Email)
		ts.RefreshToken = tokenResp.RefreshToken
	}
	return ts, nil
}

// FetchUsage retrieves the account's usage-limits report as raw JSON.
func (p *Provider) FetchUsage(ctx context.Context, acc *models.Account) (string, error) {
	if acc.AccessToken == "" {
		return "", fmt.Errorf("account %s has no access token", acc.Email)
	}

	req := p.client.R().
		SetContext(ctx).
		SetAuthToken(acc.AccessToken)
	if acc.ProfileArn != "" {
		req.SetQueryParam("profileArn", acc.ProfileArn)
	}
	resp, err := req.Get(p.cfg.UsageURL)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("usage fetch failed: %s: %s", resp.Status(), util.TruncateLog(resp.String(), 256))
	}
	body := resp.Body()
	if !json.Valid(body) {
		return "", fmt.Errorf("usage fetch returned invalid JSON")
	}
	return string(body), nil
}

// GenerateMachineID produces a fresh 64-hex-char machine identifier in the
// shape the upstream expects.
func (p *Provider) GenerateMachineID() string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])
}
