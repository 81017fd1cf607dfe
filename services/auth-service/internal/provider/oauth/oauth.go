// Package oauth implements the authorization-code exchange for
// federated login providers. The exchange is built directly on
// net/http; no OAuth client library is used.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config describes a single federated-login provider's endpoints and
// client credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// Provider implements service.OAuthProvider for one configured
// identity provider using the standard authorization-code flow.
type Provider struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Provider {
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// AuthorizationURL builds the provider's consent-screen URL, embedding
// the opaque anti-CSRF state the caller generated.
func (p *Provider) AuthorizationURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)
	if len(p.cfg.Scopes) > 0 {
		scopes := ""
		for i, s := range p.cfg.Scopes {
			if i > 0 {
				scopes += " "
			}
			scopes += s
		}
		q.Set("scope", scopes)
	}
	return p.cfg.AuthURL + "?" + q.Encode()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userInfoResponse struct {
	ID    string `json:"id"`
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

// Exchange trades an authorization code for the provider's access
// token, then calls the provider's userinfo endpoint to resolve a
// stable provider-scoped user ID and the account's email address.
func (p *Provider) Exchange(ctx context.Context, code, redirectURI string) (providerUserID, email string, err error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("token exchange request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("token exchange failed: status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", "", fmt.Errorf("token exchange returned no access token")
	}

	userReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build userinfo request: %w", err)
	}
	userReq.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	userResp, err := p.client.Do(userReq)
	if err != nil {
		return "", "", fmt.Errorf("userinfo request: %w", err)
	}
	defer userResp.Body.Close()

	if userResp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("userinfo request failed: status %d", userResp.StatusCode)
	}

	var info userInfoResponse
	if err := json.NewDecoder(userResp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("decode userinfo response: %w", err)
	}

	id := info.Sub
	if id == "" {
		id = info.ID
	}
	if id == "" || info.Email == "" {
		return "", "", fmt.Errorf("userinfo response missing id or email")
	}

	return id, info.Email, nil
}

