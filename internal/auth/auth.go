// Package auth holds the bearer-token session and its refresh logic.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marcus/trigtrack/internal/syncconfig"
)

// ErrNoCredentials is returned when no username/password is stored.
var ErrNoCredentials = errors.New("no stored credentials")

// refreshWindow is how close to expiry the token lease must be before a sync
// run refreshes it.
const refreshWindow = 15 * time.Minute

// AuthData is a freshly issued bearer-token lease.
type AuthData struct {
	Token     string
	ExpiresAt time.Time
}

// Provider implements the authentication interface the sync engine consumes:
// credential presence, token staleness, and a bounded refresh. The refresh is
// a plain blocking call honoring its context; the engine applies the 10 s
// deadline at the orchestration boundary.
type Provider struct {
	creds    *syncconfig.AuthCredentials
	tokenURL string
	http     *http.Client
	now      func() time.Time
}

// NewProvider loads stored credentials and points refreshes at serverURL.
// A missing auth file is not an error here; IsLoggedIn reports it.
func NewProvider(serverURL string) (*Provider, error) {
	creds, err := syncconfig.LoadAuth()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return &Provider{
		creds:    creds,
		tokenURL: strings.TrimRight(serverURL, "/") + "/api/token.php",
		http:     &http.Client{},
		now:      time.Now,
	}, nil
}

// Credentials returns the stored username and password (both may be empty).
func (p *Provider) Credentials() (username, password string) {
	if p.creds == nil {
		return "", ""
	}
	return p.creds.Username, p.creds.Password
}

// IsLoggedIn reports whether a username and password are stored.
func (p *Provider) IsLoggedIn() bool {
	u, pw := p.Credentials()
	return strings.TrimSpace(u) != "" && strings.TrimSpace(pw) != ""
}

// ShouldRefreshToken reports whether the token lease is absent or expires
// within the refresh window.
func (p *Provider) ShouldRefreshToken() bool {
	if !p.IsLoggedIn() {
		return false
	}
	expiry := p.creds.TokenExpiry()
	return expiry.IsZero() || expiry.Before(p.now().Add(refreshWindow))
}

// tokenReply is the JSON body of the token endpoint.
type tokenReply struct {
	Status    int    `json:"status"`
	Msg       string `json:"msg"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"` // RFC3339
}

// RefreshToken posts the stored credentials to the token endpoint and
// persists the new lease on success. Refresh failures never fail a sync run;
// the engine logs them and moves on.
func (p *Provider) RefreshToken(ctx context.Context) (*AuthData, error) {
	username, password := p.Credentials()
	if username == "" || password == "" {
		return nil, ErrNoCredentials
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, "POST", p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint: HTTP %d", resp.StatusCode)
	}

	var reply tokenReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("parse token reply: %w", err)
	}
	if reply.Status != 0 {
		return nil, fmt.Errorf("token refresh rejected: %s", reply.Msg)
	}

	expires, err := time.Parse(time.RFC3339, reply.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse token expiry %q: %w", reply.ExpiresAt, err)
	}

	data := &AuthData{Token: reply.Token, ExpiresAt: expires}
	if err := p.persist(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Provider) persist(data *AuthData) error {
	p.creds.Token = data.Token
	p.creds.TokenExpiresAt = data.ExpiresAt.Format(time.RFC3339)
	if err := syncconfig.SaveAuth(p.creds); err != nil {
		return fmt.Errorf("save refreshed session: %w", err)
	}
	return nil
}
