package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marcus/trigtrack/internal/syncconfig"
)

func setupProvider(t *testing.T, serverURL string, creds *syncconfig.AuthCredentials) *Provider {
	t.Helper()
	t.Setenv("TRIG_CONFIG_DIR", t.TempDir())

	if creds != nil {
		if err := syncconfig.SaveAuth(creds); err != nil {
			t.Fatalf("save auth: %v", err)
		}
	}
	p, err := NewProvider(serverURL)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return p
}

func TestIsLoggedIn(t *testing.T) {
	p := setupProvider(t, "http://example.invalid", nil)
	if p.IsLoggedIn() {
		t.Error("logged in with no auth file")
	}

	p = setupProvider(t, "http://example.invalid",
		&syncconfig.AuthCredentials{Username: "walker", Password: "hunter2"})
	if !p.IsLoggedIn() {
		t.Error("not logged in with stored credentials")
	}
}

func TestShouldRefreshToken(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		expiry string
		want   bool
	}{
		{"no token", "", true},
		{"expired", now.Add(-time.Hour).Format(time.RFC3339), true},
		{"inside refresh window", now.Add(5 * time.Minute).Format(time.RFC3339), true},
		{"fresh", now.Add(2 * time.Hour).Format(time.RFC3339), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := setupProvider(t, "http://example.invalid", &syncconfig.AuthCredentials{
				Username: "walker", Password: "hunter2",
				Token: "tok", TokenExpiresAt: tc.expiry,
			})
			p.now = func() time.Time { return now }
			if got := p.ShouldRefreshToken(); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestShouldRefreshTokenNotLoggedIn(t *testing.T) {
	p := setupProvider(t, "http://example.invalid", nil)
	if p.ShouldRefreshToken() {
		t.Error("refresh wanted without credentials")
	}
}

func TestRefreshToken(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/token.php" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		r.ParseForm()
		if r.PostForm.Get("username") != "walker" || r.PostForm.Get("password") != "hunter2" {
			t.Errorf("credentials: got %v", r.PostForm)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": 0, "token": "fresh-token", "expires_at": expires.Format(time.RFC3339),
		})
	}))
	defer server.Close()

	p := setupProvider(t, server.URL,
		&syncconfig.AuthCredentials{Username: "walker", Password: "hunter2"})

	data, err := p.RefreshToken(context.Background())
	if err != nil {
		t.Fatalf("RefreshToken failed: %v", err)
	}
	if data.Token != "fresh-token" {
		t.Errorf("token: got %q", data.Token)
	}
	if !data.ExpiresAt.Equal(expires) {
		t.Errorf("expiry: got %v, want %v", data.ExpiresAt, expires)
	}

	// The lease persisted to the auth file.
	saved, err := syncconfig.LoadAuth()
	if err != nil {
		t.Fatalf("LoadAuth failed: %v", err)
	}
	if saved.Token != "fresh-token" {
		t.Errorf("persisted token: got %q", saved.Token)
	}
	if saved.TokenExpiry().IsZero() {
		t.Error("persisted expiry missing")
	}
}

func TestRefreshTokenRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": 1, "msg": "bad password"})
	}))
	defer server.Close()

	p := setupProvider(t, server.URL,
		&syncconfig.AuthCredentials{Username: "walker", Password: "wrong"})

	if _, err := p.RefreshToken(context.Background()); err == nil {
		t.Fatal("RefreshToken succeeded on rejected credentials")
	}
}

func TestRefreshTokenNoCredentials(t *testing.T) {
	p := setupProvider(t, "http://example.invalid", nil)
	if _, err := p.RefreshToken(context.Background()); err != ErrNoCredentials {
		t.Errorf("got %v, want ErrNoCredentials", err)
	}
}

func TestRefreshTokenHonorsContext(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	p := setupProvider(t, server.URL,
		&syncconfig.AuthCredentials{Username: "walker", Password: "hunter2"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := p.RefreshToken(ctx); err == nil {
		t.Fatal("RefreshToken ignored context deadline")
	}
}
