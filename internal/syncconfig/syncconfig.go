// Package syncconfig manages the global config and stored credentials under
// ~/.config/trigtrack.
package syncconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SyncConfig holds sync-related settings.
type SyncConfig struct {
	URL      string `json:"url"`
	AutoSync *bool  `json:"auto_sync,omitempty"` // nil = default true
}

// Config is the global trigtrack config stored at ~/.config/trigtrack/config.json.
type Config struct {
	Sync  SyncConfig `json:"sync"`
	Debug bool       `json:"debug,omitempty"`
}

// AuthCredentials stores authentication state at ~/.config/trigtrack/auth.json.
// Token and TokenExpiresAt hold the current bearer-token lease; Username and
// Password are the long-lived credentials the token is refreshed from.
type AuthCredentials struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Token          string `json:"token,omitempty"`
	TokenExpiresAt string `json:"token_expires_at,omitempty"` // RFC3339
}

const defaultServerURL = "https://api.trigtrack.example.com"

// ConfigDir returns ~/.config/trigtrack, creating it if necessary.
func ConfigDir() (string, error) {
	if v := os.Getenv("TRIG_CONFIG_DIR"); v != "" {
		if err := os.MkdirAll(v, 0755); err != nil {
			return "", fmt.Errorf("create config dir: %w", err)
		}
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "trigtrack")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the global config from ~/.config/trigtrack/config.json.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the global config to ~/.config/trigtrack/config.json.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// LoadAuth reads credentials from ~/.config/trigtrack/auth.json.
// Returns nil with no error when the file does not exist.
func LoadAuth() (*AuthCredentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds AuthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveAuth writes credentials to ~/.config/trigtrack/auth.json (0600 perms).
func SaveAuth(creds *AuthCredentials) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "auth.json"), data, 0600)
}

// ClearAuth removes the auth.json file.
func ClearAuth() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "auth.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetServerURL returns the sync server URL.
// Priority: TRIG_SYNC_URL env > config.json > default.
func GetServerURL() string {
	if v := os.Getenv("TRIG_SYNC_URL"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Sync.URL != "" {
		return cfg.Sync.URL
	}
	return defaultServerURL
}

// HasCredentials returns true if a username and password are stored.
// The sync engine refuses to start without them.
func HasCredentials() bool {
	creds, err := LoadAuth()
	return err == nil && creds != nil &&
		strings.TrimSpace(creds.Username) != "" && strings.TrimSpace(creds.Password) != ""
}

// TokenExpiry parses the stored token expiry. The zero time means no lease.
func (c *AuthCredentials) TokenExpiry() time.Time {
	if c == nil || c.TokenExpiresAt == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, c.TokenExpiresAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DebugEnabled returns whether debug surfacing (e.g. token-refresh failures)
// is on. Priority: TRIG_DEBUG env > config.json debug > false.
func DebugEnabled() bool {
	if v := parseBoolEnv("TRIG_DEBUG"); v != nil {
		return *v
	}
	cfg, err := LoadConfig()
	return err == nil && cfg.Debug
}

// GetAutoSyncEnabled returns whether the post-mutation auto-sync hook is on.
// Priority: TRIG_AUTO_SYNC env > config.json sync.auto_sync > true.
func GetAutoSyncEnabled() bool {
	if v := parseBoolEnv("TRIG_AUTO_SYNC"); v != nil {
		return *v
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Sync.AutoSync != nil {
		return *cfg.Sync.AutoSync
	}
	return true
}

// parseBoolEnv returns nil if env not set, pointer to bool if set.
func parseBoolEnv(envKey string) *bool {
	v := strings.ToLower(os.Getenv(envKey))
	switch v {
	case "1", "true":
		b := true
		return &b
	case "0", "false":
		b := false
		return &b
	}
	return nil
}
