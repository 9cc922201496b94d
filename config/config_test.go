package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("NOTIFICATIONS_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Auth.TokenExpiry != 7*24*time.Hour {
		t.Errorf("expected 7d token expiry, got %s", cfg.Auth.TokenExpiry)
	}
	if !cfg.Auth.EnforcePasswordComplexity {
		t.Error("password complexity should be enforced by default")
	}
	if cfg.Notifications.Backend != "mongo" {
		t.Errorf("expected mongo notifications backend, got %q", cfg.Notifications.Backend)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef-secret")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("AUTH_ENFORCE_PASSWORD_COMPLEXITY", "false")
	t.Setenv("RATE_LIMIT_AUTH_PER_MINUTE", "5")
	t.Setenv("NOTIFICATIONS_BACKEND", "Cassandra")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.254, ,172.16.0.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Auth.TokenExpiry != 2*time.Hour {
		t.Errorf("expected 2h, got %s", cfg.Auth.TokenExpiry)
	}
	if cfg.Auth.EnforcePasswordComplexity {
		t.Error("expected complexity enforcement to be disabled")
	}
	if cfg.RateLimit.AuthPerMinute != 5 {
		t.Errorf("expected 5, got %d", cfg.RateLimit.AuthPerMinute)
	}
	if cfg.Notifications.Backend != "cassandra" {
		t.Errorf("expected cassandra, got %q", cfg.Notifications.Backend)
	}
	if got := cfg.RateLimit.TrustedProxies; len(got) != 2 || got[0] != "10.0.0.254" || got[1] != "172.16.0.1" {
		t.Errorf("unexpected trusted proxies %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"unknown backend", func(c *Config) { c.Notifications.Backend = "neo4j" }, true},
		{"zero rate limit", func(c *Config) { c.RateLimit.AuthPerMinute = 0 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Auth:          AuthConfig{JWTSecret: "0123456789abcdef-secret"},
				Notifications: NotificationsConfig{Backend: "mongo"},
				RateLimit:     RateLimitConfig{AuthPerMinute: 10},
			}
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
