// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"APP_HOST", "APP_PORT", "APP_ENV", "LOG_LEVEL",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	"VALKEY_HOST", "VALKEY_PORT", "VALKEY_PASSWORD",
	"JWT_SECRET", "TOKEN_TTL", "AUTH_RATE_LIMIT", "TRUSTED_PROXIES",
	"METADATA_TIMEOUT", "AI_API_KEY", "AI_MODEL", "AI_BASE_URL",
}

// clearEnv sets every variable Load reads to "" (which envOrDefault treats
// as unset) and moves into an empty directory so no .env file is picked up.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

// TestLoad_Defaults verifies that Load returns sensible development defaults
// when no environment variables are set.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	defaults := map[string][2]string{
		"Host":       {cfg.Host, "0.0.0.0"},
		"Port":       {cfg.Port, "8080"},
		"Env":        {cfg.Env, "development"},
		"DBHost":     {cfg.DBHost, "localhost"},
		"DBPort":     {cfg.DBPort, "5432"},
		"DBUser":     {cfg.DBUser, "linksaver"},
		"DBPassword": {cfg.DBPassword, "changeme"},
		"DBName":     {cfg.DBName, "linksaver"},
		"ValkeyHost": {cfg.ValkeyHost, "localhost"},
		"ValkeyPort": {cfg.ValkeyPort, "6379"},
		"AIModel":    {cfg.AIModel, "gpt-4o-mini"},
		"AIBaseURL":  {cfg.AIBaseURL, "https://api.openai.com/v1"},
	}
	for field, gw := range defaults {
		if gw[0] != gw[1] {
			t.Errorf("%s: got %q, want %q", field, gw[0], gw[1])
		}
	}

	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: got %v, want INFO", cfg.LogLevel)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL: got %v", cfg.TokenTTL)
	}
	if cfg.MetadataTimeout != 10*time.Second {
		t.Errorf("MetadataTimeout: got %v", cfg.MetadataTimeout)
	}
	if cfg.AuthRateLimit != 20 {
		t.Errorf("AuthRateLimit: got %d", cfg.AuthRateLimit)
	}
	if cfg.AIEnabled() {
		t.Error("AI should be disabled without an API key")
	}
	if !cfg.IsDev() {
		t.Error("IsDev should be true by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("AUTH_RATE_LIMIT", "5")
	t.Setenv("AI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr: got %q", cfg.Addr())
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: got %v", cfg.LogLevel)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("TokenTTL: got %v", cfg.TokenTTL)
	}
	if cfg.AuthRateLimit != 5 {
		t.Errorf("AuthRateLimit: got %d", cfg.AuthRateLimit)
	}
	if !cfg.AIEnabled() {
		t.Error("AI should be enabled with an API key")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"TOKEN_TTL", "forever"},
		{"TOKEN_TTL", "-1h"},
		{"METADATA_TIMEOUT", "10"},
		{"AUTH_RATE_LIMIT", "zero"},
		{"AUTH_RATE_LIMIT", "0"},
		{"LOG_LEVEL", "loud"},
		{"TRUSTED_PROXIES", "10.0.0.0/33"},
		{"TRUSTED_PROXIES", "10.0.0.1, proxy.local"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error should name %s, got %v", tt.key, err)
			}
		})
	}
}

func TestLoad_Production(t *testing.T) {
	t.Run("rejects default password", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", strings.Repeat("s", 40))

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "POSTGRES_PASSWORD") {
			t.Errorf("got %v, want POSTGRES_PASSWORD error", err)
		}
	})

	t.Run("rejects short secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("POSTGRES_PASSWORD", "s3cret")
		t.Setenv("JWT_SECRET", "short")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
			t.Errorf("got %v, want JWT_SECRET error", err)
		}
	})

	t.Run("rejects default secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("POSTGRES_PASSWORD", "s3cret")

		if _, err := Load(); err == nil {
			t.Error("expected the development secret to be refused")
		}
	})

	t.Run("accepts real values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("POSTGRES_PASSWORD", "s3cret")
		t.Setenv("JWT_SECRET", strings.Repeat("k", 48))

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.IsDev() {
			t.Error("IsDev should be false in production")
		}
	})
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("APP_PORT")
	os.Unsetenv("POSTGRES_DB")
	t.Setenv("POSTGRES_USER", "from-env")

	dir, _ := os.Getwd()
	content := "APP_PORT=7070\nPOSTGRES_DB=fromfile\nPOSTGRES_USER=from-file\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" || cfg.DBName != "fromfile" {
		t.Errorf("values from .env not applied: port=%q db=%q", cfg.Port, cfg.DBName)
	}
	if cfg.DBUser != "from-env" {
		t.Errorf("real environment must win over .env, got %q", cfg.DBUser)
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("no proxies should be trusted by default, got %v", cfg.TrustedProxies)
	}

	t.Setenv("TRUSTED_PROXIES", " 10.1.2.3/8, 192.168.0.10 ,::1,")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"10.0.0.0/8", "192.168.0.10/32", "::1/128"}
	if len(cfg.TrustedProxies) != len(want) {
		t.Fatalf("got %v, want %v", cfg.TrustedProxies, want)
	}
	for i, p := range cfg.TrustedProxies {
		if p.String() != want[i] {
			t.Errorf("prefix %d: got %s, want %s", i, p, want[i])
		}
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5433", DBName: "n",
	}
	want := "postgres://u:p@db:5433/n?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
