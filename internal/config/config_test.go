package config

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

var envMu sync.Mutex

func TestLoadAll_Defaults(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected Server.Address default: %q", cfg.Server.Address)
	}
	if cfg.WhatsApp.APIVersion != "v19.0" {
		t.Fatalf("unexpected APIVersion default: %q", cfg.WhatsApp.APIVersion)
	}
	if cfg.WhatsApp.VerifyToken != "dev-verify-token" {
		t.Fatalf("unexpected VerifyToken default: %q", cfg.WhatsApp.VerifyToken)
	}
	if cfg.WhatsApp.AppSecret != "" {
		t.Fatalf("expected empty AppSecret by default, got %q", cfg.WhatsApp.AppSecret)
	}
	if cfg.Dedup.Window != 30*time.Second {
		t.Fatalf("unexpected Dedup.Window default: %v", cfg.Dedup.Window)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("expected Redis disabled when REDIS_ADDR not set")
	}
}

func TestLoadAll_FullSurface(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	t.Setenv("SERVER_ADDRESS", ":9000")
	t.Setenv("WHATSAPP_API_VERSION", "v20.0")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "111")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "prod-token")
	t.Setenv("WHATSAPP_SANDBOX_PHONE_NUMBER_ID", "222")
	t.Setenv("WHATSAPP_SANDBOX_ACCESS_TOKEN", "sandbox-token")
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "vt")
	t.Setenv("WHATSAPP_APP_SECRET", "shh")
	t.Setenv("WEBHOOK_BASE_URL", "https://relay.example.com")
	t.Setenv("DEDUP_WINDOW_SECONDS", "45")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.Server.Address != ":9000" {
		t.Fatalf("unexpected Server.Address: %q", cfg.Server.Address)
	}
	if cfg.WhatsApp.APIVersion != "v20.0" {
		t.Fatalf("unexpected APIVersion: %q", cfg.WhatsApp.APIVersion)
	}
	if cfg.WhatsApp.AppSecret != "shh" {
		t.Fatalf("unexpected AppSecret: %q", cfg.WhatsApp.AppSecret)
	}
	if cfg.WhatsApp.WebhookBaseURL != "https://relay.example.com" {
		t.Fatalf("unexpected WebhookBaseURL: %q", cfg.WhatsApp.WebhookBaseURL)
	}
	if cfg.Dedup.Window != 45*time.Second {
		t.Fatalf("unexpected Dedup.Window: %v", cfg.Dedup.Window)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Address != "localhost:6379" || cfg.Redis.Password != "secret" || cfg.Redis.DB != 3 {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
}

func TestLoadAll_InvalidInts(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"invalid DEDUP_WINDOW_SECONDS", "DEDUP_WINDOW_SECONDS", "abc"},
		{"invalid REDIS_DB", "REDIS_DB", "bad"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			clearTestEnv(t)

			if strings.HasPrefix(tc.key, "REDIS_") {
				t.Setenv("REDIS_ADDR", "localhost:6379")
			}
			t.Setenv(tc.key, tc.val)

			_, err := LoadAll()
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("expected error mentioning %s, got: %v", tc.key, err)
			}
		})
	}
}

func TestLoadAll_NonPositiveWindow(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	t.Setenv("DEDUP_WINDOW_SECONDS", "0")

	_, err := LoadAll()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "DEDUP_WINDOW_SECONDS") {
		t.Fatalf("expected error mentioning DEDUP_WINDOW_SECONDS, got: %v", err)
	}
}

func TestCredentials_Resolution(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		cfg       WhatsAppConfig
		wantID    string
		wantToken string
	}{
		{
			name: "sandbox pair wins",
			cfg: WhatsAppConfig{
				PhoneNumberID: "prod", AccessToken: "prod-t",
				SandboxPhoneNumberID: "sb", SandboxAccessToken: "sb-t",
			},
			wantID: "sb", wantToken: "sb-t",
		},
		{
			name: "incomplete sandbox falls back",
			cfg: WhatsAppConfig{
				PhoneNumberID: "prod", AccessToken: "prod-t",
				SandboxPhoneNumberID: "sb",
			},
			wantID: "prod", wantToken: "prod-t",
		},
		{
			name:   "nothing configured",
			cfg:    WhatsAppConfig{},
			wantID: "", wantToken: "",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			id, token := tc.cfg.Credentials()
			if id != tc.wantID || token != tc.wantToken {
				t.Fatalf("expected %q/%q, got %q/%q", tc.wantID, tc.wantToken, id, token)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	if got := getEnv("NOPE", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}

	t.Setenv("A", "x")
	if got := getEnv("A", "default"); got != "x" {
		t.Fatalf("expected x, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	got, err := getEnvInt("MISSING", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}

	t.Setenv("N", "123")
	got, err = getEnvInt("N", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 123 {
		t.Fatalf("expected 123, got %d", got)
	}

	t.Setenv("BAD", "abc")
	_, err = getEnvInt("BAD", 7)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "BAD") {
		t.Fatalf("expected error mentioning BAD, got: %v", err)
	}
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"SERVER_ADDRESS",
		"WHATSAPP_API_VERSION",
		"WHATSAPP_PHONE_NUMBER_ID",
		"WHATSAPP_ACCESS_TOKEN",
		"WHATSAPP_SANDBOX_PHONE_NUMBER_ID",
		"WHATSAPP_SANDBOX_ACCESS_TOKEN",
		"WHATSAPP_VERIFY_TOKEN",
		"WHATSAPP_APP_SECRET",
		"WEBHOOK_BASE_URL",
		"DEDUP_WINDOW_SECONDS",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"A",
		"N",
		"BAD",
	}
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}
