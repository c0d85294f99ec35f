package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("VOXMEET_STATE_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIBaseURL != "http://127.0.0.1:8000" {
		t.Fatalf("APIBaseURL = %q, want default", cfg.APIBaseURL)
	}
	if cfg.WSBaseURL != "" {
		t.Fatalf("WSBaseURL = %q, want empty default", cfg.WSBaseURL)
	}
	if cfg.ReconnectDelay != 3*time.Second {
		t.Fatalf("ReconnectDelay = %v, want 3s", cfg.ReconnectDelay)
	}
	if cfg.CookieTTL != 12*time.Hour {
		t.Fatalf("CookieTTL = %v, want 12h", cfg.CookieTTL)
	}
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("VOXMEET_STATE_DIR", t.TempDir())
	t.Setenv("VOXMEET_API_BASE_URL", "https://meet.example.com/")
	t.Setenv("VOXMEET_WS_BASE_URL", "wss://meet.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "https://meet.example.com" {
		t.Fatalf("APIBaseURL = %q, want trimmed", cfg.APIBaseURL)
	}
	if cfg.WSBaseURL != "wss://meet.example.com" {
		t.Fatalf("WSBaseURL = %q, want trimmed", cfg.WSBaseURL)
	}
}

func TestLoadRejectsBadChunkSize(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("VOXMEET_STATE_DIR", t.TempDir())
	t.Setenv("VOXMEET_CHUNK_MS", "5")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() with VOXMEET_CHUNK_MS=5 should fail")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("VOXMEET_STATE_DIR", t.TempDir())
	t.Setenv("VOXMEET_RECONNECT_DELAY", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() with bad VOXMEET_RECONNECT_DELAY should fail")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"VOXMEET_API_BASE_URL",
		"VOXMEET_WS_BASE_URL",
		"VOXMEET_REQUEST_TIMEOUT",
		"VOXMEET_RECONNECT_DELAY",
		"VOXMEET_COOKIE_TTL",
		"VOXMEET_SAMPLE_RATE",
		"VOXMEET_CHUNK_MS",
		"VOXMEET_CAPTURE_BINARY",
		"VOXMEET_CAPTURE_DEVICE",
		"VOXMEET_STATE_DIR",
		"VOXMEET_DATABASE_URL",
		"VOXMEET_STATUS_ADDR",
		"VOXMEET_METRICS_NAMESPACE",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
