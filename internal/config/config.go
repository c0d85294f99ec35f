package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the voxmeet client.
type Config struct {
	APIBaseURL     string
	WSBaseURL      string
	RequestTimeout time.Duration

	ReconnectDelay time.Duration

	SampleRate    int
	ChunkMillis   int
	CaptureBinary string
	CaptureDevice string

	StateDir  string
	CookieTTL time.Duration

	DatabaseURL string

	StatusAddr       string
	MetricsNamespace string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		APIBaseURL: envOrDefault("VOXMEET_API_BASE_URL", "http://127.0.0.1:8000"),
		// Empty means "derive from the API base URL" (http->ws, https->wss).
		WSBaseURL:        stringsTrimSpace("VOXMEET_WS_BASE_URL"),
		MetricsNamespace: envOrDefault("VOXMEET_METRICS_NAMESPACE", "voxmeet"),
		CaptureBinary:    envOrDefault("VOXMEET_CAPTURE_BINARY", "ffmpeg"),
		CaptureDevice:    envOrDefault("VOXMEET_CAPTURE_DEVICE", "default"),
		DatabaseURL:      stringsTrimSpace("VOXMEET_DATABASE_URL"),
		// Empty disables the local status/metrics listener.
		StatusAddr:     stringsTrimSpace("VOXMEET_STATUS_ADDR"),
		RequestTimeout: 30 * time.Second,
		ReconnectDelay: 3 * time.Second,
		CookieTTL:      12 * time.Hour,
		SampleRate:     16000,
		ChunkMillis:    100,
	}

	cfg.StateDir = stringsTrimSpace("VOXMEET_STATE_DIR")
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".voxmeet")
	}

	var err error
	cfg.RequestTimeout, err = durationFromEnv("VOXMEET_REQUEST_TIMEOUT", cfg.RequestTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ReconnectDelay, err = durationFromEnv("VOXMEET_RECONNECT_DELAY", cfg.ReconnectDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.CookieTTL, err = durationFromEnv("VOXMEET_COOKIE_TTL", cfg.CookieTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.SampleRate, err = intFromEnv("VOXMEET_SAMPLE_RATE", cfg.SampleRate)
	if err != nil {
		return Config{}, err
	}
	cfg.ChunkMillis, err = intFromEnv("VOXMEET_CHUNK_MS", cfg.ChunkMillis)
	if err != nil {
		return Config{}, err
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("VOXMEET_API_BASE_URL must not be empty")
	}
	cfg.WSBaseURL = strings.TrimRight(cfg.WSBaseURL, "/")

	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("VOXMEET_REQUEST_TIMEOUT must be positive")
	}
	if cfg.ReconnectDelay <= 0 {
		return Config{}, fmt.Errorf("VOXMEET_RECONNECT_DELAY must be positive")
	}
	if cfg.CookieTTL < time.Minute {
		return Config{}, fmt.Errorf("VOXMEET_COOKIE_TTL must be at least 1m")
	}
	if cfg.SampleRate <= 0 {
		return Config{}, fmt.Errorf("VOXMEET_SAMPLE_RATE must be positive")
	}
	if cfg.ChunkMillis < 10 || cfg.ChunkMillis > 2000 {
		return Config{}, fmt.Errorf("VOXMEET_CHUNK_MS must be in [10,2000]")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
