package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfigFrom(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 60, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "https://komikcast03.com", cfg.Sources.KomikcastBaseURL)
}

func TestLoadConfig_Env(t *testing.T) {
	cfg, err := LoadConfigFrom(envMap(map[string]string{
		"HTTP_ADDR":             ":9000",
		"PUBLIC_BASE_URL":       "https://api.naokomik.test/",
		"RATE_LIMIT_REQUESTS":   "3",
		"RATE_LIMIT_WINDOW_MS":  "1000",
		"UPSTREAM_RPS":          "0.5",
		"PROXY_TIMEOUT_MS":      "2500",
		"PROXY_ALLOWED_DOMAINS": "images.example.net, ~mirror ,",
		"KOMIKCAST_LINK":        "https://komikcast05.com",
		"LOG_LEVEL":             "debug",
		"LOG_FORMAT":            "json",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "https://api.naokomik.test", cfg.PublicBaseURL)
	assert.Equal(t, 3, cfg.RateLimit.Requests)
	assert.Equal(t, time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 0.5, cfg.Upstream.RPS)
	assert.Equal(t, 2500*time.Millisecond, cfg.Proxy.Timeout)
	assert.Equal(t, []string{"images.example.net", "~mirror"}, cfg.Proxy.AllowedDomains)
	assert.Equal(t, "https://komikcast05.com", cfg.Sources.KomikcastBaseURL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_InvalidNumbers(t *testing.T) {
	_, err := LoadConfigFrom(envMap(map[string]string{
		"RATE_LIMIT_REQUESTS": "lots",
		"UPSTREAM_TIMEOUT_MS": "1.5s",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_REQUESTS")
	assert.Contains(t, err.Error(), "UPSTREAM_TIMEOUT_MS")
}

func TestLoadConfig_Validate(t *testing.T) {
	_, err := LoadConfigFrom(envMap(map[string]string{"RATE_LIMIT_REQUESTS": "0"}))
	assert.Error(t, err)

	_, err = LoadConfigFrom(envMap(map[string]string{"LOG_LEVEL": "loud"}))
	assert.Error(t, err)
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "naokomik.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":7000"
rate_limit:
  requests: 10
  window: 30s
proxy:
  allowed_domains: ["cdn.example.org"]
sources:
  komiku_base_url: https://komiku.example
`), 0o600))

	cfg, err := LoadConfigFrom(envMap(map[string]string{
		"NAOKOMIK_CONFIG": path,
		"HTTP_ADDR":       ":7001",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.HTTPAddr, "env wins over file")
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.SweepEvery, "unset keys keep defaults")
	assert.Equal(t, []string{"cdn.example.org"}, cfg.Proxy.AllowedDomains)
	assert.Equal(t, "https://komiku.example", cfg.Sources.KomikuBaseURL)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfigFrom(envMap(map[string]string{"NAOKOMIK_CONFIG": "/nonexistent/naokomik.yaml"}))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", "json", &buf)
	log.Info("hidden")
	log.Warn("shown", "component", "test")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"component":"test"`)

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
