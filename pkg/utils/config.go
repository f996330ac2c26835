package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	// PublicBaseURL prefixes rewritten image URLs. Empty keeps them
	// root-relative ("/proxy?url=...").
	PublicBaseURL string `yaml:"public_base_url"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Proxy     ProxyConfig     `yaml:"proxy"`
	Sources   SourcesConfig   `yaml:"sources"`
}

type RateLimitConfig struct {
	Requests   int           `yaml:"requests"`
	Window     time.Duration `yaml:"window"`
	SweepEvery time.Duration `yaml:"sweep_every"`
}

type UpstreamConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
}

type ProxyConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	// AllowedDomains are appended to the built-in image hosts. "~text" is a
	// substring rule.
	AllowedDomains []string `yaml:"allowed_domains"`
}

type SourcesConfig struct {
	KomikuBaseURL    string `yaml:"komiku_base_url"`
	KomikuAPIBaseURL string `yaml:"komiku_api_base_url"`
	KomikcastBaseURL string `yaml:"komikcast_base_url"`
}

// DefaultConfig is what the service runs with when nothing is configured.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:  ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		RateLimit: RateLimitConfig{
			Requests:   60,
			Window:     time.Minute,
			SweepEvery: 5 * time.Minute,
		},
		Upstream: UpstreamConfig{
			Timeout: 12 * time.Second,
			RPS:     5,
			Burst:   10,
		},
		Proxy: ProxyConfig{
			Timeout: 15 * time.Second,
		},
		Sources: SourcesConfig{
			KomikuBaseURL:    "https://komiku.org",
			KomikuAPIBaseURL: "https://api.komiku.org",
			KomikcastBaseURL: "https://komikcast03.com",
		},
	}
}

// LoadConfig reads .env (without overriding the real environment), then
// layers defaults, the YAML file named by NAOKOMIK_CONFIG, and environment
// variables, later wins.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadConfigFrom(os.LookupEnv)
}

// LoadConfigFrom is LoadConfig with an explicit environment.
func LoadConfigFrom(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if path, ok := lookup("NAOKOMIK_CONFIG"); ok && path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	e := envReader{lookup: lookup}
	e.str("HTTP_ADDR", &cfg.HTTPAddr)
	e.str("PUBLIC_BASE_URL", &cfg.PublicBaseURL)
	e.str("LOG_LEVEL", &cfg.LogLevel)
	e.str("LOG_FORMAT", &cfg.LogFormat)
	e.int("RATE_LIMIT_REQUESTS", &cfg.RateLimit.Requests)
	e.millis("RATE_LIMIT_WINDOW_MS", &cfg.RateLimit.Window)
	e.millis("RATE_LIMIT_SWEEP_MS", &cfg.RateLimit.SweepEvery)
	e.millis("UPSTREAM_TIMEOUT_MS", &cfg.Upstream.Timeout)
	e.float("UPSTREAM_RPS", &cfg.Upstream.RPS)
	e.int("UPSTREAM_BURST", &cfg.Upstream.Burst)
	e.millis("PROXY_TIMEOUT_MS", &cfg.Proxy.Timeout)
	e.str("KOMIKU_BASE_URL", &cfg.Sources.KomikuBaseURL)
	e.str("KOMIKU_API_BASE_URL", &cfg.Sources.KomikuAPIBaseURL)
	e.str("KOMIKCAST_LINK", &cfg.Sources.KomikcastBaseURL)
	if v, ok := lookup("PROXY_ALLOWED_DOMAINS"); ok {
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				cfg.Proxy.AllowedDomains = append(cfg.Proxy.AllowedDomains, d)
			}
		}
	}
	if err := errors.Join(e.errs...); err != nil {
		return Config{}, err
	}

	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("config: rate limit requests must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("config: rate limit window must be positive"))
	}
	if c.Upstream.Timeout <= 0 || c.Proxy.Timeout <= 0 {
		errs = append(errs, errors.New("config: timeouts must be positive"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("config: unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// envReader applies set variables onto cfg fields and keeps every parse error.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return
	}
	*dst = n
}

func (e *envReader) float(key string, dst *float64) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return
	}
	*dst = f
}

func (e *envReader) millis(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return
	}
	*dst = time.Duration(ms) * time.Millisecond
}
