package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/urlpinger/internal/probe"
)

// EnvConfigPath names the optional YAML file read by Load.
const EnvConfigPath = "URLPINGER_CONFIG"

type Config struct {
	Addr           string        `yaml:"addr"`            // API bind address, e.g. "127.0.0.1:8080" or ":8080" (Docker)
	LogDir         string        `yaml:"log_dir"`         // logs directory
	LogLevel       string        `yaml:"log_level"`       // debug | info | warn | error
	APIKeys        []string      `yaml:"api_keys"`        // empty means the API is open
	AllowedOrigins []string      `yaml:"allowed_origins"` // empty means allow all
	RatePerMin     int           `yaml:"rate_per_min"`    // probe requests per client IP per minute, 0 disables
	RateBurst      int           `yaml:"rate_burst"`
	Defaults       ProbeDefaults `yaml:"defaults"`
}

// ProbeDefaults fills in probe fields a caller left unset.
type ProbeDefaults struct {
	Method          string `yaml:"method"`
	Attempts        int    `yaml:"attempts"`
	TimeoutMS       int    `yaml:"timeout_ms"`
	FollowRedirects bool   `yaml:"follow_redirects"`
}

// ProbeConfig builds a probe.Config for target from the defaults.
func (d ProbeDefaults) ProbeConfig(target string) probe.Config {
	return probe.Config{
		Target:          target,
		Method:          probe.Method(d.Method),
		Attempts:        d.Attempts,
		TimeoutMS:       d.TimeoutMS,
		FollowRedirects: d.FollowRedirects,
	}
}

func defaults() Config {
	return Config{
		Addr:       "127.0.0.1:8080",
		LogDir:     "logs",
		LogLevel:   "info",
		RatePerMin: 60,
		RateBurst:  10,
		Defaults: ProbeDefaults{
			Method:          "GET",
			Attempts:        3,
			TimeoutMS:       5000,
			FollowRedirects: true,
		},
	}
}

// FromEnv returns defaults overridden by environment variables.
func FromEnv() Config {
	cfg := defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads path (if non-empty) as YAML over the defaults, then applies
// environment overrides. An empty path falls back to $URLPINGER_CONFIG.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		b, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("API_KEYS"); v != "" {
		cfg.APIKeys = splitList(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if n, ok := envInt("RATE_PER_MIN"); ok && n >= 0 {
		cfg.RatePerMin = n
	}
	if n, ok := envInt("RATE_BURST"); ok && n > 0 {
		cfg.RateBurst = n
	}

	// Probe defaults
	if v := os.Getenv("PROBE_METHOD"); v != "" {
		cfg.Defaults.Method = strings.ToUpper(v)
	}
	if n, ok := envInt("PROBE_ATTEMPTS"); ok && n > 0 {
		cfg.Defaults.Attempts = n
	}
	if n, ok := envInt("PROBE_TIMEOUT_MS"); ok && n > 0 {
		cfg.Defaults.TimeoutMS = n
	}
	if v := os.Getenv("PROBE_FOLLOW_REDIRECTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Defaults.FollowRedirects = b
		}
	}
}

// Validate checks the probe defaults against the prober's limits.
func (c Config) Validate() error {
	return c.Defaults.ProbeConfig("").Validate()
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
