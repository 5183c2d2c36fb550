// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/urlpinger/internal/config"
	"github.com/hamed0406/urlpinger/internal/logging"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load("")
	if err != nil {
		fail(err.Error())
	}
	if p := os.Getenv(config.EnvConfigPath); p != "" {
		ok(config.EnvConfigPath + "=" + p)
	}

	if err := cfg.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", "probe default", e)
		}
		fail("probe defaults out of range")
	}
	ok(fmt.Sprintf("probe defaults %s x%d timeout=%dms follow_redirects=%t",
		cfg.Defaults.Method, cfg.Defaults.Attempts, cfg.Defaults.TimeoutMS, cfg.Defaults.FollowRedirects))

	if _, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		fail("logger: " + err.Error())
	}
	ok("LOG_DIR=" + cfg.LogDir + " LOG_LEVEL=" + cfg.LogLevel)

	// Normalize and sanity-check lists (no spaces around commas).
	if v := os.Getenv("API_KEYS"); strings.Contains(v, " ") {
		warn("API_KEYS contains spaces; use comma-separated with no spaces, e.g. key1,key2")
	}
	if len(cfg.APIKeys) == 0 {
		warn("API_KEYS empty — /api/probe is open to anyone who can reach API_ADDR.")
	} else {
		ok(fmt.Sprintf("%d API key(s) configured", len(cfg.APIKeys)))
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty — CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if cfg.RatePerMin == 0 {
		warn("RATE_PER_MIN=0 — probe requests are not rate limited.")
	}

	ok("API_ADDR=" + cfg.Addr)
	ok("preflight passed")
}
