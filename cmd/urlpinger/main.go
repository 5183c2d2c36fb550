package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/urlpinger/internal/config"
	"github.com/hamed0406/urlpinger/internal/httpapi"
	"github.com/hamed0406/urlpinger/internal/logging"
	"github.com/hamed0406/urlpinger/internal/probe"
)

const version = "0.1.0"

// errReported marks a failure whose message was already printed.
var errReported = errors.New("probe failed")

type options struct {
	method          string
	attempts        int
	timeoutMS       int
	followRedirects bool
	asJSON          bool
	api             string
	apiKey          string
	logDir          string
	logLevel        string
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg, os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config, stdout, stderr io.Writer) *cobra.Command {
	opts := options{
		method:          cfg.Defaults.Method,
		attempts:        cfg.Defaults.Attempts,
		timeoutMS:       cfg.Defaults.TimeoutMS,
		followRedirects: cfg.Defaults.FollowRedirects,
		apiKey:          os.Getenv("API_KEY"),
		logDir:          cfg.LogDir,
		logLevel:        cfg.LogLevel,
	}

	cmd := &cobra.Command{
		Use:   "urlpinger [flags] <url>",
		Short: "Probe a URL repeatedly and report round-trip latency",
		Long: `urlpinger sends sequential HTTP requests to one URL, then prints
min/max/average latency and the first response's status, headers and
(for GET) the first 1000 characters of the body.

A URL without http:// or https:// is probed over http://.

Examples:
  urlpinger example.com
  urlpinger -X HEAD -n 10 -t 2000 https://example.com
  urlpinger --follow-redirects=false http://example.com/old
  urlpinger --json https://example.com
  urlpinger --api http://127.0.0.1:8080 example.com`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pc := probe.Config{
				Target:          args[0],
				Method:          probe.Method(strings.ToUpper(opts.method)),
				Attempts:        opts.attempts,
				TimeoutMS:       opts.timeoutMS,
				FollowRedirects: opts.followRedirects,
			}
			if opts.api != "" {
				return runRemote(cmd.Context(), opts, pc, stdout, stderr)
			}
			return runLocal(cmd.Context(), opts, pc, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.method, "method", "X", opts.method, "HTTP method: GET, POST, HEAD, OPTIONS")
	f.IntVarP(&opts.attempts, "attempts", "n", opts.attempts, "Number of sequential attempts (1-10)")
	f.IntVarP(&opts.timeoutMS, "timeout", "t", opts.timeoutMS, "Connect and read timeout in milliseconds (1000-30000)")
	f.BoolVar(&opts.followRedirects, "follow-redirects", opts.followRedirects, "Follow HTTP redirects")
	f.BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	f.StringVar(&opts.api, "api", "", "Run the probe through a urlpinger API at this base URL")
	f.StringVar(&opts.apiKey, "api-key", opts.apiKey, "API key for --api (default $API_KEY)")
	f.StringVar(&opts.logDir, "log-dir", opts.logDir, "Directory for the rotated JSON log")
	f.StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level: debug, info, warn, error")

	return cmd
}

func runLocal(ctx context.Context, opts options, pc probe.Config, stdout, stderr io.Writer) error {
	logger, err := logging.NewLogger(opts.logDir, opts.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return errReported
	}
	defer logger.Sync()

	if !opts.asJSON && isTerminal(stderr) {
		fmt.Fprintf(stderr, "Pinging %s (%d x %s)...\n", strings.TrimSpace(pc.Target), pc.Attempts, pc.Method)
	}

	res, err := probe.NewProber(logger).Run(ctx, pc)
	if err != nil {
		var dns *probe.DNSStatus
		var te *probe.TransportError
		if errors.As(err, &te) {
			target, _ := probe.NormalizeTarget(pc.Target)
			d := probe.DiagnoseHost(ctx, nil, probe.HostOf(target))
			dns = &d
			logger.Info("dns_check", zap.String("host", d.Host), zap.String("class", string(d.Class)))
		}
		summary, detail := probe.FormatError(err)
		printError(stdout, stderr, opts.asJSON, httpapi.ErrorResponse{Error: summary, Detail: detail, DNS: dns})
		return errReported
	}

	printResult(stdout, opts.asJSON, httpapi.ProbeResponse{
		Result:      res,
		SummaryLine: res.SummaryLine(),
		Detail:      res.Detail(),
	})
	return nil
}

func runRemote(ctx context.Context, opts options, pc probe.Config, stdout, stderr io.Writer) error {
	method := string(pc.Method)
	body, _ := json.Marshal(httpapi.ProbeRequest{
		URL:             pc.Target,
		Method:          &method,
		Attempts:        &pc.Attempts,
		TimeoutMS:       &pc.TimeoutMS,
		FollowRedirects: &pc.FollowRedirects,
	})

	// the server bounds each attempt; leave room for all of them
	wait := time.Duration(pc.Attempts+1) * pc.Timeout() * 2
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(opts.api, "/")+"/api/probe", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return errReported
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.apiKey != "" {
		req.Header.Set("X-API-Key", opts.apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintln(stderr, "Error contacting API:", err)
		return errReported
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out httpapi.ProbeResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Fprintln(stderr, "Error decoding API response:", err)
			return errReported
		}
		printResult(stdout, opts.asJSON, out)
		return nil
	}

	var out httpapi.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Error == "" {
		fmt.Fprintln(stderr, "API returned status:", resp.Status)
		return errReported
	}
	printError(stdout, stderr, opts.asJSON, out)
	return errReported
}

func printResult(w io.Writer, asJSON bool, out httpapi.ProbeResponse) {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}
	fmt.Fprintln(w, out.SummaryLine)
	fmt.Fprintln(w)
	fmt.Fprint(w, out.Detail)
	if !strings.HasSuffix(out.Detail, "\n") {
		fmt.Fprintln(w)
	}
}

func printError(stdout, stderr io.Writer, asJSON bool, out httpapi.ErrorResponse) {
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}
	fmt.Fprintln(stderr, out.Error)
	fmt.Fprintln(stderr)
	fmt.Fprintln(stderr, out.Detail)
	if out.DNS != nil {
		fmt.Fprintf(stderr, "DNS: %s %s\n", out.DNS.Host, out.DNS.Class)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
