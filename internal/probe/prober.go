package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Prober issues sequential HTTP requests against one URL and reports timing.
// A Prober holds no per-invocation state and is safe for concurrent use.
type Prober struct {
	Logger *zap.Logger
}

func NewProber(logger *zap.Logger) *Prober {
	return &Prober{Logger: logger}
}

// Run normalizes cfg.Target, validates cfg and performs cfg.Attempts
// sequential attempts. The first failing attempt aborts the invocation and
// no partial result is returned. ctx bounds the whole invocation.
func (p *Prober) Run(ctx context.Context, cfg Config) (*Result, error) {
	target, err := NormalizeTarget(cfg.Target)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u, err := parseTarget(target)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := p.logger().With(
		zap.String("probe_id", id),
		zap.String("url", target),
		zap.String("method", string(cfg.Method)),
	)

	timeout := cfg.Timeout()
	client := newClient(timeout, cfg.FollowRedirects)
	defer client.CloseIdleConnections()

	durations := make([]int64, 0, cfg.Attempts)
	var snap *Snapshot
	for i := 0; i < cfg.Attempts; i++ {
		elapsed, s, err := runAttempt(ctx, client, u.String(), cfg.Method, timeout, i == 0)
		if err != nil {
			log.Warn("probe_failed", zap.Int("attempt", i), zap.Error(err))
			return nil, &TransportError{Attempt: i, Err: err}
		}
		if s != nil {
			snap = s
		}
		durations = append(durations, elapsed.Milliseconds())
		log.Debug("probe_attempt",
			zap.Int("attempt", i),
			zap.Duration("elapsed", elapsed),
		)
	}

	sum, err := Summarize(durations)
	if err != nil {
		return nil, err
	}
	log.Info("probe_done",
		zap.Int("status", snap.StatusCode),
		zap.Int("attempts", sum.Attempts),
		zap.Int64("min_ms", sum.MinMS),
		zap.Int64("max_ms", sum.MaxMS),
		zap.Float64("avg_ms", sum.AvgMS),
	)
	return &Result{
		ID:          id,
		URL:         target,
		Method:      cfg.Method,
		DurationsMS: durations,
		Summary:     sum,
		Snapshot:    *snap,
	}, nil
}

func (p *Prober) logger() *zap.Logger {
	if p == nil || p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// newClient builds a client private to one invocation. Keep-alives are off
// so every attempt dials and tears down its own connection.
func newClient(timeout time.Duration, followRedirects bool) *http.Client {
	dialer := &net.Dialer{Timeout: timeout}
	c := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			DisableKeepAlives:     true,
			ForceAttemptHTTP2:     true,
		},
	}
	if !followRedirects {
		c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return c
}

// runAttempt performs one round-trip. When capture is set it also returns
// the response snapshot; for GET the body preview read is part of elapsed.
func runAttempt(ctx context.Context, client *http.Client, target string, method Method, timeout time.Duration, capture bool) (time.Duration, *Snapshot, error) {
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, string(method), target, nil)
	if err != nil {
		return 0, nil, err
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)

	if !capture {
		return elapsed, nil, nil
	}
	snap := &Snapshot{
		StatusCode: resp.StatusCode,
		Headers:    firstValues(resp.Header),
	}
	if method == MethodGet {
		preview, err := readPreview(resp.Body, timeout, cancel)
		if err != nil {
			return 0, nil, err
		}
		snap.BodyPreview = preview
		elapsed = time.Since(start)
	}
	return elapsed, snap, nil
}

// firstValues flattens h to one entry per name, sorted by canonical name.
func firstValues(h http.Header) []Header {
	out := make([]Header, 0, len(h))
	for name, values := range h {
		if name == "" || len(values) == 0 {
			continue
		}
		out = append(out, Header{Name: name, Value: values[0]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// readPreview reads until PreviewLimit characters or EOF. A body cut short by
// the peer yields whatever arrived. A read that stalls for longer than idle
// aborts the request and yields ErrReadTimeout.
func readPreview(body io.Reader, idle time.Duration, abort context.CancelFunc) (string, error) {
	var fired atomic.Bool
	timer := time.AfterFunc(idle, func() {
		fired.Store(true)
		abort()
	})
	defer timer.Stop()

	br := bufio.NewReader(&idleReader{r: body, timer: timer, idle: idle})
	var b strings.Builder
	for n := 0; n < PreviewLimit; n++ {
		ch, _, err := br.ReadRune()
		if err != nil && fired.Load() {
			return "", fmt.Errorf("read response body: %w", ErrReadTimeout)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read response body: %w", err)
		}
		b.WriteRune(ch)
	}
	return b.String(), nil
}

type idleReader struct {
	r     io.Reader
	timer *time.Timer
	idle  time.Duration
}

func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.idle)
	}
	return n, err
}
