package probe

import (
	"net/http"
	"time"
)

// Method is one of the HTTP methods a probe may issue.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
)

// Limits on a probe invocation.
const (
	MinAttempts  = 1
	MaxAttempts  = 10
	MinTimeoutMS = 1000
	MaxTimeoutMS = 30000

	// PreviewLimit is the maximum number of characters kept from a GET body.
	PreviewLimit = 1000
)

// Config describes one probe invocation. It is passed by value and never
// mutated by the prober.
type Config struct {
	Target          string `json:"url"`
	Method          Method `json:"method"`
	Attempts        int    `json:"attempts"`
	TimeoutMS       int    `json:"timeout_ms"`
	FollowRedirects bool   `json:"follow_redirects"`
}

// Timeout is the per-phase (connect, read) timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Header is a single response header, first value only.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Snapshot is the response captured on the first attempt.
type Snapshot struct {
	StatusCode  int      `json:"status_code"`
	Headers     []Header `json:"headers"`
	BodyPreview string   `json:"body_preview,omitempty"`
}

// Summary aggregates attempt durations in milliseconds.
type Summary struct {
	MinMS    int64   `json:"min_ms"`
	MaxMS    int64   `json:"max_ms"`
	AvgMS    float64 `json:"avg_ms"`
	Attempts int     `json:"attempts"`
}

// Result is the outcome of a successful probe invocation.
type Result struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Method      Method   `json:"method"`
	DurationsMS []int64  `json:"durations_ms"`
	Summary     Summary  `json:"summary"`
	Snapshot    Snapshot `json:"snapshot"`
}

// SummaryLine renders the one-line timing summary.
func (r *Result) SummaryLine() string {
	return FormatSummary(r.Summary)
}

// Detail renders the captured response block.
func (r *Result) Detail() string {
	return FormatDetail(r.Method, r.Snapshot)
}
