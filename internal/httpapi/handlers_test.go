package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/hamed0406/urlpinger/internal/config"
	"github.com/hamed0406/urlpinger/internal/probe"
)

// ---- test helpers ----

type fakeRunner struct {
	res *probe.Result
	err error
	got probe.Config
}

func (f *fakeRunner) Run(_ context.Context, cfg probe.Config) (*probe.Result, error) {
	f.got = cfg
	return f.res, f.err
}

type nxResolver struct{}

func (nxResolver) LookupIPAddr(context.Context, string) ([]net.IPAddr, error) {
	return nil, &net.DNSError{Err: "no such host", IsNotFound: true}
}

func (nxResolver) LookupNS(context.Context, string) ([]*net.NS, error) {
	return nil, &net.DNSError{Err: "no such host", IsNotFound: true}
}

func defaults() config.ProbeDefaults {
	return config.ProbeDefaults{Method: "GET", Attempts: 3, TimeoutMS: 5000, FollowRedirects: true}
}

func setupServer(t *testing.T, run Runner, keys []string) *httptest.Server {
	t.Helper()
	srv := NewServer(zap.NewNop(), run, defaults())
	srv.Resolver = nxResolver{}
	// very high rate limits to avoid flakiness in tests
	ts := httptest.NewServer(srv.Router(keys, nil, 10_000, 10_000))
	t.Cleanup(ts.Close)
	return ts
}

func postProbe(t *testing.T, base, body, key string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, base+"/api/probe", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// ---- tests ----

func TestHealthz(t *testing.T) {
	ts := setupServer(t, &fakeRunner{}, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
}

func TestProbe_AppliesDefaultsAndOverrides(t *testing.T) {
	run := &fakeRunner{res: &probe.Result{
		ID:          "id-1",
		URL:         "http://example.com",
		Method:      probe.MethodHead,
		DurationsMS: []int64{4, 6},
		Summary:     probe.Summary{MinMS: 4, MaxMS: 6, AvgMS: 5, Attempts: 2},
		Snapshot:    probe.Snapshot{StatusCode: 204},
	}}
	ts := setupServer(t, run, nil)

	resp := postProbe(t, ts.URL, `{"url":"example.com","method":"head","attempts":2}`, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	want := probe.Config{Target: "example.com", Method: probe.MethodHead, Attempts: 2, TimeoutMS: 5000, FollowRedirects: true}
	if diff := cmp.Diff(want, run.got); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}

	var out struct {
		ID          string        `json:"id"`
		Summary     probe.Summary `json:"summary"`
		SummaryLine string        `json:"summary_line"`
		Detail      string        `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != "id-1" || out.Summary.Attempts != 2 {
		t.Fatalf("unexpected body: %+v", out)
	}
	if out.SummaryLine != "Min: 4 ms, Max: 6 ms, Avg: 5.0 ms" {
		t.Fatalf("summary line %q", out.SummaryLine)
	}
	if !strings.HasPrefix(out.Detail, "Response Code: 204") {
		t.Fatalf("detail %q", out.Detail)
	}
}

func TestProbe_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		want    int
		wantDNS bool
	}{
		{"invalid input", &probe.InvalidInputError{}, http.StatusBadRequest, false},
		{"config", &probe.ConfigError{Field: "attempts", Reason: "out of range"}, http.StatusBadRequest, false},
		{"transport", &probe.TransportError{Err: errors.New("connection refused")}, http.StatusBadGateway, true},
		{"timeout", &probe.TransportError{Err: probe.ErrReadTimeout}, http.StatusGatewayTimeout, true},
	}
	for _, c := range cases {
		ts := setupServer(t, &fakeRunner{err: c.err}, nil)
		resp := postProbe(t, ts.URL, `{"url":"nope.invalid"}`, "")
		if resp.StatusCode != c.want {
			t.Fatalf("%s: want %d, got %d", c.name, c.want, resp.StatusCode)
		}
		var out ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s: decode: %v", c.name, err)
		}
		if out.Error == "" || !strings.HasPrefix(out.Detail, "Error occurred: ") {
			t.Fatalf("%s: unexpected error body %+v", c.name, out)
		}
		if c.wantDNS != (out.DNS != nil) {
			t.Fatalf("%s: dns hint presence wrong: %+v", c.name, out.DNS)
		}
		if out.DNS != nil && (out.DNS.Class != probe.DNSNXDomain || out.DNS.Host != "nope.invalid") {
			t.Fatalf("%s: dns hint %+v", c.name, out.DNS)
		}
	}
}

func TestProbe_BadPayload(t *testing.T) {
	ts := setupServer(t, &fakeRunner{}, nil)
	resp := postProbe(t, ts.URL, `{"url":`, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
}

func TestProbe_OversizedPayload(t *testing.T) {
	run := &fakeRunner{res: &probe.Result{}}
	ts := setupServer(t, run, nil)
	body := `{"url":"` + strings.Repeat("a", maxRequestBytes) + `"}`
	resp := postProbe(t, ts.URL, body, "")
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", resp.StatusCode)
	}
	if run.got.Target != "" {
		t.Fatalf("runner should not be called for oversized payload")
	}
}

func TestProbe_RequiresKey(t *testing.T) {
	ts := setupServer(t, &fakeRunner{res: &probe.Result{}}, []string{"key_test"})
	if resp := postProbe(t, ts.URL, `{"url":"x"}`, ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 without key, got %d", resp.StatusCode)
	}
	if resp := postProbe(t, ts.URL, `{"url":"x"}`, "key_test"); resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200 with key, got %d", resp.StatusCode)
	}
}

func TestProbe_EndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "yes")
		w.Write([]byte("hello"))
	}))
	defer upstream.Close()

	ts := setupServer(t, probe.NewProber(zap.NewNop()), nil)
	resp := postProbe(t, ts.URL, `{"url":"`+upstream.URL+`","attempts":2,"timeout_ms":2000}`, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var out struct {
		URL         string         `json:"url"`
		DurationsMS []int64        `json:"durations_ms"`
		Snapshot    probe.Snapshot `json:"snapshot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.URL != upstream.URL || len(out.DurationsMS) != 2 {
		t.Fatalf("unexpected result: %+v", out)
	}
	if out.Snapshot.StatusCode != 200 || out.Snapshot.BodyPreview != "hello" {
		t.Fatalf("unexpected snapshot: %+v", out.Snapshot)
	}
}
