package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hamed0406/urlpinger/internal/config"
	apimw "github.com/hamed0406/urlpinger/internal/httpapi/middleware"
	"github.com/hamed0406/urlpinger/internal/probe"
)

// Runner executes one probe invocation.
type Runner interface {
	Run(ctx context.Context, cfg probe.Config) (*probe.Result, error)
}

type Server struct {
	Logger   *zap.Logger
	Prober   Runner
	Defaults config.ProbeDefaults
	// Resolver backs the DNS hint on transport failures; nil uses the OS resolver.
	Resolver probe.Resolver
}

func NewServer(l *zap.Logger, p Runner, defaults config.ProbeDefaults) *Server {
	return &Server{Logger: l, Prober: p, Defaults: defaults}
}

// Router mounts the API. keys guards /api (empty = open), origins feeds CORS
// (empty = allow all) and rpm/burst rate-limit probe requests per client IP.
func (s *Server) Router(keys, origins []string, rpm, burst int) http.Handler {
	r := chi.NewRouter()
	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RequireKey(keys))
		r.With(apimw.RateLimit(rpm, burst)).Post("/probe", s.handleProbe)
	})

	return r
}

// ProbeRequest is the POST /api/probe body. Nil fields take the defaults.
type ProbeRequest struct {
	URL             string  `json:"url"`
	Method          *string `json:"method,omitempty"`
	Attempts        *int    `json:"attempts,omitempty"`
	TimeoutMS       *int    `json:"timeout_ms,omitempty"`
	FollowRedirects *bool   `json:"follow_redirects,omitempty"`
}

// Config merges the request over defaults.
func (p ProbeRequest) Config(d config.ProbeDefaults) probe.Config {
	cfg := d.ProbeConfig(p.URL)
	if p.Method != nil {
		cfg.Method = probe.Method(strings.ToUpper(*p.Method))
	}
	if p.Attempts != nil {
		cfg.Attempts = *p.Attempts
	}
	if p.TimeoutMS != nil {
		cfg.TimeoutMS = *p.TimeoutMS
	}
	if p.FollowRedirects != nil {
		cfg.FollowRedirects = *p.FollowRedirects
	}
	return cfg
}

// ProbeResponse is returned on success.
type ProbeResponse struct {
	*probe.Result
	SummaryLine string `json:"summary_line"`
	Detail      string `json:"detail"`
}

// maxRequestBytes caps the POST /api/probe body.
const maxRequestBytes = 1 << 16

// ErrorResponse is returned on any failure.
type ErrorResponse struct {
	Error  string           `json:"error"`
	Detail string           `json:"detail"`
	DNS    *probe.DNSStatus `json:"dns,omitempty"`
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "payload too large", Detail: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad payload", Detail: err.Error()})
		return
	}
	var p ProbeRequest
	if err := json.Unmarshal(body, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad payload", Detail: err.Error()})
		return
	}

	cfg := p.Config(s.Defaults)
	res, err := s.Prober.Run(r.Context(), cfg)
	if err != nil {
		s.writeProbeError(w, r, cfg, err)
		return
	}

	s.Logger.Info("api_probe",
		zap.String("probe_id", res.ID),
		zap.String("url", res.URL),
		zap.Int("status", res.Snapshot.StatusCode),
		zap.Float64("avg_ms", res.Summary.AvgMS),
	)
	writeJSON(w, http.StatusOK, ProbeResponse{
		Result:      res,
		SummaryLine: res.SummaryLine(),
		Detail:      res.Detail(),
	})
}

func (s *Server) writeProbeError(w http.ResponseWriter, r *http.Request, cfg probe.Config, err error) {
	summary, detail := probe.FormatError(err)
	resp := ErrorResponse{Error: summary, Detail: detail}

	status := http.StatusBadRequest
	var te *probe.TransportError
	if errors.As(err, &te) {
		status = http.StatusBadGateway
		if te.Timeout() {
			status = http.StatusGatewayTimeout
		}
		// If the HTTP probe failed, classify DNS for the host
		target, _ := probe.NormalizeTarget(cfg.Target)
		dns := probe.DiagnoseHost(r.Context(), s.Resolver, probe.HostOf(target))
		resp.DNS = &dns

		s.Logger.Info("dns_check",
			zap.String("host", dns.Host),
			zap.String("class", string(dns.Class)),
			zap.Strings("ips", dns.IPs),
			zap.Strings("nameservers", dns.Nameservers),
			zap.String("resolver_error", dns.ResolverError),
		)
	}

	s.Logger.Info("api_probe_failed",
		zap.String("url", cfg.Target),
		zap.Int("status", status),
		zap.Error(err),
	)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
