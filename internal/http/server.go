package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"cruscotto/internal/dashboard"
	"cruscotto/internal/feed"
	"cruscotto/internal/log"
	"cruscotto/internal/middleware/ratelimit"
	"cruscotto/internal/middleware/security"
	"cruscotto/internal/middleware/trace"
	"cruscotto/internal/render"
	appweb "cruscotto/web"
)

// Options configures NewServer.
type Options struct {
	Addr string

	Dashboard *dashboard.Dashboard
	// Surfaces are the surfaces present in the page markup.
	Surfaces []string
	Format   render.Format
	Width    int
	Height   int

	// Feed, when set, is mounted under /api.
	Feed *feed.Store

	RateLimitPerMinute int
	// TrustedProxies may set the client address through forwarding
	// headers. Empty means loopback only.
	TrustedProxies []string
	Logger         *log.Logger
}

// Server serves the dashboard page, single charts and the optional fixture
// endpoints.
type Server struct {
	http.Server
	templates *template.Template
	dash      *dashboard.Dashboard
	surfaces  []string
	format    render.Format
	width     int
	height    int

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	ready        atomic.Bool
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) (*Server, error) {
	if opts.Dashboard == nil {
		return nil, errors.New("http: dashboard is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Format == "" {
		opts.Format = render.FormatSVG
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	detector, err := security.NewDetector(opts.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	s := &Server{
		templates: t,
		dash:      opts.Dashboard,
		surfaces:  opts.Surfaces,
		format:    opts.Format,
		width:     opts.Width,
		height:    opts.Height,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  detector,
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts.Logger, opts.Feed, static),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.ready.Store(true)
	return s, nil
}

func (s *Server) routes(logger *log.Logger, store *feed.Store, static fs.FS) chi.Router {
	r := chi.NewRouter()
	r.Use(
		log.Middleware(logger),
		s.tracer.Middleware,
		trace.LoggerMiddleware,
		log.ComponentMiddleware(log.ComponentHTTP),
		s.detector.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
	)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.With(security.CacheControl(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	if store != nil {
		r.Route("/api", func(r chi.Router) {
			r.Use(log.ComponentMiddleware(log.ComponentFeed))
			r.Mount("/", store.Routes())
		})
	}

	// Every page load fans out into one fetch per chart.
	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP), security.CacheControl(0))
		r.Get("/", s.handleIndex)
		r.Get("/charts/{surface}", s.handleChart)
	})

	return r
}

// Shutdown stops accepting page loads, then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.ready.Store(false)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("shutting down"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
