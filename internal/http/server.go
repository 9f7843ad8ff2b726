package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"billed/internal/attachments"
	applog "billed/internal/log"
	"billed/internal/metrics"
	"billed/internal/middleware/ratelimit"
	"billed/internal/middleware/security"
	"billed/internal/middleware/trace"
	"billed/internal/services"
	"billed/internal/store"
	"billed/internal/ui"
	appweb "billed/web"
)

// Options tune the HTTP surface.
type Options struct {
	RateLimitPerMinute int
	MaxUploadBytes     int64

	// AttachmentDir is served under AttachmentBaseURL when both are set and
	// the base URL is a local path.
	AttachmentDir     string
	AttachmentBaseURL string

	// ImageSources are extra img-src origins, such as a bucket public URL.
	ImageSources   []string
	TrustedProxies []string
}

// Deps are the collaborators of the web server.
type Deps struct {
	Store     store.Store
	Uploader  attachments.Uploader
	Notifier  services.Notifier // optional
	Previewer ui.ImagePreviewer // optional, defaults to the proof modal template
	// Ping reports store reachability for /readyz. Nil means always ready.
	Ping   func(ctx context.Context) error
	Logger *slog.Logger
}

// Server serves the bills pages and their HTMX partials.
type Server struct {
	http.Server

	templates *template.Template
	deps      Deps
	opts      Options
	logger    *slog.Logger
	started   time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Uploader == nil {
		return nil, errors.New("uploader is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}

	t, err := ui.Parse(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}
	if deps.Previewer == nil {
		deps.Previewer = ui.NewTemplatePreviewer(t)
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		templates: t,
		deps:      deps,
		opts:      opts,
		logger:    applog.WithComponent(deps.Logger, applog.ComponentHTTP),
		started:   time.Now(),
		limiter:   ratelimit.NewLimiter(rlConfig),
		detector:  detector,
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		s.limiter.Stop()
		return nil, err
	}

	headersConfig := security.DefaultHeadersConfig()
	headersConfig.ImageSources = opts.ImageSources

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, rlConfig.Methods...)(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(headersConfig).Middleware(h)
	h = metrics.Middleware(h)
	h = trace.NewMiddleware(deps.Logger, detector.ExtractClientIP).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	if prefix, ok := s.localAttachmentPrefix(); ok {
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(s.opts.AttachmentDir)))
		mux.Handle("GET "+prefix, s.requireSession(files.ServeHTTP))
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /{$}", s.handleLoginPage)
	mux.HandleFunc("POST /{$}", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET "+services.RouteBills, s.requireSession(s.handleBillsPage))
	mux.HandleFunc("GET /ui/bills", s.requireSession(s.handleBillsPartial))
	mux.HandleFunc("GET /ui/proof", s.requireSession(s.handleProof))

	mux.HandleFunc("GET "+services.RouteNewBill, s.requireSession(s.handleNewBillPage))
	mux.HandleFunc("POST "+services.RouteNewBill, s.requireSession(s.handleCreateBill))
	mux.HandleFunc("POST /ui/file-check", s.requireSession(s.handleFileCheck))
	return nil
}

// localAttachmentPrefix returns the route prefix of locally stored proofs.
func (s *Server) localAttachmentPrefix() (string, bool) {
	base := strings.TrimRight(s.opts.AttachmentBaseURL, "/")
	if s.opts.AttachmentDir == "" || !strings.HasPrefix(base, "/") {
		return "", false
	}
	return base + "/", true
}

// Shutdown stops the rate limiter and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Run serves until ctx is cancelled, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("Shutting down HTTP server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"template", name,
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldError, err)
	}
}
