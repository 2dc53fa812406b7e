package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taxis/internal/cache"
	"taxis/internal/core"
	"taxis/internal/log"
	"taxis/internal/middleware/ratelimit"
	"taxis/internal/middleware/security"
	"taxis/internal/middleware/trace"
	"taxis/internal/observability/metrics"
	"taxis/internal/services"
	appweb "taxis/web"
)

const (
	// storeTimeout bounds store reads made while serving a request.
	storeTimeout = 7 * time.Second

	defaultCacheSize = 200
	defaultCacheTTL  = 5 * time.Minute
	cacheCleanup     = 10 * time.Minute
)

// Reloader owns the loaded snapshot.
type Reloader interface {
	Reload(ctx context.Context) error
	Loaded() bool
	LastLoad() (time.Time, int)
	OnReload(fn func())
}

// Options configures NewServer. Reports and Exports are required.
type Options struct {
	Addr     string
	Reports  *services.ReportService
	Exports  *services.ExportService
	Reloader Reloader
	Logger   *log.Logger

	CacheSize int
	CacheTTL  time.Duration
	// ReloadLimit caps POST requests per client per minute.
	ReloadLimit int
}

type Server struct {
	http.Server
	templates *template.Template
	reports   *services.ReportService
	exports   *services.ExportService
	reloader  Reloader
	logger    *log.Logger

	reportCache *cache.LRUCache[core.Report]
	caches      *cache.Manager
	limiter     *ratelimit.Limiter
	clientIP    *security.ClientIP

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		templates:   parseTemplates(logger),
		reports:     opts.Reports,
		exports:     opts.Exports,
		reloader:    opts.Reloader,
		logger:      logger,
		reportCache: cache.NewLRUCache[core.Report](opts.CacheSize, opts.CacheTTL),
		caches:      cache.NewManager(),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{Requests: opts.ReloadLimit}),
		clientIP:    security.NewClientIP(),
	}

	s.caches.Register(s.reportCache)
	s.caches.StartCleanup(cacheCleanup)
	if s.reloader != nil {
		s.reloader.OnReload(s.reportCache.Purge)
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	limited := s.limiter.Middleware(s.clientIP.Extract)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ui/destinations", s.handleDestinations)
	mux.HandleFunc("GET /ui/report", s.handleReport)
	mux.HandleFunc("GET /export/report", s.handleExportReport)
	mux.HandleFunc("GET /export/global", s.handleExportGlobal)
	mux.Handle("POST /export/global/queue", limited(http.HandlerFunc(s.handleQueueExport)))
	mux.Handle("POST /reload", limited(http.HandlerFunc(s.handleReload)))

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(s.clientIP.Extract, metrics.ObserveHTTP).Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func parseTemplates(logger *log.Logger) *template.Template {
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
		return nil
	}
	return t
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// report returns the cached report for destination, aggregating on a miss.
// The load is shared by concurrent callers, so it is not cancelled with
// the caller that started it; storeTimeout still bounds it.
func (s *Server) report(ctx context.Context, destination string) (core.Report, error) {
	r, hit, err := s.reportCache.GetOrLoad(destination, func() (core.Report, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
		defer cancel()
		rep, err := s.reports.ForDestination(cctx, destination)
		if err != nil {
			return core.Report{}, err
		}
		return *rep, nil
	})
	metrics.IncCacheLookup(hit)
	if hit {
		log.FromContext(ctx).DebugContext(ctx, "Report cache hit", log.FieldDestination, destination)
	}
	return r, err
}
