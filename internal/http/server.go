package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"gymdesk/internal/cache"
	applog "gymdesk/internal/log"
	"gymdesk/internal/middleware/ratelimit"
	"gymdesk/internal/middleware/security"
	"gymdesk/internal/middleware/trace"
	"gymdesk/internal/report"
	"gymdesk/internal/services"
	appweb "gymdesk/web"
)

// cachedSummary is one memoized reporting result.
type cachedSummary struct {
	Summary    report.IncomeSummary
	Resolution report.Resolution
}

type appMetrics struct {
	uptime            time.Time
	totalTransactions int64
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *applog.Logger

	membership *services.MembershipService
	reports    *services.ReportService

	// Gym served when the request carries no explicit gym parameter.
	defaultGymID string

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	headersMW        *security.HeadersMiddleware
	traceMW          *trace.Middleware

	summaryCache *cache.LRUCache[cachedSummary]
	cacheManager *cache.Manager

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, membership *services.MembershipService, reports *services.ReportService, defaultGymID string, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	mux := http.NewServeMux()

	s := &Server{
		membership:       membership,
		reports:          reports,
		defaultGymID:     defaultGymID,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		securityDetector: security.NewDetector(),
		headersMW:        security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		summaryCache:     cache.NewLRUCache[cachedSummary](100, 30*time.Second),
		cacheManager:     cache.NewManager(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMW = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.protect(s.handleIndex))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// UI partials
	mux.HandleFunc("/ui/income-stats", s.protect(s.handleIncomeStats))
	mux.HandleFunc("/ui/transactions", s.protect(s.handleRecentTransactions))
	mux.HandleFunc("/ui/members", s.protect(s.handleListMembers))
	mux.HandleFunc("/ui/plans", s.protect(s.handleListPlans))
	mux.HandleFunc("/ui/checkins", s.protect(s.handleRecentCheckIns))

	// Mutations
	mux.HandleFunc("/transactions", s.protect(s.handleRecordPayment))
	mux.HandleFunc("/members", s.protect(s.handleCreateMember))
	mux.HandleFunc("/members/deactivate", s.protect(s.handleDeactivateMember))
	mux.HandleFunc("/plans", s.protect(s.handleCreatePlan))
	mux.HandleFunc("/subscriptions", s.protect(s.handleSubscribe))
	mux.HandleFunc("/checkins", s.protect(s.handleCheckIn))

	handler := s.traceMW.Middleware(s.headersMW.Middleware(mux))
	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}

	return s
}

// protect applies suspicious-request detection and rate limiting for
// mutating methods.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := s.securityDetector.ExtractClientIP(r)

		if s.securityDetector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request blocked",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if r.Method == http.MethodPost && !s.rateLimiter.Allow(clientIP) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next(w, r)
	}
}

// gymID resolves the facility a request targets.
func (s *Server) gymID(r *http.Request) string {
	if v := sanitizeInput(r.URL.Query().Get("gym")); v != "" {
		return v
	}
	if v := sanitizeInput(r.FormValue("gym")); v != "" {
		return v
	}
	return s.defaultGymID
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
