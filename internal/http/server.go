package http

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
	"bilancio/internal/session"
	appweb "bilancio/web"
)

// Deps are the collaborators the HTTP layer drives.
type Deps struct {
	Auth         *services.AuthService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Aggregator   *services.Aggregator
	Sessions     *session.Manager

	// Ready reports whether the store answers; nil skips the check.
	Ready func(context.Context) error

	Logger    *log.Logger
	RateLimit ratelimit.Config
	// Now is the clock for export filenames and month defaults; nil means time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server

	views        *views
	auth         *services.AuthService
	categories   *services.CategoryService
	transactions *services.TransactionService
	aggregator   *services.Aggregator
	sessions     *session.Manager
	ready        func(context.Context) error
	now          func() time.Time

	logger           *log.Logger
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	started          time.Time

	shutdownOnce sync.Once
}

// authedHandler is a handler that runs only for a signed-in user.
type authedHandler func(w http.ResponseWriter, r *http.Request, id core.Identity)

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, d Deps) (*Server, error) {
	v, err := loadViews(appweb.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	logger := d.Logger
	if logger == nil {
		logger = log.Discard()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	rl := d.RateLimit
	if rl.RequestsPerMinute <= 0 {
		rl = ratelimit.DefaultConfig()
	}

	s := &Server{
		views:            v,
		auth:             d.Auth,
		categories:       d.Categories,
		transactions:     d.Transactions,
		aggregator:       d.Aggregator,
		sessions:         d.Sessions,
		ready:            d.Ready,
		now:              now,
		logger:           logger.WithComponent(log.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(rl),
		securityDetector: security.NewDetector(logger),
		started:          time.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.middleware(s.routes()),
	}
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.CacheFor(time.Hour)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /logout", s.handleLogout)

	mux.Handle("GET /{$}", s.requireAuth(s.handleDashboard))
	mux.Handle("GET /charts/expenses.png", s.requireAuth(s.handleExpenseChart))

	mux.Handle("GET /transactions", s.requireAuth(s.handleTransactions))
	mux.Handle("POST /transactions", s.requireAuth(s.handleCreateTransaction))
	mux.Handle("GET /transactions/{id}/edit", s.requireAuth(s.handleEditTransactionForm))
	mux.Handle("POST /transactions/{id}/edit", s.requireAuth(s.handleUpdateTransaction))
	mux.Handle("POST /delete_transaction/{id}", s.requireAuth(s.handleDeleteTransaction))

	mux.Handle("GET /categories", s.requireAuth(s.handleCategories))
	mux.Handle("POST /categories", s.requireAuth(s.handleCreateCategory))
	mux.Handle("GET /categories/{id}/edit", s.requireAuth(s.handleEditCategoryForm))
	mux.Handle("POST /categories/{id}/edit", s.requireAuth(s.handleUpdateCategory))
	mux.Handle("POST /delete_category/{id}", s.requireAuth(s.handleDeleteCategory))

	mux.Handle("GET /reports", s.requireAuth(s.handleReports))
	mux.Handle("GET /reports/monthly.png", s.requireAuth(s.handleMonthlyChart))
	mux.Handle("GET /export/{format}", s.requireAuth(s.handleExport))

	mux.Handle("GET /settings", s.requireAuth(s.handleSettings))
	mux.Handle("POST /settings/password", s.requireAuth(s.handleChangePassword))

	mux.HandleFunc("/", s.notFound)
	return mux
}

// middleware wraps the router; the first entry runs outermost.
func (s *Server) middleware(h http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		s.securityDetector.Middleware,
		s.traceMiddleware.Middleware,
		log.Middleware(s.logger, trace.RequestIDFrom),
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited, http.MethodPost),
		s.sessions.Middleware,
	}
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

// requireAuth lets only signed-in users through and checks the CSRF token of
// every POST against the session.
func (s *Server) requireAuth(next authedHandler) http.Handler {
	return security.NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			s.fail(w, r, core.ErrUnauthenticated, "/login")
			return
		}
		ctx := r.Context()
		logger := log.FromContext(ctx).With(log.FieldUserID, sess.Identity.UserID)
		ctx = log.NewContext(ctx, logger)
		r = r.WithContext(ctx)

		if r.Method == http.MethodPost && !session.ValidCSRF(r, sess) {
			logger.WarnContext(ctx, "CSRF token mismatch",
				log.FieldPath, r.URL.Path,
				log.FieldComponent, log.ComponentSecurity)
			NewResponse(nil).Status(http.StatusForbidden).Text("Invalid or missing CSRF token.").Write(w)
			return
		}
		next(w, r, sess.Identity)
	}))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	NewResponse(nil).Status(http.StatusTooManyRequests).Text("Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
