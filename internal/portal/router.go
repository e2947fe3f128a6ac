package portal

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/carelink/internal/client/locale"
	"github.com/dmitrijs2005/carelink/internal/client/models"
	"github.com/dmitrijs2005/carelink/internal/logging"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server renders the portal pages. It has no client storage: the locale
// manager it is given is non-interactive and the session is read from the
// mirror cookie on every request.
type Server struct {
	locale   *locale.Manager
	log      logging.Logger
	metrics  *Metrics
	gatherer prometheus.Gatherer
	signIn   string
}

type Option func(*Server)

func WithSignInPath(p string) Option {
	return func(s *Server) {
		if p != "" {
			s.signIn = p
		}
	}
}

// WithMetrics records portal metrics into reg and serves reg on /metrics.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = NewMetrics(reg)
		s.gatherer = reg
	}
}

func NewServer(loc *locale.Manager, log logging.Logger, opts ...Option) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Server{locale: loc, log: log.With("module", "portal"), signIn: "/login"}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router wires the pages, guards and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleHome)
	r.Get(s.signIn, s.handleLogin)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireRole(s.signIn, s.log, s.metrics, models.RoleAdmin))
		r.Get("/*", s.handleDashboard)
	})
	r.Route("/doctor", func(r chi.Router) {
		r.Use(RequireRole(s.signIn, s.log, s.metrics, models.RoleDoctor))
		r.Get("/*", s.handleDashboard)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithRequestID(r.Context(), chimw.GetReqID(r.Context()))
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		s.log.Debug(ctx, "request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}
