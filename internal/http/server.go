package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campusportal/portal/internal/access"
	"campusportal/portal/internal/api"
	"campusportal/portal/internal/config"
	"campusportal/portal/internal/dashboard"
	"campusportal/portal/internal/login"
	"campusportal/portal/internal/session"
)

// Connectivity is the backend reachability flag kept by the status monitor.
type Connectivity interface {
	Unreachable() bool
}

type Server struct {
	cfg       config.Config
	logger    *zap.Logger
	sessions  *session.Manager
	auth      *login.Authenticator
	backend   *api.Client
	guard     *access.Guard
	dashboard *dashboard.Loader
	status    Connectivity
	validate  *validator.Validate
	now       func() time.Time
}

func NewServer(cfg config.Config, logger *zap.Logger, sessions *session.Manager, authn *login.Authenticator, backend *api.Client, status Connectivity) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		sessions:  sessions,
		auth:      authn,
		backend:   backend,
		guard:     access.NewGuard(cfg.RoutePrefix),
		dashboard: dashboard.NewLoader(backend, logger),
		status:    status,
		validate:  validator.New(),
		now:       time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	portal := func(r chi.Router) {
		r.Get("/home", s.handleHome)
		r.Get("/captcha", s.handleGetCaptcha)
		r.Post("/captcha/refresh", s.handleRefreshCaptcha)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/session", s.handleSession)
		r.Get("/connectivity", s.handleConnectivity)
		r.With(s.requireSession).Get("/nav", s.handleNav)

		r.With(s.requireRoute("dashboard")).Get("/dashboard", s.handleDashboard)
		r.With(s.requireRoute("profile")).Get("/profile", s.handleProfile)
		r.With(s.requireRoute("attendance/view")).Get("/attendance/view", s.handleAttendanceView)
		r.With(s.requireRoute("timetable")).Get("/timetable", s.handleTimetable)

		r.With(s.requireRoute("fees")).Get("/fees", s.handleFees)
		r.With(s.requireRoute("fees/analytics")).Get("/fees/analytics", s.handleFeesAnalytics)
		r.With(s.requireRoute("fees/history")).Get("/fees/history/{regNo}", s.handleFeesHistory)
		r.With(s.requireRoute("fees/payment")).Post("/fees/payment/{regNo}", s.handleFeesPayment)

		r.With(s.requireRoute("students")).Get("/students", s.handleStudents)
		r.With(s.requireRoute("students")).Put("/students/{studentId}", s.handleUpdateStudent)

		r.With(s.requireRoute("mess")).Get("/mess/{view}", s.handleMessView)
		r.With(s.requireRoute("mess")).Post("/mess/save", s.handleMessSave)
		r.With(s.requireRoute("mess")).Post("/mess/payment", s.handleMessPayment)
	}
	if prefix := s.guard.Prefix(); prefix != "" {
		r.Route(prefix, portal)
	} else {
		r.Group(portal)
	}

	return r
}

// Guard

// requireRoute runs the route guard for every request; nothing is cached
// between requests, so a role change applies on the next call.
func (s *Server) requireRoute(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current := s.sessions.Current()
			decision := s.guard.Decide(current, s.guard.Prefix()+"/"+route)
			switch decision.Outcome {
			case access.Allow:
				next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), current)))
			case access.RedirectLogin:
				w.Header().Set("Location", decision.Redirect)
				writeError(w, http.StatusFound, "login_required")
			default:
				s.logger.Debug("route denied", zap.String("route", route), zap.String("role", current.Role().String()))
				writeNotFound(w)
			}
		})
	}
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := s.sessions.Current()
		if current == nil {
			w.Header().Set("Location", s.guard.HomePath())
			writeError(w, http.StatusFound, "login_required")
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), current)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Helpers

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

// decodeValid decodes the body and runs its validate tags.
func (s *Server) decodeValid(r *http.Request, out interface{}) error {
	if err := decodeJSON(r, out); err != nil {
		return err
	}
	return s.validate.Struct(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeErrorMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// writeNotFound is shared by unknown routes and forbidden ones so the two
// cannot be told apart.
func writeNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not_found")
}

func writeInvalid(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = fe.Tag()
	}
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid_request", "fields": fields})
}

// writeUpstream maps a backend failure to a portal response.
func (s *Server) writeUpstream(w http.ResponseWriter, err error) {
	var fe *api.FetchError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request_cancelled")
	case errors.As(err, &fe) && fe.Unreachable():
		writeError(w, http.StatusServiceUnavailable, "backend_unreachable")
	case errors.As(err, &fe) && (fe.Status == http.StatusUnauthorized || fe.Status == http.StatusForbidden || fe.Status == http.StatusNotFound):
		writeErrorMessage(w, fe.Status, "upstream_error", fe.Message)
	default:
		s.logger.Warn("backend call failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream_error")
	}
}

// rawOrNull keeps empty backend bodies valid JSON.
func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
