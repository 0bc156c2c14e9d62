package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"campusportal/portal/internal/access"
	"campusportal/portal/internal/auth"
	"campusportal/portal/internal/captcha"
	"campusportal/portal/internal/login"
	"campusportal/portal/internal/stats"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
	Captcha  string `json:"captcha"`
}

type loginResponse struct {
	User     sessionUser `json:"user"`
	Redirect string      `json:"redirect"`
	Warning  string      `json:"warning,omitempty"`
}

type sessionUser struct {
	Claims     auth.Claims `json:"claims"`
	Role       string      `json:"role"`
	Identifier string      `json:"identifier"`
	Semester   string      `json:"semester"`
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *sessionUser `json:"user,omitempty"`
}

type homeResponse struct {
	Authenticated bool               `json:"authenticated"`
	Captcha       *captcha.Challenge `json:"captcha,omitempty"`
	Reachable     bool               `json:"reachable"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	resp := homeResponse{
		Authenticated: s.sessions.Current() != nil,
		Reachable:     !s.status.Unreachable(),
	}
	if !resp.Authenticated {
		if ch, err := s.currentChallenge(r); err == nil {
			resp.Captcha = &ch
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCaptcha(w http.ResponseWriter, r *http.Request) {
	ch, err := s.currentChallenge(r)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "captcha_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) handleRefreshCaptcha(w http.ResponseWriter, r *http.Request) {
	ch, err := s.auth.RefreshChallenge(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "captcha_unavailable")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) currentChallenge(r *http.Request) (captcha.Challenge, error) {
	if ch, ok := s.auth.Challenge(); ok {
		return ch, nil
	}
	return s.auth.RefreshChallenge(r.Context())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeValid(r, &req); err != nil {
		writeInvalid(w, err)
		return
	}
	username := login.NormalizeUsername(req.Username, s.cfg.InstitutionDomain)

	current, err := s.auth.Login(r.Context(), username.Value, req.Password, req.Captcha)
	if err != nil {
		var authErr *login.AuthError
		switch {
		case errors.Is(err, login.ErrSubmissionInProgress):
			writeError(w, http.StatusConflict, "login_in_progress")
		case errors.Is(err, login.ErrCaptchaRequired):
			writeErrorMessage(w, http.StatusBadRequest, "captcha_required", err.Error())
		case errors.Is(err, login.ErrChallengeRenewed):
			writeErrorMessage(w, http.StatusConflict, "captcha_renewed", err.Error())
		case errors.Is(err, captcha.ErrChallengeUnavailable):
			writeError(w, http.StatusServiceUnavailable, "captcha_unavailable")
		case errors.As(err, &authErr) && authErr.Kind == login.Unreachable:
			writeErrorMessage(w, http.StatusServiceUnavailable, authErr.Kind.String(), authErr.Message)
		case errors.As(err, &authErr):
			writeErrorMessage(w, http.StatusUnauthorized, authErr.Kind.String(), authErr.Message)
		default:
			s.logger.Error("login failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		User:     s.describe(current.Claims),
		Redirect: s.guard.Prefix() + "/dashboard",
		Warning:  username.Warning,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context()); err != nil {
		s.logger.Error("logout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.Header().Set("Location", s.guard.HomePath())
	writeJSON(w, http.StatusOK, map[string]string{"redirect": s.guard.HomePath()})
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	current := s.sessions.Current()
	if current == nil {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	user := s.describe(current.Claims)
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: &user})
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r)
	writeJSON(w, http.StatusOK, map[string][]access.NavItem{"items": s.guard.Navigation(current.Role())})
}

func (s *Server) handleConnectivity(w http.ResponseWriter, _ *http.Request) {
	reachable := !s.status.Unreachable()
	resp := map[string]interface{}{"reachable": reachable}
	if !reachable {
		resp["message"] = "Server unreachable. Please try again later."
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) describe(claims auth.Claims) sessionUser {
	current := claimsRole(claims)
	return sessionUser{
		Claims:     claims,
		Role:       current.String(),
		Identifier: claims.Identifier(),
		Semester:   stats.SemesterLabel(current, claims.ClassID.String(), s.now()),
	}
}
