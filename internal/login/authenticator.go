package login

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"campusportal/portal/internal/api"
	"campusportal/portal/internal/auth"
	"campusportal/portal/internal/captcha"
	"campusportal/portal/internal/session"
)

var (
	// ErrSubmissionInProgress is returned when a login is already being submitted.
	ErrSubmissionInProgress = errors.New("login_in_progress")
	// ErrCaptchaRequired is a local rejection; nothing is sent to the backend.
	ErrCaptchaRequired = errors.New("Please enter captcha")
	// ErrChallengeRenewed is returned when no challenge was held at submission.
	// A new one has been fetched and the user has to answer it.
	ErrChallengeRenewed = errors.New("Captcha expired. Please enter the new captcha")
)

const (
	msgLoginFailed = "Login failed"
	msgUnreachable = "Server unreachable. Please try again later."
)

type Kind int

const (
	InvalidCredentials Kind = iota + 1
	CaptchaRejected
	Unreachable
)

func (k Kind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid_credentials"
	case CaptchaRejected:
		return "captcha_rejected"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// AuthError is a failed login attempt. Message is safe to show to the user.
type AuthError struct {
	Kind    Kind
	Message string
}

func (e *AuthError) Error() string { return e.Message }

type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
	ServerUnreachable
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Succeeded:
		return "success"
	case Failed:
		return "failed"
	case ServerUnreachable:
		return "unreachable"
	default:
		return "idle"
	}
}

type Backend interface {
	Login(ctx context.Context, req api.LoginRequest) (api.LoginResponse, error)
}

type ChallengeSource interface {
	Fetch(ctx context.Context) (captcha.Challenge, error)
}

// Authenticator runs the login flow against the backend and owns the current
// captcha challenge. At most one submission is in flight at any time.
type Authenticator struct {
	backend  Backend
	captchas ChallengeSource
	sessions *session.Manager
	domain   string
	logger   *zap.Logger

	submit sync.Mutex

	mu        sync.Mutex
	state     State
	challenge *captcha.Challenge
}

func New(backend Backend, captchas ChallengeSource, sessions *session.Manager, domain string, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		backend:  backend,
		captchas: captchas,
		sessions: sessions,
		domain:   strings.TrimPrefix(domain, "@"),
		logger:   logger,
	}
}

// Challenge returns the current challenge, if any.
func (a *Authenticator) Challenge() (captcha.Challenge, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.challenge == nil {
		return captcha.Challenge{}, false
	}
	return *a.challenge, true
}

func (a *Authenticator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// RefreshChallenge discards the current challenge and fetches a new one.
func (a *Authenticator) RefreshChallenge(ctx context.Context) (captcha.Challenge, error) {
	a.setChallenge(nil)
	ch, err := a.captchas.Fetch(ctx)
	if err != nil {
		a.logger.Warn("auth_event", zap.String("event", "captcha_unavailable"), zap.Error(err))
		return captcha.Challenge{}, err
	}
	a.setChallenge(&ch)
	return ch, nil
}

// Login submits credentials with the current challenge. On success the
// decoded session is established and returned.
func (a *Authenticator) Login(ctx context.Context, username, password, captchaText string) (*session.Session, error) {
	if !a.submit.TryLock() {
		return nil, ErrSubmissionInProgress
	}
	defer a.submit.Unlock()

	if strings.TrimSpace(captchaText) == "" {
		return nil, ErrCaptchaRequired
	}
	ch, ok := a.Challenge()
	if !ok {
		if _, err := a.RefreshChallenge(ctx); err != nil {
			return nil, err
		}
		return nil, ErrChallengeRenewed
	}

	a.setState(Submitting)
	// A challenge is single use whatever the outcome.
	a.setChallenge(nil)

	email := qualify(username, a.domain)
	resp, err := a.backend.Login(ctx, api.LoginRequest{
		Email:       email,
		Password:    password,
		CaptchaID:   ch.ID,
		CaptchaText: captchaText,
	})
	if err != nil {
		return nil, a.fail(ctx, email, classify(err))
	}
	if resp.Token == "" {
		return nil, a.fail(ctx, email, rejection(resp.Message))
	}

	claims, err := auth.Decode(resp.Token)
	if err != nil {
		a.logger.Warn("auth_event", zap.String("event", "token_malformed"), zap.Error(err))
		return nil, a.fail(ctx, email, &AuthError{Kind: InvalidCredentials, Message: msgLoginFailed})
	}
	s, err := a.sessions.Establish(ctx, resp.Token, *claims)
	if err != nil {
		a.setState(Failed)
		a.refetch(ctx)
		return nil, fmt.Errorf("establish session: %w", err)
	}
	a.setState(Succeeded)
	a.logger.Info("auth_event",
		zap.String("event", "login_succeeded"),
		zap.String("email", email),
		zap.String("role", s.Role().String()),
	)
	return s, nil
}

// Logout clears the persisted session.
func (a *Authenticator) Logout(ctx context.Context) error {
	if err := a.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.setState(Idle)
	a.logger.Info("auth_event", zap.String("event", "logout"))
	return nil
}

func (a *Authenticator) fail(ctx context.Context, email string, authErr *AuthError) error {
	if authErr.Kind == Unreachable {
		a.setState(ServerUnreachable)
	} else {
		a.setState(Failed)
	}
	a.logger.Info("auth_event",
		zap.String("event", "login_failed"),
		zap.String("email", email),
		zap.String("kind", authErr.Kind.String()),
	)
	a.refetch(ctx)
	return authErr
}

// refetch replaces the consumed challenge after a failed attempt.
func (a *Authenticator) refetch(ctx context.Context) {
	if _, err := a.RefreshChallenge(ctx); err != nil {
		a.logger.Debug("captcha refetch after failed login", zap.Error(err))
	}
}

func (a *Authenticator) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *Authenticator) setChallenge(ch *captcha.Challenge) {
	a.mu.Lock()
	a.challenge = ch
	a.mu.Unlock()
}

func classify(err error) *AuthError {
	var fe *api.FetchError
	if errors.As(err, &fe) && !fe.Unreachable() {
		return rejection(fe.Message)
	}
	return &AuthError{Kind: Unreachable, Message: msgUnreachable}
}

func rejection(message string) *AuthError {
	if message == "" {
		return &AuthError{Kind: InvalidCredentials, Message: msgLoginFailed}
	}
	if strings.Contains(strings.ToLower(message), "captcha") {
		return &AuthError{Kind: CaptchaRejected, Message: message}
	}
	return &AuthError{Kind: InvalidCredentials, Message: message}
}
