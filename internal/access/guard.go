package access

import (
	"fmt"
	"strings"

	"campusportal/portal/internal/role"
	"campusportal/portal/internal/session"
)

// Outcome is the guard's verdict for a navigation.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	default:
		return "not_found"
	}
}

type Decision struct {
	Outcome  Outcome
	Route    string
	Redirect string
}

// ForbiddenError is never shown to users; forbidden routes render as not found.
type ForbiddenError struct {
	Route string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("route %q not permitted", e.Route)
}

// Guard evaluates navigations under a route prefix.
type Guard struct {
	prefix string
}

func NewGuard(prefix string) *Guard {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	return &Guard{prefix: prefix}
}

func (g *Guard) Prefix() string { return g.prefix }

// HomePath is where unauthenticated users are sent.
func (g *Guard) HomePath() string { return g.prefix + "/home" }

// Route strips the prefix and slashes from an absolute path. ok is false when
// the path is outside the prefix.
func (g *Guard) Route(path string) (string, bool) {
	if g.prefix != "" {
		if path != g.prefix && !strings.HasPrefix(path, g.prefix+"/") {
			return "", false
		}
		path = strings.TrimPrefix(path, g.prefix)
	}
	return strings.Trim(path, "/"), true
}

// Decide is evaluated on every navigation; nothing is cached between calls.
func (g *Guard) Decide(s *session.Session, path string) Decision {
	route, ok := g.Route(path)
	if !ok {
		return Decision{Outcome: NotFound, Route: path}
	}
	if IsPublic(route) {
		return Decision{Outcome: Allow, Route: route}
	}
	if s == nil || s.Token == "" {
		return Decision{Outcome: RedirectLogin, Route: route, Redirect: g.HomePath()}
	}
	if err := Check(s.Role(), route); err != nil {
		return Decision{Outcome: NotFound, Route: route}
	}
	return Decision{Outcome: Allow, Route: route}
}

// CanAccess reports whether r may open route. Unknown roles and unknown
// routes are always denied.
func CanAccess(r role.Role, route string) bool {
	entry, ok := byPath[strings.Trim(route, "/")]
	return ok && entry.Roles.Has(r)
}

// Check is CanAccess as an error.
func Check(r role.Role, route string) error {
	if !CanAccess(r, route) {
		return &ForbiddenError{Route: route}
	}
	return nil
}

// IsPublic reports whether route needs no session. resetpassword takes a
// single token segment.
func IsPublic(route string) bool {
	route = strings.Trim(route, "/")
	head, rest, nested := strings.Cut(route, "/")
	for _, p := range public {
		if head != p {
			continue
		}
		if p == "resetpassword" {
			return nested && rest != "" && !strings.Contains(rest, "/")
		}
		return !nested
	}
	return false
}
