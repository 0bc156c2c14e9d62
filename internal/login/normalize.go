package login

import "strings"

// Normalized is the username field value after input-time cleanup.
type Normalized struct {
	Value   string
	Warning string
}

// NormalizeUsername strips a typed "@<domain>" suffix or a trailing bare "@".
// The domain is appended again at submission, so users only type the local part.
func NormalizeUsername(input, domain string) Normalized {
	domain = strings.TrimPrefix(domain, "@")
	suffix := "@" + domain
	switch {
	case domain != "" && strings.HasSuffix(strings.ToLower(input), strings.ToLower(suffix)):
		return Normalized{
			Value:   input[:len(input)-len(suffix)],
			Warning: "No need to type " + suffix + ", it is added automatically",
		}
	case strings.HasSuffix(input, "@"):
		return Normalized{
			Value:   strings.TrimSuffix(input, "@"),
			Warning: "Only enter your username, the domain is added automatically",
		}
	}
	return Normalized{Value: input}
}

// qualify appends the institution domain when the username has none.
func qualify(username, domain string) string {
	username = strings.TrimSpace(username)
	if strings.Contains(username, "@") {
		return username
	}
	return username + "@" + strings.TrimPrefix(domain, "@")
}
