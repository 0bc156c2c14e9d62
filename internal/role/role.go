package role

// Role is the fixed category carried in a session's claims. The string values
// match what the backend puts in the token, including their mixed casing.
type Role string

const (
	Unknown   Role = ""
	Student   Role = "student"
	Staff     Role = "Staff"
	CA        Role = "CA"
	HOD       Role = "HOD"
	Principal Role = "Principal"
	FA        Role = "F&A"
	Security  Role = "Security"
	Admin     Role = "admin"
)

// All lists every known role in a stable order.
var All = []Role{Student, Staff, CA, HOD, Principal, FA, Security, Admin}

// Parse maps a claim value to a Role. Matching is exact; anything else is Unknown.
func Parse(value string) (Role, bool) {
	switch Role(value) {
	case Student, Staff, CA, HOD, Principal, FA, Security, Admin:
		return Role(value), true
	default:
		return Unknown, false
	}
}

func (r Role) Valid() bool {
	_, ok := Parse(string(r))
	return ok
}

func (r Role) String() string {
	if r == Unknown {
		return "unknown"
	}
	return string(r)
}

// Set is an unordered set of roles.
type Set map[Role]struct{}

func NewSet(roles ...Role) Set {
	set := make(Set, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has reports membership. Unknown is never a member.
func (s Set) Has(r Role) bool {
	if !r.Valid() {
		return false
	}
	_, ok := s[r]
	return ok
}
