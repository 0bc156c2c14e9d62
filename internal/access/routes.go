package access

import "campusportal/portal/internal/role"

// Route is a guarded page under the route prefix.
type Route struct {
	Path  string
	Label string
	Roles role.Set
}

var (
	teaching = []role.Role{role.Staff, role.CA, role.HOD}
	leaders  = []role.Role{role.CA, role.HOD, role.Principal}
)

// routes is the single permission table. Nested paths are listed on their own
// and never inherit from their parent.
var routes = []Route{
	{Path: "dashboard", Label: "Dashboard", Roles: role.NewSet(role.Student, role.Staff, role.CA, role.HOD, role.Principal, role.Admin)},
	{Path: "profile", Roles: role.NewSet(role.All...)},
	{Path: "students", Label: "Students", Roles: role.NewSet(role.CA, role.HOD, role.Principal, role.Admin)},
	{Path: "faculty", Label: "Faculty", Roles: role.NewSet(role.HOD, role.Principal, role.Admin)},

	{Path: "attendance", Label: "Attendance", Roles: role.NewSet(role.Staff, role.Student, role.CA, role.HOD)},
	{Path: "attendance/view", Roles: role.NewSet(role.Student)},
	{Path: "attendance/mark", Roles: role.NewSet(teaching...)},
	{Path: "attendance/reports", Roles: role.NewSet(teaching...)},
	{Path: "attendance/manage", Roles: role.NewSet(role.HOD)},

	{Path: "marks", Label: "Marks", Roles: role.NewSet(role.Staff, role.Principal, role.Student, role.CA, role.HOD)},
	{Path: "marks/enter", Roles: role.NewSet(teaching...)},
	{Path: "marks/view", Roles: role.NewSet(role.Student, role.Staff, role.CA, role.HOD, role.Principal)},
	{Path: "marks/overview", Roles: role.NewSet(role.Principal)},
	{Path: "marks/analysis", Roles: role.NewSet(role.HOD, role.Principal)},
	{Path: "marks/top", Roles: role.NewSet(leaders...)},

	{Path: "fees", Label: "Fees", Roles: role.NewSet(role.Staff, role.Principal, role.FA, role.Student, role.CA, role.HOD)},
	{Path: "fees/analytics", Roles: role.NewSet(role.FA, role.Principal)},
	{Path: "fees/history", Roles: role.NewSet(role.FA, role.Principal, role.Student)},
	{Path: "fees/payment", Roles: role.NewSet(role.FA)},

	{Path: "late", Label: "Late arrival", Roles: role.NewSet(leaders...)},
	{Path: "reports", Label: "Reports", Roles: role.NewSet(leaders...)},
	{Path: "SecurityLateEntry", Label: "Security late entry", Roles: role.NewSet(role.Security)},
	{Path: "mess", Label: "Mess", Roles: role.NewSet(role.FA, role.Admin)},
	{Path: "timetable", Label: "Timetable", Roles: role.NewSet(role.Student, role.Staff, role.CA, role.HOD)},
}

// public paths are reachable without a session.
var public = []string{"home", "forgotpassword", "resetpassword"}

var byPath = func() map[string]Route {
	m := make(map[string]Route, len(routes))
	for _, r := range routes {
		m[r.Path] = r
	}
	return m
}()

// Routes returns a copy of the permission table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}
