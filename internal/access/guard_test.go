package access

import (
	"errors"
	"testing"

	"campusportal/portal/internal/auth"
	"campusportal/portal/internal/role"
	"campusportal/portal/internal/session"
)

func sessionFor(r string) *session.Session {
	return &session.Session{Token: "t", Claims: auth.Claims{Role: r}}
}

func TestCanAccessTable(t *testing.T) {
	cases := []struct {
		role  role.Role
		route string
		want  bool
	}{
		{role.Student, "dashboard", true},
		{role.Student, "students", false},
		{role.Student, "attendance/view", true},
		{role.Staff, "attendance/view", false},
		{role.Staff, "attendance/mark", true},
		{role.HOD, "attendance/manage", true},
		{role.CA, "attendance/manage", false},
		{role.FA, "fees/payment", true},
		{role.Principal, "fees/payment", false},
		{role.Student, "fees/history", true},
		{role.Principal, "marks/overview", true},
		{role.HOD, "marks/overview", false},
		{role.Security, "SecurityLateEntry", true},
		{role.Security, "dashboard", false},
		{role.Security, "profile", true},
		{role.Admin, "mess", true},
		{role.Admin, "students", true},
		{role.FA, "dashboard", false},
		{role.Student, "nonexistent", false},
	}
	for _, tc := range cases {
		if got := CanAccess(tc.role, tc.route); got != tc.want {
			t.Fatalf("CanAccess(%s, %s) = %v, want %v", tc.role, tc.route, got, tc.want)
		}
	}
}

func TestUnknownRoleDeniedEverywhere(t *testing.T) {
	for _, r := range []role.Role{role.Unknown, role.Role("superuser"), role.Role("Student")} {
		for _, route := range Routes() {
			if CanAccess(r, route.Path) {
				t.Fatalf("role %q must not reach %s", r, route.Path)
			}
		}
	}
}

func TestNestedRoutesIndependentOfParent(t *testing.T) {
	// Staff may open attendance but not attendance/view.
	if !CanAccess(role.Staff, "attendance") || CanAccess(role.Staff, "attendance/view") {
		t.Fatalf("nested route must not inherit from its parent")
	}
	if CanAccess(role.Admin, "fees") || CanAccess(role.Admin, "fees/analytics") {
		t.Fatalf("admin has no fee routes")
	}
}

func TestDecide(t *testing.T) {
	g := NewGuard("/Erp_Mnmjec")

	d := g.Decide(nil, "/Erp_Mnmjec/dashboard")
	if d.Outcome != RedirectLogin || d.Redirect != "/Erp_Mnmjec/home" {
		t.Fatalf("unauthenticated must redirect home, got %+v", d)
	}
	if d := g.Decide(sessionFor("student"), "/Erp_Mnmjec/dashboard"); d.Outcome != Allow {
		t.Fatalf("student dashboard: %+v", d)
	}
	if d := g.Decide(sessionFor("student"), "/Erp_Mnmjec/students"); d.Outcome != NotFound {
		t.Fatalf("forbidden must look like not found: %+v", d)
	}
	if d := g.Decide(sessionFor("student"), "/Erp_Mnmjec/no-such-page"); d.Outcome != NotFound {
		t.Fatalf("unknown route: %+v", d)
	}
	if d := g.Decide(sessionFor("wizard"), "/Erp_Mnmjec/profile"); d.Outcome != NotFound {
		t.Fatalf("unknown role must be denied: %+v", d)
	}
	if d := g.Decide(nil, "/Erp_Mnmjec/resetpassword/abc123"); d.Outcome != Allow {
		t.Fatalf("reset link is public: %+v", d)
	}
	if d := g.Decide(nil, "/Erp_Mnmjec/resetpassword"); d.Outcome != RedirectLogin {
		t.Fatalf("reset without token is not public: %+v", d)
	}
	if d := g.Decide(sessionFor("student"), "/other/dashboard"); d.Outcome != NotFound {
		t.Fatalf("outside prefix: %+v", d)
	}
}

func TestDecideReevaluatesAfterRoleChange(t *testing.T) {
	g := NewGuard("/Erp_Mnmjec")
	s := sessionFor("CA")
	if d := g.Decide(s, "/Erp_Mnmjec/students"); d.Outcome != Allow {
		t.Fatalf("CA students: %+v", d)
	}
	s.Claims.Role = "student"
	if d := g.Decide(s, "/Erp_Mnmjec/students"); d.Outcome != NotFound {
		t.Fatalf("student students: %+v", d)
	}
}

func TestCheckForbiddenError(t *testing.T) {
	err := Check(role.Student, "mess")
	var fe *ForbiddenError
	if !errors.As(err, &fe) || fe.Route != "mess" {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
	if err := Check(role.FA, "mess"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNavigation(t *testing.T) {
	g := NewGuard("/Erp_Mnmjec")
	items := g.Navigation(role.Security)
	if len(items) != 1 || items[0].Path != "/Erp_Mnmjec/SecurityLateEntry" {
		t.Fatalf("unexpected security nav %+v", items)
	}
	for _, item := range g.Navigation(role.Student) {
		route, _ := g.Route(item.Path)
		if !CanAccess(role.Student, route) {
			t.Fatalf("nav offers forbidden route %s", item.Path)
		}
	}
	if items := g.Navigation(role.Unknown); len(items) != 0 {
		t.Fatalf("unknown role gets no navigation, got %+v", items)
	}
}
