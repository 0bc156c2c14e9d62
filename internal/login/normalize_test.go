package login

import "testing"

func TestNormalizeUsername(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		warning bool
	}{
		{"jdoe", "jdoe", false},
		{"jdoe@mnmjec.ac.in", "jdoe", true},
		{"jdoe@MNMJEC.AC.IN", "jdoe", true},
		{"jdoe@", "jdoe", true},
		{"jdoe@other.com", "jdoe@other.com", false},
	}
	for _, tc := range cases {
		got := NormalizeUsername(tc.in, "mnmjec.ac.in")
		if got.Value != tc.want {
			t.Fatalf("%q: got %q want %q", tc.in, got.Value, tc.want)
		}
		if (got.Warning != "") != tc.warning {
			t.Fatalf("%q: unexpected warning %q", tc.in, got.Warning)
		}
	}
}

func TestQualify(t *testing.T) {
	if got := qualify(" jdoe ", "mnmjec.ac.in"); got != "jdoe@mnmjec.ac.in" {
		t.Fatalf("got %q", got)
	}
	if got := qualify("jdoe@other.com", "mnmjec.ac.in"); got != "jdoe@other.com" {
		t.Fatalf("got %q", got)
	}
}
