package stats

import (
	"strconv"
	"strings"
	"time"

	"campusportal/portal/internal/role"
)

const maxSemester = 8

// AcademicSemester derives the current semester of a student from class_id.
//
// A value of 1 to 4 is a year level; a four digit value is an admission year.
// July to December is the odd half of the academic year. ok is false for
// other roles, missing or unreadable input, and results outside 1..8.
func AcademicSemester(r role.Role, classID string, now time.Time) (sem int, ok bool) {
	if r != role.Student {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(classID))
	if err != nil {
		return 0, false
	}
	odd := now.Month() >= time.July
	switch {
	case n >= 1 && n <= 4:
		sem = n * 2
		if odd {
			sem--
		}
	case n >= 1000 && n <= 9999:
		academicYear := now.Year() - n + 1
		sem = academicYear * 2
		if odd {
			sem--
		} else {
			sem -= 2
		}
	default:
		return 0, false
	}
	if sem < 1 || sem > maxSemester {
		return 0, false
	}
	return sem, true
}

// SemesterLabel renders AcademicSemester, using "-" when undefined.
func SemesterLabel(r role.Role, classID string, now time.Time) string {
	if sem, ok := AcademicSemester(r, classID, now); ok {
		return strconv.Itoa(sem)
	}
	return "-"
}
