package http

import (
	"encoding/json"
	"net/http"

	"campusportal/portal/internal/auth"
	"campusportal/portal/internal/role"
	"campusportal/portal/internal/session"
	"campusportal/portal/internal/stats"
)

func sessionFrom(r *http.Request) *session.Session {
	return session.FromContext(r.Context())
}

func claimsRole(claims auth.Claims) role.Role {
	r, _ := role.Parse(claims.Role)
	return r
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r)
	payload, err := s.dashboard.Load(r.Context(), current.Role(), current.Token)
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

type profileResponse struct {
	Profile    json.RawMessage `json:"profile"`
	Identifier string          `json:"identifier"`
	Semester   string          `json:"semester"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r)
	raw, err := s.backend.Profile(r.Context(), current.Token)
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	user := s.describe(current.Claims)
	writeJSON(w, http.StatusOK, profileResponse{
		Profile:    rawOrNull(raw),
		Identifier: user.Identifier,
		Semester:   user.Semester,
	})
}

type recordView struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type attendanceResponse struct {
	Summary stats.Summary `json:"summary"`
	Trend   []stats.Point `json:"trend"`
	Overall float64       `json:"overall"`
	Level   stats.Level   `json:"level"`
	Streak  int           `json:"streak"`
	Recent  []recordView  `json:"recent"`
}

func (s *Server) handleAttendanceView(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r)
	id := current.Claims.RollNumber()
	if id == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing_identifier")
		return
	}
	raw, err := s.backend.StudentAttendance(r.Context(), current.Token, id)
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	records := stats.RecordsFromAPI(raw)
	points := stats.CumulativeAttendance(records)
	overall := stats.OverallPercent(points)

	recent := []recordView{}
	for _, rec := range stats.RecentRecords(records, stats.RecentWindow) {
		recent = append(recent, recordView{Date: rec.Date.Format("2006-01-02"), Status: rec.Status})
	}
	writeJSON(w, http.StatusOK, attendanceResponse{
		Summary: stats.AttendanceSummary(records),
		Trend:   stats.LastPoints(points, stats.TrendWindow),
		Overall: overall,
		Level:   stats.ClassifyAttendance(overall),
		Streak:  stats.PresentStreak(records),
		Recent:  recent,
	})
}

type classView struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Subject   string `json:"subject"`
	Room      string `json:"room"`
	Status    string `json:"status"`
	Next      bool   `json:"next"`
}

type timetableResponse struct {
	Classes   []classView `json:"classes"`
	NextClass string      `json:"nextClass"`
}

func (s *Server) handleTimetable(w http.ResponseWriter, r *http.Request) {
	current := sessionFrom(r)
	raw, err := s.backend.TimetableToday(r.Context(), current.Token)
	if err != nil {
		s.writeUpstream(w, err)
		return
	}
	entries := stats.TimetableFromAPI(raw)
	now := stats.ClockOf(s.now())
	next, hasNext := stats.NextOrOngoingClass(entries, now)

	classes := make([]classView, 0, len(entries))
	for _, e := range entries {
		classes = append(classes, classView{
			StartTime: e.Start.String(),
			EndTime:   e.End.String(),
			Subject:   e.Subject,
			Room:      e.Room,
			Status:    stats.Countdown(e, now),
			Next:      hasNext && e == next,
		})
	}
	writeJSON(w, http.StatusOK, timetableResponse{
		Classes:   classes,
		NextClass: stats.NextClassLabel(entries, now),
	})
}
