package stats

import (
	"math"
	"sort"
	"strings"
	"time"

	"campusportal/portal/internal/api"
)

// TrendWindow is how many points of the cumulative series are charted.
const TrendWindow = 15

// RecentWindow is how many of the newest records are listed.
const RecentWindow = 5

type AttendanceRecord struct {
	Date   time.Time
	Status string
}

// Point is one day of the cumulative attendance series.
type Point struct {
	Date    string  `json:"date"`
	Percent float64 `json:"pct"`
}

type Level string

const (
	Good Level = "good"
	Warn Level = "warn"
	Bad  Level = "bad"
)

type Summary struct {
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Total   int     `json:"total"`
	Percent float64 `json:"percentage"`
	Level   Level   `json:"level"`
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// ParseDate accepts a plain date or a full timestamp.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RecordsFromAPI converts backend records. Undated records keep a zero date and
// sort before every dated one.
func RecordsFromAPI(in []api.AttendanceRecord) []AttendanceRecord {
	out := make([]AttendanceRecord, 0, len(in))
	for _, r := range in {
		d, _ := ParseDate(r.Date)
		out = append(out, AttendanceRecord{Date: d, Status: r.Status})
	}
	return out
}

// IsPresent treats the short code "P" like "Present".
func IsPresent(status string) bool {
	return status == "Present" || status == "P"
}

// CumulativeAttendance returns, for each record in date order, the percentage
// of present days up to and including it, rounded to two decimals.
func CumulativeAttendance(records []AttendanceRecord) []Point {
	sorted := byDate(records, false)
	points := make([]Point, 0, len(sorted))
	present := 0
	for i, r := range sorted {
		if IsPresent(r.Status) {
			present++
		}
		points = append(points, Point{
			Date:    r.Date.Format("2006-01-02"),
			Percent: round2(float64(present) / float64(i+1) * 100),
		})
	}
	return points
}

// LastPoints keeps the trailing n points.
func LastPoints(points []Point, n int) []Point {
	if n <= 0 {
		return []Point{}
	}
	if len(points) > n {
		return points[len(points)-n:]
	}
	return points
}

// OverallPercent is the final cumulative value, or 0 with no records.
func OverallPercent(points []Point) float64 {
	if len(points) == 0 {
		return 0
	}
	return points[len(points)-1].Percent
}

func ClassifyAttendance(percent float64) Level {
	switch {
	case percent >= 75:
		return Good
	case percent >= 50:
		return Warn
	default:
		return Bad
	}
}

func AttendanceSummary(records []AttendanceRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		if IsPresent(r.Status) {
			s.Present++
		}
	}
	s.Absent = s.Total - s.Present
	if s.Total > 0 {
		s.Percent = round2(float64(s.Present) / float64(s.Total) * 100)
	}
	s.Level = ClassifyAttendance(s.Percent)
	return s
}

// PresentStreak counts consecutive present days ending at the newest record.
func PresentStreak(records []AttendanceRecord) int {
	streak := 0
	for _, r := range byDate(records, true) {
		if !IsPresent(r.Status) {
			break
		}
		streak++
	}
	return streak
}

// RecentRecords returns up to n records, newest first.
func RecentRecords(records []AttendanceRecord, n int) []AttendanceRecord {
	sorted := byDate(records, true)
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func byDate(records []AttendanceRecord, newestFirst bool) []AttendanceRecord {
	sorted := make([]AttendanceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if newestFirst {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
