package stats

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"campusportal/portal/internal/api"
)

// Clock is a time of day as seconds from midnight.
type Clock int

// ParseClock reads "HH:MM" or "HH:MM:SS".
func ParseClock(value string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	limits := []int{23, 59, 59}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time %q", value)
		}
		total = total*60 + n
	}
	if len(parts) == 2 {
		total *= 60
	}
	return Clock(total), nil
}

// ClockOf returns the local time of day of t.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/3600, int(c)%3600/60)
}

// TimetableEntry is one class of today's schedule. A class whose end is not
// after its start (one spanning midnight) is never considered ongoing.
type TimetableEntry struct {
	Start   Clock
	End     Clock
	Subject string
	Room    string
}

// TimetableFromAPI parses backend entries, dropping those with unreadable times.
func TimetableFromAPI(in []api.TimetableEntry) []TimetableEntry {
	out := make([]TimetableEntry, 0, len(in))
	for _, e := range in {
		start, err := ParseClock(e.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(e.EndTime)
		if err != nil {
			continue
		}
		out = append(out, TimetableEntry{Start: start, End: end, Subject: e.Subject, Room: e.Room})
	}
	return out
}

func (e TimetableEntry) Ongoing(now Clock) bool {
	return e.Start <= now && now < e.End
}

func (e TimetableEntry) Upcoming(now Clock) bool {
	return e.Start > now
}

const (
	StatusOngoing  = "Ongoing"
	StatusFinished = "Finished"
)

// Countdown renders the entry's state at now with whole-minute granularity.
func Countdown(e TimetableEntry, now Clock) string {
	switch {
	case e.Ongoing(now):
		return StatusOngoing
	case e.Upcoming(now):
		minutes := int(e.Start-now) / 60
		if h := minutes / 60; h > 0 {
			return fmt.Sprintf("%dh %dm", h, minutes%60)
		}
		return fmt.Sprintf("%dm", minutes)
	default:
		return StatusFinished
	}
}

// NextOrOngoingClass prefers a class in progress, then the first one still to start.
func NextOrOngoingClass(entries []TimetableEntry, now Clock) (TimetableEntry, bool) {
	for _, e := range entries {
		if e.Ongoing(now) {
			return e, true
		}
	}
	for _, e := range entries {
		if e.Upcoming(now) {
			return e, true
		}
	}
	return TimetableEntry{}, false
}

// NextClassLabel is the header text for the schedule: "Now" while a class
// runs, the countdown to the next one, or "N/A" when nothing is left today.
func NextClassLabel(entries []TimetableEntry, now Clock) string {
	next, ok := NextOrOngoingClass(entries, now)
	if !ok {
		return "N/A"
	}
	if next.Ongoing(now) {
		return "Now"
	}
	return Countdown(next, now)
}
