package valueobject

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidClock is returned when a time of day is not in HH:MM form
var ErrInvalidClock = errors.New("invalid time of day, expected HH:MM")

// ErrInvalidWindow is returned when an opening-hours string cannot be parsed
var ErrInvalidWindow = errors.New("invalid time window, expected \"HH:MM às HH:MM\"")

// windowSeparators are tried in order when splitting an opening-hours string
var windowSeparators = []string{" às ", " as ", "-"}

// Clock is a time of day with minute precision, stored as minutes since midnight
type Clock int

// ParseClock parses "HH:MM" (24h)
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 || len(h) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(hour*60 + minute), nil
}

// ClockOf returns the time of day of t in t's location
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// String renders the clock as HH:MM
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// TimeWindow is a daily window between two clocks. Start after End means the
// window crosses midnight.
type TimeWindow struct {
	Start Clock
	End   Clock
}

// NewTimeWindow builds a window from two HH:MM strings
func NewTimeWindow(start, end string) (TimeWindow, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeWindow{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeWindow{}, err
	}
	return TimeWindow{Start: s, End: e}, nil
}

// ParseTimeWindow parses strings such as "17:00 às 23:00" or "18:00-02:00"
func ParseTimeWindow(s string) (TimeWindow, error) {
	s = strings.TrimSpace(s)
	for _, sep := range windowSeparators {
		start, end, ok := strings.Cut(s, sep)
		if !ok {
			continue
		}
		w, err := NewTimeWindow(start, end)
		if err != nil {
			return TimeWindow{}, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
		}
		return w, nil
	}
	return TimeWindow{}, fmt.Errorf("%w: %q", ErrInvalidWindow, s)
}

// Overnight reports whether the window crosses midnight
func (w TimeWindow) Overnight() bool {
	return w.Start > w.End
}

// Includes reports whether c is inside the window, both bounds included
func (w TimeWindow) Includes(c Clock) bool {
	if w.Overnight() {
		return c >= w.Start || c <= w.End
	}
	return c >= w.Start && c <= w.End
}

// Contains reports whether c is inside [Start, End)
func (w TimeWindow) Contains(c Clock) bool {
	if w.Start == w.End {
		return false
	}
	if w.Overnight() {
		return c >= w.Start || c < w.End
	}
	return c >= w.Start && c < w.End
}

// String renders the window the way store hours are displayed
func (w TimeWindow) String() string {
	return w.Start.String() + " às " + w.End.String()
}
