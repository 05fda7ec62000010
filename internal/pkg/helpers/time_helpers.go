package helpers

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		// Use the global logger here, the component logger may not be configured yet.
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// DateRange names one of the preset windows of the request and audit filters
type DateRange string

const (
	RangeAll      DateRange = "all"
	RangeToday    DateRange = "today"
	RangeWeek     DateRange = "week"
	RangeMonth    DateRange = "month"
	RangeQuarter  DateRange = "3months"
	RangeHalfYear DateRange = "6months"
	RangeYear     DateRange = "year"
	RangeCustom   DateRange = "custom"
)

const dateOnlyLayout = "2006-01-02"

// DateRangeOptions is the select-box order of the presets.
var DateRangeOptions = []struct {
	Value DateRange
	Label string
}{
	{RangeAll, "All Time"},
	{RangeToday, "Today"},
	{RangeWeek, "Last 7 Days"},
	{RangeMonth, "Last 30 Days"},
	{RangeQuarter, "Last 3 Months"},
	{RangeHalfYear, "Last 6 Months"},
	{RangeYear, "Last Year"},
	{RangeCustom, "Custom Range"},
}

// Window is a half-open time interval [From, To). A zero bound is unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// ResolveDateRange turns a preset (or a custom YYYY-MM-DD pair) into a Window relative to now.
// The custom end date is inclusive.
func ResolveDateRange(r DateRange, customFrom, customTo string, now time.Time) (Window, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch r {
	case "", RangeAll:
		return Window{}, nil
	case RangeToday:
		return Window{From: startOfDay}, nil
	case RangeWeek:
		return Window{From: now.AddDate(0, 0, -7)}, nil
	case RangeMonth:
		return Window{From: now.AddDate(0, 0, -30)}, nil
	case RangeQuarter:
		return Window{From: now.AddDate(0, -3, 0)}, nil
	case RangeHalfYear:
		return Window{From: now.AddDate(0, -6, 0)}, nil
	case RangeYear:
		return Window{From: now.AddDate(-1, 0, 0)}, nil
	case RangeCustom:
		var w Window
		if customFrom != "" {
			from, err := time.ParseInLocation(dateOnlyLayout, customFrom, now.Location())
			if err != nil {
				return Window{}, fmt.Errorf("invalid start date %q", customFrom)
			}
			w.From = from
		}
		if customTo != "" {
			to, err := time.ParseInLocation(dateOnlyLayout, customTo, now.Location())
			if err != nil {
				return Window{}, fmt.Errorf("invalid end date %q", customTo)
			}
			w.To = to.AddDate(0, 0, 1)
		}
		if !w.From.IsZero() && !w.To.IsZero() && !w.From.Before(w.To) {
			return Window{}, fmt.Errorf("start date must not be after end date")
		}
		return w, nil
	default:
		return Window{}, fmt.Errorf("unknown date range %q", r)
	}
}

// ParseTimestamp reads the API's timestamp formats. The zero time is returned for empty input.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", dateOnlyLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatDate renders t as "02 Jan 2006"; zero renders as "-".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

// FormatDateTime renders t as "02 Jan 2006, 15:04"; zero renders as "-".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006, 15:04")
}
