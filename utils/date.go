package utils

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// ParseDate accepts a calendar date or a timestamp and returns it in UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, NewValidationError("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, NewValidationError("invalid date: " + value)
}

// IsDateOnly is true for plain YYYY-MM-DD values.
func IsDateOnly(value string) bool {
	value = strings.TrimSpace(value)
	if len(value) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, value)
	return err == nil
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

const (
	PeriodAll         = "all"
	PeriodThisMonth   = "this_month"
	PeriodLastMonth   = "last_month"
	PeriodLast3Months = "last_3_months"
	PeriodThisYear    = "this_year"
)

// PeriodRange resolves a named reporting period relative to now.
// A nil bound means the range is open on that side.
func PeriodRange(period string, now time.Time) (*time.Time, *time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "", PeriodAll:
		return nil, nil, nil
	case PeriodThisMonth:
		start := StartOfMonth(now)
		end := EndOfMonth(now)
		return &start, &end, nil
	case PeriodLastMonth:
		start := StartOfMonth(now).AddDate(0, -1, 0)
		end := EndOfMonth(start)
		return &start, &end, nil
	case PeriodLast3Months:
		start := StartOfMonth(now).AddDate(0, -2, 0)
		end := EndOfMonth(now)
		return &start, &end, nil
	case PeriodThisYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location())
		end = EndOfDay(end)
		return &start, &end, nil
	default:
		return nil, nil, NewValidationError("invalid period: " + period)
	}
}
