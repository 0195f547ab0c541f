package utils

import (
	"testing"
	"time"
)

func TestParseDate_Layouts(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"2025-12-05", "2025-12-05T00:00:00Z"},
		{"2025-12-05T10:30:00Z", "2025-12-05T10:30:00Z"},
		{"2025-12-05T16:00:00+05:30", "2025-12-05T10:30:00Z"},
		{"2025/12/05", "2025-12-05T00:00:00Z"},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if err != nil {
			t.Fatalf("ParseDate(%q) error: %v", tc.in, err)
		}
		if got.Format(time.RFC3339) != tc.expected {
			t.Fatalf("ParseDate(%q) expected %s, got %s", tc.in, tc.expected, got.Format(time.RFC3339))
		}
	}

	for _, bad := range []string{"", "yesterday", "05-12-2025"} {
		if _, err := ParseDate(bad); !IsValidationError(err) {
			t.Fatalf("ParseDate(%q) expected validation error, got %v", bad, err)
		}
	}
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		period string
		start  string
		end    string
	}{
		{PeriodThisMonth, "2026-03-01", "2026-03-31"},
		{PeriodLastMonth, "2026-02-01", "2026-02-28"},
		{PeriodLast3Months, "2026-01-01", "2026-03-31"},
		{PeriodThisYear, "2026-01-01", "2026-12-31"},
	}
	for _, tc := range cases {
		start, end, err := PeriodRange(tc.period, now)
		if err != nil {
			t.Fatalf("PeriodRange(%q) error: %v", tc.period, err)
		}
		if start.Format(DateLayout) != tc.start || end.Format(DateLayout) != tc.end {
			t.Fatalf("PeriodRange(%q) expected %s..%s, got %s..%s", tc.period, tc.start, tc.end, start.Format(DateLayout), end.Format(DateLayout))
		}
	}

	start, end, err := PeriodRange("all", now)
	if err != nil || start != nil || end != nil {
		t.Fatalf("expected open range for all, got %v %v %v", start, end, err)
	}
	if _, _, err := PeriodRange("fortnight", now); !IsValidationError(err) {
		t.Fatalf("expected validation error for unknown period, got %v", err)
	}
}

func TestLastMonthAcrossYearBoundary(t *testing.T) {
	now := time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC)
	start, end, err := PeriodRange(PeriodLastMonth, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Format(DateLayout) != "2025-12-01" || end.Format(DateLayout) != "2025-12-31" {
		t.Fatalf("expected December 2025, got %s..%s", start.Format(DateLayout), end.Format(DateLayout))
	}
}
