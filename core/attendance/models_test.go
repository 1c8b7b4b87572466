package attendance

import (
	"testing"
	"time"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name           string
		present, total int
		want           float64
	}{
		{name: "empty total", present: 0, total: 0, want: 0},
		{name: "three of four", present: 3, total: 4, want: 75},
		{name: "all present", present: 2, total: 2, want: 100},
		{name: "none present", present: 0, total: 5, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.present, tt.total); got != tt.want {
				t.Errorf("Percentage(%d, %d) = %v, want %v", tt.present, tt.total, got, tt.want)
			}
		})
	}
}

func TestIsPresent(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: "present", want: true},
		{status: "Present", want: true},
		{status: "PRESENT", want: true},
		{status: " present ", want: true},
		{status: "absent", want: false},
		{status: "late", want: false},
		{status: "excused", want: false},
		{status: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := (Attendance{Status: tt.status}).IsPresent(); got != tt.want {
				t.Errorf("IsPresent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReportFilterDateRange(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name               string
		filter             ReportFilter
		wantStart, wantEnd time.Time
	}{
		{name: "unset"},
		{
			name:      "month and year",
			filter:    ReportFilter{Month: 5, Year: 2024},
			wantStart: date(2024, time.May, 1),
			wantEnd:   date(2024, time.May, 31),
		},
		{
			name:      "explicit range only",
			filter:    ReportFilter{Start: date(2024, time.May, 10), End: date(2024, time.June, 2)},
			wantStart: date(2024, time.May, 10),
			wantEnd:   date(2024, time.June, 2),
		},
		{
			name:      "explicit range narrows month",
			filter:    ReportFilter{Month: 5, Year: 2024, Start: date(2024, time.May, 10), End: date(2024, time.May, 20)},
			wantStart: date(2024, time.May, 10),
			wantEnd:   date(2024, time.May, 20),
		},
		{
			name:      "explicit range outside month cannot widen it",
			filter:    ReportFilter{Month: 5, Year: 2024, Start: date(2024, time.April, 1), End: date(2024, time.June, 30)},
			wantStart: date(2024, time.May, 1),
			wantEnd:   date(2024, time.May, 31),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.filter.DateRange()
			if !start.Equal(tt.wantStart) {
				t.Errorf("DateRange() start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("DateRange() end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}
