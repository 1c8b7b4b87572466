package attendance

import (
	"strings"
	"time"
)

// StatusPresent is the one status value that counts toward a report's present
// tally; every other value only grows the total.
const StatusPresent = "present"

// Attendance is a single mark: one row per (student, calendar date).
type Attendance struct {
	ID        string    `json:"id" db:"id"`
	Date      time.Time `json:"date" db:"date"` // calendar date, UTC midnight
	Status    string    `json:"status" db:"status"`
	StudentID string    `json:"student_id" db:"student_id"`
	TeacherID string    `json:"teacher_id" db:"teacher_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

// IsPresent compares the status case-insensitively.
func (a Attendance) IsPresent() bool {
	return strings.EqualFold(strings.TrimSpace(a.Status), StatusPresent)
}

// NewAttendance contains information needed to mark attendance.
type NewAttendance struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

// ReportFilter narrows report aggregation. Month/year applies first; an
// explicit start/end range then narrows further.
type ReportFilter struct {
	Month int       `json:"month" query:"month" validate:"omitempty,min=1,max=12"`
	Year  int       `json:"year" query:"year" validate:"omitempty,min=1"`
	Start time.Time `json:"start_date" query:"start_date"`
	End   time.Time `json:"end_date" query:"end_date"`
}

// DateRange collapses the filter into a single inclusive range. Zero bounds
// mean unbounded.
func (f ReportFilter) DateRange() (start, end time.Time) {
	if f.Month != 0 && f.Year != 0 {
		start = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	}
	if !f.Start.IsZero() && f.Start.After(start) {
		start = f.Start
	}
	if !f.End.IsZero() && (end.IsZero() || f.End.Before(end)) {
		end = f.End
	}
	return start, end
}

type (
	// StudentReport aggregates one student's marks.
	StudentReport struct {
		StudentID    string  `json:"student_id"`
		StudentName  string  `json:"student_name,omitempty"`
		PresentCount int     `json:"present_count"`
		AbsentCount  int     `json:"absent_count"`
		TotalCount   int     `json:"total_count"`
		Percentage   float64 `json:"attendance_percentage"`
	}

	// ClassReport aggregates a whole class.
	ClassReport struct {
		ClassID      string  `json:"class_id"`
		ClassName    string  `json:"class_name,omitempty"`
		PresentCount int     `json:"present_count"`
		TotalCount   int     `json:"total_count"`
		Percentage   float64 `json:"attendance_percentage"`
	}

	// SchoolReport aggregates a school as per-class summaries plus an
	// overall percentage.
	SchoolReport struct {
		SchoolID          string        `json:"school_id"`
		Classes           []ClassReport `json:"classes"`
		PresentCount      int           `json:"present_count"`
		TotalCount        int           `json:"total_count"`
		OverallPercentage float64       `json:"overall_percentage"`
	}

	// StudentRecord is a raw mark joined with the student's name, the shape
	// of class-level listings and exports.
	StudentRecord struct {
		StudentName string    `json:"student_name"`
		Date        time.Time `json:"date"`
		Status      string    `json:"status"`
	}

	// ClassAttendance groups a class's raw records, one group per class in
	// multi-class exports.
	ClassAttendance struct {
		ClassID   string          `json:"class_id"`
		ClassName string          `json:"class_name"`
		Records   []StudentRecord `json:"records"`
	}
)

// Percentage is present/total*100, and 0 rather than NaN on an empty total.
func Percentage(present, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}
