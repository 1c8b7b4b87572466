package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/shuleni/backend/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateAttendance(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.attendance {
		if existing.StudentID == att.StudentID && existing.Date.Equal(att.Date) {
			return attendance.Attendance{}, attendance.ErrAlreadyMarked
		}
	}
	att.ID = uuid.New().String()
	repo.db.attendance[att.ID] = &att
	return att, nil
}

func (repo *attendanceRepository) FilterAttendance(_ context.Context, f attendance.Filter) ([]attendance.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]attendance.Attendance, 0)
	for _, att := range repo.db.attendance {
		if len(f.StudentIDs) > 0 && !contains(f.StudentIDs, att.StudentID) {
			continue
		}
		if f.TeacherID != "" && att.TeacherID != f.TeacherID {
			continue
		}
		if !f.Start.IsZero() && att.Date.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && att.Date.After(f.End) {
			continue
		}
		rows = append(rows, *att)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}
