package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core/attendance"
)

var attendanceColumns = []string{"id", "date", "status", "student_id", "teacher_id", "created_at"}

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	att.ID = uuid.New().String()
	q, args, err := psql.Insert("attendance").
		Columns(attendanceColumns...).
		Values(att.ID, att.Date, att.Status, att.StudentID, att.TeacherID, att.CreatedAt).
		ToSql()
	if err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		// the (student_id, date) unique index is the authoritative
		// duplicate signal
		if isUniqueViolation(err, "attendance_student_date_key") {
			return attendance.Attendance{}, attendance.ErrAlreadyMarked
		}
		if isForeignKeyViolation(err) {
			return attendance.Attendance{}, attendance.ErrNotFound
		}
		return attendance.Attendance{}, errors.Wrap(err, "creating attendance")
	}
	return att, nil
}

func (repo *attendanceRepository) FilterAttendance(ctx context.Context, f attendance.Filter) ([]attendance.Attendance, error) {
	query := psql.Select(attendanceColumns...).From("attendance").OrderBy("date ASC, created_at ASC")
	if len(f.StudentIDs) > 0 {
		query = query.Where(sq.Eq{"student_id": f.StudentIDs})
	}
	if f.TeacherID != "" {
		query = query.Where(sq.Eq{"teacher_id": f.TeacherID})
	}
	if !f.Start.IsZero() {
		query = query.Where(sq.GtOrEq{"date": f.Start})
	}
	if !f.End.IsZero() {
		query = query.Where(sq.LtOrEq{"date": f.End})
	}

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	rows := []attendance.Attendance{}
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	return rows, nil
}
