package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shuleni/backend/core"
	"github.com/shuleni/backend/core/principal"
	"github.com/shuleni/backend/core/school"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyMarked = errors.New("attendance already marked for this student today")
)

type (
	// Filter narrows raw attendance queries. Zero fields are ignored; an
	// explicit empty StudentIDs set is the caller's responsibility to
	// short-circuit.
	Filter struct {
		StudentIDs []string
		TeacherID  string
		Start      time.Time // inclusive
		End        time.Time // inclusive
	}

	Repository interface {
		// CreateAttendance returns ErrAlreadyMarked when a row already
		// exists for the same (student, calendar date).
		CreateAttendance(ctx context.Context, att Attendance) (Attendance, error)
		FilterAttendance(ctx context.Context, f Filter) ([]Attendance, error)
	}

	// Directory is the slice of the school service the reporting engine
	// needs: scope resolution and id -> entity lookups.
	Directory interface {
		SchoolForAdmin(ctx context.Context, adminID string) (school.School, error)
		GetStudentForAdmin(ctx context.Context, adminID, id string) (school.Student, error)
		GetClassForAdmin(ctx context.Context, adminID, id string) (school.Class, error)
		ClassesForAdmin(ctx context.Context, adminID string) ([]school.Class, error)

		GetSchoolByID(ctx context.Context, id string) (school.School, error)
		ClassesForSchool(ctx context.Context, schoolID string) ([]school.Class, error)
		StudentsForSchool(ctx context.Context, schoolID string) ([]school.Student, error)
		StudentsForClass(ctx context.Context, classID string) ([]school.Student, error)

		StudentForTeacher(ctx context.Context, teacherID, studentID string) (school.Student, error)
		StudentsForTeacher(ctx context.Context, teacherID string) ([]school.Student, error)
		ClassesForTeacher(ctx context.Context, teacherID string) ([]school.Class, error)
	}

	Service struct {
		repo Repository
		dir  Directory
	}
)

func NewService(repo Repository, dir Directory) *Service {
	return &Service{repo: repo, dir: dir}
}

// dateOf truncates a moment to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Mark records today's attendance for a student in one of the teacher's
// classes. A student outside the teacher's class set fails as not found; a
// second mark for the same day fails as ErrAlreadyMarked.
func (svc *Service) Mark(ctx context.Context, teacherID string, na NewAttendance) (Attendance, error) {
	st, err := svc.dir.StudentForTeacher(ctx, teacherID, na.StudentID)
	if err != nil {
		return Attendance{}, err
	}
	att := Attendance{
		Date:      dateOf(NowFunc()),
		Status:    core.CleanString(na.Status),
		StudentID: st.ID,
		TeacherID: teacherID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateAttendance(ctx, att)
}

// recordsFor fetches the raw rows for a student set within the filter's
// effective date range. An empty set short-circuits to no rows.
func (svc *Service) recordsFor(ctx context.Context, studentIDs []string, f ReportFilter) ([]Attendance, error) {
	if len(studentIDs) == 0 {
		return []Attendance{}, nil
	}
	start, end := f.DateRange()
	return svc.repo.FilterAttendance(ctx, Filter{StudentIDs: studentIDs, Start: start, End: end})
}

func aggregate(rows []Attendance) (present, total int) {
	for _, row := range rows {
		if row.IsPresent() {
			present++
		}
		total++
	}
	return present, total
}

func studentIDs(students []school.Student) []string {
	ids := make([]string, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}
	return ids
}

func (svc *Service) studentReport(ctx context.Context, st school.Student, f ReportFilter) (StudentReport, error) {
	rows, err := svc.recordsFor(ctx, []string{st.ID}, f)
	if err != nil {
		return StudentReport{}, err
	}
	present, total := aggregate(rows)
	return StudentReport{
		StudentID:    st.ID,
		StudentName:  st.Name,
		PresentCount: present,
		AbsentCount:  total - present,
		TotalCount:   total,
		Percentage:   Percentage(present, total),
	}, nil
}

func (svc *Service) classReport(ctx context.Context, cls school.Class, f ReportFilter) (ClassReport, error) {
	students, err := svc.dir.StudentsForClass(ctx, cls.ID)
	if err != nil {
		return ClassReport{}, err
	}
	rows, err := svc.recordsFor(ctx, studentIDs(students), f)
	if err != nil {
		return ClassReport{}, err
	}
	present, total := aggregate(rows)
	return ClassReport{
		ClassID:      cls.ID,
		ClassName:    cls.Name,
		PresentCount: present,
		TotalCount:   total,
		Percentage:   Percentage(present, total),
	}, nil
}

func (svc *Service) schoolReport(ctx context.Context, schoolID string, classes []school.Class, f ReportFilter) (SchoolReport, error) {
	rep := SchoolReport{SchoolID: schoolID, Classes: make([]ClassReport, 0, len(classes))}
	for _, cls := range classes {
		cr, err := svc.classReport(ctx, cls, f)
		if err != nil {
			return SchoolReport{}, err
		}
		rep.Classes = append(rep.Classes, cr)
		rep.PresentCount += cr.PresentCount
		rep.TotalCount += cr.TotalCount
	}
	rep.OverallPercentage = Percentage(rep.PresentCount, rep.TotalCount)
	return rep, nil
}

// ------------------------------------------------------------------------
// Teacher scope.

func (svc *Service) StudentReportForTeacher(ctx context.Context, teacherID, studentID string, f ReportFilter) (StudentReport, error) {
	st, err := svc.dir.StudentForTeacher(ctx, teacherID, studentID)
	if err != nil {
		return StudentReport{}, err
	}
	return svc.studentReport(ctx, st, f)
}

func (svc *Service) StudentRecordsForTeacher(ctx context.Context, teacherID, studentID string, f ReportFilter) ([]Attendance, error) {
	st, err := svc.dir.StudentForTeacher(ctx, teacherID, studentID)
	if err != nil {
		return nil, err
	}
	return svc.recordsFor(ctx, []string{st.ID}, f)
}

// ClassAttendanceForTeacher lists raw records grouped per taught class,
// joined with the student names.
func (svc *Service) ClassAttendanceForTeacher(ctx context.Context, teacherID string, f ReportFilter) ([]ClassAttendance, error) {
	classes, err := svc.dir.ClassesForTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	out := make([]ClassAttendance, 0, len(classes))
	for _, cls := range classes {
		students, err := svc.dir.StudentsForClass(ctx, cls.ID)
		if err != nil {
			return nil, err
		}
		names := make(map[string]string, len(students))
		for _, st := range students {
			names[st.ID] = st.Name
		}
		rows, err := svc.recordsFor(ctx, studentIDs(students), f)
		if err != nil {
			return nil, err
		}
		ca := ClassAttendance{ClassID: cls.ID, ClassName: cls.Name, Records: make([]StudentRecord, 0, len(rows))}
		for _, row := range rows {
			ca.Records = append(ca.Records, StudentRecord{
				StudentName: names[row.StudentID],
				Date:        row.Date,
				Status:      row.Status,
			})
		}
		out = append(out, ca)
	}
	return out, nil
}

// ------------------------------------------------------------------------
// Administrator scope.

func (svc *Service) StudentReportForAdmin(ctx context.Context, adminID, studentID string, f ReportFilter) (StudentReport, error) {
	st, err := svc.dir.GetStudentForAdmin(ctx, adminID, studentID)
	if err != nil {
		return StudentReport{}, err
	}
	return svc.studentReport(ctx, st, f)
}

func (svc *Service) ClassReportForAdmin(ctx context.Context, adminID, classID string, f ReportFilter) (ClassReport, error) {
	cls, err := svc.dir.GetClassForAdmin(ctx, adminID, classID)
	if err != nil {
		return ClassReport{}, err
	}
	return svc.classReport(ctx, cls, f)
}

func (svc *Service) SchoolReportForAdmin(ctx context.Context, adminID string, f ReportFilter) (SchoolReport, error) {
	sch, err := svc.dir.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return SchoolReport{}, err
	}
	classes, err := svc.dir.ClassesForAdmin(ctx, adminID)
	if err != nil {
		return SchoolReport{}, err
	}
	return svc.schoolReport(ctx, sch.ID, classes, f)
}

// SchoolRecordsForAdmin is the raw dump backing the school-level export.
func (svc *Service) SchoolRecordsForAdmin(ctx context.Context, adminID string, f ReportFilter) ([]Attendance, error) {
	sch, err := svc.dir.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	students, err := svc.dir.StudentsForSchool(ctx, sch.ID)
	if err != nil {
		return nil, err
	}
	return svc.recordsFor(ctx, studentIDs(students), f)
}

// ------------------------------------------------------------------------
// Superadmin scope.

func (svc *Service) SchoolReport(ctx context.Context, schoolID string, f ReportFilter) (SchoolReport, error) {
	sch, err := svc.dir.GetSchoolByID(ctx, schoolID)
	if err != nil {
		return SchoolReport{}, err
	}
	classes, err := svc.dir.ClassesForSchool(ctx, sch.ID)
	if err != nil {
		return SchoolReport{}, err
	}
	return svc.schoolReport(ctx, sch.ID, classes, f)
}

// SchoolRecords is the raw dump for one school, whoever asks.
func (svc *Service) SchoolRecords(ctx context.Context, schoolID string, f ReportFilter) ([]Attendance, error) {
	sch, err := svc.dir.GetSchoolByID(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	students, err := svc.dir.StudentsForSchool(ctx, sch.ID)
	if err != nil {
		return nil, err
	}
	return svc.recordsFor(ctx, studentIDs(students), f)
}

func (svc *Service) QueryAll(ctx context.Context, f ReportFilter) ([]Attendance, error) {
	start, end := f.DateRange()
	return svc.repo.FilterAttendance(ctx, Filter{Start: start, End: end})
}

// ------------------------------------------------------------------------
// Tenant-filtered listing shared by every role.

// ListQuery narrows the raw listing beyond the caller's tenant scope.
type ListQuery struct {
	ReportFilter
	StudentID string
	ClassID   string
	SchoolID  string
}

// ListForPrincipal returns the raw records the caller is entitled to see:
// everything for a superadmin, the owned school for an administrator, the
// taught classes for a teacher. The query's student/class/school ids narrow
// further; they never widen the tenant scope.
func (svc *Service) ListForPrincipal(ctx context.Context, p principal.Principal, q ListQuery) ([]Attendance, error) {
	rows, err := svc.listScope(ctx, p, q.ReportFilter)
	if err != nil {
		return nil, err
	}

	if q.StudentID != "" {
		rows = keepStudents(rows, map[string]bool{q.StudentID: true})
	}
	if q.ClassID != "" {
		students, err := svc.dir.StudentsForClass(ctx, q.ClassID)
		if err != nil {
			return nil, err
		}
		rows = keepStudents(rows, idSet(students))
	}
	if q.SchoolID != "" {
		students, err := svc.dir.StudentsForSchool(ctx, q.SchoolID)
		if err != nil {
			return nil, err
		}
		rows = keepStudents(rows, idSet(students))
	}
	return rows, nil
}

func (svc *Service) listScope(ctx context.Context, p principal.Principal, f ReportFilter) ([]Attendance, error) {
	switch p.Role {
	case principal.RoleSuperAdmin:
		return svc.QueryAll(ctx, f)
	case principal.RoleAdministrator:
		return svc.SchoolRecordsForAdmin(ctx, p.ID, f)
	case principal.RoleTeacher:
		students, err := svc.dir.StudentsForTeacher(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return svc.recordsFor(ctx, studentIDs(students), f)
	}
	return nil, ErrNotFound
}

func idSet(students []school.Student) map[string]bool {
	set := make(map[string]bool, len(students))
	for _, st := range students {
		set[st.ID] = true
	}
	return set
}

func keepStudents(rows []Attendance, set map[string]bool) []Attendance {
	kept := rows[:0]
	for _, row := range rows {
		if set[row.StudentID] {
			kept = append(kept, row)
		}
	}
	return kept
}
