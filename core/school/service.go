package school

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core"
	"github.com/shuleni/backend/core/principal"
)

var (
	// errors
	ErrNotFound           = errors.New("resource not found")
	ErrTeacherEmailExists = errors.New("a teacher with this email already exists")
	ErrInvalidReference   = errors.New("referenced resource does not exist")
)

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		QueryAllSchools(ctx context.Context) ([]School, error)
		GetSchoolByID(ctx context.Context, id string) (School, error)
		GetSchoolByAdministratorID(ctx context.Context, adminID string) (School, error)
		UpdateSchool(ctx context.Context, sch School) (School, error)
		DeleteSchoolsByID(ctx context.Context, ids ...string) error

		// CheckTeacherEmailUniqueness returns ErrTeacherEmailExists when
		// another teacher already owns the email, whatever their school.
		CheckTeacherEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		QueryAllTeachers(ctx context.Context) ([]Teacher, error)
		QueryTeachersBySchoolID(ctx context.Context, schoolID string) ([]Teacher, error)
		GetTeacherByID(ctx context.Context, id string) (Teacher, error)
		UpdateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		DeleteTeachersByID(ctx context.Context, ids ...string) error

		CreateClass(ctx context.Context, cls Class) (Class, error)
		QueryAllClasses(ctx context.Context) ([]Class, error)
		QueryClassesBySchoolID(ctx context.Context, schoolID string) ([]Class, error)
		QueryClassesByTeacherID(ctx context.Context, teacherID string) ([]Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		DeleteClassesByID(ctx context.Context, ids ...string) error

		CreateStudent(ctx context.Context, st Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		QueryStudentsBySchoolID(ctx context.Context, schoolID string) ([]Student, error)
		QueryStudentsByClassIDs(ctx context.Context, classIDs ...string) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		conf     *core.Config
		validate *validator.Validate
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		conf:     conf,
		validate: validate,
	}
}

// RegisterValidators hooks the teacher-account struct validations onto the
// shared validator instance. The password tags are registered by the
// principal package.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(teacherStructValidation, NewTeacher{}, UpdateTeacher{})
}

func teacherStructValidation(sl validator.StructLevel) {
	switch t := sl.Current().Interface().(type) {
	case NewTeacher:
		principal.ValidatePasswordStruct(sl, t.Password, t.Name, t.Email)
	case UpdateTeacher:
		if t.Password != "" {
			principal.ValidatePasswordStruct(sl, t.Password, t.Name, t.Email)
		}
	}
}

// checkTeacherEmailUniqueness surfaces ErrTeacherEmailExists untouched so the
// API layer can render it as a conflict rather than a field error.
func (svc *Service) checkTeacherEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	return svc.repo.CheckTeacherEmailUniqueness(ctx, email, excludedIDs...)
}

// ------------------------------------------------------------------------
// Global operations (no tenant filter).

func (svc *Service) CreateSchool(ctx context.Context, ns NewSchool) (School, error) {
	sch := School{
		Name:            ns.Name,
		Address:         ns.Address,
		AdministratorID: ns.AdministratorID,
		CreatedAt:       time.Now().UTC(),
	}
	return svc.repo.CreateSchool(ctx, sch)
}

func (svc *Service) QueryAllSchools(ctx context.Context) ([]School, error) {
	return svc.repo.QueryAllSchools(ctx)
}

func (svc *Service) GetSchoolByID(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *Service) UpdateSchool(ctx context.Context, id string, us UpdateSchool) (School, error) {
	sch := School{
		ID:              id,
		Name:            us.Name,
		Address:         us.Address,
		AdministratorID: us.AdministratorID,
	}
	return svc.repo.UpdateSchool(ctx, sch)
}

func (svc *Service) DeleteSchools(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSchoolsByID(ctx, ids...)
}

func (svc *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	return svc.createTeacher(ctx, nt, true /* welcome email */)
}

func (svc *Service) createTeacher(ctx context.Context, nt NewTeacher, welcome bool) (Teacher, error) {
	t := Teacher{
		Name:      nt.Name,
		Email:     nt.Email,
		SchoolID:  nt.SchoolID,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.SetPassword(nt.Password); err != nil {
		return Teacher{}, err
	}
	t, err := svc.repo.CreateTeacher(ctx, t)
	if err != nil {
		return Teacher{}, err
	}
	if welcome {
		principal.SendWelcomeEmail(svc.mailSvc, svc.conf, t.Account())
	}
	return t, nil
}

func (svc *Service) QueryAllTeachers(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryAllTeachers(ctx)
}

func (svc *Service) GetTeacherByID(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

// UpdateTeacher patches an existing teacher. Empty fields are left untouched;
// the password is re-hashed only when a new one is provided.
func (svc *Service) UpdateTeacher(ctx context.Context, id string, ut UpdateTeacher) (Teacher, error) {
	t := Teacher{
		ID:    id,
		Name:  ut.Name,
		Email: ut.Email,
	}
	if ut.Password != "" {
		if err := t.SetPassword(ut.Password); err != nil {
			return Teacher{}, err
		}
	}
	return svc.repo.UpdateTeacher(ctx, t)
}

func (svc *Service) DeleteTeachers(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTeachersByID(ctx, ids...)
}

func (svc *Service) QueryAllClasses(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryAllClasses(ctx)
}

func (svc *Service) QueryAllStudents(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) GetStudentByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

// CreateStudent derives the student's school from its class; the payload
// never carries a school id.
func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	cls, err := svc.repo.GetClassByID(ctx, ns.ClassID)
	if err != nil {
		return Student{}, err
	}
	st := Student{
		Name:          ns.Name,
		RollNo:        ns.RollNo,
		ClassID:       cls.ID,
		SchoolID:      cls.SchoolID,
		FaceEmbedding: ns.FaceEmbedding,
		CreatedAt:     time.Now().UTC(),
	}
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *Service) UpdateStudent(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	st := Student{
		ID:            id,
		Name:          us.Name,
		RollNo:        us.RollNo,
		FaceEmbedding: us.FaceEmbedding,
	}
	if us.ClassID != "" {
		cls, err := svc.repo.GetClassByID(ctx, us.ClassID)
		if err != nil {
			return Student{}, err
		}
		st.ClassID = cls.ID
		st.SchoolID = cls.SchoolID
	}
	return svc.repo.UpdateStudent(ctx, st)
}

func (svc *Service) DeleteStudents(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

// ------------------------------------------------------------------------
// Administrator scope. Every operation re-derives the caller's school from
// their principal id; ids supplied by the client are never trusted as scope.
// Out-of-scope references fail as ErrNotFound.

// SchoolForAdmin resolves the single school an administrator owns. An
// administrator without a school is inert: ErrNotFound.
func (svc *Service) SchoolForAdmin(ctx context.Context, adminID string) (School, error) {
	return svc.repo.GetSchoolByAdministratorID(ctx, adminID)
}

func (svc *Service) TeachersForAdmin(ctx context.Context, adminID string) ([]Teacher, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryTeachersBySchoolID(ctx, sch.ID)
}

func (svc *Service) GetTeacherForAdmin(ctx context.Context, adminID, id string) (Teacher, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return Teacher{}, err
	}
	t, err := svc.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	if t.SchoolID != sch.ID {
		return Teacher{}, ErrNotFound
	}
	return t, nil
}

func (svc *Service) CreateTeacherForAdmin(ctx context.Context, adminID string, nt NewTeacher) (Teacher, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return Teacher{}, err
	}
	nt.SchoolID = sch.ID
	if err := nt.Validate(ctx, svc); err != nil {
		return Teacher{}, err
	}
	return svc.CreateTeacher(ctx, nt)
}

func (svc *Service) UpdateTeacherForAdmin(ctx context.Context, adminID, id string, ut UpdateTeacher) (Teacher, error) {
	orig, err := svc.GetTeacherForAdmin(ctx, adminID, id)
	if err != nil {
		return Teacher{}, err
	}
	if err := ut.Validate(ctx, svc, orig); err != nil {
		return Teacher{}, err
	}
	return svc.UpdateTeacher(ctx, id, ut)
}

func (svc *Service) DeleteTeacherForAdmin(ctx context.Context, adminID, id string) error {
	if _, err := svc.GetTeacherForAdmin(ctx, adminID, id); err != nil {
		return err
	}
	return svc.repo.DeleteTeachersByID(ctx, id)
}

func (svc *Service) ClassesForAdmin(ctx context.Context, adminID string) ([]Class, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryClassesBySchoolID(ctx, sch.ID)
}

func (svc *Service) GetClassForAdmin(ctx context.Context, adminID, id string) (Class, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return Class{}, err
	}
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if cls.SchoolID != sch.ID {
		return Class{}, ErrNotFound
	}
	return cls, nil
}

// CreateClassForAdmin enforces the cross-school invariant: the class's
// teacher must belong to the caller's school.
func (svc *Service) CreateClassForAdmin(ctx context.Context, adminID string, nc NewClass) (Class, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return Class{}, err
	}
	if err := nc.Validate(svc); err != nil {
		return Class{}, err
	}
	t, err := svc.repo.GetTeacherByID(ctx, nc.TeacherID)
	if err != nil {
		return Class{}, err
	}
	if t.SchoolID != sch.ID {
		return Class{}, ErrNotFound
	}
	cls := Class{
		Name:      nc.Name,
		SchoolID:  sch.ID,
		TeacherID: t.ID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) UpdateClassForAdmin(ctx context.Context, adminID, id string, uc UpdateClass) (Class, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return Class{}, err
	}
	orig, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if orig.SchoolID != sch.ID {
		return Class{}, ErrNotFound
	}
	if err := uc.Validate(svc); err != nil {
		return Class{}, err
	}
	if uc.TeacherID != "" {
		t, err := svc.repo.GetTeacherByID(ctx, uc.TeacherID)
		if err != nil {
			return Class{}, err
		}
		if t.SchoolID != sch.ID {
			return Class{}, ErrNotFound
		}
	}
	cls := Class{
		ID:        id,
		Name:      uc.Name,
		TeacherID: uc.TeacherID,
	}
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *Service) DeleteClassForAdmin(ctx context.Context, adminID, id string) error {
	if _, err := svc.GetClassForAdmin(ctx, adminID, id); err != nil {
		return err
	}
	return svc.repo.DeleteClassesByID(ctx, id)
}

func (svc *Service) StudentsForAdmin(ctx context.Context, adminID string) ([]Student, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryStudentsBySchoolID(ctx, sch.ID)
}

func (svc *Service) GetStudentForAdmin(ctx context.Context, adminID, id string) (Student, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return Student{}, err
	}
	st, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if st.SchoolID != sch.ID {
		return Student{}, ErrNotFound
	}
	return st, nil
}

func (svc *Service) CreateStudentForAdmin(ctx context.Context, adminID string, ns NewStudent) (Student, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return Student{}, err
	}
	if err := ns.Validate(svc); err != nil {
		return Student{}, err
	}
	cls, err := svc.repo.GetClassByID(ctx, ns.ClassID)
	if err != nil {
		return Student{}, err
	}
	if cls.SchoolID != sch.ID {
		return Student{}, ErrNotFound
	}
	return svc.CreateStudent(ctx, ns)
}

func (svc *Service) UpdateStudentForAdmin(ctx context.Context, adminID, id string, us UpdateStudent) (Student, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return Student{}, err
	}
	orig, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if orig.SchoolID != sch.ID {
		return Student{}, ErrNotFound
	}
	if err := us.Validate(svc); err != nil {
		return Student{}, err
	}
	if us.ClassID != "" {
		cls, err := svc.repo.GetClassByID(ctx, us.ClassID)
		if err != nil {
			return Student{}, err
		}
		if cls.SchoolID != sch.ID {
			return Student{}, ErrNotFound
		}
	}
	return svc.UpdateStudent(ctx, id, us)
}

func (svc *Service) DeleteStudentForAdmin(ctx context.Context, adminID, id string) error {
	if _, err := svc.GetStudentForAdmin(ctx, adminID, id); err != nil {
		return err
	}
	return svc.repo.DeleteStudentsByID(ctx, id)
}

func (svc *Service) ClassesForSchool(ctx context.Context, schoolID string) ([]Class, error) {
	return svc.repo.QueryClassesBySchoolID(ctx, schoolID)
}

func (svc *Service) StudentsForSchool(ctx context.Context, schoolID string) ([]Student, error) {
	return svc.repo.QueryStudentsBySchoolID(ctx, schoolID)
}

func (svc *Service) StudentsForClass(ctx context.Context, classID string) ([]Student, error) {
	return svc.repo.QueryStudentsByClassIDs(ctx, classID)
}

// ------------------------------------------------------------------------
// Teacher scope: the set of classes the teacher teaches, derived per call.

func (svc *Service) ClassesForTeacher(ctx context.Context, teacherID string) ([]Class, error) {
	return svc.repo.QueryClassesByTeacherID(ctx, teacherID)
}

func (svc *Service) ClassIDsForTeacher(ctx context.Context, teacherID string) ([]string, error) {
	classes, err := svc.repo.QueryClassesByTeacherID(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(classes))
	for i, cls := range classes {
		ids[i] = cls.ID
	}
	return ids, nil
}

func (svc *Service) StudentsForTeacher(ctx context.Context, teacherID string) ([]Student, error) {
	ids, err := svc.ClassIDsForTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Student{}, nil
	}
	return svc.repo.QueryStudentsByClassIDs(ctx, ids...)
}

// StudentForTeacher fetches a student only if they sit in one of the
// teacher's classes.
func (svc *Service) StudentForTeacher(ctx context.Context, teacherID, studentID string) (Student, error) {
	st, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return Student{}, err
	}
	ids, err := svc.ClassIDsForTeacher(ctx, teacherID)
	if err != nil {
		return Student{}, err
	}
	for _, id := range ids {
		if st.ClassID == id {
			return st, nil
		}
	}
	return Student{}, ErrNotFound
}

// ------------------------------------------------------------------------
// Bulk imports. Rows that fail validation are skipped and only reflected in
// the returned count; the batch is not atomic.

func (svc *Service) ImportTeachersForAdmin(ctx context.Context, adminID string, rows []TeacherImportRow) (int, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return 0, err
	}

	var count int
	for _, row := range rows {
		nt := NewTeacher{
			Name:     row.Name,
			Email:    row.Email,
			Password: row.Password,
			SchoolID: sch.ID,
		}
		if err := nt.Validate(ctx, svc); err != nil {
			continue
		}
		if _, err := svc.createTeacher(ctx, nt, false); err != nil {
			continue
		}
		count++
	}
	return count, nil
}

func (svc *Service) ImportClassesForAdmin(ctx context.Context, adminID string, rows []ClassImportRow) (int, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return 0, err
	}

	var count int
	for _, row := range rows {
		nc := NewClass{Name: row.Name, TeacherID: row.TeacherID}
		if err := nc.Validate(svc); err != nil {
			continue
		}
		t, err := svc.repo.GetTeacherByID(ctx, nc.TeacherID)
		if err != nil || t.SchoolID != sch.ID {
			continue
		}
		cls := Class{
			Name:      nc.Name,
			SchoolID:  sch.ID,
			TeacherID: t.ID,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := svc.repo.CreateClass(ctx, cls); err != nil {
			continue
		}
		count++
	}
	return count, nil
}

// ImportStudentsForAdmin patches existing students matched by id; rows
// pointing outside the caller's school are skipped.
func (svc *Service) ImportStudentsForAdmin(ctx context.Context, adminID string, rows []StudentImportRow) (int, error) {
	sch, err := svc.SchoolForAdmin(ctx, adminID)
	if err != nil {
		return 0, err
	}

	var count int
	for _, row := range rows {
		orig, err := svc.repo.GetStudentByID(ctx, row.ID)
		if err != nil || orig.SchoolID != sch.ID {
			continue
		}
		st := Student{
			ID:     orig.ID,
			Name:   core.CleanString(row.Name),
			RollNo: core.CleanString(row.RollNo),
		}
		if _, err := svc.repo.UpdateStudent(ctx, st); err != nil {
			continue
		}
		count++
	}
	return count, nil
}
