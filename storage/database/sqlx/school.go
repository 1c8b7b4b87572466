package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core/school"
)

var (
	schoolColumns  = []string{"id", "name", "address", "administrator_id", "created_at"}
	teacherColumns = []string{"id", "name", "email", "password_hash", "school_id", "created_at"}
	classColumns   = []string{"id", "name", "school_id", "teacher_id", "created_at"}
	studentColumns = []string{"id", "name", "roll_no", "class_id", "school_id", "face_embedding", "created_at"}
)

type schoolRepository struct {
	db *sqlx.DB
}

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	sch.ID = uuid.New().String()
	q, args, err := psql.Insert("schools").
		Columns(schoolColumns...).
		Values(sch.ID, sch.Name, sch.Address, sch.AdministratorID, sch.CreatedAt).
		ToSql()
	if err != nil {
		return school.School{}, errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		if isForeignKeyViolation(err) {
			return school.School{}, school.ErrInvalidReference
		}
		return school.School{}, errors.Wrap(err, "creating school")
	}
	return sch, nil
}

func (repo *schoolRepository) QueryAllSchools(ctx context.Context) ([]school.School, error) {
	q, args, err := psql.Select(schoolColumns...).From("schools").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	schools := []school.School{}
	if err := repo.db.SelectContext(ctx, &schools, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	return schools, nil
}

func (repo *schoolRepository) getSchool(ctx context.Context, pred interface{}) (school.School, error) {
	q, args, err := psql.Select(schoolColumns...).From("schools").Where(pred).Limit(1).ToSql()
	if err != nil {
		return school.School{}, errors.Wrap(err, "building query")
	}
	var sch school.School
	if err := repo.db.GetContext(ctx, &sch, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, errors.Wrap(err, "getting school")
	}
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	return repo.getSchool(ctx, sq.Eq{"id": id})
}

func (repo *schoolRepository) GetSchoolByAdministratorID(ctx context.Context, adminID string) (school.School, error) {
	return repo.getSchool(ctx, sq.Eq{"administrator_id": adminID})
}

// UpdateSchool only writes set fields.
func (repo *schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	query := psql.Update("schools").Where(sq.Eq{"id": sch.ID})
	var dirty bool
	if sch.Name != "" {
		query = query.Set("name", sch.Name)
		dirty = true
	}
	if sch.Address.Valid {
		query = query.Set("address", sch.Address)
		dirty = true
	}
	if sch.AdministratorID != "" {
		query = query.Set("administrator_id", sch.AdministratorID)
		dirty = true
	}
	if !dirty {
		return repo.GetSchoolByID(ctx, sch.ID)
	}

	q, args, err := query.Suffix("RETURNING " + joinColumns(schoolColumns)).ToSql()
	if err != nil {
		return school.School{}, errors.Wrap(err, "building query")
	}
	var updated school.School
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.School{}, school.ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return school.School{}, school.ErrInvalidReference
		}
		return school.School{}, errors.Wrap(err, "updating school")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteSchoolsByID(ctx context.Context, ids ...string) error {
	q, args, err := psql.Delete("schools").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting schools")
	}
	return nil
}

func (repo *schoolRepository) CheckTeacherEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	query := psql.Select("COUNT(*)").From("teachers").Where(sq.Eq{"email": email})
	if len(excludedIDs) > 0 {
		query = query.Where(sq.NotEq{"id": excludedIDs})
	}
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking teacher email uniqueness")
	}
	if count > 0 {
		return school.ErrTeacherEmailExists
	}
	return nil
}

func (repo *schoolRepository) CreateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	t.ID = uuid.New().String()
	q, args, err := psql.Insert("teachers").
		Columns(teacherColumns...).
		Values(t.ID, t.Name, t.Email, t.PasswordHash, t.SchoolID, t.CreatedAt).
		ToSql()
	if err != nil {
		return school.Teacher{}, errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		if isUniqueViolation(err, "") {
			return school.Teacher{}, school.ErrTeacherEmailExists
		}
		if isForeignKeyViolation(err) {
			return school.Teacher{}, school.ErrInvalidReference
		}
		return school.Teacher{}, errors.Wrap(err, "creating teacher")
	}
	return t, nil
}

func (repo *schoolRepository) queryTeachers(ctx context.Context, pred interface{}) ([]school.Teacher, error) {
	query := psql.Select(teacherColumns...).From("teachers").OrderBy("created_at DESC")
	if pred != nil {
		query = query.Where(pred)
	}
	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	teachers := []school.Teacher{}
	if err := repo.db.SelectContext(ctx, &teachers, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	return teachers, nil
}

func (repo *schoolRepository) QueryAllTeachers(ctx context.Context) ([]school.Teacher, error) {
	return repo.queryTeachers(ctx, nil)
}

func (repo *schoolRepository) QueryTeachersBySchoolID(ctx context.Context, schoolID string) ([]school.Teacher, error) {
	return repo.queryTeachers(ctx, sq.Eq{"school_id": schoolID})
}

func (repo *schoolRepository) GetTeacherByID(ctx context.Context, id string) (school.Teacher, error) {
	q, args, err := psql.Select(teacherColumns...).From("teachers").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.Teacher{}, errors.Wrap(err, "building query")
	}
	var t school.Teacher
	if err := repo.db.GetContext(ctx, &t, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.Teacher{}, school.ErrNotFound
		}
		return school.Teacher{}, errors.Wrap(err, "getting teacher")
	}
	return t, nil
}

// UpdateTeacher only writes set fields.
func (repo *schoolRepository) UpdateTeacher(ctx context.Context, t school.Teacher) (school.Teacher, error) {
	query := psql.Update("teachers").Where(sq.Eq{"id": t.ID})
	var dirty bool
	if t.Name != "" {
		query = query.Set("name", t.Name)
		dirty = true
	}
	if t.Email != "" {
		query = query.Set("email", t.Email)
		dirty = true
	}
	if t.PasswordHash != nil {
		query = query.Set("password_hash", t.PasswordHash)
		dirty = true
	}
	if !dirty {
		return repo.GetTeacherByID(ctx, t.ID)
	}

	q, args, err := query.Suffix("RETURNING " + joinColumns(teacherColumns)).ToSql()
	if err != nil {
		return school.Teacher{}, errors.Wrap(err, "building query")
	}
	var updated school.Teacher
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.Teacher{}, school.ErrNotFound
		}
		if isUniqueViolation(err, "") {
			return school.Teacher{}, school.ErrTeacherEmailExists
		}
		return school.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteTeachersByID(ctx context.Context, ids ...string) error {
	q, args, err := psql.Delete("teachers").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting teachers")
	}
	return nil
}

func (repo *schoolRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	cls.ID = uuid.New().String()
	q, args, err := psql.Insert("classes").
		Columns(classColumns...).
		Values(cls.ID, cls.Name, cls.SchoolID, cls.TeacherID, cls.CreatedAt).
		ToSql()
	if err != nil {
		return school.Class{}, errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		if isForeignKeyViolation(err) {
			return school.Class{}, school.ErrInvalidReference
		}
		return school.Class{}, errors.Wrap(err, "creating class")
	}
	return cls, nil
}

func (repo *schoolRepository) queryClasses(ctx context.Context, pred interface{}) ([]school.Class, error) {
	query := psql.Select(classColumns...).From("classes").OrderBy("created_at DESC")
	if pred != nil {
		query = query.Where(pred)
	}
	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	classes := []school.Class{}
	if err := repo.db.SelectContext(ctx, &classes, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return classes, nil
}

func (repo *schoolRepository) QueryAllClasses(ctx context.Context) ([]school.Class, error) {
	return repo.queryClasses(ctx, nil)
}

func (repo *schoolRepository) QueryClassesBySchoolID(ctx context.Context, schoolID string) ([]school.Class, error) {
	return repo.queryClasses(ctx, sq.Eq{"school_id": schoolID})
}

func (repo *schoolRepository) QueryClassesByTeacherID(ctx context.Context, teacherID string) ([]school.Class, error) {
	return repo.queryClasses(ctx, sq.Eq{"teacher_id": teacherID})
}

func (repo *schoolRepository) GetClassByID(ctx context.Context, id string) (school.Class, error) {
	q, args, err := psql.Select(classColumns...).From("classes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.Class{}, errors.Wrap(err, "building query")
	}
	var cls school.Class
	if err := repo.db.GetContext(ctx, &cls, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.Class{}, school.ErrNotFound
		}
		return school.Class{}, errors.Wrap(err, "getting class")
	}
	return cls, nil
}

// UpdateClass only writes set fields.
func (repo *schoolRepository) UpdateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	query := psql.Update("classes").Where(sq.Eq{"id": cls.ID})
	var dirty bool
	if cls.Name != "" {
		query = query.Set("name", cls.Name)
		dirty = true
	}
	if cls.TeacherID != "" {
		query = query.Set("teacher_id", cls.TeacherID)
		dirty = true
	}
	if !dirty {
		return repo.GetClassByID(ctx, cls.ID)
	}

	q, args, err := query.Suffix("RETURNING " + joinColumns(classColumns)).ToSql()
	if err != nil {
		return school.Class{}, errors.Wrap(err, "building query")
	}
	var updated school.Class
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.Class{}, school.ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return school.Class{}, school.ErrInvalidReference
		}
		return school.Class{}, errors.Wrap(err, "updating class")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteClassesByID(ctx context.Context, ids ...string) error {
	q, args, err := psql.Delete("classes").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting classes")
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(ctx context.Context, st school.Student) (school.Student, error) {
	st.ID = uuid.New().String()
	q, args, err := psql.Insert("students").
		Columns(studentColumns...).
		Values(st.ID, st.Name, st.RollNo, st.ClassID, st.SchoolID, st.FaceEmbedding, st.CreatedAt).
		ToSql()
	if err != nil {
		return school.Student{}, errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		if isForeignKeyViolation(err) {
			return school.Student{}, school.ErrInvalidReference
		}
		return school.Student{}, errors.Wrap(err, "creating student")
	}
	return st, nil
}

func (repo *schoolRepository) queryStudents(ctx context.Context, pred interface{}) ([]school.Student, error) {
	query := psql.Select(studentColumns...).From("students").OrderBy("created_at DESC")
	if pred != nil {
		query = query.Where(pred)
	}
	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	students := []school.Student{}
	if err := repo.db.SelectContext(ctx, &students, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo *schoolRepository) QueryAllStudents(ctx context.Context) ([]school.Student, error) {
	return repo.queryStudents(ctx, nil)
}

func (repo *schoolRepository) QueryStudentsBySchoolID(ctx context.Context, schoolID string) ([]school.Student, error) {
	return repo.queryStudents(ctx, sq.Eq{"school_id": schoolID})
}

func (repo *schoolRepository) QueryStudentsByClassIDs(ctx context.Context, classIDs ...string) ([]school.Student, error) {
	return repo.queryStudents(ctx, sq.Eq{"class_id": classIDs})
}

func (repo *schoolRepository) GetStudentByID(ctx context.Context, id string) (school.Student, error) {
	q, args, err := psql.Select(studentColumns...).From("students").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return school.Student{}, errors.Wrap(err, "building query")
	}
	var st school.Student
	if err := repo.db.GetContext(ctx, &st, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.Student{}, school.ErrNotFound
		}
		return school.Student{}, errors.Wrap(err, "getting student")
	}
	return st, nil
}

// UpdateStudent only writes set fields. ClassID and SchoolID travel together;
// the service resolves them as a pair.
func (repo *schoolRepository) UpdateStudent(ctx context.Context, st school.Student) (school.Student, error) {
	query := psql.Update("students").Where(sq.Eq{"id": st.ID})
	var dirty bool
	if st.Name != "" {
		query = query.Set("name", st.Name)
		dirty = true
	}
	if st.RollNo != "" {
		query = query.Set("roll_no", st.RollNo)
		dirty = true
	}
	if st.ClassID != "" {
		query = query.Set("class_id", st.ClassID).Set("school_id", st.SchoolID)
		dirty = true
	}
	if st.FaceEmbedding.Valid {
		query = query.Set("face_embedding", st.FaceEmbedding)
		dirty = true
	}
	if !dirty {
		return repo.GetStudentByID(ctx, st.ID)
	}

	q, args, err := query.Suffix("RETURNING " + joinColumns(studentColumns)).ToSql()
	if err != nil {
		return school.Student{}, errors.Wrap(err, "building query")
	}
	var updated school.Student
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return school.Student{}, school.ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return school.Student{}, school.ErrInvalidReference
		}
		return school.Student{}, errors.Wrap(err, "updating student")
	}
	return updated, nil
}

func (repo *schoolRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	q, args, err := psql.Delete("students").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}
