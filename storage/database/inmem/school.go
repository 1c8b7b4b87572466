package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/shuleni/backend/core/school"
)

type schoolRepository struct {
	db *DB
}

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.administrators[sch.AdministratorID]; !ok {
		return school.School{}, school.ErrInvalidReference
	}
	sch.ID = uuid.New().String()
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) QueryAllSchools(_ context.Context) ([]school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	schools := make([]school.School, 0, len(repo.db.schools))
	for _, sch := range repo.db.schools {
		schools = append(schools, *sch)
	}
	return schools, nil
}

func (repo *schoolRepository) GetSchoolByID(_ context.Context, id string) (school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) GetSchoolByAdministratorID(_ context.Context, adminID string) (school.School, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sch := range repo.db.schools {
		if sch.AdministratorID == adminID {
			return *sch, nil
		}
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.schools[sch.ID]
	if !ok {
		return school.School{}, school.ErrNotFound
	}
	// only save set fields
	if sch.Name != "" {
		orig.Name = sch.Name
	}
	if sch.Address.Valid {
		orig.Address = sch.Address
	}
	if sch.AdministratorID != "" {
		if _, ok := repo.db.administrators[sch.AdministratorID]; !ok {
			return school.School{}, school.ErrInvalidReference
		}
		orig.AdministratorID = sch.AdministratorID
	}
	return *orig, nil
}

func (repo *schoolRepository) DeleteSchoolsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.schools, id)
	}
	return nil
}

func (repo *schoolRepository) CheckTeacherEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, t := range repo.db.teachers {
		if t.Email == email && !contains(excludedIDs, t.ID) {
			return school.ErrTeacherEmailExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateTeacher(_ context.Context, t school.Teacher) (school.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schools[t.SchoolID]; !ok {
		return school.Teacher{}, school.ErrInvalidReference
	}
	t.ID = uuid.New().String()
	repo.db.teachers[t.ID] = &t
	return t, nil
}

func (repo *schoolRepository) QueryAllTeachers(_ context.Context) ([]school.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teachers := make([]school.Teacher, 0, len(repo.db.teachers))
	for _, t := range repo.db.teachers {
		teachers = append(teachers, *t)
	}
	return teachers, nil
}

func (repo *schoolRepository) QueryTeachersBySchoolID(_ context.Context, schoolID string) ([]school.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	teachers := make([]school.Teacher, 0)
	for _, t := range repo.db.teachers {
		if t.SchoolID == schoolID {
			teachers = append(teachers, *t)
		}
	}
	return teachers, nil
}

func (repo *schoolRepository) GetTeacherByID(_ context.Context, id string) (school.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.teachers[id]; ok {
		return *t, nil
	}
	return school.Teacher{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateTeacher(_ context.Context, t school.Teacher) (school.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.teachers[t.ID]
	if !ok {
		return school.Teacher{}, school.ErrNotFound
	}
	// only save set fields
	if t.Name != "" {
		orig.Name = t.Name
	}
	if t.Email != "" {
		orig.Email = t.Email
	}
	if t.PasswordHash != nil {
		orig.PasswordHash = t.PasswordHash
	}
	return *orig, nil
}

func (repo *schoolRepository) DeleteTeachersByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.teachers, id)
	}
	return nil
}

func (repo *schoolRepository) CreateClass(_ context.Context, cls school.Class) (school.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.schools[cls.SchoolID]; !ok {
		return school.Class{}, school.ErrInvalidReference
	}
	if _, ok := repo.db.teachers[cls.TeacherID]; !ok {
		return school.Class{}, school.ErrInvalidReference
	}
	cls.ID = uuid.New().String()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) QueryAllClasses(_ context.Context) ([]school.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		classes = append(classes, *cls)
	}
	return classes, nil
}

func (repo *schoolRepository) QueryClassesBySchoolID(_ context.Context, schoolID string) ([]school.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]school.Class, 0)
	for _, cls := range repo.db.classes {
		if cls.SchoolID == schoolID {
			classes = append(classes, *cls)
		}
	}
	return classes, nil
}

func (repo *schoolRepository) QueryClassesByTeacherID(_ context.Context, teacherID string) ([]school.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]school.Class, 0)
	for _, cls := range repo.db.classes {
		if cls.TeacherID == teacherID {
			classes = append(classes, *cls)
		}
	}
	return classes, nil
}

func (repo *schoolRepository) GetClassByID(_ context.Context, id string) (school.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return school.Class{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateClass(_ context.Context, cls school.Class) (school.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.classes[cls.ID]
	if !ok {
		return school.Class{}, school.ErrNotFound
	}
	// only save set fields
	if cls.Name != "" {
		orig.Name = cls.Name
	}
	if cls.TeacherID != "" {
		if _, ok := repo.db.teachers[cls.TeacherID]; !ok {
			return school.Class{}, school.ErrInvalidReference
		}
		orig.TeacherID = cls.TeacherID
	}
	return *orig, nil
}

func (repo *schoolRepository) DeleteClassesByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.classes, id)
	}
	return nil
}

func (repo *schoolRepository) CreateStudent(_ context.Context, st school.Student) (school.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.classes[st.ClassID]; !ok {
		return school.Student{}, school.ErrInvalidReference
	}
	st.ID = uuid.New().String()
	repo.db.students[st.ID] = &st
	return st, nil
}

func (repo *schoolRepository) QueryAllStudents(_ context.Context) ([]school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]school.Student, 0, len(repo.db.students))
	for _, st := range repo.db.students {
		students = append(students, *st)
	}
	return students, nil
}

func (repo *schoolRepository) QueryStudentsBySchoolID(_ context.Context, schoolID string) ([]school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]school.Student, 0)
	for _, st := range repo.db.students {
		if st.SchoolID == schoolID {
			students = append(students, *st)
		}
	}
	return students, nil
}

func (repo *schoolRepository) QueryStudentsByClassIDs(_ context.Context, classIDs ...string) ([]school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]school.Student, 0)
	for _, st := range repo.db.students {
		if contains(classIDs, st.ClassID) {
			students = append(students, *st)
		}
	}
	return students, nil
}

func (repo *schoolRepository) GetStudentByID(_ context.Context, id string) (school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.students[id]; ok {
		return *st, nil
	}
	return school.Student{}, school.ErrNotFound
}

func (repo *schoolRepository) UpdateStudent(_ context.Context, st school.Student) (school.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[st.ID]
	if !ok {
		return school.Student{}, school.ErrNotFound
	}
	// only save set fields
	if st.Name != "" {
		orig.Name = st.Name
	}
	if st.RollNo != "" {
		orig.RollNo = st.RollNo
	}
	if st.ClassID != "" {
		if _, ok := repo.db.classes[st.ClassID]; !ok {
			return school.Student{}, school.ErrInvalidReference
		}
		orig.ClassID = st.ClassID
		orig.SchoolID = st.SchoolID
	}
	if st.FaceEmbedding.Valid {
		orig.FaceEmbedding = st.FaceEmbedding
	}
	return *orig, nil
}

func (repo *schoolRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.students, id)
	}
	return nil
}
