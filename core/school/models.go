package school

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shuleni/backend/core"
	"github.com/shuleni/backend/core/principal"
)

type (
	// School is a tenant. It is owned by exactly one administrator; every
	// scoped operation that administrator performs is filtered to it.
	School struct {
		ID              string      `json:"id" db:"id"`
		Name            string      `json:"name" db:"name"`
		Address         null.String `json:"address" db:"address"`
		AdministratorID string      `json:"administrator_id" db:"administrator_id"`
		CreatedAt       time.Time   `json:"created_at" db:"created_at"` // UTC
	}

	// Teacher is a principal variant that belongs to exactly one school.
	Teacher struct {
		ID           string    `json:"id" db:"id"`
		Name         string    `json:"name" db:"name"`
		Email        string    `json:"email" db:"email"`
		PasswordHash []byte    `json:"-" db:"password_hash"`
		SchoolID     string    `json:"school_id" db:"school_id"`
		CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	}

	// Class belongs to one school and is taught by one teacher of that same
	// school.
	Class struct {
		ID        string    `json:"id" db:"id"`
		Name      string    `json:"name" db:"name"`
		SchoolID  string    `json:"school_id" db:"school_id"`
		TeacherID string    `json:"teacher_id" db:"teacher_id"`
		CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	}

	// Student carries a denormalized school_id that must always match its
	// class's school.
	Student struct {
		ID            string    `json:"id" db:"id"`
		Name          string    `json:"name" db:"name"`
		RollNo        string    `json:"roll_no" db:"roll_no"`
		ClassID       string    `json:"class_id" db:"class_id"`
		SchoolID      string    `json:"school_id" db:"school_id"`
		FaceEmbedding null.JSON `json:"face_embedding,omitempty" db:"face_embedding"`
		CreatedAt     time.Time `json:"created_at" db:"created_at"` // UTC
	}
)

func (t *Teacher) SetPassword(pwd string) error {
	hash, err := principal.HashPassword(pwd)
	if err != nil {
		return err
	}
	t.PasswordHash = hash
	return nil
}

func (t Teacher) Account() principal.Account {
	return principal.Account{
		ID:           t.ID,
		Role:         principal.RoleTeacher,
		Name:         t.Name,
		Email:        t.Email,
		PasswordHash: t.PasswordHash,
		CreatedAt:    t.CreatedAt,
	}
}

// NewSchool contains information needed to create a new School.
type NewSchool struct {
	Name            string      `json:"name" validate:"required"`
	Address         null.String `json:"address"`
	AdministratorID string      `json:"administrator_id" validate:"required"`
}

func (ns *NewSchool) Validate(svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	return svc.validate.Struct(ns)
}

// UpdateSchool defines what information may be provided to modify an existing
// School. Absent fields leave the stored value unchanged.
type UpdateSchool struct {
	Name            string      `json:"name"`
	Address         null.String `json:"address"`
	AdministratorID string      `json:"administrator_id"`
}

func (us *UpdateSchool) Validate(svc *Service) error {
	us.Name = core.CleanString(us.Name)
	return svc.validate.Struct(us)
}

// NewTeacher contains information needed to create a new Teacher. SchoolID is
// required on the global path; scoped creates overwrite it with the caller's
// own school before validation.
type NewTeacher struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	SchoolID string `json:"school_id" validate:"required"`
}

func (nt *NewTeacher) Validate(ctx context.Context, svc *Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)

	if err := svc.validate.Struct(nt); err != nil {
		return err
	}
	return svc.checkTeacherEmailUniqueness(ctx, nt.Email)
}

// UpdateTeacher defines what information may be provided to modify an
// existing Teacher. Absent fields leave the stored value unchanged.
type UpdateTeacher struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

func (ut *UpdateTeacher) Validate(ctx context.Context, svc *Service, orig Teacher) error {
	ut.Name = core.CleanString(ut.Name)
	ut.Email = core.CleanString(ut.Email, true /* lower */)

	if err := svc.validate.Struct(ut); err != nil {
		return err
	}
	if ut.Email != "" && ut.Email != orig.Email {
		return svc.checkTeacherEmailUniqueness(ctx, ut.Email, orig.ID)
	}
	return nil
}

// NewClass contains information needed to create a new Class. The school is
// always the caller's own; the teacher must belong to it.
type NewClass struct {
	Name      string `json:"name" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

func (nc *NewClass) Validate(svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	return svc.validate.Struct(nc)
}

// UpdateClass defines what information may be provided to modify an existing
// Class. Absent fields leave the stored value unchanged.
type UpdateClass struct {
	Name      string `json:"name"`
	TeacherID string `json:"teacher_id"`
}

func (uc *UpdateClass) Validate(svc *Service) error {
	uc.Name = core.CleanString(uc.Name)
	return svc.validate.Struct(uc)
}

// NewStudent contains information needed to create a new Student. The school
// is derived from the class, never taken from the payload.
type NewStudent struct {
	Name          string    `json:"name" validate:"required"`
	RollNo        string    `json:"roll_no" validate:"required"`
	ClassID       string    `json:"class_id" validate:"required"`
	FaceEmbedding null.JSON `json:"face_embedding"`
}

func (ns *NewStudent) Validate(svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.RollNo = core.CleanString(ns.RollNo)
	return svc.validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an
// existing Student. Absent fields leave the stored value unchanged.
type UpdateStudent struct {
	Name          string    `json:"name"`
	RollNo        string    `json:"roll_no"`
	ClassID       string    `json:"class_id"`
	FaceEmbedding null.JSON `json:"face_embedding"`
}

func (us *UpdateStudent) Validate(svc *Service) error {
	us.Name = core.CleanString(us.Name)
	us.RollNo = core.CleanString(us.RollNo)
	return svc.validate.Struct(us)
}

type (
	// TeacherImportRow is one parsed spreadsheet row of a teacher bulk import.
	TeacherImportRow struct {
		Name     string
		Email    string
		Password string
	}

	// ClassImportRow is one parsed spreadsheet row of a class bulk import.
	ClassImportRow struct {
		Name      string
		TeacherID string
	}

	// StudentImportRow is one parsed spreadsheet row of a student bulk
	// update: existing students are matched by ID.
	StudentImportRow struct {
		ID     string
		Name   string
		RollNo string
	}
)
