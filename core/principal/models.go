package principal

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shuleni/backend/core"
)

// Role tags every authenticated identity. The set is closed: scoping rules
// switch exhaustively over these three values.
type Role string

const (
	RoleSuperAdmin    Role = "superadmin"
	RoleAdministrator Role = "administrator"
	RoleTeacher       Role = "teacher"
)

// LoginPrecedence is the order in which login resolves an email across the
// principal variants. The same email may exist in more than one variant;
// resolution must stay deterministic.
var LoginPrecedence = []Role{RoleSuperAdmin, RoleAdministrator, RoleTeacher}

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdministrator, RoleTeacher:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Principal is the authenticated identity attached to a request once the
// bearer token has been resolved against the credential store.
type Principal struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p Principal) IsSuperAdmin() bool    { return p.Role == RoleSuperAdmin }
func (p Principal) IsAdministrator() bool { return p.Role == RoleAdministrator }
func (p Principal) IsTeacher() bool       { return p.Role == RoleTeacher }

// Account is the stored credential record behind a Principal, independent of
// which table it lives in.
type Account struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

func (a Account) Principal() Principal {
	return Principal{ID: a.ID, Role: a.Role, Name: a.Name, Email: a.Email}
}

func (a Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

// HashPassword is the single one-way function used for all stored passwords.
func HashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
}

// SuperAdmin has unrestricted access to all entities.
type SuperAdmin struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

func (sa *SuperAdmin) SetPassword(pwd string) error {
	hash, err := HashPassword(pwd)
	if err != nil {
		return err
	}
	sa.PasswordHash = hash
	return nil
}

func (sa SuperAdmin) account() Account {
	return Account{ID: sa.ID, Role: RoleSuperAdmin, Name: sa.Name, Email: sa.Email, PasswordHash: sa.PasswordHash, CreatedAt: sa.CreatedAt}
}

// Administrator owns at most one School; all of their scoped operations are
// filtered to that school.
type Administrator struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

func (adm *Administrator) SetPassword(pwd string) error {
	hash, err := HashPassword(pwd)
	if err != nil {
		return err
	}
	adm.PasswordHash = hash
	return nil
}

func (adm Administrator) account() Account {
	return Account{ID: adm.ID, Role: RoleAdministrator, Name: adm.Name, Email: adm.Email, PasswordHash: adm.PasswordHash, CreatedAt: adm.CreatedAt}
}

// NewSuperAdmin contains information needed to create a new SuperAdmin.
type NewSuperAdmin struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (nsa *NewSuperAdmin) Validate(ctx context.Context, svc *Service) error {
	nsa.Name = core.CleanString(nsa.Name)
	nsa.Email = core.CleanString(nsa.Email, true /* lower */)

	if err := svc.validate.Struct(nsa); err != nil {
		return err
	}
	return svc.checkEmailUniqueness(ctx, RoleSuperAdmin, nsa.Email)
}

// UpdateSuperAdmin defines what information may be provided to modify an
// existing SuperAdmin. Absent fields leave the stored value unchanged.
type UpdateSuperAdmin struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

func (usa *UpdateSuperAdmin) Validate(ctx context.Context, svc *Service, orig SuperAdmin) error {
	usa.Name = core.CleanString(usa.Name)
	usa.Email = core.CleanString(usa.Email, true /* lower */)

	if err := svc.validate.Struct(usa); err != nil {
		return err
	}
	if usa.Email != "" && usa.Email != orig.Email {
		return svc.checkEmailUniqueness(ctx, RoleSuperAdmin, usa.Email, orig.ID)
	}
	return nil
}

// NewAdministrator contains information needed to create a new Administrator.
type NewAdministrator struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (na *NewAdministrator) Validate(ctx context.Context, svc *Service) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)

	if err := svc.validate.Struct(na); err != nil {
		return err
	}
	return svc.checkEmailUniqueness(ctx, RoleAdministrator, na.Email)
}

// UpdateAdministrator defines what information may be provided to modify an
// existing Administrator. Absent fields leave the stored value unchanged.
type UpdateAdministrator struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

func (ua *UpdateAdministrator) Validate(ctx context.Context, svc *Service, orig Administrator) error {
	ua.Name = core.CleanString(ua.Name)
	ua.Email = core.CleanString(ua.Email, true /* lower */)

	if err := svc.validate.Struct(ua); err != nil {
		return err
	}
	if ua.Email != "" && ua.Email != orig.Email {
		return svc.checkEmailUniqueness(ctx, RoleAdministrator, ua.Email, orig.ID)
	}
	return nil
}

// ResetAccountPassword carries a password-reset confirmation.
type ResetAccountPassword struct {
	Token    string `json:"token" validate:"required"`
	UID      string `json:"uid" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (rp ResetAccountPassword) Validate(svc *Service) error { return svc.validate.Struct(rp) }
