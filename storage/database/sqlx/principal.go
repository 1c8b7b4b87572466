package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core/principal"
)

var accountColumns = []string{"id", "name", "email", "password_hash", "created_at"}

type principalRepository struct {
	db *sqlx.DB
}

func NewPrincipalRepository(db *sqlx.DB) principal.Repository {
	return &principalRepository{db: db}
}

// roleTable selects the credential table backing a role.
func roleTable(role principal.Role) string {
	switch role {
	case principal.RoleSuperAdmin:
		return "superadmins"
	case principal.RoleAdministrator:
		return "administrators"
	default:
		return "teachers"
	}
}

type accountRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (row accountRow) account(role principal.Role) principal.Account {
	return principal.Account{
		ID:           row.ID,
		Role:         role,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}
}

func (repo *principalRepository) getAccount(ctx context.Context, role principal.Role, pred interface{}) (principal.Account, error) {
	q, args, err := psql.Select(accountColumns...).From(roleTable(role)).Where(pred).ToSql()
	if err != nil {
		return principal.Account{}, errors.Wrap(err, "building query")
	}
	var row accountRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return principal.Account{}, principal.ErrNotFound
		}
		return principal.Account{}, errors.Wrap(err, "getting account")
	}
	return row.account(role), nil
}

func (repo *principalRepository) GetAccountByEmail(ctx context.Context, role principal.Role, email string) (principal.Account, error) {
	return repo.getAccount(ctx, role, sq.Eq{"email": email})
}

func (repo *principalRepository) GetAccountByID(ctx context.Context, role principal.Role, id string) (principal.Account, error) {
	return repo.getAccount(ctx, role, sq.Eq{"id": id})
}

func (repo *principalRepository) SetAccountPassword(ctx context.Context, role principal.Role, id string, hash []byte) error {
	q, args, err := psql.Update(roleTable(role)).Set("password_hash", hash).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "setting password")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.ErrNotFound
	}
	return nil
}

func (repo *principalRepository) CheckEmailUniqueness(ctx context.Context, role principal.Role, email string, excludedIDs ...string) error {
	query := psql.Select("COUNT(*)").From(roleTable(role)).Where(sq.Eq{"email": email})
	if len(excludedIDs) > 0 {
		query = query.Where(sq.NotEq{"id": excludedIDs})
	}
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return principal.ErrEmailExists
	}
	return nil
}

func (repo *principalRepository) CreateSuperAdmin(ctx context.Context, sa principal.SuperAdmin) (principal.SuperAdmin, error) {
	sa.ID = uuid.New().String()
	q, args, err := psql.Insert("superadmins").
		Columns(accountColumns...).
		Values(sa.ID, sa.Name, sa.Email, sa.PasswordHash, sa.CreatedAt).
		ToSql()
	if err != nil {
		return principal.SuperAdmin{}, errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		if isUniqueViolation(err, "") {
			return principal.SuperAdmin{}, principal.ErrEmailExists
		}
		return principal.SuperAdmin{}, errors.Wrap(err, "creating superadmin")
	}
	return sa, nil
}

func (repo *principalRepository) QueryAllSuperAdmins(ctx context.Context) ([]principal.SuperAdmin, error) {
	q, args, err := psql.Select(accountColumns...).From("superadmins").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	admins := []principal.SuperAdmin{}
	if err := repo.db.SelectContext(ctx, &admins, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying superadmins")
	}
	return admins, nil
}

func (repo *principalRepository) GetSuperAdminByID(ctx context.Context, id string) (principal.SuperAdmin, error) {
	q, args, err := psql.Select(accountColumns...).From("superadmins").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return principal.SuperAdmin{}, errors.Wrap(err, "building query")
	}
	var sa principal.SuperAdmin
	if err := repo.db.GetContext(ctx, &sa, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return principal.SuperAdmin{}, principal.ErrNotFound
		}
		return principal.SuperAdmin{}, errors.Wrap(err, "getting superadmin")
	}
	return sa, nil
}

// UpdateSuperAdmin only writes set fields.
func (repo *principalRepository) UpdateSuperAdmin(ctx context.Context, sa principal.SuperAdmin) (principal.SuperAdmin, error) {
	query := psql.Update("superadmins").Where(sq.Eq{"id": sa.ID})
	var dirty bool
	if sa.Name != "" {
		query = query.Set("name", sa.Name)
		dirty = true
	}
	if sa.Email != "" {
		query = query.Set("email", sa.Email)
		dirty = true
	}
	if sa.PasswordHash != nil {
		query = query.Set("password_hash", sa.PasswordHash)
		dirty = true
	}
	if !dirty {
		return repo.GetSuperAdminByID(ctx, sa.ID)
	}

	q, args, err := query.Suffix("RETURNING " + joinColumns(accountColumns)).ToSql()
	if err != nil {
		return principal.SuperAdmin{}, errors.Wrap(err, "building query")
	}
	var updated principal.SuperAdmin
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return principal.SuperAdmin{}, principal.ErrNotFound
		}
		if isUniqueViolation(err, "") {
			return principal.SuperAdmin{}, principal.ErrEmailExists
		}
		return principal.SuperAdmin{}, errors.Wrap(err, "updating superadmin")
	}
	return updated, nil
}

func (repo *principalRepository) DeleteSuperAdminsByID(ctx context.Context, ids ...string) error {
	q, args, err := psql.Delete("superadmins").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting superadmins")
	}
	return nil
}

func (repo *principalRepository) CreateAdministrator(ctx context.Context, adm principal.Administrator) (principal.Administrator, error) {
	adm.ID = uuid.New().String()
	q, args, err := psql.Insert("administrators").
		Columns(accountColumns...).
		Values(adm.ID, adm.Name, adm.Email, adm.PasswordHash, adm.CreatedAt).
		ToSql()
	if err != nil {
		return principal.Administrator{}, errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		if isUniqueViolation(err, "") {
			return principal.Administrator{}, principal.ErrEmailExists
		}
		return principal.Administrator{}, errors.Wrap(err, "creating administrator")
	}
	return adm, nil
}

func (repo *principalRepository) QueryAllAdministrators(ctx context.Context) ([]principal.Administrator, error) {
	q, args, err := psql.Select(accountColumns...).From("administrators").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	admins := []principal.Administrator{}
	if err := repo.db.SelectContext(ctx, &admins, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying administrators")
	}
	return admins, nil
}

func (repo *principalRepository) GetAdministratorByID(ctx context.Context, id string) (principal.Administrator, error) {
	q, args, err := psql.Select(accountColumns...).From("administrators").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return principal.Administrator{}, errors.Wrap(err, "building query")
	}
	var adm principal.Administrator
	if err := repo.db.GetContext(ctx, &adm, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return principal.Administrator{}, principal.ErrNotFound
		}
		return principal.Administrator{}, errors.Wrap(err, "getting administrator")
	}
	return adm, nil
}

// UpdateAdministrator only writes set fields.
func (repo *principalRepository) UpdateAdministrator(ctx context.Context, adm principal.Administrator) (principal.Administrator, error) {
	query := psql.Update("administrators").Where(sq.Eq{"id": adm.ID})
	var dirty bool
	if adm.Name != "" {
		query = query.Set("name", adm.Name)
		dirty = true
	}
	if adm.Email != "" {
		query = query.Set("email", adm.Email)
		dirty = true
	}
	if adm.PasswordHash != nil {
		query = query.Set("password_hash", adm.PasswordHash)
		dirty = true
	}
	if !dirty {
		return repo.GetAdministratorByID(ctx, adm.ID)
	}

	q, args, err := query.Suffix("RETURNING " + joinColumns(accountColumns)).ToSql()
	if err != nil {
		return principal.Administrator{}, errors.Wrap(err, "building query")
	}
	var updated principal.Administrator
	if err := repo.db.GetContext(ctx, &updated, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return principal.Administrator{}, principal.ErrNotFound
		}
		if isUniqueViolation(err, "") {
			return principal.Administrator{}, principal.ErrEmailExists
		}
		return principal.Administrator{}, errors.Wrap(err, "updating administrator")
	}
	return updated, nil
}

func (repo *principalRepository) DeleteAdministratorsByID(ctx context.Context, ids ...string) error {
	q, args, err := psql.Delete("administrators").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting administrators")
	}
	return nil
}
