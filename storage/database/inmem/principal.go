package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/shuleni/backend/core/principal"
)

type principalRepository struct {
	db *DB
}

func NewPrincipalRepository(db *DB) principal.Repository {
	return &principalRepository{db: db}
}

func (repo *principalRepository) GetAccountByEmail(_ context.Context, role principal.Role, email string) (principal.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	switch role {
	case principal.RoleSuperAdmin:
		for _, sa := range repo.db.superAdmins {
			if sa.Email == email {
				return principal.Account{ID: sa.ID, Role: role, Name: sa.Name, Email: sa.Email, PasswordHash: sa.PasswordHash, CreatedAt: sa.CreatedAt}, nil
			}
		}
	case principal.RoleAdministrator:
		for _, adm := range repo.db.administrators {
			if adm.Email == email {
				return principal.Account{ID: adm.ID, Role: role, Name: adm.Name, Email: adm.Email, PasswordHash: adm.PasswordHash, CreatedAt: adm.CreatedAt}, nil
			}
		}
	case principal.RoleTeacher:
		for _, t := range repo.db.teachers {
			if t.Email == email {
				return t.Account(), nil
			}
		}
	}
	return principal.Account{}, principal.ErrNotFound
}

func (repo *principalRepository) GetAccountByID(_ context.Context, role principal.Role, id string) (principal.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	switch role {
	case principal.RoleSuperAdmin:
		if sa, ok := repo.db.superAdmins[id]; ok {
			return principal.Account{ID: sa.ID, Role: role, Name: sa.Name, Email: sa.Email, PasswordHash: sa.PasswordHash, CreatedAt: sa.CreatedAt}, nil
		}
	case principal.RoleAdministrator:
		if adm, ok := repo.db.administrators[id]; ok {
			return principal.Account{ID: adm.ID, Role: role, Name: adm.Name, Email: adm.Email, PasswordHash: adm.PasswordHash, CreatedAt: adm.CreatedAt}, nil
		}
	case principal.RoleTeacher:
		if t, ok := repo.db.teachers[id]; ok {
			return t.Account(), nil
		}
	}
	return principal.Account{}, principal.ErrNotFound
}

func (repo *principalRepository) SetAccountPassword(_ context.Context, role principal.Role, id string, hash []byte) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	switch role {
	case principal.RoleSuperAdmin:
		if sa, ok := repo.db.superAdmins[id]; ok {
			sa.PasswordHash = hash
			return nil
		}
	case principal.RoleAdministrator:
		if adm, ok := repo.db.administrators[id]; ok {
			adm.PasswordHash = hash
			return nil
		}
	case principal.RoleTeacher:
		if t, ok := repo.db.teachers[id]; ok {
			t.PasswordHash = hash
			return nil
		}
	}
	return principal.ErrNotFound
}

func (repo *principalRepository) CheckEmailUniqueness(_ context.Context, role principal.Role, email string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	switch role {
	case principal.RoleSuperAdmin:
		for _, sa := range repo.db.superAdmins {
			if sa.Email == email && !contains(excludedIDs, sa.ID) {
				return principal.ErrEmailExists
			}
		}
	case principal.RoleAdministrator:
		for _, adm := range repo.db.administrators {
			if adm.Email == email && !contains(excludedIDs, adm.ID) {
				return principal.ErrEmailExists
			}
		}
	case principal.RoleTeacher:
		for _, t := range repo.db.teachers {
			if t.Email == email && !contains(excludedIDs, t.ID) {
				return principal.ErrEmailExists
			}
		}
	}
	return nil
}

func (repo *principalRepository) CreateSuperAdmin(_ context.Context, sa principal.SuperAdmin) (principal.SuperAdmin, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sa.ID = uuid.New().String()
	repo.db.superAdmins[sa.ID] = &sa
	return sa, nil
}

func (repo *principalRepository) QueryAllSuperAdmins(_ context.Context) ([]principal.SuperAdmin, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	admins := make([]principal.SuperAdmin, 0, len(repo.db.superAdmins))
	for _, sa := range repo.db.superAdmins {
		admins = append(admins, *sa)
	}
	return admins, nil
}

func (repo *principalRepository) GetSuperAdminByID(_ context.Context, id string) (principal.SuperAdmin, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sa, ok := repo.db.superAdmins[id]; ok {
		return *sa, nil
	}
	return principal.SuperAdmin{}, principal.ErrNotFound
}

func (repo *principalRepository) UpdateSuperAdmin(_ context.Context, sa principal.SuperAdmin) (principal.SuperAdmin, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.superAdmins[sa.ID]
	if !ok {
		return principal.SuperAdmin{}, principal.ErrNotFound
	}
	// only save set fields
	if sa.Name != "" {
		orig.Name = sa.Name
	}
	if sa.Email != "" {
		orig.Email = sa.Email
	}
	if sa.PasswordHash != nil {
		orig.PasswordHash = sa.PasswordHash
	}
	return *orig, nil
}

func (repo *principalRepository) DeleteSuperAdminsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.superAdmins, id)
	}
	return nil
}

func (repo *principalRepository) CreateAdministrator(_ context.Context, adm principal.Administrator) (principal.Administrator, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	adm.ID = uuid.New().String()
	repo.db.administrators[adm.ID] = &adm
	return adm, nil
}

func (repo *principalRepository) QueryAllAdministrators(_ context.Context) ([]principal.Administrator, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	admins := make([]principal.Administrator, 0, len(repo.db.administrators))
	for _, adm := range repo.db.administrators {
		admins = append(admins, *adm)
	}
	return admins, nil
}

func (repo *principalRepository) GetAdministratorByID(_ context.Context, id string) (principal.Administrator, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if adm, ok := repo.db.administrators[id]; ok {
		return *adm, nil
	}
	return principal.Administrator{}, principal.ErrNotFound
}

func (repo *principalRepository) UpdateAdministrator(_ context.Context, adm principal.Administrator) (principal.Administrator, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.administrators[adm.ID]
	if !ok {
		return principal.Administrator{}, principal.ErrNotFound
	}
	// only save set fields
	if adm.Name != "" {
		orig.Name = adm.Name
	}
	if adm.Email != "" {
		orig.Email = adm.Email
	}
	if adm.PasswordHash != nil {
		orig.PasswordHash = adm.PasswordHash
	}
	return *orig, nil
}

func (repo *principalRepository) DeleteAdministratorsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.administrators, id)
	}
	return nil
}
