package main

import (
	"context"

	"github.com/shuleni/backend/core"
	"github.com/shuleni/backend/core/principal"
)

// addSuperAdmin updates or creates a superadmin credential.
func (cli *commandLine) addSuperAdmin(name, email, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	acct, err := cli.prinRepo.GetAccountByEmail(ctx, principal.RoleSuperAdmin, email)
	if err != nil {
		if err != principal.ErrNotFound {
			return err
		}
		sa := principal.SuperAdmin{
			Name:  core.CleanString(name),
			Email: email,
		}
		if err := sa.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.prinRepo.CreateSuperAdmin(ctx, sa)
		return err
	}

	hash, err := principal.HashPassword(pwd)
	if err != nil {
		return err
	}
	return cli.prinRepo.SetAccountPassword(ctx, principal.RoleSuperAdmin, acct.ID, hash)
}
