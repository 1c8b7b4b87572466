package main

import (
	"context"

	"github.com/shuleni/backend/core"
	"github.com/shuleni/backend/core/principal"
)

// resetPassword looks the email up across the credential tables, in login
// precedence order, and replaces the first match's password.
func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	for _, role := range principal.LoginPrecedence {
		acct, err := cli.prinRepo.GetAccountByEmail(ctx, role, email)
		if err == principal.ErrNotFound {
			continue
		}
		if err != nil {
			return err
		}
		hash, err := principal.HashPassword(pwd)
		if err != nil {
			return err
		}
		return cli.prinRepo.SetAccountPassword(ctx, role, acct.ID, hash)
	}
	return principal.ErrNotFound
}
