package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/shuleni/backend/core/principal"
	inmemdb "github.com/shuleni/backend/storage/database/inmem"
)

var prinRepo principal.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()
	prinRepo = inmemdb.NewPrincipalRepository(inmemdb.NewDB())
	return &commandLine{prinRepo: prinRepo}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "attendance", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_addSuperAdmin(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("Supersecret1!"), nil }

	if err := cli.run([]string{"admin", "addsuperadmin", "-name", "Root", "-email", "Root@shuleni.cd"}); err != nil {
		t.Fatalf("cli.run() error = %v", err)
	}

	ctx := context.Background()
	acct, err := prinRepo.GetAccountByEmail(ctx, principal.RoleSuperAdmin, "root@shuleni.cd")
	if err != nil {
		t.Fatalf("GetAccountByEmail() error = %v", err)
	}
	if err := acct.CheckPassword("Supersecret1!"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}

	// running again with a new password updates the existing superadmin
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("Changed2!"), nil }
	if err := cli.run([]string{"admin", "addsuperadmin", "-name", "Root", "-email", "root@shuleni.cd"}); err != nil {
		t.Fatalf("cli.run() error = %v", err)
	}
	all, err := prinRepo.QueryAllSuperAdmins(ctx)
	if err != nil {
		t.Fatalf("QueryAllSuperAdmins() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("len(superadmins) = %d; want 1", len(all))
	}
	refreshed, err := prinRepo.GetAccountByEmail(ctx, principal.RoleSuperAdmin, "root@shuleni.cd")
	if err != nil {
		t.Fatalf("GetAccountByEmail() error = %v", err)
	}
	if err := refreshed.CheckPassword("Changed2!"); err != nil {
		t.Errorf("CheckPassword() after update error = %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	adm := principal.Administrator{Name: "Alice Admin", Email: "alice@shuleni.cd"}
	if err := adm.SetPassword("Supersecret1!"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	adm, err := prinRepo.CreateAdministrator(context.Background(), adm)
	if err != nil {
		t.Fatalf("CreateAdministrator() error = %v", err)
	}

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: principal.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", adm.Email}, extra: extra{pwd: "Changed2!"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshed, err := prinRepo.GetAdministratorByID(context.Background(), adm.ID)
				if err != nil {
					t.Fatalf("GetAdministratorByID() error = %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, adm.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
