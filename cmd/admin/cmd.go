package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/shuleni/backend/core/principal"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	prinRepo principal.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addsuperadmin -name NAME -email EMAIL - update or create a superadmin. The password will be prompted next.")
	fmt.Println("  resetpassword -email EMAIL - reset an account's password. The password will be prompted next.")
	fmt.Println("  migrate up|up-by-one|up-to VERSION|down|down-to VERSION|redo|reset|status|version|create NAME [go|sql]|fix - migrate the DB")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSuperAdminCmd := flag.NewFlagSet("addsuperadmin", flag.ExitOnError)
	addSuperAdminName := addSuperAdminCmd.String("name", "", "The superadmin's full name.")
	addSuperAdminEmail := addSuperAdminCmd.String("email", "", "The superadmin's email.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	switch args[1] {
	case "addsuperadmin":
		if err := addSuperAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSuperAdminName == "" || *addSuperAdminEmail == "" {
			addSuperAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addSuperAdminCmd.Usage()
			return errHelp
		}
		return cli.addSuperAdmin(*addSuperAdminName, *addSuperAdminEmail, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
