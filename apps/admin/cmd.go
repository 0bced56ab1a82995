package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"sekolahku/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]               - run database migrations (up, down, status, ...)")
	fmt.Println("  createsuperadmin -email EMAIL -name NAME - create (or promote) a superadmin account")
	fmt.Println("  resetpassword -email EMAIL           - reset a user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createSuperadminCmd := flag.NewFlagSet("createsuperadmin", flag.ExitOnError)
	createSuperadminEmail := createSuperadminCmd.String("email", "", "The superadmin's email. The password will be prompted next.")
	createSuperadminName := createSuperadminCmd.String("name", "", "The superadmin's display name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "createsuperadmin":
		if err := createSuperadminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createSuperadminEmail == "" || *createSuperadminName == "" {
			createSuperadminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(createSuperadminCmd)
		if err != nil {
			return err
		}
		return cli.createSuperadmin(*createSuperadminEmail, *createSuperadminName, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
