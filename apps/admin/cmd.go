package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/auth"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp             = errors.New("help provided")
	errPasswordMismatch = errors.New("passwords do not match")
)

type commandLine struct {
	store   core.Store
	authSvc *auth.Service
	indexes map[string][]core.Index
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  seed -email EMAIL [-username USERNAME] - create or update the admin account")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset an admin's password")
	fmt.Println("  indexes - create the database indexes")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedEmail := seedCmd.String("email", "", "The admin's email. The password will be prompted next.")
	seedUname := seedCmd.String("username", "", "The admin's username (defaults to the email's local part).")
	seedFirstName := seedCmd.String("firstname", "Admin", "The admin's first name.")
	seedLastName := seedCmd.String("lastname", "User", "The admin's last name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The admin's username or email. The password will be prompted next.")

	switch args[1] {
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedEmail == "" {
			seedCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(auth.NewAdmin{
			Email:           *seedEmail,
			Username:        *seedUname,
			FirstName:       *seedFirstName,
			LastName:        *seedLastName,
			Password:        pwd,
			PasswordConfirm: pwd,
		})
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "indexes":
		return cli.ensureIndexes()
	default:
		cli.printUsage()
		return errHelp
	}
}

// promptPassword reads the password twice from the terminal.
func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil || len(pwd) == 0 {
		return "", err
	}

	fmt.Print("Confirm password:")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(confirm) != string(pwd) {
		return "", errPasswordMismatch
	}
	return string(pwd), nil
}
