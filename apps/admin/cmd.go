package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/notification"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db            *sqlx.DB
	profileSvc    *profile.Service
	profiles      profile.Repository
	assignments   assignment.Repository
	notifications notification.Repository
	credentials   session.CredentialRepository
	validate      *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addprofile -name NAME -email EMAIL -role ROLE [-parent PARENT_ID] - create a profile; the password is prompted next")
	fmt.Println("  resetpassword -email EMAIL - reset a profile's password")
	fmt.Println("  migrate COMMAND [args] - run a database migration command")
	fmt.Println("  seed - load the demo school dataset")
}

func (cli *commandLine) promptPassword(usage func()) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addProfileCmd := flag.NewFlagSet("addprofile", flag.ExitOnError)
	addProfileName := addProfileCmd.String("name", "", "The profile's display name.")
	addProfileEmail := addProfileCmd.String("email", "", "The profile's sign-in email.")
	addProfileRole := addProfileCmd.String("role", "", "One of: student, parent, admin.")
	addProfileParent := addProfileCmd.String("parent", "", "Parent profile ID; students only.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The profile's sign-in email. The password will be prompted next.")

	switch args[1] {
	case "addprofile":
		if err := addProfileCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addProfileName == "" || *addProfileEmail == "" || *addProfileRole == "" {
			addProfileCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addProfileCmd.Usage)
		if err != nil {
			return err
		}
		return cli.addProfile(*addProfileName, *addProfileEmail, *addProfileRole, *addProfileParent, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd.Usage)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}
