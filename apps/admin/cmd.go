package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/adz4needz/portal/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrRepo user.Repository
	usrSvc  user.Service
	migrate func(args []string) error
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  addmentor -name NAME -email EMAIL [-phone PHONE] - create a mentor account")
	fmt.Fprintln(cli.out, "  resetpassword -id EMPLOYEE_ID - reset user's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a database migration command (up, down, status, ...)")
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addMentorCmd := flag.NewFlagSet("addmentor", flag.ContinueOnError)
	addMentorName := addMentorCmd.String("name", "", "The mentor's full name.")
	addMentorEmail := addMentorCmd.String("email", "", "The mentor's email. The password will be prompted next.")
	addMentorPhone := addMentorCmd.String("phone", "", "The mentor's phone number.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordID := resetPasswordCmd.String("id", "", "The user's employee ID. The password will be prompted next.")

	for _, fs := range []*flag.FlagSet{addMentorCmd, resetPasswordCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "addmentor":
		if err := addMentorCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addMentorName == "" || *addMentorEmail == "" {
			addMentorCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addMentorCmd)
		if err != nil {
			return err
		}
		usr, err := cli.addMentor(*addMentorName, *addMentorEmail, *addMentorPhone, pwd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "mentor %s created with employee ID %s\n", usr.FullName, usr.ID)
		return nil

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordID == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordID, pwd)

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
