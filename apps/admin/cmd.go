package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/activitypoints/core"
	"github.com/trezcool/activitypoints/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addstudent -name NAME -regnum REGNUM -email EMAIL - create a student record")
	fmt.Println("  addtutor   -name NAME -regnum REGNUM -email EMAIL - create a tutor record; an optional")
	fmt.Println("             password is prompted next (leave empty to let the OTP flow set it)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ExitOnError)
	addStudentName := addStudentCmd.String("name", "", "The student's full name.")
	addStudentRegNum := addStudentCmd.String("regnum", "", "The student's register number.")
	addStudentEmail := addStudentCmd.String("email", "", "The student's college email.")

	addTutorCmd := flag.NewFlagSet("addtutor", flag.ExitOnError)
	addTutorName := addTutorCmd.String("name", "", "The tutor's full name.")
	addTutorRegNum := addTutorCmd.String("regnum", "", "The tutor's register number.")
	addTutorEmail := addTutorCmd.String("email", "", "The tutor's college email.")

	switch args[1] {
	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStudentName == "" || *addStudentRegNum == "" || *addStudentEmail == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.RoleStudent, *addStudentName, *addStudentRegNum, *addStudentEmail, "")
	case "addtutor":
		if err := addTutorCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTutorName == "" || *addTutorRegNum == "" || *addTutorEmail == "" {
			addTutorCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password (optional):")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		return cli.addUser(user.RoleTutor, *addTutorName, *addTutorRegNum, *addTutorEmail, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}

// addUser creates a directory record out-of-band; the OTP flow activates it
// later unless a password is supplied here.
func (cli *commandLine) addUser(role, name, regNum, email, pwd string) error {
	now := time.Now().UTC()
	usr := user.User{
		Role:           role,
		Name:           core.CleanString(name),
		RegisterNumber: core.CleanString(regNum),
		Email:          core.CleanString(email, true /* lower */),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
	}

	ctx := context.Background()
	var err error
	if role == user.RoleTutor {
		_, err = cli.usrRepo.CreateTutor(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateStudent(ctx, usr)
	}
	return err
}
