package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	echoapi "github.com/childclub/backend/apps/api/echo"
	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/roster"
	"github.com/childclub/backend/core/user"
	"github.com/childclub/backend/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword      // mockable
	gooseRunFunc     = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf      *core.Config
	openDB    func() (*sqlx.DB, error)
	rosterSvc *roster.Service
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose migration command (up, down, status, version, ...)")
	fmt.Fprintln(cli.out, "  issuetoken -user ID -role ROLE [-school ID] [-name NAME] [-email EMAIL] [-ttl DURATION] - sign a session token")
	fmt.Fprintln(cli.out, "  members -class ID [-school ID] STUDENT_ID... - replace the students of a class")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "issuetoken":
		return cli.issueToken(args[2:])

	case "members":
		return cli.setMembers(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) issueToken(args []string) error {
	cmd := flag.NewFlagSet("issuetoken", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	userID := cmd.String("user", "", "The user's ID (token subject).")
	schoolID := cmd.String("school", "", "The user's school.")
	role := cmd.String("role", "", "The user's role, e.g. teacher: or admin:school.")
	name := cmd.String("name", "", "The user's display name.")
	email := cmd.String("email", "", "The user's email address.")
	ttl := cmd.Duration("ttl", 0, "How long the token stays valid (8h by default).")
	if err := cmd.Parse(args); err != nil {
		return errHelp
	}
	if *userID == "" || *role == "" {
		cmd.Usage()
		return errHelp
	}

	usr := user.User{
		ID:       *userID,
		SchoolID: *schoolID,
		Name:     *name,
		Email:    *email,
		Roles:    []string{*role},
	}
	if err := usr.Validate(newValidator()); err != nil {
		return err
	}

	key := cli.conf.SecretKey
	if key == "" {
		fmt.Fprint(cli.out, "Enter signing key:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cmd.Usage()
			return errHelp
		}
		key = string(pwd)
	}

	token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, cli.conf, *ttl), key)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}

func (cli *commandLine) setMembers(args []string) error {
	cmd := flag.NewFlagSet("members", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	classID := cmd.String("class", "", "The class ID.")
	schoolID := cmd.String("school", "", "The class's school.")
	if err := cmd.Parse(args); err != nil {
		return errHelp
	}
	if *classID == "" || *schoolID == "" {
		cmd.Usage()
		return errHelp
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	caller := user.User{ID: "admin-cli", Name: "Admin CLI", Roles: []string{user.RoleAdminSuper}}
	if err := cli.rosterSvc.SetMembers(ctx, caller, *schoolID, *classID, cmd.Args()); err != nil {
		return err
	}
	members, err := cli.rosterSvc.Members(ctx, *classID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "class %s: %s\n", *classID, strings.Join(members, ", "))
	return nil
}

func newValidator() *core.Validator {
	v := core.NewValidator()
	user.RegisterValidators(v)
	return v
}
