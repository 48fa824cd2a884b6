package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/childclub/backend/apps/api/echo"
	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/roster"
	"github.com/childclub/backend/core/user"
	inmemdb "github.com/childclub/backend/storage/database/inmem"
	testutil "github.com/childclub/backend/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := testutil.NewConfig()
	out := new(bytes.Buffer)

	return &commandLine{
		conf: conf,
		openDB: func() (*sqlx.DB, error) {
			// pq connects lazily, the mocked goose never touches it
			return sqlx.Open("postgres", "postgres://localhost/childclub_test?sslmode=disable")
		},
		rosterSvc: roster.NewService(inmemdb.NewRosterRepository(inmemdb.Open()), new(testutil.Logger), conf),
		out:       out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Equal(t, tt.wantErrStr, err.Error())
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	defer func(orig func(string, *sql.DB, ...string) error) { gooseRunFunc = orig }(gooseRunFunc)
	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		if db == nil {
			return fmt.Errorf("no database")
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "attendance_mood", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_issueToken(t *testing.T) {
	cli, out := setup(t)

	defer func(orig func(int) ([]byte, error)) { readPasswordFunc = orig }(readPasswordFunc)

	type extra struct {
		key string
	}
	tests := []struct {
		cliTest
		wantField       string
		noConfiguredKey bool
		wantKey         string
		wantUser        user.User
	}{
		{cliTest: cliTest{name: "no args", args: []string{"issuetoken"}, wantErr: errHelp}},
		{cliTest: cliTest{name: "no role", args: []string{"issuetoken", "-user", "t-1", "-school", "school-1"}, wantErr: errHelp}},
		{cliTest: cliTest{name: "bad flag", args: []string{"issuetoken", "-lol"}, wantErr: errHelp}},
		{
			cliTest:   cliTest{name: "unknown role", args: []string{"issuetoken", "-user", "t-1", "-school", "school-1", "-role", "janitor:"}},
			wantField: "roles",
		},
		{
			cliTest:   cliTest{name: "school required", args: []string{"issuetoken", "-user", "t-1", "-role", user.RoleTeacher}},
			wantField: "school_id",
		},
		{
			cliTest:         cliTest{name: "no signing key", args: []string{"issuetoken", "-user", "t-1", "-school", "school-1", "-role", user.RoleTeacher}, wantErr: errHelp},
			noConfiguredKey: true,
		},
		{
			cliTest:  cliTest{name: "configured key", args: []string{"issuetoken", "-user", "t-1", "-school", "school-1", "-role", user.RoleTeacher, "-name", "Ms Frizzle"}},
			wantKey:  "test-secret",
			wantUser: user.User{ID: "t-1", SchoolID: "school-1", Name: "Ms Frizzle", Roles: []string{user.RoleTeacher}},
		},
		{
			cliTest: cliTest{name: "prompted key", args: []string{"issuetoken", "-user", "root", "-role", user.RoleAdminSuper, "-email", "Root@Test.cd"},
				extra: extra{key: "prompted-secret"}},
			noConfiguredKey: true,
			wantKey:         "prompted-secret",
			wantUser:        user.User{ID: "root", Email: "root@test.cd", Roles: []string{user.RoleAdminSuper}},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			readPasswordFunc = func(fd int) ([]byte, error) {
				if extra, ok := tt.extra.(extra); ok {
					return []byte(extra.key), nil
				}
				return nil, nil
			}
			cli.conf.SecretKey = "test-secret"
			if tt.noConfiguredKey {
				cli.conf.SecretKey = ""
			}
			out.Reset()

			err := cli.run(args)
			if tt.wantField != "" {
				var vErr *core.ValidationError
				require.True(t, errors.As(err, &vErr), "got %v", err)
				require.NotEmpty(t, vErr.Fields)
				assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
				return
			}
			tt.check(t, err)
			if err != nil {
				return
			}

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			raw := strings.TrimSpace(lines[len(lines)-1])

			claims := new(echoapi.Claims)
			_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(tt.wantKey), nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, claims.User())
			assert.True(t, claims.VerifyIssuer(cli.conf.Server.JWTIssuer, true))
		})
	}
}

func Test_commandLine_setMembers(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"members"}, wantErr: errHelp},
		{name: "no school", args: []string{"members", "-class", "class-a", "s-1"}, wantErr: errHelp},
		{name: "set", args: []string{"members", "-class", "class-a", "-school", "school-1", "s-2", "s-1", "s-2"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	assert.Contains(t, out.String(), "class class-a: s-1, s-2")
	members, err := cli.rosterSvc.Members(context.Background(), "class-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1", "s-2"}, members)
}
