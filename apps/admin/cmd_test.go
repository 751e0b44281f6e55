package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
)

func setup(t *testing.T) (*commandLine, *dummydb.DB) {
	t.Helper()

	db := dummydb.Open(nil)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	profile.RegisterValidators(validate, translator)

	profileRepo := dummydb.NewProfileRepository(db)
	return &commandLine{
		db:            &sqlx.DB{},
		profileSvc:    profile.NewService(profileRepo),
		profiles:      profileRepo,
		assignments:   dummydb.NewAssignmentRepository(db),
		notifications: dummydb.NewNotificationRepository(db),
		credentials:   dummydb.NewCredentialRepository(db),
		validate:      validate,
	}, db
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create requires a NAME argument")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to requires a VERSION argument"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create requires a NAME argument"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "notifications", "sql"}},
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

func Test_commandLine_addProfile(t *testing.T) {
	cli, _ := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addprofile"}, wantErr: errHelp},
		{name: "flags but no password", args: []string{"addprofile", "-name", "Ada", "-email", "ada@test.cd", "-role", "admin"}, wantErr: errHelp},
		{
			name: "bad role", args: []string{"addprofile", "-name", "Ada", "-email", "ada@test.cd", "-role", "boss"},
			extra: extra{pwd: "Verysecret!"}, wantErrStr: "role",
		},
		{
			name: "ok", args: []string{"addprofile", "-name", "Ada", "-email", "ada@test.cd", "-role", "admin"},
			extra: extra{pwd: "Verysecret!"},
		},
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
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil {
					t.Fatal("cli.run() expected an error")
				}
			default:
				if err != nil {
					t.Fatalf("cli.run() unexpected error = %v", err)
				}
				p, err := cli.profileSvc.GetByEmail(context.Background(), "ada@test.cd")
				if err != nil {
					t.Fatalf("GetByEmail(): %v", err)
				}
				if !p.IsAdmin() {
					t.Errorf("role = %s; want admin", p.Role)
				}
				creds, err := cli.credentials.GetCredentialsByEmail(context.Background(), "ada@test.cd")
				if err != nil {
					t.Fatalf("GetCredentialsByEmail(): %v", err)
				}
				if err := creds.CheckPassword("Verysecret!"); err != nil {
					t.Error("provisioned password does not verify")
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)

	ctx := context.Background()
	p, err := cli.profileSvc.Create(ctx, profile.NewProfile{
		Name: "User", Email: "awe@test.cd", Role: profile.RoleStudent, Secret: "xxxxxxxx",
	})
	if err != nil {
		t.Fatalf("creating fixture profile: %v", err)
	}
	creds := session.Credentials{ProfileID: p.ID, Email: p.Email}
	if err := creds.SetPassword("xxxxxxxx"); err != nil {
		t.Fatalf("hashing fixture password: %v", err)
	}
	if err := cli.credentials.UpsertCredentials(ctx, creds); err != nil {
		t.Fatalf("provisioning fixture credentials: %v", err)
	}

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "profile not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: session.ErrCredentialsNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", p.Email}, extra: extra{pwd: "Newsecret!"}},
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
				refreshed, err := cli.credentials.GetCredentialsByEmail(ctx, p.Email)
				if err != nil {
					t.Fatalf("GetCredentialsByEmail(): %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, creds.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_seed(t *testing.T) {
	cli, _ := setup(t)
	ctx := context.Background()

	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	admin, err := cli.profileSvc.GetByEmail(ctx, "admin@school.edu")
	if err != nil {
		t.Fatalf("GetByEmail(admin): %v", err)
	}
	if !admin.IsAdmin() {
		t.Errorf("role = %s; want admin", admin.Role)
	}

	parent, err := cli.profileSvc.GetByEmail(ctx, "parent1@example.com")
	if err != nil {
		t.Fatalf("GetByEmail(parent): %v", err)
	}
	if len(parent.ChildIDs) != 2 {
		t.Errorf("len(ChildIDs) = %d; want 2", len(parent.ChildIDs))
	}

	views, err := cli.assignments.QueryAssignments(ctx, assignment.QueryFilter{})
	if err != nil {
		t.Fatalf("QueryAssignments(): %v", err)
	}
	if len(views) != 5 {
		t.Errorf("len(assignments) = %d; want 5", len(views))
	}

	creds, err := cli.credentials.GetCredentialsByEmail(ctx, "student1@school.edu")
	if err != nil {
		t.Fatalf("GetCredentialsByEmail(): %v", err)
	}
	if err := creds.CheckPassword(seedPassword); err != nil {
		t.Error("seeded password does not verify")
	}

	// a second run must refuse, not duplicate
	if err := cli.run([]string{"admin", "seed"}); err == nil {
		t.Error("cli.run() expected an error on rerun")
	}
}
