// Package roster keeps class membership, which resolves class targeting into students.
package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/user"
)

type (
	Repository interface {
		// SetClassMembers replaces the members of classID in a single write.
		SetClassMembers(ctx context.Context, schoolID, classID string, studentIDs []string) error
		// QueryClassMembers returns the distinct students of any of classIDs, sorted.
		QueryClassMembers(ctx context.Context, classIDs ...string) ([]string, error)
		// QueryStudentClasses returns the classes studentID belongs to, sorted.
		QueryStudentClasses(ctx context.Context, studentID string) ([]string, error)
	}

	Service struct {
		repo    Repository
		logger  core.Logger
		timeout time.Duration
	}
)

func NewService(repo Repository, logger core.Logger, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{repo: repo, logger: logger, timeout: conf.Database.QueryTimeout}
}

// SetMembers replaces the students of a class. School admins only.
func (svc *Service) SetMembers(ctx context.Context, caller user.User, schoolID, classID string, studentIDs []string) error {
	if schoolID == "" {
		schoolID = caller.SchoolID
	}
	if !caller.IsSchoolAdmin(schoolID) {
		return core.NewAuthorizationError("set class members", "school admins only")
	}
	classID = core.CleanString(classID)
	if classID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "this field is required"})
	}
	if schoolID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "school_id", Error: "this field is required"})
	}

	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	studentIDs = core.CleanStrings(studentIDs)
	if studentIDs == nil {
		studentIDs = []string{}
	}
	if err := svc.repo.SetClassMembers(ctx, schoolID, classID, studentIDs); err != nil {
		return core.TrapErr(err, "setting class members")
	}
	svc.logger.Info(fmt.Sprintf("class %s members set (%d students)", classID, len(studentIDs)), caller)
	return nil
}

// ClassMembers lists the students of a class. Staff only.
func (svc *Service) ClassMembers(ctx context.Context, caller user.User, classID string) ([]string, error) {
	if !caller.IsStaff() {
		return nil, core.NewAuthorizationError("list class members", "staff only")
	}
	return svc.Members(ctx, classID)
}

// Members returns the distinct students of any of classIDs.
func (svc *Service) Members(ctx context.Context, classIDs ...string) ([]string, error) {
	if len(classIDs) == 0 {
		return []string{}, nil
	}
	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	ids, err := svc.repo.QueryClassMembers(ctx, classIDs...)
	if err != nil {
		return nil, core.TrapErr(err, "querying class members")
	}
	return ids, nil
}

// ClassesOf returns the classes a student belongs to.
func (svc *Service) ClassesOf(ctx context.Context, studentID string) ([]string, error) {
	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	ids, err := svc.repo.QueryStudentClasses(ctx, studentID)
	if err != nil {
		return nil, core.TrapErr(err, "querying student classes")
	}
	return ids, nil
}

// Audience resolves the distinct students targeted directly or through classes.
func (svc *Service) Audience(ctx context.Context, classIDs, studentIDs []string) ([]string, error) {
	members, err := svc.Members(ctx, classIDs...)
	if err != nil {
		return nil, err
	}
	return core.CleanStrings(append(append([]string{}, studentIDs...), members...)), nil
}
