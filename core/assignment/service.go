package assignment

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
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// GetAssignment fails with a core.NotFoundError for unknown or deleted ids.
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		// UpdateAssignment stores a if the stored version still equals a.Version, bumping it.
		// A stale version fails with a core.ConflictError.
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// DeleteAssignment soft-deletes id. It fails with a core.NotFoundError for unknown or deleted ids
		// and with a core.ConflictError while any of its submissions awaits review.
		DeleteAssignment(ctx context.Context, id string, deletedAt time.Time) error
		QueryAssignments(ctx context.Context, filter RepoFilter) ([]Assignment, error)
	}

	// ClassResolver resolves the classes a student belongs to.
	ClassResolver interface {
		ClassesOf(ctx context.Context, studentID string) ([]string, error)
	}

	Service struct {
		repo     Repository
		classes  ClassResolver
		validate *core.Validator
		logger   core.Logger
		events   core.EventRecorder
		timeout  time.Duration
	}
)

func NewService(
	repo Repository,
	classes ClassResolver,
	validate *core.Validator,
	logger core.Logger,
	events core.EventRecorder,
	conf *core.Config,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(classes, "classes"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(events, "events"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{
		repo:     repo,
		classes:  classes,
		validate: validate,
		logger:   logger,
		events:   events,
		timeout:  conf.Database.QueryTimeout,
	}
}

// Create validates na and stores a new Assignment. Staff only.
func (svc *Service) Create(ctx context.Context, caller user.User, na NewAssignment) (Assignment, error) {
	if !caller.IsStaff() {
		return Assignment{}, core.NewAuthorizationError("create assignment", "staff only")
	}
	if !caller.IsSuperAdmin() || na.SchoolID == "" {
		na.SchoolID = caller.SchoolID
	}
	if err := na.Validate(svc.validate); err != nil {
		return Assignment{}, err
	}
	if na.SchoolID == "" {
		return Assignment{}, core.NewValidationError(nil, core.FieldError{Field: "school_id", Error: "this field is required"})
	}

	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	now := core.Now()
	a := Assignment{
		ID:        core.NewID(),
		SchoolID:  na.SchoolID,
		CreatedBy: caller.ID,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	na.apply(&a)

	a, err := svc.repo.CreateAssignment(ctx, a)
	if err != nil {
		return Assignment{}, core.TrapErr(err, "creating assignment")
	}
	svc.events.RecordEvent("assignment", "created")
	svc.logger.Info(fmt.Sprintf("assignment %s created", a.ID), caller)
	return a, nil
}

// Get returns the assignment id if caller may see it.
// Invisible assignments are reported as not found.
func (svc *Service) Get(ctx context.Context, caller user.User, id string) (Assignment, error) {
	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, core.TrapErr(err, "getting assignment")
	}

	var classIDs []string
	if caller.IsStudent() && !caller.IsStaff() {
		if classIDs, err = svc.classes.ClassesOf(ctx, caller.ID); err != nil {
			return Assignment{}, err
		}
	}
	if !a.IsVisibleTo(caller, classIDs) {
		return Assignment{}, core.NewNotFoundError("assignment", id)
	}
	return a, nil
}

// Update merges the patch into the stored assignment and re-validates the result.
// Creator and admins only.
func (svc *Service) Update(ctx context.Context, caller user.User, id string, ua UpdateAssignment) (Assignment, error) {
	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, core.TrapErr(err, "getting assignment")
	}
	if !caller.InSchool(a.SchoolID) {
		return Assignment{}, core.NewNotFoundError("assignment", id)
	}
	if !a.IsManagedBy(caller) {
		return Assignment{}, core.NewAuthorizationError("update assignment", "creator or admin only")
	}

	na := ua.Merge(a)
	if err = na.Validate(svc.validate); err != nil {
		return Assignment{}, err
	}
	na.apply(&a)
	a.UpdatedAt = core.Now()

	if a, err = svc.repo.UpdateAssignment(ctx, a); err != nil {
		return Assignment{}, core.TrapErr(err, "updating assignment")
	}
	svc.events.RecordEvent("assignment", "updated")
	svc.logger.Info(fmt.Sprintf("assignment %s updated", a.ID), caller)
	return a, nil
}

// Delete removes the assignment id. Creator and admins only.
// Deleting twice fails with a core.NotFoundError.
func (svc *Service) Delete(ctx context.Context, caller user.User, id string) error {
	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return core.TrapErr(err, "getting assignment")
	}
	if !caller.InSchool(a.SchoolID) {
		return core.NewNotFoundError("assignment", id)
	}
	if !a.IsManagedBy(caller) {
		return core.NewAuthorizationError("delete assignment", "creator or admin only")
	}

	if err = svc.repo.DeleteAssignment(ctx, id, core.Now()); err != nil {
		return core.TrapErr(err, "deleting assignment")
	}
	svc.events.RecordEvent("assignment", "deleted")
	svc.logger.Info(fmt.Sprintf("assignment %s deleted", id), caller)
	return nil
}

// ListForAudience returns the assignments caller is part of, ordered by due date then id.
// School admins see their whole school, super admins every school.
func (svc *Service) ListForAudience(ctx context.Context, caller user.User, qf QueryFilter) ([]Assignment, error) {
	if err := svc.validate.Struct(qf); err != nil {
		return nil, err
	}

	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	filter := RepoFilter{QueryFilter: qf}
	switch {
	case caller.IsSuperAdmin():
	case caller.IsAdmin():
		filter.SchoolID = caller.SchoolID
	default:
		filter.SchoolID = caller.SchoolID
		audience := &Audience{UserID: caller.ID}
		if caller.IsStudent() {
			classIDs, err := svc.classes.ClassesOf(ctx, caller.ID)
			if err != nil {
				return nil, err
			}
			audience.ClassIDs = classIDs
		}
		filter.Audience = audience
	}

	as, err := svc.repo.QueryAssignments(ctx, filter)
	if err != nil {
		return nil, core.TrapErr(err, "querying assignments")
	}
	return as, nil
}

// Recur creates the next occurrence of a recurring assignment, due one pattern step later.
func (svc *Service) Recur(ctx context.Context, caller user.User, id string) (Assignment, error) {
	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, core.TrapErr(err, "getting assignment")
	}
	if !caller.InSchool(a.SchoolID) {
		return Assignment{}, core.NewNotFoundError("assignment", id)
	}
	if !a.IsManagedBy(caller) {
		return Assignment{}, core.NewAuthorizationError("recur assignment", "creator or admin only")
	}
	if !a.IsRecurring {
		return Assignment{}, core.NewConflictError("assignment %s is not recurring", id)
	}

	due, err := NextDueDate(a.RecurringPattern, a.DueDate)
	if err != nil {
		return Assignment{}, core.NewConflictError("assignment %s: %v", id, err)
	}

	now := core.Now()
	next := a
	next.ID = core.NewID()
	next.DueDate = due
	next.CreatedBy = caller.ID
	next.CreatedAt = now
	next.UpdatedAt = now
	next.Version = 1
	next.Tags = append([]string{}, a.Tags...)
	next.AssignedClasses = append([]string{}, a.AssignedClasses...)
	next.AssignedStudents = append([]string{}, a.AssignedStudents...)
	next.AssignedTeachers = append([]string{}, a.AssignedTeachers...)

	if next, err = svc.repo.CreateAssignment(ctx, next); err != nil {
		return Assignment{}, core.TrapErr(err, "creating next occurrence")
	}
	svc.events.RecordEvent("assignment", "recurred")
	svc.logger.Info(fmt.Sprintf("assignment %s recurred as %s", id, next.ID), caller)
	return next, nil
}

// Find returns the assignment id without audience checks, for collaborating services.
func (svc *Service) Find(ctx context.Context, id string) (Assignment, error) {
	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, core.TrapErr(err, "getting assignment")
	}
	return a, nil
}
