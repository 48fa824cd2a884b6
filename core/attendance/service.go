package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/user"
)

// defaultStatsWindow is the range used by Stats when none is given.
const defaultStatsWindow = 30 * 24 * time.Hour

type (
	Repository interface {
		// UpsertAttendance stores r as the single record of (r.StudentID, r.Date), keeping the id and
		// creation time of a record it replaces.
		UpsertAttendance(ctx context.Context, r Record) (Record, error)
		QueryAttendance(ctx context.Context, filter RepoFilter) ([]Record, error)
	}

	Service struct {
		repo     Repository
		validate *core.Validator
		logger   core.Logger
		events   core.EventRecorder
		timeout  time.Duration
	}
)

func NewService(repo Repository, validate *core.Validator, logger core.Logger, events core.EventRecorder, conf *core.Config) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(events, "events"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{
		repo:     repo,
		validate: validate,
		logger:   logger,
		events:   events,
		timeout:  conf.Database.QueryTimeout,
	}
}

// Mark records (or corrects) a student's attendance for a day. Staff only.
func (svc *Service) Mark(ctx context.Context, caller user.User, nr NewRecord) (Record, error) {
	if !caller.IsStaff() {
		return Record{}, core.NewAuthorizationError("mark attendance", "staff only")
	}
	if !caller.IsSuperAdmin() || nr.SchoolID == "" {
		nr.SchoolID = caller.SchoolID
	}
	if err := nr.Validate(svc.validate); err != nil {
		return Record{}, err
	}
	if nr.SchoolID == "" {
		return Record{}, core.NewValidationError(nil, core.FieldError{Field: "school_id", Error: "this field is required"})
	}
	day, err := ParseDay(nr.Date)
	if err != nil {
		return Record{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}

	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	now := core.Now()
	r := Record{
		ID:         core.NewID(),
		SchoolID:   nr.SchoolID,
		StudentID:  nr.StudentID,
		ClassID:    nr.ClassID,
		Date:       day,
		Status:     nr.Status,
		Mood:       nr.Mood,
		Remarks:    nr.Remarks,
		MarkedByID: caller.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if r, err = svc.repo.UpsertAttendance(ctx, r); err != nil {
		return Record{}, core.TrapErr(err, "marking attendance")
	}
	svc.events.RecordEvent("attendance", string(r.Status))
	svc.logger.Info(fmt.Sprintf("attendance of %s on %s marked %s", r.StudentID, nr.Date, r.Status), caller)
	return r, nil
}

// Query returns attendance records: students see their own, staff their school's.
func (svc *Service) Query(ctx context.Context, caller user.User, qf QueryFilter) ([]Record, error) {
	filter, err := svc.scope(caller, qf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	records, err := svc.repo.QueryAttendance(ctx, filter)
	if err != nil {
		return nil, core.TrapErr(err, "querying attendance")
	}
	return records, nil
}

// Stats rolls up the records matched by qf. Without a range, the last 30 days are used.
func (svc *Service) Stats(ctx context.Context, caller user.User, qf QueryFilter) (Stats, error) {
	if qf.From.IsZero() && qf.To.IsZero() {
		qf.To = Day(core.Now())
		qf.From = qf.To.Add(-defaultStatsWindow)
	}
	records, err := svc.Query(ctx, caller, qf)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(records), nil
}

func (svc *Service) scope(caller user.User, qf QueryFilter) (RepoFilter, error) {
	if !qf.From.IsZero() {
		qf.From = Day(qf.From)
	}
	if !qf.To.IsZero() {
		qf.To = Day(qf.To)
	}
	if !qf.From.IsZero() && !qf.To.IsZero() && qf.To.Before(qf.From) {
		return RepoFilter{}, core.NewValidationError(nil, core.FieldError{Field: "to", Error: "must not be before from"})
	}

	filter := RepoFilter{QueryFilter: qf}
	switch {
	case caller.IsSuperAdmin():
	case caller.IsStaff():
		filter.SchoolID = caller.SchoolID
	case caller.IsStudent():
		if qf.StudentID != "" && qf.StudentID != caller.ID {
			return RepoFilter{}, core.NewAuthorizationError("query attendance", "students may only see their own attendance")
		}
		filter.SchoolID = caller.SchoolID
		filter.StudentID = caller.ID
	default:
		return RepoFilter{}, core.NewAuthorizationError("query attendance", "")
	}
	return filter, nil
}
