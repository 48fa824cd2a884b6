package submission

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/kat-co/vala"
	"github.com/volatiletech/null/v8"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/user"
)

type (
	Repository interface {
		GetSubmission(ctx context.Context, id string) (Submission, error)
		// GetActiveSubmission returns the single submission of studentID for taskID.
		GetActiveSubmission(ctx context.Context, taskID, studentID string) (Submission, error)
		QuerySubmissions(ctx context.Context, filter QueryFilter) ([]Submission, error)
		// CreateSubmission fails with a core.ConflictError when (task, student) already has one,
		// and with a core.NotFoundError when the task is gone.
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		// UpdateSubmission stores s if the stored version still equals s.Version, bumping it.
		// A stale version fails with a core.ConflictError; a deleted task with a core.NotFoundError.
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
	}

	// AssignmentFinder looks assignments up, with (Get) or without (Find) the caller's audience rules.
	AssignmentFinder interface {
		Get(ctx context.Context, caller user.User, id string) (assignment.Assignment, error)
		Find(ctx context.Context, id string) (assignment.Assignment, error)
	}

	Service struct {
		repo        Repository
		assignments AssignmentFinder
		mailSvc     core.EmailService
		validate    *core.Validator
		logger      core.Logger
		events      core.EventRecorder
		timeout     time.Duration
	}
)

func NewService(
	repo Repository,
	assignments AssignmentFinder,
	mailSvc core.EmailService,
	validate *core.Validator,
	logger core.Logger,
	events core.EventRecorder,
	conf *core.Config,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(assignments, "assignments"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(events, "events"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Service{
		repo:        repo,
		assignments: assignments,
		mailSvc:     mailSvc,
		validate:    validate,
		logger:      logger,
		events:      events,
		timeout:     conf.Database.QueryTimeout,
	}
}

// SaveDraft creates or updates the caller's submission for taskID while it is editable.
func (svc *Service) SaveDraft(ctx context.Context, caller user.User, taskID string, d Draft) (Submission, error) {
	if !caller.IsStudent() {
		return Submission{}, core.NewAuthorizationError("save draft", "students only")
	}
	if err := d.Validate(svc.validate); err != nil {
		return Submission{}, err
	}

	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	if _, err := svc.assignments.Get(ctx, caller, taskID); err != nil {
		return Submission{}, err
	}

	attachments := d.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}
	now := core.Now()

	s, err := svc.repo.GetActiveSubmission(ctx, taskID, caller.ID)
	switch {
	case core.IsNotFound(err):
		s = Submission{
			ID:           core.NewID(),
			TaskID:       taskID,
			StudentID:    caller.ID,
			StudentName:  caller.Name,
			StudentEmail: caller.Email,
			Status:       StatusDraft,
			Content:      d.Content,
			Attachments:  attachments,
			Attempts:     1,
			CreatedAt:    now,
			UpdatedAt:    now,
			Version:      1,
		}
		if s, err = svc.repo.CreateSubmission(ctx, s); err != nil {
			return Submission{}, core.TrapErr(err, "creating submission")
		}
		svc.events.RecordEvent("submission", "drafted")
		return s.Redacted(), nil
	case err != nil:
		return Submission{}, core.TrapErr(err, "getting submission")
	}

	if !s.Status.IsEditable() {
		return Submission{}, core.NewConflictError("submission %s is %s and can no longer be edited", s.ID, s.Status)
	}
	s.Content = d.Content
	s.Attachments = attachments
	s.StudentName = caller.Name
	s.StudentEmail = caller.Email
	s.UpdatedAt = now

	if s, err = svc.repo.UpdateSubmission(ctx, s); err != nil {
		return Submission{}, core.TrapErr(err, "updating submission")
	}
	svc.events.RecordEvent("submission", "drafted")
	return s.Redacted(), nil
}

// Submit hands the caller's draft (or resubmission) in for review.
func (svc *Service) Submit(ctx context.Context, caller user.User, taskID string, in Submit) (Submission, error) {
	if !caller.IsStudent() {
		return Submission{}, core.NewAuthorizationError("submit", "students only")
	}
	in.LateReason = core.CleanString(in.LateReason)
	if err := svc.validate.Struct(in); err != nil {
		return Submission{}, err
	}

	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	a, err := svc.assignments.Get(ctx, caller, taskID)
	if err != nil {
		return Submission{}, err
	}
	s, err := svc.repo.GetActiveSubmission(ctx, taskID, caller.ID)
	if err != nil {
		if core.IsNotFound(err) {
			return Submission{}, core.NewNotFoundError("draft submission", taskID)
		}
		return Submission{}, core.TrapErr(err, "getting submission")
	}
	if !s.Status.CanTransition(StatusSubmitted) {
		return Submission{}, core.NewConflictError("submission %s is %s and cannot be submitted", s.ID, s.Status)
	}

	now := core.Now()
	if s.Status == StatusResubmit {
		s.Attempts++
	}
	s.Status = StatusSubmitted
	s.SubmittedAt = null.TimeFrom(now)
	s.IsLate = now.After(a.DueDate)
	s.LateReason = null.String{}
	if s.IsLate && in.LateReason != "" {
		s.LateReason = null.StringFrom(in.LateReason)
	}
	s.UpdatedAt = now

	if s, err = svc.repo.UpdateSubmission(ctx, s); err != nil {
		return Submission{}, core.TrapErr(err, "submitting submission")
	}
	svc.events.RecordEvent("submission", string(StatusSubmitted))
	svc.logger.Info(fmt.Sprintf("submission %s submitted (attempt %d, late: %t)", s.ID, s.Attempts, s.IsLate), caller)

	svc.notify("Submission received", "submission_receipt", s, receiptData{
		StudentName: s.StudentName,
		Title:       a.Title,
		TaskID:      a.ID,
		Attempts:    s.Attempts,
		SubmittedAt: now,
		DueDate:     a.DueDate,
		IsLate:      s.IsLate,
	})
	return s.Redacted(), nil
}

// Review moves a turned-in submission to r.Status, stamping the reviewer.
func (svc *Service) Review(ctx context.Context, caller user.User, id string, r Review) (Submission, error) {
	if !caller.IsStaff() {
		return Submission{}, core.NewAuthorizationError("review submission", "staff only")
	}

	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	s, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, core.TrapErr(err, "getting submission")
	}
	a, err := svc.assignments.Find(ctx, s.TaskID)
	if err != nil {
		return Submission{}, err
	}
	if !caller.InSchool(a.SchoolID) {
		return Submission{}, core.NewNotFoundError("submission", id)
	}
	if !a.IsReviewableBy(caller) {
		return Submission{}, core.NewAuthorizationError("review submission", "not a reviewer of this assignment")
	}
	if err = r.Validate(svc.validate, a.MaxScore); err != nil {
		return Submission{}, err
	}
	if !s.Status.CanTransition(r.Status) {
		return Submission{}, core.NewConflictError("submission %s is %s and cannot be %s", s.ID, s.Status, r.Status)
	}

	now := core.Now()
	s.Status = r.Status
	if r.Grade != nil {
		s.Grade = null.Float64From(*r.Grade)
	}
	if r.Feedback != nil {
		s.Feedback = null.StringFrom(core.CleanString(*r.Feedback))
	}
	if r.TeacherNotes != nil {
		s.TeacherNotes = null.StringFrom(core.CleanString(*r.TeacherNotes))
	}
	s.ReviewedAt = null.TimeFrom(now)
	s.ReviewedByID = null.StringFrom(caller.ID)
	s.UpdatedAt = now

	if s, err = svc.repo.UpdateSubmission(ctx, s); err != nil {
		return Submission{}, core.TrapErr(err, "reviewing submission")
	}
	svc.events.RecordEvent("submission", string(s.Status))
	svc.logger.Info(fmt.Sprintf("submission %s reviewed: %s", s.ID, s.Status), caller)

	svc.notify("Submission reviewed", "submission_reviewed", s, reviewData{
		StudentName: s.StudentName,
		Title:       a.Title,
		TaskID:      a.ID,
		Status:      s.Status,
		HasGrade:    s.Grade.Valid,
		Grade:       s.Grade.Float64,
		MaxScore:    a.MaxScore,
		Feedback:    s.Feedback.String,
	})
	return s, nil
}

// Get returns submission id to its student or to the staff of its school.
func (svc *Service) Get(ctx context.Context, caller user.User, id string) (Submission, error) {
	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	s, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, core.TrapErr(err, "getting submission")
	}
	if s.StudentID == caller.ID {
		return s.Redacted(), nil
	}
	if caller.IsStaff() {
		a, err := svc.assignments.Find(ctx, s.TaskID)
		if err != nil {
			return Submission{}, err
		}
		if caller.InSchool(a.SchoolID) {
			return s, nil
		}
	}
	return Submission{}, core.NewNotFoundError("submission", id)
}

// GetActive returns the caller's own submission for taskID.
func (svc *Service) GetActive(ctx context.Context, caller user.User, taskID string) (Submission, error) {
	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	if _, err := svc.assignments.Get(ctx, caller, taskID); err != nil {
		return Submission{}, err
	}
	s, err := svc.repo.GetActiveSubmission(ctx, taskID, caller.ID)
	if err != nil {
		return Submission{}, core.TrapErr(err, "getting submission")
	}
	return s.Redacted(), nil
}

// List returns every submission of taskID. Staff only.
func (svc *Service) List(ctx context.Context, caller user.User, taskID string) ([]Submission, error) {
	if !caller.IsStaff() {
		return nil, core.NewAuthorizationError("list submissions", "staff only")
	}

	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	if _, err := svc.assignments.Get(ctx, caller, taskID); err != nil {
		return nil, err
	}
	subs, err := svc.repo.QuerySubmissions(ctx, QueryFilter{TaskIDs: []string{taskID}})
	if err != nil {
		return nil, core.TrapErr(err, "querying submissions")
	}
	return subs, nil
}

// ForTasks returns the submissions of taskIDs, without access checks, for collaborating services.
func (svc *Service) ForTasks(ctx context.Context, taskIDs ...string) ([]Submission, error) {
	if len(taskIDs) == 0 {
		return []Submission{}, nil
	}
	ctx, cancel := core.WithDefaultTimeout(ctx, svc.timeout)
	defer cancel()

	subs, err := svc.repo.QuerySubmissions(ctx, QueryFilter{TaskIDs: taskIDs})
	if err != nil {
		return nil, core.TrapErr(err, "querying submissions")
	}
	return subs, nil
}

type (
	receiptData struct {
		StudentName string
		Title       string
		TaskID      string
		Attempts    int
		SubmittedAt time.Time
		DueDate     time.Time
		IsLate      bool
	}

	reviewData struct {
		StudentName string
		Title       string
		TaskID      string
		Status      Status
		HasGrade    bool
		Grade       float64
		MaxScore    int
		Feedback    string
	}
)

// notify emails the student snapshot of s. Delivery failures are logged by the email service.
func (svc *Service) notify(subject, tmpl string, s Submission, data interface{}) {
	if s.StudentEmail == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: s.StudentName, Address: s.StudentEmail}},
		Subject:      subject,
		TemplateName: tmpl,
		TemplateData: data,
	})
}
