package progress

import (
	"context"
	"time"

	"github.com/kat-co/vala"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/submission"
	"github.com/childclub/backend/core/user"
)

type (
	AssignmentGetter interface {
		Get(ctx context.Context, caller user.User, id string) (assignment.Assignment, error)
	}

	SubmissionLister interface {
		ForTasks(ctx context.Context, taskIDs ...string) ([]submission.Submission, error)
	}

	AudienceResolver interface {
		Audience(ctx context.Context, classIDs, studentIDs []string) ([]string, error)
	}

	// Report is the derived status of an assignment with the counts it was derived from.
	Report struct {
		TaskID       string                    `json:"task_id"`
		Status       Status                    `json:"status"`
		AudienceSize int                       `json:"audience_size"`
		TurnedIn     int                       `json:"turned_in"`
		Approved     int                       `json:"approved"`
		Late         int                       `json:"late"`
		ByStatus     map[submission.Status]int `json:"by_status"`
	}

	Tracker struct {
		assignments AssignmentGetter
		submissions SubmissionLister
		audiences   AudienceResolver
	}
)

func NewTracker(assignments AssignmentGetter, submissions SubmissionLister, audiences AudienceResolver) *Tracker {
	vala.BeginValidation().Validate(
		vala.IsNotNil(assignments, "assignments"),
		vala.IsNotNil(submissions, "submissions"),
		vala.IsNotNil(audiences, "audiences"),
	).CheckAndPanic()

	return &Tracker{assignments: assignments, submissions: submissions, audiences: audiences}
}

// Progress reports on the assignment taskID, if caller may see it.
func (t *Tracker) Progress(ctx context.Context, caller user.User, taskID string) (Report, error) {
	a, err := t.assignments.Get(ctx, caller, taskID)
	if err != nil {
		return Report{}, err
	}
	reports, err := t.Track(ctx, a)
	if err != nil {
		return Report{}, err
	}
	return reports[0], nil
}

// Track reports on each of as, in order.
func (t *Tracker) Track(ctx context.Context, as ...assignment.Assignment) ([]Report, error) {
	reports := make([]Report, 0, len(as))
	if len(as) == 0 {
		return reports, nil
	}

	ids := make([]string, 0, len(as))
	for _, a := range as {
		ids = append(ids, a.ID)
	}
	subs, err := t.submissions.ForTasks(ctx, ids...)
	if err != nil {
		return nil, err
	}
	byTask := make(map[string][]submission.Submission, len(as))
	for _, s := range subs {
		byTask[s.TaskID] = append(byTask[s.TaskID], s)
	}

	now := core.Now()
	for _, a := range as {
		audience, err := t.audiences.Audience(ctx, a.AssignedClasses, a.AssignedStudents)
		if err != nil {
			return nil, err
		}
		reports = append(reports, newReport(a, byTask[a.ID], audience, now))
	}
	return reports, nil
}

func newReport(a assignment.Assignment, subs []submission.Submission, audience []string, now time.Time) Report {
	r := Report{
		TaskID:       a.ID,
		Status:       Derive(a, subs, audience, now),
		AudienceSize: len(audience),
		ByStatus:     make(map[submission.Status]int, len(submission.Statuses)),
	}
	for _, st := range submission.Statuses {
		r.ByStatus[st] = 0
	}
	for _, s := range subs {
		r.ByStatus[s.Status]++
		if s.Status.IsTurnedIn() {
			r.TurnedIn++
		}
		if s.Status == submission.StatusApproved {
			r.Approved++
		}
		if s.IsLate {
			r.Late++
		}
	}
	return r
}
