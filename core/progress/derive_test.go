package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/submission"
)

func TestDerive(t *testing.T) {
	now := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	past := assignment.Assignment{ID: "a-1", DueDate: now.Add(-time.Hour), AssignedStudents: []string{"s-1", "s-2"}}
	future := assignment.Assignment{ID: "a-1", DueDate: now.Add(time.Hour), AssignedStudents: []string{"s-1", "s-2"}}
	sub := func(student string, st submission.Status) submission.Submission {
		return submission.Submission{TaskID: "a-1", StudentID: student, Status: st}
	}

	tests := []struct {
		name     string
		a        assignment.Assignment
		subs     []submission.Submission
		audience []string
		want     Status
	}{
		{"past due, nothing submitted", past, nil, nil, StatusOverdue},
		{"future, nothing submitted", future, nil, nil, StatusPending},
		{"one of two approved", future, []submission.Submission{sub("s-1", submission.StatusApproved)}, nil, StatusInProgress},
		{"all approved", future, []submission.Submission{
			sub("s-1", submission.StatusApproved),
			sub("s-2", submission.StatusApproved),
		}, nil, StatusCompleted},
		{"drafts only", future, []submission.Submission{sub("s-1", submission.StatusDraft)}, nil, StatusPending},
		{"submitted", future, []submission.Submission{sub("s-2", submission.StatusSubmitted)}, nil, StatusInProgress},
		{"past due, submitted but unapproved", past, []submission.Submission{sub("s-1", submission.StatusSubmitted)}, nil, StatusOverdue},
		{"past due, some approved", past, []submission.Submission{sub("s-1", submission.StatusApproved)}, nil, StatusInProgress},
		{"past due, all approved", past, []submission.Submission{
			sub("s-1", submission.StatusApproved),
			sub("s-2", submission.StatusApproved),
		}, nil, StatusCompleted},
		{"resolved audience wins", future, []submission.Submission{
			sub("s-1", submission.StatusApproved),
			sub("s-2", submission.StatusApproved),
		}, []string{"s-1", "s-2", "s-3"}, StatusInProgress},
		{"outsiders do not count", future, []submission.Submission{sub("s-9", submission.StatusSubmitted)}, nil, StatusPending},
		{"other tasks are ignored", future, []submission.Submission{
			{TaskID: "a-2", StudentID: "s-1", Status: submission.StatusApproved},
		}, nil, StatusPending},
		{"empty audience with approval", assignment.Assignment{ID: "a-1", DueDate: now.Add(time.Hour)},
			[]submission.Submission{sub("s-1", submission.StatusApproved)}, []string{}, StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.a, tt.subs, tt.audience, now))
		})
	}
}

func TestDerive_DueBoundary(t *testing.T) {
	due := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	a := assignment.Assignment{ID: "a-1", DueDate: due, AssignedStudents: []string{"s-1"}}

	assert.Equal(t, StatusPending, Derive(a, nil, nil, due), "due exactly now is not overdue yet")
	assert.Equal(t, StatusOverdue, Derive(a, nil, nil, due.Add(time.Microsecond)))
}

func TestNewReport(t *testing.T) {
	now := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	a := assignment.Assignment{ID: "a-1", DueDate: now.Add(time.Hour)}
	subs := []submission.Submission{
		{TaskID: "a-1", StudentID: "s-1", Status: submission.StatusApproved, IsLate: true},
		{TaskID: "a-1", StudentID: "s-2", Status: submission.StatusSubmitted},
		{TaskID: "a-1", StudentID: "s-3", Status: submission.StatusDraft},
	}

	r := newReport(a, subs, []string{"s-1", "s-2", "s-3", "s-4"}, now)
	assert.Equal(t, StatusInProgress, r.Status)
	assert.Equal(t, 4, r.AudienceSize)
	assert.Equal(t, 2, r.TurnedIn)
	assert.Equal(t, 1, r.Approved)
	assert.Equal(t, 1, r.Late)
	assert.Equal(t, 1, r.ByStatus[submission.StatusDraft])
	assert.Equal(t, 0, r.ByStatus[submission.StatusRejected])
}
