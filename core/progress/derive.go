// Package progress derives the display status of assignments from their submissions.
package progress

import (
	"time"

	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/submission"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
)

var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusOverdue}

// Derive computes the status of a from the submissions made for it.
// audience is the resolved set of targeted students; nil falls back to a.AssignedStudents.
// Precedence: overdue, completed, in-progress, pending.
func Derive(a assignment.Assignment, subs []submission.Submission, audience []string, now time.Time) Status {
	if audience == nil {
		audience = a.AssignedStudents
	}
	members := make(map[string]struct{}, len(audience))
	for _, id := range audience {
		members[id] = struct{}{}
	}

	var anyApproved, anyTurnedIn bool
	approved := make(map[string]struct{}, len(audience))
	for _, s := range subs {
		if s.TaskID != a.ID {
			continue
		}
		if s.Status == submission.StatusApproved {
			anyApproved = true
		}
		if _, ok := members[s.StudentID]; !ok {
			continue
		}
		if s.Status == submission.StatusApproved {
			approved[s.StudentID] = struct{}{}
		}
		if s.Status.IsTurnedIn() {
			anyTurnedIn = true
		}
	}

	switch {
	case now.After(a.DueDate) && !anyApproved:
		return StatusOverdue
	case len(members) > 0 && len(approved) == len(members):
		return StatusCompleted
	case len(members) == 0 && anyApproved:
		return StatusCompleted
	case anyTurnedIn:
		return StatusInProgress
	default:
		return StatusPending
	}
}
