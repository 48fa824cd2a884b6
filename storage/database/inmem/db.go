package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/attendance"
	"github.com/childclub/backend/core/submission"
)

type (
	// DB is an in-memory store. One lock guards every table so that
	// cross-table checks (e.g. deleting an assignment with pending submissions) are atomic.
	DB struct {
		mu sync.RWMutex

		assignments map[string]*assignmentRow         // {id: row}
		submissions map[string]*submission.Submission // {id: submission}
		attendance  map[string]*attendance.Record     // {id: record}
		members     map[string]*classRow              // {class id: row}
	}

	assignmentRow struct {
		assignment.Assignment
		deletedAt *time.Time
	}

	classRow struct {
		schoolID string
		students map[string]struct{}
	}
)

func Open() *DB {
	return &DB{
		assignments: make(map[string]*assignmentRow),
		submissions: make(map[string]*submission.Submission),
		attendance:  make(map[string]*attendance.Record),
		members:     make(map[string]*classRow),
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.assignments = make(map[string]*assignmentRow)
	db.submissions = make(map[string]*submission.Submission)
	db.attendance = make(map[string]*attendance.Record)
	db.members = make(map[string]*classRow)
}

// alive fails once ctx is done, so an abandoned request never writes.
func alive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return core.NewTimeoutError("inmemdb", err)
	}
	return nil
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}
