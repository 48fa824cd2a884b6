// Package dashboard serves role-scoped summaries from a pull-based cache.
// Views are rebuilt on Refresh or once stale; writers call Invalidate.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/kat-co/vala"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/attendance"
	"github.com/childclub/backend/core/progress"
	"github.com/childclub/backend/core/user"
)

type (
	AssignmentLister interface {
		ListForAudience(ctx context.Context, caller user.User, qf assignment.QueryFilter) ([]assignment.Assignment, error)
	}

	ProgressTracker interface {
		Track(ctx context.Context, as ...assignment.Assignment) ([]progress.Report, error)
	}

	AttendanceStats interface {
		Stats(ctx context.Context, caller user.User, qf attendance.QueryFilter) (attendance.Stats, error)
	}

	Item struct {
		Assignment assignment.Assignment `json:"assignment"`
		Progress   progress.Report       `json:"progress"`
	}

	// View is the dashboard of one caller at GeneratedAt.
	View struct {
		GeneratedAt time.Time               `json:"generated_at"`
		Items       []Item                  `json:"items"`
		Counts      map[progress.Status]int `json:"counts"`
		Attendance  *attendance.Stats       `json:"attendance,omitempty"` // students only
	}

	entry struct {
		view      View
		expiresAt time.Time
	}

	Board struct {
		assignments AssignmentLister
		tracker     ProgressTracker
		attendance  AttendanceStats
		ttl         time.Duration

		mu    sync.Mutex
		views map[string]entry // {caller key: entry}
	}
)

func NewBoard(assignments AssignmentLister, tracker ProgressTracker, attendance AttendanceStats, conf *core.Config) *Board {
	vala.BeginValidation().Validate(
		vala.IsNotNil(assignments, "assignments"),
		vala.IsNotNil(tracker, "tracker"),
		vala.IsNotNil(attendance, "attendance"),
		vala.IsNotNil(conf, "conf"),
	).CheckAndPanic()

	return &Board{
		assignments: assignments,
		tracker:     tracker,
		attendance:  attendance,
		ttl:         conf.Dashboard.CacheTTL,
		views:       make(map[string]entry),
	}
}

func cacheKey(caller user.User) string {
	return caller.SchoolID + "/" + caller.ID
}

// Get returns the cached view of caller, building it when missing or stale.
func (b *Board) Get(ctx context.Context, caller user.User) (View, error) {
	b.mu.Lock()
	e, ok := b.views[cacheKey(caller)]
	b.mu.Unlock()

	if ok && core.NowFunc().Before(e.expiresAt) {
		return e.view, nil
	}
	return b.Refresh(ctx, caller)
}

// Refresh rebuilds and caches the view of caller.
func (b *Board) Refresh(ctx context.Context, caller user.User) (View, error) {
	view, err := b.build(ctx, caller)
	if err != nil {
		return View{}, err
	}

	b.mu.Lock()
	b.views[cacheKey(caller)] = entry{view: view, expiresAt: core.NowFunc().Add(b.ttl)}
	b.mu.Unlock()
	return view, nil
}

// Invalidate drops the cached views of the given callers, or every view when none is given.
func (b *Board) Invalidate(callers ...user.User) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(callers) == 0 {
		b.views = make(map[string]entry)
		return
	}
	for _, c := range callers {
		delete(b.views, cacheKey(c))
	}
}

func (b *Board) build(ctx context.Context, caller user.User) (View, error) {
	as, err := b.assignments.ListForAudience(ctx, caller, assignment.QueryFilter{})
	if err != nil {
		return View{}, err
	}
	reports, err := b.tracker.Track(ctx, as...)
	if err != nil {
		return View{}, err
	}

	view := View{
		GeneratedAt: core.Now(),
		Items:       make([]Item, 0, len(as)),
		Counts:      make(map[progress.Status]int, len(progress.Statuses)),
	}
	for _, st := range progress.Statuses {
		view.Counts[st] = 0
	}
	for i, a := range as {
		view.Items = append(view.Items, Item{Assignment: a, Progress: reports[i]})
		view.Counts[reports[i].Status]++
	}

	if caller.IsStudent() && !caller.IsStaff() {
		stats, err := b.attendance.Stats(ctx, caller, attendance.QueryFilter{StudentID: caller.ID})
		if err != nil {
			return View{}, err
		}
		view.Attendance = &stats
	}
	return view, nil
}
