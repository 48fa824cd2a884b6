package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func copyAssignment(a assignment.Assignment) assignment.Assignment {
	a.Tags = copyStrings(a.Tags)
	a.AssignedClasses = copyStrings(a.AssignedClasses)
	a.AssignedStudents = copyStrings(a.AssignedStudents)
	a.AssignedTeachers = copyStrings(a.AssignedTeachers)
	return a
}

// live returns the non-deleted row id; the caller holds the lock.
func (repo *assignmentRepository) live(id string) (*assignmentRow, error) {
	row, ok := repo.db.assignments[id]
	if !ok || row.deletedAt != nil {
		return nil, core.NewNotFoundError("assignment", id)
	}
	return row, nil
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := alive(ctx); err != nil {
		return assignment.Assignment{}, err
	}
	if _, ok := repo.db.assignments[a.ID]; ok {
		return assignment.Assignment{}, core.NewConflictError("assignment %s already exists", a.ID)
	}
	repo.db.assignments[a.ID] = &assignmentRow{Assignment: copyAssignment(a)}
	return copyAssignment(a), nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := alive(ctx); err != nil {
		return assignment.Assignment{}, err
	}
	row, err := repo.live(id)
	if err != nil {
		return assignment.Assignment{}, err
	}
	return copyAssignment(row.Assignment), nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := alive(ctx); err != nil {
		return assignment.Assignment{}, err
	}
	row, err := repo.live(a.ID)
	if err != nil {
		return assignment.Assignment{}, err
	}
	if row.Version != a.Version {
		return assignment.Assignment{}, core.NewConflictError("assignment %s was modified concurrently", a.ID)
	}

	// immutable fields
	a.SchoolID = row.SchoolID
	a.CreatedBy = row.CreatedBy
	a.CreatedAt = row.CreatedAt
	a.Version++
	row.Assignment = copyAssignment(a)
	return copyAssignment(a), nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string, deletedAt time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := alive(ctx); err != nil {
		return err
	}
	row, err := repo.live(id)
	if err != nil {
		return err
	}
	for _, s := range repo.db.submissions {
		if s.TaskID == id && s.Status.AwaitsReview() {
			return core.NewConflictError("assignment %s has submissions awaiting review", id)
		}
	}
	row.deletedAt = &deletedAt
	return nil
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.RepoFilter) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := alive(ctx); err != nil {
		return nil, err
	}

	as := make([]assignment.Assignment, 0)
	for _, row := range repo.db.assignments {
		if row.deletedAt == nil && matchAssignment(row.Assignment, filter) {
			as = append(as, copyAssignment(row.Assignment))
		}
	}
	sort.Slice(as, func(i, j int) bool {
		if !as[i].DueDate.Equal(as[j].DueDate) {
			return as[i].DueDate.Before(as[j].DueDate)
		}
		return as[i].ID < as[j].ID
	})

	start, end := filter.Bounds(len(as))
	return as[start:end], nil
}

func matchAssignment(a assignment.Assignment, filter assignment.RepoFilter) bool {
	if len(filter.IDs) > 0 && !core.ContainsString(filter.IDs, a.ID) {
		return false
	}
	if filter.SchoolID != "" && a.SchoolID != filter.SchoolID {
		return false
	}
	if filter.Type != "" && a.Type != filter.Type {
		return false
	}
	if filter.Priority != "" && a.Priority != filter.Priority {
		return false
	}
	if !filter.DueFrom.IsZero() && a.DueDate.Before(filter.DueFrom) {
		return false
	}
	if !filter.DueTo.IsZero() && a.DueDate.After(filter.DueTo) {
		return false
	}
	if aud := filter.Audience; aud != nil {
		if a.CreatedBy == aud.UserID ||
			core.ContainsString(a.AssignedStudents, aud.UserID) ||
			core.ContainsString(a.AssignedTeachers, aud.UserID) {
			return true
		}
		for _, id := range aud.ClassIDs {
			if core.ContainsString(a.AssignedClasses, id) {
				return true
			}
		}
		return false
	}
	return true
}
