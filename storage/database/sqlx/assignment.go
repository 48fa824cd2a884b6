package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/submission"
)

const assignmentColumns = `id, school_id, title, description, type, priority, due_date, max_score,
	instructions, rubric, tags, is_recurring, recurring_pattern,
	assigned_classes, assigned_students, assigned_teachers,
	created_by, created_at, updated_at, version`

// assignmentRow overrides the list columns of the embedded model with postgres arrays.
type assignmentRow struct {
	assignment.Assignment
	Tags             pq.StringArray `db:"tags"`
	AssignedClasses  pq.StringArray `db:"assigned_classes"`
	AssignedStudents pq.StringArray `db:"assigned_students"`
	AssignedTeachers pq.StringArray `db:"assigned_teachers"`
}

func toAssignmentRow(a assignment.Assignment) assignmentRow {
	return assignmentRow{
		Assignment:       a,
		Tags:             nonNilArray(a.Tags),
		AssignedClasses:  nonNilArray(a.AssignedClasses),
		AssignedStudents: nonNilArray(a.AssignedStudents),
		AssignedTeachers: nonNilArray(a.AssignedTeachers),
	}
}

func (row assignmentRow) model() assignment.Assignment {
	a := row.Assignment
	a.Tags = []string(row.Tags)
	a.AssignedClasses = []string(row.AssignedClasses)
	a.AssignedStudents = []string(row.AssignedStudents)
	a.AssignedTeachers = []string(row.AssignedTeachers)
	a.DueDate = a.DueDate.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a
}

func nonNilArray(ss []string) pq.StringArray {
	if ss == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(ss)
}

type assignmentRepository struct {
	base
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *sqlx.DB, conf *core.Config) assignment.Repository {
	return &assignmentRepository{base: newBase(db, conf)}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	q := `INSERT INTO assignment (` + assignmentColumns + `) VALUES (
		:id, :school_id, :title, :description, :type, :priority, :due_date, :max_score,
		:instructions, :rubric, :tags, :is_recurring, :recurring_pattern,
		:assigned_classes, :assigned_students, :assigned_teachers,
		:created_by, :created_at, :updated_at, :version)`
	if _, err := repo.db.NamedExecContext(ctx, q, toAssignmentRow(a)); err != nil {
		return assignment.Assignment{}, trapErr(err, "creating assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	var row assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM assignment WHERE id = $1 AND deleted_at IS NULL`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return assignment.Assignment{}, core.NewNotFoundError("assignment", id)
		}
		return assignment.Assignment{}, trapErr(err, "getting assignment")
	}
	return row.model(), nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	var updated assignmentRow
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		var version int
		err := tx.GetContext(ctx, &version,
			`SELECT version FROM assignment WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, a.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return core.NewNotFoundError("assignment", a.ID)
		}
		if err != nil {
			return err
		}
		if version != a.Version {
			return core.NewConflictError("assignment %s was modified concurrently", a.ID)
		}

		q := `UPDATE assignment SET
			title = :title, description = :description, type = :type, priority = :priority,
			due_date = :due_date, max_score = :max_score, instructions = :instructions, rubric = :rubric,
			tags = :tags, is_recurring = :is_recurring, recurring_pattern = :recurring_pattern,
			assigned_classes = :assigned_classes, assigned_students = :assigned_students,
			assigned_teachers = :assigned_teachers, updated_at = :updated_at, version = version + 1
			WHERE id = :id
			RETURNING ` + assignmentColumns
		rows, err := sqlx.NamedQueryContext(ctx, tx, q, toAssignmentRow(a))
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		if !rows.Next() {
			return errors.New("update returned no row")
		}
		if err = rows.StructScan(&updated); err != nil {
			return err
		}
		return rows.Err()
	})
	if err != nil {
		return assignment.Assignment{}, trapErr(err, "updating assignment")
	}
	return updated.model(), nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string, deletedAt time.Time) error {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		var found string
		err := tx.GetContext(ctx, &found, `SELECT id FROM assignment WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return core.NewNotFoundError("assignment", id)
		}
		if err != nil {
			return err
		}

		var pending bool
		q := `SELECT EXISTS (SELECT 1 FROM submission WHERE task_id = $1 AND status = ANY($2))`
		awaiting := pq.StringArray{string(submission.StatusSubmitted), string(submission.StatusReviewed)}
		if err = tx.GetContext(ctx, &pending, q, id, awaiting); err != nil {
			return err
		}
		if pending {
			return core.NewConflictError("assignment %s has submissions awaiting review", id)
		}

		_, err = tx.ExecContext(ctx, `UPDATE assignment SET deleted_at = $2 WHERE id = $1`, id, deletedAt)
		return err
	})
	return trapErr(err, "deleting assignment")
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.RepoFilter) ([]assignment.Assignment, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	w := &where{}
	w.add("deleted_at IS NULL")
	if len(filter.IDs) > 0 {
		w.add("id = ANY(?)", pq.StringArray(filter.IDs))
	}
	if filter.SchoolID != "" {
		w.add("school_id = ?", filter.SchoolID)
	}
	if filter.Type != "" {
		w.add("type = ?", filter.Type)
	}
	if filter.Priority != "" {
		w.add("priority = ?", filter.Priority)
	}
	if !filter.DueFrom.IsZero() {
		w.add("due_date >= ?", filter.DueFrom)
	}
	if !filter.DueTo.IsZero() {
		w.add("due_date <= ?", filter.DueTo)
	}
	if aud := filter.Audience; aud != nil {
		w.add("(created_by = ? OR ? = ANY(assigned_students) OR ? = ANY(assigned_teachers) OR assigned_classes && ?)",
			aud.UserID, aud.UserID, aud.UserID, nonNilArray(aud.ClassIDs))
	}

	q := `SELECT ` + assignmentColumns + ` FROM assignment` + w.String() +
		core.OrderBy(
			core.DBOrdering{Field: "due_date", Ascending: true},
			core.DBOrdering{Field: "id", Ascending: true},
		) + limitOffset(filter.Page)

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, trapErr(err, "querying assignments")
	}
	as := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		as = append(as, row.model())
	}
	return as, nil
}
