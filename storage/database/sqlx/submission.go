package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/submission"
)

const submissionColumns = `id, task_id, student_id, student_name, student_email, status, content, attachments,
	submitted_at, reviewed_at, reviewed_by_id, grade, feedback, teacher_notes,
	attempts, is_late, late_reason, created_at, updated_at, version`

// attachments is stored as a jsonb array.
type attachments []submission.Attachment

func (ats attachments) Value() (driver.Value, error) {
	if ats == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(ats)
}

func (ats *attachments) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*ats = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("attachments: cannot scan %T", src)
	}
	return json.Unmarshal(data, (*[]submission.Attachment)(ats))
}

type submissionRow struct {
	submission.Submission
	Attachments attachments `db:"attachments"`
}

func (row submissionRow) model() submission.Submission {
	s := row.Submission
	s.Attachments = []submission.Attachment(row.Attachments)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	if s.SubmittedAt.Valid {
		s.SubmittedAt.Time = s.SubmittedAt.Time.UTC()
	}
	if s.ReviewedAt.Valid {
		s.ReviewedAt.Time = s.ReviewedAt.Time.UTC()
	}
	return s
}

type submissionRepository struct {
	base
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *sqlx.DB, conf *core.Config) submission.Repository {
	return &submissionRepository{base: newBase(db, conf)}
}

func (repo *submissionRepository) get(ctx context.Context, q, notFoundID string, args ...interface{}) (submission.Submission, error) {
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return submission.Submission{}, core.NewNotFoundError("submission", notFoundID)
		}
		return submission.Submission{}, trapErr(err, "getting submission")
	}
	return row.model(), nil
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, id string) (submission.Submission, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	return repo.get(ctx, `SELECT `+submissionColumns+` FROM submission WHERE id = $1`, id, id)
}

func (repo *submissionRepository) GetActiveSubmission(ctx context.Context, taskID, studentID string) (submission.Submission, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	q := `SELECT ` + submissionColumns + ` FROM submission WHERE task_id = $1 AND student_id = $2`
	return repo.get(ctx, q, taskID+"/"+studentID, taskID, studentID)
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	w := &where{}
	if len(filter.TaskIDs) > 0 {
		w.add("task_id = ANY(?)", pq.StringArray(filter.TaskIDs))
	}
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}
	if len(filter.Statuses) > 0 {
		sts := make(pq.StringArray, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			sts = append(sts, string(st))
		}
		w.add("status = ANY(?)", sts)
	}

	q := `SELECT ` + submissionColumns + ` FROM submission` + w.String() +
		core.OrderBy(
			core.DBOrdering{Field: "task_id", Ascending: true},
			core.DBOrdering{Field: "student_id", Ascending: true},
		)

	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, trapErr(err, "querying submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.model())
	}
	return subs, nil
}

// lockTask share-locks a live task so it cannot be deleted before tx commits.
func lockTask(ctx context.Context, tx *sqlx.Tx, taskID string) error {
	var id string
	err := tx.GetContext(ctx, &id, `SELECT id FROM assignment WHERE id = $1 AND deleted_at IS NULL FOR SHARE`, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewNotFoundError("assignment", taskID)
	}
	return err
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockTask(ctx, tx, s.TaskID); err != nil {
			return err
		}
		q := `INSERT INTO submission (` + submissionColumns + `) VALUES (
			:id, :task_id, :student_id, :student_name, :student_email, :status, :content, :attachments,
			:submitted_at, :reviewed_at, :reviewed_by_id, :grade, :feedback, :teacher_notes,
			:attempts, :is_late, :late_reason, :created_at, :updated_at, :version)`
		_, err := tx.NamedExecContext(ctx, q, submissionRow{Submission: s, Attachments: s.Attachments})
		return err
	})
	if err != nil {
		return submission.Submission{}, trapErr(err, "creating submission")
	}
	return s, nil
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	var updated submissionRow
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		var cur struct {
			TaskID  string `db:"task_id"`
			Version int    `db:"version"`
		}
		err := tx.GetContext(ctx, &cur, `SELECT task_id, version FROM submission WHERE id = $1 FOR UPDATE`, s.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return core.NewNotFoundError("submission", s.ID)
		}
		if err != nil {
			return err
		}
		if err = lockTask(ctx, tx, cur.TaskID); err != nil {
			return err
		}
		if cur.Version != s.Version {
			return core.NewConflictError("submission %s was modified concurrently", s.ID)
		}

		q := `UPDATE submission SET
			student_name = :student_name, student_email = :student_email, status = :status,
			content = :content, attachments = :attachments, submitted_at = :submitted_at,
			reviewed_at = :reviewed_at, reviewed_by_id = :reviewed_by_id, grade = :grade,
			feedback = :feedback, teacher_notes = :teacher_notes, attempts = :attempts,
			is_late = :is_late, late_reason = :late_reason, updated_at = :updated_at, version = version + 1
			WHERE id = :id
			RETURNING ` + submissionColumns
		rows, err := sqlx.NamedQueryContext(ctx, tx, q, submissionRow{Submission: s, Attachments: s.Attachments})
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
		return submission.Submission{}, trapErr(err, "updating submission")
	}
	return updated.model(), nil
}
