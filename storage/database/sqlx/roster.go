package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/roster"
)

type rosterRepository struct {
	base
}

var _ roster.Repository = (*rosterRepository)(nil)

func NewRosterRepository(db *sqlx.DB, conf *core.Config) roster.Repository {
	return &rosterRepository{base: newBase(db, conf)}
}

func (repo *rosterRepository) SetClassMembers(ctx context.Context, schoolID, classID string, studentIDs []string) error {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM class_member WHERE class_id = $1`, classID); err != nil {
			return err
		}
		if len(studentIDs) == 0 {
			return nil
		}
		q := `INSERT INTO class_member (school_id, class_id, student_id)
			SELECT $1, $2, unnest($3::text[])
			ON CONFLICT DO NOTHING`
		_, err := tx.ExecContext(ctx, q, schoolID, classID, pq.StringArray(studentIDs))
		return err
	})
	return trapErr(err, "setting class members")
}

func (repo *rosterRepository) QueryClassMembers(ctx context.Context, classIDs ...string) ([]string, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	ids := make([]string, 0)
	if len(classIDs) == 0 {
		return ids, nil
	}
	q := `SELECT DISTINCT student_id FROM class_member WHERE class_id = ANY($1) ORDER BY student_id`
	if err := repo.db.SelectContext(ctx, &ids, q, pq.StringArray(classIDs)); err != nil {
		return nil, trapErr(err, "querying class members")
	}
	return ids, nil
}

func (repo *rosterRepository) QueryStudentClasses(ctx context.Context, studentID string) ([]string, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	ids := make([]string, 0)
	q := `SELECT class_id FROM class_member WHERE student_id = $1 ORDER BY class_id`
	if err := repo.db.SelectContext(ctx, &ids, q, studentID); err != nil {
		return nil, trapErr(err, "querying student classes")
	}
	return ids, nil
}
