package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/attendance"
)

const attendanceColumns = `id, school_id, student_id, class_id, date, status, mood, remarks,
	marked_by_id, created_at, updated_at`

type attendanceRepository struct {
	base
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB, conf *core.Config) attendance.Repository {
	return &attendanceRepository{base: newBase(db, conf)}
}

func normalizeRecord(r attendance.Record) attendance.Record {
	r.Date = attendance.Day(r.Date)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r
}

func (repo *attendanceRepository) UpsertAttendance(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	q := `INSERT INTO attendance (` + attendanceColumns + `) VALUES (
		:id, :school_id, :student_id, :class_id, :date, :status, :mood, :remarks,
		:marked_by_id, :created_at, :updated_at)
		ON CONFLICT (student_id, date) DO UPDATE SET
			school_id = EXCLUDED.school_id, class_id = EXCLUDED.class_id, status = EXCLUDED.status,
			mood = EXCLUDED.mood, remarks = EXCLUDED.remarks, marked_by_id = EXCLUDED.marked_by_id,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + attendanceColumns

	rows, err := sqlx.NamedQueryContext(ctx, repo.db, q, r)
	if err != nil {
		return attendance.Record{}, trapErr(err, "marking attendance")
	}
	defer func() { _ = rows.Close() }()

	var stored attendance.Record
	if rows.Next() {
		err = rows.StructScan(&stored)
	} else {
		err = rows.Err()
	}
	if err != nil {
		return attendance.Record{}, trapErr(err, "marking attendance")
	}
	return normalizeRecord(stored), nil
}

func (repo *attendanceRepository) QueryAttendance(ctx context.Context, filter attendance.RepoFilter) ([]attendance.Record, error) {
	ctx, cancel := repo.bound(ctx)
	defer cancel()

	w := &where{}
	if filter.SchoolID != "" {
		w.add("school_id = ?", filter.SchoolID)
	}
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.ClassID != "" {
		w.add("class_id = ?", filter.ClassID)
	}
	if !filter.From.IsZero() {
		w.add("date >= ?", attendance.Day(filter.From))
	}
	if !filter.To.IsZero() {
		w.add("date <= ?", attendance.Day(filter.To))
	}

	q := `SELECT ` + attendanceColumns + ` FROM attendance` + w.String() +
		core.OrderBy(
			core.DBOrdering{Field: "date", Ascending: true},
			core.DBOrdering{Field: "student_id", Ascending: true},
		)

	var records []attendance.Record
	if err := repo.db.SelectContext(ctx, &records, repo.db.Rebind(q), w.args...); err != nil {
		return nil, trapErr(err, "querying attendance")
	}
	for i := range records {
		records[i] = normalizeRecord(records[i])
	}
	if records == nil {
		records = make([]attendance.Record, 0)
	}
	return records, nil
}
