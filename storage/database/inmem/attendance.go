package inmemdb

import (
	"context"
	"sort"

	"github.com/childclub/backend/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertAttendance(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := alive(ctx); err != nil {
		return attendance.Record{}, err
	}
	for id, cur := range repo.db.attendance {
		if cur.StudentID == r.StudentID && cur.Date.Equal(r.Date) {
			r.ID = cur.ID
			r.CreatedAt = cur.CreatedAt
			delete(repo.db.attendance, id)
			break
		}
	}
	stored := r
	repo.db.attendance[r.ID] = &stored
	return r, nil
}

func (repo *attendanceRepository) QueryAttendance(ctx context.Context, filter attendance.RepoFilter) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := alive(ctx); err != nil {
		return nil, err
	}

	records := make([]attendance.Record, 0)
	for _, r := range repo.db.attendance {
		switch {
		case filter.SchoolID != "" && r.SchoolID != filter.SchoolID:
		case filter.StudentID != "" && r.StudentID != filter.StudentID:
		case filter.ClassID != "" && r.ClassID != filter.ClassID:
		case !filter.From.IsZero() && r.Date.Before(filter.From):
		case !filter.To.IsZero() && r.Date.After(filter.To):
		default:
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].StudentID < records[j].StudentID
	})
	return records, nil
}
