package inmemdb

import (
	"context"
	"sort"

	"github.com/childclub/backend/core/roster"
)

type rosterRepository struct {
	db *DB
}

var _ roster.Repository = (*rosterRepository)(nil)

func NewRosterRepository(db *DB) roster.Repository {
	return &rosterRepository{db: db}
}

func (repo *rosterRepository) SetClassMembers(ctx context.Context, schoolID, classID string, studentIDs []string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := alive(ctx); err != nil {
		return err
	}
	row := &classRow{schoolID: schoolID, students: make(map[string]struct{}, len(studentIDs))}
	for _, id := range studentIDs {
		row.students[id] = struct{}{}
	}
	repo.db.members[classID] = row
	return nil
}

func (repo *rosterRepository) QueryClassMembers(ctx context.Context, classIDs ...string) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := alive(ctx); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, classID := range classIDs {
		row, ok := repo.db.members[classID]
		if !ok {
			continue
		}
		for id := range row.students {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (repo *rosterRepository) QueryStudentClasses(ctx context.Context, studentID string) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := alive(ctx); err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	for classID, row := range repo.db.members {
		if _, ok := row.students[studentID]; ok {
			ids = append(ids, classID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
