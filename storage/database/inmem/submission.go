package inmemdb

import (
	"context"
	"sort"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/submission"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db}
}

func copySubmission(s submission.Submission) submission.Submission {
	if s.Attachments != nil {
		ats := make([]submission.Attachment, len(s.Attachments))
		copy(ats, s.Attachments)
		s.Attachments = ats
	}
	return s
}

// taskAlive fails when the task of a submission is unknown or deleted; the caller holds the lock.
func (repo *submissionRepository) taskAlive(taskID string) error {
	row, ok := repo.db.assignments[taskID]
	if !ok || row.deletedAt != nil {
		return core.NewNotFoundError("assignment", taskID)
	}
	return nil
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, id string) (submission.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := alive(ctx); err != nil {
		return submission.Submission{}, err
	}
	s, ok := repo.db.submissions[id]
	if !ok {
		return submission.Submission{}, core.NewNotFoundError("submission", id)
	}
	return copySubmission(*s), nil
}

func (repo *submissionRepository) GetActiveSubmission(ctx context.Context, taskID, studentID string) (submission.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := alive(ctx); err != nil {
		return submission.Submission{}, err
	}
	for _, s := range repo.db.submissions {
		if s.TaskID == taskID && s.StudentID == studentID {
			return copySubmission(*s), nil
		}
	}
	return submission.Submission{}, core.NewNotFoundError("submission", taskID+"/"+studentID)
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if err := alive(ctx); err != nil {
		return nil, err
	}

	subs := make([]submission.Submission, 0)
	for _, s := range repo.db.submissions {
		if len(filter.TaskIDs) > 0 && !core.ContainsString(filter.TaskIDs, s.TaskID) {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, s.Status) {
			continue
		}
		subs = append(subs, copySubmission(*s))
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].TaskID != subs[j].TaskID {
			return subs[i].TaskID < subs[j].TaskID
		}
		return subs[i].StudentID < subs[j].StudentID
	})
	return subs, nil
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := alive(ctx); err != nil {
		return submission.Submission{}, err
	}
	if err := repo.taskAlive(s.TaskID); err != nil {
		return submission.Submission{}, err
	}
	for _, other := range repo.db.submissions {
		if other.TaskID == s.TaskID && other.StudentID == s.StudentID {
			return submission.Submission{}, core.NewConflictError("student %s already has a submission for %s", s.StudentID, s.TaskID)
		}
	}
	stored := copySubmission(s)
	repo.db.submissions[s.ID] = &stored
	return copySubmission(s), nil
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := alive(ctx); err != nil {
		return submission.Submission{}, err
	}
	cur, ok := repo.db.submissions[s.ID]
	if !ok {
		return submission.Submission{}, core.NewNotFoundError("submission", s.ID)
	}
	if err := repo.taskAlive(cur.TaskID); err != nil {
		return submission.Submission{}, err
	}
	if cur.Version != s.Version {
		return submission.Submission{}, core.NewConflictError("submission %s was modified concurrently", s.ID)
	}

	// immutable fields
	s.TaskID = cur.TaskID
	s.StudentID = cur.StudentID
	s.CreatedAt = cur.CreatedAt
	s.Version++
	stored := copySubmission(s)
	repo.db.submissions[s.ID] = &stored
	return copySubmission(s), nil
}

func containsStatus(sts []submission.Status, st submission.Status) bool {
	for _, s := range sts {
		if s == st {
			return true
		}
	}
	return false
}
