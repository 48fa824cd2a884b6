package attendance

import (
	"time"

	"github.com/childclub/backend/core"
)

const DateLayout = "2006-01-02"

type (
	Status string
	Mood   string
)

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"

	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
	MoodTired   Mood = "tired"
	MoodSick    Mood = "sick"
)

// CountsAsPresent reports whether s counts toward the attendance percentage.
// Late arrivals do; they are still reported separately.
func (s Status) CountsAsPresent() bool {
	return s == StatusPresent || s == StatusLate
}

// Record is the attendance of one student on one calendar day.
type Record struct {
	ID         string    `json:"id" db:"id"`
	SchoolID   string    `json:"school_id" db:"school_id"`
	StudentID  string    `json:"student_id" db:"student_id"`
	ClassID    string    `json:"class_id" db:"class_id"`
	Date       time.Time `json:"date" db:"date"` // UTC midnight
	Status     Status    `json:"status" db:"status"`
	Mood       Mood      `json:"mood,omitempty" db:"mood"`
	Remarks    string    `json:"remarks,omitempty" db:"remarks"`
	MarkedByID string    `json:"marked_by_id" db:"marked_by_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD calendar day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// NewRecord contains information needed to mark a student's attendance.
type NewRecord struct {
	SchoolID  string `json:"school_id"` // super admins only
	StudentID string `json:"student_id" validate:"required,notblank"`
	ClassID   string `json:"class_id" validate:"required,notblank"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    Status `json:"status" validate:"required,oneof=present absent late excused"`
	Mood      Mood   `json:"mood" validate:"omitempty,oneof=happy neutral sad tired sick"`
	Remarks   string `json:"remarks" validate:"max=1000"`
}

func (nr *NewRecord) Validate(v *core.Validator) error {
	nr.SchoolID = core.CleanString(nr.SchoolID)
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.ClassID = core.CleanString(nr.ClassID)
	nr.Date = core.CleanString(nr.Date)
	nr.Remarks = core.CleanString(nr.Remarks)
	return v.Struct(nr)
}

// QueryFilter narrows attendance queries to a date range [From, To]; zero values are ignored.
type QueryFilter struct {
	StudentID string    `query:"student_id"`
	ClassID   string    `query:"class_id"`
	From      time.Time `query:"-"`
	To        time.Time `query:"-"`
}

// RepoFilter is the fully resolved query handed to the Repository.
// Results are ordered by date, then student id.
type RepoFilter struct {
	QueryFilter
	SchoolID string // empty: every school
}
