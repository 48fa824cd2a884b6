package submission

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/childclub/backend/core"
)

// Attachment is the metadata of a file stored by the file storage service.
type Attachment struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
	Size int64  `json:"size" validate:"gte=0"`
	URL  string `json:"url" validate:"required,url"`
}

type Submission struct {
	ID           string       `json:"id" db:"id"`
	TaskID       string       `json:"task_id" db:"task_id"`
	StudentID    string       `json:"student_id" db:"student_id"`
	StudentName  string       `json:"student_name" db:"student_name"`
	StudentEmail string       `json:"student_email" db:"student_email"`
	Status       Status       `json:"status" db:"status"`
	Content      string       `json:"content" db:"content"`
	Attachments  []Attachment `json:"attachments" db:"-"`
	SubmittedAt  null.Time    `json:"submitted_at" db:"submitted_at"` // UTC
	ReviewedAt   null.Time    `json:"reviewed_at" db:"reviewed_at"`   // UTC
	ReviewedByID null.String  `json:"reviewed_by_id" db:"reviewed_by_id"`
	Grade        null.Float64 `json:"grade" db:"grade"`
	Feedback     null.String  `json:"feedback" db:"feedback"`
	TeacherNotes null.String  `json:"teacher_notes" db:"teacher_notes"` // staff only
	Attempts     int          `json:"attempts" db:"attempts"`
	IsLate       bool         `json:"is_late" db:"is_late"`
	LateReason   null.String  `json:"late_reason" db:"late_reason"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"` // UTC
	Version      int          `json:"version" db:"version"`
}

// Redacted returns s as a student may see it.
func (s Submission) Redacted() Submission {
	s.TeacherNotes = null.String{}
	return s
}

// Draft is the work a student saves while the submission is editable.
type Draft struct {
	Content     string       `json:"content" validate:"max=100000"`
	Attachments []Attachment `json:"attachments" validate:"omitempty,max=20,dive"`
}

func (d *Draft) Validate(v *core.Validator) error {
	d.Content = core.CleanString(d.Content)
	for i := range d.Attachments {
		d.Attachments[i].Name = core.CleanString(d.Attachments[i].Name)
		d.Attachments[i].URL = core.CleanString(d.Attachments[i].URL)
	}
	return v.Struct(d)
}

// Submit optionally explains a late submission.
type Submit struct {
	LateReason string `json:"late_reason" validate:"max=1000"`
}

// Review is a reviewer's decision on a submission.
type Review struct {
	Status       Status   `json:"status" validate:"required,oneof=reviewed approved rejected resubmit"`
	Grade        *float64 `json:"grade"`
	Feedback     *string  `json:"feedback" validate:"omitempty,max=10000"`
	TeacherNotes *string  `json:"teacher_notes" validate:"omitempty,max=10000"`
}

// Validate reports every violated field, including a grade outside [0, maxScore].
func (r *Review) Validate(v *core.Validator, maxScore int) error {
	var fields []core.FieldError
	if err := v.Struct(r); err != nil {
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			return err
		}
		fields = append(fields, vErr.Fields...)
	}
	if r.Grade != nil && (*r.Grade < 0 || *r.Grade > float64(maxScore)) {
		fields = append(fields, core.FieldError{
			Field: "grade",
			Error: gradeRangeText(maxScore),
		})
	}
	if len(fields) > 0 {
		return core.NewValidationError(nil, fields...)
	}
	return nil
}

// QueryFilter is the fully resolved query handed to the Repository.
// Results are ordered by task id then student id.
type QueryFilter struct {
	TaskIDs   []string
	StudentID string
	Statuses  []Status
}
