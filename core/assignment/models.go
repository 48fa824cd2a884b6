package assignment

import (
	"time"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/user"
)

type (
	Type     string
	Priority string
	Pattern  string
)

const (
	TypeAssignment Type = "assignment"
	TypeHomework   Type = "homework"
	TypeProject    Type = "project"
	TypeQuiz       Type = "quiz"
	TypeExam       Type = "exam"

	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"

	PatternDaily     Pattern = "daily"
	PatternWeekly    Pattern = "weekly"
	PatternBiweekly  Pattern = "biweekly"
	PatternMonthly   Pattern = "monthly"
	PatternQuarterly Pattern = "quarterly"
)

type Assignment struct {
	ID               string    `json:"id" db:"id"`
	SchoolID         string    `json:"school_id" db:"school_id"`
	Title            string    `json:"title" db:"title"`
	Description      string    `json:"description" db:"description"`
	Type             Type      `json:"type" db:"type"`
	Priority         Priority  `json:"priority" db:"priority"`
	DueDate          time.Time `json:"due_date" db:"due_date"` // UTC
	MaxScore         int       `json:"max_score" db:"max_score"`
	Instructions     string    `json:"instructions" db:"instructions"`
	Rubric           string    `json:"rubric" db:"rubric"`
	Tags             []string  `json:"tags" db:"tags"`
	IsRecurring      bool      `json:"is_recurring" db:"is_recurring"`
	RecurringPattern Pattern   `json:"recurring_pattern,omitempty" db:"recurring_pattern"`
	AssignedClasses  []string  `json:"assigned_classes" db:"assigned_classes"`
	AssignedStudents []string  `json:"assigned_students" db:"assigned_students"`
	AssignedTeachers []string  `json:"assigned_teachers" db:"assigned_teachers"`
	CreatedBy        string    `json:"created_by" db:"created_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"` // UTC
	Version          int       `json:"version" db:"version"`
}

// IsManagedBy reports whether usr may update or delete a: its creator or an admin of its school.
func (a Assignment) IsManagedBy(usr user.User) bool {
	return usr.InSchool(a.SchoolID) && (a.CreatedBy == usr.ID || usr.IsAdmin())
}

// IsReviewableBy reports whether usr may grade submissions of a.
func (a Assignment) IsReviewableBy(usr user.User) bool {
	if a.IsManagedBy(usr) {
		return true
	}
	return usr.IsTeacher() && usr.InSchool(a.SchoolID) && core.ContainsString(a.AssignedTeachers, usr.ID)
}

// Targets reports whether usr is in the audience of a, given the classes usr belongs to.
func (a Assignment) Targets(usr user.User, classIDs []string) bool {
	if !usr.InSchool(a.SchoolID) {
		return false
	}
	if a.CreatedBy == usr.ID ||
		core.ContainsString(a.AssignedStudents, usr.ID) ||
		core.ContainsString(a.AssignedTeachers, usr.ID) {
		return true
	}
	for _, id := range classIDs {
		if core.ContainsString(a.AssignedClasses, id) {
			return true
		}
	}
	return false
}

// IsVisibleTo reports whether usr may read a.
func (a Assignment) IsVisibleTo(usr user.User, classIDs []string) bool {
	if usr.IsStaff() && usr.InSchool(a.SchoolID) {
		return true
	}
	return a.Targets(usr, classIDs)
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	SchoolID         string    `json:"school_id"` // super admins only
	Title            string    `json:"title" validate:"required,notblank,max=200"`
	Description      string    `json:"description" validate:"required,notblank"`
	Type             Type      `json:"type" validate:"required,oneof=assignment homework project quiz exam"`
	Priority         Priority  `json:"priority" validate:"required,oneof=low medium high urgent"`
	DueDate          time.Time `json:"due_date"`
	MaxScore         int       `json:"max_score" validate:"gt=0"`
	Instructions     string    `json:"instructions"`
	Rubric           string    `json:"rubric"`
	Tags             []string  `json:"tags" validate:"omitempty,dive,max=50"`
	IsRecurring      bool      `json:"is_recurring"`
	RecurringPattern Pattern   `json:"recurring_pattern" validate:"omitempty,oneof=daily weekly biweekly monthly quarterly"`
	AssignedClasses  []string  `json:"assigned_classes"`
	AssignedStudents []string  `json:"assigned_students"`
	AssignedTeachers []string  `json:"assigned_teachers"`
}

func (na *NewAssignment) clean() {
	na.SchoolID = core.CleanString(na.SchoolID)
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Instructions = core.CleanString(na.Instructions)
	na.Rubric = core.CleanString(na.Rubric)
	na.Tags = core.CleanStrings(na.Tags)
	na.AssignedClasses = core.CleanStrings(na.AssignedClasses)
	na.AssignedStudents = core.CleanStrings(na.AssignedStudents)
	na.AssignedTeachers = core.CleanStrings(na.AssignedTeachers)
	if !na.DueDate.IsZero() {
		na.DueDate = na.DueDate.UTC().Truncate(time.Microsecond)
	}
	if !na.IsRecurring {
		na.RecurringPattern = ""
	}
}

// Validate cleans na and reports every violated field at once.
func (na *NewAssignment) Validate(v *core.Validator) error {
	na.clean()
	return v.Struct(na)
}

// UpdateAssignment is a patch: nil fields keep their current value.
type UpdateAssignment struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	Type             *Type      `json:"type"`
	Priority         *Priority  `json:"priority"`
	DueDate          *time.Time `json:"due_date"`
	MaxScore         *int       `json:"max_score"`
	Instructions     *string    `json:"instructions"`
	Rubric           *string    `json:"rubric"`
	Tags             []string   `json:"tags"`
	IsRecurring      *bool      `json:"is_recurring"`
	RecurringPattern *Pattern   `json:"recurring_pattern"`
	AssignedClasses  []string   `json:"assigned_classes"`
	AssignedStudents []string   `json:"assigned_students"`
	AssignedTeachers []string   `json:"assigned_teachers"`
}

// Merge applies the patch over a, returning the full input to validate.
func (ua UpdateAssignment) Merge(a Assignment) NewAssignment {
	na := NewAssignment{
		SchoolID:         a.SchoolID,
		Title:            a.Title,
		Description:      a.Description,
		Type:             a.Type,
		Priority:         a.Priority,
		DueDate:          a.DueDate,
		MaxScore:         a.MaxScore,
		Instructions:     a.Instructions,
		Rubric:           a.Rubric,
		Tags:             a.Tags,
		IsRecurring:      a.IsRecurring,
		RecurringPattern: a.RecurringPattern,
		AssignedClasses:  a.AssignedClasses,
		AssignedStudents: a.AssignedStudents,
		AssignedTeachers: a.AssignedTeachers,
	}
	if ua.Title != nil {
		na.Title = *ua.Title
	}
	if ua.Description != nil {
		na.Description = *ua.Description
	}
	if ua.Type != nil {
		na.Type = *ua.Type
	}
	if ua.Priority != nil {
		na.Priority = *ua.Priority
	}
	if ua.DueDate != nil {
		na.DueDate = *ua.DueDate
	}
	if ua.MaxScore != nil {
		na.MaxScore = *ua.MaxScore
	}
	if ua.Instructions != nil {
		na.Instructions = *ua.Instructions
	}
	if ua.Rubric != nil {
		na.Rubric = *ua.Rubric
	}
	if ua.Tags != nil {
		na.Tags = ua.Tags
	}
	if ua.IsRecurring != nil {
		na.IsRecurring = *ua.IsRecurring
	}
	if ua.RecurringPattern != nil {
		na.RecurringPattern = *ua.RecurringPattern
	}
	if ua.AssignedClasses != nil {
		na.AssignedClasses = ua.AssignedClasses
	}
	if ua.AssignedStudents != nil {
		na.AssignedStudents = ua.AssignedStudents
	}
	if ua.AssignedTeachers != nil {
		na.AssignedTeachers = ua.AssignedTeachers
	}
	return na
}

// apply copies the validated input onto a.
func (na NewAssignment) apply(a *Assignment) {
	a.Title = na.Title
	a.Description = na.Description
	a.Type = na.Type
	a.Priority = na.Priority
	a.DueDate = na.DueDate
	a.MaxScore = na.MaxScore
	a.Instructions = na.Instructions
	a.Rubric = na.Rubric
	a.Tags = nonNil(na.Tags)
	a.IsRecurring = na.IsRecurring
	a.RecurringPattern = na.RecurringPattern
	a.AssignedClasses = nonNil(na.AssignedClasses)
	a.AssignedStudents = nonNil(na.AssignedStudents)
	a.AssignedTeachers = nonNil(na.AssignedTeachers)
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// QueryFilter narrows listAssignmentsForAudience. Zero values are ignored.
type QueryFilter struct {
	Type     Type      `query:"type" validate:"omitempty,oneof=assignment homework project quiz exam"`
	Priority Priority  `query:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueFrom  time.Time `query:"-"`
	DueTo    time.Time `query:"-"`
	core.Page
}

// Audience restricts a query to the assignments a caller is part of.
type Audience struct {
	UserID   string
	ClassIDs []string
}

// RepoFilter is the fully resolved query handed to the Repository.
// Results are ordered by due date then id, both ascending.
type RepoFilter struct {
	QueryFilter
	IDs      []string
	SchoolID string    // empty: every school
	Audience *Audience // nil: no audience restriction
}
