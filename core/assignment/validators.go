package assignment

import (
	"github.com/go-playground/validator/v10"

	"github.com/childclub/backend/core"
)

var (
	dueDateTag  = "due_date_required"
	dueDateText = "this field is required"

	patternTag  = "pattern_required"
	patternText = "a recurring assignment needs a recurring pattern"

	targetTag  = "target_required"
	targetText = "an assignment must target at least one class or student"
)

// RegisterValidators registers the assignment validators on v.
func RegisterValidators(v *core.Validator) {
	v.Validate.RegisterStructValidation(newAssignmentStructValidation, NewAssignment{})
	v.RegisterCustomTranslation(dueDateTag, dueDateText)
	v.RegisterCustomTranslation(patternTag, patternText)
	v.RegisterCustomTranslation(targetTag, targetText)
}

// newAssignmentStructValidation checks the cross-field rules of NewAssignment.
func newAssignmentStructValidation(sl validator.StructLevel) {
	na, ok := sl.Current().Interface().(NewAssignment)
	if !ok {
		return
	}
	if na.DueDate.IsZero() {
		sl.ReportError(na.DueDate, "due_date", "DueDate", dueDateTag, "")
	}
	if na.IsRecurring && na.RecurringPattern == "" {
		sl.ReportError(na.RecurringPattern, "recurring_pattern", "RecurringPattern", patternTag, "")
	}
	if len(na.AssignedClasses) == 0 && len(na.AssignedStudents) == 0 {
		sl.ReportError(na.AssignedClasses, "assigned_classes", "AssignedClasses", targetTag, "")
		sl.ReportError(na.AssignedStudents, "assigned_students", "AssignedStudents", targetTag, "")
	}
}
