package submission

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/childclub/backend/core"
)

func TestStatus_CanTransition(t *testing.T) {
	allowed := map[Status][]Status{
		StatusDraft:     {StatusSubmitted},
		StatusResubmit:  {StatusSubmitted},
		StatusSubmitted: {StatusReviewed, StatusApproved, StatusRejected, StatusResubmit},
		StatusReviewed:  {StatusReviewed, StatusApproved, StatusRejected, StatusResubmit},
	}
	for _, from := range Statuses {
		for _, to := range Statuses {
			want := false
			for _, st := range allowed[from] {
				if st == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Predicates(t *testing.T) {
	tests := []struct {
		status                                  Status
		editable, terminal, awaiting, turnedIn bool
	}{
		{StatusDraft, true, false, false, false},
		{StatusSubmitted, false, false, true, true},
		{StatusReviewed, false, false, true, true},
		{StatusApproved, false, true, false, true},
		{StatusRejected, false, true, false, true},
		{StatusResubmit, true, false, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.Valid())
			assert.Equal(t, tt.editable, tt.status.IsEditable(), "IsEditable")
			assert.Equal(t, tt.terminal, tt.status.IsTerminal(), "IsTerminal")
			assert.Equal(t, tt.awaiting, tt.status.AwaitsReview(), "AwaitsReview")
			assert.Equal(t, tt.turnedIn, tt.status.IsTurnedIn(), "IsTurnedIn")
		})
	}
	assert.False(t, Status("graded").Valid())
}

func TestReview_Validate(t *testing.T) {
	v := core.NewValidator()
	grade := func(g float64) *float64 { return &g }

	tests := []struct {
		name   string
		review Review
		fields []string
	}{
		{"approve with grade", Review{Status: StatusApproved, Grade: grade(18)}, nil},
		{"boundaries", Review{Status: StatusReviewed, Grade: grade(20)}, nil},
		{"zero", Review{Status: StatusRejected, Grade: grade(0)}, nil},
		{"too high", Review{Status: StatusApproved, Grade: grade(20.5)}, []string{"grade"}},
		{"negative", Review{Status: StatusApproved, Grade: grade(-1)}, []string{"grade"}},
		{"draft is no review", Review{Status: StatusDraft}, []string{"status"}},
		{"everything wrong", Review{Grade: grade(99)}, []string{"status", "grade"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.review.Validate(v, 20)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "expected a validation error, got %v", err)
			got := make([]string, 0, len(vErr.Fields))
			for _, f := range vErr.Fields {
				got = append(got, f.Field)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestSubmission_Redacted(t *testing.T) {
	s := Submission{ID: "s-1"}
	s.TeacherNotes.SetValid("needs help with fractions")
	s.Feedback.SetValid("good effort")

	r := s.Redacted()
	assert.False(t, r.TeacherNotes.Valid)
	assert.True(t, r.Feedback.Valid)
	assert.True(t, s.TeacherNotes.Valid, "the original is untouched")
}
