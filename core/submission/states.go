package submission

import "strconv"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusReviewed  Status = "reviewed"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusResubmit  Status = "resubmit"
)

var (
	Statuses = []Status{StatusDraft, StatusSubmitted, StatusReviewed, StatusApproved, StatusRejected, StatusResubmit}

	// transitions lists, per status, the statuses it may move to.
	transitions = map[Status][]Status{
		StatusDraft:     {StatusSubmitted},
		StatusResubmit:  {StatusSubmitted},
		StatusSubmitted: {StatusReviewed, StatusApproved, StatusRejected, StatusResubmit},
		StatusReviewed:  {StatusReviewed, StatusApproved, StatusRejected, StatusResubmit},
		StatusApproved:  nil,
		StatusRejected:  nil,
	}
)

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a submission in s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, st := range transitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// IsEditable reports whether the student may still change the content.
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusResubmit
}

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// AwaitsReview reports whether a reviewer still has to act; such submissions block assignment deletion.
func (s Status) AwaitsReview() bool {
	return s == StatusSubmitted || s == StatusReviewed
}

// IsTurnedIn reports whether the student has handed in work at least once.
func (s Status) IsTurnedIn() bool {
	return s != StatusDraft && s.Valid()
}

func gradeRangeText(maxScore int) string {
	return "grade must be between 0 and " + strconv.Itoa(maxScore)
}
