package assignment

import (
	"time"

	"github.com/pkg/errors"
)

var errUnknownPattern = errors.New("unknown recurring pattern")

// NextDueDate returns the due date following from for the given pattern.
// Monthly steps follow time.AddDate normalisation (Jan 31 + 1 month = Mar 3 on non-leap years).
func NextDueDate(pattern Pattern, from time.Time) (time.Time, error) {
	switch pattern {
	case PatternDaily:
		return from.AddDate(0, 0, 1), nil
	case PatternWeekly:
		return from.AddDate(0, 0, 7), nil
	case PatternBiweekly:
		return from.AddDate(0, 0, 14), nil
	case PatternMonthly:
		return from.AddDate(0, 1, 0), nil
	case PatternQuarterly:
		return from.AddDate(0, 3, 0), nil
	default:
		return time.Time{}, errors.Wrapf(errUnknownPattern, "%q", pattern)
	}
}
