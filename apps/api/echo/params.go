package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/childclub/backend/core"
)

const dateLayout = "2006-01-02"

// parseTimeParam reads the optional query param name as an RFC 3339 timestamp or a YYYY-MM-DD day.
// With endOfDay set, a bare day means its last microsecond.
func parseTimeParam(ctx echo.Context, name string, endOfDay bool) (time.Time, error) {
	s := strings.TrimSpace(ctx.QueryParam(name))
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{
			Field: name,
			Error: "must be an RFC 3339 timestamp or a YYYY-MM-DD date",
		})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return t, nil
}

// parseRange reads the fromParam and toParam time params, collecting both errors.
func parseRange(ctx echo.Context, fromParam, toParam string) (from, to time.Time, err error) {
	var flds []core.FieldError
	collect := func(e error) {
		if vErr, ok := e.(*core.ValidationError); ok {
			flds = append(flds, vErr.Fields...)
		}
	}

	from, e := parseTimeParam(ctx, fromParam, false)
	collect(e)
	to, e = parseTimeParam(ctx, toParam, true)
	collect(e)

	if len(flds) > 0 {
		return time.Time{}, time.Time{}, core.NewValidationError(nil, flds...)
	}
	return from, to, nil
}
