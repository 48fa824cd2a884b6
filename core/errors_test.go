package core

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestTrapErr(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "validation passes through", err: NewValidationError(nil, FieldError{Field: "title", Error: "required"}), check: IsValidation},
		{name: "not found passes through", err: errors.Wrap(NewNotFoundError("assignment", "x"), "getting"), check: IsNotFound},
		{name: "authorization passes through", err: NewAuthorizationError("update assignment", ""), check: IsAuthorization},
		{name: "conflict passes through", err: NewConflictError("version %d is stale", 2), check: IsConflict},
		{name: "deadline becomes timeout", err: errors.Wrap(context.DeadlineExceeded, "querying"), check: IsTimeout},
		{name: "canceled becomes timeout", err: context.Canceled, check: IsTimeout},
		{name: "anything else becomes internal", err: sql.ErrConnDone, check: IsInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrapErr(tt.err, "doing stuff")
			assert.True(t, tt.check(got), "got %T: %v", got, got)
		})
	}

	assert.Nil(t, TrapErr(nil, "noop"))
}

func TestTrapErr_keepsCause(t *testing.T) {
	err := TrapErr(sql.ErrConnDone, "querying assignments")
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Contains(t, err.Error(), "querying assignments")
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError(nil,
		FieldError{Field: "title", Error: "this field is required"},
		FieldError{Field: "max_score", Error: "max_score must be greater than 0"},
	)
	assert.Equal(t, "validation failed: title: this field is required; max_score: max_score must be greater than 0", err.Error())
	assert.Equal(t, "oops", NewValidationError(errors.New("oops")).Error())
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("integrity issue"), "handling")))
	assert.False(t, IsShutdown(errors.New("lol")))
}
