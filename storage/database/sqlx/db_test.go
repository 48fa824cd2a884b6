package sqlxrepos

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/childclub/backend/core"
)

func Test_trapErr(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "unique violation", err: &pq.Error{Code: uniqueViolation, Detail: "Key (id)=(x) already exists."}, check: core.IsConflict},
		{name: "foreign key", err: &pq.Error{Code: foreignKeyViolation, Table: "assignment"}, check: core.IsNotFound},
		{name: "query canceled", err: &pq.Error{Code: queryCanceled}, check: core.IsTimeout},
		{name: "context expired", err: errors.Wrap(context.DeadlineExceeded, "querying"), check: core.IsTimeout},
		{name: "admin shutdown", err: &pq.Error{Code: adminShutdown, Message: "terminating connection due to administrator command"}, check: core.IsShutdown},
		{name: "crash shutdown", err: &pq.Error{Code: crashShutdown}, check: core.IsShutdown},
		{name: "unknown", err: errors.New("lol"), check: core.IsInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := trapErr(tt.err, "doing things")
			assert.True(t, tt.check(err), "got %v", err)
		})
	}

	err := trapErr(&pq.Error{Code: adminShutdown}, "getting assignment")
	assert.True(t, core.IsInternal(err), "a shutdown stays a server error")
	assert.Nil(t, trapErr(nil, "noop"))
}
