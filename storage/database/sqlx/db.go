// Package sqlxrepos implements the core repositories on postgres.
package sqlxrepos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/childclub/backend/core"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	queryCanceled       = "57014"
	adminShutdown       = "57P01"
	crashShutdown       = "57P02"
)

type base struct {
	db      *sqlx.DB
	timeout time.Duration
}

func newBase(db *sqlx.DB, conf *core.Config) base {
	return base{db: db, timeout: conf.Database.QueryTimeout}
}

func (b base) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return core.WithDefaultTimeout(ctx, b.timeout)
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (b base) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// trapErr maps postgres failures into the core error taxonomy.
func trapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return core.NewConflictError("%s: %s", msg, pqErr.Detail)
		case foreignKeyViolation:
			return core.NewNotFoundError(pqErr.Table, "")
		case queryCanceled:
			return core.NewTimeoutError(msg, err)
		case adminShutdown, crashShutdown:
			// the server is going away: fail the request and stop the API
			return core.NewInternalError(errors.Wrap(core.NewShutdownError(pqErr.Message), msg))
		}
	}
	return core.TrapErr(err, msg)
}

// where accumulates AND-ed conditions written with `?` placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func limitOffset(p core.Page) string {
	var sb strings.Builder
	if p.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(p.Offset))
	}
	return sb.String()
}
