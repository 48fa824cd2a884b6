package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/childclub/backend/apps/api/echo"
	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/attendance"
	"github.com/childclub/backend/core/dashboard"
	"github.com/childclub/backend/core/progress"
	"github.com/childclub/backend/core/roster"
	"github.com/childclub/backend/core/submission"
	"github.com/childclub/backend/core/user"
	emailsvc "github.com/childclub/backend/services/email"
	logsvc "github.com/childclub/backend/services/logger"
	metricsvc "github.com/childclub/backend/services/metrics"
	"github.com/childclub/backend/storage/database"
	inmemdb "github.com/childclub/backend/storage/database/inmem"
	sqlxrepos "github.com/childclub/backend/storage/database/sqlx"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Storage is the repository set of the configured database engine.
	Storage struct {
		dig.Out
		Roster      roster.Repository
		Assignments assignment.Repository
		Submissions submission.Repository
		Attendance  attendance.Repository
		Closer      StorageCloser
	}

	// StorageCloser releases the database connections.
	StorageCloser func() error

	serverParams struct {
		dig.In
		Conf          *core.Config
		Logger        core.Logger
		Validate      *core.Validator
		Metrics       *metricsvc.Recorder
		RosterSvc     *roster.Service
		AssignmentSvc *assignment.Service
		SubmissionSvc *submission.Service
		AttendanceSvc *attendance.Service
		Tracker       *progress.Tracker
		Board         *dashboard.Board
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	logger := loggerParam.Logger

	if conf.Database.Engine == core.EngineMemory {
		logger.Warn("using the in-memory database: data is lost on shutdown")
		db := inmemdb.Open()
		return Storage{
			Roster:      inmemdb.NewRosterRepository(db),
			Assignments: inmemdb.NewAssignmentRepository(db),
			Submissions: inmemdb.NewSubmissionRepository(db),
			Attendance:  inmemdb.NewAttendanceRepository(db),
			Closer:      func() error { return nil },
		}
	}

	setUp := func() (*sqlx.DB, error) {
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Storage{
		Roster:      sqlxrepos.NewRosterRepository(db, conf),
		Assignments: sqlxrepos.NewAssignmentRepository(db, conf),
		Submissions: sqlxrepos.NewSubmissionRepository(db, conf),
		Attendance:  sqlxrepos.NewAttendanceRepository(db, conf),
		Closer:      db.Close,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(log.New(os.Stdout, "EMAIL : ", log.LstdFlags), logger, conf)
	}
	return emailsvc.NewSendgridService(logger, conf)
}

func newValidator() *core.Validator {
	v := core.NewValidator()
	user.RegisterValidators(v)
	assignment.RegisterValidators(v)
	return v
}

func newEventRecorder(rec *metricsvc.Recorder) core.EventRecorder {
	return rec
}

func newAssignmentService(
	repo assignment.Repository,
	rosterSvc *roster.Service,
	validate *core.Validator,
	logger core.Logger,
	events core.EventRecorder,
	conf *core.Config,
) *assignment.Service {
	return assignment.NewService(repo, rosterSvc, validate, logger, events, conf)
}

func newSubmissionService(
	repo submission.Repository,
	assignmentSvc *assignment.Service,
	mailSvc core.EmailService,
	validate *core.Validator,
	logger core.Logger,
	events core.EventRecorder,
	conf *core.Config,
) *submission.Service {
	return submission.NewService(repo, assignmentSvc, mailSvc, validate, logger, events, conf)
}

func newTracker(assignmentSvc *assignment.Service, submissionSvc *submission.Service, rosterSvc *roster.Service) *progress.Tracker {
	return progress.NewTracker(assignmentSvc, submissionSvc, rosterSvc)
}

func newBoard(
	assignmentSvc *assignment.Service,
	tracker *progress.Tracker,
	attendanceSvc *attendance.Service,
	conf *core.Config,
) *dashboard.Board {
	return dashboard.NewBoard(assignmentSvc, tracker, attendanceSvc, conf)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Metrics:       p.Metrics,
		RosterSvc:     p.RosterSvc,
		AssignmentSvc: p.AssignmentSvc,
		SubmissionSvc: p.SubmissionSvc,
		AttendanceSvc: p.AttendanceSvc,
		Tracker:       p.Tracker,
		Board:         p.Board,
	})
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(newValidator))
	must(c.Provide(metricsvc.NewRecorder))
	must(c.Provide(newEventRecorder))
	must(c.Provide(roster.NewService))
	must(c.Provide(newAssignmentService))
	must(c.Provide(newSubmissionService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(newTracker))
	must(c.Provide(newBoard))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
