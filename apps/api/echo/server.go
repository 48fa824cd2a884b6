package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kat-co/vala"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/attendance"
	"github.com/childclub/backend/core/dashboard"
	"github.com/childclub/backend/core/progress"
	"github.com/childclub/backend/core/roster"
	"github.com/childclub/backend/core/submission"
	metricsvc "github.com/childclub/backend/services/metrics"
)

type (
	ServerDeps struct {
		Conf     *core.Config
		Logger   core.Logger
		Validate *core.Validator
		Metrics  *metricsvc.Recorder

		RosterSvc     *roster.Service
		AssignmentSvc *assignment.Service
		SubmissionSvc *submission.Service
		AttendanceSvc *attendance.Service
		Tracker       *progress.Tracker
		Board         *dashboard.Board

		DisableReqLogs bool
	}

	Server struct {
		app      *echo.Echo
		addr     string
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.Validate, "Validate"),
		vala.IsNotNil(deps.Metrics, "Metrics"),
		vala.IsNotNil(deps.RosterSvc, "RosterSvc"),
		vala.IsNotNil(deps.AssignmentSvc, "AssignmentSvc"),
		vala.IsNotNil(deps.SubmissionSvc, "SubmissionSvc"),
		vala.IsNotNil(deps.AttendanceSvc, "AttendanceSvc"),
		vala.IsNotNil(deps.Tracker, "Tracker"),
		vala.IsNotNil(deps.Board, "Board"),
	).CheckAndPanic()

	s := &Server{
		app:      echo.New(),
		addr:     deps.Conf.Server.Addr,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	conf := deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())
	s.app.Use(metricsMiddleware(deps.Metrics))
	s.app.Use(timeoutMiddleware(conf.Server.RequestTimeout))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home(conf))
	s.app.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))

	v1 := s.app.Group("/v1", newJWTMiddleware(conf), sessionMiddleware(conf, deps.Validate))

	registerAssignmentAPI(v1, deps.AssignmentSvc, deps.Tracker, deps.Board)
	registerSubmissionAPI(v1, deps.SubmissionSvc, deps.Board)
	registerAttendanceAPI(v1, deps.AttendanceSvc, deps.Board)
	registerRosterAPI(v1, deps.RosterSvc, deps.Board)
	registerDashboardAPI(v1, deps.Board)
}

// Start listens until the server is shut down; failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func home(conf *core.Config) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Welcome to "+conf.AppName+" API!")
	}
}
