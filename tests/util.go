// Package testutil wires the core services on the in-memory store for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/assignment"
	"github.com/childclub/backend/core/attendance"
	"github.com/childclub/backend/core/dashboard"
	"github.com/childclub/backend/core/progress"
	"github.com/childclub/backend/core/roster"
	"github.com/childclub/backend/core/submission"
	"github.com/childclub/backend/core/user"
	appfs "github.com/childclub/backend/fs"
	emailsvc "github.com/childclub/backend/services/email"
	inmemdb "github.com/childclub/backend/storage/database/inmem"
)

const SchoolID = "school-1"

func bg() context.Context { return context.Background() }

// Logger keeps every logged message, for assertions.
type Logger struct {
	mu   sync.Mutex
	Msgs []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	l.Msgs = append(l.Msgs, level+": "+msg)
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

// Events counts recorded events by "resource/action".
type Events struct {
	mu     sync.Mutex
	counts map[string]int
}

var _ core.EventRecorder = (*Events)(nil)

func (e *Events) RecordEvent(resource, action string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.counts == nil {
		e.counts = make(map[string]int)
	}
	e.counts[resource+"/"+action]++
}

func (e *Events) Count(resource, action string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[resource+"/"+action]
}

func NewConfig() *core.Config {
	return &core.Config{
		Env:             "TEST",
		Build:           "test",
		AppName:         "ChildClub",
		TestMode:        true,
		SecretKey:       "test-secret",
		FrontendBaseURL: "http://localhost:3000",
		Server: core.ServerConfig{
			RequestTimeout: 5 * time.Second,
			JWTIssuer:      "ChildClub",
			JWTAudience:    "ChildClub",
		},
		Database:  core.DatabaseConfig{Engine: core.EngineMemory, QueryTimeout: 5 * time.Second},
		Dashboard: core.DashboardConfig{CacheTTL: time.Minute},
	}
}

// NewValidator returns a validator with every domain rule registered.
func NewValidator() *core.Validator {
	v := core.NewValidator()
	user.RegisterValidators(v)
	assignment.RegisterValidators(v)
	return v
}

// Env is a fully wired set of services on a fresh in-memory store.
type Env struct {
	Conf     *core.Config
	DB       *inmemdb.DB
	Logger   *Logger
	Events   *Events
	Mail     *emailsvc.ConsoleServiceMock
	Validate *core.Validator

	Roster      *roster.Service
	Assignments *assignment.Service
	Submissions *submission.Service
	Attendance  *attendance.Service
	Tracker     *progress.Tracker
	Board       *dashboard.Board
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	env := &Env{
		Conf:     NewConfig(),
		DB:       inmemdb.Open(),
		Logger:   new(Logger),
		Events:   new(Events),
		Validate: NewValidator(),
	}
	core.ParseEmailTemplates(appfs.FS, env.Logger, true)
	env.Mail = emailsvc.NewConsoleServiceMock(env.Logger, env.Conf)

	env.Roster = roster.NewService(inmemdb.NewRosterRepository(env.DB), env.Logger, env.Conf)
	env.Assignments = assignment.NewService(
		inmemdb.NewAssignmentRepository(env.DB), env.Roster, env.Validate, env.Logger, env.Events, env.Conf)
	env.Submissions = submission.NewService(
		inmemdb.NewSubmissionRepository(env.DB), env.Assignments, env.Mail, env.Validate, env.Logger, env.Events, env.Conf)
	env.Attendance = attendance.NewService(
		inmemdb.NewAttendanceRepository(env.DB), env.Validate, env.Logger, env.Events, env.Conf)
	env.Tracker = progress.NewTracker(env.Assignments, env.Submissions, env.Roster)
	env.Board = dashboard.NewBoard(env.Assignments, env.Tracker, env.Attendance, env.Conf)
	return env
}

// SetNow freezes core.NowFunc at now for the duration of the test.
func SetNow(t *testing.T, now time.Time) {
	t.Helper()
	prev := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = prev })
}

func newUser(id, name string, roles ...string) user.User {
	return user.User{
		ID:       id,
		SchoolID: SchoolID,
		Name:     name,
		Email:    id + "@childclub.test",
		Roles:    roles,
	}
}

func Student(id string) user.User {
	return newUser(id, "Student "+id, user.RoleStudent)
}

func Teacher(id string) user.User {
	return newUser(id, "Teacher "+id, user.RoleTeacher)
}

func SchoolAdmin(id string) user.User {
	return newUser(id, "Admin "+id, user.RoleAdminSchool)
}

func SuperAdmin(id string) user.User {
	usr := newUser(id, "Super "+id, user.RoleAdminSuper)
	usr.SchoolID = ""
	return usr
}

// InSchool moves usr to schoolID.
func InSchool(usr user.User, schoolID string) user.User {
	usr.SchoolID = schoolID
	return usr
}

// NewAssignment returns valid creation input due at due, targeting the given students.
func NewAssignment(title string, due time.Time, students ...string) assignment.NewAssignment {
	return assignment.NewAssignment{
		Title:            title,
		Description:      fmt.Sprintf("%s description", title),
		Type:             assignment.TypeHomework,
		Priority:         assignment.PriorityMedium,
		DueDate:          due,
		MaxScore:         100,
		AssignedStudents: students,
	}
}

// CreateAssignment creates an assignment as by, failing the test on error.
func CreateAssignment(t *testing.T, env *Env, by user.User, na assignment.NewAssignment) assignment.Assignment {
	t.Helper()
	a, err := env.Assignments.Create(bg(), by, na)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}

// SubmitWork saves a draft then submits it as student, failing the test on error.
func SubmitWork(t *testing.T, env *Env, student user.User, taskID, content string) submission.Submission {
	t.Helper()
	if _, err := env.Submissions.SaveDraft(bg(), student, taskID, submission.Draft{Content: content}); err != nil {
		t.Fatalf("SaveDraft() failed: %v", err)
	}
	s, err := env.Submissions.Submit(bg(), student, taskID, submission.Submit{})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	return s
}

// Grade returns a pointer to g, for review input.
func Grade(g float64) *float64 { return &g }

// Text returns a pointer to s, for patch input.
func Text(s string) *string { return &s }
