package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/childclub/backend/core/dashboard"
	"github.com/childclub/backend/core/progress"
	"github.com/childclub/backend/core/submission"
	testutil "github.com/childclub/backend/tests"
)

func Test_submissionAPI_workflow(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	testutil.SetNow(t, now)
	a := setup(t)
	teacher := testutil.Teacher("t-1")
	tTok, sTok := a.token(t, teacher), a.token(t, testutil.Student("s-1"))
	outsiderTok := a.token(t, testutil.Student("s-9"))

	task := testutil.CreateAssignment(t, a.env, teacher, testutil.NewAssignment("Essay", now.Add(48*time.Hour), "s-1"))
	base := "/v1/assignments/" + task.ID

	// nothing saved yet
	rec := a.do(http.MethodGet, base+"/submission", sTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// submitting without a draft
	rec = a.do(http.MethodPost, base+"/submission/submit", sTok, []byte(`{}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// staff do not save drafts; outsiders do not see the task
	rec = a.do(http.MethodPut, base+"/submission", tTok, []byte(`{"content": "x"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodPut, base+"/submission", outsiderTok, []byte(`{"content": "x"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPut, base+"/submission", sTok, []byte(`{"content": "my essay", "attachments": [{"name": "essay.pdf", "size": 42, "url": "not a url"}]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPut, base+"/submission", sTok, []byte(`{"content": "my essay", "attachments": [{"name": "essay.pdf", "size": 42, "url": "https://files.test/essay.pdf"}]}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var draft submission.Submission
	unmarshalObj(t, rec, &draft)
	assert.Equal(t, submission.StatusDraft, draft.Status)
	require.Len(t, draft.Attachments, 1)

	// reviewing a draft is a conflict
	rec = a.do(http.MethodPost, "/v1/submissions/"+draft.ID+"/review", tTok, []byte(`{"status": "approved", "grade": 10}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, base+"/submission/submit", sTok, []byte(`{}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var submitted submission.Submission
	unmarshalObj(t, rec, &submitted)
	assert.Equal(t, submission.StatusSubmitted, submitted.Status)
	assert.False(t, submitted.IsLate)
	assert.True(t, submitted.SubmittedAt.Valid)

	// listing is for staff
	rec = a.do(http.MethodGet, base+"/submissions", sTok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodGet, base+"/submissions", tTok)
	require.Equal(t, http.StatusOK, rec.Code)
	var subs []submission.Submission
	unmarshalObj(t, rec, &subs)
	require.Len(t, subs, 1)
	assert.Equal(t, submitted.ID, subs[0].ID)

	// review
	path := "/v1/submissions/" + submitted.ID + "/review"
	rec = a.do(http.MethodPost, path, sTok, []byte(`{"status": "approved", "grade": 18}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, path, tTok, []byte(`{"status": "approved", "grade": 180}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fldErrs map[string]string
	unmarshalObj(t, rec, &fldErrs)
	assert.Contains(t, fldErrs, "grade")

	rec = a.do(http.MethodPost, path, tTok, []byte(`{"status": "approved", "grade": 18, "feedback": "Well argued", "teacher_notes": "ready for the next level"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved submission.Submission
	unmarshalObj(t, rec, &approved)
	assert.Equal(t, submission.StatusApproved, approved.Status)
	assert.Equal(t, 18.0, approved.Grade.Float64)
	assert.Equal(t, "t-1", approved.ReviewedByID.String)
	assert.Equal(t, "ready for the next level", approved.TeacherNotes.String)

	// terminal
	rec = a.do(http.MethodPost, path, tTok, []byte(`{"status": "resubmit"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// the student sees feedback, never teacher notes
	rec = a.do(http.MethodGet, "/v1/submissions/"+submitted.ID, sTok)
	require.Equal(t, http.StatusOK, rec.Code)
	var seen submission.Submission
	unmarshalObj(t, rec, &seen)
	assert.Equal(t, "Well argued", seen.Feedback.String)
	assert.False(t, seen.TeacherNotes.Valid)

	rec = a.do(http.MethodGet, "/v1/submissions/"+submitted.ID, outsiderTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// derived status
	rec = a.do(http.MethodGet, base+"/progress", tTok)
	require.Equal(t, http.StatusOK, rec.Code)
	var report progress.Report
	unmarshalObj(t, rec, &report)
	assert.Equal(t, progress.StatusCompleted, report.Status)
	assert.Equal(t, 1, report.Approved)

	// receipt + review notification
	assert.Len(t, a.env.Mail.SentMessages(), 2)
}

func Test_dashboardAPI(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	testutil.SetNow(t, now)
	a := setup(t)
	teacher := testutil.Teacher("t-1")
	tTok, sTok := a.token(t, teacher), a.token(t, testutil.Student("s-1"))

	rec := a.do(http.MethodGet, "/v1/dashboard", tTok)
	require.Equal(t, http.StatusOK, rec.Code)
	var view dashboard.View
	unmarshalObj(t, rec, &view)
	assert.Empty(t, view.Items)

	// mutations through the API invalidate cached views
	rec = a.do(http.MethodPost, "/v1/assignments", tTok, marshalObj(t, testutil.NewAssignment("Essay", now.Add(time.Hour), "s-1")))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodGet, "/v1/dashboard", tTok)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshalObj(t, rec, &view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Counts[progress.StatusPending])

	// writes made behind the API's back show up on refresh
	testutil.CreateAssignment(t, a.env, teacher, testutil.NewAssignment("Poem", now.Add(2*time.Hour), "s-1"))
	rec = a.do(http.MethodGet, "/v1/dashboard", tTok)
	unmarshalObj(t, rec, &view)
	assert.Len(t, view.Items, 1)

	rec = a.do(http.MethodPost, "/v1/dashboard/refresh", tTok)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshalObj(t, rec, &view)
	assert.Len(t, view.Items, 2)

	rec = a.do(http.MethodGet, "/v1/dashboard", sTok)
	require.Equal(t, http.StatusOK, rec.Code)
	var studentView dashboard.View
	unmarshalObj(t, rec, &studentView)
	assert.Len(t, studentView.Items, 2)
	require.NotNil(t, studentView.Attendance)
	assert.Equal(t, 0, studentView.Attendance.TotalDays)
}
