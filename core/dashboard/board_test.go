package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/childclub/backend/core/attendance"
	"github.com/childclub/backend/core/progress"
	testutil "github.com/childclub/backend/tests"
)

func TestBoard_Get(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	testutil.SetNow(t, now)
	env := testutil.NewEnv(t)
	ctx := context.Background()
	teacher := testutil.Teacher("t-1")

	testutil.CreateAssignment(t, env, teacher, testutil.NewAssignment("Essay", now.Add(24*time.Hour), "s-1"))
	testutil.CreateAssignment(t, env, teacher, testutil.NewAssignment("Old worksheet", now.Add(-24*time.Hour), "s-1"))

	view, err := env.Board.Get(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 1, view.Counts[progress.StatusOverdue])
	assert.Equal(t, 1, view.Counts[progress.StatusPending])
	assert.Equal(t, 0, view.Counts[progress.StatusCompleted])
	assert.Nil(t, view.Attendance, "attendance is shown to students only")

	// cached within the TTL
	testutil.CreateAssignment(t, env, teacher, testutil.NewAssignment("Poem", now.Add(48*time.Hour), "s-1"))
	view, err = env.Board.Get(ctx, teacher)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)

	env.Board.Invalidate(teacher)
	view, err = env.Board.Get(ctx, teacher)
	require.NoError(t, err)
	assert.Len(t, view.Items, 3)
}

func TestBoard_Expiry(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	testutil.SetNow(t, now)
	env := testutil.NewEnv(t)
	ctx := context.Background()
	teacher := testutil.Teacher("t-1")

	view, err := env.Board.Get(ctx, teacher)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	testutil.CreateAssignment(t, env, teacher, testutil.NewAssignment("Essay", now.Add(24*time.Hour), "s-1"))
	testutil.SetNow(t, now.Add(env.Conf.Dashboard.CacheTTL+time.Second))

	view, err = env.Board.Get(ctx, teacher)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1, "stale views are rebuilt")
}

func TestBoard_StudentAttendance(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	testutil.SetNow(t, now)
	env := testutil.NewEnv(t)
	ctx := context.Background()
	student := testutil.Student("s-1")

	for _, d := range []string{"2026-05-01", "2026-05-02"} {
		_, err := env.Attendance.Mark(ctx, testutil.Teacher("t-1"), attendance.NewRecord{
			StudentID: "s-1", ClassID: "class-a", Date: d, Status: attendance.StatusPresent,
		})
		require.NoError(t, err)
	}
	a := testutil.CreateAssignment(t, env, testutil.Teacher("t-1"), testutil.NewAssignment("Essay", now.Add(time.Hour), "s-1"))
	testutil.SubmitWork(t, env, student, a.ID, "done")

	view, err := env.Board.Refresh(ctx, student)
	require.NoError(t, err)
	require.NotNil(t, view.Attendance)
	assert.Equal(t, 2, view.Attendance.TotalDays)
	assert.Equal(t, 100.0, view.Attendance.AttendancePercentage)
	require.Len(t, view.Items, 1)
	assert.Equal(t, progress.StatusInProgress, view.Items[0].Progress.Status)
	assert.True(t, now.Equal(view.GeneratedAt))
}
