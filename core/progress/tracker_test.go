package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/childclub/backend/core"
	"github.com/childclub/backend/core/progress"
	testutil "github.com/childclub/backend/tests"
)

func TestTracker_ClassAudience(t *testing.T) {
	now := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	testutil.SetNow(t, now)
	env := testutil.NewEnv(t)
	ctx := context.Background()
	teacher := testutil.Teacher("t-1")
	require.NoError(t, env.Roster.SetMembers(ctx, testutil.SchoolAdmin("ad-1"), "", "class-a", []string{"s-1", "s-2"}))

	na := testutil.NewAssignment("Class quiz", now.Add(time.Hour))
	na.AssignedClasses = []string{"class-a"}
	a := testutil.CreateAssignment(t, env, teacher, na)
	testutil.SubmitWork(t, env, testutil.Student("s-1"), a.ID, "answers")

	report, err := env.Tracker.Progress(ctx, teacher, a.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusInProgress, report.Status)
	assert.Equal(t, 2, report.AudienceSize, "class members make the audience")
	assert.Equal(t, 1, report.TurnedIn)

	_, err = env.Tracker.Progress(ctx, testutil.Student("s-9"), a.ID)
	assert.True(t, core.IsNotFound(err))

	reports, err := env.Tracker.Track(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
