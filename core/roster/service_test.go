package roster_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/childclub/backend/core"
	testutil "github.com/childclub/backend/tests"
)

func TestService_Members(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	admin := testutil.SchoolAdmin("ad-1")

	require.NoError(t, env.Roster.SetMembers(ctx, admin, "", "class-a", []string{" s-2", "s-1", "s-2", ""}))
	require.NoError(t, env.Roster.SetMembers(ctx, admin, "", "class-b", []string{"s-3", "s-1"}))

	ids, err := env.Roster.ClassMembers(ctx, testutil.Teacher("t-1"), "class-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1", "s-2"}, ids)

	ids, err = env.Roster.Members(ctx, "class-a", "class-b")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1", "s-2", "s-3"}, ids)

	classes, err := env.Roster.ClassesOf(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"class-a", "class-b"}, classes)

	audience, err := env.Roster.Audience(ctx, []string{"class-b"}, []string{"s-9", "s-3"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s-9", "s-3", "s-1"}, audience)

	// replacing drops former members
	require.NoError(t, env.Roster.SetMembers(ctx, admin, "", "class-a", nil))
	ids, err = env.Roster.Members(ctx, "class-a")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestService_SetMembersAccess(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	err := env.Roster.SetMembers(ctx, testutil.Teacher("t-1"), "", "class-a", []string{"s-1"})
	assert.True(t, core.IsAuthorization(err))

	err = env.Roster.SetMembers(ctx, testutil.SchoolAdmin("ad-1"), "school-2", "class-a", []string{"s-1"})
	assert.True(t, core.IsAuthorization(err), "admins act within their school")

	err = env.Roster.SetMembers(ctx, testutil.SuperAdmin("su-1"), "school-2", "class-z", []string{"s-1"})
	assert.NoError(t, err)

	err = env.Roster.SetMembers(ctx, testutil.SchoolAdmin("ad-1"), "", " ", []string{"s-1"})
	assert.True(t, core.IsValidation(err))

	_, err = env.Roster.ClassMembers(ctx, testutil.Student("s-1"), "class-a")
	assert.True(t, core.IsAuthorization(err))
}
