package user

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/childclub/backend/core"
)

func TestUser_roles(t *testing.T) {
	student := User{ID: "s1", SchoolID: "sch", Roles: []string{RoleStudent}}
	teacher := User{ID: "t1", SchoolID: "sch", Roles: []string{RoleTeacher}}
	admin := User{ID: "a1", SchoolID: "sch", Roles: []string{RoleAdminSchool}}
	super := User{ID: "su", Roles: []string{RoleAdminSuper}}

	assert.True(t, student.IsStudent())
	assert.False(t, student.IsStaff())
	assert.True(t, teacher.IsStaff())
	assert.False(t, teacher.IsAdmin())
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsSchoolAdmin("sch"))
	assert.False(t, admin.IsSchoolAdmin("other"))
	assert.False(t, admin.IsSuperAdmin())
	assert.True(t, super.IsSuperAdmin())
	assert.True(t, super.InSchool("anything"))
	assert.False(t, User{ID: "x"}.InSchool(""))
}

func TestUser_Validate(t *testing.T) {
	v := core.NewValidator()
	RegisterValidators(v)

	tests := []struct {
		name       string
		usr        User
		wantFields []string
	}{
		{name: "valid student", usr: User{ID: "s1", SchoolID: "sch", Email: "KID@test.cd", Roles: []string{RoleStudent}}},
		{name: "super admin needs no school", usr: User{ID: "su", Roles: []string{RoleAdminSuper}}},
		{name: "missing everything", usr: User{}, wantFields: []string{"id", "school_id", "roles"}},
		{name: "unknown role", usr: User{ID: "x", SchoolID: "sch", Roles: []string{"janitor:"}}, wantFields: []string{"roles"}},
		{name: "bad email", usr: User{ID: "x", SchoolID: "sch", Email: "lol", Roles: []string{RoleTeacher}}, wantFields: []string{"email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr := tt.usr
			err := usr.Validate(v)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			got := make([]string, 0, len(vErr.Fields))
			for _, f := range vErr.Fields {
				got = append(got, f.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, got)
		})
	}
}
