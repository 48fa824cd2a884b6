package user

import (
	"strings"

	"github.com/childclub/backend/core"
)

// Roles
const (
	// Admin
	RoleAdmin       = "admin:"
	RoleAdminSchool = "admin:school"
	RoleAdminSuper  = "admin:super"

	// Teacher
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminSchool, RoleAdminSuper}
	TeacherRoles = []string{RoleTeacher}
	StudentRoles = []string{RoleStudent}
	AllRoles     = getAllRoles()
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, TeacherRoles...)
	all = append(all, StudentRoles...)
	return all
}

// User is the authenticated caller, as vouched for by the identity provider.
// It is passed explicitly into every operation; credentials never reach the core.
type User struct {
	ID       string   `json:"id" validate:"required,notblank"`
	SchoolID string   `json:"school_id"`
	Name     string   `json:"name"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Roles    []string `json:"roles" validate:"required,min=1,allroles"`
}

func (u User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u User) HasRole(role string) bool {
	return core.ContainsString(u.Roles, role)
}

func (u User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u User) IsSuperAdmin() bool {
	return u.HasRole(RoleAdminSuper)
}

func (u User) IsTeacher() bool {
	return u.RoleStartsWith(RoleTeacher)
}

func (u User) IsStudent() bool {
	return u.RoleStartsWith(RoleStudent)
}

// IsStaff reports whether u may manage school work (teachers and admins).
func (u User) IsStaff() bool {
	return u.IsTeacher() || u.IsAdmin()
}

// InSchool reports whether u may act within schoolID.
func (u User) InSchool(schoolID string) bool {
	return u.IsSuperAdmin() || (u.SchoolID != "" && u.SchoolID == schoolID)
}

// IsSchoolAdmin reports whether u administers schoolID.
func (u User) IsSchoolAdmin(schoolID string) bool {
	return u.IsAdmin() && u.InSchool(schoolID)
}

// Validate checks an identity before it is trusted (session claims, admin tokens).
func (u *User) Validate(v *core.Validator) error {
	u.ID = core.CleanString(u.ID)
	u.SchoolID = core.CleanString(u.SchoolID)
	u.Name = core.CleanString(u.Name)
	u.Email = core.CleanString(u.Email, true /* lower */)
	return v.Struct(u)
}
