package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/childclub/backend/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	schoolRequiredTag  = "school_required"
	schoolRequiredText = "a school is required for this role"
)

// RegisterValidators registers the user validators on v.
func RegisterValidators(v *core.Validator) {
	_ = v.Validate.RegisterValidation(allRolesTag, allRolesValidation)
	v.RegisterCustomTranslation(allRolesTag, allRolesText)

	v.Validate.RegisterStructValidation(userStructValidation, User{})
	v.RegisterCustomTranslation(schoolRequiredTag, schoolRequiredText)
}

// Custom Validators

// allRolesValidation checks that provided user roles are all in AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	if roles, ok := fl.Field().Interface().([]string); ok {
		for _, role := range roles {
			if !core.ContainsString(AllRoles, role) {
				return false
			}
		}
		return true
	}
	return false
}

// userStructValidation requires a school for every caller but super-admins.
func userStructValidation(sl validator.StructLevel) {
	usr, ok := sl.Current().Interface().(User)
	if !ok {
		return
	}
	if usr.SchoolID == "" && !usr.IsSuperAdmin() {
		sl.ReportError(usr.SchoolID, "school_id", "SchoolID", schoolRequiredTag, "")
	}
}
