package access

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/praetor-auth/praetor/internal/rbac"
	"github.com/praetor-auth/praetor/internal/shared"
)

// Target is a navigation destination a denial redirects to.
type Target string

// Well-known redirect targets.
const (
	TargetNone         Target = ""
	TargetLogin        Target = "/auth/login"
	TargetVerifyEmail  Target = "/auth/verify-email"
	TargetUnauthorized Target = "/unauthorized"
	TargetDashboard    Target = "/"
	TargetAdminHome    Target = "/admin"
)

// Landing returns the default landing page for a role after sign-in.
func Landing(role string) Target {
	if rbac.Satisfies(role, rbac.RoleAdmin) {
		return TargetAdminHome
	}
	return TargetDashboard
}

// Requirement declares what a protected resource demands. At least one of
// AllowedRoles / RequiredPermissions must be set; a requirement with neither
// is a configuration error and is rejected at registration time, never at
// evaluation time.
type Requirement struct {
	AllowedRoles        []string `validate:"required_without=RequiredPermissions"`
	RequiredPermissions []string `validate:"required_without=AllowedRoles"`
	// RequireAll switches the permission check from any-of to all-of.
	RequireAll bool
	// RequireVerifiedEmail additionally gates on a verified email address.
	RequireVerifiedEmail bool
	// UnauthorizedRedirect overrides the default unauthorized target.
	UnauthorizedRedirect Target
}

var validate = validator.New()

// Validate rejects misconfigured requirements. Fail fast: call this when a
// route is registered.
func (r Requirement) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMisconfigured, err)
	}
	return nil
}
