package roles

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/praetor-auth/praetor/internal/rbac"
)

// Service exposes the role catalog. The hierarchy itself is a fixed table;
// this only shapes it for presentation.
type Service struct {
	titler cases.Caser
}

// NewService builds a Service instance.
func NewService() *Service {
	return &Service{titler: cases.Title(language.English)}
}

// List returns all known roles ordered by descending level.
func (s *Service) List() []Role {
	names := rbac.KnownRoles()
	out := make([]Role, 0, len(names))
	for _, name := range names {
		out = append(out, Role{
			Name:               name,
			DisplayName:        s.DisplayName(name),
			Level:              rbac.LevelOf(name),
			DefaultPermissions: rbac.DefaultPermissionsFor(name),
		})
	}
	return out
}

// DisplayName renders a human-readable role name ("super_admin" becomes
// "Super Admin").
func (s *Service) DisplayName(name string) string {
	return s.titler.String(strings.ReplaceAll(name, "_", " "))
}
