package identity

import (
	"time"

	"github.com/praetor-auth/praetor/internal/rbac"
)

// Identity is the authenticated user record the session carries. It is a
// server-authoritative snapshot: mutations always go through the With*
// helpers so that earlier snapshots held by observers stay intact.
type Identity struct {
	UID           string
	Email         string
	DisplayName   string
	Role          string
	Permissions   []string
	IsActive      bool
	IsBlocked     bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// New constructs an identity with the default permission set for its role.
func New(uid, email, displayName, role string) *Identity {
	if role == "" {
		role = rbac.RoleUser
	}
	now := time.Now().UTC()
	return &Identity{
		UID:         uid,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		Permissions: rbac.DefaultPermissionsFor(role),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	out.Permissions = make([]string, len(i.Permissions))
	copy(out.Permissions, i.Permissions)
	return &out
}

// WithRole returns a copy carrying the new role. Permissions are reset to
// the role defaults; explicit grants must be reapplied by the caller.
func (i *Identity) WithRole(role string) *Identity {
	out := i.Clone()
	out.Role = role
	out.Permissions = rbac.DefaultPermissionsFor(role)
	out.UpdatedAt = time.Now().UTC()
	return out
}

// WithPermissions returns a copy with the permission set replaced.
func (i *Identity) WithPermissions(perms []string) *Identity {
	out := i.Clone()
	out.Permissions = rbac.Normalize(perms)
	out.UpdatedAt = time.Now().UTC()
	return out
}

// Grant returns a copy with the permission added.
func (i *Identity) Grant(perm string) *Identity {
	if i.HasPermission(perm) {
		return i.Clone()
	}
	out := i.Clone()
	out.Permissions = rbac.Normalize(append(out.Permissions, perm))
	out.UpdatedAt = time.Now().UTC()
	return out
}

// Revoke returns a copy with the permission removed.
func (i *Identity) Revoke(perm string) *Identity {
	out := i.Clone()
	kept := out.Permissions[:0]
	for _, p := range out.Permissions {
		if !rbac.HasPermission([]string{p}, perm) {
			kept = append(kept, p)
		}
	}
	out.Permissions = kept
	out.UpdatedAt = time.Now().UTC()
	return out
}

// Blocked returns a copy marked blocked. Blocking always implies inactive;
// the pairing is enforced here so callers cannot produce a blocked-but-active
// record.
func (i *Identity) Blocked() *Identity {
	out := i.Clone()
	out.IsBlocked = true
	out.IsActive = false
	out.UpdatedAt = time.Now().UTC()
	return out
}

// Unblocked returns a copy with the block lifted and the account reactivated.
func (i *Identity) Unblocked() *Identity {
	out := i.Clone()
	out.IsBlocked = false
	out.IsActive = true
	out.UpdatedAt = time.Now().UTC()
	return out
}

// Deactivated returns a copy marked inactive.
func (i *Identity) Deactivated() *Identity {
	out := i.Clone()
	out.IsActive = false
	out.UpdatedAt = time.Now().UTC()
	return out
}

// Activated returns a copy marked active. A blocked account stays blocked.
func (i *Identity) Activated() *Identity {
	out := i.Clone()
	if !out.IsBlocked {
		out.IsActive = true
	}
	out.UpdatedAt = time.Now().UTC()
	return out
}

// WithVerifiedEmail returns a copy with the email marked verified.
func (i *Identity) WithVerifiedEmail() *Identity {
	out := i.Clone()
	out.EmailVerified = true
	out.UpdatedAt = time.Now().UTC()
	return out
}

// Usable reports whether the account may hold an authenticated session.
func (i *Identity) Usable() bool {
	return i != nil && i.IsActive && !i.IsBlocked
}

// HasRole reports whether the identity's role satisfies the required role
// through the hierarchy.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return rbac.Satisfies(i.Role, role)
}

// HasAnyRole reports whether the identity satisfies at least one role.
func (i *Identity) HasAnyRole(roles ...string) bool {
	if i == nil {
		return false
	}
	return rbac.SatisfiesAny(i.Role, roles)
}

// HasPermission reports exact permission membership.
func (i *Identity) HasPermission(perm string) bool {
	if i == nil {
		return false
	}
	return rbac.HasPermission(i.Permissions, perm)
}

// HasAnyPermission reports whether any of the given permissions is granted.
func (i *Identity) HasAnyPermission(perms ...string) bool {
	if i == nil {
		return false
	}
	return rbac.HasAnyPermission(i.Permissions, perms)
}

// HasAllPermissions reports whether every given permission is granted.
func (i *Identity) HasAllPermissions(perms ...string) bool {
	if i == nil {
		return false
	}
	return rbac.HasAllPermissions(i.Permissions, perms)
}

// Same reports whether two snapshots describe the same principal with the
// same core fields (uid, role, email, display name). Permission or profile
// churn alone does not count as a change, so observers are not renotified
// for metadata noise.
func (i *Identity) Same(other *Identity) bool {
	if i == nil || other == nil {
		return i == other
	}
	return i.UID == other.UID &&
		i.Role == other.Role &&
		i.Email == other.Email &&
		i.DisplayName == other.DisplayName
}
