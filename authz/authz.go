// Package authz describes who may call a route and what the caller may
// touch once inside it.
//
// Routes declare one or more Access values; the access middleware
// evaluates all of them after authentication and leaves a Scope in the
// request context. Services use the Scope to filter by owner or to check
// ownership of a loaded record.
package authz

import (
	"slices"
	"strings"

	"github.com/appcontrol-api/models"
)

// Principal is the authenticated caller as re-read from the store
type Principal struct {
	UserID string
	Role   models.Role
}

// Kind tags the Access variant
type Kind int

const (
	KindPublic Kind = iota
	KindAuthenticated
	KindRoleIn
	KindOwnerOrRole
)

// Access is a declarative requirement attached to a route
type Access struct {
	kind  Kind
	roles []models.Role
}

// Public lets anyone through, authenticated or not
func Public() Access {
	return Access{kind: KindPublic}
}

// AnyAuthenticated requires a valid token for an active user
func AnyAuthenticated() Access {
	return Access{kind: KindAuthenticated}
}

// RoleIn requires the caller to hold one of roles
func RoleIn(roles ...models.Role) Access {
	return Access{kind: KindRoleIn, roles: roles}
}

// OwnerOrRole requires an authenticated caller and lets holders of roles
// act on records they do not own. With no roles only the owner may act.
func OwnerOrRole(roles ...models.Role) Access {
	return Access{kind: KindOwnerOrRole, roles: roles}
}

// Kind returns the variant tag
func (a Access) Kind() Kind {
	return a.kind
}

// RequiresAuthentication reports whether a principal is needed at all
func (a Access) RequiresAuthentication() bool {
	return a.kind != KindPublic
}

// Allows evaluates the route-level part of the requirement. Ownership is
// decided later against the loaded record through Scope.
func (a Access) Allows(p *Principal) bool {
	switch a.kind {
	case KindPublic:
		return true
	case KindAuthenticated, KindOwnerOrRole:
		return p != nil
	case KindRoleIn:
		return p != nil && slices.Contains(a.roles, p.Role)
	}
	return false
}

func (a Access) String() string {
	names := make([]string, len(a.roles))
	for i, role := range a.roles {
		names[i] = string(role)
	}
	switch a.kind {
	case KindPublic:
		return "Public"
	case KindAuthenticated:
		return "AnyAuthenticated"
	case KindRoleIn:
		return "RoleIn(" + strings.Join(names, ",") + ")"
	case KindOwnerOrRole:
		return "OwnerOrRole(" + strings.Join(names, ",") + ")"
	}
	return "Unknown"
}

// Scope is what a request may touch after its route requirements passed
type Scope struct {
	Principal Principal
	bypass    []models.Role
}

// NewScope builds the scope for p from the route's requirements
func NewScope(p Principal, accesses ...Access) Scope {
	scope := Scope{Principal: p}
	for _, access := range accesses {
		if access.kind == KindOwnerOrRole {
			scope.bypass = append(scope.bypass, access.roles...)
		}
	}
	return scope
}

// OwnerScope is the scope of a caller who may only act on their own records
func OwnerScope(userID string, role models.Role) Scope {
	return Scope{Principal: Principal{UserID: userID, Role: role}}
}

// Elevated reports whether the caller may act on records of other owners
func (s Scope) Elevated() bool {
	return slices.Contains(s.bypass, s.Principal.Role)
}

// Permits reports whether the caller may act on a record owned by ownerID
func (s Scope) Permits(ownerID string) bool {
	return ownerID != "" && (ownerID == s.Principal.UserID || s.Elevated())
}

// OwnerFilter is the owner id queries must be restricted to, or "" when
// the caller is elevated
func (s Scope) OwnerFilter() string {
	if s.Elevated() {
		return ""
	}
	return s.Principal.UserID
}
