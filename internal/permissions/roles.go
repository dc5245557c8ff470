package permissions

import "slices"

// Role is one of the fixed platform roles. The role set is known at build
// time; there is no user-defined role management.
type Role string

const (
	// RoleOwner is the top-privilege role. It is the only role granted
	// access to modules absent from the matrix.
	RoleOwner Role = "owner"
	// RoleAdmin is the second fully-privileged role.
	RoleAdmin Role = "admin"
	// RoleExecutive is a read-heavy leadership role. Despite the name it
	// receives no implicit grants; see the fallback note in HasPermission.
	RoleExecutive Role = "executive"
	// RoleSales covers the commercial pipeline.
	RoleSales Role = "sales"
	// RoleSupport covers customer service.
	RoleSupport Role = "support"
	// RoleFinance covers billing and invoicing.
	RoleFinance Role = "finance"
	// RoleClient is the client-facing portal identity. It always sees the
	// portal module regardless of matrix contents.
	RoleClient Role = "client"
)

// DefaultMemberRole is assigned to users who join an existing organization.
// They start inactive and without privileged access.
const DefaultMemberRole = RoleSales

var allRoles = []Role{
	RoleOwner,
	RoleAdmin,
	RoleExecutive,
	RoleSales,
	RoleSupport,
	RoleFinance,
	RoleClient,
}

// privilegedRoles receive full access to every module when the default
// matrix is built.
var privilegedRoles = []Role{RoleOwner, RoleAdmin}

// AllRoles returns the fixed role set.
func AllRoles() []Role {
	return slices.Clone(allRoles)
}

// IsValidRole checks if a role belongs to the fixed set.
func IsValidRole(role Role) bool {
	return slices.Contains(allRoles, role)
}

// IsPrivilegedRole reports whether the role carries blanket administrative
// access.
func IsPrivilegedRole(role Role) bool {
	return slices.Contains(privilegedRoles, role)
}
