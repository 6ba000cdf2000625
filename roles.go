package inventory

// UserRole is the user's role
type UserRole string

const (
	// RoleUser can view and move stock in assigned warehouses
	RoleUser UserRole = "user"
	// RoleAdmin can also delete products and manage categories
	RoleAdmin UserRole = "admin"
	// RoleSuperAdmin sees every warehouse and manages accounts
	RoleSuperAdmin UserRole = "super_admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// CanRead checks if this role can read warehouse records
func (r UserRole) CanRead() bool {
	return r.IsValid()
}

// CanEdit checks if this role can save products and move stock
func (r UserRole) CanEdit() bool {
	return r.IsValid()
}

// CanDelete checks if this role can delete products and categories
func (r UserRole) CanDelete() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// CanManageAccounts checks if this role can approve users, assign
// warehouses and create warehouses
func (r UserRole) CanManageAccounts() bool {
	return r == RoleSuperAdmin
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleUser:       0,
		RoleAdmin:      1,
		RoleSuperAdmin: 2,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
