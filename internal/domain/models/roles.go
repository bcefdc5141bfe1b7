package models

// Roles. Every Edir officer is also a member of that Edir; the role records
// the office they hold.
const (
	RoleSuperAdmin       = "superadmin"
	RoleHead             = "head"
	RoleTreasurer        = "treasurer"
	RolePropertyManager  = "propertymanager"
	RoleEventCoordinator = "eventcoordinator"
	RoleMember           = "member"
)

// EdirRoles lists the roles a user can hold inside an Edir, in display order.
var EdirRoles = []string{
	RoleHead,
	RoleTreasurer,
	RolePropertyManager,
	RoleEventCoordinator,
	RoleMember,
}

// IsEdirRole reports whether role is one of EdirRoles.
func IsEdirRole(role string) bool {
	for _, r := range EdirRoles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleLabel returns the human-readable title for a role.
func RoleLabel(role string) string {
	switch role {
	case RoleSuperAdmin:
		return "Administrator"
	case RoleHead:
		return "Head of Edir"
	case RoleTreasurer:
		return "Treasurer"
	case RolePropertyManager:
		return "Property Manager"
	case RoleEventCoordinator:
		return "Event Coordinator"
	case RoleMember:
		return "Member"
	}
	return role
}
