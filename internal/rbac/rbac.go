package rbac

// Role constants
const (
	RoleOperator = "operator"
	RoleEditor   = "editor"
	RoleViewer   = "viewer"
)

// Permission constants
const (
	PermRead     = "read"
	PermEdit     = "edit"
	PermGenerate = "generate" // anything that spends provider budget
	PermDelete   = "delete"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleOperator: {PermRead, PermEdit, PermGenerate, PermDelete},
	RoleEditor:   {PermRead, PermEdit, PermGenerate},
	RoleViewer:   {PermRead},
}

func IsValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}
