// Package permissions maps roles to permission sets and checks them.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "stock.*")
//   - "resource.action" - Specific action (e.g., "sales.create")
package permissions

import "strings"

// Roles
const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
	RoleCashier    = "cashier"
)

// Permissions checked by the HTTP layer
const (
	ProductsRead   = "products.read"
	ProductsWrite  = "products.write"
	ProductsDelete = "products.delete"
	StockRead      = "stock.read"
	StockReceive   = "stock.receive"
	SalesCreate    = "sales.create"
	SalesRead      = "sales.read"
	StoresRead     = "stores.read"
	StoresWrite    = "stores.write"
	DashboardRead  = "dashboard.read"
)

var rolePermissions = map[string][]string{
	RoleAdmin:      {"*"},
	RolePharmacist: {"products.*", "stock.*", "sales.*", StoresRead, DashboardRead},
	RoleCashier:    {ProductsRead, StockRead, SalesCreate, SalesRead, DashboardRead},
}

// ForRole returns the permission set granted to a role, nil for unknown roles.
func ForRole(role string) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "stock.*" matches "stock.read", "stock.receive", etc.
//   - Exact match for specific permissions
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true
	}

	for _, p := range userPerms {
		if p == "*" || p == required {
			return true
		}
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission checks if the user has any of the required permissions.
func HasAnyPermission(userPerms []string, required []string) bool {
	for _, req := range required {
		if HasPermission(userPerms, req) {
			return true
		}
	}
	return false
}
