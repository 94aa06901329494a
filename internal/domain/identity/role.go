package identity

// Role is a user's access role
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleManager        Role = "manager"
	RoleCashier        Role = "cashier"
	RoleInventoryClerk Role = "inventory_clerk"
	RoleAccountant     Role = "accountant"
)

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier, RoleInventoryClerk, RoleAccountant:
		return true
	}
	return false
}
