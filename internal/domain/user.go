package domain

import "time"

// Role determines what a portal user may do.
type Role string

const (
	RoleDirector  Role = "director"
	RoleScientist Role = "scientist"
	RoleStaff     Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleDirector, RoleScientist, RoleStaff:
		return true
	default:
		return false
	}
}

// Action is an operation on tab data.
type Action string

const (
	ActionView   Action = "view"
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// User is a portal account.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	EmployeeID   string
	Department   string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// HasPermission reports whether the user may perform action on tab data.
// Directors may do anything, scientists anything but delete, staff may only
// view and add.
func (u *User) HasPermission(action Action) bool {
	if u == nil {
		return false
	}
	switch u.Role {
	case RoleDirector:
		return true
	case RoleScientist:
		return action != ActionDelete
	case RoleStaff:
		return action == ActionView || action == ActionAdd
	default:
		return false
	}
}

// CanManageTabs reports whether the user may create, rename or delete
// departments and tabs.
func (u *User) CanManageTabs() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleDirector || u.Role == RoleScientist
}
