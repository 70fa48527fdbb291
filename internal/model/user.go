package model

import "time"

// User represents a row in the `users` table together with the roles
// loaded through the `user_roles` join table.  Profile fields are not
// security relevant; the four status booleans plus the soft-delete pair
// decide whether the account may authenticate at all.
//
// Fields:
//  ID                    – primary key identifier of the user.
//  Username              – unique login name; immutable lookup key.
//  Email                 – unique email address; alternate lookup key.
//  PasswordHash          – bcrypt hashed password.
//  Firstname, Lastname   – display name parts.
//  Address               – free-form postal address.
//  BirthDate             – date of birth (nullable).
//  Enabled               – account may log in when true.
//  AccountNonExpired     – account as a whole has not expired.
//  AccountNonLocked      – account is not locked out.
//  CredentialsNonExpired – password has not expired.
//  Deleted / DeletedAt   – soft-delete flag and timestamp.
//  Roles                 – roles granted to this user, with permissions loaded.
type User struct {
	ID                    uint64     // users.id
	Username              string     // users.username
	Email                 string     // users.email
	PasswordHash          string     // users.password_hash
	Firstname             string     // users.firstname
	Lastname              string     // users.lastname
	Address               string     // users.address
	BirthDate             *time.Time // users.birth_date (nullable)
	Enabled               bool       // users.enabled
	AccountNonExpired     bool       // users.account_non_expired
	AccountNonLocked      bool       // users.account_non_locked
	CredentialsNonExpired bool       // users.credentials_non_expired
	Deleted               bool       // users.deleted
	DeletedAt             *time.Time // users.deleted_at (nullable)
	CreatedAt             time.Time  // users.created_at
	UpdatedAt             time.Time  // users.updated_at
	Roles                 []Role     // loaded via user_roles
}

// HasRole reports whether the user currently holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the names of the user's roles in load order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Role represents a row in the `roles` table plus its permissions loaded
// through `role_permissions`.  The set of role names is closed; rows are
// seeded at startup and only the user/role assignment changes afterwards.
type Role struct {
	ID          uint64       // roles.id
	Name        string       // roles.name (one of the Role* constants)
	Permissions []Permission // loaded via role_permissions
}

// Permission represents a row in the `permissions` table.  A permission is
// a single fine-grained capability such as "can add a book".
type Permission struct {
	ID   uint64 // permissions.id
	Name string // permissions.name (one of the Permission* constants)
}

// Role names form a fixed, closed set.  Anything else in the roles table is
// a bug in the seed data.
const (
	RoleUser       = "USER"
	RoleAdmin      = "ADMIN"
	RoleDeveloper  = "DEVELOPER"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// Permission names, likewise fixed.
const (
	PermReadBook    = "READ_BOOK"
	PermAddBook     = "ADD_BOOK"
	PermEditBook    = "EDIT_BOOK"
	PermDeleteBook  = "DELETE_BOOK"
	PermManageUsers = "MANAGE_USERS"
)

// RoleCatalog is the versioned table of (role, permission-set) pairs the
// seeder loads idempotently at process init.  Order matters only for
// readability of the seed output.
var RoleCatalog = []struct {
	Role        string
	Permissions []string
}{
	{RoleUser, []string{PermReadBook, PermAddBook, PermEditBook, PermDeleteBook}},
	{RoleDeveloper, []string{PermReadBook, PermAddBook, PermEditBook, PermDeleteBook}},
	{RoleAdmin, []string{PermReadBook, PermAddBook, PermEditBook, PermDeleteBook, PermManageUsers}},
	{RoleSuperAdmin, []string{PermReadBook, PermAddBook, PermEditBook, PermDeleteBook, PermManageUsers}},
}

// AllPermissions returns the closed permission set in catalog order.
func AllPermissions() []string {
	return []string{PermReadBook, PermAddBook, PermEditBook, PermDeleteBook, PermManageUsers}
}

// ValidRoleName reports whether name belongs to the closed role set.
func ValidRoleName(name string) bool {
	switch name {
	case RoleUser, RoleAdmin, RoleDeveloper, RoleSuperAdmin:
		return true
	}
	return false
}
