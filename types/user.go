package types

import "time"

// Role is the authorization level of an admin account.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User represents an admin account.
// Accounts are created out-of-band (create-admin command) and never through the API.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Email is unique and stored lowercased.
	Email string `json:"email" db:"email"`

	// Name is the display name shown as content author.
	Name string `json:"name" db:"name"`

	// Role indicates the user's authorization level.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// AdminUser is the public projection of a User carried in session tokens.
type AdminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Public strips the password hash and audit fields.
func (u User) Public() AdminUser {
	return AdminUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// Author is the subset of a User embedded in content responses.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
