package types

import "time"

// Role identifies a user's authorization level. Stored as a small integer
// and carried numerically in SSO tokens for the external consumer to map.
type Role int

const (
	// RoleAdmin is the most privileged role.
	RoleAdmin Role = 0

	// RoleUser is the default role assigned on creation.
	RoleUser Role = 1

	// RoleCommittee marks members of the review committee.
	RoleCommittee Role = 2
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user, assigned on creation.
	ID int `json:"id" db:"id"`

	// Email is the user's unique email address, used as the login key.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Role indicates the user's authorization level within the system.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the salted bcrypt digest of the user's password.
	// This field is never exposed in API responses and never holds the
	// plaintext after creation.
	PasswordHash string `json:"-" db:"password_hash"`

	// ResetToken is an opaque value reserved for the password-reset flow.
	ResetToken string `json:"-" db:"reset_token"`

	// RefreshToken is an opaque value reserved for future token flows.
	RefreshToken string `json:"-" db:"refresh_token"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
