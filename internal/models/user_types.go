package models

import "time"

// Role is the account type of a user.
type Role string

const (
	RoleClient    Role = "client"
	RoleTradesman Role = "tradesman"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleTradesman, RoleAdmin:
		return true
	}
	return false
}

// User defines the model for the 'users' table
type User struct {
	ID           int64     `json:"id" db:"id"`
	Role         Role      `json:"role" db:"role"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Mobile       *string   `json:"mobile,omitempty" db:"mobile"`
	ProfileImage *string   `json:"profileImage,omitempty" db:"profile_image"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicProfile is the subset of a user that other users may see.
type PublicProfile struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Role         Role    `json:"role"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// Public projects the user onto its public fields.
func (u User) Public() PublicProfile {
	return PublicProfile{
		ID:           u.ID,
		Name:         u.Name,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

// Is reports whether the actor has the given role.
func (a Actor) Is(role Role) bool {
	return a.Role == role
}
