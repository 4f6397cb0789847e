package directory

import (
	"time"

	"github.com/google/uuid"
)

// Roles a portal account can hold.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// User maps to the portal_user table. It is the read model the messaging
// subsystem consumes: profile fields attached to conversations and messages
// come from here.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	Role         string    `db:"role" json:"role"`
	Speciality   *string   `db:"speciality" json:"speciality,omitempty"`
	ProfileImage *string   `db:"profile_image" json:"profile_image,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Profile is the public subset of a user embedded in messaging responses.
type Profile struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	ProfileImage *string   `json:"profile_image,omitempty"`
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		FullName:     u.FullName,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
	}
}
