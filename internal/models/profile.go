package models

import "time"

// UserRole distinguishes students from tutors.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTutor   UserRole = "tutor"
)

// Profile is the public record of an authenticated user.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	Grade     *int      `db:"grade" json:"grade"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsTutor reports whether the profile may create and manage classes.
func (p Profile) IsTutor() bool { return p.Role == RoleTutor }

// IsStudent reports whether the profile may subscribe to classes.
func (p Profile) IsStudent() bool { return p.Role == RoleStudent }
