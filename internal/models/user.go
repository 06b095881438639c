package models

import "time"

// UserRole represents the coarse account roles carried in access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
)

// IsStaff reports whether the role belongs to faculty or administration.
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleTeacher:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role has institution-wide visibility.
func (r UserRole) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// UserAccount is the login identity behind a student or faculty profile.
type UserAccount struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
