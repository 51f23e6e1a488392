package entity

import (
	"time"
)

// Role values stored in users.role
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in Password field
type User struct {
	ID          string
	Email       string
	Username    string
	FirstName   string
	LastName    string
	Password    string
	Role        string
	IsSuperuser bool
	IsStaff     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAdmin reports admin-equivalent access: admin role, superuser or staff.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleAdmin || u.IsSuperuser || u.IsStaff
}

// IsElevated reports whether u may modify objects authored by someone else.
func (u *User) IsElevated() bool {
	if u == nil {
		return false
	}
	return u.IsAdmin() || u.Role == RoleModerator
}

// CanModify is the author-or-elevated rule for unsafe methods on owned objects.
func (u *User) CanModify(authorID string) bool {
	if u == nil {
		return false
	}
	return u.ID == authorID || u.IsElevated()
}
