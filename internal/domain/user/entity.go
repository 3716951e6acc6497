package user

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsAdmin      bool
	EmployeeID   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasEmployee reports whether the account belongs to a staff member.
func (u *User) HasEmployee() bool {
	return u.EmployeeID != nil && *u.EmployeeID != ""
}
