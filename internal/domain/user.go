package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// SignupBonusCredits is granted to every new account.
const SignupBonusCredits = 100

// User represents an account with a credit balance.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Avatar       string
	Role         UserRole
	Credits      int
	Country      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user may access admin endpoints.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
