package models

import "time"

// UserRole mirrors the role ENUM in the database.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	FFID         string    `json:"ffid" db:"ffid"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Role         UserRole  `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Balance      int       `json:"balance" db:"balance"`
	Kills        int       `json:"kills" db:"kills"`
	Wins         int       `json:"wins" db:"wins"`
	Matches      int       `json:"matches" db:"matches"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	EmailConfirmed         bool       `json:"email_confirmed" db:"email_confirmed"`
	EmailConfirmationToken *string    `json:"-" db:"email_confirmation_token"`
	PasswordResetToken     *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpiresAt *time.Time `json:"-" db:"password_reset_expires_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
