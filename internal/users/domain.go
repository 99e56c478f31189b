package users

import "time"

// Account is the management view of a user record.
type Account struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	Role          string    `json:"role"`
	Permissions   []string  `json:"permissions"`
	IsActive      bool      `json:"is_active"`
	IsBlocked     bool      `json:"is_blocked"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
