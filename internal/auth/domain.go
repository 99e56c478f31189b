package auth

import "time"

// SessionRecord is a sign-in audit row kept in postgres. The live session
// itself is owned by the session manager; these rows exist for operators.
type SessionRecord struct {
	ID        string
	UserUID   string
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
