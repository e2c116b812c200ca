// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// Session is a server-side login record. The client holds a signed token
// that names the session ID.
type Session struct {
	ID        string     // Random UUID, carried in the signed cookie
	UserID    uint       // Signed-in user
	UserAgent string     // Client's User-Agent header at login
	IPAddress string     // Client's IP address at login
	CreatedAt time.Time  // Login time
	ExpiresAt time.Time  // Absolute expiry
	RevokedAt *time.Time // Logout time (nil while active)
}

// IsExpired reports whether now is past ExpiresAt.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsRevoked reports whether the session was logged out.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}
