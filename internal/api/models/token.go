package models

import "time"

// Token is a revocable handle backing an issued bearer credential.
type Token struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	IssuedAt  time.Time `db:"issued_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Expired reports whether the token is no longer usable at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
