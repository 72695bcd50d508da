package domain

import "time"

// Token is an opaque bearer credential stored server side.
type Token struct {
	Key       string    `json:"key"`
	UserId    UserId    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidAt reports whether the token is still usable at now. The boundary instant is valid.
func (t *Token) ValidAt(now time.Time) bool {
	return !now.After(t.ExpiresAt)
}

// TokenWithUser is what a key lookup returns: the token and its eager-loaded owner.
type TokenWithUser struct {
	Token
	User User
}
