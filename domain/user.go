package domain

import "time"

// User represents an authenticated account. PasswordHash is empty for
// accounts provisioned through OAuth that never set a password.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Image        string    `json:"image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether credentials sign-in is possible for the account.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}
