package models

import "time"

// User is a registered account. PasswordHash is an opaque encoded hash and
// never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	AboutMe      string    `json:"about_me"`
	AvatarKey    string    `json:"-"`
	LastSeen     time.Time `json:"last_seen"`
	CreatedAt    time.Time `json:"created_at"`
}
