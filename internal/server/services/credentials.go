package services

import (
	"fmt"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/cryptox"
	"github.com/dmitrijs2005/microblog/internal/server/models"
)

// Credentials sets and checks user passwords through an opaque hasher.
type Credentials struct {
	hasher cryptox.PasswordHasher
	// dummy is verified when there is no real hash, so a miss costs the
	// same time as a wrong password.
	dummy string
}

func NewCredentials(hasher cryptox.PasswordHasher) (*Credentials, error) {
	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("error preparing dummy hash: %w", err)
	}
	dummy, err := hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("error preparing dummy hash: %w", err)
	}
	return &Credentials{hasher: hasher, dummy: dummy}, nil
}

// SetPassword replaces user.PasswordHash. Nothing is persisted here.
func (c *Credentials) SetPassword(user *models.User, plaintext string) error {
	hash, err := c.hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

// CheckPassword reports whether plaintext matches user's stored hash. A nil
// user or an empty hash never matches.
func (c *Credentials) CheckPassword(user *models.User, plaintext string) bool {
	if user == nil || user.PasswordHash == "" {
		c.hasher.Verify(c.dummy, plaintext)
		return false
	}
	return c.hasher.Verify(user.PasswordHash, plaintext)
}
