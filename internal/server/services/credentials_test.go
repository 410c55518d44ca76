package services

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/microblog/internal/cryptox"
	"github.com/dmitrijs2005/microblog/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHasher struct {
	cryptox.PasswordHasher
	verifies int
	hashErr  error
}

func (h *countingHasher) Hash(p string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return h.PasswordHasher.Hash(p)
}

func (h *countingHasher) Verify(encoded, p string) bool {
	h.verifies++
	return h.PasswordHasher.Verify(encoded, p)
}

func TestCredentials_SetAndCheck(t *testing.T) {
	creds, err := NewCredentials(cryptox.NewArgon2Hasher(testHasherParams))
	require.NoError(t, err)

	u := &models.User{Username: "alice"}
	require.NoError(t, creds.SetPassword(u, "correct horse"))
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.NotEmpty(t, u.PasswordHash)

	assert.True(t, creds.CheckPassword(u, "correct horse"))
	assert.False(t, creds.CheckPassword(u, "Correct horse"))
	assert.False(t, creds.CheckPassword(u, ""))

	first := u.PasswordHash
	require.NoError(t, creds.SetPassword(u, "correct horse"))
	assert.NotEqual(t, first, u.PasswordHash, "fresh salt per hash")
}

func TestCredentials_MissingHashStillVerifies(t *testing.T) {
	h := &countingHasher{PasswordHasher: cryptox.NewArgon2Hasher(testHasherParams)}
	creds, err := NewCredentials(h)
	require.NoError(t, err)

	assert.False(t, creds.CheckPassword(nil, "anything"))
	assert.False(t, creds.CheckPassword(&models.User{}, "anything"))
	assert.Equal(t, 2, h.verifies)
}

func TestCredentials_HashError(t *testing.T) {
	h := &countingHasher{PasswordHasher: cryptox.NewArgon2Hasher(testHasherParams), hashErr: errors.New("no entropy")}
	_, err := NewCredentials(h)
	assert.ErrorContains(t, err, "no entropy")

	creds := &Credentials{hasher: h}
	err = creds.SetPassword(&models.User{}, "pw")
	assert.ErrorContains(t, err, "error hashing password")
}
