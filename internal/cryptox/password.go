// Package cryptox implements password hashing for stored credentials.
// Hashes are self-describing strings in the PHC format used by argon2
// reference tools, so parameters can change without invalidating old hashes:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/microblog/internal/common"
	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

// PasswordHasher is the opaque hash/verify capability consumed by the
// credential code.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) bool
}

// Argon2Params tunes argon2id. Memory is in KiB.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultArgon2Params matches the key derivation settings used elsewhere in
// the project (1 pass, 64 MiB, 4 lanes, 32-byte key).
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

type Argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher(p Argon2Params) *Argon2Hasher {
	return &Argon2Hasher{params: p}
}

// Hash derives a key from plaintext with a fresh random salt.
func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	if h.params.SaltLen <= 0 || h.params.KeyLen == 0 {
		return "", fmt.Errorf("invalid argon2 params: %+v", h.params)
	}
	salt := common.GenerateRandByteArray(h.params.SaltLen)
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the salt and parameters stored in encoded
// and compares in constant time. A malformed hash never verifies.
func (h *Argon2Hasher) Verify(encoded, plaintext string) bool {
	p, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

func decodeHash(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedHash
	}
	p.SaltLen = len(salt)
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}
