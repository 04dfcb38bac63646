// Package credentials hashes and verifies passwords. Hashes are bound to the
// identity id, so a hash copied onto another identity record never verifies.
package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Result is the outcome of Verify.
type Result int

const (
	Mismatch Result = iota
	Match
	// MatchRehashNeeded means the password is right but the stored hash uses a
	// legacy scheme and should be replaced.
	MatchRehashNeeded
)

var ErrMalformedHash = errors.New("malformed password hash")

// Params are the argon2id cost parameters.
type Params struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

var DefaultParams = Params{Memory: 64 * 1024, Time: 1, Threads: 4, SaltLen: 16, KeyLen: 32}

// Hasher produces argon2id hashes and verifies both argon2id and bcrypt hashes.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	if p.SaltLen == 0 {
		p = DefaultParams
	}
	return &Hasher{params: p}
}

// Hash derives a storable hash for password, bound to identityID.
func (h *Hasher) Hash(identityID, password string) (string, error) {
	if identityID == "" {
		return "", errors.New("identity id required")
	}
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey(bind(identityID, password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify checks password against hash for identityID. Malformed hashes are a mismatch.
func (h *Hasher) Verify(identityID, hash, password string) Result {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		ok, err := h.verifyArgon(identityID, hash, password)
		if err != nil || !ok {
			return Mismatch
		}
		return Match
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
			return Mismatch
		}
		return MatchRehashNeeded
	default:
		return Mismatch
	}
}

func (h *Hasher) verifyArgon(identityID, hash, password string) (bool, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false, ErrMalformedHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrMalformedHash
	}
	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return false, ErrMalformedHash
	}
	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := b64.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false, ErrMalformedHash
	}
	got := argon2.IDKey(bind(identityID, password), salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// bind mixes the identity id into the derivation input.
func bind(identityID, password string) []byte {
	b := make([]byte, 0, len(identityID)+1+len(password))
	b = append(b, identityID...)
	b = append(b, 0)
	b = append(b, password...)
	return b
}

const tempAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%"

// GenerateTemporaryPassword returns a random password for admin-created identities.
func GenerateTemporaryPassword() (string, error) {
	const n = 16
	out := make([]byte, n)
	max := big.NewInt(int64(len(tempAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempAlphabet[idx.Int64()]
	}
	return string(out), nil
}
