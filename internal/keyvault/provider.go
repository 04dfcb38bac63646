// Package keyvault gives access to the asymmetric signing key. The private
// part of a remote key never enters this process; only the public part is
// fetched and cached.
package keyvault

import (
	"context"
	"crypto/rsa"
	"errors"
)

// AlgRS256 is the only signing algorithm this service uses.
const AlgRS256 = "RS256"

var (
	ErrKeyNotFound = errors.New("signing key not found")
	// ErrUpstream marks failures of the key provider itself (network, 5xx,
	// exhausted retries). Handlers answer 503 for it.
	ErrUpstream       = errors.New("key provider unavailable")
	ErrUnsupportedAlg = errors.New("unsupported signing algorithm")
	ErrKeyNotLoaded   = errors.New("public key not loaded")
)

// Provider signs data with a named key and exposes its public part.
type Provider interface {
	PublicKey(ctx context.Context) (*rsa.PublicKey, error)
	// Sign returns the raw signature over signingInput. The provider hashes
	// the input itself as alg requires.
	Sign(ctx context.Context, alg string, signingInput []byte) ([]byte, error)
}
