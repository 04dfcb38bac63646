package keyvault

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
)

// LocalProvider keeps an RSA key in memory. Used for development when no key
// vault is configured, and in tests.
type LocalProvider struct {
	key *rsa.PrivateKey
}

// NewLocalProvider generates a fresh key of the given size.
func NewLocalProvider(bits int) (*LocalProvider, error) {
	k, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &LocalProvider{key: k}, nil
}

func NewLocalProviderFromKey(k *rsa.PrivateKey) *LocalProvider {
	return &LocalProvider{key: k}
}

func (p *LocalProvider) PublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	return &p.key.PublicKey, nil
}

func (p *LocalProvider) Sign(ctx context.Context, alg string, signingInput []byte) ([]byte, error) {
	if alg != AlgRS256 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlg, alg)
	}
	sum := sha256.Sum256(signingInput)
	return rsa.SignPKCS1v15(rand.Reader, p.key, crypto.SHA256, sum[:])
}
