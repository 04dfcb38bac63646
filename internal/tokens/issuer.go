package tokens

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/socialhub/socialhub/backend/go-services/internal/keyvault"
	"github.com/socialhub/socialhub/backend/go-services/pkg/metrics"
)

var (
	ErrMissingSubject = errors.New("subject id is required")
	ErrMissingName    = errors.New("display name is required")
)

// DefaultLifetime applies when no lifetime is configured.
const DefaultLifetime = 60 * time.Minute

type IssuerConfig struct {
	Issuer   string
	Audience string
	Lifetime time.Duration
}

// IssuedToken is a freshly signed access token.
type IssuedToken struct {
	Token     string
	Claims    *Claims
	ExpiresIn time.Duration
}

// Issuer mints RS256 access tokens. The signature is produced by the key
// provider; nothing is stored.
type Issuer struct {
	signer keyvault.Provider
	cfg    IssuerConfig
	now    func() time.Time
}

func NewIssuer(signer keyvault.Provider, cfg IssuerConfig) *Issuer {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultLifetime
	}
	return &Issuer{signer: signer, cfg: cfg, now: time.Now}
}

// WithClock replaces the time source.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Lifetime() time.Duration { return i.cfg.Lifetime }

// Issue signs a token for subjectID carrying displayName and roles.
func (i *Issuer) Issue(ctx context.Context, subjectID, displayName string, roles []string) (IssuedToken, error) {
	if subjectID == "" {
		return IssuedToken{}, ErrMissingSubject
	}
	if displayName == "" {
		return IssuedToken{}, ErrMissingName
	}

	now := i.now()
	iat := jwt.NewNumericDate(now)
	claims := &Claims{
		Subject:   subjectID,
		ID:        uuid.NewString(),
		Name:      displayName,
		IssuedAt:  iat,
		NotBefore: iat,
		ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.Lifetime)),
		Issuer:    i.cfg.Issuer,
		Audience:  i.cfg.Audience,
		Roles:     append(Roles(nil), roles...),
	}

	signingInput, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SigningString()
	if err != nil {
		metrics.TokenIssueErrors.Inc()
		return IssuedToken{}, fmt.Errorf("encode token: %w", err)
	}
	sig, err := i.signer.Sign(ctx, keyvault.AlgRS256, []byte(signingInput))
	if err != nil {
		metrics.TokenIssueErrors.Inc()
		return IssuedToken{}, fmt.Errorf("sign token for %s: %w", subjectID, err)
	}

	metrics.TokensIssued.Inc()
	return IssuedToken{
		Token:     signingInput + "." + base64.RawURLEncoding.EncodeToString(sig),
		Claims:    claims,
		ExpiresIn: i.cfg.Lifetime,
	}, nil
}
