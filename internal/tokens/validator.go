package tokens

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/socialhub/socialhub/backend/go-services/internal/keyvault"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
	"github.com/socialhub/socialhub/backend/go-services/pkg/metrics"
)

// ErrInvalidToken is wrapped by every rejection of a well-formed request:
// bad signature, wrong issuer or audience, expired, revoked, malformed.
var ErrInvalidToken = errors.New("invalid token")

// DefaultClockSkew is the tolerance applied to exp and nbf.
const DefaultClockSkew = 5 * time.Minute

// KeySource yields the current verification key.
type KeySource interface {
	Key() (*rsa.PublicKey, error)
}

// Revoker reports whether a token id was revoked before its expiry.
type Revoker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type ValidatorConfig struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// Validator checks signature and claims of access tokens. It is used both by
// the request pipeline and by explicit validation, so both decide the same way.
type Validator struct {
	keys    KeySource
	cfg     ValidatorConfig
	now     func() time.Time
	revoker Revoker
}

func NewValidator(keys KeySource, cfg ValidatorConfig) *Validator {
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = DefaultClockSkew
	}
	return &Validator{keys: keys, cfg: cfg, now: time.Now}
}

func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

func (v *Validator) WithRevoker(r Revoker) *Validator {
	v.revoker = r
	return v
}

// Validate returns the verified claims of raw. Expected rejections wrap
// ErrInvalidToken; anything else is an internal fault.
func (v *Validator) Validate(ctx context.Context, raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, v.reject("empty token")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithLeeway(v.cfg.ClockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.keys.Key()
	})
	if err != nil {
		if errors.Is(err, keyvault.ErrKeyNotLoaded) {
			metrics.TokenValidations.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("validate token: %w", err)
		}
		return nil, v.reject(err.Error())
	}

	if v.revoker != nil && claims.ID != "" {
		revoked, err := v.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			metrics.TokenValidations.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("check revocation of %s: %w", claims.ID, err)
		}
		if revoked {
			return nil, v.reject("token revoked")
		}
	}

	metrics.TokenValidations.WithLabelValues("valid").Inc()
	return claims, nil
}

func (v *Validator) reject(reason string) error {
	logger.Debugf("token rejected: %s", reason)
	metrics.TokenValidations.WithLabelValues("invalid").Inc()
	return fmt.Errorf("%w: %s", ErrInvalidToken, reason)
}
