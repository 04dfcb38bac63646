package keyvault

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
	"github.com/socialhub/socialhub/backend/go-services/pkg/metrics"
)

// HTTPConfig configures the remote key vault client.
type HTTPConfig struct {
	BaseURL     string
	KeyName     string
	AccessToken string
	Timeout     time.Duration
	MaxAttempts int
	// RetryInterval is the first backoff interval. Zero uses 200ms.
	RetryInterval time.Duration
	HTTPClient    *http.Client
}

// HTTPProvider talks to a key vault exposing
//
//	GET  {base}/keys/{name}       -> {"key": <JWK>}
//	POST {base}/keys/{name}/sign  {"alg","value"} -> {"value"}
//
// where sign values are base64url without padding and the request value is
// the SHA-256 digest of the signing input.
type HTTPProvider struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTPProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	if cfg.BaseURL == "" || cfg.KeyName == "" {
		return nil, errors.New("keyvault: base url and key name are required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("keyvault: bad base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	c := cfg.HTTPClient
	if c == nil {
		c = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPProvider{cfg: cfg, client: c}, nil
}

type keyResponse struct {
	Key json.RawMessage `json:"key"`
}

type signRequest struct {
	Alg   string `json:"alg"`
	Value string `json:"value"`
}

type signResponse struct {
	KeyID string `json:"kid,omitempty"`
	Value string `json:"value"`
}

func (p *HTTPProvider) PublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	var out keyResponse
	if err := p.do(ctx, "public_key", http.MethodGet, p.keyURL(""), nil, &out); err != nil {
		return nil, err
	}
	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(out.Key); err != nil {
		return nil, fmt.Errorf("keyvault: parse jwk: %w", err)
	}
	pub, ok := jwk.Key.(*rsa.PublicKey)
	if !ok {
		if priv, isPriv := jwk.Key.(*rsa.PrivateKey); isPriv {
			// never keep private material even if the vault returns it
			pub = &priv.PublicKey
		} else {
			return nil, fmt.Errorf("keyvault: key %q is not an RSA key", p.cfg.KeyName)
		}
	}
	return pub, nil
}

func (p *HTTPProvider) Sign(ctx context.Context, alg string, signingInput []byte) ([]byte, error) {
	if alg != AlgRS256 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlg, alg)
	}
	sum := sha256.Sum256(signingInput)
	body, err := json.Marshal(signRequest{Alg: alg, Value: base64.RawURLEncoding.EncodeToString(sum[:])})
	if err != nil {
		return nil, err
	}
	var out signResponse
	if err := p.do(ctx, "sign", http.MethodPost, p.keyURL("/sign"), body, &out); err != nil {
		return nil, err
	}
	sig, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(out.Value, "="))
	if err != nil {
		return nil, fmt.Errorf("keyvault: decode signature: %w", err)
	}
	if len(sig) == 0 {
		return nil, fmt.Errorf("%w: empty signature", ErrUpstream)
	}
	return sig, nil
}

func (p *HTTPProvider) keyURL(suffix string) string {
	return p.cfg.BaseURL + "/keys/" + url.PathEscape(p.cfg.KeyName) + suffix
}

// do performs one logical call with per-attempt timeout and exponential
// backoff. Network errors, 429 and 5xx are retried; other statuses are not.
func (p *HTTPProvider) do(ctx context.Context, op, method, target string, body []byte, out interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.RetryInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.cfg.MaxAttempts-1)), ctx)

	err := backoff.RetryNotify(func() error {
		return p.attempt(ctx, method, target, body, out)
	}, policy, func(err error, wait time.Duration) {
		logger.Warnf("keyvault %s failed, retrying in %s: %v", op, wait, err)
	})
	if err != nil {
		metrics.KeyVaultRequests.WithLabelValues(op, "error").Inc()
		if ctx.Err() != nil && !errors.Is(err, ErrKeyNotFound) {
			return fmt.Errorf("%w: %s: %v", ErrUpstream, op, ctx.Err())
		}
		return err
	}
	metrics.KeyVaultRequests.WithLabelValues(op, "ok").Inc()
	return nil
}

func (p *HTTPProvider) attempt(ctx context.Context, method, target string, body []byte, out interface{}) error {
	actx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(actx, method, target, rdr)
	if err != nil {
		return backoff.Permanent(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrKeyNotFound, p.cfg.KeyName))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	case resp.StatusCode >= 300:
		return backoff.Permanent(fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: decode response: %v", ErrUpstream, err))
	}
	return nil
}
