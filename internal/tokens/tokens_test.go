package tokens

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/socialhub/socialhub/backend/go-services/internal/keyvault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "socialhub-api"
	testAudience = "socialhub-clients"
)

var (
	keyOnce  sync.Once
	testKeys *keyvault.LocalProvider
)

func provider(t *testing.T) *keyvault.LocalProvider {
	t.Helper()
	keyOnce.Do(func() {
		p, err := keyvault.NewLocalProvider(2048)
		if err != nil {
			panic(err)
		}
		testKeys = p
	})
	return testKeys
}

type staticKey struct{ key *rsa.PublicKey }

func (s staticKey) Key() (*rsa.PublicKey, error) { return s.key, nil }

type fixture struct {
	now       time.Time
	issuer    *Issuer
	validator *Validator
}

func (f *fixture) clock() time.Time { return f.now }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := provider(t)
	pub, err := p.PublicKey(context.Background())
	require.NoError(t, err)
	f := &fixture{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	f.issuer = NewIssuer(p, IssuerConfig{Issuer: testIssuer, Audience: testAudience, Lifetime: time.Hour}).WithClock(f.clock)
	f.validator = NewValidator(staticKey{pub}, ValidatorConfig{Issuer: testIssuer, Audience: testAudience}).WithClock(f.clock)
	return f
}

// signPayload signs an arbitrary JSON payload with the test key.
func signPayload(t *testing.T, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding
	input := enc.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`)) + "." + enc.EncodeToString([]byte(payload))
	sig, err := provider(t).Sign(context.Background(), keyvault.AlgRS256, []byte(input))
	require.NoError(t, err)
	return input + "." + enc.EncodeToString(sig)
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.issuer.Issue(ctx, "user-1", "alice", []string{"User"})
	require.NoError(t, err)
	require.Equal(t, time.Hour, tok.ExpiresIn)
	require.Len(t, strings.Split(tok.Token, "."), 3)

	claims, err := f.validator.Validate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, Roles{"User"}, claims.Roles)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Equal(t, testAudience, claims.Audience)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, claims.IssuedAt.Unix(), claims.NotBefore.Unix())
	assert.Equal(t, f.now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssue_HeaderAndPayloadLayout(t *testing.T) {
	f := newFixture(t)
	tok, err := f.issuer.Issue(context.Background(), "user-1", "alice", []string{"User"})
	require.NoError(t, err)

	parts := strings.Split(tok.Token, ".")
	for _, p := range parts {
		assert.NotContains(t, p, "=")
	}
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"alg":"RS256","typ":"JWT"}`, string(header))

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	order := []string{`"sub"`, `"jti"`, `"name"`, `"iat"`, `"nbf"`, `"exp"`, `"iss"`, `"aud"`, `"role"`}
	last := -1
	for _, k := range order {
		idx := strings.Index(string(payload), k)
		require.Greater(t, idx, last, "field %s out of order in %s", k, payload)
		last = idx
	}
	assert.Contains(t, string(payload), `"role":"User"`)
}

func TestIssue_FreshJTI(t *testing.T) {
	f := newFixture(t)
	a, err := f.issuer.Issue(context.Background(), "u", "n", nil)
	require.NoError(t, err)
	b, err := f.issuer.Issue(context.Background(), "u", "n", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Claims.ID, b.Claims.ID)
	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(a.Token, ".")[1])
	require.NoError(t, err)
	assert.NotContains(t, string(payload), `"role"`)
}

func TestIssue_RequiresSubjectAndName(t *testing.T) {
	f := newFixture(t)
	_, err := f.issuer.Issue(context.Background(), "", "alice", nil)
	require.ErrorIs(t, err, ErrMissingSubject)
	_, err = f.issuer.Issue(context.Background(), "user-1", "", nil)
	require.ErrorIs(t, err, ErrMissingName)
}

type failingSigner struct{ keyvault.Provider }

func (failingSigner) Sign(ctx context.Context, alg string, in []byte) ([]byte, error) {
	return nil, keyvault.ErrUpstream
}

func TestIssue_PropagatesProviderError(t *testing.T) {
	iss := NewIssuer(failingSigner{provider(t)}, IssuerConfig{Issuer: testIssuer, Audience: testAudience})
	_, err := iss.Issue(context.Background(), "u", "n", nil)
	require.ErrorIs(t, err, keyvault.ErrUpstream)
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	cases := []struct {
		name        string
		afterExpiry time.Duration
		valid       bool
	}{
		{"four minutes past exp", 4 * time.Minute, true},
		{"4:59 past exp", 4*time.Minute + 59*time.Second, true},
		{"exactly skew past exp", 5 * time.Minute, false},
		{"5:01 past exp", 5*time.Minute + time.Second, false},
		{"six minutes past exp", 6 * time.Minute, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tok, err := f.issuer.Issue(context.Background(), "user-1", "alice", []string{"User"})
			require.NoError(t, err)

			f.now = tok.Claims.ExpiresAt.Time.Add(tc.afterExpiry)
			_, err = f.validator.Validate(context.Background(), tok.Token)
			if tc.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidToken)
			}
		})
	}
}

func TestValidate_NotBeforeWithinSkew(t *testing.T) {
	f := newFixture(t)
	tok, err := f.issuer.Issue(context.Background(), "user-1", "alice", nil)
	require.NoError(t, err)

	f.now = f.now.Add(-4 * time.Minute)
	_, err = f.validator.Validate(context.Background(), tok.Token)
	require.NoError(t, err)

	f.now = f.now.Add(-2 * time.Minute)
	_, err = f.validator.Validate(context.Background(), tok.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_TamperedToken(t *testing.T) {
	f := newFixture(t)
	tok, err := f.issuer.Issue(context.Background(), "user-1", "alice", []string{"User"})
	require.NoError(t, err)
	parts := strings.Split(tok.Token, ".")

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	sig[len(sig)/2] ^= 0x01
	badSig := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(sig)
	_, err = f.validator.Validate(context.Background(), badSig)
	require.ErrorIs(t, err, ErrInvalidToken)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	swapped := []byte(strings.Replace(string(payload), `"role":"User"`, `"role":"Admin"`, 1))
	badPayload := parts[0] + "." + base64.RawURLEncoding.EncodeToString(swapped) + "." + parts[2]
	_, err = f.validator.Validate(context.Background(), badPayload)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_AnySinglePayloadBitFlipRejected(t *testing.T) {
	f := newFixture(t)
	tok, err := f.issuer.Issue(context.Background(), "user-1", "alice", []string{"User", "Admin"})
	require.NoError(t, err)
	parts := strings.Split(tok.Token, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	for i := range payload {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), payload...)
			flipped[i] ^= 1 << bit
			raw := parts[0] + "." + base64.RawURLEncoding.EncodeToString(flipped) + "." + parts[2]
			_, err := f.validator.Validate(context.Background(), raw)
			require.ErrorIsf(t, err, ErrInvalidToken, "byte %d bit %d", i, bit)
		}
	}
}

func TestValidate_WrongIssuerOrAudience(t *testing.T) {
	f := newFixture(t)
	pub, _ := provider(t).PublicKey(context.Background())
	tok, err := f.issuer.Issue(context.Background(), "user-1", "alice", nil)
	require.NoError(t, err)

	otherIss := NewValidator(staticKey{pub}, ValidatorConfig{Issuer: "someone-else", Audience: testAudience}).WithClock(f.clock)
	_, err = otherIss.Validate(context.Background(), tok.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	otherAud := NewValidator(staticKey{pub}, ValidatorConfig{Issuer: testIssuer, Audience: "other-clients"}).WithClock(f.clock)
	_, err = otherAud.Validate(context.Background(), tok.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsOtherAlgorithmsAndGarbage(t *testing.T) {
	f := newFixture(t)
	enc := base64.RawURLEncoding
	exp := f.now.Add(time.Hour).Unix()
	payload, _ := json.Marshal(map[string]interface{}{"sub": "u", "iss": testIssuer, "aud": testAudience, "exp": exp})
	none := enc.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`)) + "." + enc.EncodeToString(payload) + "."

	for _, raw := range []string{"", "   ", "not-a-token", "a.b.c", none} {
		_, err := f.validator.Validate(context.Background(), raw)
		require.ErrorIs(t, err, ErrInvalidToken, "token %q", raw)
	}
}

func TestValidate_RequiresExpiration(t *testing.T) {
	f := newFixture(t)
	raw := signPayload(t, `{"sub":"u","name":"n","iss":"socialhub-api","aud":"socialhub-clients"}`)
	_, err := f.validator.Validate(context.Background(), raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RoleShapes(t *testing.T) {
	f := newFixture(t)
	exp := f.now.Add(time.Hour).Unix()
	base := `"sub":"u","name":"n","iss":"socialhub-api","aud":"socialhub-clients","exp":` + jsonInt(exp)

	cases := []struct {
		role string
		want Roles
	}{
		{`,"role":"Admin"`, Roles{"Admin"}},
		{`,"role":["User","Admin"]`, Roles{"User", "Admin"}},
		{``, nil},
	}
	for _, tc := range cases {
		claims, err := f.validator.Validate(context.Background(), signPayload(t, "{"+base+tc.role+"}"))
		require.NoError(t, err)
		assert.Equal(t, tc.want, claims.Roles)
	}

	_, err := f.validator.Validate(context.Background(), signPayload(t, "{"+base+`,"role":42}`))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestRoles_JSONShapes(t *testing.T) {
	one, err := json.Marshal(Roles{"User"})
	require.NoError(t, err)
	assert.Equal(t, `"User"`, string(one))

	two, err := json.Marshal(Roles{"User", "Admin"})
	require.NoError(t, err)
	assert.Equal(t, `["User","Admin"]`, string(two))

	var c Claims
	require.NoError(t, json.Unmarshal([]byte(`{"sub":"x"}`), &c))
	assert.Empty(t, c.Roles)
	out, _ := json.Marshal(&c)
	assert.NotContains(t, string(out), "role")
	assert.True(t, Roles{"User", "Admin"}.Has("Admin"))
	assert.False(t, Roles{"User"}.Has("Admin"))
}

type memRevoker struct {
	revoked map[string]bool
	err     error
}

func (m memRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return m.revoked[jti], m.err
}

func TestValidate_RevokedJTI(t *testing.T) {
	f := newFixture(t)
	tok, err := f.issuer.Issue(context.Background(), "user-1", "alice", nil)
	require.NoError(t, err)

	f.validator.WithRevoker(memRevoker{revoked: map[string]bool{tok.Claims.ID: true}})
	_, err = f.validator.Validate(context.Background(), tok.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	// a store failure is a fault, not a rejection
	f.validator.WithRevoker(memRevoker{err: errors.New("redis down")})
	_, err = f.validator.Validate(context.Background(), tok.Token)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrInvalidToken))
}

func TestValidate_KeyNotLoadedIsFault(t *testing.T) {
	f := newFixture(t)
	tok, err := f.issuer.Issue(context.Background(), "user-1", "alice", nil)
	require.NoError(t, err)

	v := NewValidator(keyvault.NewKeyCache(provider(t)), ValidatorConfig{Issuer: testIssuer, Audience: testAudience}).WithClock(f.clock)
	_, err = v.Validate(context.Background(), tok.Token)
	require.ErrorIs(t, err, keyvault.ErrKeyNotLoaded)
	require.False(t, errors.Is(err, ErrInvalidToken))
}
