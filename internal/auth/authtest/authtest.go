// Package authtest provides a signing authority for tests: an RSA key pair,
// its JWKS document and helpers to mint RS256 tokens.
package authtest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/golang-jwt/jwt/v5"

	"github.com/coffeeshop/coffeeshop-go/internal/auth"
)

const (
	DefaultIssuer   = "https://coffeeshop.test/"
	DefaultAudience = "drinks"
)

var (
	keyOnce sync.Once
	keyPair *rsa.PrivateKey
	keyErr  error
)

// sharedKey returns one RSA key per test binary; generating keys is slow.
func sharedKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		keyPair, keyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if keyErr != nil {
		t.Fatalf("generate rsa key: %v", keyErr)
	}
	return keyPair
}

// Authority signs tokens the way the production signing authority does.
type Authority struct {
	Key      *rsa.PrivateKey
	KeyID    string
	Issuer   string
	Audience string
}

// NewAuthority returns an Authority using the default issuer and audience.
func NewAuthority(t testing.TB) *Authority {
	t.Helper()
	return &Authority{
		Key:      sharedKey(t),
		KeyID:    "test-key",
		Issuer:   DefaultIssuer,
		Audience: DefaultAudience,
	}
}

// KeySet returns a static key set holding the authority's public key.
func (a *Authority) KeySet() auth.StaticKeySet {
	return auth.StaticKeySet{a.KeyID: &a.Key.PublicKey}
}

// Verifier returns a verifier trusting this authority.
func (a *Authority) Verifier(opts ...auth.Option) *auth.Verifier {
	return auth.NewVerifier(a.KeySet(), a.Issuer, a.Audience, opts...)
}

// JWKS returns the authority's key set document.
func (a *Authority) JWKS(t testing.TB) json.RawMessage {
	t.Helper()
	return Document(t, JWK(t, a.KeyID, &a.Key.PublicKey, jwkset.UseSig))
}

// JWK encodes a public key as a JWK with the given kid and use.
func JWK(t testing.TB, kid string, pub any, use jwkset.USE) jwkset.JWK {
	t.Helper()

	opts := jwkset.JWKOptions{Metadata: jwkset.JWKMetadataOptions{KID: kid, USE: use}}
	if _, ok := pub.(*rsa.PublicKey); ok && use == jwkset.UseSig {
		opts.Metadata.ALG = jwkset.AlgRS256
	}

	jwk, err := jwkset.NewJWKFromKey(pub, opts)
	if err != nil {
		t.Fatalf("encode jwk %q: %v", kid, err)
	}
	return jwk
}

// Document returns a JWKS document holding keys.
func Document(t testing.TB, keys ...jwkset.JWK) json.RawMessage {
	t.Helper()

	ctx := context.Background()
	store := jwkset.NewMemoryStorage()
	for _, k := range keys {
		if err := store.KeyWrite(ctx, k); err != nil {
			t.Fatalf("store jwk: %v", err)
		}
	}

	doc, err := store.JSONPublic(ctx)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	return doc
}

// Server starts an HTTP server publishing the JWKS document. The returned
// counter reports how many times the document was fetched.
func (a *Authority) Server(t testing.TB) (*httptest.Server, func() int) {
	t.Helper()

	doc := a.JWKS(t)
	var (
		mu   sync.Mutex
		hits int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Write(doc)
	}))
	t.Cleanup(srv.Close)

	return srv, func() int {
		mu.Lock()
		defer mu.Unlock()
		return hits
	}
}

// Claims returns valid claims for one hour granting permissions.
func (a *Authority) Claims(permissions ...string) *auth.Claims {
	now := time.Now()
	if permissions == nil {
		permissions = []string{}
	}
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.Issuer,
			Subject:   "auth0|barista",
			Audience:  jwt.ClaimStrings{a.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Permissions: permissions,
	}
}

// Token returns a signed token granting permissions.
func (a *Authority) Token(t testing.TB, permissions ...string) string {
	t.Helper()
	return a.Sign(t, a.Claims(permissions...))
}

// Sign signs claims with the authority's key and kid.
func (a *Authority) Sign(t testing.TB, claims jwt.Claims) string {
	t.Helper()
	return a.SignWithKeyID(t, a.KeyID, claims)
}

// SignWithKeyID signs claims with the authority's key under an arbitrary kid.
// An empty kid omits the header.
func (a *Authority) SignWithKeyID(t testing.TB, kid string, claims jwt.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}

	signed, err := token.SignedString(a.Key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// Bearer returns an Authorization header value for token.
func Bearer(token string) string {
	return "Bearer " + token
}
