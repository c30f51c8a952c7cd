package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the verified token payload for a request.
type Claims struct {
	jwt.RegisteredClaims
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the permissions claim grants permission.
func (c *Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// KeySet resolves token signing keys by key id.
type KeySet interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Verifier validates bearer tokens issued by a signing authority and checks
// their permissions claim.
type Verifier struct {
	keys     KeySet
	issuer   string
	audience string
	now      func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier creates a Verifier that accepts RS256 tokens signed by keys
// from keys, issued by issuer for audience.
func NewVerifier(keys KeySet, issuer, audience string, opts ...Option) *Verifier {
	v := &Verifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the raw Authorization header value and the required
// permission. Token failures are returned as *AuthError; a key set that
// cannot be loaded is returned as an error wrapping ErrKeySetUnavailable.
func (v *Verifier) Verify(ctx context.Context, header, permission string) (*Claims, error) {
	raw, err := tokenFromHeader(header)
	if err != nil {
		return nil, err
	}

	claims, err := v.parse(ctx, raw)
	if err != nil {
		return nil, err
	}

	if claims.Permissions == nil {
		return nil, errPermissionsAbsent
	}
	if !claims.HasPermission(permission) {
		return nil, errPermissionDenied
	}

	return claims, nil
}

// tokenFromHeader extracts the token from a "Bearer <token>" header value.
func tokenFromHeader(header string) (string, error) {
	if header == "" {
		return "", errHeaderMissing
	}

	parts := strings.Fields(header)
	switch {
	case len(parts) == 0 || !strings.EqualFold(parts[0], "bearer"):
		return "", errNotBearer
	case len(parts) == 1:
		return "", errTokenNotFound
	case len(parts) > 2:
		return "", errNotBearerToken
	}

	return parts[1], nil
}

func (v *Verifier) parse(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKeyID
		}
		return v.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, classify(err)
	}

	return claims, nil
}

// classify maps a jwt parse error onto the AuthError taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrKeySetUnavailable):
		return err
	case errors.Is(err, errMissingKeyID):
		return errMalformedKeyID
	case errors.Is(err, ErrKeyNotFound):
		return errUnknownKey
	case errors.Is(err, jwt.ErrTokenExpired):
		return errTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return errIncorrectClaims
	default:
		return errUnparsableToken
	}
}
