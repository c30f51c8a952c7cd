package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable AuthError codes.
const (
	CodeHeaderMissing = "authorization_header_missing"
	CodeInvalidHeader = "invalid_header"
	CodeTokenExpired  = "token_expired"
	CodeInvalidClaims = "invalid_claims"
	CodeUnauthorized  = "unauthorized"
)

var (
	// ErrKeyNotFound is returned by a KeySet when no key matches the token's kid.
	ErrKeyNotFound = errors.New("signing key not found")
	// ErrKeySetUnavailable is returned when the signing authority's key set cannot be loaded.
	ErrKeySetUnavailable = errors.New("signing key set unavailable")

	errMissingKeyID = errors.New("token header has no kid")
)

// AuthError is a token verification failure carrying the HTTP status to
// respond with and a machine-readable code.
type AuthError struct {
	Status      int
	Code        string
	Description string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func newAuthError(status int, code, description string) *AuthError {
	return &AuthError{Status: status, Code: code, Description: description}
}

var (
	errHeaderMissing     = newAuthError(http.StatusUnauthorized, CodeHeaderMissing, "Authorization header is expected.")
	errNotBearer         = newAuthError(http.StatusUnauthorized, CodeInvalidHeader, "Authorization header must start with \"Bearer\".")
	errTokenNotFound     = newAuthError(http.StatusUnauthorized, CodeInvalidHeader, "Token not found.")
	errNotBearerToken    = newAuthError(http.StatusUnauthorized, CodeInvalidHeader, "Authorization header must be bearer token.")
	errMalformedKeyID    = newAuthError(http.StatusUnauthorized, CodeInvalidHeader, "Authorization malformed.")
	errUnknownKey        = newAuthError(http.StatusUnauthorized, CodeInvalidHeader, "Unable to find the appropriate key.")
	errTokenExpired      = newAuthError(http.StatusUnauthorized, CodeTokenExpired, "Token expired.")
	errIncorrectClaims   = newAuthError(http.StatusUnauthorized, CodeInvalidClaims, "Incorrect claims. Please, check the audience and issuer.")
	errUnparsableToken   = newAuthError(http.StatusBadRequest, CodeInvalidHeader, "Unable to parse authentication token.")
	errPermissionsAbsent = newAuthError(http.StatusBadRequest, CodeInvalidClaims, "Permissions not included in JWT.")
	errPermissionDenied  = newAuthError(http.StatusForbidden, CodeUnauthorized, "Permission not found.")
)
