package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coffeeshop/coffeeshop-go/internal/auth"
	"github.com/coffeeshop/coffeeshop-go/internal/model"
)

type contextKey string

const claimsKey contextKey = "claims"

// Verifier checks a raw Authorization header value against a required permission.
type Verifier interface {
	Verify(ctx context.Context, header, permission string) (*auth.Claims, error)
}

// RequirePermission returns middleware that admits only requests whose bearer
// token grants permission. The verified claims are stored in the request context.
func RequirePermission(v Verifier, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := v.Verify(r.Context(), r.Header.Get("Authorization"), permission)
			if err != nil {
				var authErr *auth.AuthError
				if errors.As(err, &authErr) {
					writeJSONError(w, model.ErrorResponse{
						Error:   authErr.Status,
						Message: authErr.Description,
						Code:    authErr.Code,
					})
					return
				}

				slog.ErrorContext(r.Context(), "token verification failed", "permission", permission, "error", err)
				writeJSONError(w, model.ErrorResponse{
					Error:   http.StatusInternalServerError,
					Message: "internal server error",
				})
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts the verified token claims from the request context.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

func writeJSONError(w http.ResponseWriter, resp model.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Error)
	json.NewEncoder(w).Encode(resp)
}
