package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/coffeeshop/coffeeshop-go/internal/model"
)

// Recover converts a panicking handler into a 500 response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			slog.ErrorContext(r.Context(), "handler panic",
				"request_id", RequestIDFromContext(r.Context()),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			writeJSONError(w, model.ErrorResponse{
				Error:   http.StatusInternalServerError,
				Message: "internal server error",
			})
		}()

		next.ServeHTTP(w, r)
	})
}
