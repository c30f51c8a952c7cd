package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/coffeeshop/coffeeshop-go/internal/model"
	"github.com/coffeeshop/coffeeshop-go/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

var statusMessages = map[int]string{
	http.StatusBadRequest:            "bad request",
	http.StatusNotFound:              "resource not found",
	http.StatusMethodNotAllowed:      "method not allowed",
	http.StatusConflict:              "a drink with this title already exists",
	http.StatusRequestEntityTooLarge: "request body too large",
	http.StatusUnprocessableEntity:   "unprocessable",
	http.StatusInternalServerError:   "internal server error",
}

// Error is a request failure with the status to respond with.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, msg string) *Error {
	if msg == "" {
		msg = StatusMessage(status)
	}
	return &Error{Status: status, Message: msg}
}

// StatusMessage returns the envelope message used for status.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return http.StatusText(status)
}

// apiFunc is a handler that reports failure by returning an error.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn to an http.HandlerFunc, writing any returned error as the
// failure envelope.
func Handle(fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			status, msg := statusFor(err)
			if status == http.StatusInternalServerError {
				slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
			}
			WriteError(w, status, msg)
		}
	}
}

// statusFor maps an error to a status and a client-safe message.
func statusFor(err error) (int, string) {
	var reqErr *Error
	switch {
	case errors.As(err, &reqErr):
		return reqErr.Status, reqErr.Message
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrTitleTooLong),
		errors.Is(err, service.ErrRecipeRequired),
		errors.Is(err, service.ErrIngredientName),
		errors.Is(err, service.ErrNothingToUpdate):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrDrinkNotFound):
		return http.StatusNotFound, StatusMessage(http.StatusNotFound)
	case errors.Is(err, service.ErrTitleTaken):
		return http.StatusConflict, StatusMessage(http.StatusConflict)
	default:
		return http.StatusInternalServerError, StatusMessage(http.StatusInternalServerError)
	}
}

// WriteError writes the failure envelope.
func WriteError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{
		Success: false,
		Error:   status,
		Message: msg,
	})
}

// decodeJSON reads a size-limited JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return newError(http.StatusRequestEntityTooLarge, "")
		case errors.Is(err, io.EOF):
			return newError(http.StatusBadRequest, "request body is required")
		default:
			return newError(http.StatusBadRequest, "invalid request body")
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
