// Package response provides the JSON envelope of the collections API.
// Successful responses carry a data field and failures an error field.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/panevka/nhsmongifyer/pkg/errors"
)

// Response is the envelope returned by every endpoint.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error is an API error with code, message and optional details.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// JSON writes resp with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already sent
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a successful response with 200 status.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// InternalError writes a 500 error response without exposing err.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// ErrorFromType maps typed errors to HTTP responses.
func ErrorFromType(w http.ResponseWriter, err error) {
	switch {
	case errors.IsNotFound(err):
		NotFound(w, err.Error(), "")
	case errors.IsValidationError(err):
		BadRequest(w, err.Error(), "")
	default:
		InternalError(w, err)
	}
}
