package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pep299/iracify/internal/repository"
	"github.com/pep299/iracify/internal/service"
	"github.com/pep299/iracify/internal/validator"
)

// Response represents a standard API response
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Field   string      `json:"field,omitempty"`
	ID      string      `json:"id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, response Response) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(response)
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, Response{
		Status: "error",
		Error:  message,
	})
}

// WriteSuccess writes a success response
func WriteSuccess(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Response{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, message)
}

// Classify maps a pipeline error to its HTTP status and error envelope.
// Unknown errors become 500.
func Classify(err error) (int, Response) {
	resp := Response{Status: "error", Error: err.Error()}

	var (
		verr       *validator.Error
		fetchErr   *repository.FetchError
		timeoutErr *repository.TimeoutError
		callErr    *repository.ModelCallError
		invalid    *service.InvalidOutputError
	)
	switch {
	case errors.As(err, &verr):
		resp.Kind = verr.Kind.String()
		resp.Field = verr.Field
		resp.ID = verr.ID
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &invalid):
		// Output the validator accepted but the pipeline could not use.
		resp.Kind = validator.KindSemanticViolation.String()
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, service.ErrTooManyAnswers):
		return http.StatusBadRequest, resp
	case errors.As(err, &fetchErr):
		resp.Kind = "FetchError"
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &timeoutErr):
		resp.Kind = "TimeoutError"
		return http.StatusGatewayTimeout, resp
	case errors.As(err, &callErr):
		resp.Kind = "ModelCallError"
		return http.StatusBadGateway, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

// WriteFailure writes err classified by Classify. data, when non-nil, is
// attached for developer mode.
func WriteFailure(w http.ResponseWriter, err error, data interface{}) error {
	status, resp := Classify(err)
	resp.Data = data
	return WriteJSON(w, status, resp)
}
