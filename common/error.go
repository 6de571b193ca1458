// Package common holds the error type shared by every layer that feeds
// the HTTP surface.
package common

import "fmt"

// APIError carries an HTTP status alongside the message, so services
// decide the status code and the middleware only renders it. Fields
// holds optional per-field detail for validation failures.
type APIError struct {
	Status  int            `json:"-"`
	Message string         `json:"error"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (e APIError) Error() string {
	return e.Message
}

// Errf builds an APIError with a formatted message and no field detail.
func Errf(status int, format string, args ...any) APIError {
	return APIError{Status: status, Message: fmt.Sprintf(format, args...)}
}

func NewAPIError(status int, message string, fields map[string]any) APIError {
	return APIError{
		Status:  status,
		Message: message,
		Fields:  fields,
	}
}
