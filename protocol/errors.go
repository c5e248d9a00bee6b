package protocol

import "fmt"

// ServerError is a statement or transaction failure reported by the server.
// Code is the server's status code (e.g. Neo.ClientError.Statement.SyntaxError);
// it is empty only when the failure happened before the server could answer.
// Cause is the underlying transport failure, set only when the error was
// extracted from a non-2xx response body.
type ServerError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying transport failure, if any.
func (e *ServerError) Unwrap() error {
	return e.Cause
}

// TranslationError reports a response whose shape did not match expectations.
// It signals a bug or incompatibility, not a server-side statement failure,
// and is never retried.
type TranslationError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %s)", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap returns the underlying decode failure, if any.
func (e *TranslationError) Unwrap() error {
	return e.Cause
}
