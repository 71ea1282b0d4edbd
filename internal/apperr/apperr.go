// Package apperr defines the error taxonomy shared by the pricing and
// checkout layers. Handlers map these onto HTTP status codes; everything
// else is wrapped transport or database failure.
package apperr

import "fmt"

// ValidationError reports a caller input that fails a precondition. The
// reason is always specific and safe to return to the client.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent entity referenced by the caller.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func NotFound(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

// ExternalServiceError reports a failure of an external collaborator
// (payment gateway). Never retried here; the caller decides.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// TransactionAbortError reports a checkout transaction that failed
// mid-flight. The caller may assume no partial state was committed.
type TransactionAbortError struct {
	Err error
}

func (e *TransactionAbortError) Error() string {
	return fmt.Sprintf("checkout transaction aborted: %v", e.Err)
}

func (e *TransactionAbortError) Unwrap() error { return e.Err }
