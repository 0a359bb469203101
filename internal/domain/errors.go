package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicateKey is returned by repositories when a unique index rejects a write
var ErrDuplicateKey = errors.New("duplicate key")

// ErrorKind classifies ingestion failures for translation into HTTP responses
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindAuthentication
	KindValidation
	KindPersistence
	KindNotFound
	KindNotification
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication_error"
	case KindValidation:
		return "validation_error"
	case KindPersistence:
		return "persistence_error"
	case KindNotFound:
		return "not_found"
	case KindNotification:
		return "notification_error"
	default:
		return "internal_error"
	}
}

// IngestError is the error type every pipeline stage returns to the orchestrator.
// Code is machine-readable; Message is safe to show to the caller.
type IngestError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// NewAuthenticationError creates an error for missing or invalid credentials
func NewAuthenticationError(code, message string) *IngestError {
	return &IngestError{Kind: KindAuthentication, Code: code, Message: message}
}

// NewValidationError creates an error for a malformed or incomplete payload
func NewValidationError(code, message string) *IngestError {
	return &IngestError{Kind: KindValidation, Code: code, Message: message}
}

// NewPersistenceError wraps a store failure; the cause is never shown to the caller
func NewPersistenceError(message string, err error) *IngestError {
	return &IngestError{Kind: KindPersistence, Code: "persistence_error", Message: message, Err: err}
}

// NewNotFoundError creates an error for a missing tenant configuration
func NewNotFoundError(code, message string) *IngestError {
	return &IngestError{Kind: KindNotFound, Code: code, Message: message}
}

// KindOf returns the kind of err, or KindInternal if err is not an IngestError
func KindOf(err error) ErrorKind {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindInternal
}

// AsIngestError converts any error into an IngestError, keeping the original as cause
func AsIngestError(err error) *IngestError {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie
	}
	return &IngestError{Kind: KindInternal, Code: "internal_error", Message: "internal server error", Err: err}
}
