package bill

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation is returned for input rejected before any store call.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is the class of store failures reporting a missing resource.
	ErrNotFound = errors.New("not found")

	// ErrServiceUnavailable is the class of every other store failure.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUploadFailed is returned when the receipt upload phase fails.
	ErrUploadFailed = errors.New("upload failed")

	// ErrFinalizeFailed is returned when the bill could not be persisted
	// after its receipt was uploaded.
	ErrFinalizeFailed = errors.New("finalize failed")

	// ErrSubmissionInProgress is returned when Submit is called while a
	// previous attempt is still waiting on the store.
	ErrSubmissionInProgress = errors.New("submission already in progress")
)

// ValidationError describes a field the user has to fix
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ServiceError is a store failure carrying the service's status code.
// Status is zero when the service could not be reached at all.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Erreur %d", e.Status)
}

func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrServiceUnavailable:
		return e.Status != http.StatusNotFound
	}
	return false
}

// FailureClass is the user-facing category of a failed fetch
type FailureClass string

const (
	ClassNotFound           FailureClass = "NotFound"
	ClassServiceUnavailable FailureClass = "ServiceUnavailable"
)

// Classify maps a store error to its failure class
func Classify(err error) FailureClass {
	if errors.Is(err, ErrNotFound) {
		return ClassNotFound
	}
	return ClassServiceUnavailable
}

// FetchError is returned by ListController.FetchBills
type FetchError struct {
	Class   FailureClass
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Class == ClassNotFound
	case ErrServiceUnavailable:
		return e.Class == ClassServiceUnavailable
	}
	return false
}

// Phase is the step of a submission that failed
type Phase string

const (
	PhaseUpload   Phase = "upload"
	PhaseFinalize Phase = "finalize"
)

// SubmissionError wraps a store failure during one submission phase
type SubmissionError struct {
	Phase Phase
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func (e *SubmissionError) Is(target error) bool {
	switch target {
	case ErrUploadFailed:
		return e.Phase == PhaseUpload
	case ErrFinalizeFailed:
		return e.Phase == PhaseFinalize
	}
	return false
}
