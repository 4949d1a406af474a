package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError. A target with an empty
// Resource matches any missing resource.
func (e NotFoundError) Is(target error) bool {
	switch t := target.(type) {
	case NotFoundError:
		return t.Resource == "" || t.Resource == e.Resource
	case *NotFoundError:
		return t.Resource == "" || t.Resource == e.Resource
	}
	return false
}

// ConflictError represents a rejected write that left the store unchanged.
// Not retryable without new input.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	if e.Reason == "" {
		return "conflict"
	}
	return e.Reason
}

func (e ConflictError) Is(target error) bool {
	switch t := target.(type) {
	case ConflictError:
		return t.Reason == "" || t.Reason == e.Reason
	case *ConflictError:
		return t.Reason == "" || t.Reason == e.Reason
	}
	return false
}

// ValidationError represents malformed input, rejected before any store
// access.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	if e.Reason == "" {
		return "invalid input"
	}
	return e.Reason
}

func (e ValidationError) Is(target error) bool {
	switch t := target.(type) {
	case ValidationError:
		return t.Reason == "" || t.Reason == e.Reason
	case *ValidationError:
		return t.Reason == "" || t.Reason == e.Reason
	}
	return false
}

// AuthError represents a failed authentication or authorization check.
type AuthError struct {
	Reason string
}

func (e AuthError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return e.Reason
}

func (e AuthError) Is(target error) bool {
	switch t := target.(type) {
	case AuthError:
		return t.Reason == "" || t.Reason == e.Reason
	case *AuthError:
		return t.Reason == "" || t.Reason == e.Reason
	}
	return false
}

// StoreUnavailableError wraps an infrastructure failure so callers can tell
// "your request was invalid" from "try again".
type StoreUnavailableError struct {
	Err error
}

func (e StoreUnavailableError) Error() string {
	if e.Err == nil {
		return "store unavailable"
	}
	return fmt.Sprintf("store unavailable: %v", e.Err)
}

func (e StoreUnavailableError) Unwrap() error { return e.Err }

func (e StoreUnavailableError) Is(target error) bool {
	switch target.(type) {
	case StoreUnavailableError, *StoreUnavailableError:
		return true
	}
	return false
}

var (
	ErrNotFound          = NotFoundError{}
	ErrAddressNotFound   = NotFoundError{Resource: "address"}
	ErrAccountNotFound   = NotFoundError{Resource: "account"}
	ErrGigNotFound       = NotFoundError{Resource: "gig"}
	ErrUnknownFreelancer = NotFoundError{Resource: "freelancer"}

	ErrDuplicateGig      = ConflictError{Reason: "gig already exists for this contract gig"}
	ErrNameTaken         = ConflictError{Reason: "display name already taken"}
	ErrAddressTaken      = ConflictError{Reason: "address already registered"}
	ErrInvalidTransition = ConflictError{Reason: "invalid status transition"}

	ErrInvalidAddress     = ValidationError{Reason: "invalid address"}
	ErrMalformedSignature = ValidationError{Reason: "malformed signature"}
	ErrInvalidAmount      = ValidationError{Reason: "invalid amount"}
	ErrMissingField       = ValidationError{Reason: "missing required field"}

	ErrUnauthorized      = AuthError{}
	ErrSignatureMismatch = AuthError{Reason: "signature mismatch"}

	ErrStoreUnavailable = StoreUnavailableError{}
)
