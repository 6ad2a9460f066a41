// Package faults defines the error taxonomy shared by the resolver, the
// download executor and the retry controller.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for retry and user-guidance decisions.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindAuthRequired
	KindRateLimited
	KindTransient
	KindResourceExceeded
	KindNotFound
	KindFatal
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindAuthRequired:
		return "AuthRequired"
	case KindRateLimited:
		return "RateLimited"
	case KindTransient:
		return "Transient"
	case KindResourceExceeded:
		return "ResourceExceeded"
	case KindNotFound:
		return "NotFound"
	case KindFatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// Retryable reports whether the backoff controller may retry this kind.
// AuthRequired is deliberately excluded: retrying without new credentials
// cannot succeed.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindTransient
}

// Error is a classified failure with a short human-readable message and an
// optional suggestion the UI layer can show to the user.
type Error struct {
	Kind       Kind
	Message    string
	Suggestion string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a classified error with the default suggestion for its kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Suggestion: defaultSuggestion(kind)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Suggestion: defaultSuggestion(kind), Cause: cause}
}

// KindOf extracts the kind from err, classifying unwrapped errors by their
// message text. A nil error has no kind and returns KindFatal with ok=false.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return KindFatal, false
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return Classify(err), true
}

func defaultSuggestion(kind Kind) string {
	switch kind {
	case KindAuthRequired:
		return "update your cookies and try again"
	case KindRateLimited:
		return "try again later"
	case KindResourceExceeded:
		return "pick a lower quality"
	case KindInvalidInput:
		return "check the URL and try again"
	default:
		return ""
	}
}
