package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the component that raised it. Handlers at the
// HTTP boundary map kinds to status codes; intermediate layers pass them
// through untouched.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig       // bad caller input or invalid configuration, never retried
	KindExtraction   // PDF source unreadable
	KindEmbedding    // remote embedding model failure
	KindStore        // vector store persistence failure
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config_error"
	case KindExtraction:
		return "extraction_error"
	case KindEmbedding:
		return "embedding_error"
	case KindStore:
		return "store_error"
	default:
		return "unknown_error"
	}
}

// Well-known machine codes carried alongside a Kind. The boundary uses a few
// of these to pick a more specific HTTP status (quota -> 429, unavailable -> 503).
const (
	CodeQuotaExceeded    = "quota_exceeded"
	CodeAuthFailed       = "auth_failed"
	CodeStoreUnavailable = "store_unavailable"
	CodeEmptyStore       = "empty_store"
	CodeDimension        = "dimension_mismatch"
)

// Error is a classified error. Err may be nil when the fault originates here
// rather than wrapping a lower-level failure.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a fault with a formatted message.
func New(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error. Returns nil if err is nil, so call
// sites can return it directly.
func Wrap(kind Kind, code string, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// KindOf returns the classification of err, or KindUnknown for unclassified
// errors. Wrapping via fmt.Errorf("%w") is traversed.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// CodeOf returns the machine code of err, or the empty string.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// MessageOf returns the human-readable message of err, falling back to
// err.Error() for unclassified errors.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }
