package weather

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies every failure a Source may report.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindRateLimited        ErrorKind = "rate_limited"
	KindNetworkUnavailable ErrorKind = "network_unavailable"
	KindUnknown            ErrorKind = "unknown"
)

// GenericMessage is shown when nothing more specific is known.
const GenericMessage = "Something went wrong. Please try again later."

var messages = map[ErrorKind]string{
	KindNotFound:           "City not found. Please check the spelling and try again.",
	KindUnauthorized:       "API key invalid or not activated yet. New API keys may take 2 hours to activate.",
	KindRateLimited:        "Too many requests. Please wait a moment and try again.",
	KindNetworkUnavailable: "Network error. Please check your connection and try again.",
	KindUnknown:            GenericMessage,
}

// Message returns the user-facing text for the kind.
func (k ErrorKind) Message() string {
	if m, ok := messages[k]; ok {
		return m
	}
	return GenericMessage
}

// Transient reports whether a retry could plausibly change the outcome.
func (k ErrorKind) Transient() bool {
	switch k {
	case KindNotFound, KindUnauthorized:
		return false
	default:
		return true
	}
}

// KindForStatus maps a provider HTTP status onto the taxonomy.
func KindForStatus(code int) ErrorKind {
	switch code {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindUnknown
	}
}

// Error is the normalized error value surfaced past the Source boundary.
type Error struct {
	Kind   ErrorKind
	Status int    // HTTP status, 0 when no response was received
	Detail string // provider supplied message, if any
	Err    error
}

// Sentinels for errors.Is checks; only the kind is compared.
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrNetworkUnavailable = &Error{Kind: KindNetworkUnavailable}
	ErrUnknown            = &Error{Kind: KindUnknown}
)

// NewError builds an Error of the given kind wrapping cause.
func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// StatusError builds an Error from an HTTP response status.
func StatusError(status int, detail string) *Error {
	return &Error{Kind: KindForStatus(status), Status: status, Detail: detail}
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Detail != "":
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Detail)
	case e.Status != 0:
		return fmt.Sprintf("%s (status %d)", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Message returns the user-facing text for this error.
func (e *Error) Message() string { return e.Kind.Message() }

// Normalize converts err into an *Error, classifying foreign errors as Unknown.
// A nil err stays nil.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var we *Error
	if errors.As(err, &we) {
		return we
	}
	return NewError(KindUnknown, err)
}

// KindOf returns the kind of err, or "" for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return Normalize(err).Kind
}

// IsTransient reports whether err is eligible for an automatic retry.
func IsTransient(err error) bool {
	return err != nil && KindOf(err).Transient()
}

// MessageFor returns the user-facing message for any error.
func MessageFor(err error) string {
	if err == nil {
		return ""
	}
	return Normalize(err).Message()
}
