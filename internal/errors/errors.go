package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how it is reported to the client.
type Kind int

const (
	KindInternal      Kind = iota // unexpected failure, cause is never exposed
	KindValidation                // malformed or missing input
	KindLinkInvalid               // reset link expired, tampered or stale
	KindBadCredential             // wrong old password on change
	KindNotFound                  // unknown user
	KindUnauthorized              // bad sign-in credentials or refresh token mismatch
	KindTokenInvalid              // signature, issuer, audience or expiry check failed
	KindConflict                  // email already registered
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindLinkInvalid:
		return "link_invalid"
	case KindBadCredential:
		return "bad_credential"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindTokenInvalid:
		return "token_invalid"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a user-facing error. Message is safe to return to the client, Err is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a user-facing error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func Validation(message string) *Error   { return New(KindValidation, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-safe message of err. Errors without a kind never leak their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error"
}
