package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for the protocol boundary.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidIdentifier
	KindMalformedPayload
	KindAuthenticationMissing
	KindNotOwner
	KindNotFound
	KindConflict
	KindConflictingResourceType
	KindLocatorUnavailable
	KindSigningFailure
	KindStorageFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidIdentifier:
		return "invalid identifier"
	case KindMalformedPayload:
		return "malformed payload"
	case KindAuthenticationMissing:
		return "authentication missing"
	case KindNotOwner:
		return "not owner"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "already exists"
	case KindConflictingResourceType:
		return "conflicting resource type"
	case KindLocatorUnavailable:
		return "locator unavailable"
	case KindSigningFailure:
		return "signing failure"
	case KindStorageFailure:
		return "storage failure"
	default:
		return "unknown"
	}
}

// Error carries a kind and a human readable reason.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Reason == "" && e.Err != nil {
		return e.Err.Error()
	}
	msg := e.Reason
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is matching on the error kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidIdentifier       = &Error{Kind: KindInvalidIdentifier}
	ErrMalformedPayload        = &Error{Kind: KindMalformedPayload}
	ErrAuthenticationMissing   = &Error{Kind: KindAuthenticationMissing}
	ErrNotOwner                = &Error{Kind: KindNotOwner}
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrConflict                = &Error{Kind: KindConflict}
	ErrConflictingResourceType = &Error{Kind: KindConflictingResourceType}
	ErrLocatorUnavailable      = &Error{Kind: KindLocatorUnavailable}
	ErrSigningFailure          = &Error{Kind: KindSigningFailure}
	ErrStorageFailure          = &Error{Kind: KindStorageFailure}
)

// InvalidIdentifier wraps a parse failure; its message is the parser's.
func InvalidIdentifier(err error) error {
	return &Error{Kind: KindInvalidIdentifier, Err: err}
}

func MalformedPayload(reason string, err error) error {
	return &Error{Kind: KindMalformedPayload, Reason: reason, Err: err}
}

func AuthenticationMissing(reason string) error {
	return &Error{Kind: KindAuthenticationMissing, Reason: reason}
}

func NotOwner(resource string) error {
	return &Error{Kind: KindNotOwner, Reason: "not the owner of " + resource}
}

func NotFound(resource string) error {
	if resource == "" {
		return &Error{Kind: KindNotFound}
	}
	return &Error{Kind: KindNotFound, Reason: resource + " not found"}
}

func Conflict(resource string) error {
	return &Error{Kind: KindConflict, Reason: resource + " already exists"}
}

func ConflictingResourceType(reason string) error {
	return &Error{Kind: KindConflictingResourceType, Reason: reason}
}

func LocatorUnavailable(err error) error {
	return &Error{Kind: KindLocatorUnavailable, Reason: "SML request failed", Err: err}
}

func SigningFailure(err error) error {
	return &Error{Kind: KindSigningFailure, Reason: "failed to sign response", Err: err}
}

func StorageFailure(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindStorageFailure, Reason: "storage failure", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
