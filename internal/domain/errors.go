package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why an operation failed.
type ErrorKind string

const (
	KindNetworkFailure    ErrorKind = "network_failure"
	KindServiceRejection  ErrorKind = "service_rejection"
	KindNoMatch           ErrorKind = "no_match"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindInvalidInput      ErrorKind = "invalid_input"
	KindSuperseded        ErrorKind = "superseded"
)

// User-facing messages shared with the mobile client.
const (
	MsgServerError            = "Failed to connect to server"
	MsgSomethingWentWrong     = "Something went wrong. Please try again."
	MsgCoordinatesFetchError  = "Unable to fetch coordinates."
	MsgCoordinatesServerError = "Server error while looking up coordinates."
	MsgFailedToLoadCrimes     = "Failed to load crimes"
	MsgSuperseded             = "Request superseded by a newer request"
	MsgUserCreateFailed       = "User creation failed"
	MsgUserUpdateFailed       = "Failed to update user"
	MsgUserDeleteFailed       = "Failed to delete user"
	MsgUserUpdateSuccess      = "User updated successfully"
	MsgUserDeleteSuccess      = "User deleted successfully"
)

// Error is the single failure shape returned by every upstream-facing
// operation. Message is always non-empty and safe to show to end users.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int // upstream HTTP status, 0 when no response was received
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NetworkFailure reports a transport fault where no response was received.
func NetworkFailure(message string, err error) *Error {
	return &Error{Kind: KindNetworkFailure, Message: message, Err: err}
}

// Rejection reports a non-2xx upstream response. The server-provided message
// wins over the fallback when it is non-blank.
func Rejection(status int, serverMessage, fallback string) *Error {
	return &Error{Kind: KindServiceRejection, Message: pick(serverMessage, fallback), Status: status}
}

// NoMatch reports a successful lookup that found nothing.
func NoMatch(status int, serverMessage, fallback string) *Error {
	return &Error{Kind: KindNoMatch, Message: pick(serverMessage, fallback), Status: status}
}

// Malformed reports a 2xx response whose body could not be decoded.
func Malformed(message string, status int, err error) *Error {
	return &Error{Kind: KindMalformedResponse, Message: message, Status: status, Err: err}
}

// Invalid reports input rejected before any upstream call.
func Invalid(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// Superseded reports a call discarded because a newer call replaced it.
func Superseded(err error) *Error {
	return &Error{Kind: KindSuperseded, Message: MsgSuperseded, Err: err}
}

// KindOf returns the kind of a domain error, or "" for any other error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// MessageOf returns the user-facing message of a domain error, or fallback.
func MessageOf(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}

func pick(preferred, fallback string) string {
	if strings.TrimSpace(preferred) != "" {
		return preferred
	}
	return fallback
}
