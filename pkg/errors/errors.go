package errors

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class; each kind maps to one HTTP status and
// one stable machine-readable code.
type Kind int

const (
	KindInternal Kind = iota
	KindUserNotFound
	KindPrivateProfile
	KindProfileSuspended
	KindRateLimited
	KindLoginRequired
	KindDownload
	KindNoContent
	KindTimeout
)

// Error is the typed failure carried from the Instagram layer up to the
// HTTP boundary.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the stable machine-readable code for the error kind.
func (e *Error) Code() string {
	switch e.Kind {
	case KindUserNotFound:
		return "USER_NOT_FOUND"
	case KindPrivateProfile:
		return "PRIVATE_PROFILE"
	case KindProfileSuspended:
		return "PROFILE_SUSPENDED"
	case KindRateLimited:
		return "RATE_LIMITED"
	case KindLoginRequired:
		return "LOGIN_REQUIRED"
	case KindDownload:
		return "DOWNLOAD_ERROR"
	case KindNoContent:
		return "NO_CONTENT"
	case KindTimeout:
		return "TIMEOUT"
	default:
		return "INTERNAL_ERROR"
	}
}

func UserNotFound(username string) *Error {
	return &Error{
		Kind:    KindUserNotFound,
		Message: fmt.Sprintf("Instagram user not found: '%s'", username),
		Status:  404,
	}
}

func PrivateProfile(username string) *Error {
	return &Error{
		Kind:    KindPrivateProfile,
		Message: fmt.Sprintf("'%s' profile is private. You need to log in to access this content.", username),
		Status:  403,
	}
}

func ProfileSuspended(username string) *Error {
	return &Error{
		Kind:    KindProfileSuspended,
		Message: fmt.Sprintf("'%s' account has been suspended or removed.", username),
		Status:  410,
	}
}

func RateLimited() *Error {
	return &Error{
		Kind:    KindRateLimited,
		Message: "Instagram API rate limit exceeded. Please wait a while and try again.",
		Status:  429,
	}
}

func LoginRequired(operation string) *Error {
	if operation == "" {
		operation = "this operation"
	}
	return &Error{
		Kind:    KindLoginRequired,
		Message: fmt.Sprintf("You need to log in to Instagram for '%s'.", operation),
		Status:  401,
	}
}

func Download(message string) *Error {
	if message == "" {
		message = "Download operation failed."
	}
	return &Error{
		Kind:    KindDownload,
		Message: message,
		Status:  500,
	}
}

func NoContent(contentType string) *Error {
	if contentType == "" {
		contentType = "content"
	}
	return &Error{
		Kind:    KindNoContent,
		Message: fmt.Sprintf("No %s found to download.", contentType),
		Status:  404,
	}
}

func Timeout() *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: "Operation timed out. Please try again.",
		Status:  504,
	}
}

// Wrap attaches a cause to a typed error without changing its surface message.
func Wrap(e *Error, cause error) *Error {
	out := *e
	out.Err = cause
	return &out
}

// FromError extracts a typed error from err's chain.
func FromError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := FromError(err)
	return ok && e.Kind == kind
}

// IsRetryable reports whether a typed error may succeed on a later attempt.
// Throttling and generic download failures are retried; identity-shaped
// failures (not found, private, suspended, login required) are permanent.
func IsRetryable(err error) bool {
	e, ok := FromError(err)
	if !ok {
		return true
	}
	switch e.Kind {
	case KindRateLimited, KindDownload, KindInternal:
		return true
	default:
		return false
	}
}
