package newsapi

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failures a NewsAPI call can end in.
type Kind int

const (
	KindBadURL Kind = iota + 1
	KindTransport
	KindAPIRejected
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindBadURL:
		return "bad_url"
	case KindTransport:
		return "transport_failure"
	case KindAPIRejected:
		return "api_rejected"
	case KindDecode:
		return "decode_failure"
	default:
		return "unknown"
	}
}

// DefaultRejectMessage is used when an error envelope carries no message.
const DefaultRejectMessage = "NewsAPI error"

// Error is returned by every NewsAPI operation.
type Error struct {
	Kind       Kind
	StatusCode int
	Code       string
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBadURL:
		return fmt.Sprintf("invalid request URL: %v", e.Cause)
	case KindTransport:
		if e.Cause != nil {
			return fmt.Sprintf("NewsAPI request failed: %v", e.Cause)
		}
		return fmt.Sprintf("NewsAPI request failed with status %d", e.StatusCode)
	case KindAPIRejected:
		return e.Message
	case KindDecode:
		return fmt.Sprintf("decoding NewsAPI response: %v", e.Cause)
	default:
		return "NewsAPI error"
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func BadURL(cause error) *Error {
	return &Error{Kind: KindBadURL, Cause: cause}
}

// TransportFailure wraps a failure that happened before a status code was
// obtained.
func TransportFailure(cause error) *Error {
	return &Error{Kind: KindTransport, Cause: cause}
}

// TransportStatus reports a non-2xx response without an error envelope.
func TransportStatus(status int) *Error {
	return &Error{Kind: KindTransport, StatusCode: status}
}

func APIRejected(status int, code, message string) *Error {
	if message == "" {
		message = DefaultRejectMessage
	}
	return &Error{Kind: KindAPIRejected, StatusCode: status, Code: code, Message: message}
}

func DecodeFailure(cause error) *Error {
	return &Error{Kind: KindDecode, Cause: cause}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindOf returns the kind of err, or 0 when err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
