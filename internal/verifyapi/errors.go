package verifyapi

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned before any request is made when the caller
// passes an empty voter id or an unknown status.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrorKind classifies a failed call to the verification service.
type ErrorKind int

const (
	// KindNetwork covers transport failures and transient server responses (429, 5xx).
	KindNetwork ErrorKind = iota + 1
	// KindNotFound means the service does not know the voter.
	KindNotFound
	// KindInvalidResponse means the response was malformed or lacked required fields.
	KindInvalidResponse
	// KindRejected covers every other non-success response, such as 401 or 409.
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not found"
	case KindInvalidResponse:
		return "invalid response"
	case KindRejected:
		return "rejected"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by every Client operation that fails after a request was
// attempted.
type Error struct {
	Kind ErrorKind
	Op   string
	// StatusCode is the HTTP status of the last attempt, zero if none was received.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := "verification api: " + e.Op + ": " + e.Kind.String()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
