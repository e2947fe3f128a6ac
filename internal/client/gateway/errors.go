package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed request.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindTimedOut
	KindUnexpectedContentType
	KindMalformedResponse
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network error"
	case KindTimedOut:
		return "timed out"
	case KindUnexpectedContentType:
		return "unexpected content type"
	case KindMalformedResponse:
		return "malformed response"
	case KindAPI:
		return "api error"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; every *RequestError matches the one of its kind.
var (
	ErrNetwork               = errors.New("network error")
	ErrTimedOut              = errors.New("timed out")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrMalformedResponse     = errors.New("malformed response")
	ErrAPI                   = errors.New("api error")

	// ErrUnauthorized matches API errors with status 401.
	ErrUnauthorized = errors.New("unauthorized")
)

// RequestError is the failure outcome of Gateway.Request.
type RequestError struct {
	Kind   Kind
	Method string
	Path   string

	// Status and Message are set for KindAPI.
	Status  int
	Message string

	// ContentType is set for KindUnexpectedContentType.
	ContentType string

	Err error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindAPI:
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	case KindUnexpectedContentType:
		return fmt.Sprintf("%s %s: expected JSON response but got %q", e.Method, e.Path, e.ContentType)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Kind)
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrTimedOut:
		return e.Kind == KindTimedOut
	case ErrUnexpectedContentType:
		return e.Kind == KindUnexpectedContentType
	case ErrMalformedResponse:
		return e.Kind == KindMalformedResponse
	case ErrAPI:
		return e.Kind == KindAPI
	case ErrUnauthorized:
		return e.Kind == KindAPI && e.Status == http.StatusUnauthorized
	}
	return false
}

// Status returns the HTTP status of an API error, 0 for anything else.
func Status(err error) int {
	var re *RequestError
	if errors.As(err, &re) && re.Kind == KindAPI {
		return re.Status
	}
	return 0
}

// Message returns the backend message of an API error, or err's text.
func Message(err error) string {
	var re *RequestError
	if errors.As(err, &re) && re.Kind == KindAPI {
		return re.Message
	}
	return err.Error()
}
