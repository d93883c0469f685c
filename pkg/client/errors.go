package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	// ErrTransport matches every TransportError.
	ErrTransport = errors.New("transport failure")

	// ErrOrigin matches every OriginError.
	ErrOrigin = errors.New("origin failure")
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/DNS/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUnexpected represents statuses that are neither success nor
	// error, such as a 304 with nothing cached to revalidate.
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// TransportError is returned when the transport failed and no cached entry
// was available to fall back to.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s error fetching %s: %v", ErrorClassNetwork, e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Class returns ErrorClassNetwork.
func (e *TransportError) Class() ErrorClass {
	return ErrorClassNetwork
}

// OriginError is returned when the origin answered with a non-success status
// and no cached entry was available to fall back to.
type OriginError struct {
	URL        string
	StatusCode int
	ErrorClass ErrorClass
}

// Error implements the error interface.
func (e *OriginError) Error() string {
	return fmt.Sprintf("origin %s error fetching %s (status %d): %s",
		e.ErrorClass, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports whether target is ErrOrigin.
func (e *OriginError) Is(target error) bool {
	return target == ErrOrigin
}

// Class returns the status classification.
func (e *OriginError) Class() ErrorClass {
	return e.ErrorClass
}

// classifyStatus categorizes a non-success HTTP status.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}

// isSuccess reports whether status is a 2xx response.
func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
