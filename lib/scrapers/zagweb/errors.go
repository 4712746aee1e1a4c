package zagweb

import (
	"errors"
	"fmt"
)

var (
	// the warm-up/login exchange set no cookies at all, nothing else
	// can work from here
	ErrNoSessionCookie = errors.New("portal returned no session cookies")
	// no SESSID cookie after the silent retry, which on this portal
	// means the credentials are wrong
	ErrInvalidCredentials = errors.New("incorrect student id or pin")
	// the page shape has drifted from what the extractors expect,
	// likely a portal redesign or an unauthenticated response
	ErrHtmlParse = errors.New("failed to parse portal page")
)

// TransportError is a network-level failure (dns, timeout, connection
// reset). HTTP error statuses that still carry a body are not
// transport errors.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
