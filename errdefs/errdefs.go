// Package errdefs defines the error taxonomy a wamp session raises:
// sentinel errors for conditions outside the wire protocol, and typed
// wrapper errors for the categories described by the protocol's error
// handling design — protocol violations, router-initiated aborts,
// per-operation failures, and transport failures.
package errdefs

import (
	"errors"

	"github.com/recordevolution/wampcore/wamp"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrNotConnected  = errors.New("wampcore: not connected")
	ErrAlreadyJoined = errors.New("wampcore: session already joining or joined")
	ErrNotJoined     = errors.New("wampcore: session is not joined to a realm")
	ErrSessionClosed = errors.New("wampcore: session is no longer usable")
	ErrUnknownHandle = errors.New("wampcore: subscription or registration id is not live on this session")
)

/*------------*/

// ErrProtocolViolation wraps an inbound message inconsistent with the
// current session state or the live registries. It always carries the
// WAMP error URI used in the local ABORT sent in response.
type ErrProtocolViolation struct {
	error
	URI wamp.URI
}

func (e ErrProtocolViolation) Cause() error  { return e.error }
func (e ErrProtocolViolation) Unwrap() error { return e.error }

func ProtocolViolation(uri wamp.URI, err error) error {
	if err == nil {
		return nil
	}
	return ErrProtocolViolation{error: err, URI: uri}
}

func IsProtocolViolation(err error) bool {
	_, ok := err.(ErrProtocolViolation)
	return ok
}

/*------------*/

// ErrRouterAbort wraps a router-initiated ABORT.
type ErrRouterAbort struct {
	error
	Reason wamp.URI
}

func (e ErrRouterAbort) Cause() error  { return e.error }
func (e ErrRouterAbort) Unwrap() error { return e.error }

func RouterAbort(reason wamp.URI, err error) error {
	if err == nil {
		return nil
	}
	return ErrRouterAbort{error: err, Reason: reason}
}

func IsRouterAbort(err error) bool {
	_, ok := err.(ErrRouterAbort)
	return ok
}

/*------------*/

// ErrOperation wraps an ERROR message correlated to a single outstanding
// request. It terminates only the sink for that request; the session
// itself stays JOINED.
type ErrOperation struct {
	error
	URI wamp.URI
}

func (e ErrOperation) Cause() error  { return e.error }
func (e ErrOperation) Unwrap() error { return e.error }

func Operation(uri wamp.URI, err error) error {
	if err == nil {
		return nil
	}
	return ErrOperation{error: err, URI: uri}
}

func IsOperation(err error) bool {
	_, ok := err.(ErrOperation)
	return ok
}

/*------------*/

// ErrTransport wraps a premature transport close or failure observed by
// the session. The wrapped error carries a captured stack trace (via
// github.com/pkg/errors) from the point Transport was called, since
// zerolog's pkgerrors.MarshalStack (see package logging) only has
// something to print when one was attached here.
type ErrTransport struct {
	error
}

func (e ErrTransport) Cause() error  { return e.error }
func (e ErrTransport) Unwrap() error { return e.error }

func Transport(err error) error {
	if err == nil {
		return nil
	}
	return ErrTransport{error: pkgerrors.WithStack(err)}
}

func IsTransport(err error) bool {
	_, ok := err.(ErrTransport)
	return ok
}
