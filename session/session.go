// Package session implements the WAMP session core: the state machine,
// message codec wiring, request/response correlation, and event delivery
// described in spec §4. A Session is driven on one side by the
// application (Join, Subscribe, Call, ...) and on the other by a
// transport.Listener callback stream; both sides fold into the same
// serialized evaluator guarded by a single mutex.
package session

import (
	"fmt"
	"sync"

	"github.com/recordevolution/wampcore/errdefs"
	"github.com/recordevolution/wampcore/idgen"
	"github.com/recordevolution/wampcore/safe"
	"github.com/recordevolution/wampcore/transport"
	"github.com/recordevolution/wampcore/wamp"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// transportFailureReason tags an abort caused by the transport dying out
// from under the session (unexpected close, read error) rather than by a
// protocol violation we detected ourselves. It is never sent on the wire.
const transportFailureReason = wamp.URI("wampcore.transport_failed")

// clientRoles is sent verbatim in every HELLO's Details.roles. This
// session never registers as a router-side role and never advertises
// anything under those role dicts beyond their presence.
func clientRoles() wamp.Dict {
	return wamp.Dict{
		"roles": wamp.Dict{
			"callee":     wamp.Dict{},
			"caller":     wamp.Dict{},
			"publisher":  wamp.Dict{},
			"subscriber": wamp.Dict{},
		},
	}
}

// Session is a single client-side WAMP session over one transport
// connection. The zero value is not usable; construct with New.
type Session struct {
	mu sync.Mutex

	conn       transport.Sender
	ids        *idgen.Allocator
	dispatcher *safe.Dispatcher
	listener   Listener
	logger     zerolog.Logger

	state           State
	realm           string
	sessionID       wamp.ID
	epoch           uint64 // bumped every time the session leaves JOINED
	welcomeDetails  wamp.Dict
	lastCloseReason wamp.URI

	regs registries
}

// New constructs a Session bound to conn. conn must already be open; the
// caller is responsible for wiring the transport's callbacks to the
// returned Session (it implements transport.Listener) before or as part
// of establishing the connection. listener may be nil.
func New(conn transport.Sender, listener Listener) *Session {
	if listener == nil {
		listener = NopListener{}
	}
	correlationID := uuid.NewString()
	return &Session{
		conn:       conn,
		ids:        idgen.New(),
		dispatcher: safe.NewDispatcher(64),
		listener:   listener,
		logger:     log.With().Str("session", correlationID).Logger(),
		state:      INITIAL,
		regs:       newRegistries(),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Realm returns the realm passed to Join, regardless of whether the
// session has since left it.
func (s *Session) Realm() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realm
}

// SessionID returns the router-assigned session id from WELCOME. It is
// zero until the session reaches JOINED.
func (s *Session) SessionID() wamp.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// WelcomeDetails returns the Details dict carried by the last WELCOME this
// session received, so an application can inspect router-advertised
// roles/authid after OnRealmJoined fires. It is retained after the session
// leaves JOINED and only replaced by a later, successful WELCOME.
func (s *Session) WelcomeDetails() wamp.Dict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.welcomeDetails
}

// LastCloseReason returns the WAMP reason URI recorded the last time the
// session was torn down or left JOINED: the reason carried by the router's
// GOODBYE (for a local Leave/Shutdown, that is the router's reply), the
// abort reason, or wamp.close.system_shutdown for a Shutdown issued before
// JOINED. It is empty until one of those has happened.
func (s *Session) LastCloseReason() wamp.URI {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCloseReason
}

// Join sends HELLO for realm. It is only valid from INITIAL; calling it
// from any other state returns errdefs.ErrAlreadyJoined (or
// errdefs.ErrSessionClosed once the session has left for good).
func (s *Session) Join(realm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case INITIAL:
	case SHUT_DOWN, ABORTED:
		return errdefs.ErrSessionClosed
	default:
		return errdefs.ErrAlreadyJoined
	}

	details := clientRoles()
	text, err := wamp.Encode(wamp.Hello{Realm: wamp.URI(realm), Details: details})
	if err != nil {
		return err
	}
	if err := s.conn.Send(text); err != nil {
		return errdefs.Transport(err)
	}

	s.state = JOINING
	s.realm = realm
	s.logger.Debug().Str("realm", realm).Msg("sent HELLO")
	return nil
}

// Leave sends GOODBYE with reason (spec's default is
// wamp.close.close_realm; pass "" to use it). Valid only from JOINED.
func (s *Session) Leave(reason wamp.URI) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != JOINED {
		return errdefs.ErrNotJoined
	}
	if reason == "" {
		reason = wamp.CloseRealm
	}

	text, err := wamp.Encode(wamp.Goodbye{Details: wamp.Dict{}, Reason: reason})
	if err != nil {
		return err
	}
	if err := s.conn.Send(text); err != nil {
		return errdefs.Transport(err)
	}

	s.state = LEAVING
	s.logger.Debug().Str("reason", string(reason)).Msg("sent GOODBYE")
	return nil
}

// Shutdown tears the session down unconditionally: if JOINED, it behaves
// like Leave but transitions through SHUTTING_DOWN instead of LEAVING so
// the eventual GOODBYE reply is treated as a full close rather than a
// realm change; from any other pre-terminal state it closes the transport
// directly. Shutdown is idempotent.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case SHUT_DOWN, ABORTED:
		return nil
	case JOINED:
		text, err := wamp.Encode(wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.CloseSystemShutdown})
		if err != nil {
			return err
		}
		if err := s.conn.Send(text); err != nil {
			return errdefs.Transport(err)
		}
		s.state = SHUTTING_DOWN
		return nil
	default:
		s.finish(SHUT_DOWN, wamp.CloseSystemShutdown)
		_ = s.conn.Close(transport.NormalClosure, string(wamp.CloseSystemShutdown))
		s.notifyShutdown()
		return nil
	}
}

// finish drains every registry with reason and moves to state final
// (INITIAL after a completed Leave, SHUT_DOWN otherwise). Must be called
// while s.mu is held.
func (s *Session) finish(final State, reason wamp.URI) {
	s.epoch++
	s.regs.drain(reason)
	s.state = final
	s.lastCloseReason = reason
}

func (s *Session) notifyShutdown() {
	s.dispatcher.Dispatch(func() { s.listener.OnSessionShutdown() })
}

func (s *Session) notifyRealmLeft(realm string, fromRouter bool) {
	s.dispatcher.Dispatch(func() { s.listener.OnRealmLeft(realm, fromRouter) })
}

func (s *Session) notifyRealmJoined(realm string) {
	s.dispatcher.Dispatch(func() { s.listener.OnRealmJoined(realm) })
}

func (s *Session) notifyAborted(reason wamp.URI, cause error) {
	s.dispatcher.Dispatch(func() { s.listener.OnSessionAborted(string(reason), cause) })
}

// abort implements spec §4.3.3: move to ABORTED, drain every sink with
// reason, optionally send ABORT to the router, and close the transport.
// Must be called while s.mu is held.
func (s *Session) abort(reason wamp.URI, cause error, sendWireAbort bool, closeCode int) {
	if s.state == ABORTED || s.state == SHUT_DOWN {
		return
	}
	s.logger.Warn().Err(cause).Str("reason", string(reason)).Msg("aborting session")

	s.epoch++
	s.regs.drain(reason)
	s.state = ABORTED
	s.lastCloseReason = reason

	if sendWireAbort {
		text, err := wamp.Encode(wamp.Abort{Details: wamp.Dict{"message": cause.Error()}, Reason: reason})
		if err == nil {
			_ = s.conn.Send(text)
		}
	}
	_ = s.conn.Close(closeCode, string(reason))

	s.notifyAborted(reason, cause)
}

// protocolViolation aborts the session with wamp.error.protocol_violation,
// per spec §4.3.3 and §7's "unsolicited/duplicate response" and
// "malformed message" edge cases.
func (s *Session) protocolViolation(cause error) {
	s.abort(wamp.ErrProtocolViolation, errdefs.ProtocolViolation(wamp.ErrProtocolViolation, cause), true, transport.ProtocolError)
}

func (s *Session) sendYield(request wamp.ID, args wamp.List, argsKw wamp.Dict) {
	text, err := wamp.Encode(wamp.Yield{Request: request, Options: wamp.Dict{}, Arguments: args, ArgsKw: argsKw})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode YIELD")
		return
	}
	if err := s.conn.Send(text); err != nil {
		s.logger.Warn().Err(err).Msg("failed to send YIELD")
	}
}

func (s *Session) sendInvocationError(request wamp.ID, errorURI wamp.URI, args wamp.List, argsKw wamp.Dict) {
	text, err := wamp.Encode(wamp.Error{
		OrigType:  wamp.INVOCATION,
		Request:   request,
		Details:   wamp.Dict{},
		ErrorURI:  errorURI,
		Arguments: args,
		ArgsKw:    argsKw,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode ERROR")
		return
	}
	if err := s.conn.Send(text); err != nil {
		s.logger.Warn().Err(err).Msg("failed to send ERROR")
	}
}

// makeResponder builds the single-shot Responder handed to the
// application via an Invocation event. epoch pins it to the JOINED run it
// was created during; it silently no-ops once that run has ended.
func (s *Session) makeResponder(requestID wamp.ID, epoch uint64) Responder {
	var used sync.Once
	return func(outcome CallOutcome) {
		used.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.state != JOINED || s.epoch != epoch {
				return
			}
			if outcome.Failed {
				s.sendInvocationError(requestID, outcome.ErrorURI, outcome.Arguments, outcome.ArgsKw)
			} else {
				s.sendYield(requestID, outcome.Arguments, outcome.ArgsKw)
			}
		})
	}
}

func (s *Session) nextID() wamp.ID {
	return s.ids.NewID()
}

var _ transport.Listener = (*Session)(nil)

// OnOpen is a no-op; the session's own Join call is what advances state,
// not the transport becoming writable.
func (s *Session) OnOpen() {}

// OnBinary is unconditionally a protocol violation: wamp.2.json never
// carries binary frames.
func (s *Session) OnBinary(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == ABORTED || s.state == SHUT_DOWN {
		return
	}
	s.protocolViolation(fmt.Errorf("received unexpected binary frame (%d bytes)", len(data)))
}

// OnClosing observes the peer's initiation of the WebSocket close
// handshake; the definitive transition happens in OnClosed once the
// connection actually tears down.
func (s *Session) OnClosing(code int, reason string) {
	s.logger.Debug().Int("code", code).Str("reason", reason).Msg("transport closing")
}

// OnClosed reflects an already-closed transport into the state machine.
// If we are already in a terminal state (we initiated the close ourselves
// and already drained everything) this is a no-op; otherwise it is an
// unexpected disconnect and is treated as an abort, but one where sending
// a wire ABORT is pointless since the transport is already gone.
func (s *Session) OnClosed(code int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == ABORTED || s.state == SHUT_DOWN {
		return
	}
	s.abort(transportFailureReason, fmt.Errorf("transport closed (code %d): %s", code, reason), false, code)
}

// OnFailure reflects a transport-level error (read error, unexpected EOF)
// into the state machine like an unexpected close, closing the transport
// with GoingAway.
func (s *Session) OnFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == ABORTED || s.state == SHUT_DOWN {
		return
	}
	s.abort(transportFailureReason, errdefs.Transport(err), false, transport.GoingAway)
}
