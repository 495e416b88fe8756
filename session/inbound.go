package session

import (
	"fmt"

	"github.com/recordevolution/wampcore/errdefs"
	"github.com/recordevolution/wampcore/transport"
	"github.com/recordevolution/wampcore/wamp"
)

// OnText is the transport.Listener entry point for every inbound frame.
// It decodes the frame and folds the resulting message into the state
// machine under the evaluator lock, exactly like an application-initiated
// operation.
func (s *Session) OnText(text string) {
	msg, err := wamp.Decode(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == ABORTED || s.state == SHUT_DOWN {
		return
	}
	if err != nil {
		s.protocolViolation(fmt.Errorf("decoding inbound message: %w", err))
		return
	}

	switch m := msg.(type) {
	case wamp.Welcome:
		if s.state == LEAVING || s.state == SHUTTING_DOWN {
			return
		}
		s.handleWelcome(m)
	case wamp.Abort:
		if s.state == LEAVING || s.state == SHUTTING_DOWN {
			return
		}
		s.handleAbort(m)
	case wamp.Goodbye:
		s.handleGoodbye(m)
	case wamp.Subscribed:
		if s.requireJoined("SUBSCRIBED") {
			s.handleSubscribed(m)
		}
	case wamp.Unsubscribed:
		if s.requireJoined("UNSUBSCRIBED") {
			s.handleUnsubscribed(m)
		}
	case wamp.Published:
		if s.requireJoined("PUBLISHED") {
			s.handlePublished(m)
		}
	case wamp.Event:
		if s.requireJoined("EVENT") {
			s.handleEvent(m)
		}
	case wamp.Registered:
		if s.requireJoined("REGISTERED") {
			s.handleRegistered(m)
		}
	case wamp.Unregistered:
		if s.requireJoined("UNREGISTERED") {
			s.handleUnregistered(m)
		}
	case wamp.Invocation:
		if s.requireJoined("INVOCATION") {
			s.handleInvocation(m)
		}
	case wamp.Result:
		if s.requireJoined("RESULT") {
			s.handleResult(m)
		}
	case wamp.Error:
		if s.state == INITIAL {
			// an ERROR arriving before HELLO is even sent is ignored,
			// not a violation.
			return
		}
		if s.requireJoined("ERROR") {
			s.handleError(m)
		}
	default:
		s.protocolViolation(fmt.Errorf("received %T, which a client never legitimately receives", msg))
	}
}

// requireJoined reports whether the session is JOINED. While LEAVING or
// SHUTTING_DOWN, the router may still have ordinary traffic in flight from
// before it saw our GOODBYE, so every message but GOODBYE (handled above,
// outside this check) is ignored rather than torn down. Any other
// non-JOINED state means the message is genuinely unexpected and aborts
// the session. Must be called while s.mu is held.
func (s *Session) requireJoined(kind string) bool {
	switch s.state {
	case JOINED:
		return true
	case LEAVING, SHUTTING_DOWN:
		return false
	default:
		s.protocolViolation(fmt.Errorf("received %s while in state %s", kind, s.state))
		return false
	}
}

func (s *Session) handleWelcome(msg wamp.Welcome) {
	if s.state != JOINING {
		s.protocolViolation(fmt.Errorf("unexpected WELCOME in state %s", s.state))
		return
	}
	s.sessionID = msg.Session
	s.welcomeDetails = msg.Details
	s.state = JOINED
	s.notifyRealmJoined(s.realm)
}

func (s *Session) handleAbort(msg wamp.Abort) {
	if s.state == ABORTED || s.state == SHUT_DOWN {
		return
	}
	cause := errdefs.RouterAbort(msg.Reason, fmt.Errorf("router aborted session: %s", msg.Reason))
	s.abort(msg.Reason, cause, false, transport.NormalClosure)
}

func (s *Session) handleGoodbye(msg wamp.Goodbye) {
	switch s.state {
	case JOINED:
		text, err := wamp.Encode(wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.CloseGoodbyeAndOut})
		if err == nil {
			_ = s.conn.Send(text)
		}
		realm := s.realm
		s.finish(SHUT_DOWN, msg.Reason)
		_ = s.conn.Close(transport.NormalClosure, string(msg.Reason))
		s.notifyRealmLeft(realm, true)
		s.notifyShutdown()
	case LEAVING:
		realm := s.realm
		s.finish(INITIAL, msg.Reason)
		s.notifyRealmLeft(realm, false)
	case SHUTTING_DOWN:
		realm := s.realm
		s.finish(SHUT_DOWN, msg.Reason)
		_ = s.conn.Close(transport.NormalClosure, string(msg.Reason))
		s.notifyRealmLeft(realm, false)
		s.notifyShutdown()
	default:
		s.protocolViolation(fmt.Errorf("unexpected GOODBYE in state %s", s.state))
	}
}

func (s *Session) handleSubscribed(msg wamp.Subscribed) {
	sink, ok := s.regs.pendingSubscriptions[msg.Request]
	if !ok {
		s.protocolViolation(fmt.Errorf("unsolicited SUBSCRIBED for request %d", msg.Request))
		return
	}
	delete(s.regs.pendingSubscriptions, msg.Request)
	s.ids.Release(msg.Request)
	s.regs.subscriptions[msg.Subscription] = sink
	sink.push(SubscriptionEstablished{Subscription: msg.Subscription})
}

func (s *Session) handleUnsubscribed(msg wamp.Unsubscribed) {
	pu, ok := s.regs.pendingUnsubscriptions[msg.Request]
	if !ok {
		s.protocolViolation(fmt.Errorf("unsolicited UNSUBSCRIBED for request %d", msg.Request))
		return
	}
	delete(s.regs.pendingUnsubscriptions, msg.Request)
	s.ids.Release(msg.Request)
	delete(s.regs.subscriptions, pu.subscription)
	pu.sink.push(SubscriptionClosed{})
	pu.sink.closeSink()
}

func (s *Session) handlePublished(msg wamp.Published) {
	sink, ok := s.regs.pendingPublications[msg.Request]
	if !ok {
		s.protocolViolation(fmt.Errorf("unsolicited PUBLISHED for request %d", msg.Request))
		return
	}
	delete(s.regs.pendingPublications, msg.Request)
	s.ids.Release(msg.Request)
	sink.push(PublicationSucceeded{Publication: msg.Publication})
	sink.closeSink()
}

func (s *Session) handleEvent(msg wamp.Event) {
	sink, ok := s.regs.subscriptions[msg.Subscription]
	if !ok {
		if s.unsubscribePending(msg.Subscription) {
			// already asked to unsubscribe; the router may still have
			// this EVENT in flight from before UNSUBSCRIBE arrived.
			return
		}
		s.protocolViolation(fmt.Errorf("EVENT for unknown subscription %d", msg.Subscription))
		return
	}
	sink.push(SubscriptionPayload{Payload{Arguments: msg.Arguments, ArgsKw: msg.ArgsKw}})
}

// unsubscribePending reports whether subscription has an UNSUBSCRIBE
// outstanding, i.e. it was live a moment ago. Must be called while s.mu is
// held.
func (s *Session) unsubscribePending(subscription wamp.ID) bool {
	for _, pu := range s.regs.pendingUnsubscriptions {
		if pu.subscription == subscription {
			return true
		}
	}
	return false
}

func (s *Session) handleRegistered(msg wamp.Registered) {
	sink, ok := s.regs.pendingRegistrations[msg.Request]
	if !ok {
		s.protocolViolation(fmt.Errorf("unsolicited REGISTERED for request %d", msg.Request))
		return
	}
	delete(s.regs.pendingRegistrations, msg.Request)
	s.ids.Release(msg.Request)
	s.regs.registrations[msg.Registration] = sink
	sink.push(ProcedureRegistered{Registration: msg.Registration})
}

func (s *Session) handleUnregistered(msg wamp.Unregistered) {
	pu, ok := s.regs.pendingUnregistrations[msg.Request]
	if !ok {
		s.protocolViolation(fmt.Errorf("unsolicited UNREGISTERED for request %d", msg.Request))
		return
	}
	delete(s.regs.pendingUnregistrations, msg.Request)
	s.ids.Release(msg.Request)
	delete(s.regs.registrations, pu.registration)
	pu.sink.push(ProcedureUnregistered{})
	pu.sink.closeSink()
}

func (s *Session) handleInvocation(msg wamp.Invocation) {
	sink, ok := s.regs.registrations[msg.Registration]
	if !ok {
		if s.unregisterPending(msg.Registration) {
			// already asked to unregister; the router may still have
			// this INVOCATION in flight from before UNREGISTER arrived.
			return
		}
		s.protocolViolation(fmt.Errorf("INVOCATION for unknown registration %d", msg.Registration))
		return
	}
	sink.push(Invocation{
		Payload: Payload{Arguments: msg.Arguments, ArgsKw: msg.ArgsKw},
		Respond: s.makeResponder(msg.Request, s.epoch),
	})
}

// unregisterPending reports whether registration has an UNREGISTER
// outstanding, i.e. it was live a moment ago. Must be called while s.mu is
// held.
func (s *Session) unregisterPending(registration wamp.ID) bool {
	for _, pu := range s.regs.pendingUnregistrations {
		if pu.registration == registration {
			return true
		}
	}
	return false
}

func (s *Session) handleResult(msg wamp.Result) {
	sink, ok := s.regs.pendingCalls[msg.Request]
	if !ok {
		s.protocolViolation(fmt.Errorf("unsolicited RESULT for request %d", msg.Request))
		return
	}
	delete(s.regs.pendingCalls, msg.Request)
	s.ids.Release(msg.Request)
	sink.push(CallSucceeded{Payload{Arguments: msg.Arguments, ArgsKw: msg.ArgsKw}})
	sink.closeSink()
}

func (s *Session) handleError(msg wamp.Error) {
	opErr := errdefs.Operation(msg.ErrorURI, fmt.Errorf("%s failed: %s", msg.OrigType, msg.ErrorURI))

	switch msg.OrigType {
	case wamp.SUBSCRIBE:
		sink, ok := s.regs.pendingSubscriptions[msg.Request]
		if !ok {
			break
		}
		delete(s.regs.pendingSubscriptions, msg.Request)
		s.ids.Release(msg.Request)
		s.logger.Debug().Err(opErr).Uint64("request", uint64(msg.Request)).Msg("subscribe failed")
		sink.push(SubscriptionFailed{ErrorURI: msg.ErrorURI})
		sink.closeSink()
		return
	case wamp.UNSUBSCRIBE:
		pu, ok := s.regs.pendingUnsubscriptions[msg.Request]
		if !ok {
			break
		}
		delete(s.regs.pendingUnsubscriptions, msg.Request)
		s.ids.Release(msg.Request)
		s.logger.Debug().Err(opErr).Uint64("request", uint64(msg.Request)).Msg("unsubscribe failed")
		pu.sink.push(UnsubscriptionFailed{ErrorURI: msg.ErrorURI})
		pu.sink.closeSink()
		return
	case wamp.PUBLISH:
		sink, ok := s.regs.pendingPublications[msg.Request]
		if !ok {
			break
		}
		delete(s.regs.pendingPublications, msg.Request)
		s.ids.Release(msg.Request)
		s.logger.Debug().Err(opErr).Uint64("request", uint64(msg.Request)).Msg("publish failed")
		sink.push(PublicationFailed{ErrorURI: msg.ErrorURI})
		sink.closeSink()
		return
	case wamp.REGISTER:
		sink, ok := s.regs.pendingRegistrations[msg.Request]
		if !ok {
			break
		}
		delete(s.regs.pendingRegistrations, msg.Request)
		s.ids.Release(msg.Request)
		s.logger.Debug().Err(opErr).Uint64("request", uint64(msg.Request)).Msg("register failed")
		sink.push(RegistrationFailed{ErrorURI: msg.ErrorURI})
		sink.closeSink()
		return
	case wamp.UNREGISTER:
		pu, ok := s.regs.pendingUnregistrations[msg.Request]
		if !ok {
			break
		}
		delete(s.regs.pendingUnregistrations, msg.Request)
		s.ids.Release(msg.Request)
		s.logger.Debug().Err(opErr).Uint64("request", uint64(msg.Request)).Msg("unregister failed")
		pu.sink.push(UnregistrationFailed{ErrorURI: msg.ErrorURI})
		pu.sink.closeSink()
		return
	case wamp.CALL:
		sink, ok := s.regs.pendingCalls[msg.Request]
		if !ok {
			break
		}
		delete(s.regs.pendingCalls, msg.Request)
		s.ids.Release(msg.Request)
		s.logger.Debug().Err(opErr).Uint64("request", uint64(msg.Request)).Msg("call failed")
		sink.push(CallFailed{ErrorURI: msg.ErrorURI, Arguments: msg.Arguments, ArgsKw: msg.ArgsKw})
		sink.closeSink()
		return
	}
	s.protocolViolation(fmt.Errorf("unsolicited ERROR for request %d (orig type %s)", msg.Request, msg.OrigType))
}
