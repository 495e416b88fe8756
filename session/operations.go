package session

import (
	"github.com/recordevolution/wampcore/errdefs"
	"github.com/recordevolution/wampcore/wamp"
)

// Subscribe sends SUBSCRIBE for topic and returns the channel on which
// every event for this subscription is delivered, terminating with
// SubscriptionClosed, SubscriptionFailed or UnsubscriptionFailed. Only
// valid while JOINED.
func (s *Session) Subscribe(topic wamp.URI, options wamp.Dict) (<-chan SubscriptionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != JOINED {
		return nil, errdefs.ErrNotJoined
	}

	request := s.nextID()
	text, err := wamp.Encode(wamp.Subscribe{Request: request, Options: options, Topic: topic})
	if err != nil {
		s.ids.Release(request)
		return nil, err
	}
	if err := s.conn.Send(text); err != nil {
		s.ids.Release(request)
		return nil, errdefs.Transport(err)
	}

	sk := newSink[SubscriptionEvent](sinkBuffer)
	s.regs.pendingSubscriptions[request] = sk
	return sk.out, nil
}

// Unsubscribe sends UNSUBSCRIBE for a subscription id obtained from a
// SubscriptionEstablished event. The original subscription's channel
// receives the terminal SubscriptionClosed or UnsubscriptionFailed event;
// this call does not return a second channel.
func (s *Session) Unsubscribe(subscription wamp.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != JOINED {
		return errdefs.ErrNotJoined
	}
	sk, ok := s.regs.subscriptions[subscription]
	if !ok {
		return errdefs.ErrUnknownHandle
	}

	request := s.nextID()
	text, err := wamp.Encode(wamp.Unsubscribe{Request: request, Subscription: subscription})
	if err != nil {
		s.ids.Release(request)
		return err
	}
	if err := s.conn.Send(text); err != nil {
		s.ids.Release(request)
		return errdefs.Transport(err)
	}

	delete(s.regs.subscriptions, subscription)
	s.regs.pendingUnsubscriptions[request] = pendingUnsub{subscription: subscription, sink: sk}
	return nil
}

// Publish sends PUBLISH to topic. When options carries acknowledge=true,
// the returned channel delivers exactly one PublicationSucceeded or
// PublicationFailed event and then closes; otherwise Publish returns an
// already-closed, empty channel, matching an unacknowledged,
// fire-and-forget publication — ranging over it returns immediately.
func (s *Session) Publish(topic wamp.URI, options wamp.Dict, args wamp.List, argsKw wamp.Dict) (<-chan PublicationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != JOINED {
		return nil, errdefs.ErrNotJoined
	}

	acknowledge, _ := options["acknowledge"].(bool)

	request := s.nextID()
	text, err := wamp.Encode(wamp.Publish{Request: request, Options: options, Topic: topic, Arguments: args, ArgsKw: argsKw})
	if err != nil {
		s.ids.Release(request)
		return nil, err
	}
	if err := s.conn.Send(text); err != nil {
		s.ids.Release(request)
		return nil, errdefs.Transport(err)
	}

	if !acknowledge {
		s.ids.Release(request)
		empty := make(chan PublicationEvent)
		close(empty)
		return empty, nil
	}

	sk := newSink[PublicationEvent](1)
	s.regs.pendingPublications[request] = sk
	return sk.out, nil
}

// Register sends REGISTER for procedure and returns the channel on which
// ProcedureRegistered, every routed Invocation, and finally
// ProcedureUnregistered, RegistrationFailed or UnregistrationFailed are
// delivered.
func (s *Session) Register(procedure wamp.URI, options wamp.Dict) (<-chan CalleeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != JOINED {
		return nil, errdefs.ErrNotJoined
	}

	request := s.nextID()
	text, err := wamp.Encode(wamp.Register{Request: request, Options: options, Procedure: procedure})
	if err != nil {
		s.ids.Release(request)
		return nil, err
	}
	if err := s.conn.Send(text); err != nil {
		s.ids.Release(request)
		return nil, errdefs.Transport(err)
	}

	sk := newSink[CalleeEvent](sinkBuffer)
	s.regs.pendingRegistrations[request] = sk
	return sk.out, nil
}

// Unregister sends UNREGISTER for a registration id obtained from a
// ProcedureRegistered event. The terminal event is delivered on the
// registration's own channel, as with Unsubscribe.
func (s *Session) Unregister(registration wamp.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != JOINED {
		return errdefs.ErrNotJoined
	}
	sk, ok := s.regs.registrations[registration]
	if !ok {
		return errdefs.ErrUnknownHandle
	}

	request := s.nextID()
	text, err := wamp.Encode(wamp.Unregister{Request: request, Registration: registration})
	if err != nil {
		s.ids.Release(request)
		return err
	}
	if err := s.conn.Send(text); err != nil {
		s.ids.Release(request)
		return errdefs.Transport(err)
	}

	delete(s.regs.registrations, registration)
	s.regs.pendingUnregistrations[request] = pendingUnreg{registration: registration, sink: sk}
	return nil
}

// Call sends CALL to procedure and returns a channel delivering exactly
// one CallSucceeded or CallFailed event before closing. Progressive call
// results are out of scope; a router that sends more than one RESULT for
// the same request is treated as a protocol violation when the second one
// arrives, since the first already consumed and closed the pending entry.
func (s *Session) Call(procedure wamp.URI, options wamp.Dict, args wamp.List, argsKw wamp.Dict) (<-chan CallerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != JOINED {
		return nil, errdefs.ErrNotJoined
	}

	request := s.nextID()
	text, err := wamp.Encode(wamp.Call{Request: request, Options: options, Procedure: procedure, Arguments: args, ArgsKw: argsKw})
	if err != nil {
		s.ids.Release(request)
		return nil, err
	}
	if err := s.conn.Send(text); err != nil {
		s.ids.Release(request)
		return nil, errdefs.Transport(err)
	}

	sk := newSink[CallerEvent](1)
	s.regs.pendingCalls[request] = sk
	return sk.out, nil
}
