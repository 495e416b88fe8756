package session

import "github.com/recordevolution/wampcore/wamp"

// Payload is the recurring shape carried by EVENT, INVOCATION and RESULT
// deliveries: a positional argument list plus a keyword dict, exactly as
// received off the wire.
type Payload struct {
	Arguments wamp.List
	ArgsKw    wamp.Dict
}

// SubscriptionEvent is the tagged variant delivered on the channel returned
// by Session.Subscribe. Exactly one of the terminal variants
// (SubscriptionClosed, SubscriptionFailed, UnsubscriptionFailed) is ever
// delivered, and it is always the last value received before the channel
// closes.
type SubscriptionEvent interface{ subscriptionEvent() }

// SubscriptionEstablished reports the router-assigned subscription id,
// following a successful SUBSCRIBE.
type SubscriptionEstablished struct{ Subscription wamp.ID }

// SubscriptionPayload wraps a single EVENT delivered for this subscription.
type SubscriptionPayload struct{ Payload }

// SubscriptionClosed is terminal: the subscription ended because the
// application called Unsubscribe and the router acknowledged it, or the
// session left the realm.
type SubscriptionClosed struct{}

// SubscriptionFailed is terminal: the router rejected the SUBSCRIBE.
type SubscriptionFailed struct{ ErrorURI wamp.URI }

// UnsubscriptionFailed is terminal: the router rejected the UNSUBSCRIBE.
// The channel closes after it and the session no longer tracks the
// subscription, so a later Unsubscribe for the same id returns
// errdefs.ErrUnknownHandle.
type UnsubscriptionFailed struct{ ErrorURI wamp.URI }

func (SubscriptionEstablished) subscriptionEvent() {}
func (SubscriptionPayload) subscriptionEvent()     {}
func (SubscriptionClosed) subscriptionEvent()      {}
func (SubscriptionFailed) subscriptionEvent()      {}
func (UnsubscriptionFailed) subscriptionEvent()    {}

// CallOutcome is how a callee's Invocation Responder reports the result of
// servicing an INVOCATION: either a YIELD payload, or an ERROR.
type CallOutcome struct {
	Failed    bool
	ErrorURI  wamp.URI
	Arguments wamp.List
	ArgsKw    wamp.Dict
}

// Succeed builds a successful CallOutcome carrying a YIELD payload.
func Succeed(args wamp.List, argsKw wamp.Dict) CallOutcome {
	return CallOutcome{Arguments: args, ArgsKw: argsKw}
}

// Fail builds a failed CallOutcome carrying an ERROR payload.
func Fail(errorURI wamp.URI, args wamp.List, argsKw wamp.Dict) CallOutcome {
	return CallOutcome{Failed: true, ErrorURI: errorURI, Arguments: args, ArgsKw: argsKw}
}

// Responder is handed to the application exactly once per INVOCATION, via
// a CalleeEvent Invocation. Calling it more than once is a no-op after the
// first call; calling it after the session has left JOINED is always a
// no-op.
type Responder func(CallOutcome)

// CalleeEvent is the tagged variant delivered on the channel returned by
// Session.Register.
type CalleeEvent interface{ calleeEvent() }

// ProcedureRegistered reports the router-assigned registration id,
// following a successful REGISTER.
type ProcedureRegistered struct{ Registration wamp.ID }

// Invocation is delivered once per INVOCATION the router routes to this
// registration. Respond must be called exactly once.
type Invocation struct {
	Payload
	Respond Responder
}

// ProcedureUnregistered is terminal: the application called Unregister and
// the router acknowledged it, or the session left the realm.
type ProcedureUnregistered struct{}

// RegistrationFailed is terminal: the router rejected the REGISTER.
type RegistrationFailed struct{ ErrorURI wamp.URI }

// UnregistrationFailed is terminal: the router rejected the UNREGISTER.
type UnregistrationFailed struct{ ErrorURI wamp.URI }

func (ProcedureRegistered) calleeEvent()   {}
func (Invocation) calleeEvent()            {}
func (ProcedureUnregistered) calleeEvent() {}
func (RegistrationFailed) calleeEvent()    {}
func (UnregistrationFailed) calleeEvent()  {}

// CallerEvent is the tagged variant delivered on the channel returned by
// Session.Call. Exactly one value is ever delivered, and the channel
// closes immediately after.
type CallerEvent interface{ callerEvent() }

// CallSucceeded carries the RESULT payload for a CALL.
type CallSucceeded struct{ Payload }

// CallFailed carries the ERROR payload for a CALL.
type CallFailed struct {
	ErrorURI  wamp.URI
	Arguments wamp.List
	ArgsKw    wamp.Dict
}

func (CallSucceeded) callerEvent() {}
func (CallFailed) callerEvent()    {}

// PublicationEvent is the tagged variant delivered on the channel returned
// by Session.Publish when acknowledgement was requested. Exactly one value
// is ever delivered, and the channel closes immediately after.
type PublicationEvent interface{ publicationEvent() }

// PublicationSucceeded carries the router-assigned publication id.
type PublicationSucceeded struct{ Publication wamp.ID }

// PublicationFailed carries the ERROR for a rejected PUBLISH.
type PublicationFailed struct{ ErrorURI wamp.URI }

func (PublicationSucceeded) publicationEvent() {}
func (PublicationFailed) publicationEvent()    {}
