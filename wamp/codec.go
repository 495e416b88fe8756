package wamp

import (
	"encoding/json"
	"fmt"
)

// InvalidKind classifies why Decode rejected a text frame.
type InvalidKind int

const (
	// ParseErrorKind means the text wasn't a well-formed JSON array, or its
	// first element wasn't an integer message type.
	ParseErrorKind InvalidKind = iota
	// UnknownTypeKind means the first element was a well-formed integer but
	// not one of the twenty recognized message types.
	UnknownTypeKind
	// MalformedKind means the message type was recognized but the array was
	// too short to carry its required fields, or a required field had the
	// wrong JSON shape.
	MalformedKind
)

func (k InvalidKind) String() string {
	switch k {
	case ParseErrorKind:
		return "parse error"
	case UnknownTypeKind:
		return "unknown message type"
	case MalformedKind:
		return "malformed message"
	default:
		return "invalid message"
	}
}

// InvalidMessage is returned by Decode when the input text does not decode
// to one of the twenty WAMP message variants. It never round-trips
// through Encode.
type InvalidMessage struct {
	Text string
	Kind InvalidKind
	Err  error
}

func (m *InvalidMessage) Error() string {
	if m.Err != nil {
		return fmt.Sprintf("wamp: %s: %v", m.Kind, m.Err)
	}
	return fmt.Sprintf("wamp: %s", m.Kind)
}

func (m *InvalidMessage) Unwrap() error { return m.Err }

func invalid(text string, kind InvalidKind, err error) (Message, error) {
	return nil, &InvalidMessage{Text: text, Kind: kind, Err: err}
}

// Encode renders a Message as compact, deterministically-ordered JSON: a
// top-level array whose first element is the message's integer type code,
// followed by its fields in wire order. Optional Arguments/ArgsKw are
// included only when present; if ArgsKw is present but Arguments is absent,
// an empty Arguments array is synthesized to preserve the positional slot.
func Encode(m Message) (string, error) {
	arr, err := positional(m)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(arr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func positional(m Message) ([]interface{}, error) {
	switch v := m.(type) {
	case Hello:
		return []interface{}{int(HELLO), v.Realm, v.Details}, nil
	case Welcome:
		return []interface{}{int(WELCOME), v.Session, v.Details}, nil
	case Abort:
		return []interface{}{int(ABORT), v.Details, v.Reason}, nil
	case Goodbye:
		return []interface{}{int(GOODBYE), v.Details, v.Reason}, nil
	case Error:
		return appendPayload([]interface{}{int(ERROR), int(v.OrigType), v.Request, v.Details, v.ErrorURI}, v.Arguments, v.ArgsKw), nil
	case Publish:
		return appendPayload([]interface{}{int(PUBLISH), v.Request, v.Options, v.Topic}, v.Arguments, v.ArgsKw), nil
	case Published:
		return []interface{}{int(PUBLISHED), v.Request, v.Publication}, nil
	case Subscribe:
		return []interface{}{int(SUBSCRIBE), v.Request, v.Options, v.Topic}, nil
	case Subscribed:
		return []interface{}{int(SUBSCRIBED), v.Request, v.Subscription}, nil
	case Unsubscribe:
		return []interface{}{int(UNSUBSCRIBE), v.Request, v.Subscription}, nil
	case Unsubscribed:
		return []interface{}{int(UNSUBSCRIBED), v.Request}, nil
	case Event:
		return appendPayload([]interface{}{int(EVENT), v.Subscription, v.Publication, v.Details}, v.Arguments, v.ArgsKw), nil
	case Call:
		return appendPayload([]interface{}{int(CALL), v.Request, v.Options, v.Procedure}, v.Arguments, v.ArgsKw), nil
	case Result:
		return appendPayload([]interface{}{int(RESULT), v.Request, v.Details}, v.Arguments, v.ArgsKw), nil
	case Register:
		return []interface{}{int(REGISTER), v.Request, v.Options, v.Procedure}, nil
	case Registered:
		return []interface{}{int(REGISTERED), v.Request, v.Registration}, nil
	case Unregister:
		return []interface{}{int(UNREGISTER), v.Request, v.Registration}, nil
	case Unregistered:
		return []interface{}{int(UNREGISTERED), v.Request}, nil
	case Invocation:
		return appendPayload([]interface{}{int(INVOCATION), v.Request, v.Registration, v.Details}, v.Arguments, v.ArgsKw), nil
	case Yield:
		return appendPayload([]interface{}{int(YIELD), v.Request, v.Options}, v.Arguments, v.ArgsKw), nil
	default:
		return nil, fmt.Errorf("wamp: cannot encode unrecognized message %T", m)
	}
}

// appendPayload implements the trailing args/argsKw rule shared by every
// variant that carries one: emit nothing if both are absent, emit Arguments
// alone if only it is present, and synthesize an empty Arguments array when
// only ArgsKw is present so ArgsKw keeps its positional slot.
func appendPayload(head []interface{}, args List, argsKw Dict) []interface{} {
	switch {
	case args == nil && argsKw == nil:
		return head
	case argsKw == nil:
		return append(head, args)
	case args == nil:
		return append(head, List{}, argsKw)
	default:
		return append(head, args, argsKw)
	}
}

// Decode parses a single WAMP text frame into a Message. Any structural or
// grammatical failure is returned as a non-nil *InvalidMessage error with
// the original text attached.
func Decode(text string) (Message, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return invalid(text, ParseErrorKind, err)
	}
	if len(raw) == 0 {
		return invalid(text, ParseErrorKind, fmt.Errorf("empty array"))
	}

	var typeNum int
	if err := json.Unmarshal(raw[0], &typeNum); err != nil {
		return invalid(text, ParseErrorKind, err)
	}

	switch MsgType(typeNum) {
	case HELLO:
		return decodeHello(text, raw)
	case WELCOME:
		return decodeWelcome(text, raw)
	case ABORT:
		return decodeAbort(text, raw)
	case GOODBYE:
		return decodeGoodbye(text, raw)
	case ERROR:
		return decodeError(text, raw)
	case PUBLISH:
		return decodePublish(text, raw)
	case PUBLISHED:
		return decodePublished(text, raw)
	case SUBSCRIBE:
		return decodeSubscribe(text, raw)
	case SUBSCRIBED:
		return decodeSubscribed(text, raw)
	case UNSUBSCRIBE:
		return decodeUnsubscribe(text, raw)
	case UNSUBSCRIBED:
		return decodeUnsubscribed(text, raw)
	case EVENT:
		return decodeEvent(text, raw)
	case CALL:
		return decodeCall(text, raw)
	case RESULT:
		return decodeResult(text, raw)
	case REGISTER:
		return decodeRegister(text, raw)
	case REGISTERED:
		return decodeRegistered(text, raw)
	case UNREGISTER:
		return decodeUnregister(text, raw)
	case UNREGISTERED:
		return decodeUnregistered(text, raw)
	case INVOCATION:
		return decodeInvocation(text, raw)
	case YIELD:
		return decodeYield(text, raw)
	default:
		return invalid(text, UnknownTypeKind, fmt.Errorf("message type %d", typeNum))
	}
}

func need(text string, raw []json.RawMessage, n int) error {
	if len(raw) < n {
		return fmt.Errorf("wamp: expected at least %d elements, got %d", n, len(raw))
	}
	return nil
}

func field(raw []json.RawMessage, i int, v interface{}) error {
	return json.Unmarshal(raw[i], v)
}

func malformed(text string, err error) (Message, error) {
	return invalid(text, MalformedKind, err)
}

// decodePayload reads the optional trailing Arguments/ArgsKw pair starting
// at index i, if present.
func decodePayload(raw []json.RawMessage, i int) (List, Dict, error) {
	var args List
	var argsKw Dict
	if len(raw) > i {
		if err := field(raw, i, &args); err != nil {
			return nil, nil, err
		}
	}
	if len(raw) > i+1 {
		if err := field(raw, i+1, &argsKw); err != nil {
			return nil, nil, err
		}
	}
	return args, argsKw, nil
}

func decodeHello(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Hello
	if err := field(raw, 1, &m.Realm); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Details); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeWelcome(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Welcome
	if err := field(raw, 1, &m.Session); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Details); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeAbort(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Abort
	if err := field(raw, 1, &m.Details); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Reason); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeGoodbye(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Goodbye
	if err := field(raw, 1, &m.Details); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Reason); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeError(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 5); err != nil {
		return malformed(text, err)
	}
	var m Error
	var origType int
	if err := field(raw, 1, &origType); err != nil {
		return malformed(text, err)
	}
	m.OrigType = MsgType(origType)
	if err := field(raw, 2, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 3, &m.Details); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 4, &m.ErrorURI); err != nil {
		return malformed(text, err)
	}
	args, argsKw, err := decodePayload(raw, 5)
	if err != nil {
		return malformed(text, err)
	}
	m.Arguments, m.ArgsKw = args, argsKw
	return m, nil
}

func decodePublish(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 4); err != nil {
		return malformed(text, err)
	}
	var m Publish
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Options); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 3, &m.Topic); err != nil {
		return malformed(text, err)
	}
	args, argsKw, err := decodePayload(raw, 4)
	if err != nil {
		return malformed(text, err)
	}
	m.Arguments, m.ArgsKw = args, argsKw
	return m, nil
}

func decodePublished(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Published
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Publication); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeSubscribe(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 4); err != nil {
		return malformed(text, err)
	}
	var m Subscribe
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Options); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 3, &m.Topic); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeSubscribed(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Subscribed
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Subscription); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeUnsubscribe(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Unsubscribe
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Subscription); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeUnsubscribed(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 2); err != nil {
		return malformed(text, err)
	}
	var m Unsubscribed
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeEvent(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 4); err != nil {
		return malformed(text, err)
	}
	var m Event
	if err := field(raw, 1, &m.Subscription); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Publication); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 3, &m.Details); err != nil {
		return malformed(text, err)
	}
	args, argsKw, err := decodePayload(raw, 4)
	if err != nil {
		return malformed(text, err)
	}
	m.Arguments, m.ArgsKw = args, argsKw
	return m, nil
}

func decodeCall(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 4); err != nil {
		return malformed(text, err)
	}
	var m Call
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Options); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 3, &m.Procedure); err != nil {
		return malformed(text, err)
	}
	args, argsKw, err := decodePayload(raw, 4)
	if err != nil {
		return malformed(text, err)
	}
	m.Arguments, m.ArgsKw = args, argsKw
	return m, nil
}

func decodeResult(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Result
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Details); err != nil {
		return malformed(text, err)
	}
	args, argsKw, err := decodePayload(raw, 3)
	if err != nil {
		return malformed(text, err)
	}
	m.Arguments, m.ArgsKw = args, argsKw
	return m, nil
}

func decodeRegister(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 4); err != nil {
		return malformed(text, err)
	}
	var m Register
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Options); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 3, &m.Procedure); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeRegistered(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Registered
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Registration); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeUnregister(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Unregister
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Registration); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeUnregistered(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 2); err != nil {
		return malformed(text, err)
	}
	var m Unregistered
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	return m, nil
}

func decodeInvocation(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 4); err != nil {
		return malformed(text, err)
	}
	var m Invocation
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Registration); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 3, &m.Details); err != nil {
		return malformed(text, err)
	}
	args, argsKw, err := decodePayload(raw, 4)
	if err != nil {
		return malformed(text, err)
	}
	m.Arguments, m.ArgsKw = args, argsKw
	return m, nil
}

func decodeYield(text string, raw []json.RawMessage) (Message, error) {
	if err := need(text, raw, 3); err != nil {
		return malformed(text, err)
	}
	var m Yield
	if err := field(raw, 1, &m.Request); err != nil {
		return malformed(text, err)
	}
	if err := field(raw, 2, &m.Options); err != nil {
		return malformed(text, err)
	}
	args, argsKw, err := decodePayload(raw, 3)
	if err != nil {
		return malformed(text, err)
	}
	m.Arguments, m.ArgsKw = args, argsKw
	return m, nil
}
