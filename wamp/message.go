// Package wamp defines the WAMP v2 wire grammar: the twenty message
// variants used by the JSON text-frame subprotocol and the identifier and
// payload types they carry.
package wamp

// ID is a WAMP identifier: session, request, subscription, registration and
// publication IDs are all drawn from the same space, [0, 2^53].
type ID uint64

// MaxID is the largest value a conforming peer may allocate for an ID.
const MaxID = 1 << 53

// URI identifies a realm, topic, procedure or error.
type URI string

// Dict is a mapping from string keys to arbitrary JSON values, used for
// Details, Options, and keyword arguments. A nil Dict is absent on the wire;
// an empty, non-nil Dict is present but empty.
type Dict map[string]interface{}

// List is an ordered sequence of arbitrary JSON values, used for positional
// arguments. A nil List is absent on the wire; an empty, non-nil List is
// present but empty.
type List []interface{}

// MsgType is the small integer discriminant in the first slot of every
// WAMP message array.
type MsgType int

const (
	HELLO        MsgType = 1
	WELCOME      MsgType = 2
	ABORT        MsgType = 3
	GOODBYE      MsgType = 6
	ERROR        MsgType = 8
	PUBLISH      MsgType = 16
	PUBLISHED    MsgType = 17
	SUBSCRIBE    MsgType = 32
	SUBSCRIBED   MsgType = 33
	UNSUBSCRIBE  MsgType = 34
	UNSUBSCRIBED MsgType = 35
	EVENT        MsgType = 36
	CALL         MsgType = 48
	RESULT       MsgType = 50
	REGISTER     MsgType = 64
	REGISTERED   MsgType = 65
	UNREGISTER   MsgType = 66
	UNREGISTERED MsgType = 67
	INVOCATION   MsgType = 68
	YIELD        MsgType = 70
)

// String returns the WAMP spec name for a message type, or a numeric
// placeholder for anything this core doesn't recognize.
func (t MsgType) String() string {
	switch t {
	case HELLO:
		return "HELLO"
	case WELCOME:
		return "WELCOME"
	case ABORT:
		return "ABORT"
	case GOODBYE:
		return "GOODBYE"
	case ERROR:
		return "ERROR"
	case PUBLISH:
		return "PUBLISH"
	case PUBLISHED:
		return "PUBLISHED"
	case SUBSCRIBE:
		return "SUBSCRIBE"
	case SUBSCRIBED:
		return "SUBSCRIBED"
	case UNSUBSCRIBE:
		return "UNSUBSCRIBE"
	case UNSUBSCRIBED:
		return "UNSUBSCRIBED"
	case EVENT:
		return "EVENT"
	case CALL:
		return "CALL"
	case RESULT:
		return "RESULT"
	case REGISTER:
		return "REGISTER"
	case REGISTERED:
		return "REGISTERED"
	case UNREGISTER:
		return "UNREGISTER"
	case UNREGISTERED:
		return "UNREGISTERED"
	case INVOCATION:
		return "INVOCATION"
	case YIELD:
		return "YIELD"
	default:
		return "UNKNOWN"
	}
}

// Message is any of the twenty WAMP message variants.
type Message interface {
	MessageType() MsgType
}

// Hello is sent by the client to open a session: [1, realm, details].
type Hello struct {
	Realm   URI
	Details Dict
}

func (Hello) MessageType() MsgType { return HELLO }

// Welcome is sent by the router on successful HELLO: [2, session, details].
type Welcome struct {
	Session ID
	Details Dict
}

func (Welcome) MessageType() MsgType { return WELCOME }

// Abort is sent by either peer to abandon session establishment, or by the
// router to terminate an established session: [3, details, reason].
type Abort struct {
	Details Dict
	Reason  URI
}

func (Abort) MessageType() MsgType { return ABORT }

// Goodbye is sent by either peer to close an established session:
// [6, details, reason].
type Goodbye struct {
	Details Dict
	Reason  URI
}

func (Goodbye) MessageType() MsgType { return GOODBYE }

// Error replies to any outstanding request that failed:
// [8, origType, requestId, details, errorUri, (args?), (argsKw?)].
type Error struct {
	OrigType  MsgType
	Request   ID
	Details   Dict
	ErrorURI  URI
	Arguments List
	ArgsKw    Dict
}

func (Error) MessageType() MsgType { return ERROR }

// Publish requests a publication to a topic:
// [16, requestId, options, topic, (args?), (argsKw?)].
type Publish struct {
	Request   ID
	Options   Dict
	Topic     URI
	Arguments List
	ArgsKw    Dict
}

func (Publish) MessageType() MsgType { return PUBLISH }

// Published acknowledges a Publish that requested acknowledgement:
// [17, requestId, publicationId].
type Published struct {
	Request     ID
	Publication ID
}

func (Published) MessageType() MsgType { return PUBLISHED }

// Subscribe requests subscription to a topic: [32, requestId, options, topic].
type Subscribe struct {
	Request ID
	Options Dict
	Topic   URI
}

func (Subscribe) MessageType() MsgType { return SUBSCRIBE }

// Subscribed acknowledges a Subscribe: [33, requestId, subscriptionId].
type Subscribed struct {
	Request      ID
	Subscription ID
}

func (Subscribed) MessageType() MsgType { return SUBSCRIBED }

// Unsubscribe requests cancellation of a subscription:
// [34, requestId, subscriptionId].
type Unsubscribe struct {
	Request      ID
	Subscription ID
}

func (Unsubscribe) MessageType() MsgType { return UNSUBSCRIBE }

// Unsubscribed acknowledges an Unsubscribe: [35, requestId].
type Unsubscribed struct {
	Request ID
}

func (Unsubscribed) MessageType() MsgType { return UNSUBSCRIBED }

// Event delivers a publication to a subscriber:
// [36, subscriptionId, publicationId, details, (args?), (argsKw?)].
type Event struct {
	Subscription ID
	Publication  ID
	Details      Dict
	Arguments    List
	ArgsKw       Dict
}

func (Event) MessageType() MsgType { return EVENT }

// Call requests invocation of a procedure:
// [48, requestId, options, procedure, (args?), (argsKw?)].
type Call struct {
	Request   ID
	Options   Dict
	Procedure URI
	Arguments List
	ArgsKw    Dict
}

func (Call) MessageType() MsgType { return CALL }

// Result carries the outcome of a Call:
// [50, requestId, details, (args?), (argsKw?)].
type Result struct {
	Request   ID
	Details   Dict
	Arguments List
	ArgsKw    Dict
}

func (Result) MessageType() MsgType { return RESULT }

// Register requests registration of a procedure:
// [64, requestId, options, procedure].
type Register struct {
	Request   ID
	Options   Dict
	Procedure URI
}

func (Register) MessageType() MsgType { return REGISTER }

// Registered acknowledges a Register: [65, requestId, registrationId].
type Registered struct {
	Request      ID
	Registration ID
}

func (Registered) MessageType() MsgType { return REGISTERED }

// Unregister requests cancellation of a registration:
// [66, requestId, registrationId].
type Unregister struct {
	Request      ID
	Registration ID
}

func (Unregister) MessageType() MsgType { return UNREGISTER }

// Unregistered acknowledges an Unregister: [67, requestId].
type Unregistered struct {
	Request ID
}

func (Unregistered) MessageType() MsgType { return UNREGISTERED }

// Invocation delivers a call to a callee:
// [68, requestId, registrationId, details, (args?), (argsKw?)].
type Invocation struct {
	Request      ID
	Registration ID
	Details      Dict
	Arguments    List
	ArgsKw       Dict
}

func (Invocation) MessageType() MsgType { return INVOCATION }

// Yield answers an Invocation with a result:
// [70, requestId, options, (args?), (argsKw?)].
type Yield struct {
	Request   ID
	Options   Dict
	Arguments List
	ArgsKw    Dict
}

func (Yield) MessageType() MsgType { return YIELD }
