package wamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHello(t *testing.T) {
	m := Hello{Realm: "somerealm", Details: Dict{"roles": Dict{"publisher": Dict{}, "subscriber": Dict{}, "caller": Dict{}, "callee": Dict{}}}}
	text, err := Encode(m)
	require.NoError(t, err)
	assert.Equal(t, `[1,"somerealm",{"roles":{"callee":{},"caller":{},"publisher":{},"subscriber":{}}}]`, text)
}

func TestDecodeWelcome(t *testing.T) {
	msg, err := Decode(`[2,9129137332,{"roles":{"broker":{}}}]`)
	require.NoError(t, err)
	w, ok := msg.(Welcome)
	require.True(t, ok)
	assert.Equal(t, ID(9129137332), w.Session)
	// nested objects decode as plain maps; only the top level is a Dict.
	assert.Equal(t, Dict{"roles": map[string]interface{}{"broker": map[string]interface{}{}}}, w.Details)
}

func TestRoundTrip(t *testing.T) {
	cases := []Message{
		Hello{Realm: "r1", Details: Dict{}},
		Welcome{Session: 1, Details: Dict{}},
		Abort{Details: Dict{"message": "bad"}, Reason: "wamp.error.protocol_violation"},
		Goodbye{Details: Dict{}, Reason: "wamp.close.goodbye_and_out"},
		Error{OrigType: SUBSCRIBE, Request: 5, Details: Dict{}, ErrorURI: "wamp.error.not_authorized"},
		Error{OrigType: CALL, Request: 5, Details: Dict{}, ErrorURI: "wamp.error.canceled", Arguments: List{"x"}, ArgsKw: Dict{"k": 1.0}},
		Publish{Request: 1, Options: Dict{}, Topic: "t"},
		Publish{Request: 1, Options: Dict{"acknowledge": true}, Topic: "t", Arguments: List{1.0, "two"}},
		Published{Request: 1, Publication: 2},
		Subscribe{Request: 1, Options: Dict{}, Topic: "t"},
		Subscribed{Request: 1, Subscription: 2},
		Unsubscribe{Request: 1, Subscription: 2},
		Unsubscribed{Request: 1},
		Event{Subscription: 1, Publication: 2, Details: Dict{}},
		Event{Subscription: 1, Publication: 2, Details: Dict{}, Arguments: List{}, ArgsKw: Dict{"color": "orange"}},
		Call{Request: 1, Options: Dict{}, Procedure: "p", Arguments: List{"Hello, world!"}},
		Result{Request: 1, Details: Dict{}, Arguments: List{"Hello, world!"}},
		Register{Request: 1, Options: Dict{}, Procedure: "p"},
		Registered{Request: 1, Registration: 2},
		Unregister{Request: 1, Registration: 2},
		Unregistered{Request: 1},
		Invocation{Request: 1, Registration: 2, Details: Dict{}, Arguments: List{"johnny"}, ArgsKw: Dict{"firstname": "John"}},
		Yield{Request: 1, Options: Dict{}},
		Yield{Request: 1, Options: Dict{}, Arguments: List{}, ArgsKw: Dict{"userid": 123.0}},
	}

	for _, m := range cases {
		text, err := Encode(m)
		require.NoError(t, err)
		decoded, err := Decode(text)
		require.NoError(t, err)
		assert.Equal(t, m, decoded)
	}
}

// TestArgsKwSynthesizesEmptyArgs covers the one documented non-bijective
// case: args=absent, argsKw=present encodes identically to args=empty,
// argsKw=present, so decode always returns the latter shape.
func TestArgsKwSynthesizesEmptyArgs(t *testing.T) {
	absent := Result{Request: 1, Details: Dict{}, ArgsKw: Dict{"a": 1.0}}
	empty := Result{Request: 1, Details: Dict{}, Arguments: List{}, ArgsKw: Dict{"a": 1.0}}

	textAbsent, err := Encode(absent)
	require.NoError(t, err)
	textEmpty, err := Encode(empty)
	require.NoError(t, err)
	assert.Equal(t, textEmpty, textAbsent)

	decoded, err := Decode(textAbsent)
	require.NoError(t, err)
	assert.Equal(t, empty, decoded)
}

func TestEncodeIsCompact(t *testing.T) {
	text, err := Encode(Subscribed{Request: 1, Subscription: 2})
	require.NoError(t, err)
	assert.NotContains(t, text, " ")
	assert.NotContains(t, text, "\n")
}

func TestDecodeRejectsNonArray(t *testing.T) {
	_, err := Decode(`{"not": "an array"}`)
	require.Error(t, err)
	var invalidMsg *InvalidMessage
	require.ErrorAs(t, err, &invalidMsg)
	assert.Equal(t, ParseErrorKind, invalidMsg.Kind)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(`not json at all`)
	var invalidMsg *InvalidMessage
	require.ErrorAs(t, err, &invalidMsg)
	assert.Equal(t, ParseErrorKind, invalidMsg.Kind)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode(`[999,"x"]`)
	var invalidMsg *InvalidMessage
	require.ErrorAs(t, err, &invalidMsg)
	assert.Equal(t, UnknownTypeKind, invalidMsg.Kind)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode(`[33,999]`) // SUBSCRIBED missing subscriptionId
	var invalidMsg *InvalidMessage
	require.ErrorAs(t, err, &invalidMsg)
	assert.Equal(t, MalformedKind, invalidMsg.Kind)
}

func TestDecodeRejectsEmptyArray(t *testing.T) {
	_, err := Decode(`[]`)
	var invalidMsg *InvalidMessage
	require.ErrorAs(t, err, &invalidMsg)
	assert.Equal(t, ParseErrorKind, invalidMsg.Kind)
}

func TestScenarioWirePayloads(t *testing.T) {
	t.Run("subscribe", func(t *testing.T) {
		text, err := Encode(Subscribe{Request: 713845233, Options: Dict{}, Topic: "com.myapp.mytopic1"})
		require.NoError(t, err)
		assert.Equal(t, `[32,713845233,{},"com.myapp.mytopic1"]`, text)
	})

	t.Run("event", func(t *testing.T) {
		msg, err := Decode(`[36,5512315355,4429313566,{},[],{"color":"orange","sizes":[23,42,7]}]`)
		require.NoError(t, err)
		ev := msg.(Event)
		assert.Equal(t, ID(5512315355), ev.Subscription)
		assert.Equal(t, List{}, ev.Arguments)
		assert.Equal(t, "orange", ev.ArgsKw["color"])
	})

	t.Run("publish with acknowledge", func(t *testing.T) {
		text, err := Encode(Publish{Request: 239714735, Options: Dict{"acknowledge": true}, Topic: "com.myapp.mytopic1"})
		require.NoError(t, err)
		assert.Equal(t, `[16,239714735,{"acknowledge":true},"com.myapp.mytopic1"]`, text)
	})

	t.Run("publication error", func(t *testing.T) {
		msg, err := Decode(`[8,16,239714735,{},"wamp.error.not_authorized"]`)
		require.NoError(t, err)
		e := msg.(Error)
		assert.Equal(t, PUBLISH, e.OrigType)
		assert.Equal(t, URI("wamp.error.not_authorized"), e.ErrorURI)
	})

	t.Run("call", func(t *testing.T) {
		text, err := Encode(Call{Request: 7814135, Options: Dict{}, Procedure: "com.myapp.echo", Arguments: List{"Hello, world!"}})
		require.NoError(t, err)
		assert.Equal(t, `[48,7814135,{},"com.myapp.echo",["Hello, world!"]]`, text)
	})

	t.Run("yield", func(t *testing.T) {
		text, err := Encode(Yield{Request: 6131533, Options: Dict{}, Arguments: List{}, ArgsKw: Dict{"userid": 123, "karma": 10}})
		require.NoError(t, err)
		assert.Equal(t, `[70,6131533,{},[],{"karma":10,"userid":123}]`, text)
	})

	t.Run("goodbye system shutdown", func(t *testing.T) {
		msg, err := Decode(`[6,{},"wamp.close.system_shutdown"]`)
		require.NoError(t, err)
		g := msg.(Goodbye)
		assert.Equal(t, URI("wamp.close.system_shutdown"), g.Reason)
	})
}
