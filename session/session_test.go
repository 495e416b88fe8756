package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/recordevolution/wampcore/errdefs"
	"github.com/recordevolution/wampcore/session"
	"github.com/recordevolution/wampcore/testutil"
	"github.com/recordevolution/wampcore/wamp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingListener is driven from the session's detached dispatcher
// goroutine, never from the test goroutine directly, so every field
// access goes through the mutex.
type recordingListener struct {
	mu       sync.Mutex
	joined   []string
	left     []bool
	shutdown int
	aborted  []string
}

func (r *recordingListener) OnRealmJoined(realm string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joined = append(r.joined, realm)
}

func (r *recordingListener) OnRealmLeft(realm string, fromRouter bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.left = append(r.left, fromRouter)
}

func (r *recordingListener) OnSessionShutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown++
}

func (r *recordingListener) OnSessionAborted(reason string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborted = append(r.aborted, reason)
}

func waitJoined(r *recordingListener) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.joined) == 0 {
		r.mu.Unlock()
		time.Sleep(time.Millisecond)
		r.mu.Lock()
	}
	return append([]string(nil), r.joined...)
}

func waitLeft(r *recordingListener) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.left) == 0 {
		r.mu.Unlock()
		time.Sleep(time.Millisecond)
		r.mu.Lock()
	}
	return append([]bool(nil), r.left...)
}

func waitAborted(r *recordingListener) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.aborted) == 0 {
		r.mu.Unlock()
		time.Sleep(time.Millisecond)
		r.mu.Lock()
	}
	return append([]string(nil), r.aborted...)
}

func waitShutdown(r *recordingListener) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.shutdown == 0 {
		r.mu.Unlock()
		time.Sleep(time.Millisecond)
		r.mu.Lock()
	}
	return r.shutdown
}

func errAlreadyJoined() error { return errdefs.ErrAlreadyJoined }

func newJoinedSession(t *testing.T) (*session.Session, *testutil.FakeTransport, *recordingListener) {
	t.Helper()
	ft := testutil.NewFakeTransport()
	lis := &recordingListener{}
	s := session.New(ft, lis)
	ft.Listener = s

	require.NoError(t, s.Join("realm1"))
	require.Equal(t, session.JOINING, s.State())

	ft.Deliver(wamp.Welcome{Session: 42, Details: wamp.Dict{}})
	require.Equal(t, session.JOINED, s.State())
	return s, ft, lis
}

func TestJoinSendsHello(t *testing.T) {
	ft := testutil.NewFakeTransport()
	s := session.New(ft, nil)
	ft.Listener = s

	require.NoError(t, s.Join("realm1"))
	assert.Equal(t, session.JOINING, s.State())
	assert.Equal(t, 1, ft.SentCount())

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	hello, ok := msg.(wamp.Hello)
	require.True(t, ok)
	assert.Equal(t, wamp.URI("realm1"), hello.Realm)
	roles, ok := hello.Details["roles"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, roles, "callee")
	assert.Contains(t, roles, "caller")
	assert.Contains(t, roles, "publisher")
	assert.Contains(t, roles, "subscriber")
}

func TestJoinTwiceFails(t *testing.T) {
	s, _, _ := newJoinedSession(t)
	assert.ErrorIs(t, s.Join("realm1"), errAlreadyJoined())
}

func TestWelcomeNotifiesListener(t *testing.T) {
	_, _, lis := newJoinedSession(t)
	assert.Equal(t, []string{"realm1"}, waitJoined(lis))
}

func TestLeaveHandshake(t *testing.T) {
	s, ft, lis := newJoinedSession(t)

	require.NoError(t, s.Leave(""))
	assert.Equal(t, session.LEAVING, s.State())

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	goodbye := msg.(wamp.Goodbye)
	assert.Equal(t, wamp.CloseRealm, goodbye.Reason)

	ft.Deliver(wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.CloseGoodbyeAndOut})
	assert.Equal(t, session.INITIAL, s.State())
	assert.Equal(t, -1, ft.ClosedAt) // leaving a realm keeps the transport open
	_ = lis
}

func TestRouterInitiatedGoodbyeIsAcknowledged(t *testing.T) {
	s, ft, lis := newJoinedSession(t)

	ft.Deliver(wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.CloseSystemShutdown})
	assert.Equal(t, session.SHUT_DOWN, s.State())

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	goodbye := msg.(wamp.Goodbye)
	assert.Equal(t, wamp.CloseGoodbyeAndOut, goodbye.Reason)
	assert.Equal(t, []bool{true}, waitLeft(lis))
}

func TestSubscribePublishEventUnsubscribe(t *testing.T) {
	s, ft, _ := newJoinedSession(t)

	events, err := s.Subscribe("com.example.topic", wamp.Dict{})
	require.NoError(t, err)

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	sub := msg.(wamp.Subscribe)

	ft.Deliver(wamp.Subscribed{Request: sub.Request, Subscription: 77})
	established := (<-events).(session.SubscriptionEstablished)
	assert.EqualValues(t, 77, established.Subscription)

	ft.Deliver(wamp.Event{Subscription: 77, Publication: 1, Details: wamp.Dict{}, Arguments: wamp.List{"hi"}})
	payload := (<-events).(session.SubscriptionPayload)
	assert.Equal(t, wamp.List{"hi"}, payload.Arguments)

	require.NoError(t, s.Unsubscribe(77))
	msg, err = wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	unsub := msg.(wamp.Unsubscribe)
	ft.Deliver(wamp.Unsubscribed{Request: unsub.Request})

	closedEv, ok := <-events
	require.True(t, ok)
	assert.IsType(t, session.SubscriptionClosed{}, closedEv)

	_, open := <-events
	assert.False(t, open)
}

func TestSubscribeFailure(t *testing.T) {
	s, ft, _ := newJoinedSession(t)

	events, err := s.Subscribe("com.example.topic", wamp.Dict{})
	require.NoError(t, err)

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	sub := msg.(wamp.Subscribe)

	ft.Deliver(wamp.Error{OrigType: wamp.SUBSCRIBE, Request: sub.Request, Details: wamp.Dict{}, ErrorURI: "wamp.error.not_authorized"})

	ev := (<-events).(session.SubscriptionFailed)
	assert.EqualValues(t, "wamp.error.not_authorized", ev.ErrorURI)
	_, open := <-events
	assert.False(t, open)
}

func TestPublishWithAcknowledge(t *testing.T) {
	s, ft, _ := newJoinedSession(t)

	events, err := s.Publish("com.example.topic", wamp.Dict{"acknowledge": true}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, events)

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	pub := msg.(wamp.Publish)

	ft.Deliver(wamp.Published{Request: pub.Request, Publication: 900})
	ev := (<-events).(session.PublicationSucceeded)
	assert.EqualValues(t, 900, ev.Publication)
}

func TestPublishWithoutAcknowledgeReturnsClosedEmptyChannel(t *testing.T) {
	s, _, _ := newJoinedSession(t)

	events, err := s.Publish("com.example.topic", wamp.Dict{}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, events)

	_, open := <-events
	assert.False(t, open)
}

func TestCallSucceeds(t *testing.T) {
	s, ft, _ := newJoinedSession(t)

	events, err := s.Call("com.example.add", wamp.Dict{}, wamp.List{1, 2}, nil)
	require.NoError(t, err)

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	call := msg.(wamp.Call)

	ft.Deliver(wamp.Result{Request: call.Request, Details: wamp.Dict{}, Arguments: wamp.List{3.0}})
	ev := (<-events).(session.CallSucceeded)
	assert.Equal(t, wamp.List{3.0}, ev.Arguments)
	_, open := <-events
	assert.False(t, open)
}

func TestCallFails(t *testing.T) {
	s, ft, _ := newJoinedSession(t)

	events, err := s.Call("com.example.add", wamp.Dict{}, nil, nil)
	require.NoError(t, err)

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	call := msg.(wamp.Call)

	ft.Deliver(wamp.Error{OrigType: wamp.CALL, Request: call.Request, Details: wamp.Dict{}, ErrorURI: "com.example.bad_args"})
	ev := (<-events).(session.CallFailed)
	assert.EqualValues(t, "com.example.bad_args", ev.ErrorURI)
}

func TestRegisterAndInvocationYield(t *testing.T) {
	s, ft, _ := newJoinedSession(t)

	calls, err := s.Register("com.example.add", wamp.Dict{})
	require.NoError(t, err)

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	reg := msg.(wamp.Register)

	ft.Deliver(wamp.Registered{Request: reg.Request, Registration: 55})
	registered := (<-calls).(session.ProcedureRegistered)
	assert.EqualValues(t, 55, registered.Registration)

	ft.Deliver(wamp.Invocation{Request: 900, Registration: 55, Details: wamp.Dict{}, Arguments: wamp.List{1.0, 2.0}})
	inv := (<-calls).(session.Invocation)
	assert.Equal(t, wamp.List{1.0, 2.0}, inv.Arguments)

	inv.Respond(session.Succeed(wamp.List{3.0}, nil))
	inv.Respond(session.Succeed(wamp.List{99.0}, nil)) // second call is a no-op

	msg, err = wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	yield := msg.(wamp.Yield)
	assert.EqualValues(t, 900, yield.Request)
	assert.Equal(t, wamp.List{3.0}, yield.Arguments)
	assert.Equal(t, 3, ft.SentCount()) // HELLO, REGISTER, YIELD — no second YIELD
}

func TestInvocationRespondFailThenError(t *testing.T) {
	s, ft, _ := newJoinedSession(t)

	calls, err := s.Register("com.example.add", wamp.Dict{})
	require.NoError(t, err)
	msg, _ := wamp.Decode(ft.LastSent())
	reg := msg.(wamp.Register)
	ft.Deliver(wamp.Registered{Request: reg.Request, Registration: 55})
	<-calls

	ft.Deliver(wamp.Invocation{Request: 901, Registration: 55, Details: wamp.Dict{}})
	inv := (<-calls).(session.Invocation)

	inv.Respond(session.Fail("com.example.boom", nil, nil))

	msg, err = wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	errMsg := msg.(wamp.Error)
	assert.Equal(t, wamp.INVOCATION, errMsg.OrigType)
	assert.EqualValues(t, "com.example.boom", errMsg.ErrorURI)
}

func TestUnsolicitedResponseAborts(t *testing.T) {
	s, ft, lis := newJoinedSession(t)

	ft.Deliver(wamp.Registered{Request: 12345, Registration: 1})

	assert.Equal(t, session.ABORTED, s.State())
	assert.Len(t, waitAborted(lis), 1)

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	abortMsg := msg.(wamp.Abort)
	assert.Equal(t, wamp.ErrProtocolViolation, abortMsg.Reason)
}

func TestMalformedFrameAborts(t *testing.T) {
	s, ft, _ := newJoinedSession(t)

	ft.DeliverRaw(`[33, "not-a-number"]`)

	assert.Equal(t, session.ABORTED, s.State())
	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	abortMsg := msg.(wamp.Abort)
	assert.Equal(t, wamp.ErrProtocolViolation, abortMsg.Reason)
}

func TestRouterAbortDuringJoining(t *testing.T) {
	ft := testutil.NewFakeTransport()
	lis := &recordingListener{}
	s := session.New(ft, lis)
	ft.Listener = s
	require.NoError(t, s.Join("realm1"))

	ft.Deliver(wamp.Abort{Details: wamp.Dict{"message": "no such realm"}, Reason: "wamp.error.no_such_realm"})

	assert.Equal(t, session.ABORTED, s.State())
	assert.Equal(t, []string{"wamp.error.no_such_realm"}, waitAborted(lis))
	assert.Equal(t, 1, ft.SentCount()) // just the HELLO — no outbound ABORT, router already aborted
}

func TestShutdownFromJoinedSendsGoodbye(t *testing.T) {
	s, ft, lis := newJoinedSession(t)

	require.NoError(t, s.Shutdown())
	assert.Equal(t, session.SHUTTING_DOWN, s.State())

	msg, err := wamp.Decode(ft.LastSent())
	require.NoError(t, err)
	goodbye := msg.(wamp.Goodbye)
	assert.Equal(t, wamp.CloseSystemShutdown, goodbye.Reason)

	ft.Deliver(wamp.Goodbye{Details: wamp.Dict{}, Reason: wamp.CloseGoodbyeAndOut})
	assert.Equal(t, session.SHUT_DOWN, s.State())
	assert.Equal(t, 1, waitShutdown(lis))
}

func TestShutdownFromInitialIsImmediate(t *testing.T) {
	ft := testutil.NewFakeTransport()
	lis := &recordingListener{}
	s := session.New(ft, lis)
	ft.Listener = s

	require.NoError(t, s.Shutdown())
	assert.Equal(t, session.SHUT_DOWN, s.State())
	require.NoError(t, s.Shutdown()) // idempotent
}
