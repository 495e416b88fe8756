package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/recordevolution/wampcore/config"
	"github.com/recordevolution/wampcore/session"
	"github.com/recordevolution/wampcore/transport/websocket"
)

// joinWaiter is a session.Listener that resolves a one-shot channel the
// first time the session reaches JOINED or ABORTED, so a subcommand can
// block on Join the way an interactive user expects a synchronous "connect"
// step to behave, while the underlying session stays fully asynchronous.
type joinWaiter struct {
	session.NopListener

	once sync.Once
	done chan error
}

func newJoinWaiter() *joinWaiter {
	return &joinWaiter{done: make(chan error, 1)}
}

func (w *joinWaiter) OnRealmJoined(realm string) {
	w.once.Do(func() { w.done <- nil })
}

func (w *joinWaiter) OnSessionAborted(reason string, err error) {
	w.once.Do(func() { w.done <- fmt.Errorf("session aborted: %s: %w", reason, err) })
}

// connectAndJoin dials the router named in cfg and blocks until the
// resulting session reaches JOINED, or cfg.ResponseTimeout elapses. The
// caller owns the returned Session and is responsible for eventually
// calling Shutdown.
func connectAndJoin(cfg *config.SessionConfig) (*session.Session, error) {
	waiter := newJoinWaiter()

	var sess *session.Session
	relay := &listenerRelay{target: &sess}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ResponseTimeout)
	defer cancel()

	conn, err := websocket.Dial(ctx, cfg.RouterURL, cfg.TLSConfig, relay)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RouterURL, err)
	}

	sess = session.New(conn, waiter)
	relay.set(sess)

	if err := sess.Join(cfg.Realm); err != nil {
		_ = conn.Close(1000, "join failed")
		return nil, fmt.Errorf("join %s: %w", cfg.Realm, err)
	}

	select {
	case err := <-waiter.done:
		if err != nil {
			return nil, err
		}
		return sess, nil
	case <-time.After(cfg.ResponseTimeout):
		_ = sess.Shutdown()
		return nil, fmt.Errorf("timed out waiting to join realm %q", cfg.Realm)
	}
}

// listenerRelay exists solely so websocket.Dial's transport.Listener can be
// wired before the Session it will forward to has been constructed: Dial
// starts reading frames immediately, before session.New can return.
type listenerRelay struct {
	mu     sync.Mutex
	target **session.Session
	buffer []func(*session.Session)
}

func (r *listenerRelay) set(s *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.target = s
	for _, fn := range r.buffer {
		fn(s)
	}
	r.buffer = nil
}

func (r *listenerRelay) with(fn func(*session.Session)) {
	r.mu.Lock()
	if *r.target != nil {
		s := *r.target
		r.mu.Unlock()
		fn(s)
		return
	}
	r.buffer = append(r.buffer, fn)
	r.mu.Unlock()
}

func (r *listenerRelay) OnOpen() {
	r.with(func(s *session.Session) { s.OnOpen() })
}

func (r *listenerRelay) OnText(text string) {
	r.with(func(s *session.Session) { s.OnText(text) })
}

func (r *listenerRelay) OnBinary(data []byte) {
	r.with(func(s *session.Session) { s.OnBinary(data) })
}

func (r *listenerRelay) OnClosing(code int, reason string) {
	r.with(func(s *session.Session) { s.OnClosing(code, reason) })
}

func (r *listenerRelay) OnClosed(code int, reason string) {
	r.with(func(s *session.Session) { s.OnClosed(code, reason) })
}

func (r *listenerRelay) OnFailure(err error) {
	r.with(func(s *session.Session) { s.OnFailure(err) })
}
