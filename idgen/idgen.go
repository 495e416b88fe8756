// Package idgen allocates the client-side request identifiers a WAMP
// session hands out for SUBSCRIBE, UNSUBSCRIBE, PUBLISH, REGISTER,
// UNREGISTER and CALL requests.
package idgen

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/recordevolution/wampcore/wamp"
)

// Allocator yields identifiers in [1, 2^53] that are unique among
// currently-held ids, and releases them once a correlating response
// arrives. The zero value is not usable; use New.
//
// Allocator is safe for concurrent use, but the session core only ever
// touches it from within its serialized evaluator (see package session);
// the locking here is defensive, not load-bearing for protocol ordering.
type Allocator struct {
	mu   sync.Mutex
	held map[wamp.ID]struct{}
}

// New returns an empty Allocator.
func New() *Allocator {
	return &Allocator{held: make(map[wamp.ID]struct{})}
}

// NewID returns a previously-unused identifier and marks it held.
func (a *Allocator) NewID() wamp.ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	for {
		id := randomID()
		if _, taken := a.held[id]; taken {
			continue
		}
		a.held[id] = struct{}{}
		return id
	}
}

// Release removes id from the held set. Releasing an id that isn't held is
// a no-op.
func (a *Allocator) Release(id wamp.ID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.held, id)
}

// Held reports whether id is currently allocated.
func (a *Allocator) Held(id wamp.ID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.held[id]
	return ok
}

var maxIDBig = big.NewInt(wamp.MaxID)

// randomID draws a uniformly random id in [1, 2^53], matching the id space
// WAMP peers use for session, request, subscription, registration and
// publication identifiers.
func randomID() wamp.ID {
	n, err := rand.Int(rand.Reader, maxIDBig)
	if err != nil {
		// crypto/rand failing is not a condition this allocator can
		// meaningfully recover from.
		panic(err)
	}
	return wamp.ID(n.Int64() + 1)
}
