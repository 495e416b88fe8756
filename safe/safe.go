// Package safe provides panic-contained background execution for the
// detached tasks the session evaluator spawns to notify its Listener, so
// that a listener callback never blocks protocol processing.
package safe

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Go runs f in a new goroutine, recovering any panic and logging it at
// error level instead of crashing the process; the process exits with
// status 1 only when WAMPCORE_PANIC_FATAL is set. A panicking listener
// callback dispatched by the session therefore does not take the process
// down.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("panic", fmt.Sprint(r)).Msg("recovered panic in detached task")
				if os.Getenv("WAMPCORE_PANIC_FATAL") != "" {
					os.Exit(1)
				}
			}
		}()
		f()
	}()
}

// Dispatcher bounds the number of dispatched tasks running at once. Each
// Dispatch call still starts its own goroutine, which waits for a slot, so
// the number of waiting goroutines is not bounded. A nil *Dispatcher runs
// f unbounded, which is fine for tests and small programs.
type Dispatcher struct {
	sem *semaphore.Weighted
}

// NewDispatcher returns a Dispatcher that allows at most max concurrently
// running dispatched tasks.
func NewDispatcher(max int64) *Dispatcher {
	return &Dispatcher{sem: semaphore.NewWeighted(max)}
}

// Dispatch runs f in a detached goroutine once a slot is available. It
// never blocks the caller waiting for that slot; acquisition itself
// happens inside the spawned goroutine so Dispatch always returns
// immediately, preserving the evaluator's non-blocking suspension points.
func (d *Dispatcher) Dispatch(f func()) {
	if d == nil {
		Go(f)
		return
	}
	Go(func() {
		_ = d.sem.Acquire(context.Background(), 1)
		defer d.sem.Release(1)
		f()
	})
}
