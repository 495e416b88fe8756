package session

import (
	"github.com/recordevolution/wampcore/wamp"

	"golang.org/x/sync/errgroup"
)

const sinkBuffer = 32

type pendingUnsub struct {
	subscription wamp.ID
	sink         *sink[SubscriptionEvent]
}

type pendingUnreg struct {
	registration wamp.ID
	sink         *sink[CalleeEvent]
}

// registries holds every request/response correlation table and
// established-subscription/registration table described in spec §4.2. It
// is only ever touched while Session.mu is held.
type registries struct {
	pendingSubscriptions   map[wamp.ID]*sink[SubscriptionEvent]
	pendingUnsubscriptions map[wamp.ID]pendingUnsub
	subscriptions          map[wamp.ID]*sink[SubscriptionEvent]

	pendingRegistrations   map[wamp.ID]*sink[CalleeEvent]
	pendingUnregistrations map[wamp.ID]pendingUnreg
	registrations          map[wamp.ID]*sink[CalleeEvent]

	pendingCalls        map[wamp.ID]*sink[CallerEvent]
	pendingPublications map[wamp.ID]*sink[PublicationEvent]
}

func newRegistries() registries {
	return registries{
		pendingSubscriptions:   make(map[wamp.ID]*sink[SubscriptionEvent]),
		pendingUnsubscriptions: make(map[wamp.ID]pendingUnsub),
		subscriptions:          make(map[wamp.ID]*sink[SubscriptionEvent]),
		pendingRegistrations:   make(map[wamp.ID]*sink[CalleeEvent]),
		pendingUnregistrations: make(map[wamp.ID]pendingUnreg),
		registrations:          make(map[wamp.ID]*sink[CalleeEvent]),
		pendingCalls:           make(map[wamp.ID]*sink[CallerEvent]),
		pendingPublications:    make(map[wamp.ID]*sink[PublicationEvent]),
	}
}

// drain closes every live sink across every table with the given failure
// reason, and empties the tables. Called while leaving JOINED, whether via
// GOODBYE or ABORT. Each table's sinks are terminated concurrently via
// errgroup, since push/closeSink are independent per sink and there may be
// many of them outstanding at once; none of this can fail, so the only
// thing Wait gives us is the fan-out itself.
func (r *registries) drain(reason wamp.URI) {
	var g errgroup.Group

	for _, s := range r.pendingSubscriptions {
		s := s
		g.Go(func() error {
			s.push(SubscriptionFailed{ErrorURI: reason})
			s.closeSink()
			return nil
		})
	}
	for _, pu := range r.pendingUnsubscriptions {
		pu := pu
		g.Go(func() error {
			pu.sink.push(UnsubscriptionFailed{ErrorURI: reason})
			pu.sink.closeSink()
			return nil
		})
	}
	for _, s := range r.subscriptions {
		s := s
		g.Go(func() error {
			s.push(SubscriptionClosed{})
			s.closeSink()
			return nil
		})
	}

	for _, s := range r.pendingRegistrations {
		s := s
		g.Go(func() error {
			s.push(RegistrationFailed{ErrorURI: reason})
			s.closeSink()
			return nil
		})
	}
	for _, pu := range r.pendingUnregistrations {
		pu := pu
		g.Go(func() error {
			pu.sink.push(UnregistrationFailed{ErrorURI: reason})
			pu.sink.closeSink()
			return nil
		})
	}
	for _, s := range r.registrations {
		s := s
		g.Go(func() error {
			s.push(ProcedureUnregistered{})
			s.closeSink()
			return nil
		})
	}

	for _, s := range r.pendingCalls {
		s := s
		g.Go(func() error {
			s.push(CallFailed{ErrorURI: reason})
			s.closeSink()
			return nil
		})
	}
	for _, s := range r.pendingPublications {
		s := s
		g.Go(func() error {
			s.push(PublicationFailed{ErrorURI: reason})
			s.closeSink()
			return nil
		})
	}

	_ = g.Wait()
	*r = newRegistries()
}
