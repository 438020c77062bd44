// Package cacheinvalidate fans out mutations of the engine's input
// entities (events, team registrations, teams, runs/assignments) to
// whatever derived caches need to drop the affected keys. It is a
// small in-process pub/sub: one bounded Go channel shared by every
// mutation kind, drained by a single dispatch goroutine that calls each
// subscriber in turn, so a slow invalidator never blocks the mutation
// that triggered it (only a full queue does), though it does delay the
// subscribers after it.
package cacheinvalidate

import (
	"github.com/sirupsen/logrus"
)

// Kind identifies which input entity mutated.
type Kind int

const (
	KindEvent Kind = iota
	KindTeamRegistration
	KindTeam
	KindRunAssignment
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindTeamRegistration:
		return "team_registration"
	case KindTeam:
		return "team"
	case KindRunAssignment:
		return "run_assignment"
	default:
		return "unknown"
	}
}

// Mutation describes one change to invalidate caches for.
type Mutation struct {
	Kind    Kind
	EventID int // the affected event, when known
	TeamID  int // the affected team, when known (KindTeam, KindTeamRegistration)
}

// Invalidator is anything that can drop cache entries for one mutation.
// Distinct invalidator implementations handle event caches, per-user
// caches, results caches, etc.; Bus fans every mutation out to all of
// them regardless of kind, and each invalidator decides what (if
// anything) the mutation means for it.
type Invalidator interface {
	Invalidate(m Mutation) error
}

// InvalidatorFunc adapts a plain function to Invalidator.
type InvalidatorFunc func(m Mutation) error

func (f InvalidatorFunc) Invalidate(m Mutation) error { return f(m) }

// Bus is the in-process mutation dispatcher. Zero value is not usable;
// construct with NewBus.
type Bus struct {
	subscribers []Invalidator
	mutations   chan Mutation
	log         *logrus.Logger
	done        chan struct{}
}

// NewBus starts a Bus with a bounded mutation queue and begins
// dispatching in a background goroutine. Stop must be called to drain
// and release the goroutine.
func NewBus(log *logrus.Logger, queueSize int) *Bus {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	b := &Bus{
		mutations: make(chan Mutation, queueSize),
		log:       log,
		done:      make(chan struct{}),
	}
	go b.run()
	return b
}

// Subscribe registers inv to receive every future mutation published on
// the bus. Not safe to call concurrently with Publish.
func (b *Bus) Subscribe(inv Invalidator) {
	b.subscribers = append(b.subscribers, inv)
}

// Publish enqueues a mutation for dispatch. It never blocks on a slow
// invalidator; it only blocks if the queue itself is full, which
// indicates the dispatch goroutine has fallen behind.
func (b *Bus) Publish(m Mutation) {
	b.mutations <- m
}

// Stop closes the mutation queue and waits for the dispatch goroutine
// to drain it.
func (b *Bus) Stop() {
	close(b.mutations)
	<-b.done
}

func (b *Bus) run() {
	defer close(b.done)
	for m := range b.mutations {
		for _, sub := range b.subscribers {
			if err := sub.Invalidate(m); err != nil {
				b.log.WithFields(logrus.Fields{
					"kind":     m.Kind.String(),
					"event_id": m.EventID,
					"team_id":  m.TeamID,
				}).WithError(err).Error("cache invalidation failed")
			}
		}
	}
}
