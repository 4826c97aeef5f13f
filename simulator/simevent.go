// Package simulator drives a maybenot.Framework against a recorded base
// trace with a discrete-event loop, producing a defended trace and overhead
// metrics.
package simulator

import (
	"time"

	"github.com/obscuranet/maybenot"
)

// eventRank assigns a small, stable integer per Event kind for SimEvent
// tie-breaking. The rank MUST stay stable across builds (spec §9): changing
// it changes observable simulation outcomes.
var eventRank = [...]int{
	maybenot.EventNormalRecv:    0,
	maybenot.EventNormalSent:    1,
	maybenot.EventPaddingRecv:   2,
	maybenot.EventPaddingSent:   3,
	maybenot.EventTunnelRecv:    4,
	maybenot.EventTunnelSent:    5,
	maybenot.EventBlockingBegin: 6,
	maybenot.EventBlockingEnd:   7,
	maybenot.EventLimitReached:  8,
	maybenot.EventCounterZero:   9,
	maybenot.EventTimerBegin:    10,
	maybenot.EventTimerEnd:      11,
	maybenot.EventUpdateMTU:     12,
}

func rankOf(e maybenot.Event) int {
	if int(e) < 0 || int(e) >= len(eventRank) {
		return len(eventRank)
	}
	return eventRank[e]
}

// SimEvent is a time-stamped TriggerEvent with the bookkeeping the
// simulator's queues need to order and route it.
type SimEvent struct {
	Event maybenot.TriggerEvent

	// Time is this event's effective simulator time. For events popped
	// from the base heap, it has already been offset by the cumulative
	// network delay (see EventQueue.pop).
	Time time.Time

	// IntegrationDelay models the time between an action being scheduled
	// and its effect landing on the wire (e.g. padding send latency).
	IntegrationDelay time.Duration

	// Client is true if this event occurred on the client endpoint,
	// false for the server endpoint.
	Client bool

	// ContainsPadding marks a TunnelSent event as carrying a padding
	// packet rather than real traffic.
	ContainsPadding bool

	// Bypass marks a TunnelSent event as eligible to traverse a
	// bypassable block, or a BlockOutgoing action's block as bypassable.
	Bypass bool

	// Replace marks a SendPadding/BlockOutgoing/UpdateTimer action's
	// "replace rather than coexist" flag, carried through to the
	// resulting SimEvent for the simulator's bookkeeping.
	Replace bool

	// BaseDelay is set on events popped from the base heap: the network
	// delay that was added to their trace-local Time (see EventQueue.pop).
	// It is nil for every other event.
	BaseDelay *time.Duration
}

// before implements the ordering from spec §4.4: earlier Time sorts first;
// on equal Time, smaller event_rank sorts first. It is a strict weak
// ordering, per spec §8 property 10.
func before(a, b *SimEvent) bool {
	if a.Time.Equal(b.Time) {
		return rankOf(a.Event.Kind) < rankOf(b.Event.Kind)
	}
	return a.Time.Before(b.Time)
}
