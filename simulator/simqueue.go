package simulator

import "time"

// SimQueue composes the client and server EventQueues and implements the
// cross-endpoint peek/pop discipline of spec §4.4, including the
// blocking-aware views the simulator loop needs to honor bypassable vs.
// non-bypassable blocking.
type SimQueue struct {
	client *EventQueue
	server *EventQueue
}

// NewSimQueue returns an empty SimQueue.
func NewSimQueue() *SimQueue {
	return &SimQueue{client: NewEventQueue(), server: NewEventQueue()}
}

// Len is the total number of events across both endpoints.
func (q *SimQueue) Len() int { return q.client.Len() + q.server.Len() }

// Push routes e to the client or server EventQueue by e.Client.
func (q *SimQueue) Push(e *SimEvent) {
	if e.Client {
		q.client.Push(e)
	} else {
		q.server.Push(e)
	}
}

func (q *SimQueue) endpoint(isClient bool) *EventQueue {
	if isClient {
		return q.client
	}
	return q.server
}

// Peek returns the next event across both endpoints and all four
// sub-heaps, honoring the base heap's network-delay offset. It returns
// (nil, TagBlocking, false, 0) when the queue is empty, per spec §4.4 ("the
// source contains one unreachable arm... implementers SHOULD handle the
// empty case explicitly").
func (q *SimQueue) Peek(networkDelaySum time.Duration, now time.Time) (event *SimEvent, tag QueueTag, isClient bool, durationUntil time.Duration) {
	var best *queueCandidate
	for _, isC := range [2]bool{true, false} {
		c := q.peekEndpointAll(isC, networkDelaySum)
		if c != nil && (best == nil || beforeEffective(c.eff, c.ev, best.eff, best.ev)) {
			best = c
		}
	}
	if best == nil {
		return nil, TagBlocking, false, 0
	}
	d := best.eff.Sub(now)
	if d < 0 {
		d = 0
	}
	return best.ev, best.tag, best.isClient, d
}

type queueCandidate struct {
	eff      time.Time
	ev       *SimEvent
	tag      QueueTag
	isClient bool
}

// peekEndpointAll returns the earliest candidate across all four of one
// endpoint's sub-heaps, ignoring blocking state. Used both by Peek (which
// combines both endpoints unconditionally) and by the simulator loop's
// not-currently-blocked case.
func (q *SimQueue) peekEndpointAll(isClient bool, networkDelaySum time.Duration) *queueCandidate {
	eq := q.endpoint(isClient)
	var best *queueCandidate
	for _, tg := range [4]QueueTag{TagBase, TagBlocking, TagBypassable, TagInternal} {
		eff, ev, ok := eq.peekEffective(tg, networkDelaySum)
		if !ok {
			continue
		}
		c := &queueCandidate{eff: eff, ev: ev, tag: tg, isClient: isClient}
		if best == nil || beforeEffective(c.eff, c.ev, best.eff, best.ev) {
			best = c
		}
	}
	return best
}

func beforeEffective(aEff time.Time, a *SimEvent, bEff time.Time, b *SimEvent) bool {
	if aEff.Equal(bEff) {
		return rankOf(a.Event.Kind) < rankOf(b.Event.Kind)
	}
	return aEff.Before(bEff)
}

// Pop removes and returns the head of the given endpoint's sub-heap named
// by tag.
func (q *SimQueue) Pop(tag QueueTag, isClient bool, networkDelaySum time.Duration) *SimEvent {
	return q.endpoint(isClient).pop(tag, networkDelaySum)
}

// PeekBlocking returns the earliest event that counts as blocked given the
// current block's bypassable flag: only the blocking sub-heap if the block
// is bypassable, otherwise blocking and bypassable both count.
func (q *SimQueue) PeekBlocking(blockIsBypassable bool, isClient bool) (*SimEvent, QueueTag, bool) {
	eq := q.endpoint(isClient)
	if blockIsBypassable {
		if ev := eq.blocking.peek(); ev != nil {
			return ev, TagBlocking, true
		}
		return nil, TagBlocking, false
	}
	bEv := eq.blocking.peek()
	pEv := eq.bypassable.peek()
	switch {
	case bEv == nil && pEv == nil:
		return nil, TagBlocking, false
	case bEv == nil:
		return pEv, TagBypassable, true
	case pEv == nil:
		return bEv, TagBlocking, true
	case before(bEv, pEv):
		return bEv, TagBlocking, true
	default:
		return pEv, TagBypassable, true
	}
}

// PeekNonBlocking returns the earliest event that counts as non-blocked
// given the current block's bypassable flag: bypassable TunnelSent join
// internal/base when the block is bypassable, otherwise only internal/base
// contend.
func (q *SimQueue) PeekNonBlocking(blockIsBypassable bool, isClient bool, networkDelaySum time.Duration) (*SimEvent, QueueTag, bool) {
	eq := q.endpoint(isClient)
	candidates := make([]struct {
		eff time.Time
		ev  *SimEvent
		tag QueueTag
	}, 0, 3)

	if eff, ev, ok := eq.peekEffective(TagBase, networkDelaySum); ok {
		candidates = append(candidates, struct {
			eff time.Time
			ev  *SimEvent
			tag QueueTag
		}{eff, ev, TagBase})
	}
	if eff, ev, ok := eq.peekEffective(TagInternal, 0); ok {
		candidates = append(candidates, struct {
			eff time.Time
			ev  *SimEvent
			tag QueueTag
		}{eff, ev, TagInternal})
	}
	if blockIsBypassable {
		if eff, ev, ok := eq.peekEffective(TagBypassable, 0); ok {
			candidates = append(candidates, struct {
				eff time.Time
				ev  *SimEvent
				tag QueueTag
			}{eff, ev, TagBypassable})
		}
	}
	if len(candidates) == 0 {
		return nil, TagInternal, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if beforeEffective(c.eff, c.ev, best.eff, best.ev) {
			best = c
		}
	}
	return best.ev, best.tag, true
}

// PopBlocking pops the next blocked event. With bypassable=true it pops
// unconditionally from the blocking sub-heap; otherwise it delegates to
// Pop with the tag the caller observed from PeekBlocking.
func (q *SimQueue) PopBlocking(tag QueueTag, bypassable bool, isClient bool) *SimEvent {
	if bypassable {
		return q.endpoint(isClient).pop(TagBlocking, 0)
	}
	return q.endpoint(isClient).pop(tag, 0)
}

// GetFirstTime returns the minimum base-heap head time across both
// endpoints, used once to seed the simulator clock.
func (q *SimQueue) GetFirstTime() (time.Time, bool) {
	ct, cok := q.client.firstBaseTime()
	st, sok := q.server.firstBaseTime()
	switch {
	case cok && sok:
		if ct.Before(st) {
			return ct, true
		}
		return st, true
	case cok:
		return ct, true
	case sok:
		return st, true
	default:
		return time.Time{}, false
	}
}
