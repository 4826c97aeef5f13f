package simulator

import (
	"container/heap"
	"time"

	"github.com/obscuranet/maybenot"
)

// simHeap is a min-heap of *SimEvent ordered by before(), the
// (time, event_rank) strict weak ordering from spec §4.4/§8.
type simHeap []*SimEvent

func (h simHeap) Len() int           { return len(h) }
func (h simHeap) Less(i, j int) bool { return before(h[i], h[j]) }
func (h simHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *simHeap) Push(x any)        { *h = append(*h, x.(*SimEvent)) }
func (h *simHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func (h simHeap) peek() *SimEvent {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// QueueTag names which of an EventQueue's four sub-heaps an event came
// from, or will be popped from.
type QueueTag int

const (
	TagBase QueueTag = iota
	TagBlocking
	TagBypassable
	TagInternal
)

func (t QueueTag) String() string {
	switch t {
	case TagBase:
		return "base"
	case TagBlocking:
		return "blocking"
	case TagBypassable:
		return "bypassable"
	case TagInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// EventQueue is one endpoint's four-partition priority structure (spec
// §4.4): base holds NormalSent events parsed from the trace (trace-local
// time, offset by network delay on pop); blocking and bypassable hold
// TunnelSent events split by their Bypass flag; internal holds everything
// else.
type EventQueue struct {
	base       simHeap
	blocking   simHeap
	bypassable simHeap
	internal   simHeap
}

// NewEventQueue returns an empty EventQueue.
func NewEventQueue() *EventQueue { return &EventQueue{} }

// Len is the total number of events across all four sub-heaps.
func (q *EventQueue) Len() int {
	return q.base.Len() + q.blocking.Len() + q.bypassable.Len() + q.internal.Len()
}

// Push routes e into the correct sub-heap by event kind and flags.
// NormalSent only ever enters base, matching spec §4.4.
func (q *EventQueue) Push(e *SimEvent) {
	switch {
	case e.Event.Kind == maybenot.EventNormalSent:
		heap.Push(&q.base, e)
	case e.Event.Kind == maybenot.EventTunnelSent && !e.Bypass:
		heap.Push(&q.blocking, e)
	case e.Event.Kind == maybenot.EventTunnelSent && e.Bypass:
		heap.Push(&q.bypassable, e)
	default:
		heap.Push(&q.internal, e)
	}
}

func (q *EventQueue) heapFor(tag QueueTag) *simHeap {
	switch tag {
	case TagBase:
		return &q.base
	case TagBlocking:
		return &q.blocking
	case TagBypassable:
		return &q.bypassable
	default:
		return &q.internal
	}
}

// peekEffective returns the given sub-heap's head and its effective time:
// base's head time plus delay, every other heap's head time as-is.
func (q *EventQueue) peekEffective(tag QueueTag, delay time.Duration) (time.Time, *SimEvent, bool) {
	top := q.heapFor(tag).peek()
	if top == nil {
		return time.Time{}, nil, false
	}
	if tag == TagBase {
		return top.Time.Add(delay), top, true
	}
	return top.Time, top, true
}

// pop removes and returns the head of the indicated sub-heap. Popping from
// base rewrites the returned event's Time by delay, so downstream consumers
// observe real simulator time (spec §4.4).
func (q *EventQueue) pop(tag QueueTag, delay time.Duration) *SimEvent {
	h := q.heapFor(tag)
	if h.Len() == 0 {
		return nil
	}
	e := heap.Pop(h).(*SimEvent)
	if tag == TagBase {
		shifted := *e
		d := delay
		shifted.BaseDelay = &d
		shifted.Time = e.Time.Add(delay)
		return &shifted
	}
	return e
}

// firstBaseTime returns this endpoint's earliest base-heap time, with ok
// false if base is empty.
func (q *EventQueue) firstBaseTime() (time.Time, bool) {
	top := q.base.peek()
	if top == nil {
		return time.Time{}, false
	}
	return top.Time, true
}
