package maybenot

// Event is the closed set of occurrences a Framework can be told about. It
// is a Go enum: an int with a fixed, never-reordered set of named values
// (reordering would break Machine.Name's stable digest, since the digest
// walks transitions by declared Event order).
type Event int

const (
	EventNormalRecv Event = iota
	EventNormalSent
	EventPaddingRecv
	EventPaddingSent
	EventTunnelRecv
	EventTunnelSent
	EventBlockingBegin
	EventBlockingEnd
	EventLimitReached
	EventCounterZero
	EventTimerBegin
	EventTimerEnd
	EventUpdateMTU

	eventCount
)

func (e Event) String() string {
	switch e {
	case EventNormalRecv:
		return "NormalRecv"
	case EventNormalSent:
		return "NormalSent"
	case EventPaddingRecv:
		return "PaddingRecv"
	case EventPaddingSent:
		return "PaddingSent"
	case EventTunnelRecv:
		return "TunnelRecv"
	case EventTunnelSent:
		return "TunnelSent"
	case EventBlockingBegin:
		return "BlockingBegin"
	case EventBlockingEnd:
		return "BlockingEnd"
	case EventLimitReached:
		return "LimitReached"
	case EventCounterZero:
		return "CounterZero"
	case EventTimerBegin:
		return "TimerBegin"
	case EventTimerEnd:
		return "TimerEnd"
	case EventUpdateMTU:
		return "UpdateMTU"
	default:
		return "Unknown"
	}
}

// Valid reports whether e is one of the declared Event constants.
func (e Event) Valid() bool { return e >= EventNormalRecv && e < eventCount }

// MachineID identifies a machine within a Framework. It is never
// constructed by callers; a Framework hands one back on PaddingSent,
// BlockingBegin, and LimitReached events, and stamps it onto every
// TriggerAction it schedules.
type MachineID int

// TriggerEvent is fed into Framework.TriggerEvents. Only the fields that
// apply to Kind are meaningful; see the field comments below for which.
type TriggerEvent struct {
	Kind Event

	// Bytes carries a byte count for NormalRecv, NormalSent, PaddingRecv,
	// PaddingSent, TunnelRecv, TunnelSent, and the new MTU value for
	// UpdateMTU.
	Bytes uint16

	// Machine identifies the acting machine for PaddingSent,
	// BlockingBegin, LimitReached, CounterZero, TimerBegin, and
	// TimerEnd. Zero value for events that carry no machine.
	Machine MachineID
}

// NormalRecv builds a TriggerEvent for n bytes received on the normal
// (non-padding) stream.
func NormalRecv(n uint16) TriggerEvent { return TriggerEvent{Kind: EventNormalRecv, Bytes: n} }

// NormalSent builds a TriggerEvent for n bytes sent on the normal stream.
func NormalSent(n uint16) TriggerEvent { return TriggerEvent{Kind: EventNormalSent, Bytes: n} }

// PaddingRecv builds a TriggerEvent for n padding bytes received.
func PaddingRecv(n uint16) TriggerEvent { return TriggerEvent{Kind: EventPaddingRecv, Bytes: n} }

// PaddingSent builds a TriggerEvent for n padding bytes sent by mi.
func PaddingSent(n uint16, mi MachineID) TriggerEvent {
	return TriggerEvent{Kind: EventPaddingSent, Bytes: n, Machine: mi}
}

// TunnelRecv builds a TriggerEvent for n bytes received on the wire,
// irrespective of padding/non-padding classification.
func TunnelRecv(n uint16) TriggerEvent { return TriggerEvent{Kind: EventTunnelRecv, Bytes: n} }

// TunnelSent builds a TriggerEvent for n bytes sent on the wire.
func TunnelSent(n uint16) TriggerEvent { return TriggerEvent{Kind: EventTunnelSent, Bytes: n} }

// BlockingBegin builds a TriggerEvent announcing that mi began blocking
// outgoing traffic.
func BlockingBegin(mi MachineID) TriggerEvent {
	return TriggerEvent{Kind: EventBlockingBegin, Machine: mi}
}

// BlockingEnd builds a TriggerEvent announcing that outgoing blocking
// ended.
func BlockingEnd() TriggerEvent { return TriggerEvent{Kind: EventBlockingEnd} }

// LimitReached builds a TriggerEvent announcing that mi's state limit
// reached zero. Ordinarily synthesized internally by the Framework; exposed
// for embedders that replay recorded event traces.
func LimitReached(mi MachineID) TriggerEvent {
	return TriggerEvent{Kind: EventLimitReached, Machine: mi}
}

// CounterZero builds a TriggerEvent announcing that mi's counter reached
// zero. Ordinarily synthesized internally by the Framework.
func CounterZero(mi MachineID) TriggerEvent {
	return TriggerEvent{Kind: EventCounterZero, Machine: mi}
}

// TimerBegin builds a TriggerEvent announcing that mi's timer began
// running.
func TimerBegin(mi MachineID) TriggerEvent { return TriggerEvent{Kind: EventTimerBegin, Machine: mi} }

// TimerEnd builds a TriggerEvent announcing that mi's timer expired or was
// cancelled.
func TimerEnd(mi MachineID) TriggerEvent { return TriggerEvent{Kind: EventTimerEnd, Machine: mi} }

// UpdateMTU builds a TriggerEvent announcing a new path MTU.
func UpdateMTU(mtu uint16) TriggerEvent { return TriggerEvent{Kind: EventUpdateMTU, Bytes: mtu} }
