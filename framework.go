package maybenot

import (
	"math/rand"
	"time"
)

// transitionResult reports whether transition() moved a machine to a
// different state.
type transitionResult int

const (
	unchanged transitionResult = iota
	changed
)

// machineRuntime is the per-machine mutable execution state a Framework
// owns alongside each immutable Machine.
type machineRuntime struct {
	currentState     int // StateEnd once terminal
	stateLimit       uint64
	paddingSent      uint64
	nonpaddingSent   uint64
	blockingDuration time.Duration
	machineStart     time.Time
	counter          int64
}

// Framework is a deterministic dispatcher over a fixed set of machines. It
// performs no I/O, owns no clock beyond the time values it's handed, and is
// not safe for concurrent use.
type Framework struct {
	machines []Machine
	runtime  []machineRuntime
	actions  []*TriggerAction

	globalMaxPaddingFrac  float64
	globalMaxBlockingFrac float64

	globalPaddingBytes    uint64
	globalNonpaddingBytes uint64
	globalBlockingActive  bool
	globalBlockingStarted time.Time
	globalBlockingElapsed time.Duration

	frameworkStart time.Time
	currentTime    time.Time
	mtu            uint16

	rng *rand.Rand
}

// NewFramework validates machines and max padding/blocking fractions, then
// constructs a Framework with every machine's runtime initialized to state
// 0. No action is scheduled on construction; the embedder drives scheduling
// by feeding the first TriggerEvent.
func NewFramework(machines []Machine, maxPaddingFrac, maxBlockingFrac float64, currentTime time.Time, rng *rand.Rand) (*Framework, error) {
	if maxPaddingFrac < 0 || maxPaddingFrac > 1 {
		return nil, newError(KindPaddingLimit, "max_padding_frac %v out of [0,1]", maxPaddingFrac)
	}
	if maxBlockingFrac < 0 || maxBlockingFrac > 1 {
		return nil, newError(KindBlockingLimit, "max_blocking_frac %v out of [0,1]", maxBlockingFrac)
	}
	for i := range machines {
		if err := machines[i].Validate(); err != nil {
			return nil, wrapError(KindMachine, err, "machine %d", i)
		}
	}

	f := &Framework{
		machines:              machines,
		runtime:               make([]machineRuntime, len(machines)),
		actions:               make([]*TriggerAction, len(machines)),
		globalMaxPaddingFrac:  maxPaddingFrac,
		globalMaxBlockingFrac: maxBlockingFrac,
		frameworkStart:        currentTime,
		currentTime:           currentTime,
		rng:                   rng,
	}
	for i := range machines {
		f.runtime[i] = machineRuntime{
			currentState: 0,
			stateLimit:   machines[i].States[0].sampleLimit(rng),
			machineStart: currentTime,
		}
	}
	return f, nil
}

// NumMachines returns the number of machines this Framework was constructed
// with.
func (f *Framework) NumMachines() int { return len(f.machines) }

// CurrentState returns machine mi's current state index, or StateEnd if
// it's terminal.
func (f *Framework) CurrentState(mi MachineID) int { return f.runtime[mi].currentState }

// TriggerEvents advances every machine by events, in order, at currentTime,
// and returns the non-empty pending actions, at most one per machine. A
// later event in the batch may overwrite an earlier pending action for the
// same machine; this is intentional (spec §4.3: "something already
// happened; emit the latest intent").
func (f *Framework) TriggerEvents(events []TriggerEvent, currentTime time.Time) []TriggerAction {
	for i := range f.actions {
		f.actions[i] = nil
	}
	f.currentTime = currentTime

	for _, ev := range events {
		blockEndDelta := f.globalAccounting(ev)
		for mi := range f.machines {
			f.processEvent(mi, ev, blockEndDelta)
		}
	}

	out := make([]TriggerAction, 0, len(f.actions))
	for _, a := range f.actions {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// globalAccounting applies the once-per-event, framework-wide bookkeeping
// for ev (spec §4.3 lists global accounting as a single logical event,
// distinct from the per-machine dispatch column, so it must run exactly
// once regardless of how many machines are fed the event). For
// EventBlockingEnd it returns the elapsed blocking duration to credit to
// every machine's blockingDuration; zero otherwise.
func (f *Framework) globalAccounting(ev TriggerEvent) time.Duration {
	switch ev.Kind {
	case EventNormalSent:
		f.globalNonpaddingBytes += uint64(ev.Bytes)
	case EventPaddingSent:
		f.globalPaddingBytes += uint64(ev.Bytes)
	case EventBlockingBegin:
		if !f.globalBlockingActive {
			f.globalBlockingActive = true
			f.globalBlockingStarted = f.currentTime
		}
	case EventBlockingEnd:
		if f.globalBlockingActive {
			delta := f.currentTime.Sub(f.globalBlockingStarted)
			f.globalBlockingElapsed += delta
			f.globalBlockingActive = false
			return delta
		}
	}
	return 0
}

func (f *Framework) processEvent(mi int, ev TriggerEvent, blockEndDelta time.Duration) {
	switch ev.Kind {
	case EventNormalRecv, EventPaddingRecv, EventTunnelRecv:
		f.transition(mi, ev.Kind, ev.Bytes)

	case EventNormalSent:
		f.runtime[mi].nonpaddingSent += uint64(ev.Bytes)
		cs := f.runtime[mi].currentState
		if f.transition(mi, EventNormalSent, ev.Bytes) == unchanged && cs != StateEnd && f.machines[mi].States[cs].LimitIncludesNonPadding {
			f.decrementLimit(mi)
		}

	case EventTunnelSent:
		f.transition(mi, EventTunnelSent, ev.Bytes)

	case EventPaddingSent:
		if mi != int(ev.Machine) {
			return
		}
		f.runtime[mi].paddingSent += uint64(ev.Bytes)
		if f.transition(mi, EventPaddingSent, ev.Bytes) == unchanged {
			f.decrementLimit(mi)
		}

	case EventBlockingBegin:
		if f.transition(mi, EventBlockingBegin, 0) == unchanged && mi == int(ev.Machine) {
			f.decrementLimit(mi)
		}

	case EventBlockingEnd:
		if blockEndDelta > 0 {
			f.runtime[mi].blockingDuration += blockEndDelta
		}
		f.transition(mi, EventBlockingEnd, 0)

	case EventLimitReached:
		if mi != int(ev.Machine) {
			return
		}
		f.transition(mi, EventLimitReached, 0)

	case EventCounterZero:
		if mi != int(ev.Machine) {
			return
		}
		f.transition(mi, EventCounterZero, 0)

	case EventTimerBegin, EventTimerEnd:
		if mi != int(ev.Machine) {
			return
		}
		f.transition(mi, ev.Kind, 0)

	case EventUpdateMTU:
		f.mtu = ev.Bytes
		f.transition(mi, EventUpdateMTU, ev.Bytes)
	}
}

func (f *Framework) transition(mi int, event Event, n uint16) transitionResult {
	rt := &f.runtime[mi]
	if rt.currentState == StateEnd {
		return unchanged
	}
	m := &f.machines[mi]
	if !m.IncludeSmallPackets && n > 0 && n <= MaxSmallPacketSize {
		return unchanged
	}

	next, ok := m.States[rt.currentState].sampleState(event, f.rng)
	if !ok {
		return unchanged
	}

	if next == StateCancel {
		f.actions[mi] = &TriggerAction{Kind: ActionCancel, Machine: MachineID(mi), Timer: TimerAction}
		return unchanged
	}
	if next == StateEnd {
		rt.currentState = StateEnd
		return changed
	}

	if next == rt.currentState {
		f.applyStateEntry(mi)
		if f.belowActionLimits(mi) {
			f.actions[mi] = f.scheduleAction(mi)
		}
		return unchanged
	}

	rt.currentState = next
	rt.stateLimit = m.States[next].sampleLimit(f.rng)
	f.applyStateEntry(mi)
	if f.belowActionLimits(mi) {
		f.actions[mi] = f.scheduleAction(mi)
	}
	return changed
}

// applyStateEntry applies the current state's CounterUpdate, if any,
// synthesizing CounterZero when the result crosses to or lands on zero.
func (f *Framework) applyStateEntry(mi int) {
	rt := &f.runtime[mi]
	if rt.currentState == StateEnd {
		return
	}
	cnt := f.machines[mi].States[rt.currentState].Counter
	if cnt == nil {
		return
	}
	next, hitZero := cnt.Apply(rt.counter)
	rt.counter = next
	if hitZero {
		f.actions[mi] = nil
		f.processEvent(mi, CounterZero(MachineID(mi)), 0)
	}
}

// decrementLimit consumes one unit of the current state's state_limit, and,
// if it reaches zero while that state declares a limit distribution, clears
// the pending action and recursively dispatches LimitReached.
func (f *Framework) decrementLimit(mi int) {
	rt := &f.runtime[mi]
	if rt.currentState == StateEnd {
		return
	}
	if rt.stateLimit > 0 {
		rt.stateLimit--
	}
	if rt.stateLimit == 0 && f.machines[mi].States[rt.currentState].hasLimitDist() {
		f.actions[mi] = nil
		f.processEvent(mi, LimitReached(MachineID(mi)), 0)
	}
}

func (f *Framework) scheduleAction(mi int) *TriggerAction {
	rt := &f.runtime[mi]
	a := f.machines[mi].States[rt.currentState].Action
	if a == nil {
		return nil
	}
	out := &TriggerAction{Kind: a.Kind, Machine: MachineID(mi), Bypass: a.Bypass, Replace: a.Replace}
	switch a.Kind {
	case ActionSendPadding:
		out.Timeout = clampMicros(a.Timeout.Sample(f.rng), MaxSampledTimeoutMicros)
	case ActionBlockOutgoing:
		out.Timeout = clampMicros(a.Timeout.Sample(f.rng), MaxSampledTimeoutMicros)
		out.Duration = clampMicros(a.Duration.Sample(f.rng), MaxSampledBlockDurationMicros)
	case ActionUpdateTimer:
		out.Duration = clampMicros(a.Duration.Sample(f.rng), MaxSampledTimerDurationMicros)
	}
	return out
}

func clampMicros(v float64, max float64) Microseconds {
	if v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	return Microseconds(v)
}

// belowActionLimits dispatches to the padding or blocking overhead policy
// for the pending action's kind; UpdateTimer is gated only by state_limit,
// since it carries no traffic overhead of its own.
func (f *Framework) belowActionLimits(mi int) bool {
	rt := &f.runtime[mi]
	if rt.stateLimit == 0 {
		return false
	}
	a := f.machines[mi].States[rt.currentState].Action
	if a == nil {
		return false
	}
	switch a.Kind {
	case ActionSendPadding:
		return f.belowLimitPadding(mi)
	case ActionBlockOutgoing:
		return f.belowLimitBlocking(mi)
	default:
		return true
	}
}

func (f *Framework) belowLimitPadding(mi int) bool {
	rt := &f.runtime[mi]
	m := &f.machines[mi]

	if rt.paddingSent < m.AllowedPaddingBytes {
		return rt.stateLimit > 0
	}
	if m.MaxPaddingFrac > 0 {
		denom := rt.paddingSent + rt.nonpaddingSent
		if denom == 0 {
			return false
		}
		if float64(rt.paddingSent)/float64(denom) >= m.MaxPaddingFrac {
			return false
		}
	} else if f.globalMaxPaddingFrac > 0 {
		denom := f.globalPaddingBytes + f.globalNonpaddingBytes
		if denom == 0 {
			return false
		}
		if float64(f.globalPaddingBytes)/float64(denom) >= f.globalMaxPaddingFrac {
			return false
		}
	}
	return rt.stateLimit > 0
}

func (f *Framework) belowLimitBlocking(mi int) bool {
	rt := &f.runtime[mi]
	m := &f.machines[mi]
	a := m.States[rt.currentState].Action

	if a.Replace && !f.globalBlockingActive {
		return rt.stateLimit > 0
	}

	mBlock := rt.blockingDuration
	gBlock := f.globalBlockingElapsed
	if f.globalBlockingActive {
		active := f.currentTime.Sub(f.globalBlockingStarted)
		mBlock += active
		gBlock += active
	}

	allowed := time.Duration(m.AllowedBlockedMicrosec) * time.Microsecond
	if mBlock < allowed {
		return rt.stateLimit > 0
	}
	if m.MaxBlockingFrac > 0 {
		elapsed := f.currentTime.Sub(rt.machineStart)
		if elapsed <= 0 || float64(mBlock)/float64(elapsed) >= m.MaxBlockingFrac {
			return false
		}
	} else if f.globalMaxBlockingFrac > 0 {
		elapsed := f.currentTime.Sub(f.frameworkStart)
		if elapsed <= 0 || float64(gBlock)/float64(elapsed) >= f.globalMaxBlockingFrac {
			return false
		}
	}
	return rt.stateLimit > 0
}

// GlobalPaddingBytes returns the Framework-wide padding byte total, which
// only ever increases.
func (f *Framework) GlobalPaddingBytes() uint64 { return f.globalPaddingBytes }

// GlobalNonpaddingBytes returns the Framework-wide non-padding byte total,
// which only ever increases.
func (f *Framework) GlobalNonpaddingBytes() uint64 { return f.globalNonpaddingBytes }

// GlobalBlockingDuration returns the Framework-wide accumulated blocking
// duration, which only ever increases.
func (f *Framework) GlobalBlockingDuration() time.Duration { return f.globalBlockingElapsed }

// MachinePaddingSent returns machine mi's padding byte total.
func (f *Framework) MachinePaddingSent(mi MachineID) uint64 { return f.runtime[mi].paddingSent }

// MachineNonpaddingSent returns machine mi's non-padding byte total.
func (f *Framework) MachineNonpaddingSent(mi MachineID) uint64 { return f.runtime[mi].nonpaddingSent }

// MachineBlockingDuration returns machine mi's accumulated blocking
// duration.
func (f *Framework) MachineBlockingDuration(mi MachineID) time.Duration {
	return f.runtime[mi].blockingDuration
}

// MachineStateLimit returns machine mi's remaining state_limit.
func (f *Framework) MachineStateLimit(mi MachineID) uint64 { return f.runtime[mi].stateLimit }

// MTU returns the most recently announced path MTU.
func (f *Framework) MTU() uint16 { return f.mtu }
