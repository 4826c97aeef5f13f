package maybenot

import "math/rand"

// ActionKind is the closed set of action shapes a State may declare and a
// Framework may emit.
type ActionKind int

const (
	// ActionCancel cancels a pending timer. Only ever emitted via the
	// STATE_CANCEL sentinel transition target, never declared directly
	// on a State (see transition() in framework.go).
	ActionCancel ActionKind = iota
	// ActionSendPadding schedules a padding packet after a sampled
	// timeout.
	ActionSendPadding
	// ActionBlockOutgoing blocks outgoing traffic, after a sampled
	// timeout, for a sampled duration.
	ActionBlockOutgoing
	// ActionUpdateTimer sets or extends a machine-owned timer to a
	// sampled duration.
	ActionUpdateTimer
)

func (k ActionKind) String() string {
	switch k {
	case ActionCancel:
		return "Cancel"
	case ActionSendPadding:
		return "SendPadding"
	case ActionBlockOutgoing:
		return "BlockOutgoing"
	case ActionUpdateTimer:
		return "UpdateTimer"
	default:
		return "Unknown"
	}
}

// Timer is the closed set of timer scopes a Cancel action may target.
type Timer int

const (
	// TimerAction cancels only the machine's pending action timer.
	TimerAction Timer = iota
	// TimerMachine cancels only the machine's UpdateTimer-owned timer.
	TimerMachine
	// TimerAll cancels both.
	TimerAll
)

func (t Timer) String() string {
	switch t {
	case TimerAction:
		return "ActionTimer"
	case TimerMachine:
		return "MachineTimer"
	case TimerAll:
		return "AllTimers"
	default:
		return "Unknown"
	}
}

// Action is declared on a State and fires whenever that state is entered.
// Only the fields relevant to Kind are meaningful:
//
//	SendPadding     Timeout, Bypass, Replace, Limit
//	BlockOutgoing   Timeout, Duration, Bypass, Replace, Limit
//	UpdateTimer     Duration, Replace, Limit
//
// Limit, if set, is sampled on state entry to produce the runtime's
// state_limit (clamped to StateLimitMax); a nil Limit leaves state_limit
// effectively unlimited.
type Action struct {
	Kind     ActionKind
	Timeout  Distribution
	Duration Distribution
	Bypass   bool
	Replace  bool
	Limit    *Distribution
}

// Validate checks the distributions that apply to Kind and the Limit
// distribution, if set, and rejects any Kind other than SendPadding,
// BlockOutgoing, or UpdateTimer (so a Cancel is never valid on a State).
func (a Action) Validate() error {
	switch a.Kind {
	case ActionSendPadding:
		if err := a.Timeout.Validate(); err != nil {
			return err
		}
	case ActionBlockOutgoing:
		if err := a.Timeout.Validate(); err != nil {
			return err
		}
		if err := a.Duration.Validate(); err != nil {
			return err
		}
	case ActionUpdateTimer:
		if err := a.Duration.Validate(); err != nil {
			return err
		}
	default:
		return newError(KindMachine, "state action has invalid kind %d", a.Kind)
	}
	if a.Limit != nil {
		if err := a.Limit.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// sampleLimit draws a. Limit, clamped to StateLimitMax, or StateLimitMax
// itself if no limit distribution is declared.
func (a Action) sampleLimit(rng *rand.Rand) uint64 {
	if a.Limit == nil {
		return StateLimitMax
	}
	v := a.Limit.Sample(rng)
	if v > StateLimitMax {
		v = StateLimitMax
	}
	return uint64(v)
}

// TriggerAction is the Framework's output: a scheduled instruction for the
// embedder. Only the fields relevant to Kind are meaningful, matching
// Action above, plus the Machine that scheduled it and (for Cancel) the
// Timer scope.
type TriggerAction struct {
	Kind     ActionKind
	Machine  MachineID
	Timer    Timer
	Timeout  Microseconds
	Duration Microseconds
	Bypass   bool
	Replace  bool
}

// Microseconds is a sampled, clamped duration expressed in microseconds, as
// in the framework's numeric domain (spec §4.3: "sampled numeric draws
// (microseconds, as f64, clamped...)"). The simulator package converts this
// to a time.Duration at the point it schedules a SimEvent.
type Microseconds float64
