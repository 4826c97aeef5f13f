package maybenot

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Trans is one weighted edge out of a State for a particular Event: with
// probability Prob, sampling lands on Target, which is either a valid state
// index, StateCancel, or StateEnd.
type Trans struct {
	Target int
	Prob   float64
}

// State is one node in a Machine's transition graph.
type State struct {
	// Action fires whenever this state is entered, including by a
	// self-transition. Nil means no action.
	Action *Action

	// Counter, if set, is applied to the machine's counter whenever this
	// state is entered; reaching zero synthesizes a CounterZero event.
	Counter *CounterUpdate

	// LimitIncludesNonPadding mirrors the Rust "limit_includes_nonpadding"
	// flag: when true, a NormalSent event that leaves this state
	// unchanged also decrements the state limit, not just PaddingSent.
	LimitIncludesNonPadding bool

	// Transitions maps an Event to the list of weighted edges sampled
	// when that event fires while this state is current. The list order
	// is the "declared order" used by inverse-CDF sampling; Machine.Name's
	// digest sorts the edges by target instead.
	Transitions map[Event][]Trans
}

// Validate checks this state's transitions against numStates: every target
// is a valid index or a sentinel, no duplicate targets per event, and the
// per-event probability sum is in (0,1]. It also validates the embedded
// Action; the Counter is not checked.
func (s *State) Validate(numStates int) error {
	for ev, edges := range s.Transitions {
		if !ev.Valid() {
			return newError(KindMachine, "transition declared for invalid event %d", ev)
		}
		seen := make(map[int]bool, len(edges))
		sum := 0.0
		for _, e := range edges {
			if e.Target != StateCancel && e.Target != StateEnd && (e.Target < 0 || e.Target >= numStates) {
				return newError(KindMachine, "event %s: transition target %d out of range [0, %d)", ev, e.Target, numStates)
			}
			if seen[e.Target] {
				return newError(KindMachine, "event %s: duplicate transition target %d", ev, e.Target)
			}
			seen[e.Target] = true
			if e.Prob <= 0 || e.Prob > 1 {
				return newError(KindMachine, "event %s: probability %v out of (0, 1]", ev, e.Prob)
			}
			sum += e.Prob
		}
		if len(edges) > 0 && (sum <= 0 || sum > 1) {
			return newError(KindMachine, "event %s: probability sum %v out of (0, 1]", ev, sum)
		}
	}
	if s.Action != nil {
		if err := s.Action.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// sampleState returns the successor for event, or (0, false) if the
// residual "no transition" mass was sampled. Semantics are inverse-CDF
// sampling over Transitions[event] in declared order using a fresh uniform
// [0,1) draw from rng.
func (s *State) sampleState(event Event, rng *rand.Rand) (target int, ok bool) {
	edges, present := s.Transitions[event]
	if !present || len(edges) == 0 {
		return 0, false
	}
	u := rng.Float64()
	cum := 0.0
	for _, e := range edges {
		cum += e.Prob
		if u < cum {
			return e.Target, true
		}
	}
	return 0, false
}

// sampleLimit draws this state's state_limit from its Action's Limit
// distribution, or StateLimitMax if the state has no action or no limit.
func (s *State) sampleLimit(rng *rand.Rand) uint64 {
	if s.Action == nil {
		return StateLimitMax
	}
	return s.Action.sampleLimit(rng)
}

// hasLimitDist reports whether this state's action declares a limit
// distribution, the condition decrementLimit uses to decide whether
// exhausting state_limit should synthesize LimitReached.
func (s *State) hasLimitDist() bool {
	return s.Action != nil && s.Action.Limit != nil
}

// render produces a deterministic textual form used by Machine.Name's
// digest. Events are walked in declared enum order since Transitions is a
// map with no intrinsic order.
func (s *State) render(sb *strings.Builder) {
	fmt.Fprintf(sb, "action=%v counter=%v limit_nonpadding=%v\n", s.renderAction(), s.renderCounter(), s.LimitIncludesNonPadding)
	for ev := Event(0); ev < eventCount; ev++ {
		edges, ok := s.Transitions[ev]
		if !ok || len(edges) == 0 {
			continue
		}
		sorted := make([]Trans, len(edges))
		copy(sorted, edges)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Target < sorted[j].Target })
		fmt.Fprintf(sb, "%s:", ev)
		for _, e := range sorted {
			fmt.Fprintf(sb, " %d@%v", e.Target, e.Prob)
		}
		sb.WriteByte('\n')
	}
}

func (s *State) renderAction() string {
	if s.Action == nil {
		return "none"
	}
	a := s.Action
	return fmt.Sprintf("%s{timeout=%v duration=%v bypass=%v replace=%v limit=%v}",
		a.Kind, renderDist(a.Timeout), renderDist(a.Duration), a.Bypass, a.Replace, a.Limit)
}

// renderDist renders every field of d, so two distributions differing only
// in, e.g., Param2 or Start/Max never collide in Machine.Name's digest.
func renderDist(d Distribution) string {
	return fmt.Sprintf("%v,%v,%v,%v,%v", d.Kind, d.Param1, d.Param2, d.Start, d.Max)
}

func (s *State) renderCounter() string {
	if s.Counter == nil {
		return "none"
	}
	return fmt.Sprintf("%d:%d", s.Counter.Op, s.Counter.Value)
}
