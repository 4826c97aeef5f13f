package maybenot

import (
	"math/rand"
	"testing"
)

func TestState_Validate_RejectsDuplicateTarget(t *testing.T) {
	// GIVEN a state with two edges for the same event targeting the same
	// state
	s := State{Transitions: map[Event][]Trans{
		EventNormalRecv: {{Target: 0, Prob: 0.5}, {Target: 0, Prob: 0.4}},
	}}
	// WHEN validated against 1 state
	err := s.Validate(1)
	// THEN it is rejected
	if err == nil {
		t.Fatal("expected error for duplicate transition target")
	}
}

func TestState_Validate_RejectsOutOfRangeTarget(t *testing.T) {
	s := State{Transitions: map[Event][]Trans{
		EventNormalRecv: {{Target: 5, Prob: 1}},
	}}
	if err := s.Validate(2); err == nil {
		t.Fatal("expected error for out-of-range transition target")
	}
}

func TestState_Validate_AcceptsSentinels(t *testing.T) {
	s := State{Transitions: map[Event][]Trans{
		EventNormalRecv: {{Target: StateCancel, Prob: 0.5}},
		EventPaddingRecv: {{Target: StateEnd, Prob: 1}},
	}}
	if err := s.Validate(1); err != nil {
		t.Fatalf("expected sentinels to validate, got %v", err)
	}
}

func TestState_Validate_RejectsProbabilitySumAboveOne(t *testing.T) {
	s := State{Transitions: map[Event][]Trans{
		EventNormalRecv: {{Target: 0, Prob: 0.7}, {Target: StateEnd, Prob: 0.4}},
	}}
	if err := s.Validate(1); err == nil {
		t.Fatal("expected error for probability sum > 1")
	}
}

func TestState_SampleState_ResidualMassMeansNoTransition(t *testing.T) {
	// GIVEN a state whose single transition carries probability 0.3
	s := State{Transitions: map[Event][]Trans{
		EventNormalRecv: {{Target: 1, Prob: 0.3}},
	}}
	// WHEN a draw above 0.3 occurs
	rng := rand.New(rand.NewSource(1))
	var sawNoTransition bool
	for i := 0; i < 200; i++ {
		if _, ok := s.sampleState(EventNormalRecv, rng); !ok {
			sawNoTransition = true
			break
		}
	}
	// THEN the residual mass is eventually observed as "no transition"
	if !sawNoTransition {
		t.Fatal("expected at least one residual-mass draw across 200 samples")
	}
}

func TestState_SampleState_UnknownEventIsNoTransition(t *testing.T) {
	s := State{Transitions: map[Event][]Trans{EventNormalRecv: {{Target: 1, Prob: 1}}}}
	rng := rand.New(rand.NewSource(1))
	if _, ok := s.sampleState(EventPaddingRecv, rng); ok {
		t.Fatal("expected no transition for an event the state declares nothing for")
	}
}
