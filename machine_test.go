package maybenot

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"io"
	"testing"
)

func sampleMachine(t *testing.T) *Machine {
	t.Helper()
	limit := Distribution{Kind: DistUniform, Param1: 4, Param2: 4}
	s0 := State{
		Action:      &Action{Kind: ActionSendPadding, Timeout: mtuDist(10), Limit: &limit},
		Counter:     &CounterUpdate{Op: CounterDecrement, Value: 1},
		Transitions: map[Event][]Trans{EventPaddingSent: {{Target: 1, Prob: 0.9}}},
	}
	s1 := State{
		Transitions: map[Event][]Trans{EventPaddingRecv: {{Target: 0, Prob: 1}}},
	}
	m, err := NewMachine(1000, 0.2, 500, 0.1, []State{s0, s1}, false)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

func TestMachine_NewMachine_RejectsTooManyStates(t *testing.T) {
	states := make([]State, StateMax+1)
	for i := range states {
		states[i] = State{}
	}
	if _, err := NewMachine(0, 0, 0, 0, states, true); err == nil {
		t.Fatal("expected error for state count exceeding StateMax")
	}
}

func TestMachine_NewMachine_RejectsFractionOutOfRange(t *testing.T) {
	if _, err := NewMachine(0, 1.5, 0, 0, []State{{}}, true); err == nil {
		t.Fatal("expected error for max_padding_frac > 1")
	}
	if _, err := NewMachine(0, 0, 0, -0.1, []State{{}}, true); err == nil {
		t.Fatal("expected error for max_blocking_frac < 0")
	}
}

func TestMachine_Name_StableAcrossCalls(t *testing.T) {
	// GIVEN the same machine
	m := sampleMachine(t)
	// WHEN Name() is called twice
	a, b := m.Name(), m.Name()
	// THEN the digest is bit-for-bit identical
	if a != b {
		t.Fatalf("Name() not stable: %q != %q", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("Name() length = %d, want 32", len(a))
	}
}

func TestMachine_Name_DiffersOnStructuralChange(t *testing.T) {
	m1 := sampleMachine(t)
	m2 := sampleMachine(t)
	m2.MaxPaddingFrac = 0.9
	if m1.Name() == m2.Name() {
		t.Fatal("expected different machines to name differently")
	}
}

func TestMachine_Name_DiffersOnDistributionFields(t *testing.T) {
	// GIVEN two machines whose only difference is a field of the action's
	// Timeout distribution other than Param1
	base := func(timeout Distribution) *Machine {
		s0 := State{
			Action:      &Action{Kind: ActionSendPadding, Timeout: timeout},
			Transitions: map[Event][]Trans{EventPaddingSent: {{Target: 0, Prob: 1}}},
		}
		m, err := NewMachine(0, 0, 0, 0, []State{s0}, true)
		if err != nil {
			t.Fatalf("NewMachine: %v", err)
		}
		return m
	}

	m1 := base(Distribution{Kind: DistUniform, Param1: 5, Param2: 5})
	m2 := base(Distribution{Kind: DistUniform, Param1: 5, Param2: 9})
	if m1.Name() == m2.Name() {
		t.Fatal("expected differing Timeout.Param2 to change the digest")
	}

	m3 := base(Distribution{Kind: DistUniform, Param1: 5, Param2: 5, Start: 1})
	if m1.Name() == m3.Name() {
		t.Fatal("expected differing Timeout.Start to change the digest")
	}

	m4 := base(Distribution{Kind: DistUniform, Param1: 5, Param2: 5, Max: 100})
	if m1.Name() == m4.Name() {
		t.Fatal("expected differing Timeout.Max to change the digest")
	}
}

func TestMachine_Serialize_RoundTrip(t *testing.T) {
	// GIVEN a validated machine
	m := sampleMachine(t)
	wantName := m.Name()

	// WHEN serialized then deserialized
	s, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := DeserializeMachine(s)
	if err != nil {
		t.Fatalf("DeserializeMachine: %v", err)
	}

	// THEN the round-tripped machine names identically to the original
	if got.Name() != wantName {
		t.Fatalf("round-tripped machine name = %q, want %q", got.Name(), wantName)
	}
}

func TestMachine_Deserialize_RejectsVersionMismatch(t *testing.T) {
	m := sampleMachine(t)
	s, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	bad := "99" + s[2:]
	if _, err := DeserializeMachine(bad); err == nil {
		t.Fatal("expected error for version mismatch")
	}
}

func TestMachine_Deserialize_RejectsTruncatedInput(t *testing.T) {
	if _, err := DeserializeMachine("0"); err == nil {
		t.Fatal("expected error for input shorter than the version prefix")
	}
}

func TestMachine_Deserialize_RejectsTrailingGarbage(t *testing.T) {
	// GIVEN a validly serialized machine
	m := sampleMachine(t)
	s, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	// WHEN extra compressed bytes are appended after the encoded payload,
	// inflating the decompressed form with trailing garbage
	raw, err := base64.StdEncoding.DecodeString(s[2:])
	if err != nil {
		t.Fatalf("base64 decode: %v", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	decompressed, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("reading compressed payload: %v", err)
	}
	decompressed = append(decompressed, 0xFF, 0xFF, 0xFF)

	var recompressed bytes.Buffer
	zw := zlib.NewWriter(&recompressed)
	if _, err := zw.Write(decompressed); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	tampered := fmt.Sprintf("%02d%s", Version, base64.StdEncoding.EncodeToString(recompressed.Bytes()))

	// THEN deserialization rejects the trailing bytes
	if _, err := DeserializeMachine(tampered); err == nil {
		t.Fatal("expected error for trailing garbage after the decoded machine")
	}
}
