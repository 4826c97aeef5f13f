package maybenot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Machine is an ordered, validated, immutable vector of states plus the
// per-machine overhead limits enforced by a Framework. Construct one with
// NewMachine; the zero value is not valid.
type Machine struct {
	// AllowedPaddingBytes is the grace budget: until a machine's
	// padding_sent counter reaches this many bytes, max_padding_frac
	// (both per-machine and global) does not apply.
	AllowedPaddingBytes uint64
	// MaxPaddingFrac is the maximum padding/(padding+non-padding) ratio
	// enforced after grace, in [0,1]. Zero disables the per-machine cap
	// (the global cap may still apply).
	MaxPaddingFrac float64
	// AllowedBlockedMicrosec is the grace budget for blocking duration.
	AllowedBlockedMicrosec uint64
	// MaxBlockingFrac is the maximum blocked-time fraction enforced after
	// grace, in [0,1].
	MaxBlockingFrac float64
	// States is this machine's non-empty, STATE_MAX-capped transition
	// graph. State 0 is the entry state.
	States []State
	// IncludeSmallPackets, if false, makes byte-carrying events with
	// 0 < n <= MaxSmallPacketSize invisible to this machine's
	// transitions.
	IncludeSmallPackets bool
}

// NewMachine validates and returns a Machine. Fractions out of [0,1] fail
// with KindPaddingLimit/KindBlockingLimit; structural problems fail with
// KindMachine.
func NewMachine(allowedPaddingBytes uint64, maxPaddingFrac float64, allowedBlockedMicrosec uint64, maxBlockingFrac float64, states []State, includeSmallPackets bool) (*Machine, error) {
	if maxPaddingFrac < 0 || maxPaddingFrac > 1 {
		return nil, newError(KindPaddingLimit, "max_padding_frac %v out of [0,1]", maxPaddingFrac)
	}
	if maxBlockingFrac < 0 || maxBlockingFrac > 1 {
		return nil, newError(KindBlockingLimit, "max_blocking_frac %v out of [0,1]", maxBlockingFrac)
	}
	if len(states) == 0 {
		return nil, newError(KindMachine, "machine must declare at least one state")
	}
	if len(states) > StateMax {
		return nil, newError(KindMachine, "machine declares %d states, exceeds STATE_MAX=%d", len(states), StateMax)
	}
	for i := range states {
		if err := states[i].Validate(len(states)); err != nil {
			return nil, wrapError(KindMachine, err, "state %d", i)
		}
	}
	m := &Machine{
		AllowedPaddingBytes:    allowedPaddingBytes,
		MaxPaddingFrac:         maxPaddingFrac,
		AllowedBlockedMicrosec: allowedBlockedMicrosec,
		MaxBlockingFrac:        maxBlockingFrac,
		States:                 states,
		IncludeSmallPackets:    includeSmallPackets,
	}
	return m, nil
}

// Validate re-checks an already-constructed Machine; useful after
// deserialization, where fields are populated directly rather than through
// NewMachine.
func (m *Machine) Validate() error {
	if m.MaxPaddingFrac < 0 || m.MaxPaddingFrac > 1 {
		return newError(KindPaddingLimit, "max_padding_frac %v out of [0,1]", m.MaxPaddingFrac)
	}
	if m.MaxBlockingFrac < 0 || m.MaxBlockingFrac > 1 {
		return newError(KindBlockingLimit, "max_blocking_frac %v out of [0,1]", m.MaxBlockingFrac)
	}
	if len(m.States) == 0 {
		return newError(KindMachine, "machine must declare at least one state")
	}
	if len(m.States) > StateMax {
		return newError(KindMachine, "machine declares %d states, exceeds STATE_MAX=%d", len(m.States), StateMax)
	}
	for i := range m.States {
		if err := m.States[i].Validate(len(m.States)); err != nil {
			return wrapError(KindMachine, err, "state %d", i)
		}
	}
	return nil
}

// Name is a stable 32-hex-char digest over every field, using a
// deterministic textual rendering of states (declared Event order, sorted
// transition targets) so the same Machine always names identically across
// processes and architectures.
func (m *Machine) Name() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "allowed_padding_bytes=%d\n", m.AllowedPaddingBytes)
	fmt.Fprintf(&sb, "max_padding_frac=%v\n", m.MaxPaddingFrac)
	fmt.Fprintf(&sb, "allowed_blocked_microsec=%d\n", m.AllowedBlockedMicrosec)
	fmt.Fprintf(&sb, "max_blocking_frac=%v\n", m.MaxBlockingFrac)
	fmt.Fprintf(&sb, "include_small_packets=%v\n", m.IncludeSmallPackets)
	fmt.Fprintf(&sb, "num_states=%d\n", len(m.States))
	for i := range m.States {
		fmt.Fprintf(&sb, "state %d:\n", i)
		m.States[i].render(&sb)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])[:32]
}
