package maybenot

// Limits and sentinels shared by every Framework instance. The simulator
// package imports these rather than redeclaring them, per spec §6: "simulator
// and framework must agree."
const (
	// StateMax caps the number of states a single Machine may declare.
	StateMax = 1000

	// EventNum is the number of distinct TriggerEvent kinds.
	EventNum = int(eventCount)

	// MaxSmallPacketSize is the byte-count threshold at or below which a
	// nonzero byte-carrying event is ignored by a Machine with
	// IncludeSmallPackets == false.
	MaxSmallPacketSize = 16

	// MaxSampledTimeoutMicros clamps a sampled SendPadding/BlockOutgoing
	// timeout draw, in microseconds.
	MaxSampledTimeoutMicros = 60_000_000 // 60s

	// MaxSampledBlockDurationMicros clamps a sampled BlockOutgoing
	// duration draw, in microseconds.
	MaxSampledBlockDurationMicros = 60_000_000 // 60s

	// MaxSampledTimerDurationMicros clamps a sampled UpdateTimer duration
	// draw, in microseconds.
	MaxSampledTimerDurationMicros = 60_000_000 // 60s

	// StateLimitMax caps a sampled per-action limit draw, and is the
	// value assigned to state_limit when the entered state's action
	// declares no limit distribution (effectively "unlimited").
	StateLimitMax = 1_000_000

	// StateCancel is the sentinel transition target meaning "emit Cancel,
	// no state change."
	StateCancel = -1

	// StateEnd is the sentinel transition target meaning "terminal."
	StateEnd = -2

	// MaxDecompressedSize bounds the output of a machine-serialization
	// decompression, to resist decompression bombs.
	MaxDecompressedSize = 10 << 20 // 10 MiB

	// Version is the machine-serialization format version. Changing the
	// wire shape of Machine requires bumping this.
	Version = 1
)
