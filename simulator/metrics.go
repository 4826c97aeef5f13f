package simulator

import "time"

// Metrics accumulates overhead totals over the course of a simulation run,
// generalized from the ad hoc assertions the reference test suite computes
// per scenario into a structure the CLI can print after any run.
type Metrics struct {
	TotalPaddingBytes    uint64
	TotalNonPaddingBytes uint64
	TotalBlockedDuration time.Duration
	SimulatedDuration    time.Duration
	EventsProcessed      uint64

	PerMachine map[maybenotMachineKey]*MachineMetrics
}

// maybenotMachineKey identifies a machine by endpoint and index, since the
// same MachineID is reused independently by the client-side and
// server-side Framework.
type maybenotMachineKey struct {
	Client  bool
	Machine int
}

// MachineMetrics is one machine's slice of the overall Metrics.
type MachineMetrics struct {
	PaddingBytes    uint64
	NonPaddingBytes uint64
	BlockedDuration time.Duration
}

// NewMetrics returns a zeroed Metrics ready for accumulation.
func NewMetrics() *Metrics {
	return &Metrics{PerMachine: make(map[maybenotMachineKey]*MachineMetrics)}
}

func (m *Metrics) machine(client bool, mi int) *MachineMetrics {
	key := maybenotMachineKey{Client: client, Machine: mi}
	mm, ok := m.PerMachine[key]
	if !ok {
		mm = &MachineMetrics{}
		m.PerMachine[key] = mm
	}
	return mm
}

// RecordPadding adds n padding bytes to the global and per-machine totals.
func (m *Metrics) RecordPadding(client bool, mi int, n uint64) {
	m.TotalPaddingBytes += n
	m.machine(client, mi).PaddingBytes += n
}

// RecordNonPadding adds n non-padding bytes to the global and per-machine
// totals.
func (m *Metrics) RecordNonPadding(client bool, mi int, n uint64) {
	m.TotalNonPaddingBytes += n
	m.machine(client, mi).NonPaddingBytes += n
}

// RecordBlocked adds d to the global and per-machine blocked-duration
// totals.
func (m *Metrics) RecordBlocked(client bool, mi int, d time.Duration) {
	m.TotalBlockedDuration += d
	m.machine(client, mi).BlockedDuration += d
}

// PaddingFraction returns the overall padding/(padding+non-padding) ratio,
// or 0 if no bytes have been recorded.
func (m *Metrics) PaddingFraction() float64 {
	total := m.TotalPaddingBytes + m.TotalNonPaddingBytes
	if total == 0 {
		return 0
	}
	return float64(m.TotalPaddingBytes) / float64(total)
}
