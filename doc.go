// Package maybenot is a framework for traffic-analysis defenses: a set of
// probabilistic state machines that, driven by observed network events on an
// encrypted channel, decide when to inject padding or block outgoing traffic
// so as to obscure patterns in the underlying plaintext.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - event.go: the closed TriggerEvent vocabulary fed into the framework
//   - action.go: the closed Action/TriggerAction vocabulary emitted by it
//   - dist.go: Distribution, the probability family used to sample timeouts,
//     durations, and limits
//   - state.go: State, a single node in a machine's transition graph
//   - machine.go: Machine, a validated, named, serializable vector of states
//   - framework.go: Framework, the dispatcher that ties it all together
//
// The discrete-event simulator that drives a Framework against a recorded
// base trace lives in the sibling package maybenot/simulator.
//
// # Determinism
//
// Given the same machines, the same event sequence, the same clock values,
// and the same injected *rand.Rand, a Framework's output is bit-identical.
// The package performs no I/O, owns no clock, and manages no timers; all of
// that is the embedder's responsibility.
package maybenot
