package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/obscuranet/maybenot"
)

// MachineSetConfig is the YAML-loadable description of a full simulation
// run: the two endpoints' machine sets plus the network and Framework-wide
// knobs. Nil pointer fields mean "not set in YAML" and fall back to their
// zero value when built.
type MachineSetConfig struct {
	NetworkDelayMicros    int64          `yaml:"network_delay_micros"`
	MTU                   uint16         `yaml:"mtu"`
	MaxTraceLength        int            `yaml:"max_trace_length"`
	Seed                  int64          `yaml:"seed"`
	GlobalMaxPaddingFrac  float64        `yaml:"global_max_padding_frac"`
	GlobalMaxBlockingFrac float64        `yaml:"global_max_blocking_frac"`
	Client                EndpointConfig `yaml:"client"`
	Server                EndpointConfig `yaml:"server"`
}

// EndpointConfig is one side's machine set.
type EndpointConfig struct {
	Machines []MachineConfig `yaml:"machines"`
}

// MachineConfig mirrors maybenot.Machine's constructor arguments.
type MachineConfig struct {
	AllowedPaddingBytes    uint64        `yaml:"allowed_padding_bytes"`
	MaxPaddingFrac         float64       `yaml:"max_padding_frac"`
	AllowedBlockedMicrosec uint64        `yaml:"allowed_blocked_microsec"`
	MaxBlockingFrac        float64       `yaml:"max_blocking_frac"`
	IncludeSmallPackets    bool          `yaml:"include_small_packets"`
	States                 []StateConfig `yaml:"states"`
}

// StateConfig mirrors maybenot.State.
type StateConfig struct {
	Action                  *ActionConfig           `yaml:"action"`
	Counter                 *CounterConfig          `yaml:"counter"`
	LimitIncludesNonPadding bool                    `yaml:"limit_includes_nonpadding"`
	Transitions             map[string][]TransConfig `yaml:"transitions"`
}

// ActionConfig mirrors maybenot.Action.
type ActionConfig struct {
	Kind     string      `yaml:"kind"`
	Timeout  *DistConfig `yaml:"timeout"`
	Duration *DistConfig `yaml:"duration"`
	Bypass   bool        `yaml:"bypass"`
	Replace  bool        `yaml:"replace"`
	Limit    *DistConfig `yaml:"limit"`
}

// CounterConfig mirrors maybenot.CounterUpdate.
type CounterConfig struct {
	Op    string `yaml:"op"`
	Value int64  `yaml:"value"`
}

// TransConfig mirrors maybenot.Trans.
type TransConfig struct {
	Target int     `yaml:"target"`
	Prob   float64 `yaml:"prob"`
}

// DistConfig mirrors maybenot.Distribution.
type DistConfig struct {
	Kind   string  `yaml:"kind"`
	Param1 float64 `yaml:"param1"`
	Param2 float64 `yaml:"param2"`
	Start  float64 `yaml:"start"`
	Max    float64 `yaml:"max"`
}

// LoadMachineSetConfig reads and strictly parses a YAML machine-set bundle:
// unrecognized keys (typos) are rejected, mirroring the teacher's policy
// bundle loader.
func LoadMachineSetConfig(path string) (*MachineSetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading machine-set config: %w", err)
	}
	var cfg MachineSetConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing machine-set config: %w", err)
	}
	return &cfg, nil
}

var distKinds = map[string]maybenot.DistKind{
	"":          maybenot.DistNone,
	"none":      maybenot.DistNone,
	"uniform":   maybenot.DistUniform,
	"normal":    maybenot.DistNormal,
	"lognormal": maybenot.DistLogNormal,
	"poisson":   maybenot.DistPoisson,
	"pareto":    maybenot.DistPareto,
	"geometric": maybenot.DistGeometric,
	"weibull":   maybenot.DistWeibull,
	"gamma":     maybenot.DistGamma,
}

var actionKinds = map[string]maybenot.ActionKind{
	"send_padding":   maybenot.ActionSendPadding,
	"block_outgoing": maybenot.ActionBlockOutgoing,
	"update_timer":   maybenot.ActionUpdateTimer,
}

var counterOps = map[string]maybenot.CounterOp{
	"increment": maybenot.CounterIncrement,
	"decrement": maybenot.CounterDecrement,
	"set":       maybenot.CounterSet,
	"reset":     maybenot.CounterReset,
}

var eventNames = map[string]maybenot.Event{
	"NormalRecv":    maybenot.EventNormalRecv,
	"NormalSent":    maybenot.EventNormalSent,
	"PaddingRecv":   maybenot.EventPaddingRecv,
	"PaddingSent":   maybenot.EventPaddingSent,
	"TunnelRecv":    maybenot.EventTunnelRecv,
	"TunnelSent":    maybenot.EventTunnelSent,
	"BlockingBegin": maybenot.EventBlockingBegin,
	"BlockingEnd":   maybenot.EventBlockingEnd,
	"LimitReached":  maybenot.EventLimitReached,
	"CounterZero":   maybenot.EventCounterZero,
	"TimerBegin":    maybenot.EventTimerBegin,
	"TimerEnd":      maybenot.EventTimerEnd,
	"UpdateMTU":     maybenot.EventUpdateMTU,
}

func buildDist(c *DistConfig) (maybenot.Distribution, error) {
	if c == nil {
		return maybenot.Distribution{}, nil
	}
	kind, ok := distKinds[c.Kind]
	if !ok {
		return maybenot.Distribution{}, fmt.Errorf("unknown distribution kind %q", c.Kind)
	}
	return maybenot.Distribution{Kind: kind, Param1: c.Param1, Param2: c.Param2, Start: c.Start, Max: c.Max}, nil
}

func buildAction(c *ActionConfig) (*maybenot.Action, error) {
	if c == nil {
		return nil, nil
	}
	kind, ok := actionKinds[c.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown action kind %q", c.Kind)
	}
	timeout, err := buildDist(c.Timeout)
	if err != nil {
		return nil, fmt.Errorf("action timeout: %w", err)
	}
	duration, err := buildDist(c.Duration)
	if err != nil {
		return nil, fmt.Errorf("action duration: %w", err)
	}
	a := &maybenot.Action{Kind: kind, Timeout: timeout, Duration: duration, Bypass: c.Bypass, Replace: c.Replace}
	if c.Limit != nil {
		limit, err := buildDist(c.Limit)
		if err != nil {
			return nil, fmt.Errorf("action limit: %w", err)
		}
		a.Limit = &limit
	}
	return a, nil
}

func buildCounter(c *CounterConfig) (*maybenot.CounterUpdate, error) {
	if c == nil {
		return nil, nil
	}
	op, ok := counterOps[c.Op]
	if !ok {
		return nil, fmt.Errorf("unknown counter op %q", c.Op)
	}
	return &maybenot.CounterUpdate{Op: op, Value: c.Value}, nil
}

func buildState(c StateConfig) (maybenot.State, error) {
	action, err := buildAction(c.Action)
	if err != nil {
		return maybenot.State{}, err
	}
	counter, err := buildCounter(c.Counter)
	if err != nil {
		return maybenot.State{}, err
	}
	transitions := make(map[maybenot.Event][]maybenot.Trans, len(c.Transitions))
	for name, edges := range c.Transitions {
		ev, ok := eventNames[name]
		if !ok {
			return maybenot.State{}, fmt.Errorf("unknown event %q in transitions", name)
		}
		trans := make([]maybenot.Trans, len(edges))
		for i, e := range edges {
			trans[i] = maybenot.Trans{Target: e.Target, Prob: e.Prob}
		}
		transitions[ev] = trans
	}
	return maybenot.State{
		Action:                  action,
		Counter:                 counter,
		LimitIncludesNonPadding: c.LimitIncludesNonPadding,
		Transitions:             transitions,
	}, nil
}

// Build converts a MachineConfig into a validated maybenot.Machine.
func (c MachineConfig) Build() (*maybenot.Machine, error) {
	states := make([]maybenot.State, len(c.States))
	for i, sc := range c.States {
		s, err := buildState(sc)
		if err != nil {
			return nil, fmt.Errorf("state %d: %w", i, err)
		}
		states[i] = s
	}
	return maybenot.NewMachine(c.AllowedPaddingBytes, c.MaxPaddingFrac, c.AllowedBlockedMicrosec, c.MaxBlockingFrac, states, c.IncludeSmallPackets)
}

// Build converts every machine in the endpoint config, failing on the
// first invalid one.
func (e EndpointConfig) Build() ([]maybenot.Machine, error) {
	machines := make([]maybenot.Machine, 0, len(e.Machines))
	for i, mc := range e.Machines {
		m, err := mc.Build()
		if err != nil {
			return nil, fmt.Errorf("machine %d: %w", i, err)
		}
		machines = append(machines, *m)
	}
	return machines, nil
}

// Validate checks structural ranges the loader itself can't catch via
// strict YAML decoding alone, and that every machine it describes builds
// cleanly.
func (cfg *MachineSetConfig) Validate() error {
	if cfg.GlobalMaxPaddingFrac < 0 || cfg.GlobalMaxPaddingFrac > 1 {
		return fmt.Errorf("global_max_padding_frac %v out of [0,1]", cfg.GlobalMaxPaddingFrac)
	}
	if cfg.GlobalMaxBlockingFrac < 0 || cfg.GlobalMaxBlockingFrac > 1 {
		return fmt.Errorf("global_max_blocking_frac %v out of [0,1]", cfg.GlobalMaxBlockingFrac)
	}
	if cfg.MTU == 0 {
		return fmt.Errorf("mtu must be nonzero")
	}
	if cfg.MaxTraceLength <= 0 {
		return fmt.Errorf("max_trace_length must be positive")
	}
	if _, err := cfg.Client.Build(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if _, err := cfg.Server.Build(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
