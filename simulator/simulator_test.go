package simulator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/obscuranet/maybenot"
	"github.com/stretchr/testify/require"
)

func padTimeout(v float64) maybenot.Distribution {
	return maybenot.Distribution{Kind: maybenot.DistUniform, Param1: v, Param2: v}
}

func TestSimulator_Run_RespondsToBaseTraceWithPadding(t *testing.T) {
	// GIVEN a client machine that sends one padding packet after every
	// NormalSent, and a passive server machine
	s0 := maybenot.State{
		Action: &maybenot.Action{Kind: maybenot.ActionSendPadding, Timeout: padTimeout(5)},
		Transitions: map[maybenot.Event][]maybenot.Trans{
			maybenot.EventNormalSent: {{Target: 0, Prob: 1}},
		},
	}
	clientMachine, err := maybenot.NewMachine(1<<30, 0, 0, 0, []maybenot.State{s0}, true)
	require.NoError(t, err)

	clientFW, err := maybenot.NewFramework([]maybenot.Machine{*clientMachine}, 0, 0, time.Unix(0, 0), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	serverFW, err := maybenot.NewFramework(nil, 0, 0, time.Unix(0, 0), rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	// AND a base trace with a single client-sent packet
	q := NewSimQueue()
	events, err := ParseTrace("0,s", 0, time.Unix(0, 0))
	require.NoError(t, err)
	for _, e := range events {
		q.Push(e)
	}

	sim := NewSimulator(q, clientFW, serverFW, 0, 1400, 100)

	// WHEN the simulator runs to completion
	trace, err := sim.Run()
	require.NoError(t, err)

	// THEN the trace contains the original NormalSent plus a scheduled
	// padding TunnelSent/PaddingSent pair
	require.GreaterOrEqual(t, len(trace), 2)
	sawPadding := false
	for _, e := range trace {
		if e.Event.Kind == maybenot.EventTunnelSent && e.ContainsPadding {
			sawPadding = true
		}
	}
	require.True(t, sawPadding, "expected a padding TunnelSent event in the trace")
}
