package simulator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/obscuranet/maybenot"
)

// ParseTrace reads the base-trace grammar consumed by the simulator
// harness (spec §6): space-separated "T,D" tokens, T microseconds from the
// start, D one of s, sn (sent by the client) or r, rn (received by the
// client, i.e. sent by the server `delay` ago). The "n" suffix exists in
// the grammar for forward compatibility but carries no distinct meaning
// here, matching the reference parser. Anything else is a parse error.
func ParseTrace(trace string, delay time.Duration, start time.Time) ([]*SimEvent, error) {
	var out []*SimEvent
	for _, tok := range strings.Fields(trace) {
		parts := strings.SplitN(tok, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("simulator: malformed trace token %q", tok)
		}
		micros, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("simulator: bad timestamp in token %q: %w", tok, err)
		}
		t := start.Add(time.Duration(micros) * time.Microsecond)

		switch parts[1] {
		case "s", "sn":
			out = append(out, &SimEvent{
				Event:  maybenot.NormalSent(0),
				Time:   t,
				Client: true,
			})
		case "r", "rn":
			out = append(out, &SimEvent{
				Event:  maybenot.NormalSent(0),
				Time:   t.Add(-delay),
				Client: false,
			})
		default:
			return nil, fmt.Errorf("simulator: invalid trace direction %q", parts[1])
		}
	}
	return out, nil
}

// WriteTrace renders the NormalSent and TunnelSent events of events back
// into the "T,D" grammar, relative to base; events of other kinds are
// skipped. Client-side events are emitted as s/sn and server-side events
// (Client == false) as r/rn, with the "n" suffix marking ContainsPadding.
// Times are written as they are, with no network-delay shift.
func WriteTrace(events []*SimEvent, base time.Time) string {
	var sb strings.Builder
	for i, e := range events {
		if e.Event.Kind != maybenot.EventTunnelSent && e.Event.Kind != maybenot.EventNormalSent {
			continue
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		micros := e.Time.Sub(base).Microseconds()
		dir := directionToken(e)
		fmt.Fprintf(&sb, "%d,%s", micros, dir)
	}
	return sb.String()
}

func directionToken(e *SimEvent) string {
	switch {
	case e.Client && e.ContainsPadding:
		return "sn"
	case e.Client:
		return "s"
	case e.ContainsPadding:
		return "rn"
	default:
		return "r"
	}
}
