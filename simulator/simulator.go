package simulator

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/obscuranet/maybenot"
)

// blockState tracks one endpoint's outstanding BlockOutgoing action.
type blockState struct {
	active     bool
	bypassable bool
	until      time.Time
}

// Simulator drives a client-side and a server-side maybenot.Framework
// against a SimQueue, translating emitted TriggerActions into new SimEvents
// and injecting generated packets back as events, per spec §2 and §4.3-4.4.
type Simulator struct {
	Queue        *SimQueue
	ClientFW     *maybenot.Framework
	ServerFW     *maybenot.Framework
	NetworkDelay time.Duration
	MTU          uint16

	MaxTraceLength int

	Metrics *Metrics

	clock       time.Time
	clientBlock blockState
	serverBlock blockState
}

// NewSimulator constructs a Simulator around an already-populated queue
// (typically seeded from ParseTrace) and the two Frameworks that will react
// to it.
func NewSimulator(queue *SimQueue, clientFW, serverFW *maybenot.Framework, networkDelay time.Duration, mtu uint16, maxTraceLength int) *Simulator {
	return &Simulator{
		Queue:          queue,
		ClientFW:       clientFW,
		ServerFW:       serverFW,
		NetworkDelay:   networkDelay,
		MTU:            mtu,
		MaxTraceLength: maxTraceLength,
		Metrics:        NewMetrics(),
	}
}

// Run drains the queue, producing the full simulated trace (both
// endpoints, chronological) up to MaxTraceLength events.
func (s *Simulator) Run() ([]*SimEvent, error) {
	start, ok := s.Queue.GetFirstTime()
	if !ok {
		return nil, fmt.Errorf("simulator: queue has no base events to seed the clock")
	}
	s.clock = start

	var trace []*SimEvent
	for len(trace) < s.MaxTraceLength && s.Queue.Len() > 0 {
		ev, tag, isClient, wait := s.nextExecutable()
		if ev == nil {
			break
		}
		s.clock = s.clock.Add(wait)

		popped := s.Queue.Pop(tag, isClient, s.NetworkDelay)
		if popped == nil {
			break
		}
		popped.Time = s.clock

		logrus.Debugf("[t=%s] endpoint=%s tag=%s event=%s", s.clock.Sub(start), endpointName(isClient), tag, popped.Event.Kind)

		s.handle(popped, isClient)
		trace = append(trace, popped)
		s.Metrics.EventsProcessed++
	}
	s.Metrics.SimulatedDuration = s.clock.Sub(start)
	return trace, nil
}

func endpointName(isClient bool) string {
	if isClient {
		return "client"
	}
	return "server"
}

// nextExecutable picks the earliest event that the current blocking state
// of its endpoint allows to run: everything, if that endpoint isn't
// currently blocking outgoing traffic, or only the blocking-exempt
// partitions otherwise.
func (s *Simulator) nextExecutable() (*SimEvent, QueueTag, bool, time.Duration) {
	clientCand := s.endpointCandidate(true)
	serverCand := s.endpointCandidate(false)

	switch {
	case clientCand == nil && serverCand == nil:
		return nil, TagInternal, false, 0
	case clientCand == nil:
		return serverCand.ev, serverCand.tag, false, durationUntil(s.clock, serverCand.eff)
	case serverCand == nil:
		return clientCand.ev, clientCand.tag, true, durationUntil(s.clock, clientCand.eff)
	case beforeEffective(clientCand.eff, clientCand.ev, serverCand.eff, serverCand.ev):
		return clientCand.ev, clientCand.tag, true, durationUntil(s.clock, clientCand.eff)
	default:
		return serverCand.ev, serverCand.tag, false, durationUntil(s.clock, serverCand.eff)
	}
}

func durationUntil(now, eff time.Time) time.Duration {
	d := eff.Sub(now)
	if d < 0 {
		d = 0
	}
	return d
}

func (s *Simulator) endpointCandidate(isClient bool) *queueCandidate {
	block := s.blockFor(isClient)
	if !block.active {
		return s.Queue.peekEndpointAll(isClient, s.NetworkDelay)
	}
	ev, tag, ok := s.Queue.PeekNonBlocking(block.bypassable, isClient, s.NetworkDelay)
	if !ok {
		return nil
	}
	eff := ev.Time
	if tag == TagBase {
		eff = eff.Add(s.NetworkDelay)
	}
	return &queueCandidate{eff: eff, ev: ev, tag: tag, isClient: isClient}
}

func (s *Simulator) blockFor(isClient bool) *blockState {
	if isClient {
		return &s.clientBlock
	}
	return &s.serverBlock
}

func (s *Simulator) frameworkFor(isClient bool) *maybenot.Framework {
	if isClient {
		return s.ClientFW
	}
	return s.ServerFW
}

// handle feeds ev to the acting endpoint's Framework, updates block state
// and metrics, and schedules any resulting TriggerActions as future
// SimEvents.
func (s *Simulator) handle(ev *SimEvent, isClient bool) {
	block := s.blockFor(isClient)
	if ev.Event.Kind == maybenot.EventBlockingEnd && block.active && s.clock.Before(block.until) {
		// A machine-driven unblock arriving before the scheduled
		// block.until is honored immediately; block.until is advisory
		// bookkeeping, not a hard floor.
		block.active = false
	}

	switch ev.Event.Kind {
	case maybenot.EventNormalSent:
		s.Metrics.RecordNonPadding(isClient, 0, uint64(ev.Event.Bytes))
	case maybenot.EventTunnelSent:
		if ev.ContainsPadding {
			s.Metrics.RecordPadding(isClient, int(ev.Event.Machine), uint64(ev.Event.Bytes))
		} else {
			s.Metrics.RecordNonPadding(isClient, int(ev.Event.Machine), uint64(ev.Event.Bytes))
		}
	case maybenot.EventBlockingEnd:
		block.active = false
	}

	fw := s.frameworkFor(isClient)
	actions := fw.TriggerEvents([]maybenot.TriggerEvent{ev.Event}, s.clock)
	for _, a := range actions {
		s.schedule(a, isClient)
	}
}

// schedule converts a TriggerAction into future SimEvents and pushes them
// back into the queue; for BlockOutgoing it also updates the endpoint's
// blocking state directly. Cancel is ignored.
func (s *Simulator) schedule(a maybenot.TriggerAction, isClient bool) {
	switch a.Kind {
	case maybenot.ActionCancel:
		// Cancel has no effect here, whatever its Timer scope: events
		// already pushed for earlier actions stay queued, and an active
		// block is not lifted.
		return

	case maybenot.ActionSendPadding:
		t := s.clock.Add(time.Duration(a.Timeout) * time.Microsecond)
		s.Queue.Push(&SimEvent{
			Event:           maybenot.TunnelSent(s.MTU),
			Time:            t,
			Client:          isClient,
			ContainsPadding: true,
			Bypass:          a.Bypass,
			Replace:         a.Replace,
		})
		s.Queue.Push(&SimEvent{
			Event:   maybenot.PaddingSent(s.MTU, a.Machine),
			Time:    t,
			Client:  isClient,
			Bypass:  a.Bypass,
			Replace: a.Replace,
		})

	case maybenot.ActionBlockOutgoing:
		start := s.clock.Add(time.Duration(a.Timeout) * time.Microsecond)
		until := start.Add(time.Duration(a.Duration) * time.Microsecond)
		block := s.blockFor(isClient)

		if block.active && !a.Replace {
			if until.Before(block.until) {
				until = block.until
			}
		}
		block.active = true
		block.bypassable = a.Bypass
		block.until = until

		s.Queue.Push(&SimEvent{Event: maybenot.BlockingBegin(a.Machine), Time: start, Client: isClient})
		s.Queue.Push(&SimEvent{Event: maybenot.BlockingEnd(), Time: until, Client: isClient})

	case maybenot.ActionUpdateTimer:
		d := time.Duration(a.Duration) * time.Microsecond
		s.Queue.Push(&SimEvent{Event: maybenot.TimerBegin(a.Machine), Time: s.clock, Client: isClient})
		s.Queue.Push(&SimEvent{Event: maybenot.TimerEnd(a.Machine), Time: s.clock.Add(d), Client: isClient, Replace: a.Replace})
	}
}
