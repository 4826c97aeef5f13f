package simulator

import (
	"testing"
	"time"

	"github.com/obscuranet/maybenot"
)

func TestParseTrace_ClientAndServerTokens(t *testing.T) {
	// GIVEN the canonical example trace from the reference harness
	start := time.Unix(0, 0)
	delay := 5 * time.Microsecond

	events, err := ParseTrace("0,s 18,s 25,r 25,r 30,s 35,r", delay, start)
	if err != nil {
		t.Fatalf("ParseTrace: %v", err)
	}
	if len(events) != 6 {
		t.Fatalf("len(events) = %d, want 6", len(events))
	}

	// WHEN inspecting a client-sent token
	if !events[0].Client || !events[0].Time.Equal(start) {
		t.Fatalf("events[0] = %+v, want client-sent at start", events[0])
	}
	// THEN a server-received token is stored delay before its nominal time
	if events[2].Client {
		t.Fatal("events[2] should be server-origin (client=false)")
	}
	want := start.Add(25 * time.Microsecond).Add(-delay)
	if !events[2].Time.Equal(want) {
		t.Fatalf("events[2].Time = %v, want %v", events[2].Time, want)
	}
}

func TestParseTrace_RejectsMalformedTokens(t *testing.T) {
	if _, err := ParseTrace("not-a-token", 0, time.Unix(0, 0)); err == nil {
		t.Fatal("expected parse error for malformed token")
	}
	if _, err := ParseTrace("10,x", 0, time.Unix(0, 0)); err == nil {
		t.Fatal("expected parse error for invalid direction")
	}
}

func TestWriteTrace_RoundTripsDirectionTokens(t *testing.T) {
	base := time.Unix(0, 0)
	events := []*SimEvent{
		{Event: maybenot.NormalSent(0), Time: base.Add(10 * time.Microsecond), Client: true},
		{Event: maybenot.TunnelSent(0), Time: base.Add(20 * time.Microsecond), Client: false, ContainsPadding: true},
	}
	got := WriteTrace(events, base)
	want := "10,s 20,rn"
	if got != want {
		t.Fatalf("WriteTrace() = %q, want %q", got, want)
	}
}
