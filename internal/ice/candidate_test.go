package ice

import "testing"

func TestPriorityOrdering(t *testing.T) {
	host := NewHostCandidate(NetworkTypeUDP4, "10.0.0.1", 5000, TCPTypeNone)
	srflx := NewServerReflexiveCandidate(NetworkTypeUDP4, "1.2.3.4", 6000, host)
	if host.Priority() <= srflx.Priority() {
		t.Fatalf("expected host priority %d > srflx priority %d", host.Priority(), srflx.Priority())
	}
}

func TestFoundationStable(t *testing.T) {
	a := NewHostCandidate(NetworkTypeUDP4, "10.0.0.1", 5000, TCPTypeNone)
	b := NewHostCandidate(NetworkTypeUDP4, "10.0.0.1", 5001, TCPTypeNone)
	if a.Foundation() != b.Foundation() {
		t.Fatalf("expected same foundation for same type+address+network, got %s vs %s", a.Foundation(), b.Foundation())
	}
	c := NewHostCandidate(NetworkTypeUDP4, "10.0.0.2", 5000, TCPTypeNone)
	if a.Foundation() == c.Foundation() {
		t.Fatalf("expected different foundation for different address")
	}
}

func TestMarshal(t *testing.T) {
	c := NewHostCandidate(NetworkTypeUDP4, "10.0.0.1", 5000, TCPTypeNone)
	s := c.Marshal()
	if s == "" {
		t.Fatal("expected non-empty marshal")
	}
}

func TestParseCandidateRoundTrip(t *testing.T) {
	c := NewServerReflexiveCandidate(NetworkTypeUDP4, "1.2.3.4", 6000, NewHostCandidate(NetworkTypeUDP4, "10.0.0.1", 5000, TCPTypeNone))
	parsed, err := ParseCandidate(c.Marshal())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Foundation() != c.Foundation() || parsed.Component() != c.Component() ||
		parsed.Priority() != c.Priority() || parsed.Address() != c.Address() ||
		parsed.Port() != c.Port() || parsed.Type() != c.Type() ||
		parsed.RelatedAddress() != c.RelatedAddress() || parsed.RelatedPort() != c.RelatedPort() {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, c)
	}
}

func TestParseCandidateTCP(t *testing.T) {
	s := "1 1 tcp 1015021823 10.0.0.1 9 typ host tcptype active"
	c, err := ParseCandidate(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.NetworkType().IsTCP() || c.TCPType() != TCPTypeActive {
		t.Fatalf("expected active tcp candidate, got %+v", c)
	}
}

func TestParseCandidateMalformed(t *testing.T) {
	if _, err := ParseCandidate("garbage"); err == nil {
		t.Fatal("expected error for malformed candidate")
	}
}

func TestCandidatePairPriority(t *testing.T) {
	local := NewHostCandidate(NetworkTypeUDP4, "10.0.0.1", 5000, TCPTypeNone)
	remote := NewHostCandidate(NetworkTypeUDP4, "10.0.0.2", 5000, TCPTypeNone)
	pControlling := NewCandidatePair(local, remote, RoleControlling)
	pControlled := NewCandidatePair(local, remote, RoleControlled)
	if pControlling.Priority() == 0 || pControlled.Priority() == 0 {
		t.Fatal("expected nonzero pair priority")
	}
}
