package pipeline

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		b     byte
		route Route
		ok    bool
	}{
		{"stun", 0, RouteSTUN, true},
		{"stun-high", 3, RouteSTUN, true},
		{"zrtp-dropped", 17, 0, false},
		{"dtls-low", 20, RouteDTLS, true},
		{"dtls-high", 63, RouteDTLS, true},
		{"turn", 100, RouteTURN, true},
		{"srtp-low", 128, RouteSRTP, true},
		{"srtp-high", 191, RouteSRTP, true},
		{"above-range", 255, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			route, ok := classify([]byte{c.b})
			if ok != c.ok {
				t.Fatalf("classify(%d) ok = %v, want %v", c.b, ok, c.ok)
			}
			if ok && route != c.route {
				t.Fatalf("classify(%d) route = %v, want %v", c.b, route, c.route)
			}
		})
	}
}

func TestDemuxerDropsEmptyAndUnknown(t *testing.T) {
	d := NewDemuxer(nil)
	d.HandleRead(Datagram{Data: nil})
	if d.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", d.Dropped())
	}
	if _, ok := d.PollRead(); ok {
		t.Fatalf("expected no classified datagram")
	}

	d.HandleRead(Datagram{Data: []byte{20, 1, 2}})
	out, ok := d.PollRead()
	if !ok {
		t.Fatalf("expected a classified datagram")
	}
	demuxed := out.(Demuxed)
	if demuxed.Route != RouteDTLS {
		t.Fatalf("expected RouteDTLS, got %v", demuxed.Route)
	}
}
