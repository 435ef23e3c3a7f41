package pipeline

import "github.com/pion/logging"

// MatchFunc classifies a datagram's first byte into one of the RFC 7983
// packet classes. Adapted from the teacher's internal/mux/muxfunc.go,
// which did the same byte-range test but as a goroutine-fed mux.Endpoint;
// here it only decides routing, the Engine owns the queues.
type MatchFunc func([]byte) bool

// MatchRange accepts datagrams whose first byte falls in [lower, upper].
func MatchRange(lower, upper byte) MatchFunc {
	return func(buf []byte) bool {
		if len(buf) < 1 {
			return false
		}
		b := buf[0]
		return b >= lower && b <= upper
	}
}

// Byte-range matchers per RFC 7983 (spec §4.2 table).
var (
	MatchSTUN = MatchRange(0, 3)
	MatchZRTP = MatchRange(16, 19)
	MatchDTLS = MatchRange(20, 63)
	MatchTURN = MatchRange(64, 127)
	MatchSRTP = MatchRange(128, 191)
)

// Route names a demuxer destination lane, matching the spec §4.2 table.
type Route int

const (
	RouteSTUN Route = iota
	RouteDTLS
	RouteTURN
	RouteSRTP
	routeCount
)

// Demuxed is what the Demuxer hands to PollRead per destination lane: the
// Engine built on top of Demuxer is expected to route Demuxed.Route to a
// distinct downstream handler rather than all downstream handlers seeing
// every datagram.
type Demuxed struct {
	Route Route
	Data  []byte
	Ctx   TransportContext
}

// Demuxer is the outermost pipeline handler (spec §4.2): it classifies
// inbound bytes by first-byte range and tags them with a Route. Invalid
// ranges are dropped with a counter increment, never forwarded (spec §4.2).
type Demuxer struct {
	NoOp

	out        []Demuxed
	writeQueue []Message
	dropped    uint64

	log logging.LeveledLogger
}

// NewDemuxer builds a Demuxer; loggerFactory may be nil to use the default.
func NewDemuxer(loggerFactory logging.LoggerFactory) *Demuxer {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Demuxer{log: loggerFactory.NewLogger("demuxer")}
}

// Dropped returns the count of datagrams that matched no known class.
func (d *Demuxer) Dropped() uint64 { return d.dropped }

// HandleRead classifies msg (expected to be a Datagram) and queues it for
// the matching route.
func (d *Demuxer) HandleRead(msg Message) {
	dg, ok := msg.(Datagram)
	if !ok {
		d.log.Warnf("demuxer: unexpected message type %T", msg)
		return
	}
	route, ok := classify(dg.Data)
	if !ok {
		d.dropped++
		if len(dg.Data) > 0 {
			d.log.Warnf("demuxer: no route for packet starting with %d", dg.Data[0])
		} else {
			d.log.Warnf("demuxer: no route for zero-length packet")
		}
		return
	}
	d.out = append(d.out, Demuxed{Route: route, Data: dg.Data, Ctx: dg.Context})
}

func classify(b []byte) (Route, bool) {
	switch {
	case MatchSTUN(b):
		return RouteSTUN, true
	case MatchDTLS(b):
		return RouteDTLS, true
	case MatchTURN(b):
		return RouteTURN, true
	case MatchSRTP(b):
		return RouteSRTP, true
	default:
		return 0, false
	}
}

// PollRead returns the next classified datagram.
func (d *Demuxer) PollRead() (Message, bool) {
	if len(d.out) == 0 {
		return nil, false
	}
	msg := d.out[0]
	d.out = d.out[1:]
	return msg, true
}

// HandleWrite passes an already-framed outbound datagram straight through;
// the Demuxer does no encoding of its own on egress, it is the outermost
// layer on the wire.
func (d *Demuxer) HandleWrite(msg Message) error {
	d.writeQueue = append(d.writeQueue, msg)
	return nil
}

// PollWrite returns the next outbound datagram queued by HandleWrite.
func (d *Demuxer) PollWrite() (Message, bool) {
	if len(d.writeQueue) == 0 {
		return nil, false
	}
	msg := d.writeQueue[0]
	d.writeQueue = d.writeQueue[1:]
	return msg, true
}
