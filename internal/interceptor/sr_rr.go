package interceptor

import (
	"time"

	"github.com/pion/logging"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/webrtc-rs/rtc/internal/pipeline"
	"github.com/webrtc-rs/rtc/pkg/ntp"
)

const reportInterval = 1 * time.Second

type senderStats struct {
	ssrc            uint32
	clockRate       uint32
	packetCount     uint32
	octetCount      uint32
	lastRTPTime     uint32
	lastRTPWallTime time.Time
}

// SRGenerator emits a SenderReport for every bound outbound stream on a
// fixed cadence, tracking packet/octet counts off the outbound RTP stream
// it sits in front of. No equivalent exists in the teacher's
// pkg/interceptor, which never implements RTCP report generation; grounded
// on RFC 3550 §6.4.1 directly, following the file/package layout the
// teacher uses for the rest of this chain.
type SRGenerator struct {
	pipeline.NoOp

	streams  map[uint32]*senderStats
	nextTick time.Time
	readOut  []pipeline.Message
	writeOut []pipeline.Message

	log logging.LeveledLogger
}

// NewSRGenerator builds an SRGenerator.
func NewSRGenerator(loggerFactory logging.LoggerFactory) *SRGenerator {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &SRGenerator{
		streams: make(map[uint32]*senderStats),
		log:     loggerFactory.NewLogger("sr_generator"),
	}
}

// HandleEvent tracks bind/unbind of outbound streams.
func (g *SRGenerator) HandleEvent(evt pipeline.Event) {
	switch e := evt.(type) {
	case BindLocalStreamEvent:
		g.streams[e.Info.SSRC] = &senderStats{ssrc: e.Info.SSRC, clockRate: e.Info.ClockRate}
	case UnbindLocalStreamEvent:
		delete(g.streams, e.SSRC)
	}
}

// HandleWrite tallies packet/octet counts for every outbound RTP packet,
// then lets it descend unchanged.
func (g *SRGenerator) HandleWrite(msg pipeline.Message) error {
	if rtpMsg, ok := msg.(RTPMessage); ok && rtpMsg.Outbound {
		if st, tracked := g.streams[rtpMsg.Info.SSRC]; tracked {
			st.packetCount++
			st.octetCount += uint32(len(rtpMsg.Packet.Payload)) //nolint:gosec
			st.lastRTPTime = rtpMsg.Packet.Timestamp
			st.lastRTPWallTime = time.Now()
		}
	}
	g.writeOut = append(g.writeOut, msg)
	return nil
}

// HandleRead lets every inbound message ascend unchanged.
func (g *SRGenerator) HandleRead(msg pipeline.Message) {
	g.readOut = append(g.readOut, msg)
}

// PollRead drains messages HandleRead passed through.
func (g *SRGenerator) PollRead() (pipeline.Message, bool) {
	if len(g.readOut) == 0 {
		return nil, false
	}
	msg := g.readOut[0]
	g.readOut = g.readOut[1:]
	return msg, true
}

// HandleTimeout emits one SenderReport per tracked outbound stream that has
// sent at least one packet.
func (g *SRGenerator) HandleTimeout(now time.Time) {
	for _, st := range g.streams {
		if st.packetCount == 0 {
			continue
		}
		g.writeOut = append(g.writeOut, RTCPMessage{
			Outbound: true,
			Packets: []rtcp.Packet{&rtcp.SenderReport{
				SSRC:        st.ssrc,
				NTPTime:     uint64(ntp.ToTime64(now)),
				RTPTime:     st.lastRTPTime,
				PacketCount: st.packetCount,
				OctetCount:  st.octetCount,
			}},
		})
	}
	g.nextTick = now.Add(reportInterval)
}

// PollTimeout arms the first tick lazily, same convention as NACKGenerator.
func (g *SRGenerator) PollTimeout() (time.Time, bool) {
	if len(g.streams) == 0 {
		return time.Time{}, false
	}
	if g.nextTick.IsZero() {
		return time.Time{}, true
	}
	return g.nextTick, true
}

// PollWrite drains pass-through writes and generated SenderReports.
func (g *SRGenerator) PollWrite() (pipeline.Message, bool) {
	if len(g.writeOut) == 0 {
		return nil, false
	}
	msg := g.writeOut[0]
	g.writeOut = g.writeOut[1:]
	return msg, true
}

type receiverStats struct {
	ssrc      uint32
	clockRate uint32

	initialized bool
	baseSeq     uint32
	maxSeqExt   uint32
	lastSeq     uint16
	cycles      uint32
	received    uint32

	expectedPrior uint32
	receivedPrior uint32

	transit int64
	jitter  float64

	lastSRNTPMid  uint32 // middle 32 bits of the last SR's NTP timestamp
	lastSRArrival time.Time
}

// RRGenerator emits a ReceiverReport for every bound inbound stream on a
// fixed cadence, computing fraction lost, cumulative lost, extended
// highest sequence number and interarrival jitter per RFC 3550 §6.4.1/A.8.
// Grounded on RFC 3550 directly, same rationale as SRGenerator.
type RRGenerator struct {
	pipeline.NoOp

	streams  map[uint32]*receiverStats
	nextTick time.Time
	readOut  []pipeline.Message
	writeOut []pipeline.Message

	log logging.LeveledLogger
}

// NewRRGenerator builds an RRGenerator.
func NewRRGenerator(loggerFactory logging.LoggerFactory) *RRGenerator {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &RRGenerator{
		streams: make(map[uint32]*receiverStats),
		log:     loggerFactory.NewLogger("rr_generator"),
	}
}

// HandleEvent tracks bind/unbind of inbound streams and remembers each
// stream's clock rate for jitter's timestamp-unit scaling.
func (g *RRGenerator) HandleEvent(evt pipeline.Event) {
	switch e := evt.(type) {
	case BindRemoteStreamEvent:
		g.streams[e.Info.SSRC] = &receiverStats{ssrc: e.Info.SSRC, clockRate: e.Info.ClockRate}
	case UnbindRemoteStreamEvent:
		delete(g.streams, e.SSRC)
	}
}

// HandleRead updates the receiver-side statistics for every inbound RTP
// packet, and records the NTP portion of the last SenderReport seen from
// the sender (needed for the RR's delay-since-last-SR field), then lets
// both pass through unchanged.
func (g *RRGenerator) HandleRead(msg pipeline.Message) {
	switch m := msg.(type) {
	case RTPMessage:
		if !m.Outbound {
			if st, tracked := g.streams[m.Info.SSRC]; tracked {
				g.observe(st, m.Packet, time.Now())
			}
		}
	case RTCPMessage:
		if !m.Outbound {
			for _, pkt := range m.Packets {
				if sr, ok := pkt.(*rtcp.SenderReport); ok {
					if st, tracked := g.streams[sr.SSRC]; tracked {
						st.lastSRNTPMid = uint32(sr.NTPTime >> 16) //nolint:gosec
						st.lastSRArrival = time.Now()
					}
				}
			}
		}
	}
	g.readOut = append(g.readOut, msg)
}

// PollRead drains messages passed through unmodified.
func (g *RRGenerator) PollRead() (pipeline.Message, bool) {
	if len(g.readOut) == 0 {
		return nil, false
	}
	msg := g.readOut[0]
	g.readOut = g.readOut[1:]
	return msg, true
}

// observe updates the extended sequence number, received count and
// interarrival jitter estimate per RFC 3550 Appendix A.8.
func (g *RRGenerator) observe(st *receiverStats, pkt *rtp.Packet, now time.Time) {
	seq := pkt.SequenceNumber
	if !st.initialized {
		st.initialized = true
		st.baseSeq = uint32(seq)
		st.maxSeqExt = uint32(seq)
		st.lastSeq = seq
	} else {
		delta := int32(seq) - int32(st.lastSeq)
		if delta < -0x8000 {
			st.cycles += 0x10000
		}
		ext := st.cycles + uint32(seq)
		if ext > st.maxSeqExt {
			st.maxSeqExt = ext
		}
		st.lastSeq = seq
	}
	st.received++

	if st.clockRate > 0 {
		arrivalRTP := int64(now.UnixNano()) * int64(st.clockRate) / int64(time.Second)
		transit := arrivalRTP - int64(pkt.Timestamp)
		if st.received > 1 {
			d := transit - st.transit
			if d < 0 {
				d = -d
			}
			st.jitter += (float64(d) - st.jitter) / 16
		}
		st.transit = transit
	}
}

// HandleTimeout emits one ReceiverReport per tracked inbound stream.
func (g *RRGenerator) HandleTimeout(now time.Time) {
	for _, st := range g.streams {
		if !st.initialized {
			continue
		}
		expected := st.maxSeqExt - st.baseSeq + 1
		var totalLost uint32
		if expected > st.received {
			totalLost = expected - st.received
		}
		if totalLost > 0xffffff {
			totalLost = 0xffffff
		}

		expectedInterval := expected - st.expectedPrior
		receivedInterval := st.received - st.receivedPrior
		lostInterval := int32(expectedInterval) - int32(receivedInterval)
		var fractionLost uint8
		if expectedInterval > 0 && lostInterval > 0 {
			fractionLost = uint8((lostInterval << 8) / int32(expectedInterval)) //nolint:gosec
		}
		st.expectedPrior = expected
		st.receivedPrior = st.received

		var lastSR, delaySinceLastSR uint32
		if !st.lastSRArrival.IsZero() {
			lastSR = st.lastSRNTPMid
			if dlsr, err := ntp.NewTime32(now.Sub(st.lastSRArrival)); err == nil {
				delaySinceLastSR = uint32(dlsr)
			}
		}

		g.writeOut = append(g.writeOut, RTCPMessage{
			Outbound: true,
			Packets: []rtcp.Packet{&rtcp.ReceiverReport{
				SSRC: st.ssrc,
				Reports: []rtcp.ReceptionReport{{
					SSRC:               st.ssrc,
					FractionLost:       fractionLost,
					TotalLost:          totalLost,
					LastSequenceNumber: st.maxSeqExt,
					Jitter:             uint32(st.jitter), //nolint:gosec
					LastSenderReport:   lastSR,
					Delay:              delaySinceLastSR,
				}},
			}},
		})
	}
	g.nextTick = now.Add(reportInterval)
}

// PollTimeout arms the first tick lazily, same convention as SRGenerator.
func (g *RRGenerator) PollTimeout() (time.Time, bool) {
	if len(g.streams) == 0 {
		return time.Time{}, false
	}
	if g.nextTick.IsZero() {
		return time.Time{}, true
	}
	return g.nextTick, true
}

// HandleWrite lets every outbound message descend unchanged.
func (g *RRGenerator) HandleWrite(msg pipeline.Message) error {
	g.writeOut = append(g.writeOut, msg)
	return nil
}

// PollWrite drains pass-through writes and generated ReceiverReports.
func (g *RRGenerator) PollWrite() (pipeline.Message, bool) {
	if len(g.writeOut) == 0 {
		return nil, false
	}
	msg := g.writeOut[0]
	g.writeOut = g.writeOut[1:]
	return msg, true
}
