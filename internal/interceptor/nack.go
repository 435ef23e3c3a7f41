package interceptor

import (
	"math/rand"
	"time"

	"github.com/pion/logging"
	"github.com/pion/rtcp"

	"github.com/webrtc-rs/rtc/internal/pipeline"
)

const nackInterval = 100 * time.Millisecond

// NACKGenerator is the receiver-side half of RTP retransmission (spec
// §4.8). It tracks gaps in each inbound stream's sequence numbers and
// raises TransportLayerNack on tick. Adapted from the teacher's
// pkg/interceptor/receiver_nack.go, whose goroutine + time.Ticker loop is
// replaced by HandleTimeout/PollTimeout so the whole chain stays sans-I/O.
type NACKGenerator struct {
	pipeline.NoOp

	SkipLastN uint16
	LogSize   uint16

	logs map[uint32]*ReceiveLog

	nextTick time.Time

	readOut  []pipeline.Message
	writeOut []pipeline.Message

	log logging.LeveledLogger
}

// NewNACKGenerator builds a NACKGenerator with the teacher's default
// receive-log size (128 packets) and 10-packet skip window.
func NewNACKGenerator(loggerFactory logging.LoggerFactory) *NACKGenerator {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &NACKGenerator{
		SkipLastN: 10,
		LogSize:   128,
		logs:      make(map[uint32]*ReceiveLog),
		log:       loggerFactory.NewLogger("nack_generator"),
	}
}

// HandleEvent creates or tears down the per-SSRC receive log for streams
// that negotiated "nack" feedback with no parameter.
func (g *NACKGenerator) HandleEvent(evt pipeline.Event) {
	switch e := evt.(type) {
	case BindRemoteStreamEvent:
		if !e.Info.HasFeedback("nack", "") {
			return
		}
		rl, err := NewReceiveLog(g.LogSize)
		if err != nil {
			g.log.Warnf("nack generator: %v", err)
			return
		}
		g.logs[e.Info.SSRC] = rl
	case UnbindRemoteStreamEvent:
		delete(g.logs, e.SSRC)
	}
}

// HandleRead records the sequence number of every inbound packet on a
// tracked stream, then lets it ascend unchanged.
func (g *NACKGenerator) HandleRead(msg pipeline.Message) {
	if rtpMsg, ok := msg.(RTPMessage); ok && !rtpMsg.Outbound {
		if rl, tracked := g.logs[rtpMsg.Info.SSRC]; tracked {
			rl.Add(rtpMsg.Packet.SequenceNumber)
		}
	}
	g.readOut = append(g.readOut, msg)
}

// PollRead drains messages HandleRead passed through.
func (g *NACKGenerator) PollRead() (pipeline.Message, bool) {
	if len(g.readOut) == 0 {
		return nil, false
	}
	msg := g.readOut[0]
	g.readOut = g.readOut[1:]
	return msg, true
}

// HandleWrite lets every outbound message descend unchanged.
func (g *NACKGenerator) HandleWrite(msg pipeline.Message) error {
	g.writeOut = append(g.writeOut, msg)
	return nil
}

// HandleTimeout checks every tracked stream for gaps and queues a
// TransportLayerNack (as an outbound RTCPMessage) for any that have one.
func (g *NACKGenerator) HandleTimeout(now time.Time) {
	for ssrc, rl := range g.logs {
		missing := rl.MissingSeqNumbers(g.SkipLastN)
		if len(missing) == 0 {
			continue
		}
		g.writeOut = append(g.writeOut, RTCPMessage{
			Outbound: true,
			Packets: []rtcp.Packet{&rtcp.TransportLayerNack{
				SenderSSRC: rand.Uint32(), //nolint:gosec
				MediaSSRC:  ssrc,
				Nacks:      nackPairs(missing),
			}},
		})
	}
	g.nextTick = now.Add(nackInterval)
}

// PollTimeout arms the first tick lazily so a chain with no tracked stream
// never wakes the engine.
func (g *NACKGenerator) PollTimeout() (time.Time, bool) {
	if len(g.logs) == 0 {
		return time.Time{}, false
	}
	if g.nextTick.IsZero() {
		return time.Time{}, true // fire immediately to establish the cadence
	}
	return g.nextTick, true
}

// PollWrite drains pass-through writes and the NACKs queued by HandleTimeout.
func (g *NACKGenerator) PollWrite() (pipeline.Message, bool) {
	if len(g.writeOut) == 0 {
		return nil, false
	}
	msg := g.writeOut[0]
	g.writeOut = g.writeOut[1:]
	return msg, true
}

// nackPairs groups missing sequence numbers into RFC 4585 NACK pairs,
// verbatim logic from the teacher's pkg/interceptor/receiver_nack.go.
func nackPairs(seqNums []uint16) []rtcp.NackPair {
	if len(seqNums) == 0 {
		return nil
	}

	nackPair := rtcp.NackPair{PacketID: seqNums[0]}
	pairs := make([]rtcp.NackPair, 0)

	for i, m := range seqNums {
		if i == 0 {
			continue
		}
		diff := m - nackPair.PacketID
		if diff <= 16 {
			nackPair.LostPackets |= 1 << (diff - 1)
			continue
		}
		pairs = append(pairs, nackPair)
		nackPair = rtcp.NackPair{PacketID: m}
	}
	pairs = append(pairs, nackPair)
	return pairs
}

// nackPairsToSequenceNumbers inverts nackPairs, for the responder side.
func nackPairsToSequenceNumbers(pairs []rtcp.NackPair) []uint16 {
	out := make([]uint16, 0, len(pairs)*2)
	for _, p := range pairs {
		out = append(out, p.PacketID)
		for i := 0; i < 16; i++ {
			if p.LostPackets&(1<<uint(i)) != 0 { //nolint:gosec
				out = append(out, p.PacketID+uint16(i)+1)
			}
		}
	}
	return out
}

// NACKResponder is the sender-side half of RTP retransmission (spec
// §4.8). It buffers recently sent outbound packets and retransmits the
// ones named by an incoming TransportLayerNack, synchronously rather than
// on the teacher's spawned goroutine (pkg/interceptor/sender_nack.go).
type NACKResponder struct {
	pipeline.NoOp

	BufferSize uint16

	buffers map[uint32]*SendBuffer

	readOut  []pipeline.Message
	writeOut []pipeline.Message

	log logging.LeveledLogger
}

// NewNACKResponder builds a NACKResponder with the teacher's default send
// buffer size (1024 packets).
func NewNACKResponder(loggerFactory logging.LoggerFactory) *NACKResponder {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &NACKResponder{
		BufferSize: 1024,
		buffers:    make(map[uint32]*SendBuffer),
		log:        loggerFactory.NewLogger("nack_responder"),
	}
}

// HandleEvent creates or tears down the per-SSRC send buffer for local
// streams that negotiated "nack" feedback with no parameter.
func (r *NACKResponder) HandleEvent(evt pipeline.Event) {
	switch e := evt.(type) {
	case BindLocalStreamEvent:
		if !e.Info.HasFeedback("nack", "") {
			return
		}
		sb, err := NewSendBuffer(r.BufferSize)
		if err != nil {
			r.log.Warnf("nack responder: %v", err)
			return
		}
		r.buffers[e.Info.SSRC] = sb
	case UnbindLocalStreamEvent:
		delete(r.buffers, e.SSRC)
	}
}

// HandleRead inspects inbound RTCP for TransportLayerNack and queues
// retransmissions of any packets still in the send buffer, then lets every
// message ascend unchanged.
func (r *NACKResponder) HandleRead(msg pipeline.Message) {
	r.readOut = append(r.readOut, msg)
	rtcpMsg, ok := msg.(RTCPMessage)
	if !ok || rtcpMsg.Outbound {
		return
	}
	for _, pkt := range rtcpMsg.Packets {
		nack, ok := pkt.(*rtcp.TransportLayerNack)
		if !ok {
			continue
		}
		sb, tracked := r.buffers[nack.MediaSSRC]
		if !tracked {
			continue
		}
		for _, seq := range nackPairsToSequenceNumbers(nack.Nacks) {
			pkt := sb.Get(seq)
			if pkt == nil {
				continue
			}
			r.writeOut = append(r.writeOut, RTPMessage{Packet: pkt, Outbound: true})
		}
	}
}

// PollRead drains messages HandleRead passed through.
func (r *NACKResponder) PollRead() (pipeline.Message, bool) {
	if len(r.readOut) == 0 {
		return nil, false
	}
	msg := r.readOut[0]
	r.readOut = r.readOut[1:]
	return msg, true
}

// HandleWrite records every outbound packet on a tracked stream in its
// send buffer, then lets it descend unchanged.
func (r *NACKResponder) HandleWrite(msg pipeline.Message) error {
	if rtpMsg, ok := msg.(RTPMessage); ok && rtpMsg.Outbound {
		if sb, tracked := r.buffers[rtpMsg.Info.SSRC]; tracked {
			cloned := *rtpMsg.Packet
			sb.Add(&cloned)
		}
	}
	r.writeOut = append(r.writeOut, msg)
	return nil
}

// PollWrite drains both pass-through writes and retransmissions queued by
// HandleRead.
func (r *NACKResponder) PollWrite() (pipeline.Message, bool) {
	if len(r.writeOut) == 0 {
		return nil, false
	}
	msg := r.writeOut[0]
	r.writeOut = r.writeOut[1:]
	return msg, true
}
