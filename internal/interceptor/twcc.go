package interceptor

import (
	"time"

	"github.com/pion/logging"
	"github.com/pion/rtcp"

	"github.com/webrtc-rs/rtc/internal/pipeline"
)

// twccPaceInterval is how often the receiver builds a feedback packet,
// matching the teacher's 100ms NACK cadence; the original Rust recorder
// (rtc-interceptor/src/twcc/recorder.rs) instead paces off the sender's
// explicit "send feedback now" signal, which this chain has no equivalent
// entry point for yet.
const twccPaceInterval = 100 * time.Millisecond

// twccDeltaScale is TYPE_TCC_DELTA_SCALE_FACTOR from recorder.rs: one
// recv-delta unit is 250 microseconds.
const twccDeltaScale = 250 * time.Microsecond

// TWCCSender stamps every outbound RTP packet with a monotonically
// increasing transport-wide sequence number in the header extension
// negotiated for TransportWideCCURI, per spec §4.8. There is no teacher
// equivalent (pkg/interceptor never implements TWCC); grounded on
// rtc-interceptor/src/twcc/receiver.rs's counterpart sender behavior and
// the pion/rtcp TransportLayerCC wire type it feeds.
type TWCCSender struct {
	pipeline.NoOp

	extensionID map[uint32]int
	counter     uint16
	writeOut    []pipeline.Message
}

// NewTWCCSender builds a TWCCSender.
func NewTWCCSender() *TWCCSender {
	return &TWCCSender{extensionID: make(map[uint32]int)}
}

// HandleEvent records the negotiated extension id for each outbound stream
// that carries transport-wide-cc.
func (s *TWCCSender) HandleEvent(evt pipeline.Event) {
	switch e := evt.(type) {
	case BindLocalStreamEvent:
		if id, ok := e.Info.HeaderExtensionID(TransportWideCCURI); ok {
			s.extensionID[e.Info.SSRC] = id
		}
	case UnbindLocalStreamEvent:
		delete(s.extensionID, e.SSRC)
	}
}

// HandleWrite stamps the next transport-wide sequence number onto outbound
// packets on a tracked stream via an RFC 5285 one-byte header extension,
// then lets the (mutated) packet descend.
func (s *TWCCSender) HandleWrite(msg pipeline.Message) error {
	rtpMsg, ok := msg.(RTPMessage)
	if ok && rtpMsg.Outbound {
		if id, tracked := s.extensionID[rtpMsg.Info.SSRC]; tracked {
			s.counter++
			payload := []byte{byte(s.counter >> 8), byte(s.counter)} //nolint:gosec
			if err := rtpMsg.Packet.SetExtension(uint8(id), payload); err == nil {       //nolint:gosec
				if rtpMsg.Attributes == nil {
					rtpMsg.Attributes = Attributes{}
				}
				rtpMsg.Attributes["twcc_sequence_number"] = s.counter
				msg = rtpMsg
			}
		}
	}
	s.writeOut = append(s.writeOut, msg)
	return nil
}

// PollWrite drains pass-through writes.
func (s *TWCCSender) PollWrite() (pipeline.Message, bool) {
	if len(s.writeOut) == 0 {
		return nil, false
	}
	msg := s.writeOut[0]
	s.writeOut = s.writeOut[1:]
	return msg, true
}

type twccArrival struct {
	seq     uint16
	arrived time.Time
}

// TWCCReceiver records the arrival time of every inbound packet carrying a
// transport-wide sequence number and periodically builds a
// rtcp.TransportLayerCC feedback packet describing the run, grounded on
// rtc-interceptor/src/twcc/recorder.rs's Recorder/Feedback encoder. Unlike
// the original, which falls back to a two-bit StatusVectorChunk once a
// run's symbols stop being uniform (its Chunk::can_add/encode machinery),
// this receiver always emits RunLengthChunks, splitting at every symbol
// change: a deliberate simplification that trades a few extra bytes of
// feedback-packet overhead for a much smaller, independently verifiable
// wire encoder.
type TWCCReceiver struct {
	pipeline.NoOp

	extensionID map[uint32]int
	senderSSRC  uint32
	mediaSSRC   uint32

	arrivals  []twccArrival
	fbPktCount uint8
	nextTick  time.Time
	readOut   []pipeline.Message
	writeOut  []pipeline.Message

	log logging.LeveledLogger
}

// NewTWCCReceiver builds a TWCCReceiver. senderSSRC identifies us (the
// feedback originator) on the wire.
func NewTWCCReceiver(senderSSRC uint32, loggerFactory logging.LoggerFactory) *TWCCReceiver {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &TWCCReceiver{
		extensionID: make(map[uint32]int),
		senderSSRC:  senderSSRC,
		log:         loggerFactory.NewLogger("twcc_receiver"),
	}
}

// HandleEvent records the negotiated extension id for each inbound stream
// that carries transport-wide-cc.
func (r *TWCCReceiver) HandleEvent(evt pipeline.Event) {
	switch e := evt.(type) {
	case BindRemoteStreamEvent:
		if id, ok := e.Info.HeaderExtensionID(TransportWideCCURI); ok {
			r.extensionID[e.Info.SSRC] = id
			r.mediaSSRC = e.Info.SSRC
		}
	case UnbindRemoteStreamEvent:
		delete(r.extensionID, e.SSRC)
	}
}

// HandleRead records the arrival time of every inbound packet that carries
// the negotiated extension, then lets it pass through unchanged.
func (r *TWCCReceiver) HandleRead(msg pipeline.Message) {
	if rtpMsg, ok := msg.(RTPMessage); ok && !rtpMsg.Outbound {
		if id, tracked := r.extensionID[rtpMsg.Info.SSRC]; tracked {
			if ext := rtpMsg.Packet.GetExtension(uint8(id)); len(ext) >= 2 { //nolint:gosec
				seq := uint16(ext[0])<<8 | uint16(ext[1])
				r.arrivals = append(r.arrivals, twccArrival{seq: seq, arrived: time.Now()})
			}
		}
	}
	r.readOut = append(r.readOut, msg)
}

// PollRead drains messages HandleRead passed through.
func (r *TWCCReceiver) PollRead() (pipeline.Message, bool) {
	if len(r.readOut) == 0 {
		return nil, false
	}
	msg := r.readOut[0]
	r.readOut = r.readOut[1:]
	return msg, true
}

// HandleTimeout builds and queues a TransportLayerCC covering every
// arrival recorded since the last tick.
func (r *TWCCReceiver) HandleTimeout(now time.Time) {
	if len(r.arrivals) == 0 {
		r.nextTick = now.Add(twccPaceInterval)
		return
	}

	base := r.arrivals[0].seq
	refTime := r.arrivals[0].arrived

	var runs []twccRun
	var deltas []*rtcp.RecvDelta

	prevUs := int64(0)
	expected := base
	for _, a := range r.arrivals {
		for expected != a.seq {
			appendRun(&runs, rtcp.TypeTCCPacketNotReceived)
			expected++
		}
		deltaUs := a.arrived.Sub(refTime).Microseconds() - prevUs
		prevUs += deltaUs
		symbol := rtcp.TypeTCCPacketReceivedSmallDelta
		if deltaUs < 0 || deltaUs > 0xff*int64(twccDeltaScale/time.Microsecond) {
			symbol = rtcp.TypeTCCPacketReceivedLargeDelta
		}
		appendRun(&runs, symbol)
		deltas = append(deltas, &rtcp.RecvDelta{
			Type:  symbol,
			Delta: int64(time.Duration(deltaUs) * time.Microsecond),
		})
		expected++
	}

	chunks := make([]rtcp.PacketStatusChunk, 0, len(runs))
	count := uint16(0)
	for _, run := range runs {
		chunks = append(chunks, &rtcp.RunLengthChunk{
			PacketStatusSymbol: run.symbol,
			RunLength:          run.length,
		})
		count += run.length
	}

	r.writeOut = append(r.writeOut, RTCPMessage{
		Outbound: true,
		Packets: []rtcp.Packet{&rtcp.TransportLayerCC{
			SenderSSRC:         r.senderSSRC,
			MediaSSRC:          r.mediaSSRC,
			BaseSequenceNumber: base,
			PacketStatusCount:  count,
			ReferenceTime:      uint32(refTime.UnixMicro() / 64000), //nolint:gosec
			FbPktCount:         r.fbPktCount,
			PacketChunks:       chunks,
			RecvDeltas:         deltas,
		}},
	})
	r.fbPktCount++
	r.arrivals = r.arrivals[:0]
	r.nextTick = now.Add(twccPaceInterval)
}

// twccRun is one homogeneous span of packet-status symbols, encoded as a
// single RunLengthChunk.
type twccRun struct {
	symbol rtcp.TypeTCC
	length uint16
}

func appendRun(runs *[]twccRun, symbol rtcp.TypeTCC) {
	n := *runs
	if len(n) > 0 && n[len(n)-1].symbol == symbol {
		n[len(n)-1].length++
		return
	}
	*runs = append(n, twccRun{symbol: symbol, length: 1})
}

// PollTimeout arms the pacing tick lazily, same convention as the other
// periodic stages.
func (r *TWCCReceiver) PollTimeout() (time.Time, bool) {
	if len(r.extensionID) == 0 {
		return time.Time{}, false
	}
	if r.nextTick.IsZero() {
		return time.Time{}, true
	}
	return r.nextTick, true
}

// PollWrite drains generated feedback packets.
func (r *TWCCReceiver) PollWrite() (pipeline.Message, bool) {
	if len(r.writeOut) == 0 {
		return nil, false
	}
	msg := r.writeOut[0]
	r.writeOut = r.writeOut[1:]
	return msg, true
}
