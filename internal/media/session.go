package media

import (
	"fmt"

	"github.com/pion/rtcp"

	"github.com/webrtc-rs/rtc/internal/interceptor"
)

// InboundRTCP is one RTCP message the application should inspect (e.g. a
// PLI/FIR request targeting one of our senders).
type InboundRTCP struct {
	Packets []rtcp.Packet
}

// Session is the terminal "Endpoint" stage of the pipeline (spec §1's
// Demuxer→ICE→DTLS→SCTP→DataChannel→SRTP→Interceptor→Endpoint chain): it
// owns the set of negotiated transceivers and dispatches RTP by SSRC into
// the right receiver's jitter buffer, and collects sender writes destined
// for the interceptor chain below it. It is the session-level counterpart
// to datachannel.Manager one layer up the pipeline.
type Session struct {
	transceivers []*RTPTransceiver
	bySSRC       map[uint32]*RTPReceiver

	rtcpOut []InboundRTCP
}

// NewSession creates an empty media session.
func NewSession() *Session {
	return &Session{bySSRC: make(map[uint32]*RTPReceiver)}
}

// AddTransceiver registers a negotiated transceiver and indexes its
// receiver's bound SSRCs for inbound dispatch.
func (s *Session) AddTransceiver(t *RTPTransceiver) {
	s.transceivers = append(s.transceivers, t)
	if t.receiver != nil {
		for _, info := range t.receiver.StreamInfos() {
			s.bySSRC[info.SSRC] = t.receiver
		}
	}
}

// Transceivers returns every transceiver in negotiation (m-section) order.
func (s *Session) Transceivers() []*RTPTransceiver { return s.transceivers }

// HandleRead accepts one message ascending from the interceptor chain
// (interceptor.RTPMessage or interceptor.RTCPMessage) as drained from the
// chain's PollRead, dispatching RTP to the bound receiver and surfacing RTCP to the
// application via PollRTCP.
func (s *Session) HandleRead(msg interface{}) error {
	switch m := msg.(type) {
	case interceptor.RTPMessage:
		recv, ok := s.bySSRC[m.Packet.SSRC]
		if !ok {
			return fmt.Errorf("media: no transceiver bound for ssrc %d", m.Packet.SSRC)
		}
		return recv.HandleRTP(m.Packet)
	case interceptor.RTCPMessage:
		s.rtcpOut = append(s.rtcpOut, InboundRTCP{Packets: m.Packets})
	}
	return nil
}

// PollRTCP drains RTCP messages surfaced from HandleRead.
func (s *Session) PollRTCP() (InboundRTCP, bool) {
	if len(s.rtcpOut) == 0 {
		return InboundRTCP{}, false
	}
	msg := s.rtcpOut[0]
	s.rtcpOut = s.rtcpOut[1:]
	return msg, true
}

// PollWrite drains the next outbound RTP packet queued by any sender, for
// the caller to push into the interceptor chain's HandleWrite.
func (s *Session) PollWrite() (interceptor.RTPMessage, bool) {
	for _, t := range s.transceivers {
		if t.sender == nil {
			continue
		}
		if msg, ok := t.sender.PollWrite(); ok {
			return msg, true
		}
	}
	return interceptor.RTPMessage{}, false
}

// SendRTCP queues an explicit outbound RTCP message (PLI, FIR, or other
// application-triggered control), mirroring the handle_write
// RtcpPacket(track_id, packets) application message from spec §6.
func (s *Session) SendRTCP(packets []rtcp.Packet) interceptor.RTCPMessage {
	return interceptor.RTCPMessage{Packets: packets, Outbound: true}
}
