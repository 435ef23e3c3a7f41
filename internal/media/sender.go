package media

import (
	"fmt"

	"github.com/pion/rtp"

	"github.com/webrtc-rs/rtc/internal/interceptor"
)

// RTPSender owns one outbound TrackLocal and republishes its packets,
// stamped with the negotiated SSRC/payload type, to the pipeline. Grounded
// on the teacher's RTPSender/rtcrtpsender.go, replacing the goroutine+SRTP
// write stream with a plain outbound-message queue.
type RTPSender struct {
	track  TrackLocal
	ctx    TrackLocalContext
	info   *interceptor.StreamInfo
	bound  bool
	stopped bool

	out []interceptor.RTPMessage
}

// NewRTPSender creates a sender for track, to be bound once negotiation
// assigns an SSRC and codec list.
func NewRTPSender(track TrackLocal) *RTPSender {
	return &RTPSender{track: track}
}

// Bind negotiates the track's codec against the codecs this transceiver
// offered and records the StreamInfo used to drive the interceptor chain.
func (s *RTPSender) Bind(id string, ssrc uint32, codecs []RTPCodecParameters, headerExtensions []interceptor.RTPHeaderExtension) (RTPCodecParameters, error) {
	s.ctx = TrackLocalContext{id: id, ssrc: ssrc, codecs: codecs}
	params, err := s.track.Bind(s.ctx)
	if err != nil {
		return params, fmt.Errorf("media: bind sender: %w", err)
	}
	s.info = &interceptor.StreamInfo{
		ID:                  id,
		SSRC:                ssrc,
		PayloadType:         params.PayloadType,
		MimeType:            params.MimeType,
		ClockRate:           params.ClockRate,
		RTPHeaderExtensions: headerExtensions,
	}
	for _, fb := range params.RTCPFeedback {
		s.info.RTCPFeedback = append(s.info.RTCPFeedback, interceptor.RTCPFeedback{Type: fb.Type, Parameter: fb.Parameter})
	}
	s.bound = true
	return params, nil
}

// Stop unbinds the track and marks the sender stopped; the caller is
// expected to also unbind the stream from the interceptor chain.
func (s *RTPSender) Stop() error {
	if s.stopped {
		return nil
	}
	s.stopped = true
	if s.bound {
		return s.track.Unbind(s.ctx)
	}
	return nil
}

// StreamInfo returns the bound stream description, or nil if unbound.
func (s *RTPSender) StreamInfo() *interceptor.StreamInfo { return s.info }

// Track returns the underlying TrackLocal.
func (s *RTPSender) Track() TrackLocal { return s.track }

// WriteRTP accepts one already-packetized RTP packet from the track (an
// application calling TrackLocalStaticRTP.WriteRTP directly) and queues it
// for egress through the interceptor chain.
func (s *RTPSender) WriteRTP(pkt *rtp.Packet) error {
	if s.stopped {
		return fmt.Errorf("media: sender stopped")
	}
	if !s.bound {
		return fmt.Errorf("media: sender not bound")
	}
	s.out = append(s.out, interceptor.RTPMessage{Info: s.info, Packet: pkt, Outbound: true})
	return nil
}

// PollWrite drains packets queued by WriteRTP.
func (s *RTPSender) PollWrite() (interceptor.RTPMessage, bool) {
	if len(s.out) == 0 {
		return interceptor.RTPMessage{}, false
	}
	msg := s.out[0]
	s.out = s.out[1:]
	return msg, true
}
