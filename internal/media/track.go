package media

import (
	"errors"
	"strings"
	"sync"

	"github.com/pion/rtp"
)

// ErrUnbindFailed is returned by TrackLocal.Unbind when the given context
// was never bound.
var ErrUnbindFailed = errors.New("media: unbind of an unbound track")

// TrackLocalContext carries the negotiated parameters a TrackLocal binds
// against when a sender starts using it, mirroring the teacher's
// TrackLocalContext.
type TrackLocalContext struct {
	id          string
	ssrc        uint32
	payloadType uint8
	codecs      []RTPCodecParameters
}

func (c TrackLocalContext) ID() string                        { return c.id }
func (c TrackLocalContext) SSRC() uint32                       { return c.ssrc }
func (c TrackLocalContext) CodecParameters() []RTPCodecParameters { return c.codecs }

// TrackLocal is a source of outbound RTP. A track can be bound to more than
// one sender (simulcast/replication); Bind/Unbind track that.
type TrackLocal interface {
	ID() string
	StreamID() string
	Kind() RTPCodecType
	Codec() RTPCodecCapability
	Bind(TrackLocalContext) (RTPCodecParameters, error)
	Unbind(TrackLocalContext) error
}

type trackBinding struct {
	id          string
	ssrc        uint32
	payloadType uint8
}

// TrackLocalStaticRTP is a TrackLocal that accepts pre-packetized RTP
// packets from the application and republishes them to every bound sender,
// rewriting SSRC and payload type per binding. Grounded on the teacher's
// TrackLocalStaticRTP, adapted to return the outbound packet to the caller
// (WriteRTP) instead of writing to a live SRTP stream — the sans-I/O core
// never owns the socket, so the rewritten packet is handed back for the
// caller to push through RTPSender.WriteRTP.
type TrackLocalStaticRTP struct {
	mu           sync.Mutex
	bindings     []trackBinding
	codec        RTPCodecCapability
	id, streamID string
}

// NewTrackLocalStaticRTP returns a new TrackLocalStaticRTP for the given
// codec capability.
func NewTrackLocalStaticRTP(c RTPCodecCapability, id, streamID string) *TrackLocalStaticRTP {
	return &TrackLocalStaticRTP{codec: c, id: id, streamID: streamID}
}

func (s *TrackLocalStaticRTP) ID() string       { return s.id }
func (s *TrackLocalStaticRTP) StreamID() string { return s.streamID }
func (s *TrackLocalStaticRTP) Codec() RTPCodecCapability { return s.codec }

func (s *TrackLocalStaticRTP) Kind() RTPCodecType {
	switch {
	case strings.HasPrefix(s.codec.MimeType, "audio/"):
		return RTPCodecTypeAudio
	case strings.HasPrefix(s.codec.MimeType, "video/"):
		return RTPCodecTypeVideo
	default:
		return RTPCodecType(0)
	}
}

// Bind asserts the codec the sender negotiated is compatible with this
// track and records the (ssrc, payload type) rewrite to apply on write.
func (s *TrackLocalStaticRTP) Bind(t TrackLocalContext) (RTPCodecParameters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, kind := codecParametersFuzzySearch(s.codec, t.codecs)
	if kind == codecMatchNone {
		return RTPCodecParameters{}, ErrUnsupportedCodec
	}
	s.bindings = append(s.bindings, trackBinding{id: t.id, ssrc: t.ssrc, payloadType: match.PayloadType})
	return match, nil
}

// Unbind removes the binding for the given sender context.
func (s *TrackLocalStaticRTP) Unbind(t TrackLocalContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bindings {
		if s.bindings[i].id == t.id {
			s.bindings = append(s.bindings[:i], s.bindings[i+1:]...)
			return nil
		}
	}
	return ErrUnbindFailed
}

// WriteRTP rewrites pkt's SSRC and payload type for every bound sender and
// returns one packet per binding (the "reflect" pattern: an application can
// forward a remote track's packets onto a local one with egress rewrite
// applied per binding, without re-packetizing).
func (s *TrackLocalStaticRTP) WriteRTP(pkt *rtp.Packet) []*rtp.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*rtp.Packet, 0, len(s.bindings))
	for _, b := range s.bindings {
		clone := *pkt
		clone.SSRC = b.ssrc
		clone.PayloadType = b.payloadType
		out = append(out, &clone)
	}
	return out
}

// TrackLocalStaticSample packetizes a stream of complete media samples
// (e.g. one encoded video frame, one Opus frame) into RTP packets via a
// pion/rtp Packetizer, then republishes through the same binding/rewrite
// machinery as TrackLocalStaticRTP. Grounded on the teacher's
// TrackLocalStaticSample; sans-I/O in the same way.
type TrackLocalStaticSample struct {
	TrackLocalStaticRTP

	clockRate  uint32
	packetizer rtp.Packetizer
	sequencer  rtp.Sequencer
}

// NewTrackLocalStaticSample returns a new sample-level track.
func NewTrackLocalStaticSample(c RTPCodecCapability, id, streamID string) *TrackLocalStaticSample {
	return &TrackLocalStaticSample{
		TrackLocalStaticRTP: TrackLocalStaticRTP{codec: c, id: id, streamID: streamID},
		clockRate:           c.ClockRate,
	}
}

// Bind additionally allocates the Packetizer for the negotiated payload
// type and SSRC, since sample-level writes need one to packetize with.
func (s *TrackLocalStaticSample) Bind(t TrackLocalContext) (RTPCodecParameters, error) {
	params, err := s.TrackLocalStaticRTP.Bind(t)
	if err != nil {
		return params, err
	}
	if s.packetizer == nil {
		s.sequencer = rtp.NewRandomSequencer()
		s.packetizer = rtp.NewPacketizer(
			mtu,
			params.PayloadType,
			t.ssrc,
			payloaderFor(s.codec.MimeType),
			s.sequencer,
			s.clockRate,
		)
	}
	return params, nil
}

const mtu = 1200

// WriteSample packetizes one media sample of the given duration (in clock
// rate units) and republishes the resulting packets to every binding.
func (s *TrackLocalStaticSample) WriteSample(data []byte, samples uint32) []*rtp.Packet {
	s.mu.Lock()
	p := s.packetizer
	s.mu.Unlock()
	if p == nil {
		return nil
	}

	var out []*rtp.Packet
	for _, pkt := range p.Packetize(data, samples) {
		out = append(out, s.WriteRTP(pkt)...)
	}
	return out
}
