// Package media implements the media plane (tracks, transceivers, senders
// and receivers) and RTP packetization/jitter-buffer accounting sitting
// behind the interceptor chain in the pipeline.
package media

import (
	"errors"
	"strings"

	"github.com/webrtc-rs/rtc/internal/fmtp"
)

// ErrCodecNotFound is returned when no registered codec matches a payload
// type or a remote capability.
var ErrCodecNotFound = errors.New("media: codec not found")

// ErrUnsupportedCodec is returned by TrackLocal.Bind when no codec
// negotiated for a transceiver matches the track's codec.
var ErrUnsupportedCodec = errors.New("media: unsupported codec")

// RTPCodecType distinguishes audio from video codecs.
type RTPCodecType int

const (
	RTPCodecTypeAudio RTPCodecType = iota + 1
	RTPCodecTypeVideo
)

func (t RTPCodecType) String() string {
	switch t {
	case RTPCodecTypeAudio:
		return "audio"
	case RTPCodecTypeVideo:
		return "video"
	default:
		return "unknown"
	}
}

// RTPCodecCapability describes a codec's negotiable parameters, the Go
// analogue of the W3C RTCRtpCodecCapability dictionary.
type RTPCodecCapability struct {
	MimeType     string
	ClockRate    uint32
	Channels     uint16
	SDPFmtpLine  string
	RTCPFeedback []RTCPFeedback
}

// RTCPFeedback names one RTCP feedback mechanism a codec supports
// (nack, nack pli, goog-remb, transport-cc, ...).
type RTCPFeedback struct {
	Type      string
	Parameter string
}

// RTPCodecParameters is a capability bound to a concrete payload type, the
// result of negotiation.
type RTPCodecParameters struct {
	RTPCodecCapability
	PayloadType uint8
}

// Kind derives the codec type from the MimeType prefix.
func (p RTPCodecParameters) Kind() RTPCodecType {
	switch {
	case strings.HasPrefix(p.MimeType, "audio/"):
		return RTPCodecTypeAudio
	case strings.HasPrefix(p.MimeType, "video/"):
		return RTPCodecTypeVideo
	default:
		return RTPCodecType(0)
	}
}

// Well-known MIME types, matching the teacher's codec name constants.
const (
	MimeTypeOpus = "audio/opus"
	MimeTypeG722 = "audio/G722"
	MimeTypePCMU = "audio/PCMU"
	MimeTypePCMA = "audio/PCMA"
	MimeTypeVP8  = "video/VP8"
	MimeTypeVP9  = "video/VP9"
	MimeTypeH264 = "video/H264"
	MimeTypeAV1  = "video/AV1"
)

type codecMatchType int

const (
	codecMatchNone codecMatchType = iota
	codecMatchPartial
	codecMatchExact
)

// codecParametersFuzzySearch finds the best match for needle among
// haystack, preferring an exact fmtp match over one that only agrees on
// mime type and clock rate (e.g. H264 profile-level-id negotiation).
func codecParametersFuzzySearch(needle RTPCodecCapability, haystack []RTPCodecParameters) (RTPCodecParameters, codecMatchType) {
	var partial RTPCodecParameters
	foundPartial := false

	for _, c := range haystack {
		if !strings.EqualFold(c.MimeType, needle.MimeType) || c.ClockRate != needle.ClockRate {
			continue
		}
		if needle.Channels != 0 && c.Channels != needle.Channels {
			continue
		}
		if !foundPartial {
			partial = c
			foundPartial = true
		}
		if matchFmtp(needle, c) {
			return c, codecMatchExact
		}
	}
	if foundPartial {
		return partial, codecMatchPartial
	}
	return RTPCodecParameters{}, codecMatchNone
}

func matchFmtp(a RTPCodecCapability, b RTPCodecParameters) bool {
	fa := fmtp.Parse(a.MimeType, a.ClockRate, a.Channels, a.SDPFmtpLine)
	fb := fmtp.Parse(b.MimeType, b.ClockRate, b.Channels, b.SDPFmtpLine)
	return fa.Match(fb)
}

// MediaEngine is the registry of codecs a PeerConnection is willing to
// negotiate, plus the RTP header extensions it understands. Grounded on
// the teacher's CodecList/DefaultCodecs plus MediaEngine's registration API.
type MediaEngine struct {
	codecs     []RTPCodecParameters
	extensions []string
}

// NewMediaEngine returns an empty engine; call RegisterDefaultCodecs or
// RegisterCodec to populate it.
func NewMediaEngine() *MediaEngine {
	return &MediaEngine{}
}

// RegisterCodec adds a codec at a fixed payload type.
func (m *MediaEngine) RegisterCodec(capability RTPCodecCapability, payloadType uint8) {
	m.codecs = append(m.codecs, RTPCodecParameters{RTPCodecCapability: capability, PayloadType: payloadType})
}

// RegisterHeaderExtension records a negotiable RTP header extension URI
// (e.g. the transport-wide-cc URI interceptors bind against).
func (m *MediaEngine) RegisterHeaderExtension(uri string) {
	m.extensions = append(m.extensions, uri)
}

// RegisterDefaultCodecs registers the common set the teacher ships by
// default: Opus, G722, VP8, H264, VP9.
func (m *MediaEngine) RegisterDefaultCodecs() {
	m.RegisterCodec(RTPCodecCapability{MimeType: MimeTypeOpus, ClockRate: 48000, Channels: 2, SDPFmtpLine: "minptime=10;useinbandfec=1"}, 111)
	m.RegisterCodec(RTPCodecCapability{MimeType: MimeTypeG722, ClockRate: 8000}, 9)
	m.RegisterCodec(RTPCodecCapability{MimeType: MimeTypeVP8, ClockRate: 90000, RTCPFeedback: defaultVideoFeedback()}, 96)
	m.RegisterCodec(RTPCodecCapability{MimeType: MimeTypeH264, ClockRate: 90000, SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f", RTCPFeedback: defaultVideoFeedback()}, 102)
	m.RegisterCodec(RTPCodecCapability{MimeType: MimeTypeVP9, ClockRate: 90000, RTCPFeedback: defaultVideoFeedback()}, 98)
}

func defaultVideoFeedback() []RTCPFeedback {
	return []RTCPFeedback{
		{Type: "goog-remb"},
		{Type: "transport-cc"},
		{Type: "ccm", Parameter: "fir"},
		{Type: "nack"},
		{Type: "nack", Parameter: "pli"},
	}
}

// CodecByPayloadType looks a registered codec up by its payload type.
func (m *MediaEngine) CodecByPayloadType(pt uint8) (RTPCodecParameters, error) {
	for _, c := range m.codecs {
		if c.PayloadType == pt {
			return c, nil
		}
	}
	return RTPCodecParameters{}, ErrCodecNotFound
}

// CodecsByKind returns every registered codec of the given kind, in
// registration order (which SDP uses as preference order).
func (m *MediaEngine) CodecsByKind(kind RTPCodecType) []RTPCodecParameters {
	var out []RTPCodecParameters
	for _, c := range m.codecs {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// MatchRemote finds the best registered codec for a remote capability
// announced in an SDP m-section, per codecParametersFuzzySearch.
func (m *MediaEngine) MatchRemote(remote RTPCodecCapability) (RTPCodecParameters, error) {
	match, kind := codecParametersFuzzySearch(remote, m.codecs)
	if kind == codecMatchNone {
		return RTPCodecParameters{}, ErrUnsupportedCodec
	}
	return match, nil
}

// HeaderExtensions lists the header extension URIs this engine negotiates.
func (m *MediaEngine) HeaderExtensions() []string {
	return m.extensions
}
