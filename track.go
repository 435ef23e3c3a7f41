package rtc

import (
	"fmt"

	"github.com/pion/randutil"

	"github.com/webrtc-rs/rtc/internal/datachannel"
	"github.com/webrtc-rs/rtc/internal/interceptor"
	"github.com/webrtc-rs/rtc/internal/media"
)

// TrackLocal re-exports internal/media.TrackLocal so callers never import
// an internal package to hand a track to AddTrack.
type TrackLocal = media.TrackLocal

// NewTrackLocalStaticRTP and NewTrackLocalStaticSample re-export the two
// concrete track implementations, adapted from the teacher's track_local.go.
func NewTrackLocalStaticRTP(c media.RTPCodecCapability, id, streamID string) *media.TrackLocalStaticRTP {
	return media.NewTrackLocalStaticRTP(c, id, streamID)
}

func NewTrackLocalStaticSample(c media.RTPCodecCapability, id, streamID string) *media.TrackLocalStaticSample {
	return media.NewTrackLocalStaticSample(c, id, streamID)
}

// RTPSender is the public handle returned by AddTrack, re-exporting the
// media-layer sender so callers can write RTP and read its bound stream
// info without reaching into internal packages.
type RTPSender = media.RTPSender

var ssrcGenerator = randutil.NewMathRandomGenerator()

// AddTrack binds a local track to a fresh send-only transceiver and
// negotiates its SSRC/payload type against the registered codecs,
// adapted from the teacher's (pc *PeerConnection) AddTrack. The bound
// sender starts emitting as soon as a local SRTP context exists
// (HandshakeCompleteEvent) and the caller feeds it RtpPacket writes.
func (pc *PeerConnection) AddTrack(track TrackLocal) (*RTPSender, error) {
	if pc.closed {
		return nil, fmt.Errorf("rtc: peer connection closed")
	}

	codecs := pc.mediaEngine.CodecsByKind(track.Kind())
	if len(codecs) == 0 {
		return nil, fmt.Errorf("rtc: no registered codecs for kind %v", track.Kind())
	}

	sender := media.NewRTPSender(track)
	ssrc := ssrcGenerator.Uint32()
	if _, err := sender.Bind(track.ID(), ssrc, codecs, headerExtensionList(pc.mediaEngine)); err != nil {
		return nil, fmt.Errorf("rtc: bind track: %w", err)
	}

	transceiver := media.NewRTPTransceiver(track.Kind(), media.DirectionSendOnly, codecs)
	transceiver.SetSender(sender)
	pc.session.AddTransceiver(transceiver)

	if info := sender.StreamInfo(); info != nil {
		pc.chain.HandleEvent(interceptor.BindLocalStreamEvent{Info: info})
		pc.drainChainOutputs()
	}
	return sender, nil
}

func headerExtensionList(me *media.MediaEngine) []interceptor.RTPHeaderExtension {
	uris := me.HeaderExtensions()
	exts := make([]interceptor.RTPHeaderExtension, 0, len(uris))
	for i, uri := range uris {
		exts = append(exts, interceptor.RTPHeaderExtension{ID: i + 1, URI: uri})
	}
	return exts
}

// DataChannel is the public handle returned by CreateDataChannel,
// re-exporting the manager-owned channel so callers can inspect its
// state without reaching into internal packages.
type DataChannel = datachannel.Channel

// DataChannelConfig covers the subset of the W3C RTCDataChannelInit
// dictionary this module implements (spec §4.7 "Data channel
// configuration"); out-of-band negotiated channel ids are not supported,
// since internal/datachannel.Manager always assigns stream ids itself.
type DataChannelConfig struct {
	Unordered                   bool
	MaxRetransmits              *uint16
	Protocol                    string
	BufferedAmountLowThreshold  uint64
	BufferedAmountHighThreshold uint64
}

// CreateDataChannel opens a new data channel over the SCTP association,
// creating the association's transport lazily if this is the first
// channel requested before any SDP has been exchanged (spec §4.7 "a data
// channel created before negotiation forces an application m-section
// into the next offer").
func (pc *PeerConnection) CreateDataChannel(label string, cfg DataChannelConfig) (*DataChannel, error) {
	if pc.closed {
		return nil, fmt.Errorf("rtc: peer connection closed")
	}
	if pc.dcManager == nil {
		// Requested before any SDP exchange: the DTLS role (and therefore
		// the odd/even stream id parity RFC 8832 assigns) is not yet
		// derivable, since there is no remote a=setup to read. Build the
		// manager with whatever guess pc.dtlsRole currently holds;
		// finalizeDTLSRole re-derives the real role once the answer
		// arrives and calls ensureDataChannelTransport again, which
		// repartitions any channel created here via SetClientSide rather
		// than rebuilding the manager.
		pc.ensureDataChannelTransport()
	}

	var channelType datachannel.ChannelType
	var reliability uint32
	switch {
	case cfg.MaxRetransmits != nil && cfg.Unordered:
		channelType = datachannel.ChannelTypePartialReliableRexmitUnordered
		reliability = uint32(*cfg.MaxRetransmits)
	case cfg.MaxRetransmits != nil:
		channelType = datachannel.ChannelTypePartialReliableRexmit
		reliability = uint32(*cfg.MaxRetransmits)
	case cfg.Unordered:
		channelType = datachannel.ChannelTypeReliableUnordered
	default:
		channelType = datachannel.ChannelTypeReliable
	}

	return pc.dcManager.CreateChannel(datachannel.Config{
		ChannelType:                 channelType,
		ReliabilityParameter:        reliability,
		Label:                       label,
		Protocol:                    cfg.Protocol,
		BufferedAmountLowThreshold:  cfg.BufferedAmountLowThreshold,
		BufferedAmountHighThreshold: cfg.BufferedAmountHighThreshold,
	})
}
