// Package stats implements the peer connection's statistics accumulators
// and snapshot-to-report surface (spec C11). It follows the "incremental
// accumulation + snapshot" pattern and the per-category breakdown of
// original_source/rtc/src/statistics/accumulator (peer_connection,
// transport, ice_candidate_pair, ice_candidate, certificate, codec,
// data_channel, media_source, audio_playout, inbound_rtp_stream,
// outbound_rtp_stream), adapted to the teacher's StatsReport getter
// convention in stats_go.go.
package stats

import "time"

// Type is the RTCStatsType discriminant (W3C webrtc-stats §7.1).
type Type string

const (
	TypePeerConnection    Type = "peer-connection"
	TypeTransport         Type = "transport"
	TypeLocalCandidate    Type = "local-candidate"
	TypeRemoteCandidate   Type = "remote-candidate"
	TypeCandidatePair     Type = "candidate-pair"
	TypeCertificate       Type = "certificate"
	TypeCodec             Type = "codec"
	TypeDataChannel       Type = "data-channel"
	TypeInboundRTP        Type = "inbound-rtp"
	TypeOutboundRTP       Type = "outbound-rtp"
	TypeRemoteInboundRTP  Type = "remote-inbound-rtp"
	TypeRemoteOutboundRTP Type = "remote-outbound-rtp"
	TypeMediaSource       Type = "media-source"
	TypeAudioPlayout      Type = "media-playout"
)

// Stats is the common header every stats entry embeds.
type Stats struct {
	ID        string
	Type      Type
	Timestamp time.Time
}

// PeerConnectionStats mirrors RTCPeerConnectionStats.
type PeerConnectionStats struct {
	Stats
	DataChannelsOpened    uint32
	DataChannelsClosed    uint32
	DataChannelsRequested uint32
	DataChannelsAccepted  uint32
}

// TransportStats mirrors RTCTransportStats, adapted from
// TransportStatsAccumulator::snapshot.
type TransportStats struct {
	Stats
	PacketsSent                   uint64
	PacketsReceived                uint64
	BytesSent                      uint64
	BytesReceived                  uint64
	ICERole                        string
	ICELocalUsernameFragment       string
	ICEState                       string
	DTLSState                      string
	DTLSRole                       string
	TLSVersion                     string
	DTLSCipher                     string
	SRTPCipher                     string
	SelectedCandidatePairID        string
	SelectedCandidatePairChanges   uint32
	LocalCertificateID             string
	RemoteCertificateID            string
	CCFBMessagesSent                uint32
	CCFBMessagesReceived            uint32
}

// ICECandidateStats mirrors RTCIceCandidateStats (local or remote).
type ICECandidateStats struct {
	Stats
	TransportID   string
	Address       string
	Port          uint16
	Protocol      string
	CandidateType string
	Priority      uint32
	URL           string
}

// ICECandidatePairStats mirrors RTCIceCandidatePairStats.
type ICECandidatePairStats struct {
	Stats
	TransportID               string
	LocalCandidateID          string
	RemoteCandidateID         string
	State                     string
	Nominated                 bool
	PacketsSent               uint64
	PacketsReceived           uint64
	BytesSent                 uint64
	BytesReceived             uint64
	TotalRoundTripTime        time.Duration
	CurrentRoundTripTime      time.Duration
	RequestsSent              uint64
	RequestsReceived          uint64
	ResponsesSent             uint64
	ResponsesReceived         uint64
	ConsentRequestsSent       uint64
}

// CertificateStats mirrors RTCCertificateStats.
type CertificateStats struct {
	Stats
	Fingerprint          string
	FingerprintAlgorithm string
	Base64Certificate    string
}

// CodecDirection distinguishes a codec entry registered by a receive or
// send RTP stream (a codec can legitimately appear under both).
type CodecDirection int

const (
	CodecDirectionReceive CodecDirection = iota + 1
	CodecDirectionSend
)

// CodecStats mirrors RTCCodecStats.
type CodecStats struct {
	Stats
	TransportID  string
	PayloadType  uint8
	MimeType     string
	ClockRate    uint32
	Channels     uint16
	SDPFmtpLine  string
}

// DataChannelStats mirrors RTCDataChannelStats.
type DataChannelStats struct {
	Stats
	Label                 string
	Protocol              string
	DataChannelIdentifier uint16
	State                 string
	MessagesSent          uint64
	MessagesReceived      uint64
	BytesSent             uint64
	BytesReceived         uint64
}

// InboundRTPStreamStats mirrors RTCInboundRtpStreamStats.
type InboundRTPStreamStats struct {
	Stats
	SSRC                  uint32
	Kind                  string
	TransportID           string
	CodecID               string
	TrackIdentifier       string
	MID                   string
	PacketsReceived       uint64
	BytesReceived         uint64
	HeaderBytesReceived   uint64
	PacketsLost           int64
	Jitter                float64
	PacketsDiscarded      uint64
	LastPacketReceived    time.Time
	NACKCount             uint32
	FIRCount              uint32
	PLICount              uint32
	FramesReceived        uint32
	FramesDropped         uint32
	FramesPerSecond       float64
}

// OutboundRTPStreamStats mirrors RTCOutboundRtpStreamStats.
type OutboundRTPStreamStats struct {
	Stats
	SSRC             uint32
	Kind             string
	TransportID      string
	CodecID          string
	MID              string
	Active           bool
	PacketsSent      uint64
	BytesSent        uint64
	HeaderBytesSent  uint64
	RetransmittedPacketsSent uint64
	RetransmittedBytesSent   uint64
	NACKCount        uint32
	FIRCount         uint32
	PLICount         uint32
	FramesEncoded    uint32
	FramesPerSecond  float64
	TargetBitrate    float64
}

// RemoteInboundRTPStreamStats is derived from RTCP Receiver Reports about
// a locally sent stream (the "remote" side's view of our outbound RTP).
type RemoteInboundRTPStreamStats struct {
	Stats
	SSRC                 uint32
	TransportID          string
	CodecID              string
	PacketsLost          int64
	Jitter               float64
	RoundTripTime        time.Duration
	FractionLost         float64
	ReportsReceived      uint64
}

// RemoteOutboundRTPStreamStats is derived from RTCP Sender Reports about a
// remotely sent stream (the "remote" side's view of our inbound RTP).
type RemoteOutboundRTPStreamStats struct {
	Stats
	SSRC            uint32
	TransportID     string
	CodecID         string
	PacketsSent     uint64
	BytesSent       uint64
	RemoteTimestamp time.Time
	ReportsSent     uint64
}

// MediaSourceStats mirrors RTCMediaSourceStats (audio or video variant).
type MediaSourceStats struct {
	Stats
	TrackIdentifier string
	Kind            string

	// Audio fields.
	AudioLevel                 float64
	TotalAudioEnergy           float64
	TotalSamplesDuration       float64
	EchoReturnLoss             float64
	EchoReturnLossEnhancement  float64

	// Video fields.
	Width           uint32
	Height          uint32
	Frames          uint32
	FramesPerSecond float64
}

// AudioPlayoutStats mirrors RTCAudioPlayoutStats.
type AudioPlayoutStats struct {
	Stats
	SynthesizedSamplesDuration float64
	SynthesizedSamplesEvents   uint32
	TotalSamplesDuration       float64
	TotalPlayoutDelay          float64
	TotalSamplesCount          uint64
}
