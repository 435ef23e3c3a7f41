package stats

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// inboundAccum holds the mutable counters behind one InboundRTPStreamStats
// snapshot, adapted from InboundRtpStreamAccumulator.
type inboundAccum struct {
	ssrc            uint32
	kind            string
	transportID     string
	codecID         string
	trackIdentifier string
	mid             string

	packetsReceived     uint64
	bytesReceived       uint64
	headerBytesReceived uint64
	packetsLost         int64
	jitter              float64
	packetsDiscarded    uint64
	lastPacketReceived  time.Time

	nackCount uint32
	firCount  uint32
	pliCount  uint32

	framesReceived  uint32
	framesDropped   uint32
	framesPerSecond float64

	remotePacketsSent uint64
	remoteBytesSent   uint64
	remoteTimestamp   time.Time
	reportsReceived   uint64
}

// outboundAccum holds the mutable counters behind one
// OutboundRTPStreamStats snapshot, adapted from OutboundRtpStreamAccumulator.
type outboundAccum struct {
	ssrc        uint32
	kind        string
	transportID string
	codecID     string
	mid         string
	active      bool

	packetsSent             uint64
	bytesSent               uint64
	headerBytesSent         uint64
	retransmittedPacketsSent uint64
	retransmittedBytesSent   uint64

	nackCount       uint32
	firCount        uint32
	pliCount        uint32
	framesEncoded   uint32
	framesPerSecond float64
	targetBitrate   float64

	remotePacketsLost     int64
	remoteJitter          float64
	remoteRoundTripTime   time.Duration
	remoteFractionLost    float64
	remoteReportsReceived uint64
}

type candidatePairAccum struct {
	transportID          string
	localCandidateID     string
	remoteCandidateID    string
	state                string
	nominated            bool
	packetsSent          uint64
	packetsReceived      uint64
	bytesSent            uint64
	bytesReceived        uint64
	totalRoundTripTime   time.Duration
	currentRoundTripTime time.Duration
	requestsSent         uint64
	requestsReceived     uint64
	responsesSent        uint64
	responsesReceived    uint64
	consentRequestsSent  uint64
}

type mediaSourceAccum struct {
	trackID string
	kind    string

	audioLevel                float64
	totalAudioEnergy          float64
	totalSamplesDuration      float64
	echoReturnLoss            float64
	echoReturnLossEnhancement float64

	width           uint32
	height          uint32
	frames          uint32
	framesPerSecond float64
}

type audioPlayoutAccum struct {
	synthesizedSamplesDuration float64
	synthesizedSamplesEvents   uint32
	totalSamplesDuration       float64
	totalPlayoutDelay          float64
	totalSamplesCount          uint64
}

// Accumulator is the master per-peer-connection statistics accumulator
// (spec C11), aggregating one sub-accumulator per category and producing
// an immutable Report on demand. It is owned exclusively by the peer
// connection, consistent with spec §5's "every mutable datum is owned by
// exactly one handler".
type Accumulator struct {
	id                    string
	dataChannelsOpened    uint32
	dataChannelsClosed    uint32
	dataChannelsRequested uint32
	dataChannelsAccepted  uint32

	transport TransportStats

	candidatePairs   map[string]*candidatePairAccum
	localCandidates  map[string]ICECandidateStats
	remoteCandidates map[string]ICECandidateStats
	certificates     map[string]CertificateStats
	codecs           map[string]CodecStats
	dataChannels     map[uint16]*DataChannelStats
	inboundStreams   map[uint32]*inboundAccum
	outboundStreams  map[uint32]*outboundAccum
	mediaSources     map[string]*mediaSourceAccum
	audioPlayouts    map[string]*audioPlayoutAccum
}

// New creates an empty Accumulator for one peer connection.
func New() *Accumulator {
	return &Accumulator{
		id:               "RTCPeerConnection",
		transport:        TransportStats{Stats: Stats{ID: "RTCTransport_0", Type: TypeTransport}},
		candidatePairs:   map[string]*candidatePairAccum{},
		localCandidates:  map[string]ICECandidateStats{},
		remoteCandidates: map[string]ICECandidateStats{},
		certificates:     map[string]CertificateStats{},
		codecs:           map[string]CodecStats{},
		dataChannels:     map[uint16]*DataChannelStats{},
		inboundStreams:   map[uint32]*inboundAccum{},
		outboundStreams:  map[uint32]*outboundAccum{},
		mediaSources:     map[string]*mediaSourceAccum{},
		audioPlayouts:    map[string]*audioPlayoutAccum{},
	}
}

// OnPacketSent / OnPacketReceived track the transport-level byte/packet
// counters (TransportStatsAccumulator::on_packet_sent/received).
func (a *Accumulator) OnPacketSent(bytes int) {
	a.transport.PacketsSent++
	a.transport.BytesSent += uint64(bytes)
}

func (a *Accumulator) OnPacketReceived(bytes int) {
	a.transport.PacketsReceived++
	a.transport.BytesReceived += uint64(bytes)
}

func (a *Accumulator) OnSelectedCandidatePairChanged(pairID string) {
	a.transport.SelectedCandidatePairID = pairID
	a.transport.SelectedCandidatePairChanges++
}

func (a *Accumulator) OnICEStateChanged(state string)  { a.transport.ICEState = state }
func (a *Accumulator) OnDTLSStateChanged(state string) { a.transport.DTLSState = state }

// OnDTLSHandshakeComplete records the negotiated security parameters
// (TransportStatsAccumulator::on_dtls_handshake_complete).
func (a *Accumulator) OnDTLSHandshakeComplete(tlsVersion, dtlsCipher, srtpCipher, dtlsRole string) {
	a.transport.TLSVersion = tlsVersion
	a.transport.DTLSCipher = dtlsCipher
	a.transport.SRTPCipher = srtpCipher
	a.transport.DTLSRole = dtlsRole
}

func (a *Accumulator) OnCCFBSent()     { a.transport.CCFBMessagesSent++ }
func (a *Accumulator) OnCCFBReceived() { a.transport.CCFBMessagesReceived++ }

// RegisterLocalCandidate / RegisterRemoteCandidate assign a stable
// external id (google/uuid, per SPEC_FULL §11's C11 wiring) to a gathered
// or learned ICE candidate and record its stats.
func (a *Accumulator) RegisterLocalCandidate(address string, port uint16, protocol, candidateType string, priority uint32) string {
	id := "RTCIceCandidate_" + uuid.NewString()
	a.localCandidates[id] = ICECandidateStats{
		Stats: Stats{ID: id, Type: TypeLocalCandidate}, TransportID: a.transport.ID,
		Address: address, Port: port, Protocol: protocol, CandidateType: candidateType, Priority: priority,
	}
	return id
}

func (a *Accumulator) RegisterRemoteCandidate(address string, port uint16, protocol, candidateType string, priority uint32) string {
	id := "RTCIceCandidate_" + uuid.NewString()
	a.remoteCandidates[id] = ICECandidateStats{
		Stats: Stats{ID: id, Type: TypeRemoteCandidate}, TransportID: a.transport.ID,
		Address: address, Port: port, Protocol: protocol, CandidateType: candidateType, Priority: priority,
	}
	return id
}

func (a *Accumulator) RegisterCertificate(fingerprintAlgorithm, fingerprint string) string {
	id := "RTCCertificate_" + fingerprint
	a.certificates[id] = CertificateStats{
		Stats: Stats{ID: id, Type: TypeCertificate}, Fingerprint: fingerprint, FingerprintAlgorithm: fingerprintAlgorithm,
	}
	return id
}

func (a *Accumulator) getOrCreateCandidatePair(pairID string) *candidatePairAccum {
	p, ok := a.candidatePairs[pairID]
	if !ok {
		p = &candidatePairAccum{transportID: a.transport.ID}
		a.candidatePairs[pairID] = p
	}
	return p
}

// UpdateCandidatePair reflects the ICE agent's per-pair counters into the
// stats accumulator (TransportStatsAccumulator::update_ice_agent_stats,
// generalized to also carry application-level packet/byte counts).
func (a *Accumulator) UpdateCandidatePair(pairID, localCandidateID, remoteCandidateID, state string, nominated bool) {
	p := a.getOrCreateCandidatePair(pairID)
	p.localCandidateID = localCandidateID
	p.remoteCandidateID = remoteCandidateID
	p.state = state
	p.nominated = nominated
}

func (a *Accumulator) OnSTUNRequestSent(pairID string) { a.getOrCreateCandidatePair(pairID).requestsSent++ }
func (a *Accumulator) OnSTUNRequestReceived(pairID string) {
	a.getOrCreateCandidatePair(pairID).requestsReceived++
}
func (a *Accumulator) OnSTUNResponseSent(pairID string) {
	a.getOrCreateCandidatePair(pairID).responsesSent++
}
func (a *Accumulator) OnSTUNResponseReceived(pairID string, rtt time.Duration) {
	p := a.getOrCreateCandidatePair(pairID)
	p.responsesReceived++
	p.currentRoundTripTime = rtt
	p.totalRoundTripTime += rtt
}

// registerCodec implements register_inbound_codec/register_outbound_codec:
// codecs are only ever exposed when referenced by an RTP stream (W3C
// webrtc-stats §7.9), so registration is always paired with a stream link.
func (a *Accumulator) registerCodec(direction CodecDirection, payloadType uint8, mimeType string, clockRate uint32, channels uint16, fmtpLine string) string {
	dir := "recv"
	if direction == CodecDirectionSend {
		dir = "send"
	}
	id := fmt.Sprintf("RTCCodec_%s_%s_%d", a.transport.ID, dir, payloadType)
	if _, ok := a.codecs[id]; !ok {
		a.codecs[id] = CodecStats{
			Stats: Stats{ID: id, Type: TypeCodec}, TransportID: a.transport.ID,
			PayloadType: payloadType, MimeType: mimeType, ClockRate: clockRate, Channels: channels, SDPFmtpLine: fmtpLine,
		}
	}
	return id
}

func (a *Accumulator) getOrCreateInbound(ssrc uint32, kind string) *inboundAccum {
	s, ok := a.inboundStreams[ssrc]
	if !ok {
		s = &inboundAccum{ssrc: ssrc, kind: kind, transportID: a.transport.ID}
		a.inboundStreams[ssrc] = s
	}
	return s
}

func (a *Accumulator) getOrCreateOutbound(ssrc uint32, kind string) *outboundAccum {
	s, ok := a.outboundStreams[ssrc]
	if !ok {
		s = &outboundAccum{ssrc: ssrc, kind: kind, transportID: a.transport.ID, active: true}
		a.outboundStreams[ssrc] = s
	}
	return s
}

// RegisterInboundCodec / RegisterOutboundCodec register (or find) a codec
// entry and link it to the given stream.
func (a *Accumulator) RegisterInboundCodec(ssrc uint32, kind string, payloadType uint8, mimeType string, clockRate uint32, channels uint16, fmtpLine string) {
	s := a.getOrCreateInbound(ssrc, kind)
	s.codecID = a.registerCodec(CodecDirectionReceive, payloadType, mimeType, clockRate, channels, fmtpLine)
}

func (a *Accumulator) RegisterOutboundCodec(ssrc uint32, kind string, payloadType uint8, mimeType string, clockRate uint32, channels uint16, fmtpLine string) {
	s := a.getOrCreateOutbound(ssrc, kind)
	s.codecID = a.registerCodec(CodecDirectionSend, payloadType, mimeType, clockRate, channels, fmtpLine)
}

// CleanupUnreferencedCodecs drops codec entries no longer linked from any
// RTP stream (cleanup_unreferenced_codecs).
func (a *Accumulator) CleanupUnreferencedCodecs() {
	referenced := map[string]bool{}
	for _, s := range a.inboundStreams {
		if s.codecID != "" {
			referenced[s.codecID] = true
		}
	}
	for _, s := range a.outboundStreams {
		if s.codecID != "" {
			referenced[s.codecID] = true
		}
	}
	for id := range a.codecs {
		if !referenced[id] {
			delete(a.codecs, id)
		}
	}
}

// OnRTPReceived records one inbound RTP packet (on_rtp_received).
func (a *Accumulator) OnRTPReceived(ssrc uint32, kind string, payloadBytes, headerBytes int, now time.Time) {
	s := a.getOrCreateInbound(ssrc, kind)
	s.packetsReceived++
	s.bytesReceived += uint64(payloadBytes)
	s.headerBytesReceived += uint64(headerBytes)
	s.lastPacketReceived = now
}

// OnRTCPReceiverReportGenerated records the lost/jitter fields a locally
// generated RTCP RR reports for this stream.
func (a *Accumulator) OnRTCPReceiverReportGenerated(ssrc uint32, packetsLost int64, jitter float64) {
	if s, ok := a.inboundStreams[ssrc]; ok {
		s.packetsLost = packetsLost
		s.jitter = jitter
	}
}

func (a *Accumulator) OnNACKSent(ssrc uint32) {
	if s, ok := a.inboundStreams[ssrc]; ok {
		s.nackCount++
	}
}
func (a *Accumulator) OnFIRSent(ssrc uint32) {
	if s, ok := a.inboundStreams[ssrc]; ok {
		s.firCount++
	}
}
func (a *Accumulator) OnPLISent(ssrc uint32) {
	if s, ok := a.inboundStreams[ssrc]; ok {
		s.pliCount++
	}
}

// OnRemoteSenderReport records stats carried in an RTCP SR about a stream
// we're receiving (remote side's outbound view).
func (a *Accumulator) OnRemoteSenderReport(ssrc uint32, packetsSent, octetsSent uint64, now time.Time) {
	s := a.getOrCreateInbound(ssrc, "")
	s.remotePacketsSent = packetsSent
	s.remoteBytesSent = octetsSent
	s.remoteTimestamp = now
	s.reportsReceived++
}

// OnRTPSent records one outbound RTP packet.
func (a *Accumulator) OnRTPSent(ssrc uint32, kind string, payloadBytes, headerBytes int) {
	s := a.getOrCreateOutbound(ssrc, kind)
	s.packetsSent++
	s.bytesSent += uint64(payloadBytes)
	s.headerBytesSent += uint64(headerBytes)
}

func (a *Accumulator) OnRetransmit(ssrc uint32, bytes int) {
	s := a.getOrCreateOutbound(ssrc, "")
	s.retransmittedPacketsSent++
	s.retransmittedBytesSent += uint64(bytes)
}

// OnRemoteReceiverReport records stats carried in an RTCP RR about a
// stream we're sending (remote side's inbound view).
func (a *Accumulator) OnRemoteReceiverReport(ssrc uint32, fractionLost float64, packetsLost int64, jitter float64, rtt time.Duration) {
	s := a.getOrCreateOutbound(ssrc, "")
	s.remoteFractionLost = fractionLost
	s.remotePacketsLost = packetsLost
	s.remoteJitter = jitter
	s.remoteRoundTripTime = rtt
	s.remoteReportsReceived++
}

func (a *Accumulator) GetOrCreateDataChannel(id uint16, label, protocol string) *DataChannelStats {
	dc, ok := a.dataChannels[id]
	if !ok {
		dc = &DataChannelStats{
			Stats:                 Stats{ID: fmt.Sprintf("RTCDataChannel_%d", id), Type: TypeDataChannel},
			Label:                 label,
			Protocol:              protocol,
			DataChannelIdentifier: id,
		}
		a.dataChannels[id] = dc
		a.dataChannelsRequested++
	}
	return dc
}

func (a *Accumulator) OnDataChannelOpened(id uint16) {
	if dc, ok := a.dataChannels[id]; ok {
		dc.State = "open"
	}
	a.dataChannelsOpened++
}

func (a *Accumulator) OnDataChannelClosed(id uint16) {
	if dc, ok := a.dataChannels[id]; ok {
		dc.State = "closed"
	}
	a.dataChannelsClosed++
}

func (a *Accumulator) OnDataChannelMessageSent(id uint16, bytes int) {
	if dc, ok := a.dataChannels[id]; ok {
		dc.MessagesSent++
		dc.BytesSent += uint64(bytes)
	}
}

func (a *Accumulator) OnDataChannelMessageReceived(id uint16, bytes int) {
	if dc, ok := a.dataChannels[id]; ok {
		dc.MessagesReceived++
		dc.BytesReceived += uint64(bytes)
	}
}

func (a *Accumulator) getOrCreateMediaSource(trackID, kind string) *mediaSourceAccum {
	s, ok := a.mediaSources[trackID]
	if !ok {
		s = &mediaSourceAccum{trackID: trackID, kind: kind}
		a.mediaSources[trackID] = s
	}
	return s
}

// UpdateAudioSourceStats / UpdateVideoSourceStats carry
// application-supplied metrics (spec §13's media source fields "sourced
// only from the application layer; leave hooks, do not synthesize").
func (a *Accumulator) UpdateAudioSourceStats(trackID string, audioLevel, totalAudioEnergy, totalSamplesDuration, echoReturnLoss, echoReturnLossEnhancement float64) {
	s := a.getOrCreateMediaSource(trackID, "audio")
	s.audioLevel = audioLevel
	s.totalAudioEnergy = totalAudioEnergy
	s.totalSamplesDuration = totalSamplesDuration
	s.echoReturnLoss = echoReturnLoss
	s.echoReturnLossEnhancement = echoReturnLossEnhancement
}

func (a *Accumulator) UpdateVideoSourceStats(trackID string, width, height, frames uint32, framesPerSecond float64) {
	s := a.getOrCreateMediaSource(trackID, "video")
	s.width = width
	s.height = height
	s.frames = frames
	s.framesPerSecond = framesPerSecond
}

func (a *Accumulator) getOrCreateAudioPlayout(playoutID string) *audioPlayoutAccum {
	p, ok := a.audioPlayouts[playoutID]
	if !ok {
		p = &audioPlayoutAccum{}
		a.audioPlayouts[playoutID] = p
	}
	return p
}

func (a *Accumulator) UpdateAudioPlayoutStats(playoutID string, synthesizedSamplesDuration float64, synthesizedSamplesEvents uint32, totalSamplesDuration, totalPlayoutDelay float64, totalSamplesCount uint64) {
	p := a.getOrCreateAudioPlayout(playoutID)
	p.synthesizedSamplesDuration = synthesizedSamplesDuration
	p.synthesizedSamplesEvents = synthesizedSamplesEvents
	p.totalSamplesDuration = totalSamplesDuration
	p.totalPlayoutDelay = totalPlayoutDelay
	p.totalSamplesCount = totalSamplesCount
}

// Snapshot produces an immutable Report of every accumulated category at
// the given timestamp (RTCStatsAccumulator::snapshot).
func (a *Accumulator) Snapshot(now time.Time) Report {
	r := Report{}

	r[a.id] = PeerConnectionStats{
		Stats:                 Stats{ID: a.id, Type: TypePeerConnection, Timestamp: now},
		DataChannelsOpened:    a.dataChannelsOpened,
		DataChannelsClosed:    a.dataChannelsClosed,
		DataChannelsRequested: a.dataChannelsRequested,
		DataChannelsAccepted:  a.dataChannelsAccepted,
	}

	t := a.transport
	t.Timestamp = now
	r[t.ID] = t

	for id, p := range a.candidatePairs {
		r[id] = ICECandidatePairStats{
			Stats:                Stats{ID: id, Type: TypeCandidatePair, Timestamp: now},
			TransportID:          p.transportID,
			LocalCandidateID:     p.localCandidateID,
			RemoteCandidateID:    p.remoteCandidateID,
			State:                p.state,
			Nominated:            p.nominated,
			PacketsSent:          p.packetsSent,
			PacketsReceived:      p.packetsReceived,
			BytesSent:            p.bytesSent,
			BytesReceived:        p.bytesReceived,
			TotalRoundTripTime:   p.totalRoundTripTime,
			CurrentRoundTripTime: p.currentRoundTripTime,
			RequestsSent:         p.requestsSent,
			RequestsReceived:     p.requestsReceived,
			ResponsesSent:        p.responsesSent,
			ResponsesReceived:    p.responsesReceived,
			ConsentRequestsSent:  p.consentRequestsSent,
		}
	}

	for id, c := range a.localCandidates {
		c.Timestamp = now
		r[id] = c
	}
	for id, c := range a.remoteCandidates {
		c.Timestamp = now
		r[id] = c
	}
	for id, c := range a.certificates {
		c.Timestamp = now
		r[id] = c
	}
	for id, c := range a.codecs {
		c.Timestamp = now
		r[id] = c
	}
	for _, dc := range a.dataChannels {
		snap := *dc
		snap.Timestamp = now
		r[snap.ID] = snap
	}

	for ssrc, s := range a.inboundStreams {
		id := fmt.Sprintf("RTCInboundRTPStream_%s_%d", s.kind, ssrc)
		r[id] = InboundRTPStreamStats{
			Stats:               Stats{ID: id, Type: TypeInboundRTP, Timestamp: now},
			SSRC:                s.ssrc,
			Kind:                s.kind,
			TransportID:         s.transportID,
			CodecID:             s.codecID,
			TrackIdentifier:     s.trackIdentifier,
			MID:                 s.mid,
			PacketsReceived:     s.packetsReceived,
			BytesReceived:       s.bytesReceived,
			HeaderBytesReceived: s.headerBytesReceived,
			PacketsLost:         s.packetsLost,
			Jitter:              s.jitter,
			PacketsDiscarded:    s.packetsDiscarded,
			LastPacketReceived:  s.lastPacketReceived,
			NACKCount:           s.nackCount,
			FIRCount:            s.firCount,
			PLICount:            s.pliCount,
			FramesReceived:      s.framesReceived,
			FramesDropped:       s.framesDropped,
			FramesPerSecond:     s.framesPerSecond,
		}
		remoteID := fmt.Sprintf("RTCRemoteOutboundRTPStream_%s_%d", s.kind, ssrc)
		r[remoteID] = RemoteOutboundRTPStreamStats{
			Stats:           Stats{ID: remoteID, Type: TypeRemoteOutboundRTP, Timestamp: now},
			SSRC:            s.ssrc,
			TransportID:     s.transportID,
			CodecID:         s.codecID,
			PacketsSent:     s.remotePacketsSent,
			BytesSent:       s.remoteBytesSent,
			RemoteTimestamp: s.remoteTimestamp,
			ReportsSent:     s.reportsReceived,
		}
	}

	for ssrc, s := range a.outboundStreams {
		id := fmt.Sprintf("RTCOutboundRTPStream_%s_%d", s.kind, ssrc)
		r[id] = OutboundRTPStreamStats{
			Stats:                    Stats{ID: id, Type: TypeOutboundRTP, Timestamp: now},
			SSRC:                     s.ssrc,
			Kind:                     s.kind,
			TransportID:              s.transportID,
			CodecID:                  s.codecID,
			MID:                      s.mid,
			Active:                   s.active,
			PacketsSent:              s.packetsSent,
			BytesSent:                s.bytesSent,
			HeaderBytesSent:          s.headerBytesSent,
			RetransmittedPacketsSent: s.retransmittedPacketsSent,
			RetransmittedBytesSent:   s.retransmittedBytesSent,
			NACKCount:                s.nackCount,
			FIRCount:                 s.firCount,
			PLICount:                 s.pliCount,
			FramesEncoded:            s.framesEncoded,
			FramesPerSecond:          s.framesPerSecond,
			TargetBitrate:            s.targetBitrate,
		}
		remoteID := fmt.Sprintf("RTCRemoteInboundRTPStream_%s_%d", s.kind, ssrc)
		r[remoteID] = RemoteInboundRTPStreamStats{
			Stats:           Stats{ID: remoteID, Type: TypeRemoteInboundRTP, Timestamp: now},
			SSRC:            s.ssrc,
			TransportID:     s.transportID,
			CodecID:         s.codecID,
			PacketsLost:     s.remotePacketsLost,
			Jitter:          s.remoteJitter,
			RoundTripTime:   s.remoteRoundTripTime,
			FractionLost:    s.remoteFractionLost,
			ReportsReceived: s.remoteReportsReceived,
		}
	}

	for trackID, s := range a.mediaSources {
		id := "RTCMediaSource_" + trackID
		r[id] = MediaSourceStats{
			Stats:                     Stats{ID: id, Type: TypeMediaSource, Timestamp: now},
			TrackIdentifier:           s.trackID,
			Kind:                      s.kind,
			AudioLevel:                s.audioLevel,
			TotalAudioEnergy:          s.totalAudioEnergy,
			TotalSamplesDuration:      s.totalSamplesDuration,
			EchoReturnLoss:            s.echoReturnLoss,
			EchoReturnLossEnhancement: s.echoReturnLossEnhancement,
			Width:                     s.width,
			Height:                    s.height,
			Frames:                    s.frames,
			FramesPerSecond:           s.framesPerSecond,
		}
	}

	for playoutID, p := range a.audioPlayouts {
		id := "RTCAudioPlayout_" + playoutID
		r[id] = AudioPlayoutStats{
			Stats:                      Stats{ID: id, Type: TypeAudioPlayout, Timestamp: now},
			SynthesizedSamplesDuration: p.synthesizedSamplesDuration,
			SynthesizedSamplesEvents:   p.synthesizedSamplesEvents,
			TotalSamplesDuration:       p.totalSamplesDuration,
			TotalPlayoutDelay:          p.totalPlayoutDelay,
			TotalSamplesCount:          p.totalSamplesCount,
		}
	}

	return r
}
