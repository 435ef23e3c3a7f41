// Package rtc implements a sans-I/O WebRTC peer connection: ICE, DTLS,
// SRTP, SCTP, data channels, RTP/RTCP and SDP offer/answer composed behind
// the four synchronous entry points handle_read/handle_write/handle_event/
// handle_timeout (spec §5). The core owns no sockets, goroutines beyond
// what the wrapped pion/dtls handshake requires, or clock access; every
// caller drives it by feeding inbound datagrams and polling outbound ones.
package rtc

import (
	"fmt"
	"net"
	"time"

	"github.com/pion/logging"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/webrtc-rs/rtc/internal/datachannel"
	"github.com/webrtc-rs/rtc/internal/dtls"
	"github.com/webrtc-rs/rtc/internal/ice"
	"github.com/webrtc-rs/rtc/internal/interceptor"
	"github.com/webrtc-rs/rtc/internal/media"
	"github.com/webrtc-rs/rtc/internal/pipeline"
	"github.com/webrtc-rs/rtc/internal/sctp"
	"github.com/webrtc-rs/rtc/internal/sdp"
	"github.com/webrtc-rs/rtc/internal/srtp"
	"github.com/webrtc-rs/rtc/internal/stats"
)

// RtpPacket is an application handle_write message requesting media
// egress on a bound sender (spec §6 "Application messages").
type RtpPacket struct {
	TrackID string
	Packet  *rtp.Packet
}

// RtcpPacket is an application handle_write message for explicit control
// traffic (PLI, FIR, or other caller-originated feedback).
type RtcpPacket struct {
	TrackID string
	Packets []rtcp.Packet
}

// DataChannelMessage is an application handle_write message for outbound
// data channel traffic.
type DataChannelMessage struct {
	ChannelID uint16
	IsString  bool
	Data      []byte
}

// rocTracker reconstructs the 32-bit SRTP rollover counter per inbound
// SSRC, since internal/srtp.Context tracks ROC only for the direction it
// encrypts (spec §4.5 "two contexts per peer connection").
type rocTracker struct {
	lastSeq map[uint32]uint16
	roc     map[uint32]uint32
	seen    map[uint32]bool
}

func newROCTracker() *rocTracker {
	return &rocTracker{lastSeq: map[uint32]uint16{}, roc: map[uint32]uint32{}, seen: map[uint32]bool{}}
}

func (t *rocTracker) update(ssrc uint32, seq uint16) uint32 {
	if !t.seen[ssrc] {
		t.seen[ssrc] = true
		t.lastSeq[ssrc] = seq
		return 0
	}
	last := t.lastSeq[ssrc]
	if int(last)-int(seq) > 1<<15 {
		t.roc[ssrc]++
	} else if int(seq)-int(last) > 1<<15 && t.roc[ssrc] > 0 {
		t.roc[ssrc]--
	}
	t.lastSeq[ssrc] = seq
	return t.roc[ssrc]
}

// PeerConnection is the root engine (spec §2 "System Overview"): it owns
// one ICE Agent, one DTLS Transport, at most one SCTP association and its
// data channels, the media session, the interceptor chain, and the
// statistics accumulator, wiring them together the way the teacher's
// PeerConnection wires pion/ice, pion/dtls, pion/sctp and pion/interceptor.
type PeerConnection struct {
	cfg Configuration
	se  SettingEngine
	log logging.LeveledLogger

	certificates []Certificate

	isOfferer bool

	signalingState sdp.SignalingState
	localDesc      *SessionDescription
	remoteDesc     *SessionDescription

	demux     *pipeline.Demuxer
	iceAgent  *ice.Agent
	dtlsTrans *dtls.Transport
	dtlsRole  dtls.Role

	sctpEndpoint *sctp.Endpoint
	dcManager    *datachannel.Manager

	mediaEngine *media.MediaEngine
	session     *media.Session
	chain       *interceptor.Chain

	localSRTP  *srtp.Context
	remoteSRTP *srtp.Context
	inboundROC *rocTracker
	srtcpIndex uint32

	statsAccum *stats.Accumulator

	remoteFingerprints []dtls.RemoteFingerprint

	connState ConnectionState
	peerAddr  string
	localAddr string

	closed bool

	readOut  []pipeline.Message
	writeOut []pipeline.Message
	eventOut []interface{}
}

// New builds a PeerConnection from a Configuration and the implementation
// tuning knobs in SettingEngine. If cfg.Certificates is empty, one fresh
// certificate is generated per spec §6 ("Certificates may be supplied by
// the caller or generated fresh per peer connection").
func New(cfg Configuration, se SettingEngine) (*PeerConnection, error) {
	certs := cfg.Certificates
	if len(certs) == 0 {
		cert, err := GenerateCertificate()
		if err != nil {
			return nil, err
		}
		certs = []Certificate{*cert}
	}

	loggerFactory := se.loggerFactory()
	mediaEngine := media.NewMediaEngine()
	mediaEngine.RegisterDefaultCodecs()

	pc := &PeerConnection{
		cfg:            cfg,
		se:             se,
		log:            loggerFactory.NewLogger("rtc"),
		certificates:   certs,
		signalingState: sdp.SignalingStateStable,
		demux:          pipeline.NewDemuxer(loggerFactory),
		mediaEngine:    mediaEngine,
		session:        media.NewSession(),
		chain: interceptor.NewChain(
			interceptor.NewNACKGenerator(loggerFactory),
			interceptor.NewNACKResponder(loggerFactory),
			interceptor.NewSRGenerator(loggerFactory),
			interceptor.NewRRGenerator(loggerFactory),
		),
		inboundROC: newROCTracker(),
		statsAccum: stats.New(),
		connState:  ConnectionStateNew,
	}
	return pc, nil
}

// SignalingState returns the current RFC 8829 offer/answer state.
func (pc *PeerConnection) SignalingState() sdp.SignalingState { return pc.signalingState }

// ConnectionState returns the spec §4.9 aggregate connection state.
func (pc *PeerConnection) ConnectionState() ConnectionState { return pc.connState }

// ICEConnectionState returns the underlying ICE agent's connection state,
// or ConnectionStateNew before Gather has been called.
func (pc *PeerConnection) ICEConnectionState() ice.ConnectionState {
	if pc.iceAgent == nil {
		return ice.ConnectionStateNew
	}
	return pc.iceAgent.ConnectionState()
}

// ICEGatheringState returns the local candidate gathering progress.
func (pc *PeerConnection) ICEGatheringState() ice.GatheringState {
	if pc.iceAgent == nil {
		return ice.GatheringStateNew
	}
	return pc.iceAgent.GatheringState()
}

// LocalDescription returns the description last applied via
// SetLocalDescription, or nil.
func (pc *PeerConnection) LocalDescription() *SessionDescription { return pc.localDesc }

// RemoteDescription returns the description last applied via
// SetRemoteDescription, or nil.
func (pc *PeerConnection) RemoteDescription() *SessionDescription { return pc.remoteDesc }

// GetStats snapshots every statistics category at now (W3C webrtc-stats,
// spec C11).
func (pc *PeerConnection) GetStats(now time.Time) stats.Report {
	return pc.statsAccum.Snapshot(now)
}

// ensureICEAgent lazily creates the agent in the role implied by whichever
// side calls first (offerer is controlling, per RFC 8445 §5.2's default
// when no prior session existed).
func (pc *PeerConnection) ensureICEAgent(controlling bool) *ice.Agent {
	if pc.iceAgent == nil {
		role := ice.RoleControlled
		if controlling {
			role = ice.RoleControlling
		}
		pc.iceAgent = ice.NewAgent(role, false, pc.se.loggerFactory())
	}
	return pc.iceAgent
}

// Gather enumerates host addresses bound to every non-loopback interface
// and registers them as host candidates on port. Socket enumeration is an
// application concern everywhere else in this library (spec §1); Gather
// is the default convenience path, mirroring the teacher's
// createICEGatherer + gather for the common single-host case.
func (pc *PeerConnection) Gather(port uint16, controlling bool) error {
	agent := pc.ensureICEAgent(controlling)
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return fmt.Errorf("rtc: gather: %w", err)
	}
	gathered := false
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() || ipNet.IP.To4() == nil {
			continue
		}
		agent.AddHostAddr(ice.NetworkTypeUDP4, ipNet.IP.String(), port, ice.TCPTypeNone)
		gathered = true
	}
	if !gathered {
		agent.AddHostAddr(ice.NetworkTypeUDP4, "127.0.0.1", port, ice.TCPTypeNone)
	}
	agent.EndOfLocalCandidates()
	return nil
}

// AddICECandidate registers one remote candidate, trickled separately from
// the remote description (spec §6 "ICE candidate string").
func (pc *PeerConnection) AddICECandidate(candidate string) error {
	if pc.iceAgent == nil {
		return fmt.Errorf("rtc: no ICE agent yet, call Gather or SetRemoteDescription first")
	}
	c, err := ice.ParseCandidate(candidate)
	if err != nil {
		return err
	}
	pc.iceAgent.AddRemoteCandidate(c)
	return nil
}

// Close transitions the peer connection to Closed terminally; every
// subsequent handle_*/poll_* call is a no-op (spec §5 "Cancellation").
func (pc *PeerConnection) Close() error {
	if pc.closed {
		return nil
	}
	pc.closed = true
	if pc.dtlsTrans != nil {
		pc.dtlsTrans.Close()
	}
	pc.setConnectionState(ConnectionStateClosed)
	return nil
}

func (pc *PeerConnection) setConnectionState(s ConnectionState) {
	if pc.connState == s {
		return
	}
	pc.connState = s
	pc.eventOut = append(pc.eventOut, OnConnectionStateChangeEvent{State: s})
}

func (pc *PeerConnection) reduceAndEmitConnectionState() {
	iceState := ice.ConnectionStateNew
	if pc.iceAgent != nil {
		iceState = pc.iceAgent.ConnectionState()
	}
	dtlsState := dtls.TransportStateNew
	if pc.dtlsTrans != nil {
		dtlsState = pc.dtlsTrans.State()
	}
	pc.setConnectionState(reduceConnectionState(iceState, dtlsState))
}

// PollRead returns the next media.InboundRTCP surfaced by the media
// session. Inbound RTP is handed to the bound RTPReceiver and is not
// returned here.
func (pc *PeerConnection) PollRead() (pipeline.Message, bool) {
	if msg, ok := pc.session.PollRTCP(); ok {
		return msg, true
	}
	if len(pc.readOut) == 0 {
		return nil, false
	}
	msg := pc.readOut[0]
	pc.readOut = pc.readOut[1:]
	return msg, true
}

// PollWrite returns the next outbound datagram the caller must deliver to
// PeerAddr on LocalAddr.
func (pc *PeerConnection) PollWrite() (pipeline.Message, bool) {
	if len(pc.writeOut) == 0 {
		return nil, false
	}
	msg := pc.writeOut[0]
	pc.writeOut = pc.writeOut[1:]
	return msg, true
}

// PollEvent returns the next spec §6 application event.
func (pc *PeerConnection) PollEvent() (interface{}, bool) {
	if len(pc.eventOut) == 0 {
		return nil, false
	}
	evt := pc.eventOut[0]
	pc.eventOut = pc.eventOut[1:]
	return evt, true
}

// PollTimeout returns the soonest deadline across every owned component.
func (pc *PeerConnection) PollTimeout() (time.Time, bool) {
	var min time.Time
	found := false
	consider := func(t time.Time, ok bool) {
		if !ok {
			return
		}
		if !found || t.Before(min) {
			min, found = t, true
		}
	}
	if pc.iceAgent != nil {
		consider(pc.iceAgent.PollTimeout())
	}
	if pc.sctpEndpoint != nil {
		consider(pc.sctpEndpoint.PollTimeout())
	}
	consider(pc.chain.PollTimeout())
	return min, found
}

// HandleTimeout advances every owned component's timers to now (spec §5
// "handle_timeout").
func (pc *PeerConnection) HandleTimeout(now time.Time) error {
	if pc.closed {
		return nil
	}
	if pc.iceAgent != nil {
		pc.iceAgent.HandleTimeout(now)
		pc.drainICE()
	}
	if pc.sctpEndpoint != nil {
		pc.sctpEndpoint.HandleTimeout(now)
		pc.drainSCTP()
	}
	pc.chain.HandleTimeout(now)
	pc.drainChainOutputs()
	pc.reduceAndEmitConnectionState()
	return nil
}

// isRTCPPayload reports whether an SRTP-routed datagram carries RTCP
// rather than RTP, per RFC 5761's convention that RTCP payload types
// occupy 192..223 while RTP payload types never do.
func isRTCPPayload(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	pt := b[1] & 0x7f
	return pt >= 192 && pt <= 223
}

// HandleRead is the sans-I/O ingress entry point (spec §5 "handle_read"):
// one inbound datagram, tagged with the transport context it arrived on.
func (pc *PeerConnection) HandleRead(now time.Time, ctx pipeline.TransportContext, data []byte) error {
	if pc.closed {
		return nil
	}
	pc.peerAddr = ctx.PeerAddr
	pc.localAddr = ctx.LocalAddr

	pc.demux.HandleRead(pipeline.Datagram{Now: now, Context: ctx, Data: data})
	for {
		msg, ok := pc.demux.PollRead()
		if !ok {
			break
		}
		d, ok := msg.(pipeline.Demuxed)
		if !ok {
			continue
		}
		pc.routeInbound(now, d)
	}
	pc.reduceAndEmitConnectionState()
	return nil
}

func (pc *PeerConnection) routeInbound(now time.Time, d pipeline.Demuxed) {
	dg := pipeline.Datagram{Now: now, Context: d.Ctx, Data: d.Data}
	switch d.Route {
	case pipeline.RouteSTUN:
		if pc.iceAgent == nil {
			return
		}
		pc.iceAgent.HandleRead(dg)
		pc.drainICE()

	case pipeline.RouteDTLS:
		if pc.dtlsTrans == nil {
			return
		}
		pc.dtlsTrans.HandleRead(dg)
		pc.drainDTLS()

	case pipeline.RouteSRTP:
		pc.handleSRTPDatagram(d.Data)

	case pipeline.RouteTURN:
		pc.statsAccum.OnPacketReceived(len(d.Data))
	}
}

func (pc *PeerConnection) handleSRTPDatagram(data []byte) {
	if pc.remoteSRTP == nil {
		return
	}
	pc.statsAccum.OnPacketReceived(len(data))

	if isRTCPPayload(data) {
		ssrc := binaryBigEndianUint32(data[4:8])
		plain, err := pc.remoteSRTP.UnprotectRTCP(data, ssrc)
		if err != nil {
			pc.log.Warnf("rtc: dropping srtcp packet: %v", err)
			return
		}
		packets, err := rtcp.Unmarshal(plain)
		if err != nil {
			pc.log.Warnf("rtc: dropping malformed rtcp: %v", err)
			return
		}
		pc.chain.HandleRead(interceptor.RTCPMessage{Packets: packets})
		pc.drainChainRead()
		return
	}

	var hdr rtp.Header
	if _, err := hdr.Unmarshal(data); err != nil {
		pc.log.Warnf("rtc: dropping malformed rtp header: %v", err)
		return
	}
	roc := pc.inboundROC.update(hdr.SSRC, hdr.SequenceNumber)
	plain, err := pc.remoteSRTP.UnprotectRTP(data, hdr.SSRC, hdr.SequenceNumber, roc)
	if err != nil {
		pc.log.Warnf("rtc: dropping srtp packet: %v", err)
		return
	}
	pc.statsAccum.OnRTPReceived(hdr.SSRC, "", len(plain), hdr.MarshalSize(), time.Time{})
	pkt := &rtp.Packet{Header: hdr, Payload: plain}
	pc.chain.HandleRead(interceptor.RTPMessage{Packet: pkt})
	pc.drainChainRead()
}

func binaryBigEndianUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func (pc *PeerConnection) drainChainRead() {
	for {
		msg, ok := pc.chain.PollRead()
		if !ok {
			return
		}
		if err := pc.session.HandleRead(msg); err != nil {
			pc.log.Warnf("rtc: %v", err)
		}
	}
}

func (pc *PeerConnection) drainICE() {
	for {
		evt, ok := pc.iceAgent.PollEvent()
		if !ok {
			break
		}
		pc.translateICEEvent(evt)
	}
	for {
		msg, ok := pc.iceAgent.PollWrite()
		if !ok {
			break
		}
		pc.writeOut = append(pc.writeOut, msg)
	}
}

func (pc *PeerConnection) translateICEEvent(evt interface{}) {
	switch e := evt.(type) {
	case ice.ConnectionStateChangedEvent:
		pc.eventOut = append(pc.eventOut, OnIceConnectionStateChangeEvent{State: e.State})
		pc.statsAccum.OnICEStateChanged(stateString(e.State))
		if e.State == ice.ConnectionStateConnected && pc.dtlsTrans != nil {
			pc.dtlsTrans.Start()
		}
	case ice.LocalCandidateGatheredEvent:
		pc.eventOut = append(pc.eventOut, OnIceCandidateEvent{Candidate: e.Candidate})
	case ice.GatheringStateChangedEvent:
		if e.State == ice.GatheringStateComplete {
			pc.eventOut = append(pc.eventOut, OnIceCandidateEvent{Candidate: nil})
		}
	case ice.SelectedPairChangedEvent:
		pc.statsAccum.OnSelectedCandidatePairChanged(fmt.Sprintf("%p", e.Pair))
	}
}

func stateString(s fmt.Stringer) string { return s.String() }

func (pc *PeerConnection) drainDTLS() {
	for {
		evt, ok := pc.dtlsTrans.PollEvent()
		if !ok {
			break
		}
		pc.translateDTLSEvent(evt)
	}
	for {
		msg, ok := pc.dtlsTrans.PollWrite()
		if !ok {
			break
		}
		dg, ok := msg.(pipeline.Datagram)
		if !ok {
			continue
		}
		dg.Context = pipeline.TransportContext{LocalAddr: pc.localAddr, PeerAddr: pc.peerAddr, Protocol: pipeline.TransportUDP}
		pc.writeOut = append(pc.writeOut, dg)
	}
	for {
		msg, ok := pc.dtlsTrans.PollRead()
		if !ok {
			break
		}
		dg, ok := msg.(pipeline.Datagram)
		if !ok {
			continue
		}
		if pc.sctpEndpoint != nil {
			pc.sctpEndpoint.HandleRead(dg)
			pc.drainSCTP()
		}
	}
}

func (pc *PeerConnection) translateDTLSEvent(evt interface{}) {
	switch e := evt.(type) {
	case dtls.TransportStateChangedEvent:
		pc.statsAccum.OnDTLSStateChanged(stateString(e.State))
		if e.State == dtls.TransportStateConnected && pc.sctpEndpoint != nil && pc.dtlsRole == dtls.RoleClient {
			pc.sctpEndpoint.Connect()
			pc.drainSCTP()
		}
	case dtls.HandshakeCompleteEvent:
		pc.statsAccum.OnDTLSHandshakeComplete("1.2", "", e.Profile, pc.dtlsRole.String())
		localCtx, remoteCtx := e.LocalSRTP, e.RemoteSRTP
		localSRTP, err := srtp.NewContext(localCtx, pc.se.ReplaySRTPWindow, pc.se.ReplaySRTCPWindow)
		if err != nil {
			pc.log.Warnf("rtc: building local srtp context: %v", err)
			return
		}
		remoteSRTP, err := srtp.NewContext(remoteCtx, pc.se.ReplaySRTPWindow, pc.se.ReplaySRTCPWindow)
		if err != nil {
			pc.log.Warnf("rtc: building remote srtp context: %v", err)
			return
		}
		pc.localSRTP, pc.remoteSRTP = localSRTP, remoteSRTP
	}
}

func (pc *PeerConnection) drainSCTP() {
	// datachannel.Manager.Pump drains both pc.sctpEndpoint.PollEvent and
	// PollRead itself (spec §4.7's SCTP-event-to-channel-lifecycle
	// translation); nothing upstream of it needs to observe raw sctp events.
	if pc.dcManager != nil {
		pc.dcManager.Pump()
		pc.drainDataChannelEvents()
	}
	for {
		msg, ok := pc.sctpEndpoint.PollWrite()
		if !ok {
			break
		}
		if pc.dtlsTrans != nil {
			if err := pc.dtlsTrans.HandleWrite(msg); err != nil {
				pc.log.Warnf("rtc: writing sctp bytes to dtls: %v", err)
			}
			pc.drainDTLS()
		}
	}
}

func (pc *PeerConnection) drainDataChannelEvents() {
	for {
		evt, ok := pc.dcManager.PollEvent()
		if !ok {
			break
		}
		switch e := evt.(type) {
		case datachannel.ChannelOpenedEvent:
			pc.statsAccum.OnDataChannelOpened(e.ID)
			label := ""
			if ch, ok := pc.dcManager.Channel(e.ID); ok {
				label = ch.Label()
			}
			pc.eventOut = append(pc.eventOut, OnDataChannelOpenEvent{ChannelID: e.ID, Label: label})
		case datachannel.ChannelClosedEvent:
			pc.statsAccum.OnDataChannelClosed(e.ID)
			pc.eventOut = append(pc.eventOut, OnDataChannelCloseEvent{ChannelID: e.ID})
		case datachannel.BufferedAmountLowEvent:
			pc.eventOut = append(pc.eventOut, OnBufferedAmountLowEvent{ChannelID: e.ID})
		case datachannel.BufferedAmountHighEvent:
			pc.eventOut = append(pc.eventOut, OnBufferedAmountHighEvent{ChannelID: e.ID})
		}
	}
	for {
		msg, ok := pc.dcManager.PollMessage()
		if !ok {
			break
		}
		pc.statsAccum.OnDataChannelMessageReceived(msg.ID, len(msg.Data))
		pc.eventOut = append(pc.eventOut, OnDataChannelMessageEvent{ChannelID: msg.ID, Data: msg.Data, IsString: msg.IsString})
	}
}

func (pc *PeerConnection) drainChainOutputs() {
	pc.drainChainRead()
	for {
		evt, ok := pc.chain.PollEvent()
		if !ok {
			break
		}
		_ = evt
	}
	for {
		msg, ok := pc.chain.PollWrite()
		if !ok {
			break
		}
		pc.encryptAndQueue(msg)
	}
}

func (pc *PeerConnection) encryptAndQueue(msg pipeline.Message) {
	if pc.localSRTP == nil {
		return
	}
	ctx := pipeline.TransportContext{LocalAddr: pc.localAddr, PeerAddr: pc.peerAddr, Protocol: pipeline.TransportUDP}
	switch m := msg.(type) {
	case interceptor.RTPMessage:
		headerBytes, err := m.Packet.Header.Marshal()
		if err != nil {
			pc.log.Warnf("rtc: marshal rtp header: %v", err)
			return
		}
		out, err := pc.localSRTP.ProtectRTP(headerBytes, m.Packet.Payload, m.Packet.SSRC, m.Packet.SequenceNumber)
		if err != nil {
			pc.log.Warnf("rtc: protect rtp: %v", err)
			return
		}
		pc.statsAccum.OnRTPSent(m.Packet.SSRC, "", len(m.Packet.Payload), len(headerBytes))
		pc.writeOut = append(pc.writeOut, pipeline.Datagram{Context: ctx, Data: out})

	case interceptor.RTCPMessage:
		raw, err := rtcp.Marshal(m.Packets)
		if err != nil {
			pc.log.Warnf("rtc: marshal rtcp: %v", err)
			return
		}
		if len(raw) < 8 {
			return
		}
		var ssrc uint32
		if len(m.Packets) > 0 {
			if sp, ok := m.Packets[0].(interface{ DestinationSSRC() []uint32 }); ok {
				if ids := sp.DestinationSSRC(); len(ids) > 0 {
					ssrc = ids[0]
				}
			}
		}
		pc.srtcpIndex++
		out, err := pc.localSRTP.ProtectRTCP(raw[:8], raw[8:], ssrc, pc.srtcpIndex)
		if err != nil {
			pc.log.Warnf("rtc: protect rtcp: %v", err)
			return
		}
		pc.writeOut = append(pc.writeOut, pipeline.Datagram{Context: ctx, Data: out})
	}
}

// HandleWrite is the sans-I/O egress entry point (spec §5 "handle_write"):
// the application hands in one of RtpPacket/RtcpPacket/DataChannelMessage.
func (pc *PeerConnection) HandleWrite(msg interface{}) error {
	if pc.closed {
		return fmt.Errorf("rtc: peer connection closed")
	}
	switch m := msg.(type) {
	case RtpPacket:
		for _, t := range pc.session.Transceivers() {
			if t.Sender() == nil {
				continue
			}
			if err := t.Sender().WriteRTP(m.Packet); err == nil {
				break
			}
		}
		pc.drainMediaWrite()

	case RtcpPacket:
		pc.chain.HandleWrite(pc.session.SendRTCP(m.Packets))
		pc.drainChainOutputs()

	case DataChannelMessage:
		if pc.dcManager == nil {
			return fmt.Errorf("rtc: no data channel manager yet")
		}
		if err := pc.dcManager.Send(m.ChannelID, m.Data, m.IsString); err != nil {
			return err
		}
		pc.statsAccum.OnDataChannelMessageSent(m.ChannelID, len(m.Data))
		pc.drainSCTP()

	default:
		return fmt.Errorf("rtc: unrecognized handle_write message %T", msg)
	}
	return nil
}

func (pc *PeerConnection) drainMediaWrite() {
	for {
		msg, ok := pc.session.PollWrite()
		if !ok {
			return
		}
		pc.chain.HandleWrite(msg)
		pc.drainChainOutputs()
	}
}

// HandleEvent accepts a caller-originated signal (e.g. a network-path
// change) and forwards it to the interceptor chain (spec §5
// "handle_event"). The ICE agent, DTLS transport and SCTP endpoint do not
// receive it.
func (pc *PeerConnection) HandleEvent(evt interface{}) error {
	if pc.closed {
		return nil
	}
	pc.chain.HandleEvent(evt)
	pc.drainChainOutputs()
	return nil
}
