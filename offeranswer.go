package rtc

import (
	"fmt"
	"strconv"

	psdp "github.com/pion/sdp/v3"

	"github.com/webrtc-rs/rtc/internal/datachannel"
	"github.com/webrtc-rs/rtc/internal/dtls"
	"github.com/webrtc-rs/rtc/internal/ice"
	"github.com/webrtc-rs/rtc/internal/interceptor"
	"github.com/webrtc-rs/rtc/internal/media"
	"github.com/webrtc-rs/rtc/internal/sctp"
	"github.com/webrtc-rs/rtc/internal/sdp"
)

// SessionDescription is the public offer/answer envelope (W3C
// RTCSessionDescription), wrapping the parsed psdp tree the sdp package
// builds and extracts.
type SessionDescription struct {
	Type sdp.Type
	SDP  string

	parsed *psdp.SessionDescription
}

// Marshal renders the wire-format SDP text (spec §6 "SDP emitted/parsed
// verbatim per RFC 8866").
func (d SessionDescription) Marshal() (string, error) {
	b, err := d.parsed.Marshal()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const applicationMID = "data"

// mediaSections assigns stable mid values in transceiver order, with
// the application (data channel) section always last, matching the
// teacher's BUNDLE group ordering.
func (pc *PeerConnection) mediaSections(includeData bool) []sdp.MediaSection {
	var sections []sdp.MediaSection
	for i, t := range pc.session.Transceivers() {
		section := sdp.MediaSection{
			MID:       strconv.Itoa(i),
			Kind:      t.Kind,
			Codecs:    t.Codecs,
			Direction: t.Direction.String(),
		}
		if t.Sender() != nil {
			if info := t.Sender().StreamInfo(); info != nil {
				section.SSRCHasSSRC = true
				section.SSRC = info.SSRC
				section.StreamID = info.ID
				section.TrackID = info.ID
			}
		}
		sections = append(sections, section)
	}
	if includeData {
		sections = append(sections, sdp.MediaSection{MID: applicationMID, Data: true})
	}
	return sections
}

// CreateOffer builds a local offer from the current set of transceivers
// and (if any data channel exists or is about to be created) an
// application m-section, per spec §4.10.
func (pc *PeerConnection) CreateOffer() (*SessionDescription, error) {
	if pc.closed {
		return nil, fmt.Errorf("rtc: peer connection closed")
	}
	pc.isOfferer = true
	controlling := true
	agent := pc.ensureICEAgent(controlling)

	fp := pc.certificates[0].Fingerprint()
	params := sdp.BuildParams{
		Origin:         "-",
		ICEParams:      sdp.ICEParameters{UsernameFragment: agent.LocalUfrag(), Password: agent.LocalPwd()},
		Fingerprints:   []dtls.RemoteFingerprint{{Algorithm: fp.Algorithm, Value: fp.Value}},
		ConnectionRole: "actpass",
		GatheringDone:  agent.GatheringState() == ice.GatheringStateComplete,
		MediaSections:  pc.mediaSections(pc.dcManager != nil || pc.sctpEndpoint != nil),
	}
	for _, c := range localCandidatesOf(agent) {
		params.Candidates = append(params.Candidates, c)
	}

	desc := sdp.Build(params)
	raw, err := desc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("rtc: marshal offer: %w", err)
	}
	return &SessionDescription{Type: sdp.TypeOffer, SDP: string(raw), parsed: desc}, nil
}

// localCandidatesOf is a small accessor shim: Agent does not currently
// expose its full candidate list (only SelectedPair), so offers/answers
// are built trickle-first (spec §6 "ICE candidate string" is surfaced
// incrementally via OnIceCandidateEvent) and candidates already gathered
// by the time CreateOffer/CreateAnswer is called come from the events the
// caller has already observed. This returns none up front; AddICECandidate
// remote-side and OnIceCandidateEvent local-side carry candidates instead.
func localCandidatesOf(agent *ice.Agent) []*ice.Candidate { return nil }

// CreateAnswer builds a local answer in response to a remote offer
// previously applied via SetRemoteDescription.
func (pc *PeerConnection) CreateAnswer() (*SessionDescription, error) {
	if pc.closed {
		return nil, fmt.Errorf("rtc: peer connection closed")
	}
	if pc.remoteDesc == nil {
		return nil, fmt.Errorf("rtc: no remote description set")
	}
	pc.isOfferer = false
	agent := pc.ensureICEAgent(false)

	fp := pc.certificates[0].Fingerprint()
	connectionRole := "active"
	if role, ok := pc.remoteDesc.parsed.Attribute(psdp.AttrKeyConnectionSetup); ok && role == "active" {
		connectionRole = "passive"
	}

	params := sdp.BuildParams{
		Origin:         "-",
		ICEParams:      sdp.ICEParameters{UsernameFragment: agent.LocalUfrag(), Password: agent.LocalPwd()},
		Fingerprints:   []dtls.RemoteFingerprint{{Algorithm: fp.Algorithm, Value: fp.Value}},
		ConnectionRole: connectionRole,
		GatheringDone:  agent.GatheringState() == ice.GatheringStateComplete,
		MediaSections:  pc.mediaSections(sdp.HaveDataChannel(pc.remoteDesc.parsed)),
	}

	desc := sdp.Build(params)
	raw, err := desc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("rtc: marshal answer: %w", err)
	}
	return &SessionDescription{Type: sdp.TypeAnswer, SDP: string(raw), parsed: desc}, nil
}

// SetLocalDescription applies desc as the local offer/answer/pranswer,
// validating the RFC 8829 signaling state transition.
func (pc *PeerConnection) SetLocalDescription(desc *SessionDescription) error {
	if pc.closed {
		return fmt.Errorf("rtc: peer connection closed")
	}
	next, err := sdp.NextSignalingState(pc.signalingState, sdp.OpSetLocal, desc.Type)
	if err != nil {
		return err
	}
	pc.signalingState = next
	pc.localDesc = desc

	if desc.Type == sdp.TypeAnswer {
		pc.finalizeDTLSRole()
	}
	return nil
}

// SetRemoteDescription applies desc as the remote offer/answer/pranswer,
// registering remote ICE credentials/candidates and the DTLS fingerprint,
// and standing up receivers for declared SSRCs (spec §4.10).
func (pc *PeerConnection) SetRemoteDescription(desc *SessionDescription) error {
	if pc.closed {
		return fmt.Errorf("rtc: peer connection closed")
	}
	if desc.parsed == nil {
		parsed := &psdp.SessionDescription{}
		if err := parsed.Unmarshal([]byte(desc.SDP)); err != nil {
			return fmt.Errorf("rtc: parse remote description: %w", err)
		}
		desc.parsed = parsed
	}

	next, err := sdp.NextSignalingState(pc.signalingState, sdp.OpSetRemote, desc.Type)
	if err != nil {
		return err
	}
	pc.signalingState = next
	pc.remoteDesc = desc

	algorithm, value, err := sdp.ExtractFingerprint(desc.parsed)
	if err != nil {
		return err
	}
	pc.remoteFingerprints = []dtls.RemoteFingerprint{{Algorithm: algorithm, Value: value}}

	iceParams, candidates, err := sdp.ExtractICEDetails(desc.parsed)
	if err != nil {
		return err
	}
	// A received offer means this side is answering (ICE controlled); a
	// received answer means this side already offered and is controlling.
	// Once the agent exists the flag is moot, since ensureICEAgent only
	// picks a role the first time it is called.
	controlling := desc.Type != sdp.TypeOffer
	agent := pc.ensureICEAgent(controlling)
	agent.SetRemoteCredentials(iceParams.UsernameFragment, iceParams.Password)
	for _, c := range candidates {
		agent.AddRemoteCandidate(c)
	}

	for _, track := range sdp.TrackDetailsFromSDP(desc.parsed) {
		pc.bindRemoteTrack(track)
	}

	if sdp.HaveDataChannel(desc.parsed) && pc.sctpEndpoint == nil {
		pc.ensureDataChannelTransport()
	}

	if desc.Type == sdp.TypeAnswer || (desc.Type == sdp.TypeOffer && !pc.isOfferer) {
		pc.finalizeDTLSRole()
	}
	return nil
}

func (pc *PeerConnection) bindRemoteTrack(t sdp.TrackDetails) {
	if t.SSRC == 0 {
		return
	}
	recv := media.NewRTPReceiver(t.Kind)
	codecs := pc.mediaEngine.CodecsByKind(t.Kind)
	var codec media.RTPCodecParameters
	if len(codecs) > 0 {
		codec = codecs[0]
	}
	recv.Receive(t.TrackID, "", t.SSRC, codec)

	transceiver := media.NewRTPTransceiver(t.Kind, media.DirectionRecvOnly, codecs)
	transceiver.Mid = t.MID
	transceiver.SetReceiver(recv)
	pc.session.AddTransceiver(transceiver)

	for _, info := range recv.StreamInfos() {
		pc.chain.HandleEvent(interceptor.BindRemoteStreamEvent{Info: info})
	}
	pc.drainChainOutputs()

	pc.eventOut = append(pc.eventOut, OnTrackOpenEvent{ReceiverID: t.TrackID, TrackID: t.TrackID})
}

// finalizeDTLSRole derives the DTLS role from the remote a=setup attribute
// (or the SettingEngine override) and builds the Transport once a remote
// description is set, per spec §4.4 steps 1-4. The Transport is started
// later, when the ICE agent reports Connected.
func (pc *PeerConnection) finalizeDTLSRole() {
	if pc.dtlsTrans != nil || pc.remoteDesc == nil {
		return
	}
	remoteSetup, _ := pc.remoteDesc.parsed.Attribute(psdp.AttrKeyConnectionSetup)
	controlling := pc.iceAgent != nil && pc.iceAgent.Role() == ice.RoleControlling
	role := dtls.DeriveRole(remoteSetup, pc.se.DTLSRoleOverride, controlling)
	pc.dtlsRole = role

	cfg := pc.se.certificateConfig(pc.certificates[0].tlsCertificate(), pc.remoteFingerprints)
	cfg.Role = role
	pc.dtlsTrans = dtls.NewTransport(cfg, pc.se.loggerFactory())

	if sdp.HaveDataChannel(pc.remoteDesc.parsed) {
		pc.ensureDataChannelTransport()
	}
}

// ensureDataChannelTransport builds the SCTP endpoint and data channel
// manager the first time they are needed. CreateDataChannel may have
// already called this with a guessed DTLS role before any SDP was
// exchanged; once finalizeDTLSRole knows the real role it calls this
// again, and an existing manager gets its stream id parity corrected
// rather than being rebuilt (spec §4.7 channels created pre-offer must
// survive the role becoming known only after the answer arrives).
func (pc *PeerConnection) ensureDataChannelTransport() {
	clientSide := pc.dtlsRole == dtls.RoleClient
	if pc.sctpEndpoint == nil {
		pc.sctpEndpoint = sctp.NewEndpoint(sctp.Config{ClientSide: clientSide}, pc.se.loggerFactory())
		pc.dcManager = datachannel.NewManager(pc.sctpEndpoint, clientSide, pc.se.loggerFactory())
		return
	}
	pc.dcManager.SetClientSide(clientSide)
}
