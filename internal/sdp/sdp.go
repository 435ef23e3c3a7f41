// Package sdp builds and parses RFC 8866 session descriptions for the peer
// connection's offer/answer surface (spec C10). It wraps github.com/pion/sdp/v3
// for the wire grammar, the same dependency the teacher uses, and adapts the
// teacher's sdp.go population/extraction helpers (trackDetailsFromSDP,
// addTransceiverSDP, extractFingerprint, extractICEDetails) away from the
// teacher's pion/ice-backed Candidate toward this module's internal/ice.
package sdp

import (
	"fmt"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"

	"github.com/webrtc-rs/rtc/internal/dtls"
	"github.com/webrtc-rs/rtc/internal/ice"
	"github.com/webrtc-rs/rtc/internal/media"
)

const mediaSectionApplication = "application"

// ICEParameters is the ufrag/password pair carried in a=ice-ufrag/a=ice-pwd.
type ICEParameters struct {
	UsernameFragment string
	Password         string
	Lite             bool
}

// MediaSection describes one m-line to emit: either a data-channel
// (application) section or a media (audio/video) section backed by one
// transceiver's negotiated codecs.
type MediaSection struct {
	MID          string
	Data         bool
	Kind         media.RTPCodecType
	Codecs       []media.RTPCodecParameters
	Direction    string // "sendrecv" | "sendonly" | "recvonly" | "inactive"
	SSRC         uint32
	SSRCHasSSRC  bool
	StreamID     string
	TrackID      string
	RIDs         []string // simulcast RIDs this section offers to receive
	ExtMaps      []psdp.ExtMap
}

// BuildParams carries everything needed to render a full session
// description (spec §4.10: "gathers local ice-ufrag/ice-pwd, fingerprints
// from local certificates, and one m-section per transceiver plus one
// application m-section per SCTP usage").
type BuildParams struct {
	Origin          string // "<username> <session-id> <session-version> IN IP4 0.0.0.0"
	ICEParams       ICEParameters
	Fingerprints    []dtls.RemoteFingerprint
	ConnectionRole  string // "active" | "passive" | "actpass"
	Candidates      []*ice.Candidate
	GatheringDone   bool
	MediaSections   []MediaSection
}

// Build renders a session description for the given media sections,
// adapting the teacher's populateSDP/addTransceiverSDP/addDataMediaSection.
func Build(p BuildParams) *psdp.SessionDescription {
	d := &psdp.SessionDescription{
		Version: 0,
		Origin: psdp.Origin{
			Username:       "-",
			SessionID:      0,
			SessionVersion: 2,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: "0.0.0.0",
		},
		SessionName: "-",
		TimeDescriptions: []psdp.TimeDescription{
			{Timing: psdp.Timing{StartTime: 0, StopTime: 0}},
		},
	}

	bundle := "BUNDLE"
	for i, m := range p.MediaSections {
		var section *psdp.MediaDescription
		if m.Data {
			section = buildDataSection(m, p)
		} else {
			section = buildMediaSection(m, p)
		}
		if i == 0 {
			addCandidates(section, p.Candidates, p.GatheringDone)
		}
		d.WithMedia(section)
		bundle += " " + m.MID
	}

	for _, fp := range p.Fingerprints {
		d.WithFingerprint(fp.Algorithm, strings.ToUpper(fp.Value))
	}
	if p.ICEParams.Lite {
		d = d.WithValueAttribute(psdp.AttrKeyICELite, psdp.AttrKeyICELite)
	}
	return d.WithValueAttribute(psdp.AttrKeyGroup, bundle)
}

func buildDataSection(m MediaSection, p BuildParams) *psdp.MediaDescription {
	section := (&psdp.MediaDescription{
		MediaName: psdp.MediaName{
			Media:   mediaSectionApplication,
			Port:    psdp.RangedPort{Value: 9},
			Protos:  []string{"DTLS", "SCTP"},
			Formats: []string{"5000"},
		},
		ConnectionInformation: &psdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &psdp.Address{Address: "0.0.0.0"},
		},
	}).
		WithValueAttribute(psdp.AttrKeyConnectionSetup, p.ConnectionRole).
		WithValueAttribute(psdp.AttrKeyMID, m.MID).
		WithPropertyAttribute("sendrecv").
		WithPropertyAttribute("sctpmap:5000 webrtc-datachannel 1024").
		WithICECredentials(p.ICEParams.UsernameFragment, p.ICEParams.Password)

	for _, fp := range p.Fingerprints {
		section = section.WithFingerprint(fp.Algorithm, strings.ToUpper(fp.Value))
	}
	return section
}

func buildMediaSection(m MediaSection, p BuildParams) *psdp.MediaDescription {
	section := psdp.NewJSEPMediaDescription(m.Kind.String(), []string{}).
		WithValueAttribute(psdp.AttrKeyConnectionSetup, p.ConnectionRole).
		WithValueAttribute(psdp.AttrKeyMID, m.MID).
		WithICECredentials(p.ICEParams.UsernameFragment, p.ICEParams.Password).
		WithPropertyAttribute(psdp.AttrKeyRTCPMux).
		WithPropertyAttribute(psdp.AttrKeyRTCPRsize)

	for _, c := range m.Codecs {
		section.WithCodec(c.PayloadType, codecName(c), c.ClockRate, c.Channels, c.SDPFmtpLine)
		for _, fb := range c.RTCPFeedback {
			section.WithValueAttribute("rtcp-fb", fmt.Sprintf("%d %s %s", c.PayloadType, fb.Type, fb.Parameter))
		}
	}

	for _, em := range m.ExtMaps {
		section.WithExtMap(em)
	}

	if len(m.RIDs) > 0 {
		for _, rid := range m.RIDs {
			section.WithValueAttribute("rid", rid+" recv")
		}
		section.WithValueAttribute("simulcast", "recv "+strings.Join(m.RIDs, ";"))
	}

	if m.SSRCHasSSRC {
		section = section.WithMediaSource(m.SSRC, m.StreamID, m.StreamID, m.TrackID)
		section = section.WithPropertyAttribute("msid:" + m.StreamID + " " + m.TrackID)
	}

	return section.WithPropertyAttribute(m.Direction)
}

func codecName(c media.RTPCodecParameters) string {
	parts := strings.SplitN(c.MimeType, "/", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return c.MimeType
}

func addCandidates(section *psdp.MediaDescription, candidates []*ice.Candidate, done bool) {
	for _, c := range candidates {
		section.WithValueAttribute("candidate", c.Marshal())
	}
	if done {
		section.WithPropertyAttribute("end-of-candidates")
	}
}

func getMidValue(m *psdp.MediaDescription) string {
	if v, ok := m.Attribute(psdp.AttrKeyMID); ok {
		return v
	}
	return ""
}

// ExtractFingerprint implements spec §4.10's "registers remote
// fingerprints", adapted from the teacher's extractFingerprint: a single
// fingerprint must be declared, at session or media level, and agree
// everywhere it appears.
func ExtractFingerprint(desc *psdp.SessionDescription) (algorithm, value string, err error) {
	var fingerprints []string
	if fp, ok := desc.Attribute("fingerprint"); ok {
		fingerprints = append(fingerprints, fp)
	}
	for _, m := range desc.MediaDescriptions {
		if fp, ok := m.Attribute("fingerprint"); ok {
			fingerprints = append(fingerprints, fp)
		}
	}
	if len(fingerprints) < 1 {
		return "", "", ErrNoFingerprint
	}
	for _, fp := range fingerprints {
		if fp != fingerprints[0] {
			return "", "", ErrConflictingFingerprints
		}
	}
	parts := strings.Split(fingerprints[0], " ")
	if len(parts) != 2 {
		return "", "", ErrInvalidFingerprint
	}
	return parts[0], parts[1], nil
}

// ExtractICEDetails implements spec §4.10's ICE parameter/candidate
// extraction, using internal/ice.ParseCandidate in place of the teacher's
// pion/ice.UnmarshalCandidate.
func ExtractICEDetails(desc *psdp.SessionDescription) (ICEParameters, []*ice.Candidate, error) {
	var ufrags, pwds []string
	var candidates []*ice.Candidate

	if v, ok := desc.Attribute("ice-ufrag"); ok {
		ufrags = append(ufrags, v)
	}
	if v, ok := desc.Attribute("ice-pwd"); ok {
		pwds = append(pwds, v)
	}

	for _, m := range desc.MediaDescriptions {
		if v, ok := m.Attribute("ice-ufrag"); ok {
			ufrags = append(ufrags, v)
		}
		if v, ok := m.Attribute("ice-pwd"); ok {
			pwds = append(pwds, v)
		}
		for _, a := range m.Attributes {
			if a.Key != "candidate" {
				continue
			}
			c, err := ice.ParseCandidate(a.Value)
			if err != nil {
				return ICEParameters{}, nil, err
			}
			candidates = append(candidates, c)
		}
	}

	if len(ufrags) == 0 {
		return ICEParameters{}, nil, ErrMissingICEUfrag
	}
	if len(pwds) == 0 {
		return ICEParameters{}, nil, ErrMissingICEPwd
	}
	for _, u := range ufrags {
		if u != ufrags[0] {
			return ICEParameters{}, nil, ErrConflictingICEUfrag
		}
	}
	for _, pw := range pwds {
		if pw != pwds[0] {
			return ICEParameters{}, nil, ErrConflictingICEPwd
		}
	}

	return ICEParameters{UsernameFragment: ufrags[0], Password: pwds[0]}, candidates, nil
}

// TrackDetails is one remotely signaled media source (spec §3 "Track"),
// keyed by SSRC or, for simulcast, by a set of RIDs.
type TrackDetails struct {
	MID      string
	Kind     media.RTPCodecType
	StreamID string
	TrackID  string
	SSRC     uint32
	RIDs     []string
}

// TrackDetailsFromSDP walks every m-section of a remote description and
// returns the tracks it declares, adapted from the teacher's
// trackDetailsFromSDP (RTX repair-flow SSRCs are filtered via
// a=ssrc-group:FID, matching RFC 5576).
func TrackDetailsFromSDP(desc *psdp.SessionDescription) []TrackDetails {
	var tracks []TrackDetails
	rtxSSRCs := map[uint32]bool{}

	for _, m := range desc.MediaDescriptions {
		if _, ok := m.Attribute(psdp.AttrKeyRecvOnly); ok {
			continue
		}
		if _, ok := m.Attribute(psdp.AttrKeyInactive); ok {
			continue
		}

		mid := getMidValue(m)
		if mid == "" {
			continue
		}
		kind := kindFromMediaName(m.MediaName.Media)
		if kind == 0 {
			continue
		}

		streamID, trackID := "", ""
		for _, attr := range m.Attributes {
			switch attr.Key {
			case "ssrc-group":
				fields := strings.Split(attr.Value, " ")
				if len(fields) == 3 && fields[0] == "FID" {
					if n, err := strconv.ParseUint(fields[2], 10, 32); err == nil {
						rtxSSRCs[uint32(n)] = true
					}
				}
			case "msid":
				fields := strings.Split(attr.Value, " ")
				if len(fields) == 2 {
					streamID, trackID = fields[0], fields[1]
				}
			case "ssrc":
				fields := strings.Split(attr.Value, " ")
				ssrc, err := strconv.ParseUint(fields[0], 10, 32)
				if err != nil {
					continue
				}
				if rtxSSRCs[uint32(ssrc)] {
					continue
				}
				if len(fields) == 3 && strings.HasPrefix(fields[1], "msid:") {
					streamID, trackID = fields[1][len("msid:"):], fields[2]
				}
				tracks = upsertTrack(tracks, TrackDetails{
					MID: mid, Kind: kind, StreamID: streamID, TrackID: trackID, SSRC: uint32(ssrc),
				})
			}
		}

		if rids := ridsOf(m); len(rids) > 0 && trackID != "" {
			tracks = append(tracks, TrackDetails{MID: mid, Kind: kind, StreamID: streamID, TrackID: trackID, RIDs: rids})
		}
	}
	return tracks
}

func upsertTrack(tracks []TrackDetails, t TrackDetails) []TrackDetails {
	for i := range tracks {
		if tracks[i].SSRC == t.SSRC {
			tracks[i] = t
			return tracks
		}
	}
	return append(tracks, t)
}

func ridsOf(m *psdp.MediaDescription) []string {
	var rids []string
	for _, a := range m.Attributes {
		if a.Key == "rid" {
			rids = append(rids, strings.SplitN(a.Value, " ", 2)[0])
		}
	}
	return rids
}

func kindFromMediaName(name string) media.RTPCodecType {
	switch name {
	case "audio":
		return media.RTPCodecTypeAudio
	case "video":
		return media.RTPCodecTypeVideo
	default:
		return 0
	}
}

// HaveDataChannel reports whether desc declares an application m-section.
func HaveDataChannel(desc *psdp.SessionDescription) bool {
	for _, m := range desc.MediaDescriptions {
		if m.MediaName.Media == mediaSectionApplication {
			return true
		}
	}
	return false
}
