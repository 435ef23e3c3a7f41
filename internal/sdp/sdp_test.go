package sdp

import (
	"strings"
	"testing"

	"github.com/webrtc-rs/rtc/internal/dtls"
	"github.com/webrtc-rs/rtc/internal/ice"
	"github.com/webrtc-rs/rtc/internal/media"
)

func TestBuildAndExtractRoundTrip(t *testing.T) {
	host := ice.NewHostCandidate(ice.NetworkTypeUDP4, "10.0.0.1", 5000, ice.TCPTypeNone)

	p := BuildParams{
		ICEParams:      ICEParameters{UsernameFragment: "ufrag1234", Password: "password1234567890123456"},
		Fingerprints:   []dtls.RemoteFingerprint{{Algorithm: "sha-256", Value: "ab:cd:ef"}},
		ConnectionRole: "actpass",
		Candidates:     []*ice.Candidate{host},
		GatheringDone:  true,
		MediaSections: []MediaSection{
			{
				MID:  "0",
				Kind: media.RTPCodecTypeAudio,
				Codecs: []media.RTPCodecParameters{
					{RTPCodecCapability: media.RTPCodecCapability{MimeType: media.MimeTypeOpus, ClockRate: 48000, Channels: 2}, PayloadType: 111},
				},
				Direction: "sendrecv",
			},
			{MID: "1", Data: true},
		},
	}

	desc := Build(p)
	if len(desc.MediaDescriptions) != 2 {
		t.Fatalf("expected 2 media descriptions, got %d", len(desc.MediaDescriptions))
	}

	algo, value, err := ExtractFingerprint(desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if algo != "sha-256" || !strings.EqualFold(value, "ab:cd:ef") {
		t.Fatalf("unexpected fingerprint: %s %s", algo, value)
	}

	params, candidates, err := ExtractICEDetails(desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.UsernameFragment != "ufrag1234" || params.Password != "password1234567890123456" {
		t.Fatalf("unexpected ice params: %+v", params)
	}
	if len(candidates) != 1 || candidates[0].Address() != "10.0.0.1" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}

	if !HaveDataChannel(desc) {
		t.Fatal("expected application m-section to be detected")
	}
}

func TestNextSignalingState(t *testing.T) {
	cases := []struct {
		cur  SignalingState
		op   Op
		typ  Type
		next SignalingState
		ok   bool
	}{
		{SignalingStateStable, OpSetLocal, TypeOffer, SignalingStateHaveLocalOffer, true},
		{SignalingStateStable, OpSetRemote, TypeOffer, SignalingStateHaveRemoteOffer, true},
		{SignalingStateHaveLocalOffer, OpSetRemote, TypeAnswer, SignalingStateStable, true},
		{SignalingStateHaveRemoteOffer, OpSetLocal, TypeAnswer, SignalingStateStable, true},
		{SignalingStateStable, OpSetLocal, TypeAnswer, SignalingStateStable, false},
		{SignalingStateStable, OpSetLocal, TypeRollback, SignalingStateStable, false},
	}
	for _, c := range cases {
		next, err := NextSignalingState(c.cur, c.op, c.typ)
		if c.ok && err != nil {
			t.Errorf("%s %s(%s): unexpected error %v", c.cur, c.op, c.typ, err)
		}
		if c.ok && next != c.next {
			t.Errorf("%s %s(%s): expected %s, got %s", c.cur, c.op, c.typ, c.next, next)
		}
		if !c.ok && err == nil {
			t.Errorf("%s %s(%s): expected error", c.cur, c.op, c.typ)
		}
	}
}

func TestTrackDetailsFromSDP(t *testing.T) {
	p := BuildParams{
		ICEParams:      ICEParameters{UsernameFragment: "ufrag1234", Password: "password1234567890123456"},
		ConnectionRole: "actpass",
		MediaSections: []MediaSection{
			{
				MID:         "0",
				Kind:        media.RTPCodecTypeVideo,
				SSRC:        1234,
				SSRCHasSSRC: true,
				StreamID:    "stream1",
				TrackID:     "track1",
				Direction:   "sendrecv",
				Codecs: []media.RTPCodecParameters{
					{RTPCodecCapability: media.RTPCodecCapability{MimeType: media.MimeTypeVP8, ClockRate: 90000}, PayloadType: 96},
				},
			},
		},
	}
	desc := Build(p)
	tracks := TrackDetailsFromSDP(desc)
	if len(tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(tracks))
	}
	if tracks[0].SSRC != 1234 || tracks[0].TrackID != "track1" {
		t.Fatalf("unexpected track: %+v", tracks[0])
	}
}
