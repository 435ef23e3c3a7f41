package media

import "testing"

func TestMediaEngineCodecByPayloadType(t *testing.T) {
	m := NewMediaEngine()
	m.RegisterDefaultCodecs()

	for _, tc := range []struct {
		name        string
		payloadType uint8
		wantErr     bool
	}{
		{name: "opus", payloadType: 111},
		{name: "g722", payloadType: 9},
		{name: "vp8", payloadType: 96},
		{name: "h264", payloadType: 102},
		{name: "unregistered", payloadType: 255, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.CodecByPayloadType(tc.payloadType)
			if tc.wantErr && err == nil {
				t.Fatalf("expected an error for payload type %d", tc.payloadType)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMediaEngineCodecsByKind(t *testing.T) {
	m := NewMediaEngine()
	m.RegisterDefaultCodecs()

	audio := m.CodecsByKind(RTPCodecTypeAudio)
	if len(audio) != 2 {
		t.Fatalf("expected 2 audio codecs, got %d", len(audio))
	}
	video := m.CodecsByKind(RTPCodecTypeVideo)
	if len(video) != 3 {
		t.Fatalf("expected 3 video codecs, got %d", len(video))
	}
}

func TestMediaEngineMatchRemote(t *testing.T) {
	m := NewMediaEngine()
	m.RegisterDefaultCodecs()

	match, err := m.MatchRemote(RTPCodecCapability{MimeType: MimeTypeVP8, ClockRate: 90000})
	if err != nil {
		t.Fatalf("MatchRemote: %v", err)
	}
	if match.PayloadType != 96 {
		t.Errorf("expected payload type 96, got %d", match.PayloadType)
	}

	if _, err := m.MatchRemote(RTPCodecCapability{MimeType: "video/AV1", ClockRate: 90000}); err == nil {
		t.Error("expected ErrUnsupportedCodec for an unregistered codec")
	}
}

func TestCodecParametersFuzzySearchPrefersFmtpMatch(t *testing.T) {
	haystack := []RTPCodecParameters{
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeH264, ClockRate: 90000, SDPFmtpLine: "profile-level-id=42001f"}, PayloadType: 100},
		{RTPCodecCapability: RTPCodecCapability{MimeType: MimeTypeH264, ClockRate: 90000, SDPFmtpLine: "profile-level-id=42e01f"}, PayloadType: 102},
	}
	needle := RTPCodecCapability{MimeType: MimeTypeH264, ClockRate: 90000, SDPFmtpLine: "profile-level-id=42e01f"}

	match, kind := codecParametersFuzzySearch(needle, haystack)
	if kind != codecMatchExact {
		t.Fatalf("expected an exact match, got %v", kind)
	}
	if match.PayloadType != 102 {
		t.Errorf("expected payload type 102, got %d", match.PayloadType)
	}
}
