package srtp

import (
	"bytes"
	"testing"

	"github.com/webrtc-rs/rtc/internal/dtls"
)

func testKeyingMaterial() dtls.SRTPKeyingMaterial {
	key := make([]byte, 16)
	salt := make([]byte, 14)
	for i := range key {
		key[i] = byte(i + 1)
	}
	for i := range salt {
		salt[i] = byte(i + 100)
	}
	return dtls.SRTPKeyingMaterial{MasterKey: key, MasterSalt: salt}
}

func TestProtectUnprotectRTPRoundTrip(t *testing.T) {
	enc, err := NewContext(testKeyingMaterial(), 0, 0)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	dec, err := NewContext(testKeyingMaterial(), 0, 0)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	header := make([]byte, 12)
	header[0] = 0x80
	payload := []byte("hello rtp")
	const ssrc = 12345
	const seq = 42

	packet, err := enc.ProtectRTP(header, payload, ssrc, seq)
	if err != nil {
		t.Fatalf("ProtectRTP: %v", err)
	}

	plain, err := dec.UnprotectRTP(packet, ssrc, seq, 0)
	if err != nil {
		t.Fatalf("UnprotectRTP: %v", err)
	}
	if !bytes.Equal(plain, payload) {
		t.Fatalf("roundtrip mismatch: got %q want %q", plain, payload)
	}
}

func TestUnprotectRTPRejectsReplay(t *testing.T) {
	enc, _ := NewContext(testKeyingMaterial(), 0, 0)
	dec, _ := NewContext(testKeyingMaterial(), 0, 0)

	header := make([]byte, 12)
	header[0] = 0x80
	packet, _ := enc.ProtectRTP(header, []byte("x"), 1, 1)

	if _, err := dec.UnprotectRTP(packet, 1, 1, 0); err != nil {
		t.Fatalf("first unprotect should succeed: %v", err)
	}
	if _, err := dec.UnprotectRTP(packet, 1, 1, 0); err == nil {
		t.Fatal("expected replay rejection on second delivery")
	}
}
