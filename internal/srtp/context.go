// Package srtp implements per-direction SRTP/SRTCP protection (spec C4,
// RFC 3711 + RFC 7714 AEAD_AES_128_GCM) over the key material DTLS-SRTP
// exports. Key derivation and the AEAD transform are grounded on RFC 7714
// directly since neither the teacher (which wraps github.com/pion/srtp's
// own session type end-to-end) nor the retrieved pack ships a reusable
// sans-I/O seam for this layer.
package srtp

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"github.com/pion/transport/v4/replaydetector"

	"github.com/webrtc-rs/rtc/internal/dtls"
)

// Default replay window sizes (spec §4.5).
const (
	DefaultSRTPReplayWindow  = 64
	DefaultSRTCPReplayWindow = 64
)

// label bytes per RFC 7714 §8.1 key derivation.
const (
	labelRTPEncryption  byte = 0x00
	labelRTPSalt        byte = 0x02
	labelRTCPEncryption byte = 0x03
	labelRTCPSalt       byte = 0x05
)

const (
	aeadKeyLen  = 16 // AEAD_AES_128_GCM
	aeadSaltLen = 12
	authTagLen  = 16
)

// derivedKeys holds the session keys derived once from the DTLS-exported
// master key/salt, per direction.
type derivedKeys struct {
	rtpAEAD  cipher.AEAD
	rtpSalt  []byte
	rtcpAEAD cipher.AEAD
	rtcpSalt []byte
}

// prfDeriveKey implements the RFC 7714 §8.1 AES-CM-based key derivation
// function: encrypt a zero block keyed by masterKey, with the counter
// block seeded from (label || index=0) XORed into masterSalt.
func prfDeriveKey(masterKey, masterSalt []byte, label byte, outLen int) ([]byte, error) {
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, 16)
	copy(iv, masterSalt)
	iv[7] ^= label

	out := make([]byte, outLen)
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out, out)
	return out, nil
}

func deriveKeysFrom(km dtls.SRTPKeyingMaterial) (*derivedKeys, error) {
	rtpKey, err := prfDeriveKey(km.MasterKey, km.MasterSalt, labelRTPEncryption, aeadKeyLen)
	if err != nil {
		return nil, fmt.Errorf("srtp: deriving rtp session key: %w", err)
	}
	rtpSalt, err := prfDeriveKey(km.MasterKey, km.MasterSalt, labelRTPSalt, aeadSaltLen)
	if err != nil {
		return nil, fmt.Errorf("srtp: deriving rtp session salt: %w", err)
	}
	rtcpKey, err := prfDeriveKey(km.MasterKey, km.MasterSalt, labelRTCPEncryption, aeadKeyLen)
	if err != nil {
		return nil, fmt.Errorf("srtp: deriving rtcp session key: %w", err)
	}
	rtcpSalt, err := prfDeriveKey(km.MasterKey, km.MasterSalt, labelRTCPSalt, aeadSaltLen)
	if err != nil {
		return nil, fmt.Errorf("srtp: deriving rtcp session salt: %w", err)
	}

	rtpBlock, err := aes.NewCipher(rtpKey)
	if err != nil {
		return nil, err
	}
	rtpAEAD, err := cipher.NewGCM(rtpBlock)
	if err != nil {
		return nil, err
	}
	rtcpBlock, err := aes.NewCipher(rtcpKey)
	if err != nil {
		return nil, err
	}
	rtcpAEAD, err := cipher.NewGCM(rtcpBlock)
	if err != nil {
		return nil, err
	}
	return &derivedKeys{rtpAEAD: rtpAEAD, rtpSalt: rtpSalt, rtcpAEAD: rtcpAEAD, rtcpSalt: rtcpSalt}, nil
}

// Context is one direction's SRTP/SRTCP state (spec §4.5: "two contexts
// per peer connection, local encrypt / remote decrypt").
type Context struct {
	keys *derivedKeys

	// roc is the RTP rollover counter, incremented each time the 16-bit
	// sequence number wraps (RFC 3711 §3.3.1).
	roc        uint32
	lastSeq    uint16
	haveLastSeq bool

	srtpReplay  replaydetector.ReplayDetector
	srtcpReplay replaydetector.ReplayDetector
}

// NewContext builds a Context from exported DTLS-SRTP keying material.
// srtpWindow/srtcpWindow of 0 use the spec §4.5 defaults.
func NewContext(km dtls.SRTPKeyingMaterial, srtpWindow, srtcpWindow uint16) (*Context, error) {
	keys, err := deriveKeysFrom(km)
	if err != nil {
		return nil, err
	}
	if srtpWindow == 0 {
		srtpWindow = DefaultSRTPReplayWindow
	}
	if srtcpWindow == 0 {
		srtcpWindow = DefaultSRTCPReplayWindow
	}
	return &Context{
		keys:        keys,
		srtpReplay:  replaydetector.New(uint64(srtpWindow), 1<<48-1),
		srtcpReplay: replaydetector.New(uint64(srtcpWindow), 1<<32-1),
	}, nil
}

// ErrCounterRollover is returned by ProtectRTP when the 32-bit rollover
// counter itself would wrap without a key rotation (spec §4.5 "Fails on
// counter rollover if keys aren't rotated").
var ErrCounterRollover = fmt.Errorf("srtp: rollover counter exhausted, rotate keys")

func (c *Context) updateROC(seq uint16) {
	if !c.haveLastSeq {
		c.lastSeq = seq
		c.haveLastSeq = true
		return
	}
	// Wraparound heuristic: a large negative jump means seq rolled over.
	if int(c.lastSeq)-int(seq) > 1<<15 {
		c.roc++
	} else if int(seq)-int(c.lastSeq) > 1<<15 {
		if c.roc == 0 {
			return // do not go negative on an out-of-order first packet
		}
		c.roc--
	}
	c.lastSeq = seq
}

func rtpNonce(salt []byte, ssrc uint32, roc uint32, seq uint16) []byte {
	nonce := make([]byte, aeadSaltLen)
	copy(nonce, salt)
	var idx [8]byte
	binary.BigEndian.PutUint32(idx[0:4], ssrc)
	binary.BigEndian.PutUint16(idx[6:8], seq)
	idx[4] = byte(roc >> 8)
	idx[5] = byte(roc)
	for i := 0; i < 8; i++ {
		nonce[2+i] ^= idx[i]
	}
	return nonce
}

// ProtectRTP encrypts and authenticates one plaintext RTP packet, whose
// first 12 bytes are the fixed header (used as AEAD associated data),
// returning the full SRTP packet with its auth tag appended.
func (c *Context) ProtectRTP(header []byte, payload []byte, ssrc uint32, seq uint16) ([]byte, error) {
	if len(header) < 12 {
		return nil, fmt.Errorf("srtp: short rtp header")
	}
	if c.roc == 1<<32-1 && seq == 0xFFFF {
		return nil, ErrCounterRollover
	}
	c.updateROC(seq)
	nonce := rtpNonce(c.keys.rtpSalt, ssrc, c.roc, seq)
	sealed := c.keys.rtpAEAD.Seal(nil, nonce, payload, header)
	out := make([]byte, 0, len(header)+len(sealed))
	out = append(out, header...)
	out = append(out, sealed...)
	return out, nil
}

// UnprotectRTP validates the replay window and auth tag, returning the
// inner plaintext RTP payload.
func (c *Context) UnprotectRTP(packet []byte, ssrc uint32, seq uint16, roc uint32) ([]byte, error) {
	if len(packet) < 12+authTagLen {
		return nil, fmt.Errorf("srtp: short srtp packet")
	}
	accept, ok := c.srtpReplay.Check(uint64(roc)<<16 | uint64(seq))
	if !ok {
		return nil, fmt.Errorf("srtp: replayed or too-old packet")
	}
	header := packet[:12]
	nonce := rtpNonce(c.keys.rtpSalt, ssrc, roc, seq)
	plain, err := c.keys.rtpAEAD.Open(nil, nonce, packet[12:], header)
	if err != nil {
		return nil, fmt.Errorf("srtp: auth tag mismatch: %w", err)
	}
	accept()
	return plain, nil
}

func rtcpNonce(salt []byte, ssrc uint32, index uint32) []byte {
	nonce := make([]byte, aeadSaltLen)
	copy(nonce, salt)
	var idx [8]byte
	binary.BigEndian.PutUint32(idx[0:4], ssrc)
	binary.BigEndian.PutUint32(idx[4:8], index&0x7fffffff)
	for i := 0; i < 8; i++ {
		nonce[2+i] ^= idx[i]
	}
	return nonce
}

// ProtectRTCP encrypts one RTCP compound packet, appending the SRTCP
// index (with the encrypted-flag bit set) after the auth tag per RFC
// 3711 §3.4.
func (c *Context) ProtectRTCP(header []byte, payload []byte, ssrc uint32, index uint32) ([]byte, error) {
	nonce := rtcpNonce(c.keys.rtcpSalt, ssrc, index)
	sealed := c.keys.rtcpAEAD.Seal(nil, nonce, payload, header)
	out := make([]byte, 0, len(header)+len(sealed)+4)
	out = append(out, header...)
	out = append(out, sealed...)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index|0x80000000)
	out = append(out, idx[:]...)
	return out, nil
}

// UnprotectRTCP validates and decrypts one SRTCP packet.
func (c *Context) UnprotectRTCP(packet []byte, ssrc uint32) ([]byte, error) {
	if len(packet) < 8+4+authTagLen {
		return nil, fmt.Errorf("srtp: short srtcp packet")
	}
	idxField := binary.BigEndian.Uint32(packet[len(packet)-4:])
	index := idxField &^ 0x80000000
	accept, ok := c.srtcpReplay.Check(uint64(index))
	if !ok {
		return nil, fmt.Errorf("srtcp: replayed or too-old packet")
	}
	header := packet[:8]
	body := packet[8 : len(packet)-4]
	nonce := rtcpNonce(c.keys.rtcpSalt, ssrc, index)
	plain, err := c.keys.rtcpAEAD.Open(nil, nonce, body, header)
	if err != nil {
		return nil, fmt.Errorf("srtcp: auth tag mismatch: %w", err)
	}
	accept()
	return plain, nil
}
