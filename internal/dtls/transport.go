package dtls

import (
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"

	pdtls "github.com/pion/dtls/v3"
	"github.com/pion/logging"

	"github.com/webrtc-rs/rtc/internal/pipeline"
)

// ErrNoMatchingCertificateFingerprint is returned (and surfaces the
// transport to Failed) when none of the remote SDP fingerprints match the
// peer's leaf certificate (spec §4.4).
var ErrNoMatchingCertificateFingerprint = fmt.Errorf("dtls: no matching certificate fingerprint")

// RemoteFingerprint is one `a=fingerprint` line (algorithm, lowercase
// colon-hex value) learned from the remote SDP.
type RemoteFingerprint struct {
	Algorithm string
	Value     string
}

// Config configures one Transport (spec §4.4 plus §6's
// srtp_protection_profiles / disable_certificate_fingerprint_verification
// settings).
type Config struct {
	Role                   Role
	Certificate            tls.Certificate
	RemoteFingerprints     []RemoteFingerprint
	SkipFingerprintVerify  bool
	SRTPProtectionProfiles []pdtls.SRTPProtectionProfile
}

// Transport is the sans-I/O facing DTLS endpoint (spec C3). It implements
// pipeline.Handler for the DTLS-classified lane.
type Transport struct {
	pipeline.NoOp

	log logging.LeveledLogger

	cfg   Config
	state TransportState

	br *bridge

	mu      sync.Mutex
	conn    *pdtls.Conn
	started bool

	readOut  []pipeline.Message
	writeOut []pipeline.Message
	events   []pipeline.Event
}

// NewTransport builds a Transport; the handshake does not begin until
// Start is called (once the ICE selected pair and peer address are known).
func NewTransport(cfg Config, loggerFactory logging.LoggerFactory) *Transport {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	if len(cfg.SRTPProtectionProfiles) == 0 {
		cfg.SRTPProtectionProfiles = []pdtls.SRTPProtectionProfile{
			pdtls.SRTP_AEAD_AES_128_GCM,
			pdtls.SRTP_AES128_CM_HMAC_SHA1_80,
		}
	}
	return &Transport{
		log:   loggerFactory.NewLogger("dtls"),
		cfg:   cfg,
		state: TransportStateNew,
		br:    newBridge(),
	}
}

// Start kicks off the handshake in the role given at construction. Safe to
// call exactly once.
func (t *Transport) Start() {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	t.setState(TransportStateConnecting)

	pconf := &pdtls.Config{
		Certificates:           []tls.Certificate{t.cfg.Certificate},
		SRTPProtectionProfiles: t.cfg.SRTPProtectionProfiles,
		InsecureSkipVerify:     true, // fingerprint check replaces CA validation, per spec §4.4
		ClientAuth:             pdtls.RequireAnyClientCert,
	}

	go func() {
		var conn *pdtls.Conn
		var err error
		if t.cfg.Role == RoleClient {
			conn, err = pdtls.Client(t.br.libConn, pconf)
		} else {
			conn, err = pdtls.Server(t.br.libConn, pconf)
		}
		if err != nil {
			t.log.Warnf("dtls: handshake failed: %v", err)
			t.setState(TransportStateFailed)
			return
		}
		if err := t.onHandshakeComplete(conn); err != nil {
			t.log.Warnf("dtls: %v", err)
			t.setState(TransportStateFailed)
			return
		}
		t.runAppReader(conn)
	}()
}

func (t *Transport) onHandshakeComplete(conn *pdtls.Conn) error {
	if !t.cfg.SkipFingerprintVerify {
		state := conn.ConnectionState()
		if err := t.validateFingerprint(state.PeerCertificates); err != nil {
			return err
		}
	}

	const exportLabel = "EXTRACTOR-dtls_srtp"
	material, err := conn.ExportKeyingMaterial(exportLabel, nil, 2*(srtpKeyLen+srtpSaltLen))
	if err != nil {
		return fmt.Errorf("dtls: exporting srtp keying material: %w", err)
	}
	local, remote, ok := splitExportedKeyingMaterial(material, t.cfg.Role == RoleClient)
	if !ok {
		return fmt.Errorf("dtls: short exported keying material")
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	profile := ""
	if p, ok := conn.SelectedSRTPProtectionProfile(); ok {
		profile = fmt.Sprintf("%d", p)
	}

	t.setState(TransportStateConnected)
	t.emitEvent(HandshakeCompleteEvent{LocalSRTP: local, RemoteSRTP: remote, Profile: profile})
	return nil
}

// validateFingerprint implements spec §4.4's fingerprint check: SHA-256
// over the peer leaf certificate DER, lowercase-colon hex, compared
// against every remote fingerprint advertised in SDP.
func (t *Transport) validateFingerprint(peerCerts [][]byte) error {
	if len(peerCerts) == 0 {
		return fmt.Errorf("dtls: peer presented no certificate")
	}
	leaf := peerCerts[0]
	sum := sha256.Sum256(leaf)
	hexParts := make([]string, len(sum))
	for i, b := range sum {
		hexParts[i] = fmt.Sprintf("%02x", b)
	}
	computed := strings.Join(hexParts, ":")

	for _, fp := range t.cfg.RemoteFingerprints {
		if !strings.EqualFold(fp.Algorithm, "sha-256") {
			continue
		}
		if strings.EqualFold(fp.Value, computed) {
			return nil
		}
	}
	return ErrNoMatchingCertificateFingerprint
}

func (t *Transport) runAppReader(conn *pdtls.Conn) {
	buf := make([]byte, 65536)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		t.mu.Lock()
		t.readOut = append(t.readOut, pipeline.Datagram{Data: out})
		t.mu.Unlock()
	}
}

func (t *Transport) setState(s TransportState) {
	t.mu.Lock()
	if t.state == s {
		t.mu.Unlock()
		return
	}
	t.state = s
	t.mu.Unlock()
	t.emitEvent(TransportStateChangedEvent{State: s})
}

func (t *Transport) emitEvent(e pipeline.Event) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

// HandleRead feeds one inbound DTLS record (already routed by the Demuxer
// as RouteDTLS) to the handshake/record layer.
func (t *Transport) HandleRead(msg pipeline.Message) {
	dg, ok := msg.(pipeline.Datagram)
	if !ok {
		return
	}
	t.br.feed(dg.Data)
}

// HandleWrite encrypts and sends application data (SCTP bytes) over the
// established DTLS session. Before the handshake completes, writes are
// dropped (spec §4.4: application data flows only after HandshakeComplete).
func (t *Transport) HandleWrite(msg pipeline.Message) error {
	dg, ok := msg.(pipeline.Datagram)
	if !ok {
		return nil
	}
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	_, err := conn.Write(dg.Data)
	return err
}

// PollRead returns the next decrypted application datagram (spec-level
// SCTP bytes), if any.
func (t *Transport) PollRead() (pipeline.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.readOut) == 0 {
		return nil, false
	}
	msg := t.readOut[0]
	t.readOut = t.readOut[1:]
	return msg, true
}

// PollWrite drains raw handshake/record-layer bytes the library produced
// that must be sent on the wire.
func (t *Transport) PollWrite() (pipeline.Message, bool) {
	data, ok := t.br.drain()
	if !ok {
		return nil, false
	}
	return pipeline.Datagram{Data: data}, true
}

func (t *Transport) PollEvent() (pipeline.Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.events) == 0 {
		return nil, false
	}
	e := t.events[0]
	t.events = t.events[1:]
	return e, true
}

// HandleTimeout is a no-op: retransmission timing inside the handshake is
// owned by pion/dtls on its own goroutine, per this package's doc comment.
func (t *Transport) HandleTimeout(time.Time) {}

func (t *Transport) PollTimeout() (time.Time, bool) { return time.Time{}, false }

func (t *Transport) State() TransportState { return t.state }

// Close tears down the bridge and its pump goroutines.
func (t *Transport) Close() {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	t.br.close()
	t.setState(TransportStateClosed)
}
