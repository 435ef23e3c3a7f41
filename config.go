package rtc

import (
	"crypto/tls"
	"time"

	pdtls "github.com/pion/dtls/v3"
	"github.com/pion/logging"

	"github.com/webrtc-rs/rtc/internal/dtls"
)

// ICEServer describes a STUN/TURN server made available to the ICE agent
// (spec §6 configuration key "ice_servers").
type ICEServer struct {
	URLs       []string
	Username   string
	Credential string
}

// ICETransportPolicy narrows which candidates the agent is allowed to use.
type ICETransportPolicy int

const (
	ICETransportPolicyAll ICETransportPolicy = iota
	ICETransportPolicyRelay
)

// BundlePolicy controls how media is grouped into BUNDLE groups when
// building an offer.
type BundlePolicy int

const (
	BundlePolicyBalanced BundlePolicy = iota
	BundlePolicyMaxCompat
	BundlePolicyMaxBundle
)

// RTCPMuxPolicy controls whether RTP and RTCP share one candidate.
type RTCPMuxPolicy int

const (
	RTCPMuxPolicyRequire RTCPMuxPolicy = iota
	RTCPMuxPolicyNegotiate
)

// Configuration is the caller-facing, renegotiable surface a PeerConnection
// is constructed or reconfigured with (spec §6, W3C RTCConfiguration).
// SettingEngine below carries everything that is not part of that public
// surface: the split mirrors the teacher's configuration.go/settingengine.go
// separation (public spec-shaped config vs. pion-specific tuning knobs).
type Configuration struct {
	ICEServers           []ICEServer
	ICETransportPolicy   ICETransportPolicy
	BundlePolicy         BundlePolicy
	RTCPMuxPolicy        RTCPMuxPolicy
	Certificates         []Certificate
	ICECandidatePoolSize uint8
}

// MulticastDNSMode mirrors spec §6's multicast_dns_mode key. Candidate
// gathering never synthesizes mDNS names in this engine (spec §9 open
// question: "a re-implementation should treat these as pluggable behind
// the same candidate interface, not as mandatory") — the mode is recorded
// so a caller-supplied candidate source can honor it, but ModeOff is the
// only behavior this package implements itself.
type MulticastDNSMode int

const (
	MulticastDNSModeOff MulticastDNSMode = iota
	MulticastDNSModeQueryAndGather
)

// SettingEngine carries the non-renegotiable, implementation-level knobs
// spec §6 lists alongside Configuration: DTLS role override, SRTP profile
// order, replay window sizes, and the test-only fingerprint bypass. It is
// set once at PeerConnection construction, the way the teacher's
// SettingEngine is threaded through NewPeerConnection via API options.
type SettingEngine struct {
	DTLSRoleOverride      dtls.Role // zero value means "auto" (spec: client|server|auto)
	SRTPProtectionProfiles []pdtls.SRTPProtectionProfile

	ReplaySRTPWindow  uint16
	ReplaySRTCPWindow uint16
	ReplayDTLSWindow  uint16

	DisableCertificateFingerprintVerification bool
	AllowInsecureVerificationAlgorithm        bool

	HostAcceptanceMinWait time.Duration

	MulticastDNSMode         MulticastDNSMode
	MulticastDNSLocalName    string
	MulticastDNSTimeout      time.Duration
	MulticastDNSLocalIP      string

	LoggerFactory logging.LoggerFactory
}

func (s SettingEngine) loggerFactory() logging.LoggerFactory {
	if s.LoggerFactory != nil {
		return s.LoggerFactory
	}
	return logging.NewDefaultLoggerFactory()
}

func (s SettingEngine) certificateConfig(cert tls.Certificate, remoteFingerprints []dtls.RemoteFingerprint) dtls.Config {
	return dtls.Config{
		Certificate:            cert,
		RemoteFingerprints:     remoteFingerprints,
		SkipFingerprintVerify:  s.DisableCertificateFingerprintVerification,
		SRTPProtectionProfiles: s.SRTPProtectionProfiles,
	}
}
