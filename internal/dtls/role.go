// Package dtls hosts the DTLS 1.2 endpoint (spec C3, RFC 6347 + RFC 5764
// DTLS-SRTP). The sans-I/O handshake state machine itself, and AES-GCM/
// HMAC record protection, are out of the core's scope per the spec's
// Non-goals ("the DTLS record machine ... consumed through stable
// interfaces"); this package wraps github.com/pion/dtls/v3 — the same
// major dependency the teacher uses — behind the pipeline.Handler
// contract, isolating the library's blocking net.Conn API inside a small
// bridge so the rest of the module stays goroutine-free.
package dtls

// Role is the DTLS handshake role (client initiates, server waits).
type Role int

const (
	RoleClient Role = iota + 1
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// DeriveRole implements spec §4.4 steps 1-4.
func DeriveRole(remoteSetup string, settingOverride Role, iceControlling bool) Role {
	switch remoteSetup {
	case "active":
		return RoleServer
	case "passive":
		return RoleClient
	}
	if settingOverride == RoleClient || settingOverride == RoleServer {
		return settingOverride
	}
	if iceControlling {
		return RoleServer
	}
	return RoleClient
}
