package rtc

import (
	"github.com/webrtc-rs/rtc/internal/dtls"
	"github.com/webrtc-rs/rtc/internal/ice"
)

// ConnectionState is the aggregate RTCPeerConnectionState (spec §4.9).
type ConnectionState int

const (
	ConnectionStateNew ConnectionState = iota
	ConnectionStateConnecting
	ConnectionStateConnected
	ConnectionStateDisconnected
	ConnectionStateFailed
	ConnectionStateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionStateNew:
		return "new"
	case ConnectionStateConnecting:
		return "connecting"
	case ConnectionStateConnected:
		return "connected"
	case ConnectionStateDisconnected:
		return "disconnected"
	case ConnectionStateFailed:
		return "failed"
	case ConnectionStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// reduceConnectionState implements the spec §4.9 table exactly, evaluated
// top-to-bottom with the first matching row winning.
func reduceConnectionState(iceState ice.ConnectionState, dtlsState dtls.TransportState) ConnectionState {
	switch {
	case iceState == ice.ConnectionStateFailed:
		return ConnectionStateFailed
	case dtlsState == dtls.TransportStateFailed:
		return ConnectionStateFailed
	case (iceState == ice.ConnectionStateConnected || iceState == ice.ConnectionStateCompleted) &&
		dtlsState == dtls.TransportStateConnected:
		return ConnectionStateConnected
	case iceState == ice.ConnectionStateDisconnected:
		return ConnectionStateDisconnected
	case iceState == ice.ConnectionStateClosed && dtlsState == dtls.TransportStateClosed:
		return ConnectionStateClosed
	case iceState == ice.ConnectionStateChecking &&
		(dtlsState == dtls.TransportStateNew || dtlsState == dtls.TransportStateConnecting):
		return ConnectionStateConnecting
	default:
		return ConnectionStateNew
	}
}
