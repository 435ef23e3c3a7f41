package rtc

import (
	"github.com/webrtc-rs/rtc/internal/ice"
)

// The events a PeerConnection surfaces through PollEvent (spec §6 "Events
// surfaced to the application"). Unlike the internal per-component events
// they are derived from, these are the stable public vocabulary callers
// written against this module observe.

// IceConnectionState mirrors the W3C RTCIceConnectionState enum one-to-one
// with internal/ice.ConnectionState, re-exported so callers never import
// an internal package to read an event payload.
type IceConnectionState = ice.ConnectionState

// OnIceConnectionStateChangeEvent fires every time the underlying ICE
// agent's connection state changes.
type OnIceConnectionStateChangeEvent struct {
	State IceConnectionState
}

// OnConnectionStateChangeEvent fires every time the spec §4.9 aggregate
// reduction produces a new ConnectionState.
type OnConnectionStateChangeEvent struct {
	State ConnectionState
}

// OnIceCandidateEvent fires once per local candidate gathered, and once
// more with a nil Candidate when gathering completes (the "end of
// candidates" signal).
type OnIceCandidateEvent struct {
	Candidate *ice.Candidate
}

// OnDataChannelOpenEvent fires once a data channel reaches Open, whether
// locally created or remotely negotiated.
type OnDataChannelOpenEvent struct {
	ChannelID uint16
	Label     string
}

// OnDataChannelCloseEvent fires once a data channel reaches Closed.
type OnDataChannelCloseEvent struct {
	ChannelID uint16
}

// OnDataChannelMessageEvent fires for every fully reassembled inbound data
// channel message.
type OnDataChannelMessageEvent struct {
	ChannelID uint16
	Data      []byte
	IsString  bool
}

// OnBufferedAmountLowEvent and OnBufferedAmountHighEvent fire on each
// single-shot watermark crossing (spec §8 scenario 6).
type OnBufferedAmountLowEvent struct{ ChannelID uint16 }
type OnBufferedAmountHighEvent struct{ ChannelID uint16 }

// OnTrackOpenEvent fires when a receiver starts receiving a remote track,
// identified by the SDP track id and, for simulcast, its rid.
type OnTrackOpenEvent struct {
	ReceiverID string
	TrackID    string
	RID        string
}

// OnTrackCloseEvent fires when a remote track is no longer referenced by
// the current remote description.
type OnTrackCloseEvent struct {
	TrackID string
}
