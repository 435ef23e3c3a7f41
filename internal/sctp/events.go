package sctp

// AssociationState is the RFC 4960 §4 association state, narrowed to the
// states an endpoint that never accepts a listening cookie needs to model.
type AssociationState int

const (
	AssociationStateClosed AssociationState = iota
	AssociationStateCookieWait
	AssociationStateCookieEchoed
	AssociationStateEstablished
	AssociationStateShutdownPending
	AssociationStateShutdownSent
	AssociationStateShutdownReceived
	AssociationStateShutdownAckSent
)

func (s AssociationState) String() string {
	switch s {
	case AssociationStateClosed:
		return "Closed"
	case AssociationStateCookieWait:
		return "CookieWait"
	case AssociationStateCookieEchoed:
		return "CookieEchoed"
	case AssociationStateEstablished:
		return "Established"
	case AssociationStateShutdownPending:
		return "ShutdownPending"
	case AssociationStateShutdownSent:
		return "ShutdownSent"
	case AssociationStateShutdownReceived:
		return "ShutdownReceived"
	case AssociationStateShutdownAckSent:
		return "ShutdownAckSent"
	default:
		return "Unknown"
	}
}

// NewAssociationEvent fires once, the first time an Endpoint learns of an
// association (either Connect was called, or an INIT arrived).
type NewAssociationEvent struct{}

// AssociationStateChangedEvent fires on every association state
// transition, including the Established transition spec §4.6 calls out
// as "Connected".
type AssociationStateChangedEvent struct {
	State AssociationState
}

// StreamOpenedEvent fires the first time a stream id is used, whether
// opened locally or first observed from an inbound DATA chunk.
type StreamOpenedEvent struct {
	StreamID uint16
}

// StreamReadableEvent fires when a complete message becomes available on
// a stream via PollRead.
type StreamReadableEvent struct {
	StreamID uint16
}

// StreamClosedEvent reports a stream that has been reset or torn down.
// The Endpoint in this package does not emit it.
type StreamClosedEvent struct {
	StreamID uint16
}

// InboundMessage is one fully reassembled stream message, delivered
// through PollRead.
type InboundMessage struct {
	StreamID             uint16
	StreamSequenceNumber uint16
	PayloadType          PayloadProtocolIdentifier
	Unordered            bool
	Data                 []byte
}

// OutboundMessage is queued for transmission on a stream via HandleWrite.
type OutboundMessage struct {
	StreamID    uint16
	PayloadType PayloadProtocolIdentifier
	Unordered   bool
	Data        []byte
}
