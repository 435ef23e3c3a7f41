package media

// Direction is the negotiated send/receive direction of a transceiver,
// mirroring the W3C RTCRtpTransceiverDirection enum the teacher's
// rtcrtptransceiverdirection.go implements.
type Direction int

const (
	DirectionSendRecv Direction = iota
	DirectionSendOnly
	DirectionRecvOnly
	DirectionInactive
)

func (d Direction) String() string {
	switch d {
	case DirectionSendRecv:
		return "sendrecv"
	case DirectionSendOnly:
		return "sendonly"
	case DirectionRecvOnly:
		return "recvonly"
	case DirectionInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// HasSend reports whether this direction includes sending.
func (d Direction) HasSend() bool { return d == DirectionSendRecv || d == DirectionSendOnly }

// HasRecv reports whether this direction includes receiving.
func (d Direction) HasRecv() bool { return d == DirectionSendRecv || d == DirectionRecvOnly }

// RTPTransceiver pairs one sender with one receiver over a single media
// m-section's codec set, the Go analogue of the teacher's
// rtcrtptranceiver.go. One transceiver corresponds to one SDP m-section.
type RTPTransceiver struct {
	Mid       string
	Kind      RTPCodecType
	Direction Direction
	Codecs    []RTPCodecParameters

	sender   *RTPSender
	receiver *RTPReceiver
	stopped  bool
}

// NewRTPTransceiver creates a transceiver for the given kind and codec set
// (the codecs this side is willing to negotiate, in preference order).
func NewRTPTransceiver(kind RTPCodecType, direction Direction, codecs []RTPCodecParameters) *RTPTransceiver {
	return &RTPTransceiver{Kind: kind, Direction: direction, Codecs: codecs}
}

// SetSender attaches an outbound sender. It does not call Bind and does
// not check Direction.
func (t *RTPTransceiver) SetSender(sender *RTPSender) { t.sender = sender }

// SetReceiver attaches an inbound receiver. Valid only for receive-capable
// directions.
func (t *RTPTransceiver) SetReceiver(receiver *RTPReceiver) { t.receiver = receiver }

// Sender returns the attached sender, or nil.
func (t *RTPTransceiver) Sender() *RTPSender { return t.sender }

// Receiver returns the attached receiver, or nil.
func (t *RTPTransceiver) Receiver() *RTPReceiver { return t.receiver }

// Stop marks the transceiver stopped and stops its sender, if any; the
// receiver is left as it is. Per RFC 8829, a stopped
// transceiver's m-section is marked with port 0 and zero codecs on the
// next offer/answer round; that rewrite happens in the sdp package, not
// here.
func (t *RTPTransceiver) Stop() error {
	if t.stopped {
		return nil
	}
	t.stopped = true
	if t.sender != nil {
		return t.sender.Stop()
	}
	return nil
}

// Stopped reports whether Stop has been called.
func (t *RTPTransceiver) Stopped() bool { return t.stopped }
