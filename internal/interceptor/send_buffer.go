package interceptor

import (
	"fmt"

	"github.com/pion/rtp"
)

const uint16SizeHalf = 1 << 15

var allowedSendBufferSizes = make(map[uint16]bool) //nolint:gochecknoglobals

const invalidSendBufferSizeErrorString = "invalid send buffer size %d, must be a power of 2 in [1, 32768]"

func init() { //nolint:gochecknoinits
	for i := 1; i <= 32768; i *= 2 {
		allowedSendBufferSizes[uint16(i)] = true //nolint:gosec
	}
}

// SendBuffer ring-buffers recently sent outbound RTP packets so the NACK
// responder can retransmit on demand, grounded on the teacher's
// pkg/interceptor/send_buffer.go.
type SendBuffer struct {
	packets   []*rtp.Packet
	size      uint16
	lastAdded uint16
	started   bool
}

// NewSendBuffer creates a new send buffer, size must be a power of 2 in
// [1, 32768].
func NewSendBuffer(size uint16) (*SendBuffer, error) {
	if !allowedSendBufferSizes[size] {
		return nil, fmt.Errorf(invalidSendBufferSizeErrorString, size) //nolint:goerr113
	}
	return &SendBuffer{packets: make([]*rtp.Packet, size), size: size}, nil
}

// Add stores pkt, evicting whatever previously held the slot it lands on.
func (s *SendBuffer) Add(pkt *rtp.Packet) {
	seq := pkt.SequenceNumber
	if !s.started {
		s.packets[seq%s.size] = pkt
		s.lastAdded = seq
		s.started = true
		return
	}

	diff := seq - s.lastAdded
	if diff == 0 {
		return
	}
	if diff < uint16SizeHalf {
		for i := s.lastAdded + 1; i != seq; i++ {
			s.packets[i%s.size] = nil
		}
	}
	s.packets[seq%s.size] = pkt
	if diff < uint16SizeHalf {
		s.lastAdded = seq
	}
}

// Get looks up a previously-sent packet by sequence number; nil if it is
// not (or no longer) buffered.
func (s *SendBuffer) Get(seq uint16) *rtp.Packet {
	pkt := s.packets[seq%s.size]
	if pkt == nil || pkt.SequenceNumber != seq {
		return nil
	}
	return pkt
}
