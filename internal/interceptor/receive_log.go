package interceptor

import "fmt"

var allowedReceiveLogSizes = make(map[uint16]bool) //nolint:gochecknoglobals

const invalidReceiveLogSizeErrorString = "invalid receive log size %d, must be a power of 2 in [64, 32768]"

func init() { //nolint:gochecknoinits
	for i := 64; i <= 32768; i *= 2 {
		allowedReceiveLogSizes[uint16(i)] = true //nolint:gosec
	}
}

// ReceiveLog tracks the highest 128 (or `size`) sequence numbers seen on an
// inbound stream, grounded on the teacher's pkg/interceptor/receive_log.go.
// It is a pure bitmap, no goroutine or clock of its own: the NACK generator
// drives Add on every received packet and asks MissingSeqNumbers from its
// own HandleTimeout.
type ReceiveLog struct {
	packets         []uint64
	size            uint16
	end             uint16
	started         bool
	lastConsecutive uint16
}

// NewReceiveLog creates a new receive log, size must be a power of 2 in
// [64, 32768].
func NewReceiveLog(size uint16) (*ReceiveLog, error) {
	if !allowedReceiveLogSizes[size] {
		return nil, fmt.Errorf(invalidReceiveLogSizeErrorString, size) //nolint:goerr113
	}
	return &ReceiveLog{packets: make([]uint64, size/64), size: size}, nil
}

// Add adds a sequence number to the receive log.
func (s *ReceiveLog) Add(seq uint16) {
	if !s.started {
		s.setReceived(seq)
		s.end = seq
		s.started = true
		s.lastConsecutive = seq
		return
	}

	diff := seq - s.end
	switch {
	case diff == 0:
		return
	case diff < uint16SizeHalf:
		for i := s.end + 1; i != seq; i++ {
			s.delReceived(i)
		}
		s.end = seq
		if s.lastConsecutive+1 == seq {
			s.lastConsecutive = seq
		} else if seq-s.lastConsecutive < s.size {
			s.fixLastConsecutive()
		} else {
			s.lastConsecutive = seq
		}
	default:
		if s.end-s.lastConsecutive >= s.size {
			s.lastConsecutive = seq
		} else if s.lastConsecutive+1 == seq {
			s.lastConsecutive = seq
			s.fixLastConsecutive()
		}
	}

	s.setReceived(seq)
}

// Get checks if a sequence number was received.
func (s *ReceiveLog) Get(seq uint16) bool {
	if !s.started {
		return false
	}
	diff := s.end - seq
	if diff >= uint16SizeHalf {
		return false
	}
	if diff >= s.size {
		return false
	}
	return s.getReceived(seq)
}

// MissingSeqNumbers returns the sequence numbers missing within the window,
// skipping the most recent skipLastN.
func (s *ReceiveLog) MissingSeqNumbers(skipLastN uint16) []uint16 {
	if !s.started {
		return nil
	}
	until := s.end - skipLastN
	if until-s.lastConsecutive >= uint16SizeHalf {
		until = s.lastConsecutive
	}

	missing := make([]uint16, 0)
	for i := s.lastConsecutive + 1; i != until+1; i++ {
		if !s.getReceived(i) {
			missing = append(missing, i)
		}
	}
	return missing
}

func (s *ReceiveLog) setReceived(seq uint16) {
	pos := seq % s.size
	s.packets[pos/64] |= 1 << (pos % 64)
}

func (s *ReceiveLog) delReceived(seq uint16) {
	pos := seq % s.size
	s.packets[pos/64] &^= 1 << (pos % 64)
}

func (s *ReceiveLog) getReceived(seq uint16) bool {
	pos := seq % s.size
	return (s.packets[pos/64] & (1 << (pos % 64))) != 0
}

func (s *ReceiveLog) fixLastConsecutive() {
	i := s.lastConsecutive + 1
	for ; i != s.end+1 && s.getReceived(i); i++ {
		s.lastConsecutive = i
	}
}
