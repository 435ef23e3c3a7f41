package media

import "github.com/pion/rtp"

// jitterBuffer reorders a small window of inbound RTP packets by sequence
// number before handing them to the application, tracking how many
// packets arrived late enough to be dropped instead of reordered. This is
// accounting only (spec C7 "jitter buffer accounting"); the interceptor
// chain's RRGenerator computes the RFC 3550 jitter estimate used in RTCP.
type jitterBuffer struct {
	capacity int
	pending  map[uint16]*rtp.Packet
	nextSeq  uint16
	started  bool

	delivered uint64
	dropped   uint64
}

func newJitterBuffer(capacity int) *jitterBuffer {
	if capacity <= 0 {
		capacity = 32
	}
	return &jitterBuffer{capacity: capacity, pending: make(map[uint16]*rtp.Packet)}
}

// push admits a newly-arrived packet and returns any packets now ready for
// delivery in sequence order.
func (j *jitterBuffer) push(pkt *rtp.Packet) []*rtp.Packet {
	seq := pkt.SequenceNumber
	if !j.started {
		j.started = true
		j.nextSeq = seq
	}

	if seqLess(seq, j.nextSeq) {
		// Arrived after its slot was already delivered or dropped.
		j.dropped++
		return nil
	}

	j.pending[seq] = pkt
	if len(j.pending) > j.capacity {
		// Buffer pressure: force the oldest pending packet out even if
		// there is a gap in front of it, so memory stays bounded.
		j.nextSeq = j.oldestPendingAtLeast(j.nextSeq)
	}

	var ready []*rtp.Packet
	for {
		p, ok := j.pending[j.nextSeq]
		if !ok {
			break
		}
		ready = append(ready, p)
		delete(j.pending, j.nextSeq)
		j.nextSeq++
		j.delivered++
	}
	return ready
}

func (j *jitterBuffer) oldestPendingAtLeast(from uint16) uint16 {
	best := from
	bestSet := false
	for seq := range j.pending {
		if !bestSet || seqLess(seq, best) {
			best = seq
			bestSet = true
		}
	}
	return best
}

func seqLess(a, b uint16) bool {
	return int16(a-b) < 0
}
