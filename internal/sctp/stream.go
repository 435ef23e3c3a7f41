package sctp

// stream is the association-side bookkeeping for one SCTP stream id: an
// outbound sequence-number counter and an inbound reassembly queue. It
// never blocks and owns no goroutine; delivery to the caller happens
// through Endpoint.PollRead/PollEvent.
type stream struct {
	id uint16

	nextOutboundSeq uint16
	reassembly      reassemblyQueue

	opened bool
}

func newStream(id uint16) *stream {
	return &stream{id: id}
}

// packetizeMessage splits payload into one or more DATA chunks each
// carrying at most mtu bytes of user data, tagging the first/last fragment flags per RFC 4960
// §6.9. TSNs are assigned by the caller (the association owns the TSN
// space across all streams), starting at firstTSN and incrementing by one
// per fragment.
func (s *stream) packetizeMessage(payload []byte, ppid PayloadProtocolIdentifier, unordered bool, mtu int, firstTSN uint32) []*chunkPayloadData {
	if mtu <= 0 {
		mtu = defaultMTU
	}
	seq := s.nextOutboundSeq
	if !unordered {
		s.nextOutboundSeq++
	}

	if len(payload) == 0 {
		return []*chunkPayloadData{{
			tsn:                  firstTSN,
			streamIdentifier:     s.id,
			streamSequenceNumber: seq,
			payloadType:          ppid,
			unordered:            unordered,
			beginingFragment:     true,
			endingFragment:       true,
		}}
	}

	var chunks []*chunkPayloadData
	tsn := firstTSN
	for off := 0; off < len(payload); off += mtu {
		end := off + mtu
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, &chunkPayloadData{
			tsn:                  tsn,
			streamIdentifier:     s.id,
			streamSequenceNumber: seq,
			payloadType:          ppid,
			userData:             payload[off:end],
			unordered:            unordered,
			beginingFragment:     off == 0,
			endingFragment:       end == len(payload),
		})
		tsn++
	}
	return chunks
}
