package sctp

import "encoding/binary"

const (
	dataChunkFlagEnd         byte = 1 << 0
	dataChunkFlagBegin       byte = 1 << 1
	dataChunkFlagUnordered   byte = 1 << 2
	dataChunkFlagImmediate   byte = 1 << 3
	dataChunkHeaderFixedSize      = 12 // tsn(4) + streamID(2) + streamSeq(2) + ppid(4)
)

// chunkPayloadData is one DATA chunk (RFC 4960 §3.3.1), or one fragment of
// a stream message reassembled by reassemblyQueue.
type chunkPayloadData struct {
	header chunkHeader

	tsn                  uint32
	streamIdentifier     uint16
	streamSequenceNumber uint16
	payloadType          PayloadProtocolIdentifier
	userData             []byte

	unordered        bool
	beginingFragment bool
	endingFragment   bool
	immediateSack    bool
}

func (c *chunkPayloadData) chunkType() ChunkType { return ctPayloadData }

func (c *chunkPayloadData) unmarshal(raw []byte) error {
	if err := c.header.unmarshal(raw); err != nil {
		return err
	}
	if c.header.typ != ctPayloadData {
		return errChunkTypeMismatch
	}
	v := c.header.raw
	if len(v) < dataChunkHeaderFixedSize {
		return errChunkValueNotLong
	}
	c.endingFragment = c.header.flags&dataChunkFlagEnd != 0
	c.beginingFragment = c.header.flags&dataChunkFlagBegin != 0
	c.unordered = c.header.flags&dataChunkFlagUnordered != 0
	c.immediateSack = c.header.flags&dataChunkFlagImmediate != 0

	c.tsn = binary.BigEndian.Uint32(v[0:4])
	c.streamIdentifier = binary.BigEndian.Uint16(v[4:6])
	c.streamSequenceNumber = binary.BigEndian.Uint16(v[6:8])
	c.payloadType = PayloadProtocolIdentifier(binary.BigEndian.Uint32(v[8:12]))
	c.userData = append([]byte{}, v[dataChunkHeaderFixedSize:]...)
	return nil
}

func (c *chunkPayloadData) marshal() ([]byte, error) {
	c.header.typ = ctPayloadData
	var flags byte
	if c.endingFragment {
		flags |= dataChunkFlagEnd
	}
	if c.beginingFragment {
		flags |= dataChunkFlagBegin
	}
	if c.unordered {
		flags |= dataChunkFlagUnordered
	}
	if c.immediateSack {
		flags |= dataChunkFlagImmediate
	}

	value := make([]byte, dataChunkHeaderFixedSize+len(c.userData))
	binary.BigEndian.PutUint32(value[0:4], c.tsn)
	binary.BigEndian.PutUint16(value[4:6], c.streamIdentifier)
	binary.BigEndian.PutUint16(value[6:8], c.streamSequenceNumber)
	binary.BigEndian.PutUint32(value[8:12], uint32(c.payloadType))
	copy(value[dataChunkHeaderFixedSize:], c.userData)
	return c.header.marshal(flags, value), nil
}

// PayloadData is the association-level record of one received DATA chunk,
// kept by PayloadQueue purely to track cumulative TSN and gap-ack-blocks
// for SACK generation (RFC 4960 §6.2). Distinct from chunkPayloadData,
// which is the wire chunk itself and the unit reassemblyQueue fragments
// into stream messages.
type PayloadData struct {
	TSN uint32
}
