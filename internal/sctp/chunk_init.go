package sctp

import "encoding/binary"

const initChunkFixedLength = 16 // initiateTag(4) + aRwnd(4) + outStreams(2) + inStreams(2) + initialTSN(4)

// chunkInit carries the fixed fields shared by INIT and INIT ACK (RFC 4960
// §3.3.2/§3.3.3). Supported-extensions and forward-tsn-supported
// parameters are not parsed. On INIT ACK every byte after the fixed fields
// is kept as the state cookie, without parameter TLV framing.
type chunkInit struct {
	header                         chunkHeader
	isAck                          bool
	initiateTag                    uint32
	advertisedReceiverWindowCredit uint32
	numOutboundStreams             uint16
	numInboundStreams              uint16
	initialTSN                     uint32
	cookie                         []byte // only meaningful on INIT ACK
}

func (c *chunkInit) chunkType() ChunkType {
	if c.isAck {
		return ctInitAck
	}
	return ctInit
}

func (c *chunkInit) unmarshal(raw []byte) error {
	if err := c.header.unmarshal(raw); err != nil {
		return err
	}
	c.isAck = c.header.typ == ctInitAck
	if c.header.typ != ctInit && c.header.typ != ctInitAck {
		return errChunkTypeMismatch
	}
	v := c.header.raw
	if len(v) < initChunkFixedLength {
		return errChunkValueNotLong
	}
	c.initiateTag = binary.BigEndian.Uint32(v[0:4])
	c.advertisedReceiverWindowCredit = binary.BigEndian.Uint32(v[4:8])
	c.numOutboundStreams = binary.BigEndian.Uint16(v[8:10])
	c.numInboundStreams = binary.BigEndian.Uint16(v[10:12])
	c.initialTSN = binary.BigEndian.Uint32(v[12:16])
	if c.isAck && len(v) > initChunkFixedLength {
		c.cookie = append([]byte{}, v[initChunkFixedLength:]...)
	}
	return nil
}

func (c *chunkInit) marshal() ([]byte, error) {
	c.header.typ = c.chunkType()
	value := make([]byte, initChunkFixedLength, initChunkFixedLength+len(c.cookie))
	binary.BigEndian.PutUint32(value[0:4], c.initiateTag)
	binary.BigEndian.PutUint32(value[4:8], c.advertisedReceiverWindowCredit)
	binary.BigEndian.PutUint16(value[8:10], c.numOutboundStreams)
	binary.BigEndian.PutUint16(value[10:12], c.numInboundStreams)
	binary.BigEndian.PutUint32(value[12:16], c.initialTSN)
	if c.isAck {
		value = append(value, c.cookie...)
	}
	return c.header.marshal(0, value), nil
}
