package sctp

import "encoding/binary"

const sackFixedLength = 12 // cumulativeTSN(4) + aRwnd(4) + numGapBlocks(2) + numDupTSN(2)

// chunkSack is a SACK chunk (RFC 4960 §3.3.4). Duplicate TSNs are encoded
// but this implementation never emits non-renegable SACKs (no forward-tsn
// negotiation), matching the INIT chunk's scope decision.
type chunkSack struct {
	header chunkHeader

	cumulativeTSN uint32
	aRwnd         uint32
	gapAckBlocks  []GapAckBlock
	duplicateTSN  []uint32
}

func (c *chunkSack) chunkType() ChunkType { return ctSack }

func (c *chunkSack) unmarshal(raw []byte) error {
	if err := c.header.unmarshal(raw); err != nil {
		return err
	}
	if c.header.typ != ctSack {
		return errChunkTypeMismatch
	}
	v := c.header.raw
	if len(v) < sackFixedLength {
		return errChunkValueNotLong
	}
	c.cumulativeTSN = binary.BigEndian.Uint32(v[0:4])
	c.aRwnd = binary.BigEndian.Uint32(v[4:8])
	numGap := int(binary.BigEndian.Uint16(v[8:10]))
	numDup := int(binary.BigEndian.Uint16(v[10:12]))

	off := sackFixedLength
	for i := 0; i < numGap; i++ {
		if off+4 > len(v) {
			return errChunkValueNotLong
		}
		c.gapAckBlocks = append(c.gapAckBlocks, GapAckBlock{
			start: binary.BigEndian.Uint16(v[off : off+2]),
			end:   binary.BigEndian.Uint16(v[off+2 : off+4]),
		})
		off += 4
	}
	for i := 0; i < numDup; i++ {
		if off+4 > len(v) {
			return errChunkValueNotLong
		}
		c.duplicateTSN = append(c.duplicateTSN, binary.BigEndian.Uint32(v[off:off+4]))
		off += 4
	}
	return nil
}

func (c *chunkSack) marshal() ([]byte, error) {
	c.header.typ = ctSack
	value := make([]byte, sackFixedLength+4*len(c.gapAckBlocks)+4*len(c.duplicateTSN))
	binary.BigEndian.PutUint32(value[0:4], c.cumulativeTSN)
	binary.BigEndian.PutUint32(value[4:8], c.aRwnd)
	binary.BigEndian.PutUint16(value[8:10], uint16(len(c.gapAckBlocks)))
	binary.BigEndian.PutUint16(value[10:12], uint16(len(c.duplicateTSN)))

	off := sackFixedLength
	for _, g := range c.gapAckBlocks {
		binary.BigEndian.PutUint16(value[off:off+2], g.start)
		binary.BigEndian.PutUint16(value[off+2:off+4], g.end)
		off += 4
	}
	for _, d := range c.duplicateTSN {
		binary.BigEndian.PutUint32(value[off:off+4], d)
		off += 4
	}
	return c.header.marshal(0, value), nil
}
