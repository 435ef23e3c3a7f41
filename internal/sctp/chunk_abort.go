package sctp

import "encoding/binary"

// chunkAbort is an ABORT chunk (RFC 4960 §3.3.7). Error causes are dropped
// on receipt and never generated: the only information the association
// needs from an ABORT is that it arrived.
type chunkAbort struct {
	header chunkHeader
}

func (c *chunkAbort) chunkType() ChunkType { return ctAbort }

func (c *chunkAbort) unmarshal(raw []byte) error {
	if err := c.header.unmarshal(raw); err != nil {
		return err
	}
	if c.header.typ != ctAbort {
		return errChunkTypeMismatch
	}
	return nil
}

func (c *chunkAbort) marshal() ([]byte, error) {
	c.header.typ = ctAbort
	return c.header.marshal(0, nil), nil
}

// chunkShutdown is a SHUTDOWN chunk (RFC 4960 §3.3.8), carrying the
// cumulative TSN ack.
type chunkShutdown struct {
	header        chunkHeader
	cumulativeTSN uint32
}

func (c *chunkShutdown) chunkType() ChunkType { return ctShutdown }

func (c *chunkShutdown) unmarshal(raw []byte) error {
	if err := c.header.unmarshal(raw); err != nil {
		return err
	}
	if c.header.typ != ctShutdown {
		return errChunkTypeMismatch
	}
	if len(c.header.raw) < 4 {
		return errChunkValueNotLong
	}
	c.cumulativeTSN = binary.BigEndian.Uint32(c.header.raw)
	return nil
}

func (c *chunkShutdown) marshal() ([]byte, error) {
	c.header.typ = ctShutdown
	value := make([]byte, 4)
	binary.BigEndian.PutUint32(value, c.cumulativeTSN)
	return c.header.marshal(0, value), nil
}

// chunkShutdownAck/chunkShutdownComplete (RFC 4960 §3.3.9/§3.3.10) carry no
// value beyond the common header.
type chunkShutdownAck struct{ header chunkHeader }

func (c *chunkShutdownAck) chunkType() ChunkType { return ctShutdownAck }
func (c *chunkShutdownAck) unmarshal(raw []byte) error {
	if err := c.header.unmarshal(raw); err != nil {
		return err
	}
	if c.header.typ != ctShutdownAck {
		return errChunkTypeMismatch
	}
	return nil
}
func (c *chunkShutdownAck) marshal() ([]byte, error) {
	c.header.typ = ctShutdownAck
	return c.header.marshal(0, nil), nil
}

type chunkShutdownComplete struct{ header chunkHeader }

func (c *chunkShutdownComplete) chunkType() ChunkType { return ctShutdownCompl }
func (c *chunkShutdownComplete) unmarshal(raw []byte) error {
	if err := c.header.unmarshal(raw); err != nil {
		return err
	}
	if c.header.typ != ctShutdownCompl {
		return errChunkTypeMismatch
	}
	return nil
}
func (c *chunkShutdownComplete) marshal() ([]byte, error) {
	c.header.typ = ctShutdownCompl
	return c.header.marshal(0, nil), nil
}
