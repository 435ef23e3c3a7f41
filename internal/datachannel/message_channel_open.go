package datachannel

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ChannelType identifies the reliability mode requested in a
// DATA_CHANNEL_OPEN message (RFC 8832 §5.1).
type ChannelType byte

const (
	ChannelTypeReliable                         ChannelType = 0x00
	ChannelTypeReliableUnordered                ChannelType = 0x80
	ChannelTypePartialReliableRexmit            ChannelType = 0x01
	ChannelTypePartialReliableRexmitUnordered   ChannelType = 0x81
	ChannelTypePartialReliableTimed             ChannelType = 0x02
	ChannelTypePartialReliableTimedUnordered    ChannelType = 0x82
)

func (t ChannelType) String() string {
	switch t {
	case ChannelTypeReliable:
		return "Reliable"
	case ChannelTypeReliableUnordered:
		return "ReliableUnordered"
	case ChannelTypePartialReliableRexmit:
		return "PartialReliableRexmit"
	case ChannelTypePartialReliableRexmitUnordered:
		return "PartialReliableRexmitUnordered"
	case ChannelTypePartialReliableTimed:
		return "PartialReliableTimed"
	case ChannelTypePartialReliableTimedUnordered:
		return "PartialReliableTimedUnordered"
	default:
		return "Unknown"
	}
}

/*
ChannelOpen represents a DATA_CHANNEL_OPEN message

 0                   1                   2                   3
 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|  Message Type |  Channel Type |            Priority           |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                    Reliability Parameter                      |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|         Label Length          |       Protocol Length         |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                                                               |
|                             Label                             |
|                                                               |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                                                               |
|                            Protocol                           |
|                                                               |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
*/
type ChannelOpen struct {
	ChannelType          ChannelType
	Priority             uint16
	ReliabilityParameter uint32

	Label    []byte
	Protocol []byte
}

const (
	channelOpenHeaderLength = 12
)

// Marshal returns raw bytes for the given message
func (c *ChannelOpen) Marshal() ([]byte, error) {
	raw := make([]byte, channelOpenHeaderLength+len(c.Label)+len(c.Protocol))
	raw[0] = uint8(DataChannelOpen)
	raw[1] = byte(c.ChannelType)
	binary.BigEndian.PutUint16(raw[2:4], c.Priority)
	binary.BigEndian.PutUint32(raw[4:8], c.ReliabilityParameter)
	binary.BigEndian.PutUint16(raw[8:10], uint16(len(c.Label)))
	binary.BigEndian.PutUint16(raw[10:12], uint16(len(c.Protocol)))
	copy(raw[channelOpenHeaderLength:], c.Label)
	copy(raw[channelOpenHeaderLength+len(c.Label):], c.Protocol)
	return raw, nil
}

// Unmarshal populates the struct with the given raw data
func (c *ChannelOpen) Unmarshal(raw []byte) error {
	if len(raw) < channelOpenHeaderLength {
		return errors.Errorf("Length of input is not long enough to satisfy header %d", len(raw))
	}
	c.ChannelType = ChannelType(raw[1])
	c.Priority = binary.BigEndian.Uint16(raw[2:])
	c.ReliabilityParameter = binary.BigEndian.Uint32(raw[4:])

	labelLength := binary.BigEndian.Uint16(raw[8:])
	protocolLength := binary.BigEndian.Uint16(raw[10:])

	if len(raw) != int(channelOpenHeaderLength+labelLength+protocolLength) {
		return errors.Errorf("Label + Protocol length don't match full packet length")
	}

	c.Label = append([]byte{}, raw[12:12+labelLength]...)
	c.Protocol = append([]byte{}, raw[12+labelLength:12+labelLength+protocolLength]...)
	return nil
}
