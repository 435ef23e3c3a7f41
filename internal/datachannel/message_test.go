package datachannel

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestChannelOpenUnmarshal(t *testing.T) {
	rawMsg := []byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x66, 0x6f, 0x6f}
	msgUncast, err := Parse(rawMsg)

	msg, ok := msgUncast.(*ChannelOpen)
	if !ok {
		t.Error(errors.Errorf("Failed to cast to ChannelOpen"))
	}

	if err != nil {
		t.Error(errors.Wrap(err, "Unmarshal failed, ChannelOpen"))
	} else if msg.ChannelType != ChannelTypeReliable {
		t.Error(errors.Errorf("ChannelType should be reliable"))
	} else if msg.Priority != 0 {
		t.Error(errors.Errorf("Priority should be 0"))
	} else if msg.ReliabilityParameter != 0 {
		t.Error(errors.Errorf("ReliabilityParameter should be 0"))
	} else if string(msg.Label) != "foo" {
		t.Error(errors.Errorf("msg Label should be 'foo'"))
	}
}

func TestChannelOpenMarshalRoundTrip(t *testing.T) {
	open := &ChannelOpen{
		ChannelType:          ChannelTypePartialReliableRexmitUnordered,
		Priority:             128,
		ReliabilityParameter: 3,
		Label:                []byte("chat"),
		Protocol:             []byte("proto"),
	}
	raw, err := open.Marshal()
	require.NoError(t, err)

	parsed, err := ParseExpectDataChannelOpen(raw)
	require.NoError(t, err)
	require.Equal(t, open.ChannelType, parsed.ChannelType)
	require.Equal(t, open.Priority, parsed.Priority)
	require.Equal(t, open.ReliabilityParameter, parsed.ReliabilityParameter)
	require.Equal(t, "chat", string(parsed.Label))
	require.Equal(t, "proto", string(parsed.Protocol))
}

func TestChannelAckMarshalRoundTrip(t *testing.T) {
	ack := &ChannelAck{}
	raw, err := ack.Marshal()
	require.NoError(t, err)

	parsed, err := ParseExpectDataChannelAck(raw)
	require.NoError(t, err)
	require.NotNil(t, parsed)
}
