package sctp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webrtc-rs/rtc/internal/pipeline"
)

// drive delivers every queued outbound datagram from src into dst's
// HandleRead, looping until src has nothing left to send.
func drive(t *testing.T, src, dst *Endpoint) {
	t.Helper()
	for i := 0; i < 16; i++ {
		msg, ok := src.PollWrite()
		if !ok {
			return
		}
		dst.HandleRead(msg)
	}
}

func TestAssociationHandshakeEstablishes(t *testing.T) {
	client := NewEndpoint(Config{ClientSide: true}, nil)
	server := NewEndpoint(Config{}, nil)

	client.Connect()
	require.Equal(t, AssociationStateCookieWait, client.State())

	drive(t, client, server) // INIT -> server
	require.Equal(t, AssociationStateClosed, server.State())

	drive(t, server, client) // INIT ACK -> client
	drive(t, client, server) // COOKIE ECHO -> server
	require.Equal(t, AssociationStateEstablished, server.State())

	drive(t, server, client) // COOKIE ACK -> client
	require.Equal(t, AssociationStateEstablished, client.State())
}

func TestAssociationDataRoundTrip(t *testing.T) {
	client := NewEndpoint(Config{ClientSide: true}, nil)
	server := NewEndpoint(Config{}, nil)

	client.Connect()
	drive(t, client, server)
	drive(t, server, client)
	drive(t, client, server)
	drive(t, server, client)
	require.Equal(t, AssociationStateEstablished, client.State())
	require.Equal(t, AssociationStateEstablished, server.State())

	err := client.HandleWrite(OutboundMessage{
		StreamID:    1,
		PayloadType: PayloadTypeString,
		Data:        []byte("hello data channel"),
	})
	require.NoError(t, err)

	drive(t, client, server)

	ev, ok := server.PollEvent()
	require.True(t, ok)
	require.Equal(t, NewAssociationEvent{}, ev)

	ev, ok = server.PollEvent()
	require.True(t, ok)
	require.Equal(t, AssociationStateChangedEvent{State: AssociationStateEstablished}, ev)

	ev, ok = server.PollEvent()
	require.True(t, ok)
	require.Equal(t, StreamOpenedEvent{StreamID: 1}, ev)

	ev, ok = server.PollEvent()
	require.True(t, ok)
	require.Equal(t, StreamReadableEvent{StreamID: 1}, ev)

	msg, ok := server.PollRead()
	require.True(t, ok)
	in := msg.(InboundMessage)
	require.Equal(t, "hello data channel", string(in.Data))
	require.Equal(t, PayloadTypeString, in.PayloadType)
}

func TestEndpointRetransmitsInit(t *testing.T) {
	client := NewEndpoint(Config{ClientSide: true}, nil)
	client.Connect()

	first, ok := client.PollWrite()
	require.True(t, ok)
	_ = first

	deadline, ok := client.PollTimeout()
	require.True(t, ok)
	client.HandleTimeout(deadline.Add(time.Millisecond))

	second, ok := client.PollWrite()
	require.True(t, ok)
	require.NotNil(t, second)
}

var _ pipeline.Handler = (*Endpoint)(nil)
