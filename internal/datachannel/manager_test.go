package datachannel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webrtc-rs/rtc/internal/sctp"
)

func drive(t *testing.T, src, dst *sctp.Endpoint) {
	t.Helper()
	for i := 0; i < 16; i++ {
		msg, ok := src.PollWrite()
		if !ok {
			return
		}
		dst.HandleRead(msg)
	}
}

func establish(t *testing.T) (*sctp.Endpoint, *sctp.Endpoint) {
	t.Helper()
	client := sctp.NewEndpoint(sctp.Config{ClientSide: true}, nil)
	server := sctp.NewEndpoint(sctp.Config{}, nil)

	client.Connect()
	drive(t, client, server)
	drive(t, server, client)
	drive(t, client, server)
	drive(t, server, client)
	require.Equal(t, sctp.AssociationStateEstablished, client.State())
	require.Equal(t, sctp.AssociationStateEstablished, server.State())
	return client, server
}

func TestChannelOpenHandshake(t *testing.T) {
	clientEP, serverEP := establish(t)

	clientMgr := NewManager(clientEP, true, nil)
	serverMgr := NewManager(serverEP, false, nil)

	ch, err := clientMgr.CreateChannel(Config{Label: "chat", ChannelType: ChannelTypeReliable})
	require.NoError(t, err)
	require.Equal(t, uint16(1), ch.ID())
	require.Equal(t, StateConnecting, ch.State())

	drive(t, clientEP, serverEP)
	serverMgr.Pump()

	evt, ok := serverMgr.PollEvent()
	require.True(t, ok)
	require.Equal(t, ChannelOpenedEvent{ID: 1}, evt)

	srvCh, ok := serverMgr.Channel(1)
	require.True(t, ok)
	require.Equal(t, StateOpen, srvCh.State())
	require.Equal(t, "chat", srvCh.Label())

	drive(t, serverEP, clientEP)
	clientMgr.Pump()

	evt, ok = clientMgr.PollEvent()
	require.True(t, ok)
	require.Equal(t, ChannelOpenedEvent{ID: 1}, evt)
	require.Equal(t, StateOpen, ch.State())
}

func TestChannelSendAndReceive(t *testing.T) {
	clientEP, serverEP := establish(t)
	clientMgr := NewManager(clientEP, true, nil)
	serverMgr := NewManager(serverEP, false, nil)

	_, err := clientMgr.CreateChannel(Config{Label: "chat"})
	require.NoError(t, err)
	drive(t, clientEP, serverEP)
	serverMgr.Pump()
	_, _ = serverMgr.PollEvent()
	drive(t, serverEP, clientEP)
	clientMgr.Pump()
	_, _ = clientMgr.PollEvent()

	require.NoError(t, clientMgr.Send(1, []byte("hello"), true))
	drive(t, clientEP, serverEP)
	serverMgr.Pump()

	msg, ok := serverMgr.PollMessage()
	require.True(t, ok)
	require.Equal(t, "hello", string(msg.Data))
	require.True(t, msg.IsString)
}

func TestBufferedAmountWatermarks(t *testing.T) {
	clientEP, serverEP := establish(t)
	clientMgr := NewManager(clientEP, true, nil)
	serverMgr := NewManager(serverEP, false, nil)

	_, err := clientMgr.CreateChannel(Config{
		Label:                       "chat",
		BufferedAmountLowThreshold:  0,
		BufferedAmountHighThreshold: 5,
	})
	require.NoError(t, err)
	drive(t, clientEP, serverEP)
	serverMgr.Pump()
	drive(t, serverEP, clientEP)
	clientMgr.Pump()
	_, _ = clientMgr.PollEvent()

	require.NoError(t, clientMgr.Send(1, []byte("hello"), false))
	evt, ok := clientMgr.PollEvent()
	require.True(t, ok)
	require.Equal(t, BufferedAmountHighEvent{ID: 1}, evt)

	clientMgr.Ack(1, 5)
	evt, ok = clientMgr.PollEvent()
	require.True(t, ok)
	require.Equal(t, BufferedAmountLowEvent{ID: 1}, evt)
}
