package rtc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webrtc-rs/rtc/internal/ice"
	"github.com/webrtc-rs/rtc/internal/pipeline"
)

const (
	testAddrA = "127.0.0.1:5000"
	testAddrB = "127.0.0.1:5001"
)

// relay delivers every datagram src has queued for output to dst, tagging
// each with the transport context dst should see: dst's own address as
// LocalAddr, src's address as PeerAddr. ICE's STUN symmetry checks (spec
// C2) compare this PeerAddr against the candidate address the pair was
// built from, so the two fixed host addresses have to match exactly on
// both sides of the relay.
func relay(t *testing.T, now time.Time, src, dst *PeerConnection, srcAddr, dstAddr string) {
	t.Helper()
	for i := 0; i < 64; i++ {
		msg, ok := src.PollWrite()
		if !ok {
			return
		}
		dg, ok := msg.(pipeline.Datagram)
		if !ok {
			continue
		}
		ctx := pipeline.TransportContext{LocalAddr: dstAddr, PeerAddr: srcAddr, Protocol: dg.Context.Protocol}
		require.NoError(t, dst.HandleRead(now, ctx, dg.Data))
	}
}

// pumpUntil alternates HandleTimeout and relay on both peers, advancing a
// synthetic clock, until cond reports both sides reached the state under
// test or the deadline passes. The DTLS handshake itself runs on a real
// background goroutine bridged over net.Pipe (internal/dtls), so each
// round sleeps briefly to give it a chance to produce output between
// polls.
func pumpUntil(t *testing.T, a, b *PeerConnection, cond func() bool) {
	t.Helper()
	now := time.Now()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		now = now.Add(20 * time.Millisecond)
		require.NoError(t, a.HandleTimeout(now))
		require.NoError(t, b.HandleTimeout(now))
		relay(t, now, a, b, testAddrA, testAddrB)
		relay(t, now, b, a, testAddrB, testAddrA)
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("pumpUntil: condition never satisfied before deadline")
}

func drainEvents(pc *PeerConnection) []interface{} {
	var out []interface{}
	for {
		evt, ok := pc.PollEvent()
		if !ok {
			return out
		}
		out = append(out, evt)
	}
}

// findDataChannelOpen scans events already drained for pc looking for the
// OnDataChannelOpenEvent with the given label, returning its channel id.
func findDataChannelOpen(events []interface{}, label string) (uint16, bool) {
	for _, evt := range events {
		if e, ok := evt.(OnDataChannelOpenEvent); ok && e.Label == label {
			return e.ChannelID, true
		}
	}
	return 0, false
}

// TestOfferAnswerDataChannelRoundTrip covers the offer/answer handshake
// scenario: A creates a data channel before ever building an offer, both
// peers reach Connected on 127.0.0.1, B observes the channel opening, and
// a ping/pong exchange round-trips over it.
func TestOfferAnswerDataChannelRoundTrip(t *testing.T) {
	a, err := New(Configuration{}, SettingEngine{})
	require.NoError(t, err)
	b, err := New(Configuration{}, SettingEngine{})
	require.NoError(t, err)

	dc, err := a.CreateDataChannel("data", DataChannelConfig{})
	require.NoError(t, err)
	require.Equal(t, "data", dc.Label())

	require.NoError(t, a.Gather(5000, true))
	require.NoError(t, b.Gather(5001, false))

	// Gather queues its candidate/gathering-complete events on the ICE
	// agent directly; HandleTimeout is what drains them into PollEvent.
	gatherNow := time.Now()
	require.NoError(t, a.HandleTimeout(gatherNow))
	require.NoError(t, b.HandleTimeout(gatherNow))

	offer, err := a.CreateOffer()
	require.NoError(t, err)
	require.NoError(t, a.SetLocalDescription(offer))
	require.NoError(t, b.SetRemoteDescription(offer))

	answer, err := b.CreateAnswer()
	require.NoError(t, err)
	require.NoError(t, b.SetLocalDescription(answer))
	require.NoError(t, a.SetRemoteDescription(answer))

	// Trickle each side's gathered host candidate to the other; Gather
	// already ran to completion above, so both are sitting in PollEvent.
	for _, evt := range drainEvents(a) {
		if e, ok := evt.(OnIceCandidateEvent); ok && e.Candidate != nil {
			require.NoError(t, b.AddICECandidate(e.Candidate.Marshal()))
		}
	}
	for _, evt := range drainEvents(b) {
		if e, ok := evt.(OnIceCandidateEvent); ok && e.Candidate != nil {
			require.NoError(t, a.AddICECandidate(e.Candidate.Marshal()))
		}
	}

	pumpUntil(t, a, b, func() bool {
		return a.ConnectionState() == ConnectionStateConnected && b.ConnectionState() == ConnectionStateConnected
	})
	require.Equal(t, ice.ConnectionStateConnected, a.ICEConnectionState())
	require.Equal(t, ice.ConnectionStateConnected, b.ICEConnectionState())

	var channelIDOnB uint16
	pumpUntil(t, a, b, func() bool {
		if id, ok := findDataChannelOpen(drainEvents(b), "data"); ok {
			channelIDOnB = id
			return true
		}
		return false
	})

	require.NoError(t, a.HandleWrite(DataChannelMessage{ChannelID: dc.ID(), Data: []byte("ping"), IsString: true}))

	var pingOnB []byte
	pumpUntil(t, a, b, func() bool {
		for _, evt := range drainEvents(b) {
			if e, ok := evt.(OnDataChannelMessageEvent); ok && e.ChannelID == channelIDOnB {
				pingOnB = e.Data
				return true
			}
		}
		return false
	})
	require.Equal(t, "ping", string(pingOnB))

	require.NoError(t, b.HandleWrite(DataChannelMessage{ChannelID: channelIDOnB, Data: []byte("pong"), IsString: true}))

	var pongOnA []byte
	pumpUntil(t, a, b, func() bool {
		for _, evt := range drainEvents(a) {
			if e, ok := evt.(OnDataChannelMessageEvent); ok && e.ChannelID == dc.ID() {
				pongOnA = e.Data
				return true
			}
		}
		return false
	})
	require.Equal(t, "pong", string(pongOnA))
}
