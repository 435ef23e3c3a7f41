package interceptor

import (
	"testing"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

func nackStreamInfo(ssrc uint32) *StreamInfo {
	return &StreamInfo{SSRC: ssrc, RTCPFeedback: []RTCPFeedback{{Type: "nack"}}}
}

func TestNACKGeneratorRaisesOnGap(t *testing.T) {
	g := NewNACKGenerator(nil)
	g.SkipLastN = 0
	g.HandleEvent(BindRemoteStreamEvent{Info: nackStreamInfo(42)})

	for _, seq := range []uint16{0, 1, 3} { // 2 is missing
		g.HandleRead(RTPMessage{Info: nackStreamInfo(42), Packet: &rtp.Packet{Header: rtp.Header{SequenceNumber: seq}}})
		if _, ok := g.PollRead(); !ok {
			t.Fatal("expected the packet to pass through")
		}
	}

	deadline, ok := g.PollTimeout()
	if !ok {
		t.Fatal("expected a timer to be armed once a stream is tracked")
	}
	g.HandleTimeout(deadline)

	msg, ok := g.PollWrite()
	if !ok {
		t.Fatal("expected a NACK to be queued")
	}
	rtcpMsg, ok := msg.(RTCPMessage)
	if !ok || len(rtcpMsg.Packets) != 1 {
		t.Fatalf("expected one RTCP packet, got %#v", msg)
	}
	nack, ok := rtcpMsg.Packets[0].(*rtcp.TransportLayerNack)
	if !ok {
		t.Fatalf("expected a TransportLayerNack, got %T", rtcpMsg.Packets[0])
	}
	if nack.MediaSSRC != 42 {
		t.Errorf("wrong media ssrc: %d", nack.MediaSSRC)
	}
}

func TestNACKResponderRetransmitsBufferedPacket(t *testing.T) {
	r := NewNACKResponder(nil)
	info := nackStreamInfo(7)
	r.HandleEvent(BindLocalStreamEvent{Info: info})

	pkt := &rtp.Packet{Header: rtp.Header{SequenceNumber: 5, SSRC: 7}}
	if err := r.HandleWrite(RTPMessage{Info: info, Packet: pkt, Outbound: true}); err != nil {
		t.Fatalf("HandleWrite: %v", err)
	}
	if _, ok := r.PollWrite(); !ok {
		t.Fatal("expected the original packet to pass through")
	}

	r.HandleRead(RTCPMessage{Packets: []rtcp.Packet{&rtcp.TransportLayerNack{
		MediaSSRC: 7,
		Nacks:     []rtcp.NackPair{{PacketID: 5}},
	}}})

	msg, ok := r.PollWrite()
	if !ok {
		t.Fatal("expected a retransmission to be queued")
	}
	retx, ok := msg.(RTPMessage)
	if !ok || retx.Packet.SequenceNumber != 5 {
		t.Fatalf("expected a retransmit of seq 5, got %#v", msg)
	}
}

func TestNackPairsRoundTrip(t *testing.T) {
	missing := []uint16{10, 11, 13, 40}
	pairs := nackPairs(missing)
	got := nackPairsToSequenceNumbers(pairs)
	if len(got) != len(missing) {
		t.Fatalf("want %v got %v", missing, got)
	}
	for i, m := range missing {
		if got[i] != m {
			t.Errorf("index %d: want %d got %d", i, m, got[i])
		}
	}
}

func TestNACKGeneratorNoTimerWithoutStreams(t *testing.T) {
	g := NewNACKGenerator(nil)
	if _, ok := g.PollTimeout(); ok {
		t.Fatal("expected no timer armed with no tracked streams")
	}
	_ = time.Now()
}
