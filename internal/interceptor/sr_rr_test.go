package interceptor

import (
	"testing"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

func TestSRGeneratorEmitsAfterFirstPacket(t *testing.T) {
	g := NewSRGenerator(nil)
	info := &StreamInfo{SSRC: 1, ClockRate: 90000}
	g.HandleEvent(BindLocalStreamEvent{Info: info})

	if err := g.HandleWrite(RTPMessage{Info: info, Packet: &rtp.Packet{Header: rtp.Header{Timestamp: 1000}, Payload: []byte{1, 2, 3}}, Outbound: true}); err != nil {
		t.Fatalf("HandleWrite: %v", err)
	}
	if _, ok := g.PollWrite(); !ok {
		t.Fatal("expected the packet to pass through")
	}

	deadline, ok := g.PollTimeout()
	if !ok {
		t.Fatal("expected a timer once a stream is bound")
	}
	g.HandleTimeout(deadline)

	msg, ok := g.PollWrite()
	if !ok {
		t.Fatal("expected a SenderReport to be queued")
	}
	rtcpMsg := msg.(RTCPMessage) //nolint:forcetypeassert
	sr, ok := rtcpMsg.Packets[0].(*rtcp.SenderReport)
	if !ok {
		t.Fatalf("expected a SenderReport, got %T", rtcpMsg.Packets[0])
	}
	if sr.PacketCount != 1 || sr.OctetCount != 3 {
		t.Errorf("wrong counts: %+v", sr)
	}
}

func TestRRGeneratorTracksLossAndJitter(t *testing.T) {
	g := NewRRGenerator(nil)
	info := &StreamInfo{SSRC: 9, ClockRate: 8000}
	g.HandleEvent(BindRemoteStreamEvent{Info: info})

	for _, seq := range []uint16{0, 1, 3, 4} { // seq 2 lost
		g.HandleRead(RTPMessage{Info: info, Packet: &rtp.Packet{Header: rtp.Header{SequenceNumber: seq, Timestamp: uint32(seq) * 160}}})
		for {
			if _, ok := g.PollRead(); !ok {
				break
			}
		}
	}

	deadline, ok := g.PollTimeout()
	if !ok {
		t.Fatal("expected a timer once a stream is bound")
	}
	g.HandleTimeout(deadline.Add(time.Millisecond))

	msg, ok := g.PollWrite()
	if !ok {
		t.Fatal("expected a ReceiverReport to be queued")
	}
	rtcpMsg := msg.(RTCPMessage) //nolint:forcetypeassert
	rr, ok := rtcpMsg.Packets[0].(*rtcp.ReceiverReport)
	if !ok || len(rr.Reports) != 1 {
		t.Fatalf("expected one ReceiverReport block, got %#v", rtcpMsg.Packets[0])
	}
	if rr.Reports[0].TotalLost != 1 {
		t.Errorf("expected 1 lost packet, got %d", rr.Reports[0].TotalLost)
	}
	if rr.Reports[0].LastSequenceNumber != 4 {
		t.Errorf("expected extended highest seq 4, got %d", rr.Reports[0].LastSequenceNumber)
	}
}
