package interceptor

import (
	"testing"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

func twccStreamInfo(ssrc uint32, extID int) *StreamInfo {
	return &StreamInfo{
		SSRC:                ssrc,
		RTPHeaderExtensions: []RTPHeaderExtension{{URI: TransportWideCCURI, ID: extID}},
	}
}

func TestTWCCSenderStampsExtension(t *testing.T) {
	s := NewTWCCSender()
	info := twccStreamInfo(1, 3)
	s.HandleEvent(BindLocalStreamEvent{Info: info})

	pkt := &rtp.Packet{Header: rtp.Header{SequenceNumber: 1, Extension: true, ExtensionProfile: 0xBEDE}}
	if err := s.HandleWrite(RTPMessage{Info: info, Packet: pkt, Outbound: true}); err != nil {
		t.Fatalf("HandleWrite: %v", err)
	}
	msg, ok := s.PollWrite()
	if !ok {
		t.Fatal("expected the packet to descend")
	}
	out := msg.(RTPMessage) //nolint:forcetypeassert
	ext := out.Packet.GetExtension(3)
	if len(ext) != 2 {
		t.Fatalf("expected a 2-byte extension payload, got %v", ext)
	}
	if seq := uint16(ext[0])<<8 | uint16(ext[1]); seq != 1 {
		t.Errorf("expected transport-wide sequence 1, got %d", seq)
	}
}

func TestTWCCReceiverBuildsFeedback(t *testing.T) {
	r := NewTWCCReceiver(0xC0FFEE, nil)
	info := twccStreamInfo(5, 3)
	r.HandleEvent(BindRemoteStreamEvent{Info: info})

	for _, seq := range []uint16{10, 11, 12} {
		pkt := &rtp.Packet{Header: rtp.Header{SequenceNumber: seq, Extension: true, ExtensionProfile: 0xBEDE}}
		if err := pkt.SetExtension(3, []byte{byte(seq >> 8), byte(seq)}); err != nil {
			t.Fatalf("SetExtension: %v", err)
		}
		r.HandleRead(RTPMessage{Info: info, Packet: pkt})
	}

	deadline, ok := r.PollTimeout()
	if !ok {
		t.Fatal("expected a timer once a stream is bound")
	}
	r.HandleTimeout(deadline)

	msg, ok := r.PollWrite()
	if !ok {
		t.Fatal("expected a TransportLayerCC to be queued")
	}
	rtcpMsg := msg.(RTCPMessage) //nolint:forcetypeassert
	fb, ok := rtcpMsg.Packets[0].(*rtcp.TransportLayerCC)
	if !ok {
		t.Fatalf("expected a TransportLayerCC, got %T", rtcpMsg.Packets[0])
	}
	if fb.BaseSequenceNumber != 10 || fb.PacketStatusCount != 3 {
		t.Errorf("unexpected feedback header: %+v", fb)
	}
}
