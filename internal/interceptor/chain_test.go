package interceptor

import (
	"testing"

	"github.com/pion/rtp"

	"github.com/webrtc-rs/rtc/internal/pipeline"
)

func TestChainAppliesSameOrderBothDirections(t *testing.T) {
	gen := NewNACKGenerator(nil)
	resp := NewNACKResponder(nil)
	chain := NewChain(gen, resp)

	info := nackStreamInfo(3)
	chain.HandleEvent(BindRemoteStreamEvent{Info: info})
	chain.HandleEvent(BindLocalStreamEvent{Info: info})

	if err := chain.HandleWrite(RTPMessage{Info: info, Packet: &rtp.Packet{Header: rtp.Header{SequenceNumber: 1}}, Outbound: true}); err != nil {
		t.Fatalf("HandleWrite: %v", err)
	}
	if _, ok := chain.PollWrite(); !ok {
		t.Fatal("expected the write to descend past both stages")
	}

	chain.HandleRead(RTPMessage{Info: info, Packet: &rtp.Packet{Header: rtp.Header{SequenceNumber: 1}}})
	if _, ok := chain.PollRead(); !ok {
		t.Fatal("expected the read to ascend past both stages")
	}
}

var _ pipeline.Handler = (*Chain)(nil)
