// Package interceptor implements the RTP/RTCP interceptor chain (spec C8):
// stream observers and RTCP generators composed in front of the media
// layer. Unlike internal/pipeline's protocol stack, the chain is
// unidirectional (spec §4.8): inbound and outbound messages both traverse
// the stages in the same order, there is no reversal between read and
// write. Each stage still implements pipeline.Handler so it can be driven
// by HandleTimeout/PollTimeout the same way every other layer is.
package interceptor

import (
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/webrtc-rs/rtc/internal/pipeline"
)

// RTPHeaderExtension is a negotiated RFC 5285 RTP header extension, adapted
// from the teacher's pkg/interceptor/streaminfo.go.
type RTPHeaderExtension struct {
	URI string
	ID  int
}

// RTCPFeedback names one negotiated a=rtcp-fb line (RFC 4585).
type RTCPFeedback struct {
	Type      string
	Parameter string
}

// Attributes carries interceptor-private bookkeeping alongside a message,
// analogous to the teacher's pkg/interceptor.Attributes map.
type Attributes map[string]interface{}

// StreamInfo describes one RTP stream (spec §4.8 bind_local_stream /
// bind_remote_stream), adapted from the teacher's streaminfo.go.
type StreamInfo struct {
	ID                  string
	SSRC                uint32
	PayloadType         uint8
	MimeType            string
	ClockRate           uint32
	RTCPFeedback        []RTCPFeedback
	RTPHeaderExtensions []RTPHeaderExtension
	Attributes          Attributes
}

// HasFeedback reports whether the stream negotiated the named feedback
// type (e.g. "nack", "goog-remb", "transport-cc") with no parameter or the
// given parameter.
func (si *StreamInfo) HasFeedback(typ, parameter string) bool {
	for _, f := range si.RTCPFeedback {
		if f.Type == typ && f.Parameter == parameter {
			return true
		}
	}
	return false
}

// HeaderExtensionID returns the negotiated id for a header extension URI,
// or false if it was not negotiated for this stream.
func (si *StreamInfo) HeaderExtensionID(uri string) (int, bool) {
	for _, e := range si.RTPHeaderExtensions {
		if e.URI == uri {
			return e.ID, true
		}
	}
	return 0, false
}

// TransportWideCCURI is the RFC 8888-adjacent header extension URI used to
// carry the TWCC transport-wide sequence number.
const TransportWideCCURI = "http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01"

// RTPMessage is one RTP packet flowing through the chain. Outbound is true
// for locally-sent media (spec's bind_local_stream path), false for
// received media (bind_remote_stream path); per spec §4.8 the distinction
// is a property of the content, not of traversal direction through stages.
type RTPMessage struct {
	Info       *StreamInfo
	Packet     *rtp.Packet
	Attributes Attributes
	Outbound   bool
}

// RTCPMessage is one batch of RTCP packets flowing through the chain, in
// the direction named by Outbound.
type RTCPMessage struct {
	Packets  []rtcp.Packet
	Outbound bool
}

// BindLocalStreamEvent notifies every stage that a new outbound stream is
// active (spec's bind_local_stream).
type BindLocalStreamEvent struct{ Info *StreamInfo }

// UnbindLocalStreamEvent notifies every stage that an outbound stream is
// gone.
type UnbindLocalStreamEvent struct{ SSRC uint32 }

// BindRemoteStreamEvent notifies every stage that a new inbound stream is
// active (spec's bind_remote_stream).
type BindRemoteStreamEvent struct{ Info *StreamInfo }

// UnbindRemoteStreamEvent notifies every stage that an inbound stream is
// gone.
type UnbindRemoteStreamEvent struct{ SSRC uint32 }

// Chain composes an ordered list of stages. Unlike pipeline.Engine, both
// HandleRead and HandleWrite drain stages 0..n in the SAME order: there is
// no reversal between the two directions (spec §4.8).
type Chain struct {
	stages []pipeline.Handler

	readOut  []pipeline.Message
	writeOut []pipeline.Message
	eventOut []pipeline.Event
}

// NewChain builds a Chain over stages, in the order every message
// traverses them.
func NewChain(stages ...pipeline.Handler) *Chain {
	return &Chain{stages: stages}
}

// HandleRead feeds an inbound RTPMessage/RTCPMessage through every stage in
// order.
func (c *Chain) HandleRead(msg pipeline.Message) {
	c.drain(0, msg, true)
}

// HandleWrite feeds an outbound RTPMessage/RTCPMessage through every stage
// in the SAME order as HandleRead.
func (c *Chain) HandleWrite(msg pipeline.Message) error {
	c.drain(0, msg, false)
	return nil
}

func (c *Chain) drain(i int, msg pipeline.Message, reading bool) {
	if i >= len(c.stages) {
		if reading {
			c.readOut = append(c.readOut, msg)
		} else {
			c.writeOut = append(c.writeOut, msg)
		}
		return
	}
	stage := c.stages[i]
	if reading {
		stage.HandleRead(msg)
	} else {
		if err := stage.HandleWrite(msg); err != nil {
			return
		}
	}
	c.drainEvents()

	pollNext := stage.PollRead
	if !reading {
		pollNext = stage.PollWrite
	}
	for {
		out, ok := pollNext()
		if !ok {
			break
		}
		c.drain(i+1, out, reading)
	}
}

// HandleEvent broadcasts a bind/unbind event to every stage directly: every
// stage must observe a stream bind regardless of its position in the
// chain.
func (c *Chain) HandleEvent(evt pipeline.Event) {
	for _, s := range c.stages {
		s.HandleEvent(evt)
	}
	c.drainEvents()
}

func (c *Chain) drainEvents() {
	for _, s := range c.stages {
		for {
			evt, ok := s.PollEvent()
			if !ok {
				break
			}
			c.eventOut = append(c.eventOut, evt)
		}
	}
}

// HandleTimeout advances every stage's timer to now, repeating until no
// stage has more work, mirroring pipeline.Engine.HandleTimeout.
func (c *Chain) HandleTimeout(now time.Time) {
	for iter := 0; iter < maxTimeoutIterations; iter++ {
		fired := false
		for _, s := range c.stages {
			deadline, ok := s.PollTimeout()
			if !ok || deadline.After(now) {
				continue
			}
			s.HandleTimeout(now)
			fired = true
			for {
				out, ok := s.PollWrite()
				if !ok {
					break
				}
				idx := indexOf(c.stages, s)
				c.drain(idx+1, out, false)
			}
		}
		c.drainEvents()
		if !fired {
			return
		}
	}
}

func indexOf(stages []pipeline.Handler, s pipeline.Handler) int {
	for i, h := range stages {
		if h == s {
			return i
		}
	}
	return -1
}

const maxTimeoutIterations = 1000

// PollTimeout returns the soonest deadline across every stage.
func (c *Chain) PollTimeout() (time.Time, bool) {
	var min time.Time
	found := false
	for _, s := range c.stages {
		deadline, ok := s.PollTimeout()
		if !ok {
			continue
		}
		if !found || deadline.Before(min) {
			min = deadline
			found = true
		}
	}
	return min, found
}

// PollRead returns the next message that ascended past the innermost stage.
func (c *Chain) PollRead() (pipeline.Message, bool) {
	if len(c.readOut) == 0 {
		return nil, false
	}
	msg := c.readOut[0]
	c.readOut = c.readOut[1:]
	return msg, true
}

// PollWrite returns the next message that descended past the innermost
// stage — for the interceptor chain this means packets ready to hand to
// the media/SRTP layer for transmission, including retransmissions the
// NACK responder injected mid-chain.
func (c *Chain) PollWrite() (pipeline.Message, bool) {
	if len(c.writeOut) == 0 {
		return nil, false
	}
	msg := c.writeOut[0]
	c.writeOut = c.writeOut[1:]
	return msg, true
}

// PollEvent returns the next event raised by any stage.
func (c *Chain) PollEvent() (pipeline.Event, bool) {
	if len(c.eventOut) == 0 {
		return nil, false
	}
	evt := c.eventOut[0]
	c.eventOut = c.eventOut[1:]
	return evt, true
}
