// Package sctp implements a sans-I/O RFC 4960 SCTP association tunneled
// over DTLS (spec C5), carrying WebRTC data channel streams (RFC 8831).
// There is no teacher seam to adapt here: the pack's only SCTP source
// mixes at least two incompatible historical chunk-codec generations
// (capitalized Chunk/ChunkType/Init types alongside an unrelated
// lowercase packet/chunk/chunkType era, with internally inconsistent
// field references inside single files), so the wire codec and the
// association state machine are both written fresh against RFC 4960,
// keeping the teacher's naming conventions and the two genuinely
// self-consistent data structures it shipped (PayloadQueue,
// reassemblyQueue) as the reuse target.
package sctp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/pion/logging"
	"github.com/pion/randutil"

	"github.com/webrtc-rs/rtc/internal/pipeline"
)

const (
	defaultMTU              = 1200
	rtoInitial              = 3 * time.Second
	maxInitRetransmits      = 8
	defaultAdvertisedWindow = 128 * 1024
)

// ErrAssociationNotEstablished is returned by HandleWrite when no
// association exists yet or it has not reached Established, so callers
// that want to queue a send before the handshake completes (the data
// channel manager's deferred DATA_CHANNEL_OPEN) can distinguish "not
// ready yet" from a hard failure.
var ErrAssociationNotEstablished = errors.New("sctp: association not established")

// Config configures one Endpoint.
type Config struct {
	ClientSide bool // DTLS-client endpoints initiate the association (spec §4.6)
	MTU        int
}

// Endpoint is the sans-I/O SCTP facing handler (spec C5). It implements
// pipeline.Handler for the lane the DTLS transport hands application
// data to, and owns at most one Association: a WebRTC peer connection
// never multiplexes more than one SCTP association per DTLS session.
type Endpoint struct {
	pipeline.NoOp

	log   logging.LeveledLogger
	cfg   Config
	assoc *association

	writeOut []pipeline.Message
	readOut  []pipeline.Message
	events   []pipeline.Event
}

// NewEndpoint builds an Endpoint; no association exists until Connect is
// called or an inbound INIT is observed via HandleRead.
func NewEndpoint(cfg Config, loggerFactory logging.LoggerFactory) *Endpoint {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	if cfg.MTU == 0 {
		cfg.MTU = defaultMTU
	}
	return &Endpoint{
		log: loggerFactory.NewLogger("sctp"),
		cfg: cfg,
	}
}

// Connect initiates the association (DTLS-client side only, per spec
// §4.6): builds and queues an INIT chunk.
func (e *Endpoint) Connect() {
	if e.assoc != nil {
		return
	}
	e.assoc = newAssociation(e.cfg)
	e.emitEvent(NewAssociationEvent{})
	e.queueInit()
}

func (e *Endpoint) queueInit() {
	init := &chunkInit{
		initiateTag:                    e.assoc.myVerificationTag,
		advertisedReceiverWindowCredit: defaultAdvertisedWindow,
		numOutboundStreams:             65535,
		numInboundStreams:              65535,
		initialTSN:                     e.assoc.myNextTSN,
	}
	e.sendChunk(0, init)
	e.assoc.state = AssociationStateCookieWait
	e.assoc.retransmitDeadline = e.assoc.now.Add(rtoInitial)
}

func (e *Endpoint) sendChunk(verificationTag uint32, c chunk) {
	p := &packet{verificationTag: verificationTag, chunks: []chunk{c}}
	b, err := p.marshal()
	if err != nil {
		e.log.Warnf("sctp: marshal packet: %v", err)
		return
	}
	e.writeOut = append(e.writeOut, pipeline.Datagram{Data: b})
}

func (e *Endpoint) emitEvent(ev pipeline.Event) {
	e.events = append(e.events, ev)
}

// HandleRead accepts one inbound SCTP packet tunneled through DTLS (spec
// §4.6 `handle(datagram)`).
func (e *Endpoint) HandleRead(msg pipeline.Message) {
	dg, ok := msg.(pipeline.Datagram)
	if !ok {
		return
	}
	var p packet
	if err := p.unmarshal(dg.Data); err != nil {
		e.log.Warnf("sctp: dropping unparsable packet: %v", err)
		return
	}
	for _, c := range p.chunks {
		e.handleChunk(dg.Now, c)
	}
}

func (e *Endpoint) handleChunk(now time.Time, c chunk) {
	switch v := c.(type) {
	case *chunkInit:
		if v.isAck {
			e.handleInitAck(now, v)
		} else {
			e.handleInit(now, v)
		}
	case *chunkCookieEcho:
		e.handleCookieEcho(now, v)
	case *chunkCookieAck:
		e.handleCookieAck(now)
	case *chunkPayloadData:
		e.handleData(now, v)
	case *chunkSack:
		e.handleSack(now, v)
	case *chunkHeartbeat:
		e.handleHeartbeat(now, v)
	case *chunkAbort:
		e.handleAbort(now)
	case *chunkShutdown:
		e.handleShutdown(now, v)
	case *chunkShutdownAck:
		e.handleShutdownAck(now)
	case *chunkShutdownComplete:
		e.setState(AssociationStateClosed)
	}
}

func (e *Endpoint) handleInit(now time.Time, v *chunkInit) {
	if e.assoc == nil {
		e.assoc = newAssociation(e.cfg)
		e.emitEvent(NewAssociationEvent{})
	}
	a := e.assoc
	a.peerVerificationTag = v.initiateTag
	a.peerInitialTSN = v.initialTSN
	a.peerCumulativeTSN = v.initialTSN - 1
	a.now = now

	cookie := make([]byte, 8)
	binary.BigEndian.PutUint32(cookie[0:4], v.initiateTag)
	binary.BigEndian.PutUint32(cookie[4:8], v.initialTSN)

	initAck := &chunkInit{
		isAck:                          true,
		initiateTag:                    a.myVerificationTag,
		advertisedReceiverWindowCredit: defaultAdvertisedWindow,
		numOutboundStreams:             65535,
		numInboundStreams:              65535,
		initialTSN:                     a.myNextTSN,
		cookie:                         cookie,
	}
	e.sendChunk(a.peerVerificationTag, initAck)
}

// handleInitAck is the client side of the four-way handshake: the INIT ACK
// carries the server's verification tag, initial TSN, and opaque cookie,
// which is echoed back unexamined (spec §4.6; see chunkCookieEcho's doc
// comment for why this association never needs to validate the cookie
// itself).
func (e *Endpoint) handleInitAck(now time.Time, v *chunkInit) {
	a := e.assoc
	if a == nil || a.state != AssociationStateCookieWait {
		return
	}
	a.peerVerificationTag = v.initiateTag
	a.peerInitialTSN = v.initialTSN
	a.peerCumulativeTSN = v.initialTSN - 1
	a.now = now

	e.sendChunk(a.peerVerificationTag, &chunkCookieEcho{cookie: v.cookie})
	e.setState(AssociationStateCookieEchoed)
}

func (e *Endpoint) handleCookieEcho(now time.Time, v *chunkCookieEcho) {
	a := e.assoc
	if a == nil || len(v.cookie) < 8 {
		return
	}
	a.now = now
	e.sendChunk(a.peerVerificationTag, &chunkCookieAck{})
	e.setState(AssociationStateEstablished)
}

func (e *Endpoint) handleCookieAck(now time.Time) {
	a := e.assoc
	if a == nil {
		return
	}
	a.now = now
	e.setState(AssociationStateEstablished)
}

func (e *Endpoint) handleData(now time.Time, v *chunkPayloadData) {
	a := e.assoc
	if a == nil {
		return
	}
	a.now = now

	pd := &PayloadData{TSN: v.tsn}
	a.payloadQueue.Push(pd, a.peerCumulativeTSN)
	for {
		next, ok := a.payloadQueue.Pop(a.peerCumulativeTSN + 1)
		if !ok {
			break
		}
		a.peerCumulativeTSN = next.TSN
	}

	st := a.streamFor(v.streamIdentifier)
	if !st.opened {
		st.opened = true
		e.emitEvent(StreamOpenedEvent{StreamID: st.id})
	}
	st.reassembly.push(v)
	for {
		data, ppid, ok := st.reassembly.pop()
		if !ok {
			break
		}
		e.readOut = append(e.readOut, InboundMessage{
			StreamID:    st.id,
			PayloadType: ppid,
			Data:        data,
		})
		e.emitEvent(StreamReadableEvent{StreamID: st.id})
	}

	a.sackPending = true
}

func (e *Endpoint) handleSack(now time.Time, v *chunkSack) {
	a := e.assoc
	if a == nil {
		return
	}
	a.now = now
	a.cumulativeTSNAck = v.cumulativeTSN
	kept := a.pendingChunks[:0]
	for _, pc := range a.pendingChunks {
		if tsnLess(a.cumulativeTSNAck, pc.tsn) {
			kept = append(kept, pc)
		}
	}
	a.pendingChunks = kept
}

func (e *Endpoint) handleHeartbeat(now time.Time, v *chunkHeartbeat) {
	a := e.assoc
	if a == nil || v.isAck {
		return
	}
	a.now = now
	e.sendChunk(a.peerVerificationTag, &chunkHeartbeat{isAck: true, info: v.info})
}

func (e *Endpoint) handleAbort(now time.Time) {
	e.setState(AssociationStateClosed)
}

func (e *Endpoint) handleShutdown(now time.Time, v *chunkShutdown) {
	a := e.assoc
	if a == nil {
		return
	}
	a.now = now
	e.setState(AssociationStateShutdownReceived)
	e.sendChunk(a.peerVerificationTag, &chunkShutdownAck{})
	e.setState(AssociationStateShutdownAckSent)
}

func (e *Endpoint) handleShutdownAck(now time.Time) {
	a := e.assoc
	if a == nil {
		return
	}
	e.sendChunk(a.peerVerificationTag, &chunkShutdownComplete{})
	e.setState(AssociationStateClosed)
}

func (e *Endpoint) setState(s AssociationState) {
	if e.assoc == nil || e.assoc.state == s {
		return
	}
	e.assoc.state = s
	e.emitEvent(AssociationStateChangedEvent{State: s})
}

// HandleWrite queues one application message for transmission on a
// stream, allocating stream bookkeeping (and emitting StreamOpenedEvent)
// the first time this stream id is used locally.
func (e *Endpoint) HandleWrite(msg pipeline.Message) error {
	om, ok := msg.(OutboundMessage)
	if !ok {
		return nil
	}
	a := e.assoc
	if a == nil || a.state != AssociationStateEstablished {
		return ErrAssociationNotEstablished
	}

	st := a.streamFor(om.StreamID)
	if !st.opened {
		st.opened = true
		e.emitEvent(StreamOpenedEvent{StreamID: st.id})
	}

	firstTSN := a.myNextTSN
	chunks := st.packetizeMessage(om.Data, om.PayloadType, om.Unordered, e.cfg.MTU, firstTSN)
	a.myNextTSN += uint32(len(chunks))

	p := &packet{verificationTag: a.peerVerificationTag}
	for _, c := range chunks {
		a.pendingChunks = append(a.pendingChunks, c)
		p.chunks = append(p.chunks, c)
	}
	b, err := p.marshal()
	if err != nil {
		return err
	}
	e.writeOut = append(e.writeOut, pipeline.Datagram{Data: b})
	return nil
}

func (e *Endpoint) PollRead() (pipeline.Message, bool) {
	if len(e.readOut) == 0 {
		return nil, false
	}
	m := e.readOut[0]
	e.readOut = e.readOut[1:]
	return m, true
}

func (e *Endpoint) PollWrite() (pipeline.Message, bool) {
	if e.assoc != nil && e.assoc.sackPending {
		e.assoc.sackPending = false
		sack := &chunkSack{cumulativeTSN: e.assoc.peerCumulativeTSN, aRwnd: defaultAdvertisedWindow}
		p := &packet{verificationTag: e.assoc.peerVerificationTag, chunks: []chunk{sack}}
		if b, err := p.marshal(); err == nil {
			e.writeOut = append(e.writeOut, pipeline.Datagram{Data: b})
		}
	}
	if len(e.writeOut) == 0 {
		return nil, false
	}
	m := e.writeOut[0]
	e.writeOut = e.writeOut[1:]
	return m, true
}

func (e *Endpoint) PollEvent() (pipeline.Event, bool) {
	if len(e.events) == 0 {
		return nil, false
	}
	ev := e.events[0]
	e.events = e.events[1:]
	return ev, true
}

// HandleTimeout retransmits the INIT chunk while waiting for INIT ACK, up
// to maxInitRetransmits (RFC 4960 §5.1's T1-init timer, without the
// doubling-backoff ceiling the spec's ambient timer-discipline section
// leaves to caller discretion for this single-association client).
func (e *Endpoint) HandleTimeout(now time.Time) {
	a := e.assoc
	if a == nil {
		return
	}
	a.now = now
	if a.state == AssociationStateCookieWait && !now.Before(a.retransmitDeadline) {
		a.initRetransmits++
		if a.initRetransmits > maxInitRetransmits {
			e.setState(AssociationStateClosed)
			return
		}
		e.queueInit()
	}
}

func (e *Endpoint) PollTimeout() (time.Time, bool) {
	a := e.assoc
	if a == nil || a.state != AssociationStateCookieWait {
		return time.Time{}, false
	}
	return a.retransmitDeadline, true
}

// State reports the current association state, or Closed if no
// association exists yet.
func (e *Endpoint) State() AssociationState {
	if e.assoc == nil {
		return AssociationStateClosed
	}
	return e.assoc.state
}

func tsnLess(cumulativeAck, tsn uint32) bool {
	return int32(tsn-cumulativeAck) > 0
}

// association holds the per-association state: TSN spaces, the stream
// table, and the outstanding (unacked) send queue.
type association struct {
	state AssociationState
	now   time.Time

	myVerificationTag   uint32
	peerVerificationTag uint32

	myNextTSN         uint32
	peerInitialTSN    uint32
	peerCumulativeTSN uint32
	cumulativeTSNAck  uint32

	streams map[uint16]*stream

	payloadQueue  PayloadQueue
	pendingChunks []*chunkPayloadData
	sackPending   bool

	initRetransmits    int
	retransmitDeadline time.Time
}

func newAssociation(cfg Config) *association {
	return &association{
		state:             AssociationStateClosed,
		myVerificationTag: randutil.NewMathRandomGenerator().Uint32(),
		myNextTSN:         randutil.NewMathRandomGenerator().Uint32(),
		streams:           map[uint16]*stream{},
	}
}

func (a *association) streamFor(id uint16) *stream {
	st, ok := a.streams[id]
	if !ok {
		st = newStream(id)
		a.streams[id] = st
	}
	return st
}
