package datachannel

import (
	"errors"
	"fmt"

	"github.com/pion/logging"

	"github.com/webrtc-rs/rtc/internal/sctp"
)

// State is the lifecycle state of a data channel (RFC 8832 §5, draft
// rtcweb-data-channel §6.2).
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config describes the parameters a data channel is created or accepted with.
type Config struct {
	ChannelType          ChannelType
	Priority             uint16
	ReliabilityParameter uint32
	Label                string
	Protocol             string

	// BufferedAmountLowThreshold and BufferedAmountHighThreshold gate the
	// OnBufferedAmountLow/OnBufferedAmountHigh single-shot crossings.
	BufferedAmountLowThreshold  uint64
	BufferedAmountHighThreshold uint64
}

// Channel is one SCTP-stream-backed data channel.
type Channel struct {
	id    uint16
	local bool // true if we initiated the open
	cfg   Config
	state State

	// opened is false for a locally created channel whose DATA_CHANNEL_OPEN
	// has not been transmitted yet, because the SCTP association was not
	// Established at CreateChannel time. Pump retries it once the
	// association comes up.
	opened bool

	bufferedAmount uint64
	belowLow       bool // whether the last observed crossing put us under the low watermark
	aboveHigh      bool // whether the last observed crossing put us over the high watermark
}

func (c *Channel) ID() uint16      { return c.id }
func (c *Channel) State() State    { return c.state }
func (c *Channel) Label() string   { return c.cfg.Label }
func (c *Channel) BufferedAmount() uint64 { return c.bufferedAmount }

// Events emitted by the Manager, analogous to sctp's event set one layer up.
type ChannelOpenedEvent struct{ ID uint16 }
type ChannelClosedEvent struct{ ID uint16 }
type BufferedAmountLowEvent struct{ ID uint16 }
type BufferedAmountHighEvent struct{ ID uint16 }

// InboundMessage is one fully reassembled application message delivered on
// a data channel.
type InboundMessage struct {
	ID       uint16
	Data     []byte
	IsString bool
}

// Manager multiplexes data channels over a single SCTP association. It owns
// the underlying sctp.Endpoint and translates between DCEP control messages
// and channel-level state transitions, per the Connecting/Open/Closing/Closed
// state machine.
type Manager struct {
	log   logging.LeveledLogger
	sctp  *sctp.Endpoint
	local bool // DTLS client: allocate odd stream ids, else even

	nextLocalID uint16
	channels    map[uint16]*Channel

	events   []interface{}
	messages []InboundMessage
}

// SetClientSide corrects the odd/even stream id parity after the DTLS role
// becomes known, for a Manager created speculatively by a CreateChannel
// call made before any SDP was exchanged. Safe only while every local
// channel is still unopened (its DATA_CHANNEL_OPEN not yet transmitted);
// callers finalize the DTLS role, and therefore this, before the SCTP
// association can reach Established and flush them.
func (m *Manager) SetClientSide(clientSide bool) {
	if clientSide == m.local {
		return
	}
	m.local = clientSide
	firstID := uint16(0)
	if clientSide {
		firstID = 1
	}
	renumbered := make(map[uint16]*Channel, len(m.channels))
	next := firstID
	for _, ch := range m.channels {
		if !ch.local {
			renumbered[ch.id] = ch
			continue
		}
		ch.id = next
		next += 2
		renumbered[ch.id] = ch
	}
	m.channels = renumbered
	m.nextLocalID = next
}

// NewManager wraps an SCTP endpoint with data-channel semantics. clientSide
// must match the DTLS role: stream ids are odd for the DTLS client, even for
// the DTLS server (RFC 8832 §6.1).
func NewManager(ep *sctp.Endpoint, clientSide bool, loggerFactory logging.LoggerFactory) *Manager {
	var log logging.LeveledLogger
	if loggerFactory != nil {
		log = loggerFactory.NewLogger("datachannel")
	}
	firstID := uint16(0)
	if clientSide {
		firstID = 1
	}
	return &Manager{
		log:         log,
		sctp:        ep,
		local:       clientSide,
		nextLocalID: firstID,
		channels:    make(map[uint16]*Channel),
	}
}

// CreateChannel allocates a stream id and registers the channel in
// Connecting state. The DATA_CHANNEL_OPEN message is sent immediately if
// the SCTP association is already Established; otherwise it is queued and
// Pump flushes it once the association comes up, so a channel can be
// created before the offer/answer exchange that stands up the association.
func (m *Manager) CreateChannel(cfg Config) (*Channel, error) {
	id := m.nextLocalID
	m.nextLocalID += 2

	ch := &Channel{id: id, local: true, cfg: cfg, state: StateConnecting}
	m.channels[id] = ch

	if err := m.sendOpen(ch); err != nil {
		if !isNotEstablished(err) {
			delete(m.channels, id)
			return nil, err
		}
	}
	return ch, nil
}

// sendOpen marshals and transmits ch's DATA_CHANNEL_OPEN, marking it opened
// on success. Safe to call more than once; a no-op once ch.opened is true.
func (m *Manager) sendOpen(ch *Channel) error {
	if ch.opened {
		return nil
	}
	open := &ChannelOpen{
		ChannelType:          ch.cfg.ChannelType,
		Priority:             ch.cfg.Priority,
		ReliabilityParameter: ch.cfg.ReliabilityParameter,
		Label:                []byte(ch.cfg.Label),
		Protocol:             []byte(ch.cfg.Protocol),
	}
	raw, err := open.Marshal()
	if err != nil {
		return fmt.Errorf("marshal DATA_CHANNEL_OPEN: %w", err)
	}

	if err := m.sctp.HandleWrite(sctp.OutboundMessage{
		StreamID:    ch.id,
		PayloadType: sctp.PayloadTypeDCEP,
		Data:        raw,
	}); err != nil {
		return err
	}
	ch.opened = true
	return nil
}

// isNotEstablished reports whether err is the "association not yet
// Established" rejection HandleWrite returns, as opposed to a hard failure
// (bad stream id, marshal error upstream, etc).
func isNotEstablished(err error) bool {
	return errors.Is(err, sctp.ErrAssociationNotEstablished)
}

// flushPendingOpens retries the DATA_CHANNEL_OPEN send for every local
// channel created before the SCTP association reached Established.
func (m *Manager) flushPendingOpens() {
	for _, ch := range m.channels {
		if ch.local && !ch.opened {
			if err := m.sendOpen(ch); err != nil && m.log != nil {
				m.log.Warnf("datachannel: retry DATA_CHANNEL_OPEN for stream %d: %v", ch.id, err)
			}
		}
	}
}

// Send enqueues an application message on an open channel. Empty payloads
// use the *_EMPTY PPIDs per RFC 8831 §8.
func (m *Manager) Send(id uint16, payload []byte, isString bool) error {
	ch, ok := m.channels[id]
	if !ok {
		return fmt.Errorf("datachannel: unknown channel %d", id)
	}
	if ch.state != StateOpen {
		return fmt.Errorf("datachannel: channel %d not open (state %s)", id, ch.state)
	}

	var ppid sctp.PayloadProtocolIdentifier
	switch {
	case !isString && len(payload) > 0:
		ppid = sctp.PayloadTypeBinary
	case !isString && len(payload) == 0:
		ppid = sctp.PayloadTypeBinaryEmpty
	case isString && len(payload) > 0:
		ppid = sctp.PayloadTypeString
	case isString && len(payload) == 0:
		ppid = sctp.PayloadTypeStringEmpty
	}

	if err := m.sctp.HandleWrite(sctp.OutboundMessage{StreamID: id, PayloadType: ppid, Data: payload}); err != nil {
		return err
	}

	ch.bufferedAmount += uint64(len(payload))
	m.checkWatermarks(ch)
	return nil
}

// Ack notifies the manager that the SCTP layer has confirmed transmission of
// n bytes previously queued on the channel, decreasing buffered_amount.
func (m *Manager) Ack(id uint16, n uint64) {
	ch, ok := m.channels[id]
	if !ok {
		return
	}
	if n > ch.bufferedAmount {
		n = ch.bufferedAmount
	}
	ch.bufferedAmount -= n
	m.checkWatermarks(ch)
}

func (m *Manager) checkWatermarks(ch *Channel) {
	low := ch.cfg.BufferedAmountLowThreshold
	high := ch.cfg.BufferedAmountHighThreshold

	belowLow := ch.bufferedAmount <= low
	if belowLow && !ch.belowLow {
		m.events = append(m.events, BufferedAmountLowEvent{ID: ch.id})
	}
	ch.belowLow = belowLow

	if high > 0 {
		aboveHigh := ch.bufferedAmount >= high
		if aboveHigh && !ch.aboveHigh {
			m.events = append(m.events, BufferedAmountHighEvent{ID: ch.id})
		}
		ch.aboveHigh = aboveHigh
	}
}

// Close begins the teardown of a channel. The underlying SCTP stream is
// reset out of band; here we just mark the local state.
func (m *Manager) Close(id uint16) error {
	ch, ok := m.channels[id]
	if !ok {
		return fmt.Errorf("datachannel: unknown channel %d", id)
	}
	if ch.state == StateClosed {
		return nil
	}
	// The SCTP layer does not yet expose a stream-reset confirmation, so
	// Closing is not externally observable; this collapses straight to
	// Closed rather than waiting on a signal that never arrives.
	ch.state = StateClosed
	m.events = append(m.events, ChannelClosedEvent{ID: id})
	return nil
}

// Pump drains newly available reads and events from the underlying SCTP
// endpoint, handling DCEP control traffic and surfacing application
// messages and channel-level events. Call after every HandleRead/HandleTimeout
// on the SCTP endpoint that may have produced new output.
func (m *Manager) Pump() {
	for {
		evt, ok := m.sctp.PollEvent()
		if !ok {
			break
		}
		m.handleSCTPEvent(evt)
	}
	for {
		msg, ok := m.sctp.PollRead()
		if !ok {
			break
		}
		in, ok := msg.(sctp.InboundMessage)
		if !ok {
			continue
		}
		m.handleInbound(in)
	}
}

func (m *Manager) handleSCTPEvent(evt interface{}) {
	switch e := evt.(type) {
	case sctp.StreamOpenedEvent:
		if _, ok := m.channels[e.StreamID]; !ok {
			// Remote-initiated stream; a placeholder channel is registered
			// now and is opened once the DCEP open message arrives via
			// PollRead.
			m.channels[e.StreamID] = &Channel{id: e.StreamID, local: false, state: StateConnecting}
		}
	case sctp.StreamClosedEvent:
		if ch, ok := m.channels[e.StreamID]; ok && ch.state != StateClosed {
			ch.state = StateClosed
			m.events = append(m.events, ChannelClosedEvent{ID: e.StreamID})
		}
	case sctp.AssociationStateChangedEvent:
		if e.State == sctp.AssociationStateEstablished {
			m.flushPendingOpens()
		}
	}
}

func (m *Manager) handleInbound(in sctp.InboundMessage) {
	ch := m.channels[in.StreamID]
	if ch == nil {
		ch = &Channel{id: in.StreamID, local: false, state: StateConnecting}
		m.channels[in.StreamID] = ch
	}

	switch in.PayloadType {
	case sctp.PayloadTypeDCEP:
		m.handleDCEP(ch, in.Data)
	case sctp.PayloadTypeString, sctp.PayloadTypeStringEmpty:
		m.messages = append(m.messages, InboundMessage{ID: ch.id, Data: in.Data, IsString: true})
	case sctp.PayloadTypeBinary, sctp.PayloadTypeBinaryEmpty:
		m.messages = append(m.messages, InboundMessage{ID: ch.id, Data: in.Data, IsString: false})
	}
}

func (m *Manager) handleDCEP(ch *Channel, raw []byte) {
	msg, err := Parse(raw)
	if err != nil {
		if m.log != nil {
			m.log.Warnf("datachannel: failed to parse DCEP message: %v", err)
		}
		return
	}

	switch v := msg.(type) {
	case *ChannelOpen:
		ch.cfg = Config{
			ChannelType:          v.ChannelType,
			Priority:             v.Priority,
			ReliabilityParameter: v.ReliabilityParameter,
			Label:                string(v.Label),
			Protocol:             string(v.Protocol),
		}
		ack := &ChannelAck{}
		raw, err := ack.Marshal()
		if err != nil {
			return
		}
		if err := m.sctp.HandleWrite(sctp.OutboundMessage{StreamID: ch.id, PayloadType: sctp.PayloadTypeDCEP, Data: raw}); err != nil {
			return
		}
		ch.state = StateOpen
		m.events = append(m.events, ChannelOpenedEvent{ID: ch.id})
	case *ChannelAck:
		if ch.state == StateConnecting {
			ch.state = StateOpen
			m.events = append(m.events, ChannelOpenedEvent{ID: ch.id})
		}
	}
}

// PollEvent returns the next pending channel-level event, if any.
func (m *Manager) PollEvent() (interface{}, bool) {
	if len(m.events) == 0 {
		return nil, false
	}
	e := m.events[0]
	m.events = m.events[1:]
	return e, true
}

// PollMessage returns the next reassembled application message, if any.
func (m *Manager) PollMessage() (InboundMessage, bool) {
	if len(m.messages) == 0 {
		return InboundMessage{}, false
	}
	msg := m.messages[0]
	m.messages = m.messages[1:]
	return msg, true
}

// Channel looks up a channel by stream id.
func (m *Manager) Channel(id uint16) (*Channel, bool) {
	ch, ok := m.channels[id]
	return ch, ok
}
