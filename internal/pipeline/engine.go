package pipeline

import (
	"fmt"
	"time"

	"github.com/pion/logging"
)

// maxTimeoutIterations bounds a single HandleTimeout call against a handler
// that keeps re-arming a zero-duration timer (spec §9 open question: "some
// example loops continue on a zero-duration timeout without an upper
// bound").
const maxTimeoutIterations = 1000

// ErrTimeoutLoopLimit is returned when a single Engine.HandleTimeout call
// exceeds maxTimeoutIterations without every handler's next deadline
// advancing past now.
var ErrTimeoutLoopLimit = fmt.Errorf("pipeline: handler re-armed timer %d times without advancing past now", maxTimeoutIterations)

// Engine orchestrates an ordered stack of Handlers, draining each one's
// poll queues into the next handler's matching handle method (spec §4.1).
// Handlers[0] is outermost (the Demuxer); Handlers[len-1] is innermost (the
// endpoint-facing layer, e.g. the DataChannel/Media layer).
type Engine struct {
	Handlers []Handler

	log logging.LeveledLogger

	// readOut / writeOut / eventOut collect what ascended past the
	// innermost handler (readOut, eventOut) or descended past the
	// outermost handler (writeOut) — these are what the caller polls.
	readOut  []Message
	writeOut []Message
	eventOut []Event
}

// NewEngine builds an Engine over the given handler stack, outermost first.
func NewEngine(handlers []Handler, loggerFactory logging.LoggerFactory) *Engine {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Engine{
		Handlers: handlers,
		log:      loggerFactory.NewLogger("pipeline"),
	}
}

// HandleRead feeds one inbound datagram into the outermost handler and
// drains the read path inward, handler by handler, until nothing more
// ascends. Anything that ascends past the innermost handler is queued for
// PollRead.
func (e *Engine) HandleRead(msg Message) {
	e.drainRead(0, msg)
}

func (e *Engine) drainRead(i int, msg Message) {
	if i >= len(e.Handlers) {
		e.readOut = append(e.readOut, msg)
		return
	}
	e.Handlers[i].HandleRead(msg)
	for {
		out, ok := e.Handlers[i].PollRead()
		if !ok {
			break
		}
		e.drainRead(i+1, out)
	}
	e.drainEvents()
}

// HandleWrite feeds one outbound application message into the innermost
// handler and drains the write path outward until nothing more descends.
// Anything that descends past the outermost handler is queued for
// PollWrite (these are the bytes the caller must send on the wire).
func (e *Engine) HandleWrite(msg Message) error {
	if len(e.Handlers) == 0 {
		e.writeOut = append(e.writeOut, msg)
		return nil
	}
	last := len(e.Handlers) - 1
	if err := e.Handlers[last].HandleWrite(msg); err != nil {
		return err
	}
	e.drainWrite(last)
	e.drainEvents()
	return nil
}

func (e *Engine) drainWrite(i int) {
	for {
		out, ok := e.Handlers[i].PollWrite()
		if !ok {
			break
		}
		if i == 0 {
			e.writeOut = append(e.writeOut, out)
			continue
		}
		if err := e.Handlers[i-1].HandleWrite(out); err != nil {
			e.log.Warnf("pipeline: handler %d rejected descended write: %v", i-1, err)
			continue
		}
		e.drainWrite(i - 1)
	}
}

// HandleEvent feeds an internal event into the outermost handler and lets
// it ascend exactly like a read, except events never get chunked/encoded —
// they are typed signals, not bytes.
func (e *Engine) HandleEvent(evt Event) {
	e.drainEvent(0, evt)
}

func (e *Engine) drainEvent(i int, evt Event) {
	if i >= len(e.Handlers) {
		e.eventOut = append(e.eventOut, evt)
		return
	}
	e.Handlers[i].HandleEvent(evt)
	e.drainEvents()
	e.drainEvent(i+1, evt)
}

// drainEvents collects PollEvent output from every handler after a
// HandleRead/HandleWrite/HandleEvent call, since any layer may raise an
// event as a side effect (e.g. DTLS raising HandshakeComplete during
// HandleRead).
func (e *Engine) drainEvents() {
	for _, h := range e.Handlers {
		for {
			evt, ok := h.PollEvent()
			if !ok {
				break
			}
			e.eventOut = append(e.eventOut, evt)
		}
	}
}

// HandleTimeout advances every handler's timers to now. A handler that
// re-arms a timer at or before now is re-ticked until it stops doing so or
// the iteration cap is hit.
func (e *Engine) HandleTimeout(now time.Time) error {
	for iter := 0; ; iter++ {
		if iter >= maxTimeoutIterations {
			return ErrTimeoutLoopLimit
		}
		fired := false
		for _, h := range e.Handlers {
			deadline, ok := h.PollTimeout()
			if !ok || deadline.After(now) {
				continue
			}
			h.HandleTimeout(now)
			fired = true
		}
		e.drainEvents()
		if !fired {
			return nil
		}
	}
}

// PollTimeout returns the soonest deadline across every handler, or false
// if nothing has a timer armed.
func (e *Engine) PollTimeout() (time.Time, bool) {
	var min time.Time
	found := false
	for _, h := range e.Handlers {
		deadline, ok := h.PollTimeout()
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

// PollRead returns the next fully-ascended application message, if any.
func (e *Engine) PollRead() (Message, bool) {
	if len(e.readOut) == 0 {
		return nil, false
	}
	msg := e.readOut[0]
	e.readOut = e.readOut[1:]
	return msg, true
}

// PollWrite returns the next outbound datagram the caller must send.
func (e *Engine) PollWrite() (Message, bool) {
	if len(e.writeOut) == 0 {
		return nil, false
	}
	msg := e.writeOut[0]
	e.writeOut = e.writeOut[1:]
	return msg, true
}

// PollEvent returns the next application-visible event, if any.
func (e *Engine) PollEvent() (Event, bool) {
	if len(e.eventOut) == 0 {
		return nil, false
	}
	evt := e.eventOut[0]
	e.eventOut = e.eventOut[1:]
	return evt, true
}
