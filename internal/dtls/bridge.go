package dtls

import "net"

// bridge glues the pipeline's poll-based datagram queues to the
// net.Conn interface github.com/pion/dtls/v3 requires. libConn is handed
// to dtls.Client/dtls.Server and runs on its own goroutine (the handshake
// call blocks); coreConn is drained/fed from the sans-I/O side via plain
// method calls, never blocking the caller, by way of two small pump
// goroutines that exist only for the lifetime of one handshake+session.
//
// This is the one place in the module that owns goroutines: the spec
// carves the DTLS record machine out of the core's sans-I/O scope ("the
// DTLS record machine ... consumed through stable interfaces"), so the
// library's blocking shape is contained here and never leaks upward.
type bridge struct {
	libConn  net.Conn
	coreConn net.Conn

	toLib   chan []byte
	fromLib chan []byte
	closeCh chan struct{}
}

func newBridge() *bridge {
	lib, core := net.Pipe()
	b := &bridge{
		libConn:  lib,
		coreConn: core,
		toLib:    make(chan []byte, 64),
		fromLib:  make(chan []byte, 64),
		closeCh:  make(chan struct{}),
	}
	go b.writerPump()
	go b.readerPump()
	return b
}

func (b *bridge) writerPump() {
	for {
		select {
		case data, ok := <-b.toLib:
			if !ok {
				return
			}
			if _, err := b.coreConn.Write(data); err != nil {
				return
			}
		case <-b.closeCh:
			return
		}
	}
}

func (b *bridge) readerPump() {
	buf := make([]byte, 65536)
	for {
		n, err := b.coreConn.Read(buf)
		if err != nil {
			return
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		select {
		case b.fromLib <- out:
		case <-b.closeCh:
			return
		}
	}
}

// feed delivers one inbound datagram's payload to the library side.
func (b *bridge) feed(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case b.toLib <- cp:
	case <-b.closeCh:
	}
}

// drain returns the next outbound record the library produced, if any.
func (b *bridge) drain() ([]byte, bool) {
	select {
	case data := <-b.fromLib:
		return data, true
	default:
		return nil, false
	}
}

func (b *bridge) close() {
	select {
	case <-b.closeCh:
	default:
		close(b.closeCh)
	}
	_ = b.libConn.Close()
	_ = b.coreConn.Close()
}
