package adapter

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/taesiri/slipstream-go/internal/wire"
)

// dnsAddr is the synthetic, stable peer address handed to quic-go in
// place of a DNS resolver's ever-changing UDP source port (and, on the
// server side, in place of whichever recursive resolver happened to
// forward a given query). quic-go only needs a consistent identity per
// logical connection; the real per-datagram source/destination
// bookkeeping needed to route a response back through the resolver that
// asked for it lives inside ClientConn and ServerConn below, not here.
type dnsAddr struct {
	domain string
}

func (a dnsAddr) Network() string { return "dns" }
func (a dnsAddr) String() string  { return a.domain }

var errConnClosed = errors.New("dns packet connection closed")

type rxResult struct {
	payload []byte
	err     error
}

// ClientConn is a net.PacketConn that makes the client side of the
// covert channel look like an ordinary UDP socket to a QUIC transport:
// every WriteTo becomes one DNS query, every delivered payload comes
// from that query's response. Grounded on
// other_examples/eb95ee6a_minor-way-slipstream-go__internal-protocol-dns_conn.go.go's
// split between an engine that drains the socket and one that answers
// writes, minus its poll-interval ticker (that lives in
// internal/tunnel.KeepAlive).
type ClientConn struct {
	transport Transport
	domain    string
	resolvers []net.Addr
	peer      net.Addr
	failures  *DecodeFailureCounter

	mu     sync.Mutex
	nextID uint16

	rx        chan rxResult
	done      chan struct{}
	closeOnce sync.Once
}

// NewClientConn wires transport (an unconnected UDP socket, so it can
// target any address per datagram) into a PacketConn. Outbound queries
// are spread round-robin across resolvers, which must be non-empty.
// failures counts decode errors observed on the receive path (spec.md
// §4.3); pass nil to get a private counter whose Snapshot nobody reads.
func NewClientConn(transport Transport, domain string, resolvers []net.Addr, failures *DecodeFailureCounter) *ClientConn {
	if failures == nil {
		failures = NewDecodeFailureCounter()
	}
	c := &ClientConn{
		transport: transport,
		domain:    domain,
		resolvers: resolvers,
		peer:      dnsAddr{domain: domain},
		failures:  failures,
		rx:        make(chan rxResult, 64),
		done:      make(chan struct{}),
	}
	go c.rxEngine()
	return c
}

// PeerAddr is the stable address to pass as the remote end when dialing
// a quic.Transport over this conn.
func (c *ClientConn) PeerAddr() net.Addr { return c.peer }

func (c *ClientConn) rxEngine() {
	for {
		msg, _, err := c.transport.Receive(context.Background())
		if err == nil && msg == nil {
			// No datagram ready yet. A real UDPTransport always blocks
			// or errors instead of returning this; only a test double
			// with an empty canned queue takes this path.
			select {
			case <-time.After(time.Millisecond):
			case <-c.done:
				return
			}
			continue
		}
		if err != nil {
			select {
			case c.rx <- rxResult{err: err}:
			case <-c.done:
			}
			return
		}

		_, _, payload, decErr := DecodeInboundResponse(msg)
		if decErr != nil {
			// Dropped and counted; the query that produced this garbage
			// simply times out and QUIC retransmits.
			c.failures.Record(decErr)
			continue
		}
		if payload == nil {
			// NODATA: this was a keepalive poll's response, not a
			// packet QUIC is waiting on.
			continue
		}

		select {
		case c.rx <- rxResult{payload: payload}:
		case <-c.done:
			return
		}
	}
}

func (c *ClientConn) ReadFrom(p []byte) (int, net.Addr, error) {
	select {
	case res := <-c.rx:
		if res.err != nil {
			return 0, nil, res.err
		}
		return copy(p, res.payload), c.peer, nil
	case <-c.done:
		return 0, nil, errConnClosed
	}
}

func (c *ClientConn) WriteTo(p []byte, _ net.Addr) (int, error) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	resolver := c.resolvers[int(id)%len(c.resolvers)]
	c.mu.Unlock()

	msg, err := EncodeOutboundQuery(id, c.domain, p)
	if err != nil {
		return 0, err
	}
	if err := c.transport.Send(context.Background(), msg, resolver); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *ClientConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.transport.Close()
}

func (c *ClientConn) LocalAddr() net.Addr                { return c.peer }
func (c *ClientConn) SetDeadline(t time.Time) error      { return nil }
func (c *ClientConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *ClientConn) SetWriteDeadline(t time.Time) error { return nil }

var _ net.PacketConn = (*ClientConn)(nil)

// pendingQuery is a client query the server has received but not yet
// answered. DNS is pull-only: the server can hand data to the client
// only by answering a query the client already sent, so every WriteTo
// on ServerConn consumes the oldest unanswered one.
type pendingQuery struct {
	id    uint16
	qname wire.Labels
	src   net.Addr
}

// ServerConn is the server-side mirror of ClientConn: it drains queries
// off the listening socket, forwards their payloads upward, and answers
// them (in FIFO order) with whatever QUIC hands it to write.
type ServerConn struct {
	transport Transport
	domain    string
	peer      net.Addr
	failures  *DecodeFailureCounter

	mu      sync.Mutex
	pending []pendingQuery

	rx        chan rxResult
	done      chan struct{}
	closeOnce sync.Once
}

// NewServerConn wires transport (a listening UDP socket) into a
// PacketConn. failures counts decode errors observed on the receive
// path (spec.md §4.3); pass nil to get a private counter whose Snapshot
// nobody reads.
func NewServerConn(transport Transport, domain string, failures *DecodeFailureCounter) *ServerConn {
	if failures == nil {
		failures = NewDecodeFailureCounter()
	}
	c := &ServerConn{
		transport: transport,
		domain:    domain,
		peer:      dnsAddr{domain: domain},
		failures:  failures,
		rx:        make(chan rxResult, 64),
		done:      make(chan struct{}),
	}
	go c.rxEngine()
	return c
}

func (c *ServerConn) PeerAddr() net.Addr { return c.peer }

func (c *ServerConn) rxEngine() {
	for {
		msg, src, err := c.transport.Receive(context.Background())
		if err == nil && msg == nil {
			select {
			case <-time.After(time.Millisecond):
			case <-c.done:
				return
			}
			continue
		}
		if err != nil {
			select {
			case c.rx <- rxResult{err: err}:
			case <-c.done:
			}
			return
		}

		h, payload, decErr := DecodeInboundQuery(msg, c.domain)
		if decErr != nil {
			c.failures.Record(decErr)
			continue
		}
		qname, buildErr := wire.BuildQname(payload, c.domain)
		if buildErr != nil {
			c.failures.Record(buildErr)
			continue
		}

		c.mu.Lock()
		c.pending = append(c.pending, pendingQuery{id: h.ID, qname: qname, src: src})
		c.mu.Unlock()

		if len(payload) == 0 {
			continue // a bare poll: queued to be answered, nothing to deliver upward
		}

		select {
		case c.rx <- rxResult{payload: payload}:
		case <-c.done:
			return
		}
	}
}

func (c *ServerConn) ReadFrom(p []byte) (int, net.Addr, error) {
	select {
	case res := <-c.rx:
		if res.err != nil {
			return 0, nil, res.err
		}
		return copy(p, res.payload), c.peer, nil
	case <-c.done:
		return 0, nil, errConnClosed
	}
}

// WriteTo answers the oldest query still waiting for a response. It
// returns an error if no query is currently pending; the caller (QUIC's
// send loop) will retry once the client's next poll arrives, same as
// any other lost UDP datagram.
func (c *ServerConn) WriteTo(p []byte, _ net.Addr) (int, error) {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return 0, errors.New("no pending query to answer")
	}
	pq := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()

	question := wire.Question{Name: pq.qname, QType: wire.RRTypeTXT, QClass: wire.ClassIN}
	msg, err := EncodeOutboundResponse(pq.id, question, p)
	if err != nil {
		return 0, err
	}
	if err := c.transport.Send(context.Background(), msg, pq.src); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *ServerConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.transport.Close()
}

func (c *ServerConn) LocalAddr() net.Addr                { return c.peer }
func (c *ServerConn) SetDeadline(t time.Time) error      { return nil }
func (c *ServerConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *ServerConn) SetWriteDeadline(t time.Time) error { return nil }

var _ net.PacketConn = (*ServerConn)(nil)
