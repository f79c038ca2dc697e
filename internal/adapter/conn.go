package adapter

import (
	"context"
	"fmt"
	"net"

	"github.com/taesiri/slipstream-go/internal/addr"
	"github.com/taesiri/slipstream-go/internal/errcat"
)

// UDPTransport implements Transport over a UDP socket of a single
// address family. Unlike the teacher's split UDPv4Transport plus
// IPv6 stub, one implementation serves both families: the only
// per-family difference is the "udp4"/"udp6" network string handed to
// net.ListenConfig, and --dns-listen-ipv6 selects which family the
// server binds.
type UDPTransport struct {
	conn net.PacketConn
}

// ListenUDPTransport opens a listening UDP socket of the given family on
// addr, applying the platform socket options (SO_REUSEADDR, and
// SO_REUSEPORT where available) adapted from the teacher's per-OS
// socket_*.go files.
func ListenUDPTransport(family addr.Family, listenAddr string) (*UDPTransport, error) {
	network := "udp4"
	if family == addr.V6 {
		network = "udp6"
	}

	lc := net.ListenConfig{Control: platformControl}
	conn, err := lc.ListenPacket(context.Background(), network, listenAddr)
	if err != nil {
		return nil, &errcat.IOError{Operation: "listen " + network, Err: err}
	}
	return &UDPTransport{conn: conn}, nil
}

// DialUDPTransport opens a UDP socket bound to an ephemeral local port
// and associated with dest as its default destination — the client
// side's socket toward a single resolver.
func DialUDPTransport(family addr.Family, dest *net.UDPAddr) (*UDPTransport, error) {
	network := "udp4"
	if family == addr.V6 {
		network = "udp6"
	}

	conn, err := net.DialUDP(network, nil, dest)
	if err != nil {
		return nil, &errcat.IOError{Operation: "dial " + network, Err: err}
	}
	return &UDPTransport{conn: conn}, nil
}

func (t *UDPTransport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	select {
	case <-ctx.Done():
		return &errcat.IOError{Operation: "send", Err: ctx.Err()}
	default:
	}

	var n int
	var err error
	if udpConn, ok := t.conn.(*net.UDPConn); ok && dest == nil {
		n, err = udpConn.Write(packet)
	} else {
		n, err = t.conn.WriteTo(packet, dest)
	}
	if err != nil {
		return &errcat.IOError{Operation: "send", Err: err}
	}
	if n != len(packet) {
		return &errcat.IOError{Operation: "send", Err: fmt.Errorf("partial write: %d/%d bytes", n, len(packet))}
	}
	return nil
}

func (t *UDPTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, nil, &errcat.IOError{Operation: "receive", Err: ctx.Err()}
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, &errcat.IOError{Operation: "set read deadline", Err: err}
		}
	}

	bufPtr := getBuffer()
	defer putBuffer(bufPtr)
	buf := *bufPtr

	n, srcAddr, err := t.conn.ReadFrom(buf)
	if err != nil {
		return nil, nil, &errcat.IOError{Operation: "receive", Err: err}
	}

	out := make([]byte, n)
	copy(out, buf[:n])
	return out, srcAddr, nil
}

func (t *UDPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(); err != nil {
		return &errcat.IOError{Operation: "close", Err: err}
	}
	return nil
}
