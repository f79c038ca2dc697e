// Package adapter implements the transport adapter of spec.md §4.3: the
// thin layer that maps between covert datagrams handed to it by the
// reliable transport and DNS messages produced/consumed by
// internal/wire. It owns the platform-capability record, the UDP
// socket, and the per-kind decode-failure counter; it never implements
// retransmission, reordering, or congestion control itself.
package adapter

import (
	"context"
	"net"
)

// Transport is the socket-level contract the adapter's UDP
// implementations satisfy. It mirrors the shape inferred from the
// teacher's own transport package (its mock and UDPv4 implementation
// both speak this shape, though no single file there names the
// interface explicitly).
type Transport interface {
	Send(ctx context.Context, packet []byte, dest net.Addr) error
	Receive(ctx context.Context) ([]byte, net.Addr, error)
	Close() error
}
