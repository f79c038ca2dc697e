// Package tunnel glues a local TCP socket, a QUIC connection, and the
// DNS transport adapter into the two runtime shapes the binaries need:
// a client session (accept TCP, dial the server over DNS) and a server
// session (accept QUIC streams over DNS, dial the upstream TCP target).
package tunnel

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/rs/zerolog"

	"github.com/taesiri/slipstream-go/internal/adapter"
)

// ClientOption configures a ClientSession before Run starts it.
type ClientOption func(*ClientSession) error

func WithClientLogger(logger zerolog.Logger) ClientOption {
	return func(s *ClientSession) error {
		s.logger = logger
		return nil
	}
}

// WithClientPollLogger sets the logger used for keep-alive poll traffic,
// kept separate from WithClientLogger so --debug-poll can raise this
// subsystem's verbosity without also enabling --debug-streams.
func WithClientPollLogger(logger zerolog.Logger) ClientOption {
	return func(s *ClientSession) error {
		s.pollLogger = logger
		return nil
	}
}

func WithClientCongestionControl(cc CongestionControl) ClientOption {
	return func(s *ClientSession) error {
		s.congestion = cc
		return nil
	}
}

func WithClientKeepAliveInterval(d time.Duration) ClientOption {
	return func(s *ClientSession) error {
		if d <= 0 {
			return fmt.Errorf("keep-alive interval must be positive, got %s", d)
		}
		s.keepAlive = d
		return nil
	}
}

// WithGSO records whether UDP generic segmentation offload is enabled.
// The value only appears in log fields; it is not passed to quic-go,
// which decides on its own whether to use GSO.
func WithGSO(enabled bool) ClientOption {
	return func(s *ClientSession) error {
		s.gso = enabled
		return nil
	}
}

// ClientSession is the client half: it accepts local TCP connections on
// tcpListenAddr, opens one QUIC stream to the server over the DNS adapter
// per connection, and pumps bytes between them, several connections
// concurrently (pattern grounded on
// dnstt-server's handleStream: two goroutines, one io.Copy each
// direction, closing the peer when either side ends).
type ClientSession struct {
	domain        string
	resolvers     []net.Addr
	transport     adapter.Transport
	tcpListenAddr string

	congestion CongestionControl
	keepAlive  time.Duration
	gso        bool

	logger     zerolog.Logger
	pollLogger zerolog.Logger

	decodeFailures *adapter.DecodeFailureCounter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClientSession builds a session over an already-bound, unconnected
// UDP transport (so outbound queries can round-robin across resolvers).
func NewClientSession(domain string, resolvers []net.Addr, transport adapter.Transport, tcpListenPort uint16, opts ...ClientOption) (*ClientSession, error) {
	if len(resolvers) == 0 {
		return nil, fmt.Errorf("at least one resolver is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &ClientSession{
		domain:         domain,
		resolvers:      resolvers,
		transport:      transport,
		tcpListenAddr:  fmt.Sprintf(":%d", tcpListenPort),
		congestion:     DCubic,
		keepAlive:      400 * time.Millisecond,
		logger:         zerolog.Nop(),
		pollLogger:     zerolog.Nop(),
		decodeFailures: adapter.NewDecodeFailureCounter(),
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			cancel()
			return nil, err
		}
	}
	return s, nil
}

// Run dials the server and blocks accepting local TCP connections until
// ctx is canceled or Close is called.
func (s *ClientSession) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopAfter := context.AfterFunc(s.ctx, cancel)
	defer stopAfter()

	pconn := adapter.NewClientConn(s.transport, s.domain, s.resolvers, s.decodeFailures)
	defer pconn.Close()
	defer s.logDecodeFailures()

	tr := &quic.Transport{Conn: pconn}
	defer tr.Close()

	quicConf := &quic.Config{
		KeepAlivePeriod: s.keepAlive,
		MaxIdleTimeout:  30 * time.Second,
	}
	tlsConf := &tls.Config{
		InsecureSkipVerify: true, // the handshake itself is out of scope; see DESIGN.md
		NextProtos:         []string{"slipstream"},
	}

	s.logger.Info().Str("domain", s.domain).Str("congestion_control", s.congestion.String()).
		Bool("gso", s.gso).Msg("dialing server over dns")

	conn, err := tr.Dial(ctx, pconn.PeerAddr(), tlsConf, quicConf)
	if err != nil {
		return fmt.Errorf("dial quic over dns: %w", err)
	}
	defer conn.CloseWithError(0, "client shutting down")

	keepAlive := NewKeepAlive(pconn, s.keepAlive, s.pollLogger)
	go keepAlive.Run(s.ctx)
	defer keepAlive.Stop()

	ln, err := net.Listen("tcp", s.tcpListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.tcpListenAddr, err)
	}
	defer ln.Close()

	s.logger.Info().Str("addr", s.tcpListenAddr).Msg("accepting local connections")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		tcpConn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}

		stream, err := conn.OpenStreamSync(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("open quic stream")
			tcpConn.Close()
			continue
		}

		s.logger.Debug().Uint64("stream_id", uint64(stream.StreamID())).Msg("stream opened")
		s.wg.Add(1)
		go s.pump(tcpConn, stream)
	}
}

func (s *ClientSession) pump(tcpConn net.Conn, stream quic.Stream) {
	defer s.wg.Done()
	pumpStreams(s.logger, tcpConn, stream)
}

// logDecodeFailures reports the adapter's per-kind decode-failure counts
// (spec.md §4.3) once the session ends, so a dropped-datagram count that
// accumulates silently during a run is at least visible afterward.
func (s *ClientSession) logDecodeFailures() {
	counts := s.decodeFailures.Snapshot()
	if len(counts) == 0 {
		return
	}
	event := s.logger.Info()
	for kind, n := range counts {
		event = event.Uint64(kind.String(), n)
	}
	event.Msg("decode failures")
}

// Close cancels the session's lifecycle context; Run returns once any
// in-flight accept unblocks.
func (s *ClientSession) Close() {
	s.cancel()
}

// pumpStreams bridges tcpConn and stream bidirectionally. Each copy
// closes its destination when it completes (stream.Close ends only the
// stream's send side); pumpStreams returns once both copies have
// finished. Grounded on
// dnstt-server/main.go's handleStream.
func pumpStreams(logger zerolog.Logger, tcpConn net.Conn, stream quic.Stream) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := io.Copy(stream, tcpConn)
		if err != nil {
			logger.Debug().Err(err).Msg("copy stream<-tcp")
		}
		stream.Close()
	}()
	go func() {
		defer wg.Done()
		_, err := io.Copy(tcpConn, stream)
		if err != nil {
			logger.Debug().Err(err).Msg("copy tcp<-stream")
		}
		tcpConn.Close()
	}()
	wg.Wait()
}
