package tunnel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/rs/zerolog"

	"github.com/taesiri/slipstream-go/internal/adapter"
)

// ServerOption configures a ServerSession before Run starts it.
type ServerOption func(*ServerSession) error

func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(s *ServerSession) error {
		s.logger = logger
		return nil
	}
}

// WithServerCommandLogger sets the logger used for connection/stream
// lifecycle events (accept, target dial, close) distinct from in-flight
// byte-pump tracing, so --debug-commands and --debug-streams raise
// independent subsystems' verbosity.
func WithServerCommandLogger(logger zerolog.Logger) ServerOption {
	return func(s *ServerSession) error {
		s.commandLogger = logger
		return nil
	}
}

// ServerSession is the server half: it listens for DNS-carried QUIC
// connections, accepts every stream each connection opens, dials
// targetAddr over TCP once per stream, and pumps bytes between them.
type ServerSession struct {
	domain     string
	transport  adapter.Transport
	targetAddr *net.TCPAddr
	tlsConf    *tls.Config

	logger        zerolog.Logger
	commandLogger zerolog.Logger

	decodeFailures *adapter.DecodeFailureCounter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServerSession builds a session over an already-listening UDP
// transport. certFile/keyFile are loaded with crypto/tls.LoadX509KeyPair
// (DESIGN.md records why this stays on the standard library).
func NewServerSession(domain string, transport adapter.Transport, targetAddr *net.TCPAddr, certFile, keyFile string, opts ...ServerOption) (*ServerSession, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &ServerSession{
		domain:     domain,
		transport:  transport,
		targetAddr: targetAddr,
		tlsConf: &tls.Config{
			Certificates: []tls.Certificate{cert},
			NextProtos:   []string{"slipstream"},
		},
		logger:         zerolog.Nop(),
		commandLogger:  zerolog.Nop(),
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

// Run accepts QUIC connections until ctx is canceled or Close is called.
func (s *ServerSession) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopAfter := context.AfterFunc(s.ctx, cancel)
	defer stopAfter()

	pconn := adapter.NewServerConn(s.transport, s.domain, s.decodeFailures)
	defer pconn.Close()
	defer s.logDecodeFailures()

	tr := &quic.Transport{Conn: pconn}
	defer tr.Close()

	ln, err := tr.Listen(s.tlsConf, &quic.Config{MaxIdleTimeout: 30 * time.Second})
	if err != nil {
		return fmt.Errorf("listen quic over dns: %w", err)
	}
	defer ln.Close()

	s.commandLogger.Info().Str("domain", s.domain).Str("target", s.targetAddr.String()).
		Msg("accepting dns-tunneled connections")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("accept quic connection: %w", err)
			}
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *ServerSession) handleConnection(conn quic.Connection) {
	defer s.wg.Done()
	for {
		stream, err := conn.AcceptStream(s.ctx)
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handleStream(stream)
	}
}

func (s *ServerSession) handleStream(stream quic.Stream) {
	defer s.wg.Done()

	tcpConn, err := net.DialTCP("tcp", nil, s.targetAddr)
	if err != nil {
		s.commandLogger.Error().Err(err).Str("target", s.targetAddr.String()).Msg("dial upstream target")
		stream.CancelRead(0)
		stream.Close()
		return
	}
	defer tcpConn.Close()

	s.commandLogger.Debug().Uint64("stream_id", uint64(stream.StreamID())).Msg("stream opened")
	pumpStreams(s.logger, tcpConn, stream)
}

// Close cancels the session's lifecycle context.
func (s *ServerSession) Close() {
	s.cancel()
}

// logDecodeFailures reports the adapter's per-kind decode-failure counts
// (spec.md §4.3) once the session ends.
func (s *ServerSession) logDecodeFailures() {
	counts := s.decodeFailures.Snapshot()
	if len(counts) == 0 {
		return
	}
	event := s.commandLogger.Info()
	for kind, n := range counts {
		event = event.Uint64(kind.String(), n)
	}
	event.Msg("decode failures")
}
