// Command slipstream-server accepts DNS-tunneled QUIC connections and
// forwards their bytes to a local TCP target.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/taesiri/slipstream-go/internal/addr"
	"github.com/taesiri/slipstream-go/internal/adapter"
	"github.com/taesiri/slipstream-go/internal/tunnel"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("slipstream-server", flag.ContinueOnError)

	domain := fs.String("domain", "", "cover domain")
	dnsListenPort := fs.Uint("dns-listen-port", 53, "UDP port to listen for DNS queries on")
	dnsListenIPv6 := fs.Bool("dns-listen-ipv6", false, "listen on IPv6 instead of IPv4")
	targetAddress := fs.String("target-address", "127.0.0.1:5201", "upstream TCP target host[:port]")
	certPath := fs.String("cert", ".github/certs/cert.pem", "TLS certificate path")
	keyPath := fs.String("key", ".github/certs/key.pem", "TLS key path")
	debugStreams := fs.Bool("debug-streams", false, "enable stream-level debug logging")
	debugCommands := fs.Bool("debug-commands", false, "enable command-level debug logging")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	streamLogger := newSubsystemLogger("stream", *debugStreams)
	commandLogger := newSubsystemLogger("command", *debugCommands)

	if err := runServer(serverConfig{
		domain:        *domain,
		dnsListenPort: uint16(*dnsListenPort),
		dnsListenIPv6: *dnsListenIPv6,
		targetAddress: *targetAddress,
		certPath:      *certPath,
		keyPath:       *keyPath,
		logger:        streamLogger,
		commandLogger: commandLogger,
	}); err != nil {
		prefix := ""
		if isConfigError(err) {
			prefix = "Server error: "
		}
		fmt.Fprintf(os.Stderr, "%s%v\n", prefix, err)
		return 1
	}
	return 0
}

type serverConfig struct {
	domain        string
	dnsListenPort uint16
	dnsListenIPv6 bool
	targetAddress string
	certPath      string
	keyPath       string
	logger        zerolog.Logger
	commandLogger zerolog.Logger
}

type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func isConfigError(err error) bool {
	_, ok := err.(*configError)
	return ok
}

func runServer(cfg serverConfig) error {
	if cfg.domain == "" {
		return &configError{fmt.Errorf("--domain is required")}
	}
	cover, err := addr.NormalizeDomain(cfg.domain)
	if err != nil {
		return &configError{err}
	}

	family := addr.V4
	if cfg.dnsListenIPv6 {
		family = addr.V6
	}

	targetHostPort, err := addr.ParseHostPort(cfg.targetAddress, 5201, addr.KindTarget)
	if err != nil {
		return &configError{err}
	}
	targetSockAddr, err := addr.ResolveHostPort(targetHostPort)
	if err != nil {
		return &configError{err}
	}
	targetAddr := &net.TCPAddr{IP: targetSockAddr.IP, Port: int(targetSockAddr.Port)}

	listenAddr := fmt.Sprintf(":%d", cfg.dnsListenPort)
	transport, err := adapter.ListenUDPTransport(family, listenAddr)
	if err != nil {
		return err
	}

	session, err := tunnel.NewServerSession(cover.String(), transport, targetAddr, cfg.certPath, cfg.keyPath,
		tunnel.WithServerLogger(cfg.logger),
		tunnel.WithServerCommandLogger(cfg.commandLogger),
	)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return session.Run(ctx)
}

// newSubsystemLogger builds a component-tagged logger whose level is
// independently controlled by that component's --debug-* flag: the flags
// only raise verbosity for their own subsystem, they never gate whether a
// subsystem logs at all.
func newSubsystemLogger(component string, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Str("component", component).Logger()
}
