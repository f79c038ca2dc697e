// Command slipstream-client accepts local TCP connections and tunnels
// their bytes through DNS queries to a slipstream-server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/taesiri/slipstream-go/internal/addr"
	"github.com/taesiri/slipstream-go/internal/adapter"
	"github.com/taesiri/slipstream-go/internal/tunnel"
)

// resolverFlags collects repeated --resolver occurrences.
type resolverFlags []string

func (r *resolverFlags) String() string { return strings.Join(*r, ",") }

func (r *resolverFlags) Set(value string) error {
	*r = append(*r, value)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("slipstream-client", flag.ContinueOnError)

	var resolvers resolverFlags
	domain := fs.String("domain", "", "cover domain")
	fs.Var(&resolvers, "resolver", "recursive resolver host[:port] (repeatable, required)")
	tcpListenPort := fs.Uint("tcp-listen-port", 5201, "local TCP port to accept connections on")
	congestionControlFlag := fs.String("congestion-control", "dcubic", "congestion control: bbr or dcubic")
	gso := fs.Bool("gso", false, "enable UDP generic segmentation offload")
	keepAliveMS := fs.Uint("keep-alive-interval", 400, "keep-alive interval in milliseconds")
	debugPoll := fs.Bool("debug-poll", false, "enable poll-level debug logging")
	debugStreams := fs.Bool("debug-streams", false, "enable stream-level debug logging")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	streamLogger := newSubsystemLogger("stream", *debugStreams)
	pollLogger := newSubsystemLogger("poll", *debugPoll)

	if err := runClient(clientConfig{
		domain:             *domain,
		resolvers:          resolvers,
		tcpListenPort:      uint16(*tcpListenPort),
		congestionControl:  *congestionControlFlag,
		gso:                *gso,
		keepAliveInterval:  time.Duration(*keepAliveMS) * time.Millisecond,
		logger:             streamLogger,
		pollLogger:         pollLogger,
	}); err != nil {
		prefix := ""
		if isConfigError(err) {
			prefix = "Client error: "
		}
		fmt.Fprintf(os.Stderr, "%s%v\n", prefix, err)
		return 1
	}
	return 0
}

type clientConfig struct {
	domain            string
	resolvers         []string
	tcpListenPort     uint16
	congestionControl string
	gso               bool
	keepAliveInterval time.Duration
	logger            zerolog.Logger
	pollLogger        zerolog.Logger
}

// configError marks a failure that originates in flag/address validation,
// so run() can apply the "Client error: " prefix spec.md requires.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func isConfigError(err error) bool {
	_, ok := err.(*configError)
	return ok
}

func runClient(cfg clientConfig) error {
	if cfg.domain == "" {
		return &configError{fmt.Errorf("--domain is required")}
	}
	if len(cfg.resolvers) == 0 {
		return &configError{fmt.Errorf("at least one --resolver is required")}
	}

	cover, err := addr.NormalizeDomain(cfg.domain)
	if err != nil {
		return &configError{err}
	}

	resolverSet, err := addr.ParseResolverAddresses(cfg.resolvers)
	if err != nil {
		return &configError{err}
	}

	cc, err := tunnel.ParseCongestionControl(cfg.congestionControl)
	if err != nil {
		return &configError{err}
	}

	resolverAddrs := make([]net.Addr, 0, len(resolverSet.Entries))
	for _, hp := range resolverSet.Entries {
		sockAddr, err := addr.ResolveHostPort(hp)
		if err != nil {
			return &configError{err}
		}
		resolverAddrs = append(resolverAddrs, &net.UDPAddr{IP: sockAddr.IP, Port: int(sockAddr.Port)})
	}

	transport, err := adapter.ListenUDPTransport(resolverSet.Family, ":0")
	if err != nil {
		return err
	}

	session, err := tunnel.NewClientSession(cover.String(), resolverAddrs, transport, cfg.tcpListenPort,
		tunnel.WithClientLogger(cfg.logger),
		tunnel.WithClientPollLogger(cfg.pollLogger),
		tunnel.WithClientCongestionControl(cc),
		tunnel.WithClientKeepAliveInterval(cfg.keepAliveInterval),
		tunnel.WithGSO(cfg.gso),
	)
	if err != nil {
		return &configError{err}
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
