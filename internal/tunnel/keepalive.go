package tunnel

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// pollWriter is the subset of net.PacketConn a KeepAlive needs: enough
// to send an empty probe, nothing about receiving.
type pollWriter interface {
	WriteTo(p []byte, addr net.Addr) (int, error)
}

// KeepAlive sends an empty packet through conn on every tick while
// Run is active, so NAT bindings and resolver caches along the path stay
// warm during stretches where QUIC itself has nothing queued to send.
// Modeled on the poll engine in
// other_examples/eb95ee6a_minor-way-slipstream-go__internal-protocol-dns_conn.go.go,
// stripped to an empty probe: QUIC owns retransmission and congestion
// control here, so this never carries real payload. It writes on every
// tick and does not check whether QUIC sent anything in between.
type KeepAlive struct {
	conn     pollWriter
	interval time.Duration
	stop     chan struct{}
	logger   zerolog.Logger
}

func NewKeepAlive(conn pollWriter, interval time.Duration, logger zerolog.Logger) *KeepAlive {
	return &KeepAlive{
		conn:     conn,
		interval: interval,
		stop:     make(chan struct{}),
		logger:   logger,
	}
}

// Run ticks until ctx is canceled or Stop is called.
func (k *KeepAlive) Run(ctx context.Context) {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := k.conn.WriteTo(nil, nil); err != nil {
				k.logger.Debug().Err(err).Msg("poll write failed")
				continue
			}
			k.logger.Debug().Msg("poll sent")
		case <-k.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends a running Run call. Safe to call more than once.
func (k *KeepAlive) Stop() {
	select {
	case <-k.stop:
	default:
		close(k.stop)
	}
}
