package adapter

import "github.com/taesiri/slipstream-go/internal/addr"

// PlatformCapabilities is the platform-capability record: the bind
// family the local configuration prefers, and the platform UDP datagram
// ceiling. ResolvePlatformCapabilities has no caller outside tests: the
// adapter and the tunnel sessions do not consult the record, and the
// packet size QUIC uses is not capped by UDPMTUCap or by wire.MTU.
type PlatformCapabilities struct {
	PreferredBindFamily addr.Family
	UDPMTUCap           int
}

// defaultUDPMTUCap matches the conservative UDP datagram ceiling spec.md
// §4.2 names as an example platform constant.
const defaultUDPMTUCap = 512

// ResolvePlatformCapabilities returns the capability record for family,
// applying the platform MTU cap from socket_*.go's platformUDPMTUCap.
func ResolvePlatformCapabilities(family addr.Family) PlatformCapabilities {
	return PlatformCapabilities{
		PreferredBindFamily: family,
		UDPMTUCap:           platformUDPMTUCap(),
	}
}
