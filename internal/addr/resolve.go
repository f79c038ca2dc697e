package addr

import (
	"fmt"
	"net"

	"github.com/taesiri/slipstream-go/internal/errcat"
)

// SocketAddr is a resolved, family-pinned endpoint ready to hand to
// net.Dial/net.ListenUDP style constructors. Unlike HostPort it no
// longer carries a hostname: ResolveHostPort has already turned that
// into a concrete IP.
type SocketAddr struct {
	IP     net.IP
	Port   uint16
	Family Family
}

func (s SocketAddr) String() string {
	return net.JoinHostPort(s.IP.String(), fmt.Sprintf("%d", s.Port))
}

// ResolveHostPort turns a HostPort into a concrete SocketAddr. It tries
// hp.Host as an IP literal of the declared family first; only on
// failure does it fall back to a name lookup, taking the first returned
// address whose family matches hp.Family (spec.md §4.1).
func ResolveHostPort(hp HostPort) (SocketAddr, error) {
	if ip := net.ParseIP(hp.Host); ip != nil {
		if familyOf(ip) == hp.Family {
			return SocketAddr{IP: ip, Port: hp.Port, Family: hp.Family}, nil
		}
	}

	addrs, err := net.LookupIP(hp.Host)
	if err != nil {
		return SocketAddr{}, errcat.NewConfigError(hp.Kind,
			"Cannot resolve %s", hp.Host)
	}

	for _, ip := range addrs {
		if familyOf(ip) == hp.Family {
			return SocketAddr{IP: ip, Port: hp.Port, Family: hp.Family}, nil
		}
	}

	return SocketAddr{}, errcat.NewConfigError(hp.Kind,
		"No %s address found for %s", hp.Family, hp.Host)
}

func familyOf(ip net.IP) Family {
	if ip.To4() != nil {
		return V4
	}
	return V6
}
