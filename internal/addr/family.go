// Package addr implements the address and cover-domain configuration
// component: normalizing a cover domain, parsing host:port strings for
// resolvers and targets, and resolving a HostPort to a concrete socket
// address while enforcing address-family coherence across a resolver
// set.
package addr

// Family pins the address family of a HostPort at parse time. It is
// never re-derived from the host string later.
type Family int

const (
	// V4 is the IPv4 address family.
	V4 Family = iota
	// V6 is the IPv6 address family.
	V6
)

func (f Family) String() string {
	switch f {
	case V4:
		return "IPv4"
	case V6:
		return "IPv6"
	default:
		return "unknown"
	}
}
