package addr

import "github.com/taesiri/slipstream-go/internal/errcat"

// ResolverSet is an ordered, non-empty sequence of HostPort entries that
// all share one address family, enforced at construction.
type ResolverSet struct {
	Entries []HostPort
	Family  Family
}

// ParseResolverAddresses parses every address with the resolver default
// port (53) and kind. The family of the first parsed entry becomes the
// set's family; a later entry of a different family is rejected.
func ParseResolverAddresses(addrs []string) (ResolverSet, error) {
	if len(addrs) == 0 {
		return ResolverSet{}, errcat.NewConfigError(errcat.Resolver,
			"At least one resolver address is required")
	}

	entries := make([]HostPort, 0, len(addrs))
	var family Family
	for i, a := range addrs {
		hp, err := ParseHostPort(a, 53, KindResolver)
		if err != nil {
			return ResolverSet{}, err
		}
		if i == 0 {
			family = hp.Family
		} else if hp.Family != family {
			return ResolverSet{}, errcat.NewConfigError(errcat.Resolver,
				"Cannot mix IPv4 and IPv6 resolver addresses")
		}
		entries = append(entries, hp)
	}

	return ResolverSet{Entries: entries, Family: family}, nil
}
