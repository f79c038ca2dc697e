package addr

import (
	"strconv"
	"strings"

	"github.com/taesiri/slipstream-go/internal/errcat"
)

// Kind distinguishes a resolver address from a target address for the
// purpose of error-message prefixing (ported from the original
// implementation's AddressKind::label()).
type Kind = errcat.AddressKind

const (
	// KindResolver labels a resolver address.
	KindResolver = errcat.Resolver
	// KindTarget labels a target address.
	KindTarget = errcat.Target
)

// HostPort is a parsed, unresolved endpoint: a host string, a port, the
// address family pinned at parse time, and the Kind it was parsed as
// (carried through so ResolveHostPort can label a later lookup failure
// correctly). It is produced by Parse, consumed by Resolve, and
// immutable in between.
type HostPort struct {
	Host   string
	Port   uint16
	Family Family
	Kind   Kind
}

// ParseHostPort parses a host:port string in one of two syntaxes per
// spec.md §4.1:
//
//  1. Bracketed IPv6: "[host]" optionally followed by ":port".
//  2. Bare host, or "host:port" where the portion after the first colon
//     is all-decimal-digits.
//
// defaultPort is used when no port is present. kind labels the input
// for error messages ("resolver" or "target").
func ParseHostPort(input string, defaultPort uint16, kind Kind) (HostPort, error) {
	if strings.HasPrefix(input, "[") {
		return parseBracketedV6(input, defaultPort, kind)
	}
	return parseBareOrV4(input, defaultPort, kind)
}

func parseBracketedV6(input string, defaultPort uint16, kind Kind) (HostPort, error) {
	rest := input[1:]
	end := strings.IndexByte(rest, ']')
	if end == -1 {
		return HostPort{}, errcat.NewConfigError(kind,
			"Invalid IPv6 address format (missing closing bracket): %s", input)
	}

	host := rest[:end]
	if host == "" {
		return HostPort{}, errcat.NewConfigError(kind,
			"Invalid IPv6 address in %s: %s", kind, input)
	}

	remainder := rest[end+1:]
	port := defaultPort
	switch {
	case remainder == "":
		// use defaultPort
	case strings.HasPrefix(remainder, ":"):
		p, err := parsePort(remainder[1:], input, kind)
		if err != nil {
			return HostPort{}, err
		}
		port = p
	default:
		return HostPort{}, errcat.NewConfigError(kind,
			"Invalid IPv6 address format (missing closing bracket): %s", input)
	}

	return HostPort{Host: host, Port: port, Family: V6, Kind: kind}, nil
}

func parseBareOrV4(input string, defaultPort uint16, kind Kind) (HostPort, error) {
	host := input
	port := defaultPort

	if idx := strings.IndexByte(input, ':'); idx != -1 {
		left, right := input[:idx], input[idx+1:]
		if right == "" || !isAllDigits(right) {
			return HostPort{}, errcat.NewConfigError(kind,
				"Invalid port number in %s address: %s", kind, input)
		}
		host = left
		p, err := parsePort(right, input, kind)
		if err != nil {
			return HostPort{}, err
		}
		port = p
	}

	if host == "" {
		return HostPort{}, errcat.NewConfigError(kind,
			"Invalid %s address: %s", kind, input)
	}

	return HostPort{Host: host, Port: port, Family: V4, Kind: kind}, nil
}

func isAllDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func parsePort(portStr, input string, kind Kind) (uint16, error) {
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return 0, errcat.NewConfigError(kind,
			"Invalid port number in %s address: %s", kind, input)
	}
	return uint16(port), nil
}
