package addr

import (
	"strings"

	"github.com/taesiri/slipstream-go/internal/errcat"
)

// CoverDomain is a normalized, non-empty, trailing-dot-free domain. It is
// produced only by NormalizeDomain, which checks neither its length nor
// that it is ASCII.
type CoverDomain string

// NormalizeDomain trims leading/trailing whitespace, strips a single
// trailing ".", and rejects an empty result. It does not enforce the
// 240-octet ceiling; that is the wire codec's concern (spec.md §4.2),
// since the ceiling is a property of qname construction, not of a bare
// domain string.
func NormalizeDomain(input string) (CoverDomain, error) {
	trimmed := strings.TrimSpace(input)
	trimmed = strings.TrimSuffix(trimmed, ".")
	if trimmed == "" {
		return "", errcat.NewConfigError(errcat.Domain, "Domain must not be empty")
	}
	return CoverDomain(trimmed), nil
}

func (d CoverDomain) String() string {
	return string(d)
}
