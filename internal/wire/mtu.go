package wire

import (
	"math"

	"github.com/taesiri/slipstream-go/internal/errcat"
)

// computeMTU implements the mtu(L) formula of spec.md §4.2: the largest
// payload, in bytes, that a single query name can carry for a cover
// domain of length L (measured as the user-supplied domain string, not
// its wire form).
//
//	mtu(L) = floor((240 - L) / 1.6)     if L < 240 and the result > 0
//
// The 1.6 divisor comes directly from the label alphabet's 5-bytes-in,
// 8-bytes-out ratio (see labels.go); any alternative alphabet requires
// recomputing this constant.
func computeMTU(domainLen int) (int, error) {
	if domainLen >= 240 {
		return 0, errcat.NewCodecError(errcat.QnameTooLong, 0,
			"Domain name is too long for DNS transport")
	}
	mtu := int(math.Floor(float64(240-domainLen) / 1.6))
	if mtu <= 0 {
		return 0, errcat.NewCodecError(errcat.QnameTooLong, 0,
			"MTU computed to zero; check domain length")
	}
	return mtu, nil
}

// MaxPayloadLenForDomain returns computeMTU(len(domain)): a payload
// length for which BuildQname succeeds for every payload against domain.
// The bound is conservative, not the largest such length (for "test.com"
// it returns 145, while 150-byte payloads still fit in 255 octets).
func MaxPayloadLenForDomain(domain string) (int, error) {
	return computeMTU(len(domain))
}

// MTU is the transport-visible MTU for a cover domain: computeMTU capped
// at platformCap, the platform's UDP datagram ceiling (spec.md §4.2,
// §9). A platformCap of 0 means no additional cap is applied.
func MTU(domain string, platformCap int) (int, error) {
	mtu, err := computeMTU(len(domain))
	if err != nil {
		return 0, err
	}
	if platformCap > 0 && mtu > platformCap {
		return platformCap, nil
	}
	return mtu, nil
}
