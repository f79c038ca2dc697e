package wire

import (
	"encoding/base32"
	"strings"

	"github.com/taesiri/slipstream-go/internal/errcat"
)

// payloadEncoding is the label alphabet: unpadded RFC 4648 base32,
// restricted to A-Z2-7 — a subset every recursive resolver passes
// through untouched, and the source of the MTU formula's 1.6 divisor
// (5 payload bytes become 8 label bytes). Grounded on the base32
// encoders used by both retrieved prior ports of this system
// (dnstt-server's ClientID/data encoding and the minor-way-slipstream-go
// fragments), which use the same StdEncoding-without-padding choice.
var payloadEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Labels is the qname produced by BuildQname: a sequence of
// payload-bearing labels followed by the cover domain's own labels,
// preserved verbatim.
type Labels struct {
	Payload []string
	Domain  []string
}

// All returns the full label sequence, payload labels first.
func (l Labels) All() []string {
	out := make([]string, 0, len(l.Payload)+len(l.Domain))
	out = append(out, l.Payload...)
	out = append(out, l.Domain...)
	return out
}

// String renders the qname as a dotted string (without a trailing dot).
func (l Labels) String() string {
	return strings.Join(l.All(), ".")
}

// WireLen is the qname's encoded length: one length-prefix byte per
// label, plus the label bytes, plus the terminating zero label.
func (l Labels) WireLen() int {
	n := 1 // terminating zero
	for _, label := range l.All() {
		n += 1 + len(label)
	}
	return n
}

func splitDomainLabels(domain string) ([]string, error) {
	if domain == "" {
		return nil, errcat.NewCodecError(errcat.BadLabel, 0, "domain must not be empty")
	}
	labels := strings.Split(domain, ".")
	for i, label := range labels {
		if len(label) == 0 {
			return nil, errcat.NewCodecError(errcat.BadLabel, i, "empty label in domain %q", domain)
		}
		if len(label) > maxLabelLength {
			return nil, errcat.NewCodecError(errcat.BadLabel, i,
				"label %q exceeds %d bytes", label, maxLabelLength)
		}
	}
	return labels, nil
}

func splitIntoLabelChunks(s string) []string {
	if s == "" {
		return nil
	}
	var labels []string
	for len(s) > maxLabelLength {
		labels = append(labels, s[:maxLabelLength])
		s = s[maxLabelLength:]
	}
	labels = append(labels, s)
	return labels
}

// BuildQname encodes payload as a sequence of legal DNS labels prepended
// to domain's own labels (spec.md §4.2). An empty payload yields a
// qname identical to the bare domain.
func BuildQname(payload []byte, domain string) (Labels, error) {
	domainLabels, err := splitDomainLabels(domain)
	if err != nil {
		return Labels{}, err
	}

	encoded := payloadEncoding.EncodeToString(payload)
	payloadLabels := splitIntoLabelChunks(encoded)

	labels := Labels{Payload: payloadLabels, Domain: domainLabels}
	if labels.WireLen() > maxNameWireLength {
		return Labels{}, errcat.NewCodecError(errcat.QnameTooLong, 0,
			"qname wire length %d exceeds %d", labels.WireLen(), maxNameWireLength)
	}
	return labels, nil
}

// ExtractPayload inverts BuildQname: given the full label sequence
// decoded off the wire and the configured cover domain, it verifies the
// suffix matches domain (case-insensitively) and decodes the remaining
// prefix labels back into the original payload bytes.
func ExtractPayload(qnameLabels []string, domain string) ([]byte, error) {
	domainLabels, err := splitDomainLabels(domain)
	if err != nil {
		return nil, err
	}

	if len(qnameLabels) < len(domainLabels) {
		return nil, errcat.NewCodecError(errcat.DomainMismatch, 0,
			"qname has fewer labels than the cover domain")
	}

	split := len(qnameLabels) - len(domainLabels)
	suffix := qnameLabels[split:]
	for i, label := range suffix {
		if !strings.EqualFold(label, domainLabels[i]) {
			return nil, errcat.NewCodecError(errcat.DomainMismatch, 0,
				"qname does not terminate in the configured cover domain %q", domain)
		}
	}

	if split == 0 {
		return []byte{}, nil
	}

	var encoded strings.Builder
	for _, label := range qnameLabels[:split] {
		if len(label) == 0 || len(label) > maxLabelLength {
			return nil, errcat.NewCodecError(errcat.BadLabel, 0,
				"payload label %q has illegal length", label)
		}
		encoded.WriteString(strings.ToUpper(label))
	}

	payload, err := payloadEncoding.DecodeString(encoded.String())
	if err != nil {
		return nil, errcat.NewCodecError(errcat.BadLabel, 0, "payload label did not round-trip: %v", err)
	}
	return payload, nil
}
