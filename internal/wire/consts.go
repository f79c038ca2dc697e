// Package wire implements the covert DNS wire codec: the reversible
// mapping between an opaque payload buffer and a syntactically valid
// DNS message, plus the MTU arithmetic that governs how much payload
// fits in a single message for a given cover domain.
//
// The codec is pure and synchronous. It never logs, never retries, and
// never panics on malformed input — every decode path validates a
// length before indexing into the buffer.
package wire

const (
	// RRTypeTXT is the DNS TXT resource record type.
	RRTypeTXT uint16 = 16
	// ClassIN is the Internet resource record class.
	ClassIN uint16 = 1

	// maxLabelLength is the largest legal DNS label, per RFC 1035 §3.1.
	maxLabelLength = 63
	// maxNameWireLength is the largest legal wire-form qname, including
	// every length-prefix byte and the terminating zero, per RFC 1035 §3.1.
	maxNameWireLength = 255
	// maxTXTSegment is the largest single TXT character-string.
	maxTXTSegment = 255
	// headerLength is the fixed DNS header size in bytes.
	headerLength = 12
	// questionNameOffset is the byte offset of the question's qname,
	// always immediately after the fixed header.
	questionNameOffset = headerLength

	// compressionMask identifies the two high bits that mark a label
	// length byte as a compression pointer instead of a literal length.
	compressionMask = 0xC0
	// compressionOffsetMask extracts the 14-bit pointer offset.
	compressionOffsetMask = 0x3F
)

// header flag bit positions, big-endian 16-bit word.
const (
	flagQRBit = 15
	flagRDBit = 8
	flagCDBit = 4
)
