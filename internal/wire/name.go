package wire

import (
	"github.com/taesiri/slipstream-go/internal/errcat"
)

// encodeNameLabels appends labels's wire form (length-prefixed labels
// terminated by a zero octet) to buf. No compression pointers are ever
// emitted here; spec.md §4.2 forbids them in encode_query, and
// EncodeResponse writes its single pointer to offset 12 inline, not here.
func encodeNameLabels(buf []byte, labels []string) []byte {
	for _, label := range labels {
		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
	}
	return append(buf, 0)
}

// decodeName parses a DNS name starting at offset, per RFC 1035 §4.1.4.
// allowPointer gates whether a compression pointer may appear at all;
// when it may, requirePointerTarget (if >= 0) additionally requires that
// any pointer encountered dereference exactly that offset — the Open
// Question resolution of spec.md §9 applied to the answer section's
// name field, which only ever legally points at the question qname (12).
func decodeName(msg []byte, offset int, allowPointer bool, requirePointerTarget int) (labels []string, newOffset int, err error) {
	pos := offset
	jumped := false
	jumps := 0
	const maxJumps = 16

	for {
		if pos >= len(msg) {
			return nil, offset, errcat.NewCodecError(errcat.ShortBuffer, pos, "name runs past end of message")
		}

		length := msg[pos]

		if length&compressionMask == compressionMask {
			if !allowPointer {
				return nil, offset, errcat.NewCodecError(errcat.BadPointer, pos, "compression pointer not permitted here")
			}
			if pos+1 >= len(msg) {
				return nil, offset, errcat.NewCodecError(errcat.ShortBuffer, pos, "truncated compression pointer")
			}
			target := int(length&compressionOffsetMask)<<8 | int(msg[pos+1])
			if requirePointerTarget >= 0 && target != requirePointerTarget {
				return nil, offset, errcat.NewCodecError(errcat.BadPointer, pos,
					"compression pointer targets offset %d, only %d is permitted", target, requirePointerTarget)
			}
			if target >= pos {
				return nil, offset, errcat.NewCodecError(errcat.BadPointer, pos, "compression pointer does not point backward")
			}
			if !jumped {
				newOffset = pos + 2
				jumped = true
			}
			jumps++
			if jumps > maxJumps {
				return nil, offset, errcat.NewCodecError(errcat.BadPointer, pos, "too many compression jumps")
			}
			pos = target
			// A pointer may only be followed once we know its target obeys
			// requirePointerTarget; subsequent label bytes at the target are
			// ordinary labels, so clear the constraint once we've jumped.
			requirePointerTarget = -1
			continue
		}

		if length == 0 {
			if !jumped {
				newOffset = pos + 1
			}
			break
		}

		if length > maxLabelLength {
			return nil, offset, errcat.NewCodecError(errcat.BadLabel, pos,
				"label length %d exceeds %d", length, maxLabelLength)
		}
		if pos+1+int(length) > len(msg) {
			return nil, offset, errcat.NewCodecError(errcat.ShortBuffer, pos, "truncated label")
		}

		labels = append(labels, string(msg[pos+1:pos+1+int(length)]))
		pos += 1 + int(length)
	}

	wireLen := 1
	for _, label := range labels {
		wireLen += 1 + len(label)
	}
	if wireLen > maxNameWireLength {
		return nil, offset, errcat.NewCodecError(errcat.QnameTooLong, offset,
			"name wire length %d exceeds %d", wireLen, maxNameWireLength)
	}

	return labels, newOffset, nil
}
