package wire

import (
	"encoding/binary"

	"github.com/taesiri/slipstream-go/internal/errcat"
)

// Header is the 16-bit-id, flags, and four section counts of a DNS
// message (spec.md §3). Opcode, AA, TC, RA, Z and AD are not modeled:
// the codec always emits zero for them and ignores them on decode.
type Header struct {
	ID       uint16
	IsQuery  bool
	RD       bool
	CD       bool
	RCode    uint8
	QDCount  uint16
	ANCount  uint16
	NSCount  uint16
	ARCount  uint16
}

func encodeHeader(h Header) []byte {
	buf := make([]byte, headerLength)
	binary.BigEndian.PutUint16(buf[0:2], h.ID)

	var flags uint16
	if !h.IsQuery {
		flags |= 1 << flagQRBit
	}
	if h.RD {
		flags |= 1 << flagRDBit
	}
	if h.CD {
		flags |= 1 << flagCDBit
	}
	flags |= uint16(h.RCode) & 0x0F

	binary.BigEndian.PutUint16(buf[2:4], flags)
	binary.BigEndian.PutUint16(buf[4:6], h.QDCount)
	binary.BigEndian.PutUint16(buf[6:8], h.ANCount)
	binary.BigEndian.PutUint16(buf[8:10], h.NSCount)
	binary.BigEndian.PutUint16(buf[10:12], h.ARCount)
	return buf
}

func decodeHeader(msg []byte) (Header, error) {
	if len(msg) < headerLength {
		return Header{}, errcat.NewCodecError(errcat.ShortBuffer, 0,
			"message too short for header: %d bytes, need %d", len(msg), headerLength)
	}

	flags := binary.BigEndian.Uint16(msg[2:4])
	h := Header{
		ID:      binary.BigEndian.Uint16(msg[0:2]),
		IsQuery: flags&(1<<flagQRBit) == 0,
		RD:      flags&(1<<flagRDBit) != 0,
		CD:      flags&(1<<flagCDBit) != 0,
		RCode:   uint8(flags & 0x0F),
		QDCount: binary.BigEndian.Uint16(msg[4:6]),
		ANCount: binary.BigEndian.Uint16(msg[6:8]),
		NSCount: binary.BigEndian.Uint16(msg[8:10]),
		ARCount: binary.BigEndian.Uint16(msg[10:12]),
	}
	return h, nil
}
