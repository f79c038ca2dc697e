package adapter

import (
	"github.com/taesiri/slipstream-go/internal/wire"
)

// EncodeOutboundQuery builds the raw UDP bytes for a client→resolver
// query carrying packet as its covert payload (spec.md §4.3, outbound
// client→server direction). id should be monotonically increasing per
// caller; the codec itself does not enforce that.
func EncodeOutboundQuery(id uint16, domain string, packet []byte) ([]byte, error) {
	qname, err := wire.BuildQname(packet, domain)
	if err != nil {
		return nil, err
	}
	return wire.EncodeQuery(wire.QueryParams{
		ID:      id,
		QName:   qname,
		QType:   wire.RRTypeTXT,
		QClass:  wire.ClassIN,
		RD:      true,
		CD:      false,
		QDCount: 1,
		IsQuery: true,
	})
}

// DecodeInboundQuery is the server side's query decode, returning the
// recovered client→server payload.
func DecodeInboundQuery(msg []byte, domain string) (wire.Header, []byte, error) {
	return wire.DecodeQuery(msg, domain)
}

// EncodeOutboundResponse builds the raw UDP bytes for a server→client
// response (spec.md §4.3, outbound server→client direction). A nil or
// empty packet yields payload=None — a valid NODATA response that still
// clocks the transport's congestion loop.
func EncodeOutboundResponse(id uint16, question wire.Question, packet []byte) ([]byte, error) {
	var payload []byte
	if len(packet) > 0 {
		payload = packet
	}
	return wire.EncodeResponse(wire.ResponseParams{
		ID:       id,
		RD:       true,
		CD:       false,
		Question: question,
		Payload:  payload,
	})
}

// DecodeInboundResponse is the client side's response decode.
func DecodeInboundResponse(msg []byte) (wire.Header, wire.Question, []byte, error) {
	return wire.DecodeResponse(msg)
}
