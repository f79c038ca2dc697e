package wire

import (
	"encoding/binary"

	"github.com/taesiri/slipstream-go/internal/errcat"
)

// Question is a decoded or to-be-encoded DNS question section entry.
// The codec only ever speaks TXT/IN, per spec.md §3.
type Question struct {
	Name   Labels
	QType  uint16
	QClass uint16
}

// QueryParams are the inputs to EncodeQuery (spec.md §4.2).
type QueryParams struct {
	ID      uint16
	QName   Labels
	QType   uint16
	QClass  uint16
	RD      bool
	CD      bool
	QDCount uint16
	IsQuery bool
}

// ResponseParams are the inputs to EncodeResponse (spec.md §4.2).
type ResponseParams struct {
	ID       uint16
	RD       bool
	CD       bool
	Question Question
	Payload  []byte // nil means no answer
	RCode    *uint8 // nil means "0 if Payload present"
}

// EncodeQuery emits a well-formed DNS query message: header, then the
// qname in wire form, then qtype/qclass. It never emits a compression
// pointer (spec.md §4.2).
func EncodeQuery(p QueryParams) ([]byte, error) {
	h := Header{
		ID:      p.ID,
		IsQuery: p.IsQuery,
		RD:      p.RD,
		CD:      p.CD,
		RCode:   0,
		QDCount: p.QDCount,
	}

	buf := encodeHeader(h)
	buf = encodeNameLabels(buf, p.QName.All())

	typeClass := make([]byte, 4)
	binary.BigEndian.PutUint16(typeClass[0:2], p.QType)
	binary.BigEndian.PutUint16(typeClass[2:4], p.QClass)
	buf = append(buf, typeClass...)

	if len(buf) > maxNameWireLength+headerLength+4 {
		// Unreachable given BuildQname's own 255-byte ceiling, kept as a
		// defensive check against hand-built QName values.
		return nil, errcat.NewCodecError(errcat.QnameTooLong, headerLength, "encoded query exceeds maximum qname length")
	}
	return buf, nil
}

// DecodeQuery parses a client query and recovers its payload. It
// requires QR=0 (a query) and qdcount=1, rejects any compression
// pointer in the question section, verifies the qname terminates in
// domain, and inverts BuildQname on the remaining prefix labels.
func DecodeQuery(msg []byte, domain string) (Header, []byte, error) {
	h, err := decodeHeader(msg)
	if err != nil {
		return Header{}, nil, err
	}
	if !h.IsQuery {
		return Header{}, nil, errcat.NewCodecError(errcat.UnsupportedClassType, 2, "expected a query (QR=0)")
	}
	if h.QDCount != 1 {
		return Header{}, nil, errcat.NewCodecError(errcat.CountMismatch, 4, "expected qdcount=1, got %d", h.QDCount)
	}

	labels, offset, err := decodeName(msg, questionNameOffset, false, -1)
	if err != nil {
		return Header{}, nil, err
	}
	if offset+4 > len(msg) {
		return Header{}, nil, errcat.NewCodecError(errcat.ShortBuffer, offset, "truncated question: missing qtype/qclass")
	}
	qtype := binary.BigEndian.Uint16(msg[offset : offset+2])
	qclass := binary.BigEndian.Uint16(msg[offset+2 : offset+4])
	offset += 4

	if qtype != RRTypeTXT || qclass != ClassIN {
		return Header{}, nil, errcat.NewCodecError(errcat.UnsupportedClassType, offset-4,
			"unsupported qtype/qclass %d/%d", qtype, qclass)
	}
	if offset != len(msg) {
		return Header{}, nil, errcat.NewCodecError(errcat.TrailingGarbage, offset, "trailing bytes after question section")
	}

	payload, err := ExtractPayload(labels, domain)
	if err != nil {
		return Header{}, nil, err
	}
	return h, payload, nil
}

// EncodeResponse emits a DNS response echoing p.Question. When
// p.Payload is non-nil, one TXT answer record is appended whose name
// compresses to offset 12 (spec.md §4.2).
func EncodeResponse(p ResponseParams) ([]byte, error) {
	rcode := uint8(0)
	if p.RCode != nil {
		rcode = *p.RCode
	}

	var ancount uint16
	if p.Payload != nil {
		ancount = 1
	}

	h := Header{
		ID:      p.ID,
		IsQuery: false,
		RD:      p.RD,
		CD:      p.CD,
		RCode:   rcode,
		QDCount: 1,
		ANCount: ancount,
	}

	buf := encodeHeader(h)
	buf = encodeNameLabels(buf, p.Question.Name.All())

	typeClass := make([]byte, 4)
	binary.BigEndian.PutUint16(typeClass[0:2], p.Question.QType)
	binary.BigEndian.PutUint16(typeClass[2:4], p.Question.QClass)
	buf = append(buf, typeClass...)

	if p.Payload == nil {
		return buf, nil
	}

	rdata, err := encodeTXTSegments(p.Payload)
	if err != nil {
		return nil, err
	}

	// Answer NAME: a compression pointer to offset 12 (the question qname).
	buf = append(buf, 0xC0|byte(questionNameOffset>>8), byte(questionNameOffset&0xFF))

	answerFixed := make([]byte, 10)
	binary.BigEndian.PutUint16(answerFixed[0:2], RRTypeTXT)
	binary.BigEndian.PutUint16(answerFixed[2:4], ClassIN)
	binary.BigEndian.PutUint32(answerFixed[4:8], 0) // TTL
	binary.BigEndian.PutUint16(answerFixed[8:10], uint16(len(rdata)))
	buf = append(buf, answerFixed...)
	buf = append(buf, rdata...)

	return buf, nil
}

// DecodeResponse parses a server response. It requires QR=1 and
// qdcount=1; when ancount >= 1 it decodes the first TXT/IN answer and
// reconstructs the payload. A non-zero rcode with no answer surfaces as
// a nil payload, not an error (spec.md §4.2).
func DecodeResponse(msg []byte) (Header, Question, []byte, error) {
	h, err := decodeHeader(msg)
	if err != nil {
		return Header{}, Question{}, nil, err
	}
	if h.IsQuery {
		return Header{}, Question{}, nil, errcat.NewCodecError(errcat.UnsupportedClassType, 2, "expected a response (QR=1)")
	}
	if h.QDCount != 1 {
		return Header{}, Question{}, nil, errcat.NewCodecError(errcat.CountMismatch, 4, "expected qdcount=1, got %d", h.QDCount)
	}

	qlabels, offset, err := decodeName(msg, questionNameOffset, false, -1)
	if err != nil {
		return Header{}, Question{}, nil, err
	}
	if offset+4 > len(msg) {
		return Header{}, Question{}, nil, errcat.NewCodecError(errcat.ShortBuffer, offset, "truncated question")
	}
	question := Question{
		Name:   Labels{Domain: qlabels},
		QType:  binary.BigEndian.Uint16(msg[offset : offset+2]),
		QClass: binary.BigEndian.Uint16(msg[offset+2 : offset+4]),
	}
	offset += 4

	if h.ANCount == 0 {
		if offset != len(msg) {
			return Header{}, Question{}, nil, errcat.NewCodecError(errcat.TrailingGarbage, offset, "trailing bytes after question with no answers")
		}
		return h, question, nil, nil
	}

	_, offset, err = decodeName(msg, offset, true, questionNameOffset)
	if err != nil {
		return Header{}, Question{}, nil, err
	}

	if offset+10 > len(msg) {
		return Header{}, Question{}, nil, errcat.NewCodecError(errcat.ShortBuffer, offset, "truncated answer fixed fields")
	}
	atype := binary.BigEndian.Uint16(msg[offset : offset+2])
	aclass := binary.BigEndian.Uint16(msg[offset+2 : offset+4])
	rdlength := binary.BigEndian.Uint16(msg[offset+8 : offset+10])
	offset += 10

	if offset+int(rdlength) > len(msg) {
		return Header{}, Question{}, nil, errcat.NewCodecError(errcat.ShortBuffer, offset, "truncated rdata")
	}
	rdata := msg[offset : offset+int(rdlength)]
	offset += int(rdlength)

	if atype != RRTypeTXT || aclass != ClassIN {
		// Not TXT/IN: tolerated per spec.md §4.2 ("subsequent answers ...
		// are tolerated and ignored"), but as the first and only answer
		// decoded here there is no payload to surface.
		return h, question, nil, nil
	}

	payload, err := decodeTXTSegments(rdata)
	if err != nil {
		return Header{}, Question{}, nil, err
	}
	return h, question, payload, nil
}

func encodeTXTSegments(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return []byte{0}, nil
	}
	var out []byte
	for len(payload) > 0 {
		n := len(payload)
		if n > maxTXTSegment {
			n = maxTXTSegment
		}
		out = append(out, byte(n))
		out = append(out, payload[:n]...)
		payload = payload[n:]
	}
	return out, nil
}

func decodeTXTSegments(rdata []byte) ([]byte, error) {
	var out []byte
	pos := 0
	for pos < len(rdata) {
		n := int(rdata[pos])
		pos++
		if pos+n > len(rdata) {
			return nil, errcat.NewCodecError(errcat.ShortBuffer, pos, "truncated TXT character-string")
		}
		out = append(out, rdata[pos:pos+n]...)
		pos += n
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

