package wire

import "testing"

// These mirror the throughput micro-benchmarks of the original
// implementation's bench_dns binary, ported to the standard testing.B
// harness instead of a hand-rolled timing loop.

func benchFixture(b *testing.B) (string, []byte, Labels, []byte, Question) {
	domain := "test.com"
	max, err := MaxPayloadLenForDomain(domain)
	if err != nil {
		b.Fatalf("MaxPayloadLenForDomain: %v", err)
	}
	payloadLen := 256
	if payloadLen > max {
		payloadLen = max
	}
	payload := make([]byte, payloadLen)
	for i := range payload {
		payload[i] = byte(i % 256)
	}

	qname, err := BuildQname(payload, domain)
	if err != nil {
		b.Fatalf("BuildQname: %v", err)
	}
	query, err := EncodeQuery(QueryParams{ID: 0x1234, QName: qname, QType: RRTypeTXT, QClass: ClassIN, RD: true, QDCount: 1, IsQuery: true})
	if err != nil {
		b.Fatalf("EncodeQuery: %v", err)
	}
	question := Question{Name: qname, QType: RRTypeTXT, QClass: ClassIN}
	return domain, payload, qname, query, question
}

func BenchmarkBuildQname(b *testing.B) {
	domain, payload, _, _, _ := benchFixture(b)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := BuildQname(payload, domain); err != nil {
			b.Fatalf("BuildQname: %v", err)
		}
	}
}

func BenchmarkEncodeQuery(b *testing.B) {
	_, _, qname, _, _ := benchFixture(b)
	params := QueryParams{ID: 0x1234, QName: qname, QType: RRTypeTXT, QClass: ClassIN, RD: true, QDCount: 1, IsQuery: true}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeQuery(params); err != nil {
			b.Fatalf("EncodeQuery: %v", err)
		}
	}
}

func BenchmarkDecodeQuery(b *testing.B) {
	domain, _, _, query, _ := benchFixture(b)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := DecodeQuery(query, domain); err != nil {
			b.Fatalf("DecodeQuery: %v", err)
		}
	}
}

func BenchmarkEncodeResponse(b *testing.B) {
	_, payload, _, _, question := benchFixture(b)
	params := ResponseParams{ID: 0x1234, RD: true, Question: question, Payload: payload}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeResponse(params); err != nil {
			b.Fatalf("EncodeResponse: %v", err)
		}
	}
}

func BenchmarkDecodeResponse(b *testing.B) {
	_, payload, _, _, question := benchFixture(b)
	resp, err := EncodeResponse(ResponseParams{ID: 0x1234, RD: true, Question: question, Payload: payload})
	if err != nil {
		b.Fatalf("EncodeResponse: %v", err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, _, err := DecodeResponse(resp); err != nil {
			b.Fatalf("DecodeResponse: %v", err)
		}
	}
}
