package wire

import (
	"bytes"
	"testing"
)

func TestBuildQname_EmptyPayload(t *testing.T) {
	labels, err := BuildQname(nil, "test.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels.Payload) != 0 {
		t.Fatalf("expected no payload labels for empty payload, got %v", labels.Payload)
	}
	if labels.String() != "test.com" {
		t.Fatalf("empty-payload qname = %q, want %q", labels.String(), "test.com")
	}
}

func TestBuildQname_LabelLegality(t *testing.T) {
	payload := make([]byte, 145)
	for i := range payload {
		payload[i] = byte(i)
	}
	labels, err := BuildQname(payload, "test.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, label := range labels.All() {
		if len(label) < 1 || len(label) > maxLabelLength {
			t.Fatalf("label %q has illegal length %d", label, len(label))
		}
	}
	if labels.WireLen() > maxNameWireLength {
		t.Fatalf("qname wire length %d exceeds %d", labels.WireLen(), maxNameWireLength)
	}
}

func TestBuildQnameExtractPayload_RoundTrip(t *testing.T) {
	domains := []string{"test.com", "a.b.example.org", "x.io"}
	payloadLens := []int{0, 1, 4, 5, 37, 100, 145}

	for _, domain := range domains {
		max, err := MaxPayloadLenForDomain(domain)
		if err != nil {
			t.Fatalf("MaxPayloadLenForDomain(%q): %v", domain, err)
		}
		for _, n := range payloadLens {
			if n > max {
				continue
			}
			payload := make([]byte, n)
			for i := range payload {
				payload[i] = byte((i * 37) % 256)
			}

			labels, err := BuildQname(payload, domain)
			if err != nil {
				t.Fatalf("BuildQname(domain=%q, n=%d): %v", domain, n, err)
			}

			got, err := ExtractPayload(labels.All(), domain)
			if err != nil {
				t.Fatalf("ExtractPayload(domain=%q, n=%d): %v", domain, n, err)
			}
			if !bytes.Equal(got, payload) {
				t.Fatalf("round trip mismatch for domain=%q n=%d: got %x want %x", domain, n, got, payload)
			}
		}
	}
}

func TestExtractPayload_DomainMismatch(t *testing.T) {
	labels, err := BuildQname([]byte("hello"), "test.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = ExtractPayload(labels.All(), "other.net")
	if err == nil {
		t.Fatal("expected domain mismatch error")
	}
}

func TestExtractPayload_CaseInsensitiveDomainMatch(t *testing.T) {
	labels, err := BuildQname([]byte("hello"), "Test.COM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := ExtractPayload(labels.All(), "test.com")
	if err != nil {
		t.Fatalf("unexpected error matching mixed-case domain: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}
