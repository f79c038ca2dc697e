package adapter

import (
	"net"
	"testing"
	"time"

	"github.com/taesiri/slipstream-go/internal/wire"
)

func TestClientConn_WriteEncodesQueryReadDecodesResponse(t *testing.T) {
	domain := "test.com"
	resolverAddr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 53}

	qname, err := wire.BuildQname([]byte("ping"), domain)
	if err != nil {
		t.Fatalf("BuildQname: %v", err)
	}
	question := wire.Question{Name: qname, QType: wire.RRTypeTXT, QClass: wire.ClassIN}
	resp, err := wire.EncodeResponse(wire.ResponseParams{
		ID: 7, RD: true, Question: question, Payload: []byte("pong"),
	})
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}

	transport := NewMockTransport()
	transport.QueueReceive(resp, resolverAddr, nil)

	conn := NewClientConn(transport, domain, []net.Addr{resolverAddr}, nil)
	defer conn.Close()

	if _, err := conn.WriteTo([]byte("ping"), nil); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	buf := make([]byte, 64)
	n, addr, err := readWithTimeout(t, conn, buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if string(buf[:n]) != "pong" {
		t.Fatalf("payload = %q, want pong", buf[:n])
	}
	if addr.String() != domain {
		t.Fatalf("peer addr = %v, want %s", addr, domain)
	}

	calls := transport.SendCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 send, got %d", len(calls))
	}
	_, payload, err := DecodeInboundQuery(calls[0].Packet, domain)
	if err != nil {
		t.Fatalf("DecodeInboundQuery: %v", err)
	}
	if string(payload) != "ping" {
		t.Fatalf("sent payload = %q, want ping", payload)
	}
}

func TestClientConn_RoundRobinsAcrossResolvers(t *testing.T) {
	domain := "test.com"
	resolvers := []net.Addr{
		&net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: 53},
		&net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: 53},
	}

	transport := NewMockTransport()
	conn := NewClientConn(transport, domain, resolvers, nil)
	defer conn.Close()

	for i := 0; i < 4; i++ {
		if _, err := conn.WriteTo([]byte("x"), nil); err != nil {
			t.Fatalf("WriteTo #%d: %v", i, err)
		}
	}

	calls := transport.SendCalls()
	if len(calls) != 4 {
		t.Fatalf("expected 4 sends, got %d", len(calls))
	}
	for i, call := range calls {
		want := resolvers[i%2].String()
		if call.Dest.String() != want {
			t.Fatalf("send %d went to %v, want %v", i, call.Dest, want)
		}
	}
}

func TestServerConn_AnswersOldestPendingQuery(t *testing.T) {
	domain := "test.com"
	clientAddr := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 4000}

	query, err := EncodeOutboundQuery(3, domain, []byte("hello"))
	if err != nil {
		t.Fatalf("EncodeOutboundQuery: %v", err)
	}

	transport := NewMockTransport()
	transport.QueueReceive(query, clientAddr, nil)

	conn := NewServerConn(transport, domain, nil)
	defer conn.Close()

	buf := make([]byte, 64)
	n, _, err := readWithTimeout(t, conn, buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("payload = %q, want hello", buf[:n])
	}

	if _, err := conn.WriteTo([]byte("world"), nil); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	calls := transport.SendCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 send, got %d", len(calls))
	}
	if calls[0].Dest.String() != clientAddr.String() {
		t.Fatalf("response sent to %v, want %v", calls[0].Dest, clientAddr)
	}
	_, _, payload, err := DecodeInboundResponse(calls[0].Packet)
	if err != nil {
		t.Fatalf("DecodeInboundResponse: %v", err)
	}
	if string(payload) != "world" {
		t.Fatalf("response payload = %q, want world", payload)
	}
}

func TestServerConn_WriteWithNoPendingQueryErrors(t *testing.T) {
	transport := NewMockTransport()
	conn := NewServerConn(transport, "test.com", nil)
	defer conn.Close()

	if _, err := conn.WriteTo([]byte("x"), nil); err == nil {
		t.Fatal("expected an error with no pending query to answer")
	}
}

func TestClientConn_RecordsDecodeFailures(t *testing.T) {
	domain := "test.com"
	resolverAddr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 53}

	transport := NewMockTransport()
	transport.QueueReceive([]byte("not a dns message"), resolverAddr, nil)

	failures := NewDecodeFailureCounter()
	conn := NewClientConn(transport, domain, []net.Addr{resolverAddr}, failures)
	defer conn.Close()

	deadline := time.After(2 * time.Second)
	for {
		if len(failures.Snapshot()) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("decode failure was never recorded")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestServerConn_RecordsDecodeFailures(t *testing.T) {
	domain := "test.com"
	clientAddr := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 4000}

	transport := NewMockTransport()
	transport.QueueReceive([]byte("not a dns message"), clientAddr, nil)

	failures := NewDecodeFailureCounter()
	conn := NewServerConn(transport, domain, failures)
	defer conn.Close()

	deadline := time.After(2 * time.Second)
	for {
		if len(failures.Snapshot()) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("decode failure was never recorded")
		case <-time.After(time.Millisecond):
		}
	}
}

func readWithTimeout(t *testing.T, conn net.PacketConn, buf []byte) (int, net.Addr, error) {
	t.Helper()
	type result struct {
		n    int
		addr net.Addr
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		n, addr, err := conn.ReadFrom(buf)
		ch <- result{n, addr, err}
	}()
	select {
	case r := <-ch:
		return r.n, r.addr, r.err
	case <-time.After(2 * time.Second):
		t.Fatal("ReadFrom timed out")
		return 0, nil, nil
	}
}
