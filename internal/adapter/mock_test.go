package adapter

import (
	"context"
	"net"
	"testing"
)

func TestMockTransport_SendRecordsCalls(t *testing.T) {
	m := NewMockTransport()
	dest := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 53}

	if err := m.Send(context.Background(), []byte("abc"), dest); err != nil {
		t.Fatalf("Send: %v", err)
	}

	calls := m.SendCalls()
	if len(calls) != 1 || string(calls[0].Packet) != "abc" {
		t.Fatalf("unexpected send calls: %+v", calls)
	}
}

func TestMockTransport_QueueReceive(t *testing.T) {
	m := NewMockTransport()
	src := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1234}
	m.QueueReceive([]byte("reply"), src, nil)

	packet, got, err := m.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(packet) != "reply" || got.String() != src.String() {
		t.Fatalf("unexpected receive result: %q %v", packet, got)
	}

	packet, _, err = m.Receive(context.Background())
	if err != nil || packet != nil {
		t.Fatalf("expected empty queue to return nil, got %q %v", packet, err)
	}
}
