package addr

import (
	"testing"

	"github.com/taesiri/slipstream-go/internal/errcat"
)

func TestResolveHostPort_IPLiteralMatchingFamily(t *testing.T) {
	hp := HostPort{Host: "127.0.0.1", Port: 53, Family: V4, Kind: KindResolver}
	got, err := ResolveHostPort(hp)
	if err != nil {
		t.Fatalf("ResolveHostPort: %v", err)
	}
	if got.IP.String() != "127.0.0.1" || got.Port != 53 {
		t.Fatalf("ResolveHostPort(%+v) = %+v, want 127.0.0.1:53", hp, got)
	}
}

func TestResolveHostPort_UnresolvableNameUsesHostPortKind(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want errcat.AddressKind
	}{
		{name: "resolver kind", kind: KindResolver, want: errcat.Resolver},
		{name: "target kind", kind: KindTarget, want: errcat.Target},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp := HostPort{Host: "this-host-does-not-resolve.invalid", Port: 53, Family: V4, Kind: tt.kind}
			_, err := ResolveHostPort(hp)
			if err == nil {
				t.Fatal("expected a resolution error")
			}
			cfgErr, ok := err.(*errcat.ConfigError)
			if !ok {
				t.Fatalf("error = %T, want *errcat.ConfigError", err)
			}
			if cfgErr.Kind != tt.want {
				t.Fatalf("ConfigError.Kind = %v, want %v", cfgErr.Kind, tt.want)
			}
		})
	}
}
