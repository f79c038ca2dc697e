package tunnel

import "fmt"

// CongestionControl identifies which congestion-control algorithm the
// underlying QUIC connection should run. The algorithm itself is out of
// scope here (defining it is an explicit non-goal); this type only
// validates the CLI selection and carries it into log fields; it is not
// passed to the quic.Config, so it does not change QUIC's behaviour.
type CongestionControl int

const (
	// DCubic is the default: a deadline-aware Cubic variant.
	DCubic CongestionControl = iota
	// BBR selects BBR-style congestion control.
	BBR
)

func (c CongestionControl) String() string {
	switch c {
	case DCubic:
		return "dcubic"
	case BBR:
		return "bbr"
	default:
		return "unknown"
	}
}

// ParseCongestionControl validates the --congestion-control flag value.
func ParseCongestionControl(s string) (CongestionControl, error) {
	switch s {
	case "dcubic", "":
		return DCubic, nil
	case "bbr":
		return BBR, nil
	default:
		return 0, fmt.Errorf("unknown congestion control %q (want bbr or dcubic)", s)
	}
}
