package tunnel

import "testing"

func TestParseCongestionControl(t *testing.T) {
	cases := []struct {
		in      string
		want    CongestionControl
		wantErr bool
	}{
		{"dcubic", DCubic, false},
		{"", DCubic, false},
		{"bbr", BBR, false},
		{"reno", 0, true},
	}
	for _, c := range cases {
		got, err := ParseCongestionControl(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseCongestionControl(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCongestionControl(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseCongestionControl(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCongestionControl_String(t *testing.T) {
	if DCubic.String() != "dcubic" {
		t.Fatalf("DCubic.String() = %q", DCubic.String())
	}
	if BBR.String() != "bbr" {
		t.Fatalf("BBR.String() = %q", BBR.String())
	}
}
