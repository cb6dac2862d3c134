package vlans

import "testing"

func TestValidate(t *testing.T) {
	cases := []struct {
		vid int
		ok  bool
	}{
		{-1, false},
		{0, true},
		{4094, true},
		{4095, false}, // the sentinel itself is not a legal classifier vid
		{5000, false},
	}

	for _, c := range cases {
		err := Validate(c.vid)
		if (err == nil) != c.ok {
			t.Errorf("Validate(%d) = %v, want ok=%v", c.vid, err, c.ok)
		}
	}
}

func TestValidatePCP(t *testing.T) {
	cases := []struct {
		pcp int
		ok  bool
	}{
		{-1, false},
		{0, true},
		{7, true},
		{8, false},
	}

	for _, c := range cases {
		err := ValidatePCP(c.pcp)
		if (err == nil) != c.ok {
			t.Errorf("ValidatePCP(%d) = %v, want ok=%v", c.pcp, err, c.ok)
		}
	}
}

func TestSentinelOutOfRange(t *testing.T) {
	if Validate(Sentinel) == nil {
		t.Errorf("expected sentinel %d to be rejected by Validate", Sentinel)
	}
}
