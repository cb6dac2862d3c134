package command

import "testing"

func TestParseComponentStart(t *testing.T) {
	cmd, err := Parse("component start name=fwd1 core=2 type=forward")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Verb != VerbComponent || cmd.Action != ActionStart {
		t.Fatalf("got %+v", cmd)
	}
	if cmd.Name != "fwd1" || cmd.LcoreID != 2 {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParsePortAdd(t *testing.T) {
	cmd, err := Parse("port add port=ring:0 dir=rx name=fwd1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.PortRef.Index != 0 {
		t.Fatalf("got %+v", cmd.PortRef)
	}
}

func TestParseClassifierTableAdd(t *testing.T) {
	cmd, err := Parse("classifier_table add type=mac mac=aa:bb:cc:dd:ee:ff port=vhost:2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.ClsKind != ClsKindMAC || cmd.MAC != "aa:bb:cc:dd:ee:ff" {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseStatusAndExit(t *testing.T) {
	if cmd, err := Parse("status"); err != nil || cmd.Verb != VerbStatus {
		t.Fatalf("status: got %+v, err %v", cmd, err)
	}
	if cmd, err := Parse("exit"); err != nil || cmd.Verb != VerbExit {
		t.Fatalf("exit: got %+v, err %v", cmd, err)
	}
}

func TestParseSyntacticFailures(t *testing.T) {
	cases := []string{
		"",
		"bogus verb",
		"classifier_table add type=mac mac=not-a-mac port=phy:0",
		"port add port=phy:0 dir=sideways name=x",
		"port add port=phy:0 dir=rx name=x vid=9000",
		"component start name=" + string(make([]byte, 200)),
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error, got none", in)
		}
	}
}
