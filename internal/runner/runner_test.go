package runner

import (
	"reflect"
	"testing"

	"github.com/sandia-minimega/sppworker/internal/command"
	"github.com/sandia-minimega/sppworker/internal/flush"
	"github.com/sandia-minimega/sppworker/internal/state"
)

func newTestRunner(t *testing.T, lcores []int, ports []state.PortRef) *Runner {
	t.Helper()

	ps := state.New(state.Params{}, lcores)
	for i, ref := range ports {
		ps.AddPort(ref, i)
	}

	f := flush.New(flush.Config{AckRetries: 0}, nil)
	return New(ps, f)
}

func mustParse(t *testing.T, line string) *command.Command {
	t.Helper()
	cmd, err := command.Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q): %v", line, err)
	}
	return cmd
}

// Scenario 1 (spec.md §8): a forwarder's rx cap is 1.
func TestForwarderRXCap(t *testing.T) {
	r := newTestRunner(t, []int{2}, []state.PortRef{
		{Kind: state.KindRing, Index: 0},
		{Kind: state.KindRing, Index: 1},
	})

	if res := r.Execute(mustParse(t, "component start name=fwd1 core=2 type=forward")); !res.OK {
		t.Fatalf("start failed: %v", res.Reason)
	}
	if res := r.Execute(mustParse(t, "port add port=ring:0 dir=rx name=fwd1")); !res.OK {
		t.Fatalf("first port add failed: %v", res.Reason)
	}
	if res := r.Execute(mustParse(t, "port add port=ring:1 dir=rx name=fwd1")); res.OK {
		t.Fatalf("second rx port add should have failed (rx cap = 1)")
	}
}

// Scenario 2: adding the same classifier entry twice fails the second time.
func TestClassifierTableDuplicatePort(t *testing.T) {
	r := newTestRunner(t, []int{0}, []state.PortRef{{Kind: state.KindPhy, Index: 0}})

	line := "classifier_table add type=mac mac=aa:bb:cc:dd:ee:00 port=phy:0"
	if res := r.Execute(mustParse(t, line)); !res.OK {
		t.Fatalf("first add failed: %v", res.Reason)
	}
	if res := r.Execute(mustParse(t, line)); res.OK {
		t.Fatalf("second add should have failed (port already used)")
	}
}

// Scenario 3: deleting with a mismatched MAC fails and leaves state
// unchanged.
func TestClassifierTableDeleteMismatch(t *testing.T) {
	r := newTestRunner(t, []int{0}, []state.PortRef{{Kind: state.KindPhy, Index: 0}})

	add := "classifier_table add type=mac mac=aa:bb:cc:dd:ee:00 port=phy:0"
	if res := r.Execute(mustParse(t, add)); !res.OK {
		t.Fatalf("add failed: %v", res.Reason)
	}

	before := r.PS.Ports[state.PortRef{Kind: state.KindPhy, Index: 0}].Classifier

	del := "classifier_table del type=mac mac=aa:bb:cc:dd:ee:99 port=phy:0"
	if res := r.Execute(mustParse(t, del)); res.OK {
		t.Fatalf("mismatched del should have failed")
	}

	after := r.PS.Ports[state.PortRef{Kind: state.KindPhy, Index: 0}].Classifier
	if before != after {
		t.Fatalf("state changed on a rejected command: before %+v after %+v", before, after)
	}
}

// Scenario 4: starting a second component with the same name fails.
func TestComponentNameInUse(t *testing.T) {
	r := newTestRunner(t, []int{3, 4}, nil)

	if res := r.Execute(mustParse(t, "component start name=c1 core=3 type=classifier_mac")); !res.OK {
		t.Fatalf("first start failed: %v", res.Reason)
	}
	if res := r.Execute(mustParse(t, "component start name=c1 core=4 type=classifier_mac")); res.OK {
		t.Fatalf("second start with duplicate name should have failed")
	}
}

// Scenario 5 / property P4: stopping a nonexistent component is a
// no-op success.
func TestComponentStopNonexistentIsNoop(t *testing.T) {
	r := newTestRunner(t, []int{1}, nil)

	res := r.Execute(mustParse(t, "component stop name=does_not_exist"))
	if !res.OK {
		t.Fatalf("stop of nonexistent component should succeed, got: %v", res.Reason)
	}
}

// Scenario 6: status reflects a mirror's rx/tx ports in insertion order.
func TestStatusMirrorPortOrder(t *testing.T) {
	r := newTestRunner(t, []int{5}, []state.PortRef{
		{Kind: state.KindVhost, Index: 0},
		{Kind: state.KindVhost, Index: 1},
		{Kind: state.KindVhost, Index: 2},
	})

	mustOK := func(line string) {
		if res := r.Execute(mustParse(t, line)); !res.OK {
			t.Fatalf("%q failed: %v", line, res.Reason)
		}
	}
	mustOK("component start name=m1 core=5 type=mirror")
	mustOK("port add port=vhost:0 dir=rx name=m1")
	mustOK("port add port=vhost:1 dir=tx name=m1")
	mustOK("port add port=vhost:2 dir=tx name=m1")

	res := r.Status()
	var found bool
	for _, core := range res.Status {
		if core.LcoreID != 5 {
			continue
		}
		found = true
		if len(core.Components) != 1 {
			t.Fatalf("expected 1 component on core 5, got %d", len(core.Components))
		}
		comp := core.Components[0]
		if comp.Kind != "mirror" {
			t.Fatalf("got kind %q", comp.Kind)
		}
		if len(comp.RXPorts) != 1 || comp.RXPorts[0] != "vhost:0" {
			t.Fatalf("unexpected rx ports: %v", comp.RXPorts)
		}
		want := []string{"vhost:1", "vhost:2"}
		if len(comp.TXPorts) != 2 || comp.TXPorts[0] != want[0] || comp.TXPorts[1] != want[1] {
			t.Fatalf("unexpected tx ports: %v", comp.TXPorts)
		}
	}
	if !found {
		t.Fatalf("core 5 missing from status")
	}
}

// Property P1: invariants hold after every committed flush.
func TestInvariantsHoldAfterFlush(t *testing.T) {
	r := newTestRunner(t, []int{2}, []state.PortRef{{Kind: state.KindRing, Index: 0}})

	mustOK := func(line string) {
		if res := r.Execute(mustParse(t, line)); !res.OK {
			t.Fatalf("%q failed: %v", line, res.Reason)
		}
	}
	mustOK("component start name=fwd1 core=2 type=forward")
	mustOK("port add port=ring:0 dir=rx name=fwd1")

	if err := r.PS.CheckInvariants(); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
}

// Property P2: a rejected command leaves the pre-command state intact.
func TestRejectedCommandLeavesStateUnchanged(t *testing.T) {
	r := newTestRunner(t, []int{2}, nil)

	mustOK := func(line string) {
		if res := r.Execute(mustParse(t, line)); !res.OK {
			t.Fatalf("%q failed: %v", line, res.Reason)
		}
	}
	mustOK("component start name=fwd1 core=2 type=forward")

	before := r.PS.Components[0]

	if res := r.Execute(mustParse(t, "component start name=fwd1 core=2 type=forward")); res.OK {
		t.Fatalf("duplicate start should have failed")
	}

	if !reflect.DeepEqual(r.PS.Components[0], before) {
		t.Fatalf("state mutated by a rejected command")
	}
}
