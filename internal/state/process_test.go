package state

import (
	"testing"

	"github.com/sandia-minimega/sppworker/internal/vlans"
)

func TestAllocComponentIDDense(t *testing.T) {
	ps := New(Params{}, []int{0})

	id1, ok := ps.AllocComponentID()
	if !ok || id1 != 0 {
		t.Fatalf("expected first id 0, got %d ok=%v", id1, ok)
	}
	ps.Components[id1] = Component{ID: id1, Name: "a"}

	id2, ok := ps.AllocComponentID()
	if !ok || id2 != 1 {
		t.Fatalf("expected second id 1, got %d ok=%v", id2, ok)
	}
}

func TestSnapshotRollbackRestoresPorts(t *testing.T) {
	ps := New(Params{}, []int{0})
	ref := PortRef{Kind: KindPhy, Index: 0}
	ps.AddPort(ref, 0)

	ps.Snapshot()

	ps.Ports[ref].Classifier.VID = 10

	ps.Rollback()

	if ps.Ports[ref].Classifier.VID != vlans.Sentinel {
		t.Fatalf("expected rollback to restore sentinel vid, got %d", ps.Ports[ref].Classifier.VID)
	}
}

func TestCheckInvariantsDetectsFanoutViolation(t *testing.T) {
	ps := New(Params{}, []int{0})
	ref := PortRef{Kind: KindRing, Index: 0}
	ps.AddPort(ref, 0)
	ref2 := PortRef{Kind: KindRing, Index: 1}
	ps.AddPort(ref2, 1)

	ps.Components[0] = Component{
		ID:      0,
		Name:    "fwd",
		Kind:    KindForwarder,
		LcoreID: 0,
		RXPorts: []PortRef{ref, ref2}, // forwarder rx cap is 1
	}
	core := ps.Cores[0]
	core.SyncUpdFromLive()
	core.SetUpd([]int{0})
	core.Flip()

	if err := ps.CheckInvariants(); err == nil {
		t.Fatalf("expected invariant 4 violation, got nil")
	}
}
