// Package state models the core/component/port entities of spec.md §3 and
// the invariants that must hold after every committed flush. It has no
// dependencies on the session, parser, runner, or flusher packages — the
// rest of the control plane depends on it, never the other way around.
package state

import (
	"fmt"

	"github.com/sandia-minimega/sppworker/internal/vlans"
)

// MaxLcore bounds the dense component id space (invariant 5: component
// ids are unique and dense in [0, MaxLcore)).
const MaxLcore = 128

// Params are the startup parameters recorded at process init.
type Params struct {
	ClientID       int
	ControllerHost string
	ControllerPort int
	SecondaryType  string
}

// ProcessState is the single owning value passed explicitly to every
// runner operation, replacing the teacher's global mutable singletons
// wired via setters (spec.md §9).
type ProcessState struct {
	Params Params

	Ports      map[PortRef]*Port
	Components [MaxLcore]Component // Components[i].Empty() until allocated
	Cores      map[int]*Core

	ChangedCores      map[int]bool
	ChangedComponents map[int]bool

	backup *backup
}

type backup struct {
	ports      map[PortRef]*Port
	components [MaxLcore]Component
	cores      map[int]*Core
}

// New creates an empty process state. Ports are populated separately at
// init time from the driver inventory (out of scope for this core, per
// spec.md §1/§6); cores are populated for every lcore id the process was
// told to manage.
func New(params Params, lcoreIDs []int) *ProcessState {
	ps := &ProcessState{
		Params:            params,
		Ports:             make(map[PortRef]*Port),
		Cores:             make(map[int]*Core),
		ChangedCores:      make(map[int]bool),
		ChangedComponents: make(map[int]bool),
	}
	for _, id := range lcoreIDs {
		core := NewCore(id)
		// A core named in the process's managed lcore set is available
		// for components to be started on, not "unused" in the sense of
		// §3's status enum (which means "not part of this process's
		// assigned core set" — those simply have no entry here).
		core.SetStatus(StatusIdle)
		ps.Cores[id] = core
	}
	return ps
}

// AddPort registers a driver-discovered port in the inventory. Called
// only during process init, never by a command.
func (ps *ProcessState) AddPort(ref PortRef, driverID int) {
	ps.Ports[ref] = &Port{
		Ref:      ref,
		DriverID: driverID,
		Classifier: ClassifierAttrs{
			VID: vlans.Sentinel,
		},
	}
}

// MarkCoreDirty flags a core for inclusion in the next flush.
func (ps *ProcessState) MarkCoreDirty(lcoreID int) {
	ps.ChangedCores[lcoreID] = true
}

// MarkComponentDirty flags a component for inclusion in the next flush.
func (ps *ProcessState) MarkComponentDirty(compID int) {
	ps.ChangedComponents[compID] = true
}

// AllocComponentID performs the linear scan for a free, dense component
// id, per §4.3.2's "allocate a free component id by linear scan".
func (ps *ProcessState) AllocComponentID() (int, bool) {
	for i := 0; i < MaxLcore; i++ {
		if ps.Components[i].Empty() {
			return i, true
		}
	}
	return 0, false
}

// FindComponentByName resolves a name to a component id, per the
// "name already resolves to a component id" checks in §4.3.2.
func (ps *ProcessState) FindComponentByName(name string) (int, bool) {
	for i := range ps.Components {
		if !ps.Components[i].Empty() && ps.Components[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// Snapshot copies the entire live state into the backup, per Flusher
// step 1. It must be called before any shadow changes are applied during
// a flush, so a failed flush can roll back to exactly the pre-flush
// live state.
func (ps *ProcessState) Snapshot() {
	b := &backup{
		ports:      make(map[PortRef]*Port, len(ps.Ports)),
		cores:      make(map[int]*Core, len(ps.Cores)),
		components: ps.Components,
	}
	for ref, p := range ps.Ports {
		cp := *p
		cp.Abilities = append([]Ability(nil), p.Abilities...)
		b.ports[ref] = &cp
	}
	for id, c := range ps.Cores {
		b.cores[id] = c.clone()
	}
	ps.backup = b
}

// Rollback restores the state recorded by the last Snapshot, discarding
// any shadow mutations made since. Used when a collaborator fails during
// flush (spec.md §4.4 step 2, §7 "Collaborator failure during flush").
func (ps *ProcessState) Rollback() {
	if ps.backup == nil {
		return
	}
	ps.Ports = ps.backup.ports
	ps.Components = ps.backup.components
	ps.Cores = ps.backup.cores
	ps.backup = nil
}

// ClearDirty empties both dirty bitmaps, per Flusher step 5.
func (ps *ProcessState) ClearDirty() {
	ps.ChangedCores = make(map[int]bool)
	ps.ChangedComponents = make(map[int]bool)
}

// CheckInvariants verifies invariants 1-6 of spec.md §3 against the live
// (ref-indexed) state. Used by property tests (P1); the flusher does not
// call it.
func (ps *ProcessState) CheckInvariants() error {
	seenNames := make(map[string]int)

	for lcoreID, core := range ps.Cores {
		for _, compID := range core.Live() {
			if compID < 0 || compID >= MaxLcore || ps.Components[compID].Empty() {
				return fmt.Errorf("invariant 1: core %d references missing component %d", lcoreID, compID)
			}
			comp := &ps.Components[compID]
			if comp.LcoreID != lcoreID {
				return fmt.Errorf("invariant 1: component %d lcore mismatch (core %d, comp says %d)", compID, lcoreID, comp.LcoreID)
			}

			if prev, ok := seenNames[comp.Name]; ok && prev != compID {
				return fmt.Errorf("invariant 5: duplicate component name %q (ids %d, %d)", comp.Name, prev, compID)
			}
			seenNames[comp.Name] = compID

			maxRX, maxTX := comp.Kind.FanCaps()
			if maxRX >= 0 && len(comp.RXPorts) > maxRX {
				return fmt.Errorf("invariant 4: component %d (%v) exceeds rx cap %d", compID, comp.Kind, maxRX)
			}
			if maxTX >= 0 && len(comp.TXPorts) > maxTX {
				return fmt.Errorf("invariant 4: component %d (%v) exceeds tx cap %d", compID, comp.Kind, maxTX)
			}

			for _, ref := range append(append([]PortRef{}, comp.RXPorts...), comp.TXPorts...) {
				port, ok := ps.Ports[ref]
				if !ok {
					return fmt.Errorf("invariant 2: component %d references missing port %v", compID, ref)
				}
				if port.Ref.Kind != ref.Kind {
					return fmt.Errorf("invariant 2: port %v kind mismatch", ref)
				}
			}
		}
	}

	for ref, port := range ps.Ports {
		if !port.Classifier.Unclassified(vlans.Sentinel) {
			owners := ps.classifierOwners(ref)
			if owners != 1 {
				return fmt.Errorf("invariant 3: port %v has classifier attrs with %d classifier owners", ref, owners)
			}
		}
		seen := make(map[[2]int]bool)
		for _, a := range port.Abilities {
			key := [2]int{int(a.Op), int(a.Direction)}
			if seen[key] {
				return fmt.Errorf("invariant 6: port %v has duplicate ability (op=%d dir=%d)", ref, a.Op, a.Direction)
			}
			seen[key] = true
		}
	}

	return nil
}

// classifierOwners counts how many live classifier_mac components have
// ref as their tx-port.
func (ps *ProcessState) classifierOwners(ref PortRef) int {
	count := 0
	for i := range ps.Components {
		c := &ps.Components[i]
		if c.Empty() || c.Kind != KindClassifierMAC {
			continue
		}
		if containsPortRef(c.TXPorts, ref) {
			count++
		}
	}
	return count
}
