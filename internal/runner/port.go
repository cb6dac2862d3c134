package runner

import (
	"github.com/sandia-minimega/sppworker/internal/command"
	"github.com/sandia-minimega/sppworker/internal/macaddr"
	"github.com/sandia-minimega/sppworker/internal/state"
)

// Port executes a `port` command (spec.md §4.3.3).
func (r *Runner) Port(cmd *command.Command) Result {
	compID, exists := r.PS.FindComponentByName(cmd.Name)
	if !exists {
		return fail("port", "unknown component %q", cmd.Name)
	}
	comp := &r.PS.Components[compID]

	if _, ok := r.PS.Ports[cmd.PortRef]; !ok {
		return fail("port", "unknown port %v", cmd.PortRef)
	}

	switch cmd.Action {
	case command.ActionAdd:
		return r.portAdd(comp, cmd)
	case command.ActionDel:
		return r.portDel(comp, cmd)
	default:
		return fail("port", "unsupported action")
	}
}

func (r *Runner) portAdd(comp *state.Component, cmd *command.Command) Result {
	list := comp.RXPorts
	if cmd.Direction == state.DirTX {
		list = comp.TXPorts
	}

	if idx := indexOfPortRef(list, cmd.PortRef); idx >= 0 {
		// Duplicate: only acceptable if this is layering a new
		// add_vlan_tag ability onto the existing entry.
		if cmd.Ability != state.AbilityAddVLANTag {
			return fail("port", "port %v already attached in this direction", cmd.PortRef)
		}
		return r.addAbility(comp, cmd)
	}

	maxRX, maxTX := comp.Kind.FanCaps()
	if cmd.Direction == state.DirRX || cmd.Direction == state.DirBoth {
		if maxRX >= 0 && len(comp.RXPorts) >= maxRX {
			return fail("port", "%v rx cap (%d) exceeded", comp.Kind, maxRX)
		}
	}
	if cmd.Direction == state.DirTX || cmd.Direction == state.DirBoth {
		if maxTX >= 0 && len(comp.TXPorts) >= maxTX {
			return fail("port", "%v tx cap (%d) exceeded", comp.Kind, maxTX)
		}
	}

	// Run addAbility's checks before attaching the port, so a rejected
	// ability leaves the component unchanged.
	if cmd.Ability != state.AbilityNone {
		port := r.PS.Ports[cmd.PortRef]
		if port.FindAbility(cmd.Ability, cmd.Direction) >= 0 {
			return fail("port", "ability already present for %v", cmd.PortRef)
		}
		if len(port.Abilities) >= state.MaxAbilities {
			return fail("port", "no free ability slot on %v", cmd.PortRef)
		}
	}

	if cmd.Direction == state.DirRX || cmd.Direction == state.DirBoth {
		comp.RXPorts = append(comp.RXPorts, cmd.PortRef)
	}
	if cmd.Direction == state.DirTX || cmd.Direction == state.DirBoth {
		comp.TXPorts = append(comp.TXPorts, cmd.PortRef)
	}

	if cmd.Ability != state.AbilityNone {
		return r.addAbility(comp, cmd)
	}

	r.markPortTxn(comp)
	return r.commit("port")
}

// addAbility layers a new ability onto the port's existing entry in its
// next free ability slot, per §4.3.3's "layered onto the existing port
// entry in its next free ability slot".
func (r *Runner) addAbility(comp *state.Component, cmd *command.Command) Result {
	port := r.PS.Ports[cmd.PortRef]

	if port.FindAbility(cmd.Ability, cmd.Direction) >= 0 {
		return fail("port", "ability already present for %v", cmd.PortRef)
	}
	if len(port.Abilities) >= state.MaxAbilities {
		return fail("port", "no free ability slot on %v", cmd.PortRef)
	}

	port.Abilities = append(port.Abilities, state.Ability{
		Op:        cmd.Ability,
		Direction: cmd.Direction,
		Tag:       macDot1Q(cmd.VID, cmd.PCP),
	})

	r.markPortTxn(comp)
	return r.commit("port")
}

func (r *Runner) portDel(comp *state.Component, cmd *command.Command) Result {
	list := comp.RXPorts
	if cmd.Direction == state.DirTX {
		list = comp.TXPorts
	}

	out, removed := removePortRefLocal(list, cmd.PortRef)
	if !removed {
		// Idempotent: a port not attached in this direction is already
		// the desired end state, so del reports success without staging
		// any change (mirrors component stop's idempotency, P4).
		return Result{OK: true, Command: "port"}
	}

	if cmd.Direction == state.DirTX {
		comp.TXPorts = out
	} else {
		comp.RXPorts = out
	}

	port := r.PS.Ports[cmd.PortRef]
	var kept []state.Ability
	for _, a := range port.Abilities {
		if a.Direction == cmd.Direction {
			continue
		}
		kept = append(kept, a)
	}
	port.Abilities = kept

	r.markPortTxn(comp)
	return r.commit("port")
}

func (r *Runner) markPortTxn(comp *state.Component) {
	r.PS.MarkComponentDirty(comp.ID)
	r.PS.MarkCoreDirty(comp.LcoreID)
}

func indexOfPortRef(refs []state.PortRef, ref state.PortRef) int {
	for i, r := range refs {
		if r == ref {
			return i
		}
	}
	return -1
}

func removePortRefLocal(refs []state.PortRef, ref state.PortRef) ([]state.PortRef, bool) {
	idx := indexOfPortRef(refs, ref)
	if idx < 0 {
		return refs, false
	}
	out := make([]state.PortRef, 0, len(refs)-1)
	out = append(out, refs[:idx]...)
	out = append(out, refs[idx+1:]...)
	return out, true
}

func macDot1Q(vid, pcp int) macaddr.Dot1Q {
	return macaddr.Dot1Q{
		VID: uint16(vid),
		PCP: uint8(pcp),
		TCI: uint16(pcp)<<13 | uint16(vid&0x0fff),
	}
}
