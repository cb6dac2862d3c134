package runner

import (
	"github.com/sandia-minimega/sppworker/internal/collab"
	"github.com/sandia-minimega/sppworker/internal/command"
	"github.com/sandia-minimega/sppworker/internal/state"
)

// Worker executes a `component` command (spec.md §4.3.2).
func (r *Runner) Worker(cmd *command.Command) Result {
	switch cmd.Action {
	case command.ActionStart:
		return r.workerStart(cmd)
	case command.ActionStop:
		return r.workerStop(cmd)
	default:
		return fail("component", "unsupported action")
	}
}

func (r *Runner) workerStart(cmd *command.Command) Result {
	core, ok := r.PS.Cores[cmd.LcoreID]
	if !ok || core.Status() == state.StatusUnused {
		return fail("component", "core %d is unused", cmd.LcoreID)
	}

	if _, exists := r.PS.FindComponentByName(cmd.Name); exists {
		return fail("component", "name %q already in use", cmd.Name)
	}

	compID, ok := r.PS.AllocComponentID()
	if !ok {
		return fail("component", "no free component id")
	}

	// Stage: zero-initialize the slot and write its fields, append the
	// new id to the target core's shadow list.
	r.PS.Components[compID] = state.Component{
		ID:      compID,
		Name:    cmd.Name,
		Kind:    cmd.Kind,
		LcoreID: cmd.LcoreID,
	}

	core.SyncUpdFromLive()
	core.SetUpd(append(core.Upd(), compID))

	r.PS.MarkCoreDirty(cmd.LcoreID)
	r.PS.MarkComponentDirty(compID)

	return r.commit("component")
}

func (r *Runner) workerStop(cmd *command.Command) Result {
	compID, exists := r.PS.FindComponentByName(cmd.Name)
	if !exists {
		// Idempotent per spec.md §4.3.2/P4: stop of a nonexistent
		// component is a no-op that reports success.
		return Result{OK: true, Command: "component"}
	}

	comp := &r.PS.Components[compID]
	lcoreID := comp.LcoreID

	core, ok := r.PS.Cores[lcoreID]
	if !ok {
		return fail("component", "component %d bound to unknown core %d", compID, lcoreID)
	}

	if comp.Kind == state.KindClassifierMAC {
		if hooks, err := collab.Lookup(state.KindClassifierMAC); err == nil {
			hooks.Teardown(compID)
		}
	}

	core.SyncUpdFromLive()
	upd, _ := removeIntPreserveOrder(core.Upd(), compID)
	core.SetUpd(upd)

	r.PS.Components[compID] = state.Component{}

	r.PS.MarkCoreDirty(lcoreID)
	r.PS.MarkComponentDirty(compID)

	return r.commit("component")
}

func removeIntPreserveOrder(ids []int, target int) ([]int, bool) {
	for i, id := range ids {
		if id == target {
			out := make([]int, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			out = append(out, ids[i+1:]...)
			return out, true
		}
	}
	return ids, false
}
