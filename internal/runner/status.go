package runner

import (
	"sort"

	"github.com/sandia-minimega/sppworker/internal/collab"
	"github.com/sandia-minimega/sppworker/internal/state"
)

// StatusComponent is one component element of a status reply.
type StatusComponent struct {
	Name    string
	Kind    string
	RXPorts []string
	TXPorts []string
	Extra   collab.StatusFields
}

// StatusCore is one core's status element, per spec.md §4.3.4: empty
// cores emit a single "unuse" element, non-empty cores emit one element
// per live component.
type StatusCore struct {
	LcoreID    int
	Status     string
	Unused     bool
	Components []StatusComponent
}

// Status executes the read-only `status` command (spec.md §4.3.4). It
// never stages changes or requests a flush.
func (r *Runner) Status() Result {
	var out []StatusCore

	ids := make([]int, 0, len(r.PS.Cores))
	for id := range r.PS.Cores {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, lcoreID := range ids {
		core := r.PS.Cores[lcoreID]
		live := core.Live()

		sc := StatusCore{LcoreID: lcoreID, Status: core.Status().String()}
		if len(live) == 0 {
			sc.Unused = true
			out = append(out, sc)
			continue
		}

		for _, compID := range live {
			comp := &r.PS.Components[compID]
			if comp.Empty() {
				continue
			}

			element := StatusComponent{
				Name:    comp.Name,
				Kind:    comp.Kind.String(),
				RXPorts: refStrings(comp.RXPorts),
				TXPorts: refStrings(comp.TXPorts),
			}

			if hooks, err := collab.Lookup(comp.Kind); err == nil && hooks.Status != nil {
				element.Extra = hooks.Status(r.PS, comp)
			}

			sc.Components = append(sc.Components, element)
		}

		out = append(out, sc)
	}

	return Result{OK: true, Command: "status", Status: out}
}

func refStrings(refs []state.PortRef) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = ref.String()
	}
	return out
}
