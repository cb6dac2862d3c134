package collab

import "github.com/sandia-minimega/sppworker/internal/state"

func init() {
	Register(state.KindForwarder, &RoleHooks{
		Update:   genericUpdate,
		Status:   genericStatus,
		Teardown: func(int) {},
	})
}

// genericUpdate is the stand-in for update_forwarder: a 1-in/1-out role
// has no per-component lookup table beyond its rx/tx port pair, which
// the formatter already reads straight off the component.
func genericUpdate(ps *state.ProcessState, comp *state.Component) error {
	return nil
}

func genericStatus(ps *state.ProcessState, comp *state.Component) StatusFields {
	return nil
}
