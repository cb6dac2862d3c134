package collab

import "github.com/sandia-minimega/sppworker/internal/state"

func init() {
	Register(state.KindMerger, &RoleHooks{
		Update:   genericUpdate,
		Status:   genericStatus,
		Teardown: func(int) {},
	})
}
