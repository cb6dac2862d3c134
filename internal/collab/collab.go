// Package collab models the out-of-scope data-plane collaborators of
// spec.md §6 (update_classifier, update_forwarder, init_classifier_info,
// get_classifier_status, get_forwarder_status) as a small capability
// vtable keyed by worker kind, per the redesign note in spec.md §9:
// "represent components as a tagged variant whose update, status, and
// teardown are dispatched through a small capability vtable keyed by
// kind" rather than branching on the kind at every call site.
package collab

import (
	"fmt"

	"github.com/sandia-minimega/sppworker/internal/macaddr"
	"github.com/sandia-minimega/sppworker/internal/state"
)

// StatusFields are the role-specific fields the formatter appends to a
// status element for one component (e.g. a classifier's MAC/VLAN table).
type StatusFields map[string]interface{}

// RoleHooks is the per-kind capability vtable.
type RoleHooks struct {
	// Update regenerates the data-path lookup tables for comp from the
	// shadow record. A synchronous failure aborts the whole flush and
	// triggers a rollback (spec.md §4.4 step 2).
	Update func(ps *state.ProcessState, comp *state.Component) error

	// Status produces the role-specific status fragment for comp.
	Status func(ps *state.ProcessState, comp *state.Component) StatusFields

	// Teardown releases any role-owned resources (e.g. a classifier's
	// MAC/VLAN table) when a component is stopped.
	Teardown func(compID int)
}

var registry = map[state.Kind]*RoleHooks{}

// Register installs the hooks for a kind. Called once per kind at
// package init by each role's own file (classifier.go, forwarder.go,
// merger.go, mirror.go).
func Register(k state.Kind, hooks *RoleHooks) {
	registry[k] = hooks
}

// Lookup returns the registered hooks for a kind, or an error if none.
func Lookup(k state.Kind) (*RoleHooks, error) {
	h, ok := registry[k]
	if !ok {
		return nil, fmt.Errorf("no collaborator registered for kind %v", k)
	}
	return h, nil
}

// ClassifierEntry is one row of a classifier component's MAC/VLAN table,
// the external "classifier table" referenced by spec.md §6/§8 (P5).
type ClassifierEntry struct {
	Port state.PortRef
	VID  int
	MAC  macaddr.Addr
}
