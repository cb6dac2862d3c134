// Package command turns one framed controller message into a typed
// Command value, enforcing only the syntactic constraints of spec.md
// §4.2 (VLAN/PCP ranges, MAC shape, name length, iface_kind set). It
// never touches process state; that is the runner's job.
package command

import "github.com/sandia-minimega/sppworker/internal/state"

// Verb is the wire-level command verb.
type Verb int

const (
	VerbComponent Verb = iota
	VerbPort
	VerbClassifierTable
	VerbStatus
	VerbExit
)

// Action is the add/del or start/stop action modifier.
type Action int

const (
	ActionAdd Action = iota
	ActionDel
	ActionStart
	ActionStop
)

// ClsKind distinguishes the two classifier_table kinds named in spec.md
// §4.2 ("kind ∈ {mac, vlan}").
type ClsKind int

const (
	ClsKindMAC ClsKind = iota
	ClsKindVLAN
)

// Command is the parser's output: one variant of spec.md §4.2's union.
type Command struct {
	Verb Verb

	// ClsTable fields.
	ClsKind ClsKind
	Action  Action
	VID     int
	PCP     int
	MAC     string
	PortRef state.PortRef

	// Worker (component) fields.
	Name    string
	LcoreID int
	Kind    state.Kind

	// Port fields.
	Direction state.Direction
	Ability   state.AbilityOp
}
