package runner

import (
	"github.com/sandia-minimega/sppworker/internal/command"
	"github.com/sandia-minimega/sppworker/internal/macaddr"
	"github.com/sandia-minimega/sppworker/internal/state"
	"github.com/sandia-minimega/sppworker/internal/vlans"
)

// ClsTable executes a `classifier_table` command (spec.md §4.3.1).
func (r *Runner) ClsTable(cmd *command.Command) Result {
	port, ok := r.PS.Ports[cmd.PortRef]
	if !ok {
		return fail("classifier_table", "unknown port %v", cmd.PortRef)
	}

	switch cmd.Action {
	case command.ActionAdd:
		return r.clsAdd(port, cmd)
	case command.ActionDel:
		return r.clsDel(port, cmd)
	default:
		return fail("classifier_table", "unsupported action")
	}
}

func (r *Runner) clsAdd(port *state.Port, cmd *command.Command) Result {
	if !port.Classifier.Unclassified(vlans.Sentinel) {
		return fail("classifier_table", "port already used")
	}

	var addr macaddr.Addr
	if cmd.ClsKind == command.ClsKindMAC {
		parsed, err := macaddr.Parse(cmd.MAC)
		if err != nil {
			return fail("classifier_table", "%v", err)
		}
		addr = parsed
	}

	vid := vlans.Sentinel
	if cmd.ClsKind == command.ClsKindVLAN {
		vid = cmd.VID
	}

	port.Classifier = state.ClassifierAttrs{VID: vid, MAC: addr}

	owner, ok := r.findClassifierOwner(port.Ref)
	if ok {
		r.markPortTxn(owner)
	}

	return r.commit("classifier_table")
}

func (r *Runner) clsDel(port *state.Port, cmd *command.Command) Result {
	if port.Classifier.Unclassified(vlans.Sentinel) {
		// Nothing to remove; treat the sentinel default as a match so a
		// redundant del is not an error, mirroring §4.3.1's "or be the
		// default sentinel" clause.
		return r.commit("classifier_table")
	}

	if cmd.ClsKind == command.ClsKindMAC {
		parsed, err := macaddr.Parse(cmd.MAC)
		if err != nil {
			return fail("classifier_table", "%v", err)
		}
		if port.Classifier.MAC.Bits != parsed.Bits {
			return fail("classifier_table", "mac mismatch")
		}
	} else {
		if port.Classifier.VID != cmd.VID {
			return fail("classifier_table", "vlan mismatch")
		}
	}

	port.Classifier = state.ClassifierAttrs{VID: vlans.Sentinel}

	owner, ok := r.findClassifierOwner(port.Ref)
	if ok {
		r.markPortTxn(owner)
	}

	return r.commit("classifier_table")
}

// findClassifierOwner locates the classifier_mac component that owns ref
// as a tx-port, to mark it (and its core) dirty per §4.3.1 ("mark the
// port's owning tx-component dirty").
func (r *Runner) findClassifierOwner(ref state.PortRef) (*state.Component, bool) {
	for i := range r.PS.Components {
		c := &r.PS.Components[i]
		if c.Empty() || c.Kind != state.KindClassifierMAC {
			continue
		}
		for _, tx := range c.TXPorts {
			if tx == ref {
				return c, true
			}
		}
	}
	return nil, false
}
