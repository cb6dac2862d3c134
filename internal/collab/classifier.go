package collab

import (
	"sync"

	"github.com/sandia-minimega/sppworker/internal/state"
	"github.com/sandia-minimega/sppworker/internal/vlans"
)

// classifierTables holds the external "classifier table" per component
// id, keyed the way init_classifier_info/update_classifier/
// get_classifier_status operate in spec.md §6.
var (
	classifierMu     sync.Mutex
	classifierTables = map[int][]ClassifierEntry{}
)

func init() {
	Register(state.KindClassifierMAC, &RoleHooks{
		Update:   updateClassifier,
		Status:   classifierStatus,
		Teardown: teardownClassifier,
	})
}

// updateClassifier regenerates comp's MAC/VLAN table from its tx-ports'
// classifier attributes. It is the Go stand-in for the out-of-scope
// update_classifier collaborator: a real data plane would additionally
// push this table into its packet-path lookup structure.
func updateClassifier(ps *state.ProcessState, comp *state.Component) error {
	var entries []ClassifierEntry
	for _, ref := range comp.TXPorts {
		port, ok := ps.Ports[ref]
		if !ok {
			continue
		}
		if port.Classifier.Unclassified(vlans.Sentinel) {
			continue
		}
		entries = append(entries, ClassifierEntry{
			Port: ref,
			VID:  port.Classifier.VID,
			MAC:  port.Classifier.MAC,
		})
	}

	classifierMu.Lock()
	classifierTables[comp.ID] = entries
	classifierMu.Unlock()
	return nil
}

func classifierStatus(ps *state.ProcessState, comp *state.Component) StatusFields {
	classifierMu.Lock()
	entries := append([]ClassifierEntry(nil), classifierTables[comp.ID]...)
	classifierMu.Unlock()

	table := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		table = append(table, map[string]interface{}{
			"port": e.Port.String(),
			"vid":  e.VID,
			"mac":  e.MAC.Text,
		})
	}
	return StatusFields{"classifier_table": table}
}

// teardownClassifier discards comp's classifier table, the stand-in for
// the out-of-scope init_classifier_info(comp_id) collaborator invoked on
// component stop (spec.md §4.3.2, §6).
func teardownClassifier(compID int) {
	classifierMu.Lock()
	delete(classifierTables, compID)
	classifierMu.Unlock()
}

