// Package reply implements the Status & Response Formatter of spec.md
// §4.5: it turns a runner.Result into the fixed-shape JSON object the
// wire protocol specifies and appends the terminating NUL byte the
// session's framing contract requires. JSON encoding and the growable
// byte buffer it writes into are treated as satisfied by the standard
// library per spec.md §1 (these are explicitly named as out-of-scope
// external collaborators in the original system, not something this
// core reimplements).
package reply

import (
	"bytes"
	"encoding/json"

	"github.com/sandia-minimega/sppworker/internal/runner"
)

type wireReply struct {
	Result       string          `json:"result"`
	Command      string          `json:"command,omitempty"`
	ErrorDetails *errorDetails   `json:"error_details,omitempty"`
	Status       []wireCoreEntry `json:"status,omitempty"`
}

type errorDetails struct {
	Cause string `json:"cause"`
}

type wireCoreEntry struct {
	Lcore      int                  `json:"lcore"`
	Status     string               `json:"status,omitempty"`
	Unuse      bool                 `json:"unuse,omitempty"`
	Components []wireComponentEntry `json:"components,omitempty"`
}

type wireComponentEntry struct {
	Name    string                 `json:"name"`
	Type    string                 `json:"type"`
	RXPorts []string               `json:"rx_port"`
	TXPorts []string               `json:"tx_port"`
	Extra   map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Extra's role-specific fields alongside the
// common ones, so a classifier's "classifier_table" entry sits next to
// name/type/rx_port/tx_port rather than nested under its own key.
func (c wireComponentEntry) MarshalJSON() ([]byte, error) {
	obj := map[string]interface{}{
		"name":    c.Name,
		"type":    c.Type,
		"rx_port": c.RXPorts,
		"tx_port": c.TXPorts,
	}
	for k, v := range c.Extra {
		obj[k] = v
	}
	return json.Marshal(obj)
}

// Format renders a runner.Result as a complete, NUL-terminated wire
// reply, ready to be handed to the session layer for writing.
func Format(res runner.Result) []byte {
	wr := wireReply{Command: res.Command}

	if !res.OK {
		wr.Result = "error"
		wr.ErrorDetails = &errorDetails{Cause: res.Reason}
	} else {
		wr.Result = "success"
	}

	if res.Command == "status" {
		wr.Status = make([]wireCoreEntry, 0, len(res.Status))
		for _, c := range res.Status {
			entry := wireCoreEntry{Lcore: c.LcoreID, Status: c.Status, Unuse: c.Unused}
			for _, comp := range c.Components {
				entry.Components = append(entry.Components, wireComponentEntry{
					Name:    comp.Name,
					Type:    comp.Kind,
					RXPorts: comp.RXPorts,
					TXPorts: comp.TXPorts,
					Extra:   comp.Extra,
				})
			}
			wr.Status = append(wr.Status, entry)
		}
	}

	body, err := json.Marshal(wr)
	if err != nil {
		// Marshaling a closed, fully-typed struct cannot fail in
		// practice; fall back to a minimal error reply rather than
		// panicking the control thread.
		body = []byte(`{"result":"error","error_details":{"cause":"internal formatting failure"}}`)
	}

	var buf bytes.Buffer
	buf.Write(body)
	buf.WriteByte(0)
	return buf.Bytes()
}

// ParseError formats a syntactic-failure reply directly from an error,
// for the case where the parser itself rejected the message before a
// Command (and therefore a runner.Result) ever existed.
func ParseError(err error) []byte {
	return Format(runner.Result{OK: false, Reason: err.Error()})
}
