package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandia-minimega/sppworker/internal/macaddr"
	"github.com/sandia-minimega/sppworker/internal/state"
	"github.com/sandia-minimega/sppworker/internal/vlans"
)

// Parse tokenizes one framed message into a Command, enforcing only
// syntactic constraints. A returned error is always a syntactic failure
// (spec.md §4.2, §7): the caller never mutates state on error.
func Parse(line string) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	kv, err := keyValues(fields[1:])
	if err != nil {
		return nil, err
	}

	switch fields[0] {
	case "component":
		return parseComponent(kv)
	case "port":
		return parsePort(kv)
	case "classifier_table":
		return parseClsTable(kv)
	case "status":
		return &Command{Verb: VerbStatus}, nil
	case "exit":
		return &Command{Verb: VerbExit}, nil
	default:
		return nil, fmt.Errorf("unknown command verb %q", fields[0])
	}
}

// keyValues splits the remaining tokens of a message into a key/value
// map. The first token, if it contains no '=', is stored under the
// reserved key "action" (e.g. "start", "add").
func keyValues(fields []string) (map[string]string, error) {
	kv := make(map[string]string, len(fields))
	for i, f := range fields {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) == 2 {
			kv[parts[0]] = parts[1]
			continue
		}
		if i == 0 {
			kv["action"] = f
			continue
		}
		return nil, fmt.Errorf("malformed argument %q", f)
	}
	return kv, nil
}

func parseComponent(kv map[string]string) (*Command, error) {
	cmd := &Command{Verb: VerbComponent}

	switch kv["action"] {
	case "start":
		cmd.Action = ActionStart
	case "stop":
		cmd.Action = ActionStop
	default:
		return nil, fmt.Errorf("component: invalid action %q", kv["action"])
	}

	name, err := validateName(kv["name"])
	if err != nil {
		return nil, err
	}
	cmd.Name = name

	if cmd.Action == ActionStop {
		return cmd, nil
	}

	lcore, err := strconv.Atoi(kv["core"])
	if err != nil {
		return nil, fmt.Errorf("component: invalid core %q", kv["core"])
	}
	cmd.LcoreID = lcore

	kind, ok := state.ParseKind(kv["type"])
	if !ok {
		return nil, fmt.Errorf("component: invalid type %q", kv["type"])
	}
	cmd.Kind = kind

	return cmd, nil
}

func parsePort(kv map[string]string) (*Command, error) {
	cmd := &Command{Verb: VerbPort}

	switch kv["action"] {
	case "add":
		cmd.Action = ActionAdd
	case "del":
		cmd.Action = ActionDel
	default:
		return nil, fmt.Errorf("port: invalid action %q", kv["action"])
	}

	ref, err := parsePortRef(kv["port"])
	if err != nil {
		return nil, err
	}
	cmd.PortRef = ref

	dir, ok := state.ParseDirection(kv["dir"])
	if !ok {
		return nil, fmt.Errorf("port: invalid dir %q", kv["dir"])
	}
	cmd.Direction = dir

	name, err := validateName(kv["name"])
	if err != nil {
		return nil, err
	}
	cmd.Name = name

	if a, ok := kv["add_vlan_tag"]; ok && a != "" {
		cmd.Ability = state.AbilityAddVLANTag
	} else if a, ok := kv["del_vlan_tag"]; ok && a != "" {
		cmd.Ability = state.AbilityDelVLANTag
	} else {
		cmd.Ability = state.AbilityNone
	}

	if vid, ok := kv["vid"]; ok {
		v, err := strconv.Atoi(vid)
		if err != nil {
			return nil, fmt.Errorf("port: invalid vid %q", vid)
		}
		if err := vlans.Validate(v); err != nil {
			return nil, err
		}
		cmd.VID = v
	}
	if pcp, ok := kv["pcp"]; ok {
		p, err := strconv.Atoi(pcp)
		if err != nil {
			return nil, fmt.Errorf("port: invalid pcp %q", pcp)
		}
		if err := vlans.ValidatePCP(p); err != nil {
			return nil, err
		}
		cmd.PCP = p
	}

	return cmd, nil
}

func parseClsTable(kv map[string]string) (*Command, error) {
	cmd := &Command{Verb: VerbClassifierTable}

	switch kv["action"] {
	case "add":
		cmd.Action = ActionAdd
	case "del":
		cmd.Action = ActionDel
	default:
		return nil, fmt.Errorf("classifier_table: invalid action %q", kv["action"])
	}

	switch kv["type"] {
	case "mac":
		cmd.ClsKind = ClsKindMAC
	case "vlan":
		cmd.ClsKind = ClsKindVLAN
	default:
		return nil, fmt.Errorf("classifier_table: invalid type %q", kv["type"])
	}

	ref, err := parsePortRef(kv["port"])
	if err != nil {
		return nil, err
	}
	cmd.PortRef = ref

	if cmd.ClsKind == ClsKindMAC {
		mac := kv["mac"]
		if _, err := macaddr.Parse(mac); err != nil {
			return nil, err
		}
		cmd.MAC = mac
	}

	if vid, ok := kv["vid"]; ok {
		v, err := strconv.Atoi(vid)
		if err != nil {
			return nil, fmt.Errorf("classifier_table: invalid vid %q", vid)
		}
		if err := vlans.Validate(v); err != nil {
			return nil, err
		}
		cmd.VID = v
	}

	return cmd, nil
}

func parsePortRef(s string) (state.PortRef, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return state.PortRef{}, fmt.Errorf("malformed port reference %q", s)
	}
	kind, ok := state.ParseIfaceKind(parts[0])
	if !ok {
		return state.PortRef{}, fmt.Errorf("unknown iface_kind %q", parts[0])
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		return state.PortRef{}, fmt.Errorf("malformed port index %q", parts[1])
	}
	return state.PortRef{Kind: kind, Index: idx}, nil
}

func validateName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty name")
	}
	if len(name) > state.MaxNameLen {
		return "", fmt.Errorf("name exceeds %d bytes", state.MaxNameLen)
	}
	return name, nil
}
