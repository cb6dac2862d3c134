package state

import (
	"strconv"

	"github.com/sandia-minimega/sppworker/internal/macaddr"
)

// IfaceKind is the transport a port is realized on.
type IfaceKind int

const (
	KindPhy IfaceKind = iota
	KindVhost
	KindRing
)

func (k IfaceKind) String() string {
	switch k {
	case KindPhy:
		return "phy"
	case KindVhost:
		return "vhost"
	case KindRing:
		return "ring"
	}
	return "unknown"
}

// ParseIfaceKind maps the wire text to an IfaceKind.
func ParseIfaceKind(s string) (IfaceKind, bool) {
	switch s {
	case "phy":
		return KindPhy, true
	case "vhost":
		return KindVhost, true
	case "ring":
		return KindRing, true
	}
	return 0, false
}

// PortRef identifies a port by its wire-visible (kind, index) pair. It is
// the key into ProcessState's port inventory and the only thing a
// Component stores to reference a port (never an owning pointer, so the
// backup snapshot taken at flush time is a plain value copy).
type PortRef struct {
	Kind  IfaceKind
	Index int
}

func (p PortRef) String() string {
	return p.Kind.String() + ":" + strconv.Itoa(p.Index)
}

// AbilityOp is a per-port ingress/egress transformation.
type AbilityOp int

const (
	AbilityNone AbilityOp = iota
	AbilityAddVLANTag
	AbilityDelVLANTag
)

// Direction is the traffic direction an ability or port reference
// applies to.
type Direction int

const (
	DirRX Direction = iota
	DirTX
	DirBoth
)

func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "rx":
		return DirRX, true
	case "tx":
		return DirTX, true
	case "both":
		return DirBoth, true
	}
	return 0, false
}

// MaxAbilities bounds the per-port ability sequence (invariant: at most
// one ability per (op, direction) pair, and at most this many entries).
const MaxAbilities = 4

// Ability is one entry of a port's bounded ability sequence.
type Ability struct {
	Op        AbilityOp
	Direction Direction
	Tag       macaddr.Dot1Q
}

// ClassifierAttrs holds the classifier MAC/VLAN a port carries when it is
// the tx-port of exactly one classifier_mac component (invariant 3).
type ClassifierAttrs struct {
	VID int // vlans.Sentinel when unset
	MAC macaddr.Addr
}

// Unclassified reports whether the port carries no classifier attributes.
func (c ClassifierAttrs) Unclassified(sentinel int) bool {
	return c.VID == sentinel && c.MAC.IsZero()
}

// Port is one driver-assigned port in the process-wide inventory.
type Port struct {
	Ref        PortRef
	DriverID   int
	Classifier ClassifierAttrs
	Abilities  []Ability
}

// FindAbility returns the index of the ability matching (op, dir), or -1.
func (p *Port) FindAbility(op AbilityOp, dir Direction) int {
	for i, a := range p.Abilities {
		if a.Op == op && a.Direction == dir {
			return i
		}
	}
	return -1
}

