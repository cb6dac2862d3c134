package state

// Kind is a worker role.
type Kind int

const (
	KindClassifierMAC Kind = iota
	KindMerger
	KindForwarder
	KindMirror
)

func (k Kind) String() string {
	switch k {
	case KindClassifierMAC:
		return "classifier_mac"
	case KindMerger:
		return "merger"
	case KindForwarder:
		return "forwarder"
	case KindMirror:
		return "mirror"
	}
	return "unknown"
}

func ParseKind(s string) (Kind, bool) {
	switch s {
	case "classifier_mac":
		return KindClassifierMAC, true
	case "merger":
		return KindMerger, true
	case "forwarder", "forward":
		return KindForwarder, true
	case "mirror":
		return KindMirror, true
	}
	return 0, false
}

// MaxNameLen is the maximum byte length of a component name.
const MaxNameLen = 127

// Component is a running instance of one worker role on one logical core.
type Component struct {
	ID      int
	Name    string
	Kind    Kind
	LcoreID int
	RXPorts []PortRef
	TXPorts []PortRef
}

// Empty reports whether the component slot is unassigned: never
// allocated, or cleared by a component stop.
func (c *Component) Empty() bool {
	return c.Name == ""
}

// FanCaps returns the maximum rx/tx port count for the component's kind,
// per invariant 4. A negative value means "no cap".
func (k Kind) FanCaps() (maxRX, maxTX int) {
	switch k {
	case KindForwarder:
		return 1, 1
	case KindMerger:
		return -1, 1
	case KindClassifierMAC:
		return 1, -1
	case KindMirror:
		return -1, -1
	}
	return -1, -1
}

func containsPortRef(refs []PortRef, ref PortRef) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}
