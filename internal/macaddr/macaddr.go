// Package macaddr parses and formats the 48-bit MAC addresses carried by
// classifier_table commands and port abilities, using gopacket's layer
// types so the control plane and a real data plane agree on byte order
// and canonical text form.
package macaddr

import (
	"fmt"
	"net"

	"github.com/google/gopacket/layers"
)

// Addr is a parsed MAC address: both its 48-bit integer form (as stored
// in the classifier attributes of a Port) and its canonical text form.
type Addr struct {
	Bits uint64
	Text string
}

// Zero is the "no address" value stored on an unclassified port.
var Zero = Addr{}

// Parse validates s against the canonical "XX:XX:XX:XX:XX:XX" form
// (case-insensitive) and returns the parsed address. It never encodes
// failure as a sentinel in the returned value; callers must check err.
func Parse(s string) (Addr, error) {
	// net.ParseMAC also accepts hyphen- and dot-separated forms; only the
	// six colon-separated pairs are legal here.
	if len(s) != 17 || s[2] != ':' {
		return Addr{}, fmt.Errorf("malformed mac address %q", s)
	}
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return Addr{}, fmt.Errorf("malformed mac address %q", s)
	}

	var bits uint64
	for _, b := range hw {
		bits = bits<<8 | uint64(b)
	}

	return Addr{Bits: bits, Text: canonicalText(hw)}, nil
}

// FromBits reconstructs an Addr from its 48-bit integer form, e.g. after
// loading it back out of process state.
func FromBits(bits uint64) Addr {
	hw := make(net.HardwareAddr, 6)
	for i := 5; i >= 0; i-- {
		hw[i] = byte(bits & 0xff)
		bits >>= 8
	}
	return Addr{Bits: bitsOf(hw), Text: canonicalText(hw)}
}

func bitsOf(hw net.HardwareAddr) uint64 {
	var bits uint64
	for _, b := range hw {
		bits = bits<<8 | uint64(b)
	}
	return bits
}

func canonicalText(hw net.HardwareAddr) string {
	return hw.String()
}

// IsZero reports whether a is the unset/default address.
func (a Addr) IsZero() bool {
	return a.Bits == 0
}

// Dot1Q describes a VLAN tag ability payload in the same shape the data
// plane's 802.1Q layer expects, reusing gopacket/layers' field names so
// add_vlan_tag/del_vlan_tag abilities translate directly into a real
// Ethernet tag when handed to the data plane.
type Dot1Q struct {
	VID uint16 // layers.Dot1Q.VLANIdentifier
	PCP uint8  // layers.Dot1Q.Priority
	TCI uint16 // full packed tag control information
}

// ToLayer renders the ability payload as a gopacket/layers.Dot1Q value.
func (d Dot1Q) ToLayer() layers.Dot1Q {
	return layers.Dot1Q{
		Priority:       d.PCP,
		VLANIdentifier: d.VID,
		Type:           layers.EthernetTypeLLC,
	}
}
