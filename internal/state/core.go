package state

import "sync/atomic"

// Status is a logical core's lifecycle state. The data plane reads this
// word but never writes it; only signals and the lifecycle supervisor do.
type Status int32

const (
	StatusUnused Status = iota
	StatusStopped
	StatusIdle
	StatusForwarding
	StatusStopRequested
	StatusIdleRequested
)

func (s Status) String() string {
	switch s {
	case StatusUnused:
		return "unused"
	case StatusStopped:
		return "stopped"
	case StatusIdle:
		return "idle"
	case StatusForwarding:
		return "forwarding"
	case StatusStopRequested:
		return "stop_requested"
	case StatusIdleRequested:
		return "idle_requested"
	}
	return "unknown"
}

// Core is one logical core's double-buffered component list. Data-plane
// executors read Live() through an acquire-ordered load of refIndex;
// control writes only the non-live slot and then performs a single
// release-store on refIndex to publish it (see Flip).
type Core struct {
	LcoreID int

	status atomic.Int32

	// slots[0] and slots[1] are the two component-id lists. refIndex
	// names the slot the data plane should read; updIndex is always the
	// other one (refIndex != updIndex, both in {0,1}).
	slots    [2][]int
	refIndex atomic.Int32
}

// NewCore creates a core in the unused state with both slots empty.
func NewCore(lcoreID int) *Core {
	c := &Core{LcoreID: lcoreID}
	c.status.Store(int32(StatusUnused))
	c.refIndex.Store(0)
	return c
}

// Status returns the core's current status with an acquire-ordered load.
func (c *Core) Status() Status {
	return Status(c.status.Load())
}

// SetStatus performs a release-ordered store of the core's status word.
// Per §4.6/§5, this is the only mutation signals and the lifecycle
// supervisor may perform; the data plane only ever reads it.
func (c *Core) SetStatus(s Status) {
	c.status.Store(int32(s))
}

// RefIndex returns the slot index the data plane should currently read.
func (c *Core) RefIndex() int {
	return int(c.refIndex.Load())
}

// updIndex is the slot index control may freely mutate; it is always the
// complement of refIndex.
func (c *Core) updIndex() int {
	return 1 - c.RefIndex()
}

// Live returns a copy of the component id list the data plane currently
// observes.
func (c *Core) Live() []int {
	ids := c.slots[c.RefIndex()]
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// Upd returns the shadow (writable) component id list for in-place
// staging by the runner.
func (c *Core) Upd() []int {
	return c.slots[c.updIndex()]
}

// SetUpd replaces the shadow component id list.
func (c *Core) SetUpd(ids []int) {
	c.slots[c.updIndex()] = ids
}

// Flip publishes the shadow slot as live with a single release-ordered
// store of refIndex. It is the only operation that may change refIndex,
// and only the flusher may call it.
func (c *Core) Flip() {
	c.refIndex.Store(int32(c.updIndex()))
}

// SyncUpdFromLive copies the live slot into the shadow slot, used before
// staging a change so partial edits never lose unrelated entries.
func (c *Core) SyncUpdFromLive() {
	live := c.slots[c.RefIndex()]
	cp := make([]int, len(live))
	copy(cp, live)
	c.slots[c.updIndex()] = cp
}

// clone returns a deep copy of the core for the backup snapshot.
func (c *Core) clone() *Core {
	nc := &Core{LcoreID: c.LcoreID}
	nc.status.Store(c.status.Load())
	nc.refIndex.Store(c.refIndex.Load())
	for i := range c.slots {
		nc.slots[i] = append([]int(nil), c.slots[i]...)
	}
	return nc
}
