// Package device implements the DRAM organization tree and timing model:
// a hierarchy of nodes (channel, rank, bankgroup, bank) whose states and
// per-command ready cycles are advanced by issuing commands, and whose
// constraint graph and bank FSM come from a compiled Spec (see NewSpec).
package device

import "github.com/kestrel-sim/dramcore/internal/proto"

// deferredEvent is a future action scheduled at command-issue time, e.g.
// REFab's matching REFab_end, nRFC-1 cycles later.
type deferredEvent struct {
	cmd    proto.Command
	av     proto.AddrVec
	fireAt int64
}

// Device is one channel's organization tree plus its compiled timing
// model. One Device is owned by exactly one controller; Device state is
// never shared across channels (spec.md §5).
type Device struct {
	Spec *Spec
	root *Node

	clk int64

	power   PowerObserver
	pending []deferredEvent
}

// NewDevice builds the organization tree rooted at a single Channel node
// and wires it to spec. obs may be nil (no power accounting).
func NewDevice(spec *Spec, obs PowerObserver) *Device {
	return &Device{
		Spec:  spec,
		root:  newNode(spec, nil, proto.Channel, 0),
		power: obs,
	}
}

// IssueCommand updates history and ready-cycle state at every node
// addressed by av, dispatches the action and power hooks for cmd up to
// its scope level, and schedules any deferred closing event (REFab's
// REFab_end) the command implies.
func (d *Device) IssueCommand(cmd proto.Command, av proto.AddrVec) {
	d.root.updateTiming(cmd, av, d.clk)
	d.root.updateStates(cmd, av, d.clk)
	d.root.updatePower(cmd, av, d.clk, d.power)

	if cmd == proto.REFab {
		d.pending = append(d.pending, deferredEvent{
			cmd:    proto.REFabEnd,
			av:     av,
			fireAt: d.clk + d.Spec.Timing.NRFC - 1,
		})
	}
}

// GetPrereq returns the next command that must be issued to make progress
// toward cmd at av, or proto.NoCommand if the targeted node is mid a
// sequence that must not be interrupted.
func (d *Device) GetPrereq(cmd proto.Command, av proto.AddrVec) proto.Command {
	return d.root.getPrereq(cmd, av, d.clk)
}

// CheckReady reports whether every node touched by (cmd, av), up to cmd's
// scope level, has reached its ready_clk[cmd].
func (d *Device) CheckReady(cmd proto.Command, av proto.AddrVec) bool {
	if cmd == proto.NoCommand {
		return false
	}
	return d.root.checkReady(cmd, av, d.clk)
}

// ReadyCycle returns the max ready_clk[cmd] over every node touched by av.
func (d *Device) ReadyCycle(cmd proto.Command, av proto.AddrVec) int64 {
	return d.root.readyCycle(cmd, av)
}

// CheckRowBufferHit reports whether the bank addressed by av is Opened on
// exactly the row av names.
func (d *Device) CheckRowBufferHit(av proto.AddrVec) bool {
	b := d.root.bankAt(av)
	if b == nil {
		return false
	}
	return b.state == proto.Opened && b.openRow == av.At(proto.Row)
}

// CheckNodeOpen reports whether the bank addressed by av is Opened (a
// plain row-buffer hit candidate, excluding any PuM-opened state).
func (d *Device) CheckNodeOpen(av proto.AddrVec) bool {
	b := d.root.bankAt(av)
	if b == nil {
		return false
	}
	return b.state == proto.Opened
}

// Clock returns the current cycle.
func (d *Device) Clock() int64 { return d.clk }

// Tick advances the clock by one cycle and fires any deferred event
// scheduled for the new cycle, before request scheduling runs for that
// cycle (spec.md §5, "deferred device events fire before request
// scheduling of the same cycle").
func (d *Device) Tick() {
	d.clk++
	if len(d.pending) == 0 {
		return
	}
	remaining := d.pending[:0]
	for _, ev := range d.pending {
		if ev.fireAt == d.clk {
			d.root.updateStates(ev.cmd, ev.av, d.clk)
			d.root.updatePower(ev.cmd, ev.av, d.clk, d.power)
			continue
		}
		remaining = append(remaining, ev)
	}
	d.pending = remaining
}
