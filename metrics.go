// Package dramsim ties the device timing model, controller, and their
// reference collaborators into one runnable simulation, and implements the
// power-model observer spec.md §6a describes as a hook on command issue
// rather than core logic.
package dramsim

import (
	"sync/atomic"

	"github.com/kestrel-sim/dramcore/internal/proto"
)

// Voltage holds the VDD/VPP rail voltages (volts) used by the energy
// linear combination below.
type Voltage struct {
	VDD float64
	VPP float64
}

// Current holds the JEDEC IDD/IPP current specs (mA) for one speed grade.
// Field names mirror the datasheet symbols directly.
type Current struct {
	IDD0, IDD2N, IDD3N, IDD4R, IDD4W, IDD5B float64
	IPP0, IPP2N, IPP3N, IPP4R, IPP4W, IPP5B float64
}

// DefaultVoltage and DefaultCurrent are the "Default" preset from the
// reference power model (original_source/src/dram/impl/DDR4.cpp's
// voltage_presets/current_presets maps).
var (
	DefaultVoltage = Voltage{VDD: 1.2, VPP: 2.5}
	DefaultCurrent = Current{
		IDD0: 60, IDD2N: 50, IDD3N: 55, IDD4R: 145, IDD4W: 145, IDD5B: 362,
		IPP0: 3, IPP2N: 3, IPP3N: 3, IPP4R: 3, IPP4W: 3, IPP5B: 48,
	}
)

// rankCounters is the per-rank accumulation the finalized energy report is
// computed from: command issue counts plus active/idle background cycles.
type rankCounters struct {
	cmd           [proto.NumCommands]atomic.Uint64
	activeCycles  atomic.Uint64
	idleCycles    atomic.Uint64
}

// Metrics accumulates the simulator's per-rank power counters and the
// controller's queue-depth/latency statistics, using atomic counters
// exactly as the teacher's I/O Metrics does for read/write/discard/flush.
type Metrics struct {
	ranks   []rankCounters
	voltage Voltage
	current Current
	tCKps   int64 // tCK, picoseconds; needed to convert cycles to energy
	nRAS    int64
	nRP     int64
	nBL     int64
	nRFC    int64

	QueueDepthTotal atomic.Uint64
	QueueDepthCount atomic.Uint64

	ReadLatencyTotalNs atomic.Uint64
	ReadCount          atomic.Uint64

	finalized atomic.Bool
}

// Timing is the subset of device.TimingParams the power model needs, kept
// separate so this package does not import internal/device for a handful
// of fields.
type Timing struct {
	TCKps int64
	NRAS  int64
	NRP   int64
	NBL   int64
	NRFC  int64
}

// NewMetrics builds a Metrics for a device with the given number of ranks
// and timing parameters, using the default JEDEC voltage/current preset.
func NewMetrics(numRanks int, t Timing) *Metrics {
	return &Metrics{
		ranks:   make([]rankCounters, numRanks),
		voltage: DefaultVoltage,
		current: DefaultCurrent,
		tCKps:   t.TCKps,
		nRAS:    t.NRAS,
		nRP:     t.NRP,
		nBL:     t.NBL,
		nRFC:    t.NRFC,
	}
}

// RecordCommand registers one command issued at the given rank (rank may
// be -1 for a rank-wildcarded address, in which case the issue is not
// attributed to any rank's command count — it still isn't lost, since
// channel/rank-broadcast commands like REFab are always issued per-rank by
// the refresh manager in this model).
func (m *Metrics) RecordCommand(cmd proto.Command, rank int) {
	if rank < 0 || rank >= len(m.ranks) {
		return
	}
	m.ranks[rank].cmd[cmd].Add(1)
}

// RecordRankCycle records one cycle of this rank as active (at least one
// bank open) or idle, driving the background-energy term.
func (m *Metrics) RecordRankCycle(rank int, active bool) {
	if rank < 0 || rank >= len(m.ranks) {
		return
	}
	if active {
		m.ranks[rank].activeCycles.Add(1)
	} else {
		m.ranks[rank].idleCycles.Add(1)
	}
}

// RecordQueueDepth records one sample of total queue occupancy.
func (m *Metrics) RecordQueueDepth(depth int) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)
}

// RecordReadLatency records one completed read's latency in cycles,
// converted to nanoseconds via tCK.
func (m *Metrics) RecordReadLatency(cycles int64) {
	ns := uint64(cycles) * uint64(m.tCKps) / 1000
	m.ReadLatencyTotalNs.Add(ns)
	m.ReadCount.Add(1)
}

// MarkFinalized marks the end of a run, mirroring the teacher's
// Metrics.Stop(): a one-way flag future readers of Finalize's Snapshot can
// check to confirm the run actually completed rather than reading a
// Snapshot mid-flight.
func (m *Metrics) MarkFinalized() {
	m.finalized.Store(true)
}

// Finalized reports whether MarkFinalized has been called.
func (m *Metrics) Finalized() bool {
	return m.finalized.Load()
}

// RankEnergy is one rank's finalized power report, mirroring
// process_rank_energy's PowerStats fields in the reference model.
type RankEnergy struct {
	Rank int

	ActiveCycles uint64
	IdleCycles   uint64

	ActBackgroundEnergyNj float64
	PreBackgroundEnergyNj float64
	TotalBackgroundNj     float64

	ActCmdEnergyNj   float64
	PreCmdEnergyNj   float64
	RdCmdEnergyNj    float64
	WrCmdEnergyNj    float64
	RefCmdEnergyNj   float64
	TotalCmdEnergyNj float64

	TotalEnergyNj float64
}

// Snapshot is a point-in-time read of every rank's finalized energy report
// plus the controller-level queue/latency statistics.
type Snapshot struct {
	Ranks []RankEnergy

	AvgQueueDepth    float64
	AvgReadLatencyNs float64
}

// Finalize computes the per-rank energy breakdown as a linear combination
// of (voltage, current-delta, cycles-in-state), exactly the shape of
// process_rank_energy in the reference implementation: background energy
// from active/idle cycle counts, command energy from per-command issue
// counts times that command's nominal duration.
func (m *Metrics) Finalize() Snapshot {
	tCKns := float64(m.tCKps) / 1000.0

	snap := Snapshot{Ranks: make([]RankEnergy, len(m.ranks))}
	for i := range m.ranks {
		r := &m.ranks[i]
		e := RankEnergy{
			Rank:         i,
			ActiveCycles: r.activeCycles.Load(),
			IdleCycles:   r.idleCycles.Load(),
		}

		e.ActBackgroundEnergyNj = (m.voltage.VDD*m.current.IDD3N + m.voltage.VPP*m.current.IPP3N) *
			float64(e.ActiveCycles) * tCKns / 1e3
		e.PreBackgroundEnergyNj = (m.voltage.VDD*m.current.IDD2N + m.voltage.VPP*m.current.IPP2N) *
			float64(e.IdleCycles) * tCKns / 1e3
		e.TotalBackgroundNj = e.ActBackgroundEnergyNj + e.PreBackgroundEnergyNj

		actCount := float64(r.cmd[proto.ACT].Load())
		preCount := float64(r.cmd[proto.PRE].Load() + r.cmd[proto.PREA].Load())
		rdCount := float64(r.cmd[proto.RD].Load())
		wrCount := float64(r.cmd[proto.WR].Load())
		refCount := float64(r.cmd[proto.REFab].Load())

		e.ActCmdEnergyNj = (m.voltage.VDD*(m.current.IDD0-m.current.IDD3N) + m.voltage.VPP*(m.current.IPP0-m.current.IPP3N)) *
			actCount * float64(m.nRAS) * tCKns / 1e3
		e.PreCmdEnergyNj = (m.voltage.VDD*(m.current.IDD0-m.current.IDD2N) + m.voltage.VPP*(m.current.IPP0-m.current.IPP2N)) *
			preCount * float64(m.nRP) * tCKns / 1e3
		e.RdCmdEnergyNj = (m.voltage.VDD*(m.current.IDD4R-m.current.IDD3N) + m.voltage.VPP*(m.current.IPP4R-m.current.IPP3N)) *
			rdCount * float64(m.nBL) * tCKns / 1e3
		e.WrCmdEnergyNj = (m.voltage.VDD*(m.current.IDD4W-m.current.IDD3N) + m.voltage.VPP*(m.current.IPP4W-m.current.IPP3N)) *
			wrCount * float64(m.nBL) * tCKns / 1e3
		e.RefCmdEnergyNj = (m.voltage.VDD*m.current.IDD5B + m.voltage.VPP*m.current.IPP5B) *
			refCount * float64(m.nRFC) * tCKns / 1e3

		e.TotalCmdEnergyNj = e.ActCmdEnergyNj + e.PreCmdEnergyNj + e.RdCmdEnergyNj + e.WrCmdEnergyNj + e.RefCmdEnergyNj
		e.TotalEnergyNj = e.TotalBackgroundNj + e.TotalCmdEnergyNj

		snap.Ranks[i] = e
	}

	if c := m.QueueDepthCount.Load(); c > 0 {
		snap.AvgQueueDepth = float64(m.QueueDepthTotal.Load()) / float64(c)
	}
	if c := m.ReadCount.Load(); c > 0 {
		snap.AvgReadLatencyNs = float64(m.ReadLatencyTotalNs.Load()) / float64(c)
	}
	return snap
}
