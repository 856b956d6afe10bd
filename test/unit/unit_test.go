// +build !integration

// Package unit exercises the decoder, config, and metrics packages in
// isolation, without driving a full Simulator.
package unit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-sim/dramcore/internal/config"
	"github.com/kestrel-sim/dramcore/internal/decoder"
	"github.com/kestrel-sim/dramcore/internal/proto"
	"github.com/kestrel-sim/dramcore/internal/uapi"

	dramsim "github.com/kestrel-sim/dramcore"
)

func TestLinearDecoderColumnFastest(t *testing.T) {
	counts := [proto.NumLevels]int{
		proto.Channel: 2, proto.Rank: 2, proto.BankGroup: 4, proto.Bank: 4,
		proto.Row: 65536, proto.Column: 1024,
	}
	dec := decoder.NewLinear(counts, 64, decoder.DefaultOrder())

	av := dec.Decode(0)
	require.Equal(t, 0, av[proto.Channel])
	require.Equal(t, 0, av[proto.Column])

	av2 := dec.Decode(64)
	require.Equal(t, 1, av2[proto.Column])
}

func TestParseTraceLine(t *testing.T) {
	entry, ok, err := uapi.ParseLine("R 4096")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, proto.Read, entry.Type)
	require.Equal(t, int64(4096), entry.Addr)

	_, ok, err = uapi.ParseLine("   ")
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = uapi.ParseLine("R")
	require.Error(t, err)

	_, _, err = uapi.ParseLine("X 10")
	require.Error(t, err)
}

func TestLoadTraceSkipsBlankLines(t *testing.T) {
	r := strings.NewReader("R 0\n\nW 64\nC 128\n")
	trace, err := uapi.LoadTrace(r)
	require.NoError(t, err)

	entry, ok := trace.Next()
	require.True(t, ok)
	require.Equal(t, proto.Read, entry.Type)

	entry, ok = trace.Next()
	require.True(t, ok)
	require.Equal(t, proto.Write, entry.Type)

	entry, ok = trace.Next()
	require.True(t, ok)
	require.Equal(t, proto.RowClone, entry.Type)

	_, ok = trace.Next()
	require.False(t, ok)
}

func TestLoadOverridesRejectsUnknownFields(t *testing.T) {
	doc := "organization: DDR4_8Gb_x8\ntiming: DDR4_3200W\nbogus_field: true\n"
	_, err := config.LoadOverrides(strings.NewReader(doc))
	require.Error(t, err)
}

func TestLoadOverridesResolvesPresets(t *testing.T) {
	doc := "organization: DDR4_8Gb_x8\ntiming: DDR4_3200W\nrow_policy: closed\n"
	overrides, err := config.LoadOverrides(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, "closed", overrides.RowPolicy)

	org, timing, err := overrides.Resolve()
	require.NoError(t, err)
	require.Equal(t, 1, org.Count[proto.Channel])
	require.Greater(t, timing.NRAS, int64(0))
}

func TestLoadOverridesRejectsUnknownPreset(t *testing.T) {
	doc := "organization: not_a_real_preset\ntiming: DDR4_3200W\n"
	overrides, err := config.LoadOverrides(strings.NewReader(doc))
	require.NoError(t, err)

	_, _, err = overrides.Resolve()
	require.Error(t, err)
}

func TestMetricsFinalizeAccountsIdleAndActiveCycles(t *testing.T) {
	m := dramsim.NewMetrics(2, dramsim.Timing{TCKps: 625, NRAS: 52, NRP: 22, NBL: 4, NRFC: 560})
	m.RecordRankCycle(0, true)
	m.RecordRankCycle(0, true)
	m.RecordRankCycle(1, false)
	m.RecordCommand(proto.ACT, 0)
	m.RecordQueueDepth(4)
	m.RecordQueueDepth(8)
	m.RecordReadLatency(100)

	snap := m.Finalize()
	require.Len(t, snap.Ranks, 2)
	require.Equal(t, uint64(2), snap.Ranks[0].ActiveCycles)
	require.Equal(t, uint64(1), snap.Ranks[1].IdleCycles)
	require.Greater(t, snap.Ranks[0].TotalEnergyNj, 0.0)
	require.InDelta(t, 6.0, snap.AvgQueueDepth, 0.001)
	require.InDelta(t, 62.0, snap.AvgReadLatencyNs, 0.001)
}

func TestNoOpObserverSatisfiesInterface(t *testing.T) {
	var obs dramsim.Observer = dramsim.NoOpObserver{}
	obs.ObserveCommand(proto.ACT, proto.Bank, 0, 0)
	obs.ObserveRankCycle(0, true)
	obs.ObserveQueueDepth(0)
	obs.ObserveReadLatency(0)
	obs.ObserveFinalize(2)
}

func TestMetricsMarkFinalized(t *testing.T) {
	m := dramsim.NewMetrics(1, dramsim.Timing{TCKps: 625, NRAS: 52, NRP: 22, NBL: 4, NRFC: 560})
	require.False(t, m.Finalized())
	m.MarkFinalized()
	require.True(t, m.Finalized())
}
