// +build integration

// Package integration drives a full dramsim.Simulator end to end against
// synthetic traces, covering the scenarios spec.md §8 describes: simple
// read hit/miss, write-then-read to the same address, and PuM aggregation under
// RowClone/Majority traffic.
package integration

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	dramsim "github.com/kestrel-sim/dramcore"
	"github.com/kestrel-sim/dramcore/internal/config"
	"github.com/kestrel-sim/dramcore/internal/uapi"
)

func newSimulator(t *testing.T, closedPage bool) *dramsim.Simulator {
	t.Helper()
	sim, err := dramsim.NewSimulator(dramsim.Options{
		Organization:    config.OrganizationPresets["DDR4_8Gb_x8"],
		Timing:          config.TimingPresets["DDR4_3200W"],
		NumChannels:     1,
		RowPolicyClosed: closedPage,
	})
	require.NoError(t, err)
	return sim
}

func runTrace(t *testing.T, sim *dramsim.Simulator, trace string) {
	t.Helper()
	tr, err := uapi.LoadTrace(strings.NewReader(trace))
	require.NoError(t, err)
	require.NoError(t, sim.Run(tr, 200_000))
}

// Scenario A: a single read to a fresh bank must drain without error and
// leave the simulator idle.
func TestScenarioSimpleReadHit(t *testing.T) {
	sim := newSimulator(t, false)
	runTrace(t, sim, "R 0\n")
	require.True(t, sim.Idle())

	snap := sim.Metrics().Finalize()
	require.GreaterOrEqual(t, snap.AvgReadLatencyNs, 0.0)
}

// Scenario B: two reads to the same row (miss then hit) must both drain.
func TestScenarioReadMissThenHit(t *testing.T) {
	sim := newSimulator(t, false)
	runTrace(t, sim, "R 0\nR 64\n")
	require.True(t, sim.Idle())
}

// Scenario C: a write followed by a read to the same address must both
// drain. The write has already left the write buffer for the active buffer
// when the read arrives, so the read goes to the device rather than being
// forwarded.
func TestScenarioWriteThenReadSameAddress(t *testing.T) {
	sim := newSimulator(t, false)
	runTrace(t, sim, "W 4096\nR 4096\n")
	require.True(t, sim.Idle())
}

// Scenario D: enough RowClone requests to the same destination row must
// aggregate into one RC sequence and still drain cleanly.
func TestScenarioRowCloneAggregation(t *testing.T) {
	sim := newSimulator(t, false)
	var b strings.Builder
	for i := 0; i < 16; i++ {
		b.WriteString("C 8192\n")
	}
	runTrace(t, sim, b.String())
	require.True(t, sim.Idle())
}

// Scenario E: enough Majority requests to the same row must aggregate
// (the aggregated Majority is preceded by two synthetic Fractional
// requests to the same row) and drain cleanly.
func TestScenarioMajorityAggregationWithFractionalPadding(t *testing.T) {
	sim := newSimulator(t, false)
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("M 16384\n")
	}
	runTrace(t, sim, b.String())
	require.True(t, sim.Idle())
}

// Scenario F: under closed-page policy, an APA sequence already underway
// (sixteen RowClone requests to address 0, aggregated into one RC
// sequence) must not be interrupted by a later read to another bank of
// the same bankgroup; the trace should still fully drain.
func TestScenarioAPANotInterruptedUnderClosedPage(t *testing.T) {
	sim := newSimulator(t, true)
	var b strings.Builder
	for i := 0; i < 16; i++ {
		b.WriteString("C 0\n")
	}
	b.WriteString("R 65536\n")
	runTrace(t, sim, b.String())
	require.True(t, sim.Idle())
}

// A multi-channel simulator must route and drain requests independent of
// channel count.
func TestMultiChannelRouting(t *testing.T) {
	sim, err := dramsim.NewSimulator(dramsim.Options{
		Organization: config.OrganizationPresets["DDR4_8Gb_x8"],
		Timing:       config.TimingPresets["DDR4_3200W"],
		NumChannels:  4,
	})
	require.NoError(t, err)

	var b strings.Builder
	for i := int64(0); i < 16; i++ {
		b.WriteString("R ")
		b.WriteString(strconv.FormatInt(i*64, 10))
		b.WriteString("\n")
	}
	runTrace(t, sim, b.String())
	require.True(t, sim.Idle())
}
