package ctrl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-sim/dramcore/internal/device"
	"github.com/kestrel-sim/dramcore/internal/interfaces"
	"github.com/kestrel-sim/dramcore/internal/proto"
	"github.com/kestrel-sim/dramcore/internal/rowpolicy"
	"github.com/kestrel-sim/dramcore/internal/sched"
)

// noopRefresh never schedules a refresh, keeping these tests focused on
// the write-mode/veto logic under test rather than refresh timing.
type noopRefresh struct{}

func (noopRefresh) Tick(clk int64, sink interfaces.RefreshSink) {}

func testOrg() device.Organization {
	return device.Organization{
		DensityMb:    8192,
		DQ:           8,
		ChannelWidth: 64,
		Count: [proto.NumLevels]int{
			proto.Channel: 1, proto.Rank: 1, proto.BankGroup: 2, proto.Bank: 4,
			proto.Row: 65536, proto.Column: 1024,
		},
	}
}

func testTiming() device.TimingParams {
	return device.TimingParams{
		RateMTps: 3200,
		NBL:      4, NCL: 22, NRCD: 22, NRP: 22, NRAS: 52, NRC: 74,
		NWR: 20, NRTP: 12, NCWL: 16, NCCDS: 4, NCCDL: 6,
		NRRDS: 4, NRRDL: 6, NWTRS: 4, NWTRL: 10, NFAW: 34,
		NRFC: 560, NREFI: 19760, NCS: 2, TCKps: 625,
	}
}

func bankAddr(rank, bg, bank, row int) proto.AddrVec {
	var av proto.AddrVec
	av[proto.Channel] = 0
	av[proto.Rank] = rank
	av[proto.BankGroup] = bg
	av[proto.Bank] = bank
	av[proto.Row] = row
	av[proto.Column] = 0
	return av
}

func newTestController() *Controller {
	spec := device.NewSpec(testOrg(), testTiming())
	dev := device.NewDevice(spec, nil)
	cfg := DefaultConfig()
	cfg.ActiveBufferSize = 8
	cfg.ReadBufferSize = 4
	cfg.WriteBufferSize = 4
	cfg.ReadLatency = spec.Timing.NCL + spec.Timing.NBL
	return New(cfg, dev, sched.NewFRFCFS(dev), noopRefresh{}, rowpolicy.NewOpenPage())
}

// Invariant 5: write-mode hysteresis. The controller switches into write
// mode once the write buffer crosses the high watermark (or the read
// buffer is empty) and only switches back once it drops below the low
// watermark with reads waiting.
func TestUpdateWriteModeHysteresis(t *testing.T) {
	c := newTestController()
	c.cfg.WriteHighWatermark = 0.75 // 3 of 4
	c.cfg.WriteLowWatermark = 0.25  // 1 of 4

	for i := 0; i < 4; i++ {
		c.writeBuf.Enqueue(proto.NewRequest(proto.Write, int64(i*64)))
	}
	c.readBuf.Enqueue(proto.NewRequest(proto.Read, 0))

	c.updateWriteMode()
	require.True(t, c.writeMode, "write buffer over the high watermark should enter write mode")

	for c.writeBuf.Len() > 1 {
		c.writeBuf.Remove(c.writeBuf.Front())
	}
	c.updateWriteMode()
	require.True(t, c.writeMode, "write mode should not exit until the low watermark is crossed")

	c.writeBuf.Remove(c.writeBuf.Front())
	c.updateWriteMode()
	require.False(t, c.writeMode, "write buffer under the low watermark with reads waiting should exit write mode")
}

func TestUpdateWriteModeEntersWhenReadBufferEmpty(t *testing.T) {
	c := newTestController()
	require.False(t, c.writeMode)
	c.updateWriteMode()

	c.writeBuf.Enqueue(proto.NewRequest(proto.Write, 0))
	c.updateWriteMode()
	require.True(t, c.writeMode, "an empty read buffer should force write mode regardless of watermark")
}

// Invariant 6 / APA non-interruption: a RowClone sequence that has reached
// its PREv-in-flight state in the active buffer must veto a conflicting
// Majority access to the same bank, and must stop vetoing once the
// sequence has fully drained out of the active buffer.
func TestVetoesAPABlocksConflictingAccessUntilSequenceDrains(t *testing.T) {
	c := newTestController()
	c.cfg.RCThreshold = 1
	c.cfg.AggregatedPumSize = 4

	av := bankAddr(0, 0, 0, 5)
	rc := proto.NewRequest(proto.RowClone, 0)
	rc.AddrVec = av
	require.True(t, c.rcBuf.Enqueue(rc))

	conflicting := proto.NewRequest(proto.Majority, 0)
	conflicting.AddrVec = av

	var sawPREv bool
	for i := 0; i < 2000; i++ {
		c.Tick()
		for j := 0; j < c.active.Len(); j++ {
			if req := c.active.At(j); req.Command == proto.PREv {
				sawPREv = true
			}
		}
		if sawPREv {
			break
		}
	}
	require.True(t, sawPREv, "expected the RowClone sequence to reach a PREv-in-flight state")
	require.True(t, c.vetoesAPA(conflicting, proto.ACTp),
		"a conflicting Majority ACTp must be vetoed while the RowClone sequence is mid-APA")

	for i := 0; i < 5000 && !c.Idle(); i++ {
		c.Tick()
	}
	require.True(t, c.Idle(), "the RowClone sequence should eventually drain")
	require.False(t, c.vetoesAPA(conflicting, proto.ACTp),
		"once the sequence has drained, the same access must no longer be vetoed")
}

// overlapsActive (step 7's row-close veto) must block a closing command
// that would collide with any other entry already in the active buffer,
// but never vetoes against itself.
func TestOverlapsActive(t *testing.T) {
	c := newTestController()
	av := bankAddr(0, 0, 0, 5)

	self := proto.NewRequest(proto.Read, 0)
	self.AddrVec = av
	other := proto.NewRequest(proto.Write, 64)
	other.AddrVec = av

	c.active.Enqueue(self)
	require.False(t, c.overlapsActive(av, self), "a request must not collide with itself")

	c.active.Enqueue(other)
	require.True(t, c.overlapsActive(av, self), "two entries addressing the same bank must collide")
}

// selectCandidate's priority order: an active-buffer request that is
// ready must be offered ahead of anything in priority or read/write.
func TestSelectCandidatePrefersActiveOverEverythingElse(t *testing.T) {
	c := newTestController()
	av := bankAddr(0, 0, 1, 7)

	active := proto.NewRequest(proto.Read, 0)
	active.AddrVec = av
	active.FinalCommand = proto.RD
	active.Command = proto.ACT
	c.active.Enqueue(active)
	require.True(t, c.dev.CheckReady(proto.ACT, av), "a never-touched bank should be ACT-ready immediately")

	other := proto.NewRequest(proto.Read, 4096)
	other.AddrVec = bankAddr(0, 0, 2, 1)
	c.readBuf.Enqueue(other)

	req, cmd := c.selectCandidate()
	require.NotNil(t, req)
	require.Same(t, active, req)
	require.Equal(t, proto.ACT, cmd)
}
