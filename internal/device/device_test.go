package device

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-sim/dramcore/internal/proto"
)

func testTiming() TimingParams {
	return TimingParams{
		RateMTps: 3200,
		NBL:      4, NCL: 22, NRCD: 22, NRP: 22, NRAS: 52, NRC: 74,
		NWR: 20, NRTP: 12, NCWL: 16, NCCDS: 4, NCCDL: 6,
		NRRDS: 4, NRRDL: 6, NWTRS: 4, NWTRL: 10, NFAW: 34,
		NRFC: 560, NREFI: 19760, NCS: 2, TCKps: 625,
	}
}

func testOrg() Organization {
	return Organization{
		DensityMb:    8192,
		DQ:           8,
		ChannelWidth: 64,
		Count: [proto.NumLevels]int{
			proto.Channel: 1, proto.Rank: 1, proto.BankGroup: 2, proto.Bank: 4,
			proto.Row: 65536, proto.Column: 1024,
		},
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

func TestSimpleReadHit(t *testing.T) {
	spec := NewSpec(testOrg(), testTiming())
	dev := NewDevice(spec, nil)
	av := bankAddr(0, 0, 0, 5)

	require.Equal(t, proto.ACT, dev.GetPrereq(proto.RD, av))
	require.True(t, dev.CheckReady(proto.ACT, av))
	dev.IssueCommand(proto.ACT, av)

	require.False(t, dev.CheckReady(proto.RD, av))
	for i := int64(0); i < spec.Timing.NRCD; i++ {
		dev.Tick()
	}
	require.True(t, dev.CheckReady(proto.RD, av))
	require.Equal(t, proto.RD, dev.GetPrereq(proto.RD, av))
	require.True(t, dev.CheckRowBufferHit(av))
}

func TestReadMissReopens(t *testing.T) {
	spec := NewSpec(testOrg(), testTiming())
	dev := NewDevice(spec, nil)
	av := bankAddr(0, 0, 0, 5)
	dev.IssueCommand(proto.ACT, av)
	dev.IssueCommand(proto.RD, av)

	other := bankAddr(0, 0, 0, 9)
	require.Equal(t, proto.PRE, dev.GetPrereq(proto.RD, other))
}

func TestRowCloneAPASequence(t *testing.T) {
	spec := NewSpec(testOrg(), testTiming())
	dev := NewDevice(spec, nil)
	av := bankAddr(0, 0, 0, 5)

	require.Equal(t, proto.ACTp, dev.GetPrereq(proto.RC, av))
	dev.IssueCommand(proto.ACTp, av)
	require.Equal(t, proto.PREv, dev.GetPrereq(proto.RC, av))

	dev.IssueCommand(proto.PREv, av)
	require.Equal(t, proto.RC, dev.GetPrereq(proto.RC, av))

	dev.IssueCommand(proto.ACTv, av)
	require.Equal(t, proto.RC, dev.GetPrereq(proto.RC, av))
	dev.IssueCommand(proto.RC, av)

	bank := dev.root.bankAt(av)
	require.Equal(t, proto.Closed, bank.state)
}

func TestFractionalRequiresPREfBeforeFRAC(t *testing.T) {
	spec := NewSpec(testOrg(), testTiming())
	dev := NewDevice(spec, nil)
	av := bankAddr(0, 0, 1, 7)

	dev.IssueCommand(proto.ACTp, av)
	require.Equal(t, proto.PREf, dev.GetPrereq(proto.FRAC, av))
	dev.IssueCommand(proto.PREf, av)

	bank := dev.root.bankAt(av)
	require.Equal(t, proto.Processed, bank.state)
	require.Equal(t, proto.FRAC, dev.GetPrereq(proto.FRAC, av))
}

func TestRefreshRequiresAllBanksClosed(t *testing.T) {
	spec := NewSpec(testOrg(), testTiming())
	dev := NewDevice(spec, nil)
	av := bankAddr(0, 0, 0, 3)
	rankAv := proto.Any()
	rankAv[proto.Channel] = 0
	rankAv[proto.Rank] = 0

	dev.IssueCommand(proto.ACT, av)
	require.Equal(t, proto.PREA, dev.GetPrereq(proto.REFab, rankAv))

	dev.IssueCommand(proto.PRE, av)
	require.Equal(t, proto.REFab, dev.GetPrereq(proto.REFab, rankAv))
}

func TestSiblingConstraintAffectsOtherRankNotSelf(t *testing.T) {
	org := testOrg()
	org.Count[proto.Rank] = 2
	spec := NewSpec(org, testTiming())
	dev := NewDevice(spec, nil)

	avRank0 := bankAddr(0, 0, 0, 1)
	avRank1 := bankAddr(1, 0, 0, 1)
	dev.IssueCommand(proto.ACT, avRank0)
	dev.IssueCommand(proto.RD, avRank0)

	require.Greater(t, dev.ReadyCycle(proto.RD, avRank1), int64(0))
}
