package device

import "github.com/kestrel-sim/dramcore/internal/proto"

// constraintTemplate is the textual shorthand the original constraint
// table is written in: one record can name several preceding and
// following commands at once, expanding to the cross product.
type constraintTemplate struct {
	level      proto.Level
	preceding  []proto.Command
	following  []proto.Command
	latency    func(t TimingParams) int64
	window     int
	sibling    bool
}

// ddr4Constraints is the DDR4+PuM timing-constraint table, grounded on the
// per-rate latency records compiled in the reference implementation's
// device model (channel/rank/bankgroup/bank levels), simplified to the
// command set in use here: there is no auto-precharge RD/WR variant, so
// every record keyed on it in the source collapses onto plain RD/WR.
var ddr4Constraints = []constraintTemplate{
	// Channel: data-bus occupancy.
	{level: proto.Channel, preceding: rds, following: rds, latency: func(t TimingParams) int64 { return t.NBL }},
	{level: proto.Channel, preceding: wrs, following: wrs, latency: func(t TimingParams) int64 { return t.NBL }},

	// Rank: CAS-CAS, CAS-PREA, RAS-RAS, RAS-REF.
	{level: proto.Rank, preceding: rds, following: rds, latency: func(t TimingParams) int64 { return t.NCCDS }},
	{level: proto.Rank, preceding: wrs, following: wrs, latency: func(t TimingParams) int64 { return t.NCCDS }},
	{level: proto.Rank, preceding: rds, following: wrs, latency: func(t TimingParams) int64 { return t.NCL + t.NBL + 2 - t.NCWL }},
	{level: proto.Rank, preceding: wrs, following: rds, latency: func(t TimingParams) int64 { return t.NCWL + t.NBL + t.NWTRS }},
	{level: proto.Rank, preceding: rds, following: append(append([]proto.Command{}, rds...), wrs...), latency: func(t TimingParams) int64 { return t.NBL + t.NCS }, sibling: true},
	{level: proto.Rank, preceding: wrs, following: rds, latency: func(t TimingParams) int64 { return t.NCL + t.NBL + t.NCS - t.NCWL }, sibling: true},
	{level: proto.Rank, preceding: pumFinals, following: append(append(append([]proto.Command{}, rds...), wrs...), pumFinals...), latency: func(t TimingParams) int64 { return t.NCS }, sibling: true},
	{level: proto.Rank, preceding: append(append([]proto.Command{}, rds...), wrs...), following: pumFinals, latency: func(t TimingParams) int64 { return t.NCS }, sibling: true},
	{level: proto.Rank, preceding: rds, following: []proto.Command{proto.PREA}, latency: func(t TimingParams) int64 { return t.NRTP }},
	{level: proto.Rank, preceding: wrs, following: []proto.Command{proto.PREA}, latency: func(t TimingParams) int64 { return t.NCWL + t.NBL + t.NWR }},
	{level: proto.Rank, preceding: pumFinals, following: []proto.Command{proto.PREA}, latency: constLatency(1)},
	{level: proto.Rank, preceding: []proto.Command{proto.ACT}, following: []proto.Command{proto.ACT, proto.ACTp, proto.ACTv}, latency: func(t TimingParams) int64 { return t.NRRDS }},
	{level: proto.Rank, preceding: []proto.Command{proto.ACT}, following: []proto.Command{proto.ACT}, latency: func(t TimingParams) int64 { return t.NFAW }, window: 4},
	{level: proto.Rank, preceding: []proto.Command{proto.ACT}, following: []proto.Command{proto.PREA}, latency: func(t TimingParams) int64 { return t.NRAS }},
	{level: proto.Rank, preceding: []proto.Command{proto.PREA}, following: []proto.Command{proto.ACT, proto.ACTp}, latency: func(t TimingParams) int64 { return t.NRP }},
	{level: proto.Rank, preceding: []proto.Command{proto.ACTp}, following: []proto.Command{proto.ACT, proto.ACTp, proto.ACTv}, latency: func(t TimingParams) int64 { return t.NRRDS }},
	{level: proto.Rank, preceding: []proto.Command{proto.ACTv}, following: []proto.Command{proto.ACT, proto.ACTp, proto.ACTv}, latency: func(t TimingParams) int64 { return t.NRRDS }},
	{level: proto.Rank, preceding: []proto.Command{proto.ACT}, following: []proto.Command{proto.REFab}, latency: func(t TimingParams) int64 { return t.NRC }},
	{level: proto.Rank, preceding: []proto.Command{proto.PRE, proto.PREA}, following: []proto.Command{proto.REFab}, latency: func(t TimingParams) int64 { return t.NRP }},
	{level: proto.Rank, preceding: []proto.Command{proto.REFab}, following: []proto.Command{proto.ACT, proto.PREA}, latency: func(t TimingParams) int64 { return t.NRFC }},
	{level: proto.Rank, preceding: []proto.Command{proto.ACTp}, following: []proto.Command{proto.REFab}, latency: func(t TimingParams) int64 { return t.NRC }},

	// BankGroup: tighter CAS-CAS and RAS-RAS within the same group.
	{level: proto.BankGroup, preceding: rds, following: rds, latency: func(t TimingParams) int64 { return t.NCCDL }},
	{level: proto.BankGroup, preceding: wrs, following: wrs, latency: func(t TimingParams) int64 { return t.NCCDL }},
	{level: proto.BankGroup, preceding: wrs, following: rds, latency: func(t TimingParams) int64 { return t.NCWL + t.NBL + t.NWTRL }},
	{level: proto.BankGroup, preceding: pumFinals, following: append(append([]proto.Command{}, rds...), wrs...), latency: func(t TimingParams) int64 { return t.NCCDL }},
	{level: proto.BankGroup, preceding: []proto.Command{proto.ACT}, following: []proto.Command{proto.ACT, proto.ACTp, proto.ACTv}, latency: func(t TimingParams) int64 { return t.NRRDL }},
	{level: proto.BankGroup, preceding: []proto.Command{proto.ACTp}, following: []proto.Command{proto.ACT, proto.ACTp, proto.ACTv}, latency: func(t TimingParams) int64 { return t.NRRDL }},
	{level: proto.BankGroup, preceding: []proto.Command{proto.ACTv}, following: []proto.Command{proto.ACT, proto.ACTp, proto.ACTv}, latency: func(t TimingParams) int64 { return t.NRRDL }},

	// Bank: core RAS/CAS, plus the PuM sequences and their long quiescent
	// tails (an RC/MAJ/FRAC gates a later RD/WR/ACT/PRE/FRAC/MAJ/RC off
	// its completion rather than its issue; ACTp/ACTv and the PRE{v,j,f}
	// variants are not in that set).
	{level: proto.Bank, preceding: []proto.Command{proto.ACT}, following: []proto.Command{proto.ACT}, latency: func(t TimingParams) int64 { return t.NRC }},
	{level: proto.Bank, preceding: []proto.Command{proto.ACT}, following: append(append([]proto.Command{}, rds...), wrs...), latency: func(t TimingParams) int64 { return t.NRCD }},
	{level: proto.Bank, preceding: []proto.Command{proto.ACT}, following: []proto.Command{proto.PRE}, latency: func(t TimingParams) int64 { return t.NRAS }},
	{level: proto.Bank, preceding: []proto.Command{proto.PRE}, following: []proto.Command{proto.ACT}, latency: func(t TimingParams) int64 { return t.NRP }},
	{level: proto.Bank, preceding: []proto.Command{proto.RD}, following: []proto.Command{proto.PRE}, latency: func(t TimingParams) int64 { return t.NRTP }},
	{level: proto.Bank, preceding: []proto.Command{proto.WR}, following: []proto.Command{proto.PRE}, latency: func(t TimingParams) int64 { return t.NCWL + t.NBL + t.NWR }},

	{level: proto.Bank, preceding: []proto.Command{proto.RC}, following: quiescentTargets, latency: func(t TimingParams) int64 { return t.NRAS + pumActvLatency + t.NRP }},
	{level: proto.Bank, preceding: []proto.Command{proto.MAJ}, following: quiescentTargets, latency: func(t TimingParams) int64 { return 3 + pumActvLatency + t.NRP }},
	{level: proto.Bank, preceding: []proto.Command{proto.FRAC}, following: quiescentTargets, latency: func(t TimingParams) int64 { return 1 + t.NRP }},

	{level: proto.Bank, preceding: []proto.Command{proto.ACTp}, following: []proto.Command{proto.PREv}, latency: func(t TimingParams) int64 { return t.NRAS }},
	{level: proto.Bank, preceding: []proto.Command{proto.PREv}, following: []proto.Command{proto.ACTv}, latency: constLatency(pumActvLatency)},
	{level: proto.Bank, preceding: []proto.Command{proto.ACTv}, following: []proto.Command{proto.RC}, latency: func(t TimingParams) int64 { return t.NRP }},

	{level: proto.Bank, preceding: []proto.Command{proto.ACTp}, following: []proto.Command{proto.PREj}, latency: constLatency(3)},
	{level: proto.Bank, preceding: []proto.Command{proto.PREj}, following: []proto.Command{proto.ACTv}, latency: constLatency(pumActvLatency)},
	{level: proto.Bank, preceding: []proto.Command{proto.ACTv}, following: []proto.Command{proto.MAJ}, latency: func(t TimingParams) int64 { return t.NRP }},

	{level: proto.Bank, preceding: []proto.Command{proto.ACTp}, following: []proto.Command{proto.PREf}, latency: constLatency(1)},
	{level: proto.Bank, preceding: []proto.Command{proto.PREf}, following: []proto.Command{proto.FRAC}, latency: func(t TimingParams) int64 { return t.NRP }},
}

var (
	rds       = []proto.Command{proto.RD}
	wrs       = []proto.Command{proto.WR}
	pumFinals = []proto.Command{proto.FRAC, proto.MAJ, proto.RC}

	quiescentTargets = []proto.Command{
		proto.RD, proto.WR, proto.ACT, proto.PRE, proto.FRAC, proto.MAJ, proto.RC,
	}
)

func constLatency(v int64) func(TimingParams) int64 {
	return func(TimingParams) int64 { return v }
}

// NewSpec compiles a complete device timing model from a resolved
// organization and timing table. Callers (typically internal/config)
// must first ensure Timing.Unresolved() is empty.
func NewSpec(org Organization, timing TimingParams) *Spec {
	s := &Spec{Org: org, Timing: timing}
	for _, tpl := range ddr4Constraints {
		latency := tpl.latency(timing)
		window := tpl.window
		if window == 0 {
			window = 1
		}
		for _, p := range tpl.preceding {
			for _, f := range tpl.following {
				s.addConstraint(tpl.level, Constraint{
					Preceding: p,
					Following: f,
					Latency:   latency,
					Window:    window,
					Sibling:   tpl.sibling,
				})
			}
		}
	}
	s.actions = buildActions()
	s.power = buildPower()
	s.prereqs = buildPrereqs()
	return s
}
