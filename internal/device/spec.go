package device

import "github.com/kestrel-sim/dramcore/internal/proto"

// Organization describes the fixed DDR4 hierarchy fan-out and density,
// per spec.md §3/§6.
type Organization struct {
	DensityMb    int
	DQ           int
	ChannelWidth int
	// Count gives the fan-out at each level: channel, rank, bankgroup,
	// bank, row, column. Channel's own count is meaningless (there is
	// always exactly one root per Device) but kept for table symmetry.
	Count [proto.NumLevels]int
}

// Rows, Cols, Banks, BankGroups, Ranks are convenience accessors mirroring
// the named fields the original preset table exposes.
func (o Organization) Ranks() int     { return o.Count[proto.Rank] }
func (o Organization) BankGroups() int { return o.Count[proto.BankGroup] }
func (o Organization) Banks() int     { return o.Count[proto.Bank] }
func (o Organization) Rows() int      { return o.Count[proto.Row] }
func (o Organization) Cols() int      { return o.Count[proto.Column] }

// TimingParams is the per-rate JEDEC(+PuM) timing table, spec.md §6.
// A value of -1 means "unresolved"; config.BuildDevice must resolve every
// field (from the density×rate×dq table or caller override) before this
// is handed to NewSpec, or fail with a configuration error.
type TimingParams struct {
	RateMTps int64

	NBL   int64
	NCL   int64
	NRCD  int64
	NRP   int64
	NRAS  int64
	NRC   int64
	NWR   int64
	NRTP  int64
	NCWL  int64
	NCCDS int64
	NCCDL int64
	NRRDS int64
	NRRDL int64
	NWTRS int64
	NWTRL int64
	NFAW  int64
	NRFC  int64
	NREFI int64
	NCS   int64
	TCKps int64
}

// Unresolved reports whether any timing field is still the sentinel -1.
func (t TimingParams) Unresolved() []string {
	var missing []string
	check := func(name string, v int64) {
		if v == -1 {
			missing = append(missing, name)
		}
	}
	check("nBL", t.NBL)
	check("nCL", t.NCL)
	check("nRCD", t.NRCD)
	check("nRP", t.NRP)
	check("nRAS", t.NRAS)
	check("nRC", t.NRC)
	check("nWR", t.NWR)
	check("nRTP", t.NRTP)
	check("nCWL", t.NCWL)
	check("nCCDS", t.NCCDS)
	check("nCCDL", t.NCCDL)
	check("nRRDS", t.NRRDS)
	check("nRRDL", t.NRRDL)
	check("nWTRS", t.NWTRS)
	check("nWTRL", t.NWTRL)
	check("nFAW", t.NFAW)
	check("nRFC", t.NRFC)
	check("nREFI", t.NREFI)
	check("nCS", t.NCS)
	check("tCK_ps", t.TCKps)
	return missing
}

// pumActvLatency is the fixed ACTv-after-PRE{v,j} latency used in the PuM
// APA sequence (scenario D/E in spec.md §8: "ACTv (after 6)"). It is an
// architectural constant of the RowClone/Majority extension, not a
// per-rate JEDEC parameter, so it is not part of TimingParams.
const pumActvLatency = 6

// Constraint is one compiled timing-constraint record: issuing `Preceding`
// at a node implies `Following` cannot issue at the related node(s) until
// `Latency` cycles after the `Window`-th most recent issue of `Preceding`.
// Sibling constraints bind same-level, different-id nodes (rank-to-rank
// switching, etc.) instead of the node itself.
type Constraint struct {
	Preceding proto.Command
	Following proto.Command
	Latency   int64
	Window    int // 1 = most recent issue; k = k-th most recent (e.g. nFAW: 4)
	Sibling   bool
}

// Spec is the fully-resolved device timing model: organization, per-level
// constraint tables, and the (level, command) dispatch tables for state
// transitions, power accounting, and prerequisite resolution. It is built
// once by NewSpec (or internal/config.BuildDevice, which validates
// Organization/TimingParams first) and shared read-only by every Node.
type Spec struct {
	Org    Organization
	Timing TimingParams

	// constraints[level][cmd] lists every outgoing timing record keyed
	// on `cmd` issued at `level`.
	constraints [proto.NumNodeLevels][proto.NumCommands][]Constraint

	// historyWindow[level][cmd] is the deepest window any constraint at
	// (level, cmd) looks back; it sizes that node's history deque for
	// cmd. 0 means the deque is unused (empty, per spec.md §3).
	historyWindow [proto.NumNodeLevels][proto.NumCommands]int

	actions Hooks
	power   PowerHooks
	prereqs PrereqHooks
}

func (s *Spec) addConstraint(level proto.Level, c Constraint) {
	s.constraints[level][c.Preceding] = append(s.constraints[level][c.Preceding], c)
	if c.Window > s.historyWindow[level][c.Preceding] {
		s.historyWindow[level][c.Preceding] = c.Window
	}
}

func (s *Spec) constraintsFor(level proto.Level, cmd proto.Command) []Constraint {
	return s.constraints[level][cmd]
}

func (s *Spec) historyWindowFor(level proto.Level, cmd proto.Command) int {
	return s.historyWindow[level][cmd]
}
