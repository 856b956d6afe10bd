package device

import "github.com/kestrel-sim/dramcore/internal/proto"

// Bank-level actions. target is the row id addressed (addr_vec[row]),
// passed down as targetChildID even though bank has no child nodes — it
// identifies which row the bank's open-row bookkeeping applies to,
// matching the original's target_id parameter.

func actClosedOrRefreshing(n *Node, target int, clk int64) {
	n.state = proto.Opened
	n.openRow = target
}

func preCloses(n *Node, target int, clk int64) {
	n.state = proto.Closed
	n.openRow = -1
}

func actp(n *Node, target int, clk int64) {
	n.state = proto.OpenedPum
	n.openRow = target
}

func prev(n *Node, target int, clk int64) {
	n.state = proto.RCState
	n.openRow = target
}

func actv(n *Node, target int, clk int64) {
	n.state = proto.Processed
	n.openRow = target
}

func rc(n *Node, target int, clk int64) {
	n.state = proto.Closed
	n.openRow = -1
}

func prej(n *Node, target int, clk int64) {
	n.state = proto.MAJState
	n.openRow = target
}

func maj(n *Node, target int, clk int64) {
	n.state = proto.Closed
	n.openRow = -1
}

// pref transitions OpenedPum straight to Processed, per spec.md §3's FSM
// and §8 scenario E (ACTp→PREf→FRAC) — not, as in the source this module
// is grounded on, a dead transition bypassed by the prerequisite table.
// See DESIGN.md for the resolution.
func pref(n *Node, target int, clk int64) {
	n.state = proto.Processed
	n.openRow = target
}

func frac(n *Node, target int, clk int64) {
	n.state = proto.Closed
	n.openRow = -1
}

// Rank-level actions: REFab/REFab_end/PREA act directly on every
// descendant bank rather than relying on per-bank dispatch, matching the
// teacher-adjacent original's Action::Rank functions — the hook is
// registered only at rank scope.

func rankPREA(n *Node, target int, clk int64) {
	eachBank(n, func(b *Node) {
		b.state = proto.Closed
		b.openRow = -1
	})
}

func rankREFab(n *Node, target int, clk int64) {
	eachBank(n, func(b *Node) {
		b.state = proto.Refreshing
	})
}

func rankREFabEnd(n *Node, target int, clk int64) {
	eachBank(n, func(b *Node) {
		b.state = proto.Closed
		b.openRow = -1
	})
}

func eachBank(n *Node, fn func(*Node)) {
	if n.level == proto.Bank {
		fn(n)
		return
	}
	for _, c := range n.children {
		eachBank(c, fn)
	}
}

func buildActions() Hooks {
	var h Hooks
	h[proto.Rank][proto.PREA] = rankPREA
	h[proto.Rank][proto.REFab] = rankREFab
	h[proto.Rank][proto.REFabEnd] = rankREFabEnd

	h[proto.Bank][proto.ACT] = actClosedOrRefreshing
	h[proto.Bank][proto.PRE] = preCloses
	h[proto.Bank][proto.ACTp] = actp
	h[proto.Bank][proto.PREv] = prev
	h[proto.Bank][proto.ACTv] = actv
	h[proto.Bank][proto.RC] = rc
	h[proto.Bank][proto.PREj] = prej
	h[proto.Bank][proto.MAJ] = maj
	h[proto.Bank][proto.PREf] = pref
	h[proto.Bank][proto.FRAC] = frac
	return h
}
