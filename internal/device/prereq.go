package device

import "github.com/kestrel-sim/dramcore/internal/proto"

// Prerequisite functions resolve, for a bank already in some state, the
// next command standing between it and cmd — or proto.NoCommand when
// issuing cmd right now would interrupt a sequence that must run to
// completion (APA's ACTp→PRE{v,j,f}→ACTv→op chain, spec.md §4.2/§8
// scenario F).

func requireRowOpen(n *Node, cmd proto.Command, av proto.AddrVec, clk int64) proto.Command {
	switch n.state {
	case proto.Closed:
		return proto.ACT
	case proto.Opened:
		if n.openRow == av.At(proto.Row) {
			return cmd
		}
		return proto.PRE
	case proto.Refreshing:
		return proto.ACT
	default:
		// Mid-PuM sequence: not meant to be interrupted.
		return proto.NoCommand
	}
}

func requireBankClosed(n *Node, cmd proto.Command, av proto.AddrVec, clk int64) proto.Command {
	switch n.state {
	case proto.Closed:
		return cmd
	case proto.Opened:
		return proto.PRE
	case proto.Refreshing:
		return cmd
	default:
		// Mid-PuM sequence: not meant to be interrupted.
		return proto.NoCommand
	}
}

// requireRowOpenPum is the "get into OpenedPum" fallback shared by
// requireRC/requireMAJ/requireFRAC: it is never registered as a command's
// own prerequisite, only called from their default branches once the
// bank is past the states they handle directly. A bank already holding a
// PuM-relevant state it doesn't recognize (RCState, MAJState, Processed
// reached via a different op) delegates to requireBankClosed, which vetoes
// anything but Closed/Opened/Refreshing.
func requireRowOpenPum(n *Node, cmd proto.Command, av proto.AddrVec, clk int64) proto.Command {
	switch n.state {
	case proto.Closed:
		return proto.ACTp
	case proto.Opened:
		return proto.PRE
	case proto.Refreshing:
		return proto.ACTp
	default:
		return requireBankClosed(n, cmd, av, clk)
	}
}

// requireRC resolves RowClone's chain: OpenedPum issues PREv, RCState
// returns the caller's cmd (RC itself, so this path never issues ACTv),
// and everything else falls back to requireRowOpenPum to get the bank
// into OpenedPum first.
func requireRC(n *Node, cmd proto.Command, av proto.AddrVec, clk int64) proto.Command {
	switch n.state {
	case proto.OpenedPum:
		return proto.PREv
	case proto.RCState:
		return cmd
	default:
		return requireRowOpenPum(n, cmd, av, clk)
	}
}

// requireMAJ walks Majority's ACTp→PREj→ACTv→MAJ chain.
func requireMAJ(n *Node, cmd proto.Command, av proto.AddrVec, clk int64) proto.Command {
	switch n.state {
	case proto.OpenedPum:
		return proto.PREj
	case proto.MAJState:
		return cmd
	default:
		return requireRowOpenPum(n, cmd, av, clk)
	}
}

// requireFRAC walks Fractional's ACTp→PREf→FRAC chain. spec.md's FSM
// diagram and its scenario E both show OpenedPum routing through PREf
// before FRAC fires, so unlike the original this never returns cmd
// straight from OpenedPum. See DESIGN.md.
func requireFRAC(n *Node, cmd proto.Command, av proto.AddrVec, clk int64) proto.Command {
	switch n.state {
	case proto.OpenedPum:
		return proto.PREf
	case proto.Processed:
		return cmd
	default:
		return requireRowOpenPum(n, cmd, av, clk)
	}
}

// requireAllBanksClosed gates REFab at rank scope: every bank beneath
// this rank must be Closed (not Opened, not anywhere in a PuM sequence)
// before a refresh may start.
func requireAllBanksClosed(n *Node, cmd proto.Command, av proto.AddrVec, clk int64) proto.Command {
	allClosed := true
	eachBank(n, func(b *Node) {
		if b.state != proto.Closed {
			allClosed = false
		}
	})
	if allClosed {
		return cmd
	}
	return proto.PREA
}

func buildPrereqs() PrereqHooks {
	var h PrereqHooks
	h[proto.Bank][proto.RD] = requireRowOpen
	h[proto.Bank][proto.WR] = requireRowOpen
	h[proto.Bank][proto.ACT] = requireRowOpen
	h[proto.Bank][proto.PRE] = requireBankClosed
	h[proto.Bank][proto.RC] = requireRC
	h[proto.Bank][proto.MAJ] = requireMAJ
	h[proto.Bank][proto.FRAC] = requireFRAC
	h[proto.Rank][proto.REFab] = requireAllBanksClosed
	return h
}
