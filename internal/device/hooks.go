package device

import "github.com/kestrel-sim/dramcore/internal/proto"

// ActionFunc is a state-transition hook: one per (level, command) pair,
// dispatched through Spec's table instead of virtual methods (spec.md §9,
// "Hierarchical dispatch without inheritance").
type ActionFunc func(n *Node, targetChildID int, clk int64)

// Hooks is the (level, command)-indexed action-hook table.
type Hooks [proto.NumNodeLevels][proto.NumCommands]ActionFunc

// PowerObserver receives one notification per command issued at a node
// its power hook reaches, carrying enough to attribute rank-level
// active/idle background and per-command energy (spec.md §6a). rank is
// the AddrVec's rank index, or -1 if the command is rank-wildcarded
// (e.g. a channel-broadcast address).
type PowerObserver interface {
	ObserveCommand(cmd proto.Command, level proto.Level, rank int, clk int64)
}

// PowerFunc is a power-accounting hook: one per (level, command) pair.
type PowerFunc func(n *Node, av proto.AddrVec, clk int64, obs PowerObserver)

// PowerHooks is the (level, command)-indexed power-hook table.
type PowerHooks [proto.NumNodeLevels][proto.NumCommands]PowerFunc

// PrereqFunc resolves, for a node at some level, the next command that
// must issue before cmd can fire at this node — or proto.NoCommand if
// issuing cmd right now would interrupt a sequence that must not be
// interrupted.
type PrereqFunc func(n *Node, cmd proto.Command, av proto.AddrVec, clk int64) proto.Command

// PrereqHooks is the (level, command)-indexed prerequisite-resolution
// table.
type PrereqHooks [proto.NumNodeLevels][proto.NumCommands]PrereqFunc
