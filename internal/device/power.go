package device

import "github.com/kestrel-sim/dramcore/internal/proto"

// Power hooks are thin: every command notifies the observer at its own
// scope level, and background/energy accounting lives entirely in the
// observer (spec.md §6, "observer on command issue"). The device itself
// carries no power state.

func buildPower() PowerHooks {
	var h PowerHooks
	for cmd := 0; cmd < proto.NumCommands; cmd++ {
		level := proto.Command(cmd).Scope()
		h[level][cmd] = powerHookFor(proto.Command(cmd))
	}
	return h
}

// powerHookFor closes over cmd so the registered PowerFunc reports the
// correct command without needing it threaded through Node.
func powerHookFor(cmd proto.Command) PowerFunc {
	return func(n *Node, av proto.AddrVec, clk int64, obs PowerObserver) {
		if obs == nil {
			return
		}
		obs.ObserveCommand(cmd, n.level, av.At(proto.Rank), clk)
	}
}
