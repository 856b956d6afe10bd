// Package refresh provides IRefreshManager implementations.
package refresh

import (
	"github.com/kestrel-sim/dramcore/internal/dramerr"
	"github.com/kestrel-sim/dramcore/internal/interfaces"
	"github.com/kestrel-sim/dramcore/internal/proto"
)

// AllBankManager issues one rank-wide REFab request every nREFI cycles,
// per rank. It tracks the next due cycle per rank index and pushes a
// Refresh request into the controller's priority buffer when due,
// advancing the due cycle only once the send succeeds (a refresh that
// misses its window this cycle is retried the next). A refresh that is
// still unserved a full nREFI window after it became due is an invariant
// violation, not a request to keep retrying forever — Tick panics rather
// than let a rank go unrefreshed indefinitely.
type AllBankManager struct {
	nrefi   int64
	channel int
	nextDue []int64 // indexed by rank
}

// NewAllBankManager builds a manager for numRanks ranks on the given
// channel, with the first refresh due at cycle nrefi.
func NewAllBankManager(channel int, numRanks int, nrefi int64) *AllBankManager {
	due := make([]int64, numRanks)
	for i := range due {
		due[i] = nrefi
	}
	return &AllBankManager{nrefi: nrefi, channel: channel, nextDue: due}
}

func (m *AllBankManager) Tick(clk int64, sink interfaces.RefreshSink) {
	for rank, due := range m.nextDue {
		if clk < due {
			continue
		}
		if clk >= due+m.nrefi {
			panic(dramerr.NewRefreshOverdueError("refresh_tick", m.channel, rank, clk))
		}
		req := proto.NewRequest(proto.Refresh, 0)
		req.AddrVec = proto.Any()
		req.AddrVec[proto.Channel] = m.channel
		req.AddrVec[proto.Rank] = rank
		if sink.PrioritySend(req) {
			m.nextDue[rank] = due + m.nrefi
		}
	}
}
