// Package interfaces declares the collaborator ports the controller and
// device consume but do not implement: scheduler policy, refresh timing,
// row-open policy, controller plug-ins, and address decoding. Concrete
// implementations live in internal/sched, internal/refresh,
// internal/rowpolicy, and internal/decoder.
package interfaces

import "github.com/kestrel-sim/dramcore/internal/proto"

// Buffer is the minimal view a scheduler needs of a request buffer: an
// ordered, indexable slice of in-flight requests. internal/queue.Buffer
// satisfies this.
type Buffer interface {
	Len() int
	At(i int) *proto.Request
}

// IScheduler picks which request in a buffer to try next. Returns false
// if the buffer has nothing to offer (the buffer is empty).
type IScheduler interface {
	GetBestRequest(buf Buffer) (*proto.Request, bool)
}

// RefreshSink is the subset of the controller a refresh manager can push
// requests into — its priority buffer.
type RefreshSink interface {
	PrioritySend(req *proto.Request) bool
}

// IRefreshManager is ticked once per cycle and may enqueue a refresh
// request into the controller's priority buffer when one falls due.
type IRefreshManager interface {
	Tick(clk int64, sink RefreshSink)
}

// IRowPolicy observes the outcome of each scheduling attempt so it can
// adapt open/closed-page behavior (e.g. issuing a proactive PRE after a
// hit under closed-page policy).
type IRowPolicy interface {
	Update(found bool, req *proto.Request)
}

// IControllerPlugin is a general per-cycle observer hook; the controller
// drives zero or more of these after each tick's scheduling decision.
type IControllerPlugin interface {
	Update(found bool, req *proto.Request)
}

// IAddressDecoder maps a flat address to a fully specified AddrVec.
type IAddressDecoder interface {
	Decode(addr int64) proto.AddrVec
}

// StatsObserver receives the controller-level statistics the device's
// PowerObserver doesn't see: queue occupancy and completed-read latency.
// Optional — a nil StatsObserver means "don't report".
type StatsObserver interface {
	ObserveQueueDepth(depth int)
	ObserveReadLatency(cycles int64)
}

