// Package queue implements the controller's request buffers: a bounded,
// order-preserving slice of *proto.Request with the addr-vec aggregation
// move used to batch RowClone/Majority requests into one PuM operation.
package queue

import "github.com/kestrel-sim/dramcore/internal/proto"

// Buffer is a bounded FIFO-ish collection of in-flight requests. Order is
// preserved on Enqueue/Remove so scheduler plug-ins that care about
// arrival order (FCFS) see it; removal is O(n) as befits the small
// buffer sizes this module targets (tens to low hundreds of entries).
type Buffer struct {
	items   []*proto.Request
	MaxSize int
}

// NewBuffer builds an empty buffer bounded at maxSize.
func NewBuffer(maxSize int) *Buffer {
	return &Buffer{MaxSize: maxSize}
}

// Len implements interfaces.Buffer.
func (b *Buffer) Len() int { return len(b.items) }

// At implements interfaces.Buffer.
func (b *Buffer) At(i int) *proto.Request { return b.items[i] }

// Enqueue appends req if there is room, reporting back-pressure (false)
// otherwise. On back-pressure the caller is expected to reset
// req.Arrive to -1, per spec.md §5.
func (b *Buffer) Enqueue(req *proto.Request) bool {
	if len(b.items) >= b.MaxSize {
		return false
	}
	b.items = append(b.items, req)
	return true
}

// Remove deletes req from the buffer by identity, preserving the order
// of the remaining entries. It is a no-op if req is not present.
func (b *Buffer) Remove(req *proto.Request) {
	for i, r := range b.items {
		if r == req {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return
		}
	}
}

// Front returns the oldest entry, or nil if the buffer is empty.
func (b *Buffer) Front() *proto.Request {
	if len(b.items) == 0 {
		return nil
	}
	return b.items[0]
}

// Empty reports whether the buffer holds no requests.
func (b *Buffer) Empty() bool { return len(b.items) == 0 }

// MoveNMatching groups src's entries by AddrVec and, for the first group
// reaching at least n entries, moves one representative (the oldest of
// the group) into dst. If the representative's type is Majority, two
// synthetic Fractional requests against the same AddrVec are moved along
// with it first (padding for majority's divide-by-three semantics) —
// spec.md §4.2 step 4. Groups are visited in the order their first
// member appears in src, matching src's arrival order.
//
// If dst lacks room for the whole batch, src is left untouched and
// MoveNMatching returns false without trying a different group — it does
// not retry a smaller group or a different AddrVec once the first
// qualifying group is found full (spec.md §9 open question 5).
func MoveNMatching(src, dst *Buffer, n int) bool {
	groups := make(map[proto.AddrVec][]*proto.Request)
	var order []proto.AddrVec
	for _, req := range src.items {
		if _, ok := groups[req.AddrVec]; !ok {
			order = append(order, req.AddrVec)
		}
		groups[req.AddrVec] = append(groups[req.AddrVec], req)
	}

	for _, av := range order {
		members := groups[av]
		if len(members) < n {
			continue
		}

		rep := members[0]
		var toEnqueue []*proto.Request
		if rep.Type == proto.Majority {
			for i := 0; i < fracPaddingCount; i++ {
				frac := Get(proto.Fractional, rep.Addr)
				frac.AddrVec = av
				toEnqueue = append(toEnqueue, frac)
			}
		}
		toEnqueue = append(toEnqueue, rep)

		if dst.Len()+len(toEnqueue) > dst.MaxSize {
			return false
		}
		for _, req := range toEnqueue {
			dst.Enqueue(req)
		}
		for i := 0; i < n; i++ {
			src.Remove(members[i])
		}
		return true
	}
	return false
}

// fracPaddingCount is the number of synthetic Fractional requests
// prepended to an aggregated Majority operation.
const fracPaddingCount = 2
