package sched

import (
	"github.com/kestrel-sim/dramcore/internal/interfaces"
	"github.com/kestrel-sim/dramcore/internal/proto"
)

// RowHitChecker is the slice of the device model FRFCFS needs: whether a
// request's target bank is already open on its row.
type RowHitChecker interface {
	CheckRowBufferHit(av proto.AddrVec) bool
}

// FRFCFS (first-ready, first-come-first-served) prefers the oldest
// request whose target bank is already open on the right row — a row
// hit can issue its column command immediately, ahead of requests that
// would need a fresh ACT — and falls back to strict arrival order when
// no entry is a hit.
type FRFCFS struct {
	device RowHitChecker
}

func NewFRFCFS(device RowHitChecker) *FRFCFS {
	return &FRFCFS{device: device}
}

func (s *FRFCFS) GetBestRequest(buf interfaces.Buffer) (*proto.Request, bool) {
	n := buf.Len()
	if n == 0 {
		return nil, false
	}
	for i := 0; i < n; i++ {
		req := buf.At(i)
		if s.device.CheckRowBufferHit(req.AddrVec) {
			return req, true
		}
	}
	return buf.At(0), true
}
