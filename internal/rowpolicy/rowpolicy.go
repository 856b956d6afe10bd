// Package rowpolicy provides IRowPolicy implementations governing whether
// a bank is left open after its access completes.
package rowpolicy

import "github.com/kestrel-sim/dramcore/internal/proto"

// Closer issues a PRE request against a just-completed access's bank,
// implementing closed-page policy: never leave a row open speculatively.
type Closer interface {
	ClosePage(av proto.AddrVec)
}

// ClosedPage asks for a bank to be closed right after a read or write
// request's final command issues there, trading row-hit locality for a
// simpler, always-available bank. Other request types are left alone.
type ClosedPage struct {
	closer Closer
}

func NewClosedPage(closer Closer) *ClosedPage {
	return &ClosedPage{closer: closer}
}

func (p *ClosedPage) Update(found bool, req *proto.Request) {
	if !found || req == nil || !req.IsDone() {
		return
	}
	switch req.Type {
	case proto.Read, proto.Write:
		p.closer.ClosePage(req.AddrVec)
	}
}

// OpenPage never proactively closes a row, relying on a later conflicting
// access's own PRE prerequisite to close it. Update is a no-op; the
// policy lives entirely in the device's prerequisite resolution.
type OpenPage struct{}

func NewOpenPage() *OpenPage { return &OpenPage{} }

func (OpenPage) Update(found bool, req *proto.Request) {}
