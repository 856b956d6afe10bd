package queue

import (
	"sync"

	"github.com/kestrel-sim/dramcore/internal/proto"
)

// requestPool recycles *proto.Request values to avoid an allocation per
// incoming trace line; every buffer draws from and returns to the same
// pool since requests migrate freely between buffers over their lifetime.
var requestPool = sync.Pool{
	New: func() any { return &proto.Request{} },
}

// Get returns a zeroed, ready-to-fill request of the given type and flat
// address.
func Get(t proto.ReqType, addr int64) *proto.Request {
	req := requestPool.Get().(*proto.Request)
	*req = *proto.NewRequest(t, addr)
	return req
}

// Put returns a request to the pool. The controller calls it for a read
// once its callback has fired; completed writes and PuM requests are not
// returned. Callers must not retain req after calling Put.
func Put(req *proto.Request) {
	requestPool.Put(req)
}
