// Package sched provides IScheduler implementations the controller uses
// to pick the next request out of a buffer each cycle.
package sched

import (
	"github.com/kestrel-sim/dramcore/internal/interfaces"
	"github.com/kestrel-sim/dramcore/internal/proto"
)

// FCFS always offers the oldest (lowest-index) request in the buffer.
type FCFS struct{}

func NewFCFS() *FCFS { return &FCFS{} }

func (FCFS) GetBestRequest(buf interfaces.Buffer) (*proto.Request, bool) {
	if buf.Len() == 0 {
		return nil, false
	}
	return buf.At(0), true
}
