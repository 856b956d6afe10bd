package ctrl

// Stats accumulates the controller's per-run counters. All fields are
// plain counters rather than an Observer-style interface: unlike power
// accounting (device.PowerObserver), scheduling statistics are intrinsic
// to the controller's own decisions, not something an external collaborator
// observes from the outside.
type Stats struct {
	QueueLen        int64
	ReadQueueLen    int64
	WriteQueueLen   int64
	PriorityLen     int64

	ForwardedReads  int64
	SchedulerMisses int64
	RowCloseVetoes  int64
	APAVetoes       int64
}

func (s *Stats) observeQueueLengths(c *Controller) {
	s.QueueLen += int64(c.readBuf.Len() + c.writeBuf.Len() + c.priority.Len() + len(c.pending))
	s.ReadQueueLen += int64(c.readBuf.Len() + len(c.pending))
	s.WriteQueueLen += int64(c.writeBuf.Len())
	s.PriorityLen += int64(c.priority.Len())
}
