package dramsim

import "github.com/kestrel-sim/dramcore/internal/proto"

// Observer is the pluggable metrics-collection port, grounded in the
// teacher's metrics.go Observer/NoOpObserver/MetricsObserver trio: the
// device and controller call it, callers choose what (if anything) to do
// with the notification.
type Observer interface {
	// ObserveCommand is called for every command the device issues.
	ObserveCommand(cmd proto.Command, level proto.Level, rank int, clk int64)

	// ObserveRankCycle is called once per tick per rank, reporting whether
	// the rank had at least one bank open that cycle.
	ObserveRankCycle(rank int, active bool)

	// ObserveQueueDepth is called once per controller tick with the
	// combined occupancy of the read, write and priority buffers plus the
	// reads awaiting departure.
	ObserveQueueDepth(depth int)

	// ObserveReadLatency is called once per completed read, in cycles.
	ObserveReadLatency(cycles int64)

	// ObserveFinalize is called exactly once, at run end, with the number
	// of ranks the simulation tracked — the signal that no further
	// ObserveCommand/ObserveRankCycle/ObserveQueueDepth/ObserveReadLatency
	// calls will arrive and any end-of-run reporting can happen now.
	ObserveFinalize(ranks int)
}

// NoOpObserver discards every notification; the zero value is ready to use.
type NoOpObserver struct{}

func (NoOpObserver) ObserveCommand(proto.Command, proto.Level, int, int64) {}
func (NoOpObserver) ObserveRankCycle(int, bool)                           {}
func (NoOpObserver) ObserveQueueDepth(int)                                {}
func (NoOpObserver) ObserveReadLatency(int64)                             {}
func (NoOpObserver) ObserveFinalize(int)                                  {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver builds an observer that records every notification
// into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveCommand(cmd proto.Command, level proto.Level, rank int, clk int64) {
	if level != proto.Bank && level != proto.Rank {
		return
	}
	o.metrics.RecordCommand(cmd, rank)
}

func (o *MetricsObserver) ObserveRankCycle(rank int, active bool) {
	o.metrics.RecordRankCycle(rank, active)
}

func (o *MetricsObserver) ObserveQueueDepth(depth int) {
	o.metrics.RecordQueueDepth(depth)
}

func (o *MetricsObserver) ObserveReadLatency(cycles int64) {
	o.metrics.RecordReadLatency(cycles)
}

func (o *MetricsObserver) ObserveFinalize(ranks int) {
	o.metrics.MarkFinalized()
}

var (
	_ Observer            = NoOpObserver{}
	_ Observer            = (*MetricsObserver)(nil)
)
